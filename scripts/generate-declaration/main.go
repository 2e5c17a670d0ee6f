package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-nestedforms/pkg/model"
	"github.com/goliatone/go-nestedforms/pkg/openapi"
)

func main() {
	var (
		schemaPath = flag.String("schema", "pkg/openapi/testdata/article.yaml", "OpenAPI document path")
		component  = flag.String("component", "Article", "component schema to convert")
		table      = flag.String("table", "", "parent table; formsets become inline formsets stored in tables named after their keys")
		foreignKey = flag.String("foreign-key", "parent_id", "foreign key column of inline formsets")
		outputPath = flag.String("output", "", "output path for the YAML declaration (stdout if empty)")
	)
	flag.Parse()

	form, err := openapi.Load(context.Background(), *schemaPath, *component)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to convert schema: %v\n", err)
		os.Exit(1)
	}
	if *table != "" {
		form.Table = *table
		for i := range form.Formsets {
			form.Formsets[i].Kind = model.FormsetKindInline
			form.Formsets[i].Table = form.Formsets[i].Key
			form.Formsets[i].ForeignKey = *foreignKey
		}
	}
	if err := model.Validate(form); err != nil {
		fmt.Fprintf(os.Stderr, "converted declaration is invalid: %v\n", err)
		os.Exit(1)
	}

	payload, err := yaml.Marshal(form)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode declaration: %v\n", err)
		os.Exit(1)
	}
	if *outputPath == "" {
		os.Stdout.Write(payload)
		return
	}
	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, payload, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write declaration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Wrote declaration for %s to %s\n", *component, *outputPath)
}
