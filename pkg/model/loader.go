package model

import (
	"bytes"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	internalmodel "github.com/goliatone/go-nestedforms/internal/model"
)

// LoadOption configures declaration loading.
type LoadOption func(*loadOptions)

type loadOptions struct {
	labeler    func(string) string
	strict     bool
	decorators []Decorator
}

// WithLabeler overrides the function used to fill missing field labels.
func WithLabeler(labeler func(string) string) LoadOption {
	return func(opts *loadOptions) {
		opts.labeler = labeler
	}
}

// WithStrictFields rejects unknown keys in the declaration document. Enabled
// by default.
func WithStrictFields(strict bool) LoadOption {
	return func(opts *loadOptions) {
		opts.strict = strict
	}
}

// WithDecorators registers decorators applied after parsing and before
// validation.
func WithDecorators(decorators ...Decorator) LoadOption {
	return func(opts *loadOptions) {
		opts.decorators = append(opts.decorators, decorators...)
	}
}

// Load reads a YAML or JSON declaration from disk.
func Load(path string, options ...LoadOption) (FormModel, error) {
	if path == "" {
		return FormModel{}, errors.New("model: declaration path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FormModel{}, errors.Wrap(err, "model: read declaration")
	}
	form, err := Parse(data, options...)
	if err != nil {
		return FormModel{}, errors.Wrapf(err, "model: %s", path)
	}
	return form, nil
}

// Parse decodes a YAML or JSON declaration, fills labels, runs decorators and
// validates the result.
func Parse(data []byte, options ...LoadOption) (FormModel, error) {
	opts := loadOptions{strict: true}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	resolved := internalmodel.Options{Labeler: opts.labeler}.Resolve()

	if len(bytes.TrimSpace(data)) == 0 {
		return FormModel{}, errors.New("model: declaration is empty")
	}

	var form FormModel
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(opts.strict)
	if err := decoder.Decode(&form); err != nil {
		return FormModel{}, errors.Wrap(err, "model: decode declaration")
	}

	for _, decorator := range opts.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&form); err != nil {
			return FormModel{}, errors.Wrap(err, "model: decorate declaration")
		}
	}

	internalmodel.ApplyLabels(&form, resolved.Labeler)
	if err := Validate(form); err != nil {
		return FormModel{}, err
	}
	return form, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
