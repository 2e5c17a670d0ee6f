package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goliatone/go-nestedforms/pkg/orchestrator"
	"github.com/goliatone/go-nestedforms/pkg/store"
)

// Report is what validate, save and fill print.
type Report struct {
	Description string              `json:"description"`
	Valid       bool                `json:"valid"`
	Errors      map[string][]string `json:"errors,omitempty"`
	FormErrors  []string            `json:"formErrors,omitempty"`
	Saved       *SavedRecord        `json:"saved,omitempty"`
}

// SavedRecord describes the parent record written by save or fill.
type SavedRecord struct {
	Table     string         `json:"table"`
	ID        int64          `json:"id"`
	Committed bool           `json:"committed"`
	Values    map[string]any `json:"values"`
}

func newReport(result *orchestrator.Result) Report {
	valid := result.Form.IsValid()
	report := Report{Description: result.Form.String(), Valid: valid}
	if !valid {
		mapping := result.Errors()
		report.Errors, report.FormErrors = mapping.Fields, mapping.Form
	}
	return report
}

func (r *Report) recordSaved(table string, rec *store.Record, committed bool) {
	if rec == nil {
		return
	}
	r.Saved = &SavedRecord{Table: table, ID: rec.ID, Committed: committed, Values: rec.Values}
}

func writeReport(w io.Writer, format string, report Report) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	var b strings.Builder
	fmt.Fprintln(&b, report.Description)
	if report.Valid {
		fmt.Fprintln(&b, "valid")
	} else {
		fmt.Fprintln(&b, "invalid")
	}
	for _, message := range report.FormErrors {
		fmt.Fprintf(&b, "  * %s\n", message)
	}
	for _, name := range sortedKeys(report.Errors) {
		for _, message := range report.Errors[name] {
			fmt.Fprintf(&b, "  %s: %s\n", name, message)
		}
	}
	if saved := report.Saved; saved != nil {
		state := "saved"
		if !saved.Committed {
			state = "not committed"
		}
		fmt.Fprintf(&b, "%s #%d %s\n", saved.Table, saved.ID, state)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
