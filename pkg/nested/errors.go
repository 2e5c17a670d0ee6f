package nested

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotPersistable is returned when saving a nested form, or one of its
// formsets, that has no persistence step.
var ErrNotPersistable = errors.New("nested: form is not persistable")

// ConfigError reports a mistake in how extensions were declared or wired.
// It is raised with panic, at decoration time or on the first call of a
// malformed extension, because it can only be fixed by changing code.
type ConfigError struct {
	Target string
	Method string
	Source string
	Reason string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("nested: ")
	b.WriteString(e.Reason)
	if e.Target != "" || e.Method != "" {
		fmt.Fprintf(&b, ": %s.%s", e.Target, e.Method)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (extension %s)", e.Source)
	}
	return b.String()
}

func configError(site Site, reason string) *ConfigError {
	return &ConfigError{Target: site.Target, Method: site.Method, Source: site.Source, Reason: reason}
}
