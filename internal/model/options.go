package model

// Options configures declaration loading. Options are constructed by the
// public adapter in pkg/model.
type Options struct {
	Labeler func(string) string
}

func defaultOptions() Options {
	return Options{
		Labeler: DefaultLabeler,
	}
}

// Resolve fills unset options with defaults.
func (o Options) Resolve() Options {
	defaults := defaultOptions()
	if o.Labeler == nil {
		o.Labeler = defaults.Labeler
	}
	return o
}

// ApplyLabels fills empty field labels in place using the configured labeler.
func ApplyLabels(form *FormModel, labeler func(string) string) {
	if form == nil || labeler == nil {
		return
	}
	label := func(fields []Field) {
		for i := range fields {
			if fields[i].Label == "" {
				fields[i].Label = labeler(fields[i].Name)
			}
		}
	}
	label(form.Fields)
	for i := range form.Formsets {
		label(form.Formsets[i].Fields)
	}
}
