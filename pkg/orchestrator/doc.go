// Package orchestrator builds decorated nested forms from declarations. It
// picks the parent form type from the declaration, maps each declared formset
// onto a nesting policy and binds submitted data.
package orchestrator
