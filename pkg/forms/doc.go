// Package forms implements bound and unbound forms over declared fields.
//
// A Form is bound when it was built with submitted data (WithData). Binding is
// fixed at construction. Validation runs lazily the first time Errors or
// IsValid is called and is cached afterwards, so repeated calls never clean
// twice. Field names on the wire are namespaced with the form prefix through
// AddPrefix, which is what lets several forms share one submission.
//
// ModelForm adds a backing store.Record and Save.
package forms
