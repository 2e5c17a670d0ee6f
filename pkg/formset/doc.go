// Package formset groups repeated forms under one prefix.
//
// A bound formset reads how many forms were submitted from its management
// form: the <prefix>-TOTAL_FORMS and <prefix>-INITIAL_FORMS values. Form i
// uses the prefix "<prefix>-<i>". Forms past the initial count are extra forms
// and are permitted to be left empty; untouched extras are neither validated
// nor saved.
//
// ModelFormset saves each changed form as a store.Record. InlineFormset also
// points every saved record at a parent record through a foreign key column.
package formset
