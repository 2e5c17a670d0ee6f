// Package render turns nested form state into what a presentation layer
// needs: hidden management inputs and error messages keyed by the prefixed
// input names a submission uses.
package render
