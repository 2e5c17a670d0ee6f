// Package model defines the declarations nested forms are built from: a parent
// FormModel with its Fields and the FormsetModels it embeds. Declarations are
// plain data so they can be written in YAML or JSON and loaded with Load or
// Parse. Validation rules use canonical identifiers (min/max,
// minLength/maxLength, pattern) with string parameters, mirroring the OpenAPI
// keywords they usually originate from.
package model
