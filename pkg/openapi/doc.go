// Package openapi derives form declarations from OpenAPI component schemas.
// Scalar properties become fields; arrays of objects become nested formsets.
package openapi
