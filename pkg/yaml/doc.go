// Package yaml wraps [github.com/goccy/go-yaml] with the encoder and decoder
// settings used for every rulehub document, source-annotated errors, and
// JSON schema validation.
package yaml
