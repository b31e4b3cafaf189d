// Package config loads versioned rulehub documents.
//
// A [Loader] decodes YAML, validates it against the document's JSON schema,
// applies defaults, and annotates failures with the offending source line.
package config
