// Package v1beta1 contains the v1beta1 API types shared by every rulehub
// document kind.
package v1beta1

import (
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// APIVersion is the current API version for all rulehub document kinds.
const APIVersion = "rulehub.vibekit.dev/v1beta1"

// ValidAPIVersions contains all valid API versions.
var ValidAPIVersions = []string{APIVersion}

// TypeMeta contains the API version and kind metadata common to all config types.
type TypeMeta struct {
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

// GetAPIVersion returns the API version.
func (tm TypeMeta) GetAPIVersion() string {
	return tm.APIVersion
}

// GetKind returns the kind.
func (tm TypeMeta) GetKind() string {
	return tm.Kind
}

// NewTypeMeta returns a [TypeMeta] for kind at the current API version.
func NewTypeMeta(kind string) TypeMeta {
	return TypeMeta{APIVersion: APIVersion, Kind: kind}
}

// Check verifies that the document declares a known API version and the
// expected kind. Empty fields are accepted and filled by EnsureDefaults.
func (tm TypeMeta) Check(kind string) error {
	if tm.APIVersion != "" && !slices.Contains(ValidAPIVersions, tm.APIVersion) {
		return fmt.Errorf("unsupported apiVersion %q", tm.APIVersion)
	}
	if tm.Kind != "" && tm.Kind != kind {
		return fmt.Errorf("expected kind %q, got %q", kind, tm.Kind)
	}

	return nil
}

// Object is the interface that all document types implement.
type Object interface {
	GetAPIVersion() string
	GetKind() string
	EnsureDefaults()
}

// ConstrainTypeMeta restricts the apiVersion property of a reflected
// schema to [ValidAPIVersions] and the kind property to kind. It panics if
// the schema was not reflected from a type embedding [TypeMeta].
func ConstrainTypeMeta(jss *jsonschema.Schema, kind string) {
	version := schemaProperty(jss, "apiVersion")
	for _, v := range ValidAPIVersions {
		version.Enum = append(version.Enum, v)
	}

	schemaProperty(jss, "kind").Const = kind
}

func schemaProperty(jss *jsonschema.Schema, name string) *jsonschema.Schema {
	if jss.Properties == nil {
		panic(fmt.Sprintf("schema has no properties, want %q", name))
	}

	prop, ok := jss.Properties.Get(name)
	if !ok {
		panic(fmt.Sprintf("schema has no %q property", name))
	}

	return prop
}
