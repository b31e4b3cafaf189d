package yaml

import (
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// GenerateSchema reflects a JSON schema for v. Only fields tagged
// jsonschema:"required" are required, and unknown properties are rejected.
func GenerateSchema(v any) ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		Namer:                      qualifiedName,
	}

	b, err := json.MarshalIndent(r.Reflect(v), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(b, '\n'), nil
}

// qualifiedName prefixes a named type with its package name, so that
// same-named types from different packages get distinct $defs entries:
// layout.Config becomes "LayoutConfig".
func qualifiedName(t reflect.Type) string {
	pkg := path.Base(t.PkgPath())
	if t.Name() == "" || pkg == "" || pkg == "." {
		return ""
	}

	return strings.ToUpper(pkg[:1]) + pkg[1:] + t.Name()
}

// NewValidatorFor builds a [Validator] from the schema reflected for v.
func NewValidatorFor(url string, v any) (*Validator, error) {
	data, err := GenerateSchema(v)
	if err != nil {
		return nil, err
	}

	return NewValidator(url, data)
}

// MustNewValidatorFor is like [NewValidatorFor] but panics on error.
func MustNewValidatorFor(url string, v any) *Validator {
	val, err := NewValidatorFor(url, v)
	if err != nil {
		panic(err)
	}

	return val
}
