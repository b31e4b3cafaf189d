package expr

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type lib struct{}

func (lib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		ext.Math(),
		ext.Strings(),
		ext.Lists(),

		// `fold` lower-cases a string and removes diacritics.
		// Example: fold(ide) == "webstorm".
		cel.Function("fold",
			cel.Overload("fold_string", []*cel.Type{cel.StringType}, cel.StringType,
				cel.UnaryBinding(func(s ref.Val) ref.Val {
					str, ok := s.(types.String).Value().(string)
					if !ok {
						return types.NewErr("fold: invalid string value")
					}

					return types.String(Fold(str))
				}),
			),
		),

		// `overlaps` reports whether either string contains the other.
		// Example: overlaps(ide, "intellij").
		cel.Function("overlaps",
			cel.Overload("overlaps_string_string", []*cel.Type{cel.StringType, cel.StringType}, cel.BoolType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					as, ok := a.(types.String).Value().(string)
					if !ok {
						return types.NewErr("overlaps: invalid string value")
					}

					bs, ok := b.(types.String).Value().(string)
					if !ok {
						return types.NewErr("overlaps: invalid string value")
					}

					return types.Bool(Overlaps(as, bs))
				}),
			),
		),

		// `hasAny` reports whether any element of the first list overlaps
		// any element of the second.
		// Example: hasAny(stacks, ["react", "next"]).
		cel.Function("hasAny",
			cel.Overload("has_any_list_list",
				[]*cel.Type{cel.ListType(cel.StringType), cel.ListType(cel.StringType)}, cel.BoolType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					as, err := toStrings(a)
					if err != nil {
						return types.NewErr("hasAny: %v", err)
					}

					bs, err := toStrings(b)
					if err != nil {
						return types.NewErr("hasAny: %v", err)
					}

					for _, x := range as {
						for _, y := range bs {
							if Overlaps(x, y) {
								return types.True
							}
						}
					}

					return types.False
				}),
			),
		),

		// `envString` returns an environment detail as a string, or "".
		// Example: envString(env, "nodeVersion").startsWith("20").
		cel.Function("envString",
			cel.Overload("env_string_map_string",
				[]*cel.Type{cel.MapType(cel.StringType, cel.DynType), cel.StringType}, cel.StringType,
				cel.BinaryBinding(func(m, k ref.Val) ref.Val {
					mapper, ok := m.(traits.Mapper)
					if !ok {
						return types.NewErr("envString: invalid map value")
					}

					v, found := mapper.Find(k)
					if !found || v == types.NullValue {
						return types.String("")
					}

					return types.String(fmt.Sprint(v.Value()))
				}),
			),
		),
	}
}

func (lib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// Fold lower-cases s, trims it and removes combining marks.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(strings.TrimSpace(folded))
}

// Overlaps reports whether either folded string contains the other.
// Empty strings never overlap.
func Overlaps(a, b string) bool {
	a, b = Fold(a), Fold(b)
	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}

func toStrings(v ref.Val) ([]string, error) {
	lister, ok := v.(traits.Lister)
	if !ok {
		return nil, fmt.Errorf("invalid list value %T", v)
	}

	size, ok := lister.Size().(types.Int)
	if !ok {
		return nil, fmt.Errorf("invalid list size")
	}

	out := make([]string, 0, int(size))
	for i := range size {
		s, ok := lister.Get(i).Value().(string)
		if !ok {
			return nil, fmt.Errorf("list element %d is not a string", i)
		}

		out = append(out, s)
	}

	return out, nil
}

// ConvertToCELValue converts a Go value to a CEL value.
// Handles the value types allowed in environment details and returns null
// for unsupported types.
//
//nolint:ireturn // Following CEL's function signature.
func ConvertToCELValue(value any) ref.Val {
	switch v := value.(type) {
	case nil:
		return types.NullValue

	case bool:
		return types.Bool(v)

	case int:
		return types.Int(v)

	case int64:
		return types.Int(v)

	case uint64:
		// Check for overflow when converting to int64.
		if v > math.MaxInt64 {
			return types.Double(float64(v))
		}

		return types.Int(int64(v))

	case float64:
		return types.Double(v)

	case string:
		return types.String(v)

	case []string:
		return types.NewStringList(types.DefaultTypeAdapter, v)

	case []any:
		celValues := make([]ref.Val, len(v))
		for i, item := range v {
			celValues[i] = ConvertToCELValue(item)
		}

		return types.NewDynamicList(types.DefaultTypeAdapter, celValues)

	case map[string]any:
		celMap := make(map[ref.Val]ref.Val, len(v))
		for key, val := range v {
			celMap[types.String(key)] = ConvertToCELValue(val)
		}

		return types.NewDynamicMap(types.DefaultTypeAdapter, celMap)

	default:
		return types.NullValue
	}
}
