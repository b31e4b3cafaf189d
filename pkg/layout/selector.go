package layout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/vibekit/rulehub/pkg/expr"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var newEnvironment = sync.OnceValues(func() (*expr.Environment, error) {
	return expr.NewEnvironment(
		cel.Variable("ide", cel.StringType),
		cel.Variable("env", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("stacks", cel.ListType(cel.StringType)),
		cel.Variable("languages", cel.ListType(cel.StringType)),
		cel.Variable("tools", cel.ListType(cel.StringType)),
	)
})

// Selector uses a CEL expression to determine if its profile should be
// used for a wizard configuration.
//
// Examples:
//   - ide == "cursor"
//   - ide in ["webstorm", "intellij"]
//   - hasAny(stacks, ["next"]) && envString(env, "monorepo") == "true"
//   - true (always matches)
type Selector struct {
	program cel.Program

	// Match is a CEL expression evaluated against the configuration.
	Match string `json:"match" jsonschema:"title=Match Expression"`
	// Profile is the name of the profile to use when Match is true.
	Profile string `json:"profile" jsonschema:"title=Profile Name"`
}

// NewSelector creates a new [Selector] and compiles its expression.
func NewSelector(profileName, match string) (*Selector, error) {
	s := &Selector{
		Match:   match,
		Profile: profileName,
	}
	if err := s.Compile(); err != nil {
		return nil, fmt.Errorf("selector %q: %w", match, err)
	}

	return s, nil
}

// MustNewSelector creates a new [Selector] and panics on error.
func MustNewSelector(profileName, match string) *Selector {
	s, err := NewSelector(profileName, match)
	if err != nil {
		panic(err)
	}

	return s
}

// Compile compiles the match expression if it has not been compiled yet.
func (s *Selector) Compile() error {
	if s.program != nil {
		return nil
	}
	if s.Match == "" {
		return errors.New("empty match expression")
	}

	env, err := newEnvironment()
	if err != nil {
		return err
	}

	program, err := env.Compile(s.Match)
	if err != nil {
		return err
	}

	s.program = program

	return nil
}

// Matches evaluates the selector. Evaluation errors and non-boolean results
// are treated as a non-match.
func (s *Selector) Matches(vars map[string]any) bool {
	if s.program == nil {
		panic(errors.New("selector missing a compiled match expression"))
	}

	ok, err := expr.EvalBool(s.program, vars)
	if err != nil {
		return false
	}

	return ok
}

// Vars builds the CEL activation for a configuration.
func Vars(cfg *wizard.Configuration) map[string]any {
	choices := cfg.Choices()

	env := choices.Environment
	if env == nil {
		env = map[string]any{}
	}

	return map[string]any{
		"ide":       cfg.TargetIDE(),
		"env":       expr.ConvertToCELValue(env),
		"stacks":    choices.Stacks,
		"languages": choices.Languages,
		"tools":     choices.Tools,
	}
}
