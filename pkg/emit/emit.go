package emit

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/vibekit/rulehub/pkg/layout"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// Input is everything an [Emitter] needs to render one package.
type Input struct {
	GeneratedAt time.Time
	Config      *wizard.Configuration
	Profile     *layout.Profile
	ProfileName string
	Rules       []match.MatchedRule
}

// Artifact is a rendered package.
type Artifact struct {
	ContentType string
	Extension   string
	Data        []byte
}

// Size returns the artifact length in bytes.
func (a *Artifact) Size() int64 {
	return int64(len(a.Data))
}

// Emitter renders one output format.
type Emitter interface {
	Format() wizard.OutputFormat
	Emit(ctx context.Context, in Input) (*Artifact, error)
}

// UnsupportedFormatError is returned when no emitter is registered for a
// format.
type UnsupportedFormatError struct {
	Format wizard.OutputFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q", string(e.Format))
}

// Registry dispatches to the emitter registered for a format.
type Registry struct {
	emitters map[wizard.OutputFormat]Emitter
}

// NewRegistry creates a new [Registry]. Later emitters replace earlier ones
// for the same format.
func NewRegistry(emitters ...Emitter) *Registry {
	r := &Registry{emitters: make(map[wizard.OutputFormat]Emitter, len(emitters))}
	for _, e := range emitters {
		r.emitters[e.Format()] = e
	}

	return r
}

// DefaultRegistry returns a [Registry] with the bash, zip and config
// emitters.
func DefaultRegistry() *Registry {
	return NewRegistry(NewBashEmitter(), NewZipEmitter(), NewConfigEmitter())
}

// Formats returns the registered formats, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.emitters))
	for _, f := range slices.Sorted(maps.Keys(r.emitters)) {
		out = append(out, string(f))
	}

	return out
}

// Lookup returns the emitter for format.
func (r *Registry) Lookup(format wizard.OutputFormat) (Emitter, error) {
	e, ok := r.emitters[format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format}
	}

	return e, nil
}

// Emit renders in with the emitter for the configuration's output format.
func (r *Registry) Emit(ctx context.Context, in Input) (*Artifact, error) {
	if in.Config == nil {
		return nil, wizard.ErrEmptyFormat
	}

	e, err := r.Lookup(in.Config.OutputFormat)
	if err != nil {
		return nil, err
	}

	if in.Profile == nil {
		in.Profile = layout.MustNewProfile()
	}
	if in.GeneratedAt.IsZero() {
		in.GeneratedAt = time.Now()
	}

	return e.Emit(ctx, in)
}
