package layout

import (
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
)

// Format selects how a rule file is rendered.
type Format string

const (
	// FormatMDC renders Cursor rule files with description, globs and
	// alwaysApply frontmatter.
	FormatMDC Format = "mdc"
	// FormatMarkdown renders Markdown with id, title, level, tags and
	// alwaysApply frontmatter.
	FormatMarkdown Format = "markdown"

	DefaultRulesDir = ".ai/rules"
)

var (
	ErrInvalidDir = errors.New("directory must be a relative path inside the project")

	AllFormats = []string{string(FormatMDC), string(FormatMarkdown)}
)

// Profile describes the layout of a generated package for one IDE.
type Profile struct {
	// RulesDir is the directory that holds the category folders.
	RulesDir string `json:"rulesDir,omitempty" jsonschema:"title=Rules Directory"`
	// Extension is the rule file extension, including the dot.
	Extension string `json:"extension,omitempty" jsonschema:"title=Extension,pattern=^\\.[A-Za-z0-9]+$"`
	// Format selects the rule file frontmatter.
	Format Format `json:"format,omitempty" jsonschema:"title=Format"`
	// MirrorDir is the directory the IDE reads rules from. Every rule file
	// is also written there, without category folders.
	MirrorDir string `json:"mirrorDir,omitempty" jsonschema:"title=Mirror Directory"`
	// MirrorExtension replaces Extension for mirrored files.
	MirrorExtension string `json:"mirrorExtension,omitempty" jsonschema:"title=Mirror Extension,pattern=^(\\.[A-Za-z0-9]+)+$"`
	// ExtraDirs are additional directories created by setup scripts.
	ExtraDirs []string `json:"extraDirs,omitempty" jsonschema:"title=Extra Directories"`
}

// ProfileOpt configures a [Profile].
type ProfileOpt func(*Profile)

// NewProfile creates a new [Profile] with defaults applied.
func NewProfile(opts ...ProfileOpt) (*Profile, error) {
	p := &Profile{}
	for _, opt := range opts {
		opt(p)
	}

	p.EnsureDefaults()

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// MustNewProfile creates a new [Profile] and panics on error.
func MustNewProfile(opts ...ProfileOpt) *Profile {
	p, err := NewProfile(opts...)
	if err != nil {
		panic(err)
	}

	return p
}

func WithRulesDir(dir string) ProfileOpt {
	return func(p *Profile) {
		p.RulesDir = dir
	}
}

func WithExtension(ext string) ProfileOpt {
	return func(p *Profile) {
		p.Extension = ext
	}
}

func WithFormat(f Format) ProfileOpt {
	return func(p *Profile) {
		p.Format = f
	}
}

func WithMirror(dir, ext string) ProfileOpt {
	return func(p *Profile) {
		p.MirrorDir = dir
		p.MirrorExtension = ext
	}
}

func WithExtraDirs(dirs ...string) ProfileOpt {
	return func(p *Profile) {
		p.ExtraDirs = append(p.ExtraDirs, dirs...)
	}
}

// EnsureDefaults fills unset fields.
func (p *Profile) EnsureDefaults() {
	if p.RulesDir == "" {
		p.RulesDir = DefaultRulesDir
	}
	if p.Format == "" {
		p.Format = FormatMarkdown
	}
	if p.Extension == "" {
		if p.Format == FormatMDC {
			p.Extension = ".mdc"
		} else {
			p.Extension = ".md"
		}
	}
	if p.MirrorDir != "" && p.MirrorExtension == "" {
		p.MirrorExtension = p.Extension
	}
}

// Validate checks that every directory stays inside the project and the
// format is known.
func (p *Profile) Validate() error {
	if !slices.Contains(AllFormats, string(p.Format)) {
		return fmt.Errorf("unknown format %q", p.Format)
	}
	for _, ext := range []string{p.Extension, p.MirrorExtension} {
		if ext != "" && (!strings.HasPrefix(ext, ".") || len(ext) < 2) {
			return fmt.Errorf("invalid extension %q", ext)
		}
	}
	if p.Extension == "" {
		return errors.New("extension must not be empty")
	}

	dirs := append([]string{p.RulesDir}, p.ExtraDirs...)
	if p.MirrorDir != "" {
		dirs = append(dirs, p.MirrorDir)
	}

	for _, dir := range dirs {
		if err := checkDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// Dirs returns the directories a setup script creates: one per category
// under RulesDir, then MirrorDir, then ExtraDirs.
func (p *Profile) Dirs(categories []string) []string {
	dirs := make([]string, 0, len(categories)+len(p.ExtraDirs)+1)
	for _, c := range categories {
		dirs = append(dirs, path.Join(p.RulesDir, c))
	}

	if p.MirrorDir != "" {
		dirs = append(dirs, p.MirrorDir)
	}

	return append(dirs, p.ExtraDirs...)
}

// FilePath returns the slash-separated path of a rule file. An empty
// category places the file directly in RulesDir.
func (p *Profile) FilePath(category, name string) string {
	return path.Join(p.RulesDir, category, name+p.Extension)
}

// MirrorPath returns the path of the mirrored copy of a rule file, or ""
// when the profile has no MirrorDir.
func (p *Profile) MirrorPath(name string) string {
	if p.MirrorDir == "" {
		return ""
	}

	return path.Join(p.MirrorDir, name+p.MirrorExtension)
}

func checkDir(dir string) error {
	clean := path.Clean(dir)
	if dir == "" || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") ||
		strings.ContainsAny(dir, "'\n") {
		return fmt.Errorf("%w: %q", ErrInvalidDir, dir)
	}

	return nil
}
