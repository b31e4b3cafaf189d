package emit

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

const (
	SetupFileName    = "SETUP.md"
	ManifestFileName = ".ai/manifest.json"

	// ManifestVersion is the schema version of manifests and config bundles.
	ManifestVersion = "1.0"
)

// Manifest describes the contents of a zip package.
type Manifest struct {
	GeneratedAt   time.Time             `json:"generatedAt"`
	Configuration *wizard.Configuration `json:"configuration"`
	Version       string                `json:"version"`
	Profile       string                `json:"profile"`
	// Digest is the hex BLAKE3 hash of every rule file, in archive order.
	Digest    string   `json:"digest"`
	RuleIDs   []string `json:"ruleIds"`
	RuleCount int      `json:"ruleCount"`
}

// ZipEmitter renders an archive with one file per rule, setup instructions,
// a manifest, and the merged embedded config files at the archive root.
type ZipEmitter struct{}

// NewZipEmitter creates a new [ZipEmitter].
func NewZipEmitter() *ZipEmitter {
	return &ZipEmitter{}
}

func (*ZipEmitter) Format() wizard.OutputFormat {
	return wizard.FormatZip
}

func (*ZipEmitter) Emit(ctx context.Context, in Input) (*Artifact, error) {
	files, err := PlanFiles(in.Profile, in.Rules)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	zw := &zipWriter{w: zip.NewWriter(&buf), modified: in.GeneratedAt}

	zw.dir(in.Profile.RulesDir)
	for _, d := range in.Profile.Dirs(Categories) {
		zw.dir(d)
	}

	hasher := blake3.New()
	ids := make([]string, 0, len(files))

	for _, f := range files {
		zw.file(f.Path, f.Content)
		if f.MirrorPath != "" {
			zw.file(f.MirrorPath, f.Content)
		}
		_, _ = hasher.Write(f.Content)
		ids = append(ids, f.Rule.ID)
	}

	bundle := NewBundle()
	for _, r := range in.Rules {
		bundle.AddContent(ctx, r.Content)
	}

	zw.file(SetupFileName, renderSetup(in, files, bundle))

	manifest, err := json.MarshalIndent(Manifest{
		Version:       ManifestVersion,
		GeneratedAt:   in.GeneratedAt.UTC(),
		Profile:       profileLabel(in.ProfileName),
		Configuration: in.Config,
		RuleIDs:       ids,
		RuleCount:     len(ids),
		Digest:        hex.EncodeToString(hasher.Sum(nil)),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	zw.file(ManifestFileName, append(manifest, '\n'))

	// Embedded files never replace generated entries.
	for _, name := range bundle.Names() {
		f, _ := bundle.Get(name)
		zw.file(name, f.Bytes())
	}

	if zw.err != nil {
		return nil, fmt.Errorf("write archive: %w", zw.err)
	}
	if err := zw.w.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return &Artifact{
		Data:        buf.Bytes(),
		Extension:   wizard.FormatZip.Extension(),
		ContentType: "application/zip",
	}, nil
}

// zipWriter records the first error and skips later writes. Each entry name
// is written at most once.
type zipWriter struct {
	modified time.Time
	w        *zip.Writer
	err      error
	names    map[string]bool
}

func (z *zipWriter) claim(name string) bool {
	if z.err != nil || z.names[name] {
		return false
	}
	if z.names == nil {
		z.names = map[string]bool{}
	}

	z.names[name] = true

	return true
}

func (z *zipWriter) dir(name string) {
	name = strings.TrimSuffix(name, "/") + "/"
	if !z.claim(name) {
		return
	}

	_, z.err = z.w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: z.modified,
	})
}

func (z *zipWriter) file(name string, data []byte) {
	if !z.claim(name) {
		return
	}

	var w io.Writer

	w, z.err = z.w.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: z.modified,
	})
	if z.err != nil {
		return
	}

	_, z.err = w.Write(data)
}

func renderSetup(in Input, files []RuleFile, bundle *Bundle) []byte {
	title := cases.Title(language.English)

	var b strings.Builder

	fmt.Fprintf(&b, "# Rule Package Setup\n\n")
	fmt.Fprintf(&b, "Generated %s for the %s layout with %d rules.\n\n",
		in.GeneratedAt.UTC().Format(time.RFC1123), profileLabel(in.ProfileName), len(files))
	fmt.Fprintf(&b, "Extract this archive in the root of your project. Rules are written to `%s`.\n",
		in.Profile.RulesDir)

	if in.Profile.MirrorDir != "" {
		fmt.Fprintf(&b, "Copies are placed in `%s`, where the %s IDE reads them.\n",
			in.Profile.MirrorDir, profileLabel(in.ProfileName))
	}

	byCategory := map[string][]RuleFile{}
	for _, f := range files {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	for _, c := range append(slices.Clone(Categories), "") {
		group := byCategory[c]
		if len(group) == 0 {
			continue
		}

		heading := "Uncategorized"
		if c != "" {
			heading = title.String(c)
		}

		fmt.Fprintf(&b, "\n## %s\n\n", heading)

		for _, f := range group {
			fmt.Fprintf(&b, "- `%s`: %s (%s)\n", path.Base(f.Path), oneLine(f.Rule.Title), f.Rule.Level)
		}
	}

	if bundle.Len() > 0 {
		fmt.Fprintf(&b, "\n## Configuration Files\n\n")

		for _, name := range bundle.Names() {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
	}

	var cmds []string
	for _, f := range files {
		cmds = append(cmds, ExtractCommands(f.Rule.Content)...)
	}

	if len(cmds) > 0 {
		fmt.Fprintf(&b, "\n## Setup Commands\n\n```sh\n%s\n```\n", strings.Join(cmds, "\n"))
	}

	levels := match.GroupByLevel(ruleList(files))
	fmt.Fprintf(&b, "\n## Application Order\n\n")

	for _, l := range match.Levels {
		if n := len(levels[l]); n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", title.String(string(l)), n)
		}
	}

	return []byte(b.String())
}

func ruleList(files []RuleFile) []match.MatchedRule {
	out := make([]match.MatchedRule, 0, len(files))
	for _, f := range files {
		out = append(out, *f.Rule)
	}

	return out
}
