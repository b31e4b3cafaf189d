package emit

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/vibekit/rulehub/pkg/log"
)

const (
	FilePackageJSON = "package.json"
	FileTSConfig    = "tsconfig.json"
	FileESLint      = ".eslintrc.json"
)

var (
	knownFileNames = []string{
		"Dockerfile", "Makefile", "Procfile", "Gemfile", "Justfile",
		".eslintrc", ".prettierrc", ".editorconfig", ".gitignore", ".nvmrc",
	}

	shellFences = []string{"bash", "shell", "sh"}

	commandPrefixes = []string{"npm ", "yarn ", "pnpm ", "mkdir ", "touch ", "echo "}
)

// EmbeddedFile is a configuration file found in a rule's content.
type EmbeddedFile struct {
	// JSON holds the decoded object for JSON files, nil otherwise.
	JSON map[string]any
	// Name is the cleaned relative path from the fence annotation.
	Name    string
	Content string
}

// IsJSON reports whether the file is merged as a JSON object.
func (f *EmbeddedFile) IsJSON() bool {
	return f.JSON != nil
}

// Bytes returns the file content. JSON files are re-encoded with 2-space
// indentation so merged objects are rendered.
func (f *EmbeddedFile) Bytes() []byte {
	if !f.IsJSON() {
		return []byte(f.Content)
	}

	data, err := json.MarshalIndent(f.JSON, "", "  ")
	if err != nil {
		return []byte(f.Content)
	}

	return append(data, '\n')
}

type fence struct {
	lang  string
	name  string
	lines []string
}

// ExtractFiles scans content for fenced code blocks that name a file, either
// through an annotation containing a "." or a known file name, or through a
// ```json block whose keys identify a well-known config file. Malformed JSON
// in a JSON file yields an empty object.
func ExtractFiles(ctx context.Context, content string) []EmbeddedFile {
	var files []EmbeddedFile

	for _, f := range scanFences(content) {
		body := strings.Join(f.lines, "\n")

		name := f.name
		if name == "" {
			if f.lang != "json" {
				continue
			}

			name = classifyJSON(body)
			if name == "" {
				continue
			}
		}

		ef := EmbeddedFile{Name: name, Content: body + "\n"}

		if f.lang == "json" || isJSONName(name) {
			ef.JSON = decodeObject(ctx, name, body)
		}

		files = append(files, ef)
	}

	return files
}

// ExtractCommands returns the lines of fenced bash/shell/sh blocks, plus
// lines outside any fence that start with a known setup command. Blank
// lines and comments are skipped.
func ExtractCommands(content string) []string {
	var cmds []string

	inFence := false
	shell := false

	for raw := range strings.Lines(content) {
		line := strings.TrimSpace(raw)

		if strings.HasPrefix(line, "```") {
			if inFence {
				inFence, shell = false, false
			} else {
				inFence = true
				lang, _ := parseAnnotation(strings.TrimPrefix(line, "```"))
				shell = slices.Contains(shellFences, lang)
			}

			continue
		}

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch {
		case inFence && shell:
			cmds = append(cmds, strings.TrimPrefix(line, "$ "))
		case !inFence && hasCommandPrefix(line):
			cmds = append(cmds, line)
		}
	}

	return cmds
}

func hasCommandPrefix(line string) bool {
	for _, p := range commandPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}

	return false
}

func scanFences(content string) []fence {
	var (
		fences  []fence
		current *fence
	)

	for raw := range strings.Lines(content) {
		line := strings.TrimSuffix(strings.TrimSuffix(raw, "\n"), "\r")
		trimmed := strings.TrimSpace(line)

		if !strings.HasPrefix(trimmed, "```") {
			if current != nil {
				current.lines = append(current.lines, line)
			}

			continue
		}

		if current != nil {
			fences = append(fences, *current)
			current = nil

			continue
		}

		lang, name := parseAnnotation(strings.TrimPrefix(trimmed, "```"))
		current = &fence{lang: lang, name: name}
	}

	return fences
}

// parseAnnotation splits a fence annotation such as "json tsconfig.json",
// "tsconfig.json" or "js title=\"eslint.config.js\"" into a language and a
// file name. Either may be empty.
func parseAnnotation(annotation string) (string, string) {
	var lang, name string

	for i, field := range strings.Fields(annotation) {
		field = strings.Trim(field, `"'`)
		if k, v, ok := strings.Cut(field, "="); ok && (k == "title" || k == "file" || k == "filename") {
			field = strings.Trim(v, `"'`)
		}
		if k, v, ok := strings.Cut(field, ":"); ok && !strings.Contains(k, ".") {
			lang, field = strings.ToLower(k), v
		}

		switch {
		case isFileName(field):
			if name == "" {
				name = cleanName(field)
			}
		case i == 0 && lang == "":
			lang = strings.ToLower(field)
		}
	}

	if name != "" && lang == "" {
		lang = strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	}

	return lang, name
}

func isFileName(s string) bool {
	return strings.Contains(s, ".") || slices.Contains(knownFileNames, path.Base(s))
}

// cleanName makes name relative and removes parent directory segments.
func cleanName(name string) string {
	clean := path.Clean("/" + strings.ReplaceAll(name, `\`, "/"))

	return strings.TrimPrefix(clean, "/")
}

func isJSONName(name string) bool {
	base := path.Base(name)

	return strings.HasSuffix(base, ".json") || base == ".eslintrc" || base == ".prettierrc"
}

func classifyJSON(body string) string {
	var obj map[string]any
	if json.Unmarshal([]byte(body), &obj) != nil {
		return ""
	}

	switch {
	case obj["compilerOptions"] != nil:
		return FileTSConfig
	case obj["dependencies"] != nil || obj["devDependencies"] != nil || obj["scripts"] != nil:
		return FilePackageJSON
	case obj["rules"] != nil || obj["extends"] != nil || obj["plugins"] != nil:
		return FileESLint
	}

	return ""
}

func decodeObject(ctx context.Context, name, body string) map[string]any {
	obj := map[string]any{}

	if err := json.Unmarshal([]byte(body), &obj); err != nil || obj == nil {
		log.WithContext(ctx).WarnContext(ctx, "ignoring malformed embedded config",
			slog.String("file", name),
			slog.Any("err", err),
		)

		return map[string]any{}
	}

	return obj
}

// MergeJSON shallow-merges next into prev. Keys present in both take the
// value from next. Neither input is modified.
func MergeJSON(prev, next map[string]any) map[string]any {
	out := make(map[string]any, len(prev)+len(next))
	maps.Copy(out, prev)
	maps.Copy(out, next)

	return out
}

// Bundle collects embedded files from many rules. JSON files with the same
// name are shallow-merged; other files are replaced by the last contributor.
type Bundle struct {
	files map[string]*EmbeddedFile
}

// NewBundle creates a new empty [Bundle].
func NewBundle() *Bundle {
	return &Bundle{files: map[string]*EmbeddedFile{}}
}

// Add merges f into the bundle.
func (b *Bundle) Add(f EmbeddedFile) {
	prev, ok := b.files[f.Name]
	if ok && prev.IsJSON() && f.IsJSON() {
		f.JSON = MergeJSON(prev.JSON, f.JSON)
	}

	b.files[f.Name] = &f
}

// AddContent extracts and adds every file embedded in content.
func (b *Bundle) AddContent(ctx context.Context, content string) {
	for _, f := range ExtractFiles(ctx, content) {
		b.Add(f)
	}
}

// Get returns the file named name.
func (b *Bundle) Get(name string) (*EmbeddedFile, bool) {
	f, ok := b.files[name]

	return f, ok
}

// Find returns the first file, in name order, matching one of names by base
// name.
func (b *Bundle) Find(names ...string) (*EmbeddedFile, bool) {
	for _, n := range b.Names() {
		if slices.Contains(names, path.Base(n)) {
			return b.files[n], true
		}
	}

	return nil, false
}

// Names returns the file names, sorted.
func (b *Bundle) Names() []string {
	return slices.Sorted(maps.Keys(b.files))
}

// Len returns the number of files.
func (b *Bundle) Len() int {
	return len(b.files)
}
