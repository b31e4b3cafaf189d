package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/vibekit/rulehub/pkg/layout"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/yaml"
)

// RuleFile is a rendered rule placed in the package.
type RuleFile struct {
	Rule     *match.MatchedRule
	Category string
	// Path is slash-separated and relative to the project root.
	Path string
	// MirrorPath is the copy in the profile's MirrorDir, or empty.
	MirrorPath string
	Content    []byte
}

type mdcFrontmatter struct {
	Description string `json:"description"`
	Globs       string `json:"globs"`
	AlwaysApply bool   `json:"alwaysApply"`
}

type markdownFrontmatter struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Level       string   `json:"level"`
	Tags        []string `json:"tags,omitempty"`
	AlwaysApply bool     `json:"alwaysApply"`
}

// PlanFiles groups rules by level in general-to-specific order, assigns each
// a category folder and a unique file name, and renders it for the profile.
func PlanFiles(p *layout.Profile, rules []match.MatchedRule) ([]RuleFile, error) {
	groups := match.GroupByLevel(rules)
	namer := NewNamer()
	mirrors := NewNamer()
	files := make([]RuleFile, 0, len(rules))

	for _, level := range match.Levels {
		for i := range groups[level] {
			mr := &groups[level][i]

			category := CategoryOf(mr.Tags)
			name := namer.Name(category, &mr.Rule)

			content, err := RenderRule(p.Format, mr)
			if err != nil {
				return nil, fmt.Errorf("render rule %q: %w", mr.ID, err)
			}

			files = append(files, RuleFile{
				Rule:       mr,
				Category:   category,
				Path:       p.FilePath(category, name),
				MirrorPath: p.MirrorPath(mirrors.Name(p.MirrorDir, &mr.Rule)),
				Content:    content,
			})
		}
	}

	return files, nil
}

// RenderRule renders a rule file with frontmatter for the given format.
func RenderRule(format layout.Format, mr *match.MatchedRule) ([]byte, error) {
	var fm any

	switch format {
	case layout.FormatMDC:
		fm = mdcFrontmatter{
			Description: mr.Title,
			AlwaysApply: mr.AlwaysApply,
		}
	default:
		fm = markdownFrontmatter{
			ID:          mr.ID,
			Title:       mr.Title,
			Level:       string(mr.Level),
			Tags:        mr.Tags,
			AlwaysApply: mr.AlwaysApply,
		}
	}

	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteString("---\n")
	buf.Write(head)
	buf.WriteString("---\n\n")

	if body := strings.TrimRight(mr.Content, "\n"); body != "" {
		buf.WriteString(body)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}
