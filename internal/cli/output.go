package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/aymanbagabas/go-udiff"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
	"github.com/vibekit/rulehub/pkg/yaml"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	delStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	titleCase = cases.Title(language.English)
)

// lexerFor returns the chroma lexer for an artifact format.
func lexerFor(f wizard.OutputFormat) string {
	switch f {
	case wizard.FormatBash:
		return "bash"
	case wizard.FormatConfig:
		return "json"
	}

	return ""
}

// highlight writes src to w with syntax highlighting for lexer.
func highlight(w io.Writer, src []byte, lexer string) error {
	err := quick.Highlight(w, string(src), lexer, yaml.DefaultFormatter, yaml.DefaultStyle)
	if err != nil {
		return fmt.Errorf("highlight %s: %w", lexer, err)
	}

	return nil
}

// levelCounts counts matched rules per level, in level order.
func levelCounts(rules []match.MatchedRule) []string {
	counts := map[match.Level]int{}
	for i := range rules {
		counts[rules[i].Level]++
	}

	out := make([]string, 0, len(match.Levels))
	for _, l := range match.Levels {
		out = append(out, fmt.Sprintf("%s %d", titleCase.String(string(l)), counts[l]))
	}

	return out
}

func writeField(w io.Writer, label, value string) {
	mustN(fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label+":")), value))
}

// writePackage writes a human-readable package summary.
func writePackage(w io.Writer, pkg *generate.Package, now time.Time) {
	mustN(fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Package"), idStyle.Render(pkg.ID)))
	writeField(w, "format", string(pkg.PackageType))
	writeField(w, "file", fmt.Sprintf("%s (%s)", pkg.FileName, humanize.Bytes(uint64(max(0, pkg.FileSize))))) //nolint:gosec // Uses max.
	writeField(w, "rules", fmt.Sprint(pkg.RuleCount))
	writeField(w, "created", humanize.RelTime(pkg.CreatedAt, now, "ago", "from now"))

	expires := humanize.RelTime(pkg.ExpiresAt, now, "ago", "from now")
	if pkg.Expired(now) {
		expires = delStyle.Render("expired " + expires)
	}

	writeField(w, "expires", expires)
	writeField(w, "downloads", fmt.Sprint(pkg.DownloadCount))

	if pkg.DownloadURL != "" {
		writeField(w, "url", pkg.DownloadURL)
	}
}

// writeResult writes the summary of a generation call.
func writeResult(w io.Writer, res *generate.Result, now time.Time) {
	writePackage(w, res.Package, now)
	writeField(w, "profile", res.Profile)
	writeField(w, "levels", strings.Join(levelCounts(res.Rules), ", "))
}

// writeMatched writes matched rules grouped by level.
func writeMatched(w io.Writer, rules []match.MatchedRule) {
	if len(rules) == 0 {
		mustN(fmt.Fprintln(w, "No rules matched."))

		return
	}

	for _, l := range match.Levels {
		var group []match.MatchedRule
		for i := range rules {
			if rules[i].Level == l {
				group = append(group, rules[i])
			}
		}

		if len(group) == 0 {
			continue
		}

		mustN(fmt.Fprintf(w, "%s (%d)\n", headingStyle.Render(titleCase.String(string(l))), len(group)))

		for i := range group {
			mr := &group[i]
			mustN(fmt.Fprintf(w, "  %s %s %s\n",
				idStyle.Render(fmt.Sprintf("%-24s", mr.ID)),
				mr.Title,
				labelStyle.Render(fmt.Sprintf("[%.0f: %s]", mr.MatchScore, strings.Join(mr.MatchReasons, "; "))),
			))
		}
	}
}

// writeDiff writes a colored unified diff between two artifact versions.
// It reports whether the contents differ.
func writeDiff(w io.Writer, oldName, newName string, oldData, newData []byte, colored bool) bool {
	d := udiff.Unified(oldName, newName, string(oldData), string(newData))
	if d == "" {
		return false
	}

	if !colored {
		mustN(io.WriteString(w, d))

		return true
	}

	for line := range strings.Lines(d) {
		text := strings.TrimSuffix(line, "\n")

		switch {
		case strings.HasPrefix(text, "+++"), strings.HasPrefix(text, "---"):
			text = headingStyle.Render(text)
		case strings.HasPrefix(text, "@@"):
			text = hunkStyle.Render(text)
		case strings.HasPrefix(text, "+"):
			text = addStyle.Render(text)
		case strings.HasPrefix(text, "-"):
			text = delStyle.Render(text)
		}

		mustN(fmt.Fprintln(w, text))
	}

	return true
}
