package emit

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vibekit/rulehub/pkg/catalog"
)

const (
	minSlugLength  = 3
	maxTitleLength = 50
	idSuffixLength = 6
)

// Slugify lower-cases s, strips diacritics and replaces every run of
// characters outside [a-z0-9] with a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder

	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)

			dash = false

			continue
		}

		if !dash && b.Len() > 0 {
			b.WriteByte('-')

			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// IDSuffix returns the first six slug characters of a rule id, without
// hyphens.
func IDSuffix(id string) string {
	s := strings.ReplaceAll(Slugify(id), "-", "")
	if len(s) > idSuffixLength {
		s = s[:idSuffixLength]
	}
	if s == "" {
		return "rule"
	}

	return s
}

// BaseName derives a file name without extension for r. The slug is used
// when it is non-trivial; otherwise the title, truncated to 50 characters,
// is suffixed with part of the id.
func BaseName(r *catalog.Rule) string {
	if slug := Slugify(r.Slug); len(slug) >= minSlugLength {
		return slug
	}

	title := Slugify(r.Title)
	if len(title) > maxTitleLength {
		title = strings.TrimRight(title[:maxTitleLength], "-")
	}
	if title == "" {
		return "rule-" + IDSuffix(r.ID)
	}

	return title + "-" + IDSuffix(r.ID)
}

// Namer hands out file names that are unique within their directory.
type Namer struct {
	used map[string]bool
}

// NewNamer creates a new [Namer].
func NewNamer() *Namer {
	return &Namer{used: map[string]bool{}}
}

// Name returns a unique base name for r inside dir. Collisions append the id
// suffix, then a counter.
func (n *Namer) Name(dir string, r *catalog.Rule) string {
	name := BaseName(r)
	if n.claim(dir, name) {
		return name
	}

	suffix := IDSuffix(r.ID)
	if !strings.HasSuffix(name, "-"+suffix) {
		name += "-" + suffix
		if n.claim(dir, name) {
			return name
		}
	}

	for i := 2; ; i++ {
		candidate := name + "-" + strconv.Itoa(i)
		if n.claim(dir, candidate) {
			return candidate
		}
	}
}

func (n *Namer) claim(dir, name string) bool {
	key := path.Join(dir, name)
	if n.used[key] {
		return false
	}

	n.used[key] = true

	return true
}
