package yaml

import (
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

const (
	DefaultStyle     = "catppuccin-mocha"
	DefaultFormatter = "terminal256"
)

// Highlight writes src to w with YAML syntax highlighting. An empty style or
// formatter selects the defaults.
func Highlight(w io.Writer, src []byte, formatter, style string) error {
	if formatter == "" {
		formatter = DefaultFormatter
	}
	if style == "" {
		style = DefaultStyle
	}

	err := quick.Highlight(w, string(src), "yaml", formatter, style)
	if err != nil {
		return fmt.Errorf("highlight yaml: %w", err)
	}

	return nil
}
