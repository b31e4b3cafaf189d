package emit

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/vibekit/rulehub/pkg/wizard"
)

const heredocPrefix = "RULEHUB_EOF_"

// BashEmitter renders a POSIX shell script that recreates the package in
// the current directory.
type BashEmitter struct{}

// NewBashEmitter creates a new [BashEmitter].
func NewBashEmitter() *BashEmitter {
	return &BashEmitter{}
}

func (*BashEmitter) Format() wizard.OutputFormat {
	return wizard.FormatBash
}

func (*BashEmitter) Emit(_ context.Context, in Input) (*Artifact, error) {
	files, err := PlanFiles(in.Profile, in.Rules)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	fmt.Fprintln(&buf, "#!/bin/sh")
	fmt.Fprintf(&buf, "# Generated by rulehub at %s for the %s layout.\n",
		in.GeneratedAt.UTC().Format(time.RFC3339), profileLabel(in.ProfileName))
	fmt.Fprintln(&buf, "set -e")
	fmt.Fprintln(&buf)

	dirs := in.Profile.Dirs(Categories)
	quoted := make([]string, 0, len(dirs))
	for _, d := range dirs {
		quoted = append(quoted, ShellQuote(d))
	}

	fmt.Fprintf(&buf, "mkdir -p %s\n", strings.Join(quoted, " "))

	for _, f := range files {
		delim := HeredocDelimiter(f.Content)

		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "# %s (%s, score %.2f)\n", oneLine(f.Rule.Title), f.Rule.Level, f.Rule.MatchScore)
		fmt.Fprintf(&buf, "cat > %s << '%s'\n", ShellQuote(f.Path), delim)
		buf.Write(f.Content)
		fmt.Fprintln(&buf, delim)

		if f.MirrorPath != "" {
			fmt.Fprintf(&buf, "cp %s %s\n", ShellQuote(f.Path), ShellQuote(f.MirrorPath))
		}
	}

	for _, f := range files {
		cmds := ExtractCommands(f.Rule.Content)
		if len(cmds) == 0 {
			continue
		}

		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "# Setup commands from %s\n", oneLine(f.Rule.Title))

		for _, c := range cmds {
			fmt.Fprintln(&buf, c)
		}
	}

	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "echo %s\n", ShellQuote(fmt.Sprintf("Installed %d rules into %s", len(files), in.Profile.RulesDir)))

	return &Artifact{
		Data:        buf.Bytes(),
		Extension:   wizard.FormatBash.Extension(),
		ContentType: "application/x-sh",
	}, nil
}

// HeredocDelimiter returns a heredoc terminator derived from the BLAKE3 hash
// of content that no line of content equals.
func HeredocDelimiter(content []byte) string {
	sum := blake3.Sum256(content)
	digest := hex.EncodeToString(sum[:])

	lines := strings.Split(string(content), "\n")

	for n := 8; n <= len(digest); n += 8 {
		delim := heredocPrefix + strings.ToUpper(digest[:n])
		if !slices.Contains(lines, delim) {
			return delim
		}
	}

	base := heredocPrefix + strings.ToUpper(digest)
	for i := 1; ; i++ {
		delim := base + "_" + strconv.Itoa(i)
		if !slices.Contains(lines, delim) {
			return delim
		}
	}
}

// ShellQuote single-quotes s for POSIX shells.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func profileLabel(name string) string {
	if name == "" {
		return "generic"
	}

	return name
}
