package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"

	"github.com/vibekit/rulehub/pkg/generate"
)

// usagePrefixes are the message prefixes cobra uses for argument errors.
// Cobra has no typed usage error, see spf13/cobra#2266.
var usagePrefixes = []string{
	"accepts ",
	"flag needs an argument:",
	"invalid argument",
	"requires at least",
	"unknown command",
	"unknown flag:",
	"unknown shorthand flag:",
}

// ErrorHandler renders command errors for [fang.WithErrorHandler].
// Generation failures only show the failed stage; the cause is logged at
// debug level.
func ErrorHandler(w io.Writer, styles fang.Styles, err error) {
	body := lipgloss.NewStyle().MarginLeft(2)

	mustN(fmt.Fprintln(w, styles.ErrorHeader.String()))

	var genErr *generate.PackageGenerationError
	if errors.As(err, &genErr) {
		slog.Debug("package generation failed",
			slog.String("stage", genErr.Stage),
			slog.Any("err", genErr.Err),
		)
	}

	mustN(fmt.Fprintln(w, body.Render(err.Error())))
	mustN(fmt.Fprintln(w))

	if !isUsageError(err) {
		return
	}

	text := styles.ErrorText.UnsetWidth()
	mustN(fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Left,
		text.Render("Try"),
		styles.Program.Flag.Render("--help"),
		text.UnsetMargins().UnsetTransform().PaddingLeft(1).Render("for usage."),
	)))
	mustN(fmt.Fprintln(w))
}

func isUsageError(err error) bool {
	msg := err.Error()

	for _, p := range usagePrefixes {
		if strings.HasPrefix(msg, p) {
			return true
		}
	}

	return false
}

// must panics on errors that indicate a programming mistake, such as
// marking a flag that was never registered.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func mustN(_ int, err error) {
	must(err)
}
