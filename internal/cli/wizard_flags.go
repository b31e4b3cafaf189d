package cli

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var errInvalidEnvDetail = errors.New("environment details must be key=value pairs")

// WizardArgs are the flags describing a [wizard.Configuration]. Flags are
// merged over the document named by File.
type WizardArgs struct {
	File         string
	Format       string
	Requirements string
	Stacks       []string
	Languages    []string
	Tools        []string
	Env          []string
}

func (wa *WizardArgs) AddFlags(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVarP(&wa.File, "file", "f", "", "Path to a WizardConfiguration document")
	cmd.Flags().StringSliceVarP(&wa.Stacks, "stack", "s", nil, "Selected framework ids")
	cmd.Flags().StringSliceVarP(&wa.Languages, "language", "l", nil, "Selected language ids")
	cmd.Flags().StringSliceVarP(&wa.Tools, "tool", "t", nil, "Selected tool ids")
	cmd.Flags().StringArrayVarP(&wa.Env, "env", "e", nil,
		"Environment details as key=value pairs, e.g. 'targetIde=cursor nodeVersion=20'")
	cmd.Flags().StringVar(&wa.Format, "format", defaultFormat,
		fmt.Sprintf("Output format, one of: %s", wizard.AllFormats))
	cmd.Flags().StringVar(&wa.Requirements, "requirements", "", "Free-text custom requirements")

	must(cmd.MarkFlagFilename("file", "yaml", "yml"))
	must(cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions(wizard.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
}

// Configuration builds the configuration from the document and the flags.
func (wa *WizardArgs) Configuration(cmd *cobra.Command) (*wizard.Configuration, error) {
	cfg := &wizard.Configuration{}

	if wa.File != "" {
		l, err := config.NewLoaderFromFile(wa.File, wizards.Empty, wizards.DefaultValidator,
			config.WithColor(isTerminal(cmd.ErrOrStderr())),
		)
		if err != nil {
			return nil, fmt.Errorf("read wizard configuration: %w", err)
		}

		doc, err := l.ValidateAndLoad()
		if err != nil {
			return nil, fmt.Errorf("load wizard configuration: %w", err)
		}

		cfg = &doc.Configuration
	}

	cfg.StackChoices = mergeChoices(cfg.StackChoices, wa.Stacks)
	cfg.LanguageChoices = mergeChoices(cfg.LanguageChoices, wa.Languages)
	cfg.ToolPreferences = mergeChoices(cfg.ToolPreferences, wa.Tools)

	env, err := ParseEnv(wa.Env...)
	if err != nil {
		return nil, err
	}

	if len(env) > 0 {
		if cfg.EnvironmentDetails == nil {
			cfg.EnvironmentDetails = map[string]any{}
		}

		maps.Copy(cfg.EnvironmentDetails, env)
	}

	if wa.File == "" || cmd.Flags().Changed("format") {
		cfg.OutputFormat = wizard.OutputFormat(strings.ToLower(strings.TrimSpace(wa.Format)))
	}
	if wa.Requirements != "" {
		cfg.CustomRequirements = wa.Requirements
	}

	return cfg, nil
}

func mergeChoices(m map[string]bool, ids []string) map[string]bool {
	if len(ids) == 0 {
		return m
	}
	if m == nil {
		m = map[string]bool{}
	}

	maps.Copy(m, wizard.Select(ids...))

	return m
}

// ParseEnv parses shell-quoted key=value pairs into environment details.
// Values are typed as bool, integer, float or string, in that order.
func ParseEnv(values ...string) (map[string]any, error) {
	out := map[string]any{}

	for _, v := range values {
		words, err := shellwords.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("parse environment details %q: %w", v, err)
		}

		for _, w := range words {
			key, val, ok := strings.Cut(w, "=")
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				return nil, fmt.Errorf("%w: %q", errInvalidEnvDetail, w)
			}

			out[key] = parseEnvValue(val)
		}
	}

	return out, nil
}

func parseEnvValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil && !isNumeric(s) {
		return b
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if isNumeric(s) {
		f, _ := strconv.ParseFloat(s, 64) //nolint:errcheck // Checked by isNumeric.
		return f
	}

	return s
}

// isNumeric reports whether s is a finite decimal number. It keeps "0" and
// "1" out of the bool branch and "inf" or "nan" out of the float branch.
func isNumeric(s string) bool {
	if !strings.ContainsAny(s, "0123456789") {
		return false
	}

	_, err := strconv.ParseFloat(s, 64)

	return err == nil
}
