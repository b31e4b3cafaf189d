package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/log"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var (
	errNotInteractive = errors.New("the wizard needs an interactive terminal, use generate instead")

	wizardLanguages = []string{"typescript", "javascript", "python", "java", "go", "rust"}
	wizardIDEs      = []string{"cursor", "vscode", "webstorm", "intellij", "other"}
)

// wizardAnswers collects the form values.
type wizardAnswers struct {
	Stacks       []string
	Languages    []string
	Tools        []string
	IDE          string
	Format       string
	Requirements string
	Save         string
	Output       string
	Generate     bool
}

func (wa *wizardAnswers) Configuration() *wizard.Configuration {
	cfg := &wizard.Configuration{
		StackChoices:       wizard.Select(wa.Stacks...),
		LanguageChoices:    wizard.Select(wa.Languages...),
		ToolPreferences:    wizard.Select(wa.Tools...),
		OutputFormat:       wizard.OutputFormat(wa.Format),
		CustomRequirements: strings.TrimSpace(wa.Requirements),
	}

	if wa.IDE != "" && wa.IDE != "other" {
		cfg.EnvironmentDetails = map[string]any{wizard.EnvTargetIDE: wa.IDE}
	}

	return cfg
}

// wizardOptions derives the stack and tool choices from the catalog.
// Frameworks named by rule compatibility become stacks; remaining tags
// become tools.
func wizardOptions(rules []catalog.Rule) ([]string, []string) {
	var stacks, tools []string

	for i := range rules {
		for _, fw := range rules[i].Frameworks() {
			fw = strings.ToLower(fw)
			if !slices.Contains(stacks, fw) {
				stacks = append(stacks, fw)
			}
		}
	}

	for i := range rules {
		for _, tag := range rules[i].Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" || slices.Contains(stacks, tag) || slices.Contains(wizardLanguages, tag) {
				continue
			}
			if !slices.Contains(tools, tag) {
				tools = append(tools, tag)
			}
		}
	}

	slices.Sort(stacks)
	slices.Sort(tools)

	return stacks, tools
}

func newWizardForm(ans *wizardAnswers, stacks, tools []string) *huh.Form {
	choices := []huh.Field{}

	if len(stacks) > 0 {
		choices = append(choices, huh.NewMultiSelect[string]().
			Title("Frameworks").
			Options(huh.NewOptions(stacks...)...).
			Value(&ans.Stacks))
	}

	choices = append(choices, huh.NewMultiSelect[string]().
		Title("Languages").
		Options(huh.NewOptions(wizardLanguages...)...).
		Value(&ans.Languages))

	if len(tools) > 0 {
		choices = append(choices, huh.NewMultiSelect[string]().
			Title("Tools").
			Options(huh.NewOptions(tools...)...).
			Value(&ans.Tools))
	}

	return huh.NewForm(
		huh.NewGroup(choices...).
			Title("Stack").
			Description("Pick what the project uses."),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Target IDE").
				Options(huh.NewOptions(wizardIDEs...)...).
				Value(&ans.IDE),
			huh.NewSelect[string]().
				Title("Output format").
				Options(huh.NewOptions(wizard.AllFormats...)...).
				Value(&ans.Format),
			huh.NewText().
				Title("Custom requirements").
				Placeholder("Optional notes stored with the configuration").
				Value(&ans.Requirements),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Save answers to").
				Placeholder("wizard.yaml (leave empty to skip)").
				Value(&ans.Save),
			huh.NewConfirm().
				Title("Generate the package now?").
				Value(&ans.Generate),
			huh.NewInput().
				Title("Write the artifact to").
				Placeholder("leave empty to only store it").
				Value(&ans.Output),
		),
	)
}

func NewWizardCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Answer the setup questions interactively",
		Long: `Walk through the setup questions, then save the answers as a
WizardConfiguration document and generate the package.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
				return errNotInteractive
			}

			return withApp(cmd, ra, func(a *app) error {
				rules, err := a.store.ListRules(cmd.Context())
				if err != nil {
					return fmt.Errorf("list rules: %w", err)
				}

				stacks, tools := wizardOptions(rules)
				ans := &wizardAnswers{
					Format:   string(wizard.FormatBash),
					Generate: true,
				}

				err = runForm(cmd, ra, newWizardForm(ans, stacks, tools))
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}

				cfg := ans.Configuration()

				if !ans.Generate {
					if ans.Save == "" {
						return nil
					}

					return saveWizard(ans.Save, cfg)
				}

				return generatePackage(cmd, a, cfg, &GenerateArgs{
					Save:   ans.Save,
					Output: ans.Output,
				})
			})
		},
	}
}

// runForm runs form while log output is held in a buffer, then flushes
// the buffered lines to stderr.
func runForm(cmd *cobra.Command, ra *RootArgs, form *huh.Form) error {
	prev := slog.Default()
	logBuf := log.NewCircularBuffer(100)

	h, err := log.CreateHandlerWithStrings(logBuf, ra.LogLevel, ra.LogFormat)
	if err != nil {
		return fmt.Errorf("create log handler: %w", err)
	}

	slog.SetDefault(slog.New(h))

	err = form.RunWithContext(cmd.Context())

	slog.SetDefault(prev)
	flushLogs(cmd, logBuf)

	if err != nil {
		return fmt.Errorf("run wizard: %w", err)
	}

	return nil
}

func flushLogs(cmd *cobra.Command, buf *log.CircularBuffer) {
	if buf.Size() == 0 {
		return
	}

	if n := buf.Dropped(); n > 0 {
		slog.Warn("dropped log lines while the wizard was open", slog.Int("count", n))
	}

	_, err := buf.WriteTo(cmd.ErrOrStderr())
	if err != nil {
		slog.Error("flush logs", slog.Any("err", err))
	}
}
