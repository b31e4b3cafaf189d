package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/log"
)

const (
	cmdName = "rulehub"
	cmdDesc = `Curated coding rules for AI assistants, packaged for your stack.`

	cmdExamples = `  # Import a rule catalog into the local repository:
  rulehub import ./catalog.yaml

  # Preview the rules for a stack:
  rulehub match --stack react --language typescript

  # Generate a zip package for Cursor:
  rulehub generate --stack next --env targetIde=cursor --format zip

  # Answer the questions interactively:
  rulehub wizard

  # Serve the MCP server over HTTP:
  rulehub serve --address localhost:8080`
)

type RootArgs struct {
	LogLevel   string
	LogFormat  string
	ConfigPath string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	flags.StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	flags.StringVar(&ra.ConfigPath, "config", "", "Path to the rulehub configuration file")

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp)))
	must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml"))
}

// NewRootCmd returns the rulehub command tree with every flag bound to its
// environment variable.
func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:          cmdName,
		Short:        cmdDesc,
		Example:      cmdExamples,
		SilenceUsage: true,
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewGenerateCmd(args),
		NewMatchCmd(args),
		NewWizardCmd(args),
		NewImportCmd(args),
		NewRulesCmd(args),
		NewPackagesCmd(args),
		NewServeCmd(args),
		NewConfigCmd(args),
	)

	cmd.PersistentPreRunE = setupLogging(args, bindEnvVars(cmd))

	return cmd
}

func setupLogging(ra *RootArgs, env *envBindings) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logger, err := log.New(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		slog.SetDefault(logger)

		return env.report()
	}
}
