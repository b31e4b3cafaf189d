package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/api/v1beta1/catalogs"
	"github.com/vibekit/rulehub/api/v1beta1/configs"
	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/yaml"
)

// schemaKinds maps the names accepted by "config schema" to an instance of
// each document kind.
var schemaKinds = map[string]any{
	"configuration": &configs.Config{},
	"catalog":       &catalogs.RuleCatalog{},
	"wizard":        &wizards.WizardConfiguration{},
}

type ConfigInitArgs struct {
	Force bool
}

func NewConfigCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the rulehub configuration",
	}

	cmd.AddCommand(
		newConfigInitCmd(ra),
		newConfigShowCmd(ra),
		newConfigPathCmd(ra),
		newConfigSchemaCmd(),
	)

	return cmd
}

func newConfigInitCmd(ra *RootArgs) *cobra.Command {
	args := &ConfigInitArgs{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration to --config, or to the user configuration
directory. Existing files are kept unless --force is set, in which case
they are backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ra.ConfigPath
			if path == "" {
				path = configs.GetPath()
			}

			err := configs.WriteDefault(path, args.Force)
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}

	cmd.Flags().BoolVar(&args.Force, "force", false, "Overwrite an existing configuration")

	return cmd
}

func newConfigShowCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd, ra)
			if err != nil {
				return err
			}

			b, err := cfg.MarshalYAML()
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			w := cmd.OutOrStdout()
			if !isTerminal(w) {
				mustN(w.Write(b))

				return nil
			}

			return yaml.Highlight(w, b, "", "") //nolint:wrapcheck // Already wrapped.
		},
	}
}

func newConfigPathCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, err := loadConfig(cmd, ra)
			if err != nil {
				return err
			}

			mustN(fmt.Fprintln(cmd.OutOrStdout(), path))

			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	kinds := slices.Sorted(maps.Keys(schemaKinds))

	return &cobra.Command{
		Use:       fmt.Sprintf("schema <%s>", strings.Join(kinds, "|")),
		Short:     "Print the JSON schema of a document kind",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, argv []string) error {
			b, err := yaml.GenerateSchema(schemaKinds[argv[0]])
			if err != nil {
				return err //nolint:wrapcheck // Already wrapped.
			}

			mustN(cmd.OutOrStdout().Write(b))

			return nil
		},
	}
}
