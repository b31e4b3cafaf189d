package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/wizard"
)

type MatchArgs struct {
	Wizard WizardArgs
	JSON   bool
}

func NewMatchCmd(ra *RootArgs) *cobra.Command {
	args := &MatchArgs{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Preview the rules a configuration selects",
		Long: `Score, classify and resolve the catalog for a configuration without
storing anything or rendering a package.`,
		Example: `  rulehub match --stack next --language typescript --env targetIde=cursor`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := args.Wizard.Configuration(cmd)
			if err != nil {
				return err
			}

			return withApp(cmd, ra, func(a *app) error {
				rules, err := a.generator.Preview(cmd.Context(), cfg)
				if err != nil {
					return fmt.Errorf("match rules: %w", err)
				}

				if args.JSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")

					err := enc.Encode(rules)
					if err != nil {
						return fmt.Errorf("encode rules: %w", err)
					}

					return nil
				}

				writeMatched(cmd.OutOrStdout(), rules)

				return nil
			})
		},
	}

	args.Wizard.AddFlags(cmd, string(wizard.FormatConfig))
	cmd.Flags().BoolVar(&args.JSON, "json", false, "Write the matched rules as JSON")

	return cmd
}
