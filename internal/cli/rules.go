package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/store"
)

type RulesListArgs struct {
	Query string
	Level string
}

func NewRulesCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Browse the rule catalog",
	}

	cmd.AddCommand(newRulesListCmd(ra), newRulesShowCmd(ra))

	return cmd
}

func newRulesListCmd(ra *RootArgs) *cobra.Command {
	args := &RulesListArgs{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List catalog rules",
		Example: `  rulehub rules list --query eslint
  rulehub rules list --level stack`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var level match.Level
			if args.Level != "" {
				l, err := match.ParseLevel(args.Level)
				if err != nil {
					return err //nolint:wrapcheck // Already descriptive.
				}

				level = l
			}

			return withApp(cmd, ra, func(a *app) error {
				all, err := a.store.ListRules(cmd.Context())
				if err != nil {
					return fmt.Errorf("list rules: %w", err)
				}

				rules := match.FilterLevel(catalog.Search(all, args.Query), level)

				w := cmd.OutOrStdout()
				for i := range rules {
					r := &rules[i]
					mustN(fmt.Fprintf(w, "%s %s %s\n",
						idStyle.Render(fmt.Sprintf("%-24s", r.ID)),
						labelStyle.Render(fmt.Sprintf("%-12s", match.Classify(r))),
						r.Title,
					))
				}

				mustN(fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("%d of %d rules", len(rules), len(all)))))

				return nil
			})
		},
	}

	levels := make([]string, 0, len(match.Levels))
	for _, l := range match.Levels {
		levels = append(levels, string(l))
	}

	cmd.Flags().StringVarP(&args.Query, "query", "q", "", "Fuzzy search over id, title and tags")
	cmd.Flags().StringVar(&args.Level, "level", "", fmt.Sprintf("Only show rules of this level, one of: %s", levels))

	must(cmd.RegisterFlagCompletionFunc("level",
		cobra.FixedCompletions(levels, cobra.ShellCompDirectiveNoFileComp),
	))

	return cmd
}

func newRulesShowCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:               "show <id>",
		Short:             "Show one rule",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeRuleIDs(ra),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return withApp(cmd, ra, func(a *app) error {
				r, err := a.store.GetRule(cmd.Context(), argv[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("rule %q not found", argv[0])
				}
				if err != nil {
					return fmt.Errorf("get rule: %w", err)
				}

				return writeRule(cmd, r)
			})
		},
	}
}

func writeRule(cmd *cobra.Command, r *catalog.Rule) error {
	w := cmd.OutOrStdout()

	mustN(fmt.Fprintf(w, "%s %s\n", headingStyle.Render(r.Title), idStyle.Render(r.ID)))
	writeField(w, "level", string(match.Classify(r)))

	if len(r.Tags) > 0 {
		writeField(w, "tags", strings.Join(r.Tags, ", "))
	}
	if fw := r.Frameworks(); len(fw) > 0 {
		writeField(w, "stacks", strings.Join(fw, ", "))
	}
	if as := r.AIAssistants(); len(as) > 0 {
		writeField(w, "assistants", strings.Join(as, ", "))
	}
	if r.AlwaysApply {
		writeField(w, "always", "true")
	}

	if r.Content == "" {
		return nil
	}

	mustN(fmt.Fprintln(w))

	if !isTerminal(w) {
		mustN(fmt.Fprintln(w, r.Content))

		return nil
	}

	return highlight(w, []byte(r.Content+"\n"), "markdown")
}

// completeRuleIDs completes rule ids from the configured store.
func completeRuleIDs(ra *RootArgs) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var ids []string

		err := withApp(cmd, ra, func(a *app) error {
			rules, err := a.store.ListRules(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // Completion errors are discarded.
			}

			for i := range rules {
				if strings.HasPrefix(rules[i].ID, toComplete) {
					ids = append(ids, rules[i].ID+"\t"+rules[i].Title)
				}
			}

			return nil
		})
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}
