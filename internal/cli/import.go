package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/api/v1beta1/catalogs"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/store"
	"github.com/vibekit/rulehub/pkg/watch"
)

type ImportArgs struct {
	Watch bool
}

func NewImportCmd(ra *RootArgs) *cobra.Command {
	args := &ImportArgs{}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import rule catalogs into the repository",
		Long: `Validate RuleCatalog documents and upsert their rules and dependency
edges into the repository. Each file is imported in one transaction.`,
		Example: `  rulehub import catalog.yaml
  rulehub import --watch catalog.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			return withApp(cmd, ra, func(a *app) error {
				colored := isTerminal(cmd.ErrOrStderr())

				for _, p := range paths {
					err := importCatalog(cmd.Context(), cmd.OutOrStdout(), a.store, p, colored)
					if err != nil {
						return err
					}
				}

				if !args.Watch {
					return nil
				}

				return watchCatalogs(cmd.Context(), cmd.OutOrStdout(), a.store, paths, colored)
			})
		},
	}

	cmd.Flags().BoolVarP(&args.Watch, "watch", "w", false, "Re-import files when they change")

	return cmd
}

func importCatalog(ctx context.Context, w io.Writer, s *store.Store, path string, colored bool) error {
	l, err := config.NewLoaderFromFile(path, catalogs.New, catalogs.DefaultValidator, config.WithColor(colored))
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	c, err := l.ValidateAndLoad()
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", path, err)
	}

	stats, err := s.ImportCatalog(ctx, c.Rules, c.Dependencies)
	if err != nil {
		return fmt.Errorf("import catalog %s: %w", path, err)
	}

	mustN(fmt.Fprintf(w, "Imported %d rules and %d dependencies from %s\n", stats.Rules, stats.Dependencies, path))

	return nil
}

func watchCatalogs(ctx context.Context, w io.Writer, s *store.Store, paths []string, colored bool) error {
	fw, err := watch.New(paths)
	if err != nil {
		return fmt.Errorf("watch catalogs: %w", err)
	}

	defer func() {
		err := fw.Close()
		if err != nil {
			slog.Debug("close watcher", slog.Any("err", err))
		}
	}()

	slog.Info("watching catalogs for changes", slog.Any("paths", paths))

	err = fw.Run(ctx, func(ctx context.Context, path string) error {
		return importCatalog(ctx, w, s, path, colored)
	})
	if err != nil {
		return fmt.Errorf("watch catalogs: %w", err)
	}

	return nil
}
