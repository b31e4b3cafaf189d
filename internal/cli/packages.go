package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/store"
)

var errStorageDisabled = errors.New("artifact storage is disabled in the configuration")

type DownloadArgs struct {
	Output string
}

func NewPackagesCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "packages",
		Aliases: []string{"pkg"},
		Short:   "Manage generated packages",
	}

	cmd.AddCommand(
		newPackagesListCmd(ra),
		newPackagesShowCmd(ra),
		newPackagesDownloadCmd(ra),
		newPackagesPurgeCmd(ra),
	)

	return cmd
}

func newPackagesListCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List packages that have not expired",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, ra, func(a *app) error {
				now := time.Now()

				pkgs, err := a.store.ListPackages(cmd.Context(), now)
				if err != nil {
					return fmt.Errorf("list packages: %w", err)
				}

				w := cmd.OutOrStdout()
				for i := range pkgs {
					p := &pkgs[i]
					mustN(fmt.Fprintf(w, "%s %-6s %3d rules %8s  expires %s\n",
						idStyle.Render(p.ID),
						p.PackageType,
						p.RuleCount,
						humanize.Bytes(uint64(max(0, p.FileSize))), //nolint:gosec // Uses max.
						humanize.RelTime(p.ExpiresAt, now, "ago", "from now"),
					))
				}

				if len(pkgs) == 0 {
					mustN(fmt.Fprintln(w, "No packages."))
				}

				return nil
			})
		},
	}
}

func newPackagesShowCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a package descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return withApp(cmd, ra, func(a *app) error {
				pkg, err := a.store.GetPackage(cmd.Context(), argv[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("package %q not found", argv[0])
				}
				if err != nil {
					return fmt.Errorf("get package: %w", err)
				}

				writePackage(cmd.OutOrStdout(), pkg, time.Now())

				return nil
			})
		},
	}
}

func newPackagesDownloadCmd(ra *RootArgs) *cobra.Command {
	args := &DownloadArgs{}

	cmd := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a package artifact",
		Long: `Copy a package artifact out of the artifact directory and count the
download. Expired packages are refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, argv []string) error {
			return withApp(cmd, ra, func(a *app) error {
				if a.storage == nil {
					return errStorageDisabled
				}

				ctx := cmd.Context()

				pkg, err := a.store.RecordDownload(ctx, argv[0], time.Now())
				switch {
				case errors.Is(err, store.ErrNotFound):
					return fmt.Errorf("package %q not found", argv[0])
				case errors.Is(err, store.ErrPackageExpired):
					return fmt.Errorf("package %q has expired", argv[0])
				case err != nil:
					return fmt.Errorf("record download: %w", err)
				}

				data, err := a.storage.Open(pkg.FileName)
				if err != nil {
					return fmt.Errorf("open artifact: %w", err)
				}

				out := args.Output
				if out == "" {
					out = pkg.FileName
				}

				if out == "-" {
					return printArtifact(cmd.OutOrStdout(), data, pkg.PackageType)
				}

				err = os.WriteFile(out, data, outputMode(pkg.PackageType))
				if err != nil {
					return fmt.Errorf("write artifact: %w", err)
				}

				slog.Info("downloaded package",
					slog.String("id", pkg.ID),
					slog.String("path", out),
					slog.Int("downloads", pkg.DownloadCount),
				)

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&args.Output, "output", "o", "", "Destination path, or - for stdout (default: the artifact file name)")
	must(cmd.MarkFlagFilename("output"))

	return cmd
}

func newPackagesPurgeCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired packages and their artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, ra, func(a *app) error {
				ctx := cmd.Context()
				now := time.Now()

				expired, err := a.store.ListExpiredPackages(ctx, now)
				if err != nil {
					return fmt.Errorf("list expired packages: %w", err)
				}

				if a.storage != nil {
					for i := range expired {
						err := a.storage.Remove(expired[i].FileName)
						if err != nil {
							slog.Warn("remove artifact",
								slog.String("id", expired[i].ID),
								slog.Any("err", err),
							)
						}
					}
				}

				n, err := a.store.DeleteExpiredPackages(ctx, now)
				if err != nil {
					return fmt.Errorf("delete expired packages: %w", err)
				}

				mustN(fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired packages\n", n))

				return nil
			})
		},
	}
}
