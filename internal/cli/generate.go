package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/api"
	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var errBinaryToTerminal = errors.New("refusing to write a zip archive to a terminal, use --output or redirect stdout")

type GenerateArgs struct {
	Wizard  WizardArgs
	Output  string
	Diff    string
	Save    string
	Print   bool
	CopyURL bool
}

func NewGenerateCmd(ra *RootArgs) *cobra.Command {
	args := &GenerateArgs{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a rule package",
		Long: `Match the catalog against the selected stack, resolve conflicts and render
a package in the chosen format. The package descriptor is stored and the
artifact is uploaded to the configured artifact directory.`,
		Example: `  rulehub generate --stack react --language typescript --format bash -o setup.sh
  rulehub generate -f wizard.yaml --format config --print
  rulehub generate -f wizard.yaml --format bash --diff setup.sh`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, ra, args)
		},
	}

	args.Wizard.AddFlags(cmd, string(wizard.FormatBash))
	cmd.Flags().StringVarP(&args.Output, "output", "o", "", "Write the artifact to this path")
	cmd.Flags().BoolVarP(&args.Print, "print", "p", false, "Write the artifact to stdout")
	cmd.Flags().StringVar(&args.Diff, "diff", "", "Show a diff against a previously generated artifact")
	cmd.Flags().StringVar(&args.Save, "save", "", "Save the answers as a WizardConfiguration document")
	cmd.Flags().BoolVar(&args.CopyURL, "copy-url", false, "Copy the download URL to the clipboard")

	must(cmd.MarkFlagFilename("output"))
	must(cmd.MarkFlagFilename("diff"))
	must(cmd.MarkFlagFilename("save", "yaml", "yml"))

	return cmd
}

func runGenerate(cmd *cobra.Command, ra *RootArgs, args *GenerateArgs) error {
	cfg, err := args.Wizard.Configuration(cmd)
	if err != nil {
		return err
	}

	return withApp(cmd, ra, func(a *app) error {
		return generatePackage(cmd, a, cfg, args)
	})
}

func generatePackage(cmd *cobra.Command, a *app, cfg *wizard.Configuration, args *GenerateArgs) error {
	ctx := cmd.Context()

	if args.Save != "" {
		err := saveWizard(args.Save, cfg)
		if err != nil {
			return err
		}
	}

	res, err := a.generator.GenerateArtifact(ctx, cfg)
	if err != nil {
		return err //nolint:wrapcheck // Generation errors carry their own stage.
	}

	art := res.Artifact
	summary := cmd.OutOrStdout()

	if args.Print {
		summary = cmd.ErrOrStderr()

		err := printArtifact(cmd.OutOrStdout(), art.Data, cfg.OutputFormat)
		if err != nil {
			return err
		}
	}

	if args.Diff != "" {
		prev, err := os.ReadFile(args.Diff)
		if err != nil {
			return fmt.Errorf("read previous artifact: %w", err)
		}

		if !writeDiff(summary, args.Diff, res.Package.FileName, prev, art.Data, isTerminal(summary)) {
			slog.Info("artifact unchanged", slog.String("previous", args.Diff))
		}
	}

	if args.Output != "" {
		err := os.WriteFile(args.Output, art.Data, outputMode(cfg.OutputFormat))
		if err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}

		slog.Info("wrote artifact", slog.String("path", args.Output))
	}

	if args.CopyURL {
		copyURL(res.Package)
	}

	writeResult(summary, res, time.Now())

	return nil
}

func printArtifact(w io.Writer, data []byte, format wizard.OutputFormat) error {
	if !isTerminal(w) {
		_, err := w.Write(data)
		if err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}

		return nil
	}

	lexer := lexerFor(format)
	if lexer == "" {
		return errBinaryToTerminal
	}

	return highlight(w, data, lexer)
}

func outputMode(format wizard.OutputFormat) os.FileMode {
	if format == wizard.FormatBash {
		return 0o755 //nolint:gosec // Setup scripts are meant to be executed.
	}

	return 0o644 //nolint:gosec // Artifacts are meant to be shared.
}

func copyURL(pkg *generate.Package) {
	if pkg.DownloadURL == "" {
		slog.Warn("package has no download url, nothing copied", slog.String("id", pkg.ID))

		return
	}

	err := clipboard.WriteAll(pkg.DownloadURL)
	if err != nil {
		slog.Warn("copy download url", slog.Any("err", err))

		return
	}

	slog.Info("copied download url to clipboard")
}

func saveWizard(path string, cfg *wizard.Configuration) error {
	b, err := wizards.New(cfg).MarshalYAML()
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	err = api.WriteDefaultFile(path, b, true, "wizard configuration")
	if err != nil {
		return fmt.Errorf("save wizard configuration: %w", err)
	}

	slog.Info("saved wizard configuration", slog.String("path", path))

	return nil
}
