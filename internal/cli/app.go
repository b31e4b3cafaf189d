package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vibekit/rulehub/api/v1beta1/configs"
	"github.com/vibekit/rulehub/pkg/artifact"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/store"
	"github.com/vibekit/rulehub/pkg/trace"
	"github.com/vibekit/rulehub/pkg/version"
)

const shutdownTimeout = 5 * time.Second

// app holds the collaborators shared by the commands that touch the
// repository.
type app struct {
	cfg       *configs.Config
	store     *store.Store
	storage   *artifact.FileStorage
	generator *generate.Generator
	shutdown  trace.ShutdownFunc
	cfgPath   string
}

// loadConfig resolves and loads the configuration for the working
// directory.
func loadConfig(cmd *cobra.Command, ra *RootArgs) (*configs.Config, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("get working directory: %w", err)
	}

	cfg, path, err := config.LoadConfiguration(ra.ConfigPath, cwd,
		config.WithColor(isTerminal(cmd.ErrOrStderr())),
	)
	if err != nil {
		return nil, path, fmt.Errorf("load config: %w", err)
	}

	return cfg, path, nil
}

// openApp loads the configuration and opens the store, artifact storage,
// tracer provider and generator it describes.
func openApp(cmd *cobra.Command, ra *RootArgs) (*app, error) {
	ctx := cmd.Context()

	cfg, path, err := loadConfig(cmd, ra)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, cfgPath: path}

	endpoint := cfg.Tracing.Endpoint
	if endpoint == "" {
		endpoint = trace.EndpointFromEnv()
	}

	a.shutdown, err = trace.Init(ctx, trace.Config{
		ServiceName:    cmdName,
		ServiceVersion: version.GetVersion(),
		Endpoint:       endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	a.store, err = store.Open(ctx, cfg.Store.Path)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open store: %w", err), a.Close(ctx))
	}

	opts := []generate.Opt{
		generate.WithLayouts(cfg.Layout),
		generate.WithMatcher(match.NewMatcher(cfg.Scorer())),
	}

	if !cfg.Artifacts.Disabled {
		a.storage, err = artifact.NewFileStorage(cfg.Artifacts.Dir, cfg.Artifacts.BaseURL)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("open artifact storage: %w", err), a.Close(ctx))
		}

		opts = append(opts, generate.WithArtifactStorage(a.storage))
	}

	a.generator = generate.NewGenerator(a.store, a.store, a.store, opts...)

	slog.Debug("opened repository",
		slog.String("config", path),
		slog.String("store", cfg.Store.Path),
		slog.Bool("artifacts", a.storage != nil),
	)

	return a, nil
}

// Close releases the store and flushes pending spans.
func (a *app) Close(ctx context.Context) error {
	var errs []error

	if a.store != nil {
		err := a.store.Close()
		if err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := a.shutdown(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}

	return errors.Join(errs...)
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, ra *RootArgs, fn func(a *app) error) (err error) {
	a, err := openApp(cmd, ra)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, a.Close(cmd.Context()))
	}()

	return fn(a)
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int.
}
