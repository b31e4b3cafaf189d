package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/version"
	"github.com/vibekit/rulehub/pkg/wizard"
)

const shutdownTimeout = 5 * time.Second

// RuleCatalog reads rules from the repository.
type RuleCatalog interface {
	ListRules(ctx context.Context) ([]catalog.Rule, error)
	GetRule(ctx context.Context, id string) (*catalog.Rule, error)
}

// PackageGenerator previews and generates rule packages.
type PackageGenerator interface {
	Preview(ctx context.Context, cfg *wizard.Configuration) ([]match.MatchedRule, error)
	Generate(ctx context.Context, cfg *wizard.Configuration) (*generate.Package, error)
}

// PackageTracker reads package descriptors and counts downloads.
type PackageTracker interface {
	GetPackage(ctx context.Context, id string) (*generate.Package, error)
	RecordDownload(ctx context.Context, id string, now time.Time) (*generate.Package, error)
}

// ServerOpt configures a [Server].
type ServerOpt func(*Server)

// WithTracer sets the tracer used for tool call spans.
func WithTracer(t trace.Tracer) ServerOpt {
	return func(s *Server) {
		s.tracer = t
	}
}

// WithClock sets the time source used for expiry checks and downloads.
func WithClock(now func() time.Time) ServerOpt {
	return func(s *Server) {
		s.now = now
	}
}

// Server implements the MCP server for rulehub.
type Server struct {
	rules    RuleCatalog
	gen      PackageGenerator
	packages PackageTracker
	server   *mcp.Server
	tracer   trace.Tracer
	now      func() time.Time
	address  string
}

// NewServer creates a new MCP server instance. An empty address serves
// over stdio.
func NewServer(
	address string,
	rules RuleCatalog,
	gen PackageGenerator,
	packages PackageTracker,
	opts ...ServerOpt,
) (*Server, error) {
	if rules == nil || gen == nil || packages == nil {
		return nil, errors.New("rule catalog, generator and package tracker are required")
	}

	impl := &mcp.Implementation{
		Name:    name,
		Version: version.GetVersion(),
	}

	s := &Server{
		address:  address,
		server:   mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
		rules:    rules,
		gen:      gen,
		packages: packages,
		tracer:   otel.Tracer("mcp"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available tools with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List or search the rule catalog. Use a query to fuzzy match rule ids, titles and tags.",
	}, WithTracing(s.tracer, s.handleListRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_rule",
		Description: "Get the full text of a rule. You MUST use an EXACT id from list_rules or match_rules output.",
	}, WithTracing(s.tracer, s.handleGetRule))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "match_rules",
		Description: "Preview the rules that match a technology stack, ordered by level and relevance. Nothing is saved.",
	}, WithTracing(s.tracer, s.handleMatchRules))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_package",
		Description: "Generate a rule package for a technology stack. You MUST set outputFormat to bash, zip or config.",
	}, WithTracing(s.tracer, s.handleGeneratePackage))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_package",
		Description: "Get a generated package by id, including its download URL and expiry.",
	}, WithTracing(s.tracer, s.handleGetPackage))

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_download",
		Description: "Count a download of a package. Fails when the package has expired.",
	}, WithTracing(s.tracer, s.handleRecordDownload))
}

func (s *Server) Server() *mcp.Server {
	return s.server
}

// Serve starts the MCP server and blocks until ctx is canceled or the
// transport fails.
func (s *Server) Serve(ctx context.Context) error {
	slog.InfoContext(ctx, "starting MCP server", slog.String("address", s.address))

	if s.address == "" {
		err := s.serveStdio(ctx)
		if err != nil {
			return fmt.Errorf("serve Stdio: %w", err)
		}

		return nil
	}

	err := s.serveHTTP(ctx)
	if err != nil {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	return nil
}

func (s *Server) serveHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	server := &http.Server{
		Addr:    s.address,
		Handler: handler,

		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("MCP server failed: %w", err)
		}

		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		return nil
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	t := mcp.NewLoggingTransport(mcp.NewStdioTransport(), os.Stderr)

	err := s.server.Run(ctx, t)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server failed: %w", err)
	}

	return nil
}
