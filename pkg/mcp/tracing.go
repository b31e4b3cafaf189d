package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vibekit/rulehub/pkg/log"
)

// ToolHandler is the handler signature of a typed rulehub tool.
type ToolHandler[In, Out any] func(
	context.Context,
	*mcp.ServerSession,
	*mcp.CallToolParamsFor[In],
) (*mcp.CallToolResultFor[Out], error)

// WithTracing runs each call of handler in a span named after the tool.
// The context logger carries the trace id. Handler errors and results
// flagged IsError both mark the span as failed.
func WithTracing[In, Out any](tracer trace.Tracer, handler ToolHandler[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(
		ctx context.Context,
		session *mcp.ServerSession,
		params *mcp.CallToolParamsFor[In],
	) (*mcp.CallToolResultFor[Out], error) {
		name := params.Name

		ctx, span := tracer.Start(ctx, "tool "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", name)),
		)
		defer span.End()

		logger := log.WithContext(ctx).With(slog.String("tool", name))
		start := time.Now()

		logger.DebugContext(ctx, "tool call", slog.Any("args", params.Arguments))

		res, err := handler(ctx, session, params)
		elapsed := time.Since(start)

		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.WarnContext(ctx, "tool call failed",
				slog.Duration("elapsed", elapsed),
				slog.Any("err", err),
			)

		case res != nil && res.IsError:
			span.SetStatus(codes.Error, "tool reported an error")
			logger.InfoContext(ctx, "tool call returned an error result", slog.Duration("elapsed", elapsed))

		default:
			logger.DebugContext(ctx, "tool call done", slog.Duration("elapsed", elapsed))
		}

		return res, err
	}
}
