package mcp

import (
	"context"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName scopes the spans emitted around tool execution.
const tracerName = "github.com/louisbranch/longrun/internal/services/streak/api/mcp"

// Traced wraps a tool handler in a span named after the tool. Failures are
// recorded on the span and logged with their trace correlation IDs before
// they propagate to the client. Spans go to the globally registered tracer
// provider, so the wrapper is a no-op unless tracing was set up.
func Traced[In, Out any](tool string, handler mcp.ToolHandlerFor[In, Out]) mcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input In) (*mcp.CallToolResult, Out, error) {
		ctx, span := otel.Tracer(tracerName).Start(ctx, tool)
		defer span.End()
		span.SetAttributes(attribute.String("mcp.tool.name", tool))

		result, output, err := handler(ctx, req, input)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
				log.Printf("tool %s failed: %v (trace %s span %s)", tool, err, sc.TraceID(), sc.SpanID())
			}
		}
		return result, output, err
	}
}
