package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware returns MCP SDK middleware that logs incoming requests
// and outgoing responses using structured logging. For tools/call the tool
// name is included.
func LoggingMiddleware(logger *slog.Logger) mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			start := time.Now()
			attrs := []any{"method", method}
			if name := toolName(req); name != "" {
				attrs = append(attrs, "tool", name)
			}
			logger.InfoContext(ctx, "handling request", attrs...)

			result, err := next(ctx, method, req)

			attrs = append(attrs, "duration", time.Since(start))
			if err != nil {
				logger.ErrorContext(ctx, "request failed", append(attrs, "error", err)...)
			} else {
				logger.InfoContext(ctx, "request completed", attrs...)
			}

			return result, err
		}
	}
}

// toolName extracts the tool name from tools/call parameters; other
// methods yield an empty string.
func toolName(req mcp.Request) string {
	if params, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok {
		return params.Name
	}
	return ""
}
