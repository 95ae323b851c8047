package middleware

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// authErrorMarkers are substrings that identify auth-related tool errors.
var authErrorMarkers = []string{
	string(KindAuthentication) + ":",
	"invalid_grant",
	"oauth2: cannot fetch token",
	"authentication failed",
}

// authHint explains how credentials are resolved so the calling agent can
// tell the user what to fix without another round-trip.
const authHint = "Credentials are resolved at startup, in order: CREDENTIALS_CONFIG " +
	"(base64 credential JSON), SERVICE_ACCOUNT_PATH, CREDENTIALS_PATH with TOKEN_PATH " +
	"(OAuth client), then Application Default Credentials. Fix or re-provide one of " +
	"these and restart the server."

// AuthHintMiddleware returns MCP SDK middleware that detects
// authentication-class tool errors and appends the credential-chain hint.
func AuthHintMiddleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			result, err := next(ctx, method, req)

			// Only enhance tools/call responses.
			if method != "tools/call" {
				return result, err
			}

			// Check whether the result is a tool-error CallToolResult.
			toolResult, ok := result.(*mcp.CallToolResult)
			if !ok || toolResult == nil || !toolResult.IsError || len(toolResult.Content) == 0 {
				return result, err
			}

			textContent, ok := toolResult.Content[0].(*mcp.TextContent)
			if !ok {
				return result, err
			}

			if !isAuthRelatedError(textContent.Text) {
				return result, err
			}

			textContent.Text = textContent.Text + "\n\n" + authHint

			return result, err
		}
	}
}

// isAuthRelatedError returns true if the text contains any auth-error marker.
func isAuthRelatedError(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range authErrorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
