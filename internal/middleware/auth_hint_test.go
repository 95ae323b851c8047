package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// fakeToolRequest builds a CallToolRequest with the given arguments JSON.
func fakeToolRequest(argsJSON string) mcp.Request {
	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      "get_sheet_data",
			Arguments: json.RawMessage(argsJSON),
		},
	}
}

func TestAuthHint_AuthenticationError(t *testing.T) {
	mw := AuthHintMiddleware()

	errText := "authentication: authentication failed or expired — verify the credential configuration and restart the server"
	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: errText}},
		}, nil
	}

	handler := mw(next)
	req := fakeToolRequest(`{"spreadsheet_id":"abc","sheet":"Sheet1"}`)
	result, err := handler(context.Background(), "tools/call", req)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	toolResult := result.(*mcp.CallToolResult)
	text := toolResult.Content[0].(*mcp.TextContent).Text

	if !strings.Contains(text, errText) {
		t.Errorf("original error text missing, got: %s", text)
	}
	if !strings.Contains(text, "CREDENTIALS_CONFIG") {
		t.Errorf("credential-chain hint missing, got: %s", text)
	}
}

func TestAuthHint_RefreshFailure(t *testing.T) {
	mw := AuthHintMiddleware()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: `oauth2: cannot fetch token: 400 {"error":"invalid_grant"}`}},
		}, nil
	}

	handler := mw(next)
	result, _ := handler(context.Background(), "tools/call", fakeToolRequest(`{}`))

	text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "SERVICE_ACCOUNT_PATH") {
		t.Errorf("hint missing for refresh failure, got: %s", text)
	}
}

func TestAuthHint_NonAuthError_Unchanged(t *testing.T) {
	mw := AuthHintMiddleware()

	errText := "not_found: resource not found — verify the ID is correct"
	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: errText}},
		}, nil
	}

	handler := mw(next)
	result, _ := handler(context.Background(), "tools/call", fakeToolRequest(`{"spreadsheet_id":"abc"}`))

	text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text
	if text != errText {
		t.Errorf("non-auth error should be unchanged, got: %s", text)
	}
}

func TestAuthHint_NonToolCall_Unchanged(t *testing.T) {
	mw := AuthHintMiddleware()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.ListToolsResult{}, nil
	}

	handler := mw(next)
	req := &mcp.ServerRequest[*mcp.ListToolsParams]{Params: &mcp.ListToolsParams{}}
	result, err := handler(context.Background(), "tools/list", req)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.(*mcp.ListToolsResult); !ok {
		t.Errorf("expected ListToolsResult, got %T", result)
	}
}

func TestAuthHint_SuccessResult_Unchanged(t *testing.T) {
	mw := AuthHintMiddleware()

	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "Read 5 rows"}},
		}, nil
	}

	handler := mw(next)
	result, _ := handler(context.Background(), "tools/call", fakeToolRequest(`{}`))

	text := result.(*mcp.CallToolResult).Content[0].(*mcp.TextContent).Text
	if text != "Read 5 rows" {
		t.Errorf("successful result should be unchanged, got: %s", text)
	}
}

func TestAuthHint_NilResult_NoPanic(t *testing.T) {
	mw := AuthHintMiddleware()

	// The SDK can return a typed-nil *CallToolResult with an error when
	// input validation fails before the handler runs.
	next := func(_ context.Context, _ string, _ mcp.Request) (mcp.Result, error) {
		var r *mcp.CallToolResult
		return r, fmt.Errorf("validation failed: missing required field")
	}

	handler := mw(next)
	result, err := handler(context.Background(), "tools/call", fakeToolRequest(`{}`))

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if toolResult, ok := result.(*mcp.CallToolResult); ok && toolResult != nil {
		t.Errorf("expected nil *CallToolResult, got %+v", toolResult)
	}
}

func TestIsAuthRelatedError(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"authentication: authentication failed or expired", true},
		{`oauth2: cannot fetch token: 400 {"error":"invalid_grant"}`, true},
		{"range Sheet1!A1: authentication failed or expired", true},
		{"not_found: resource not found", false},
		{"rate_limit: rate limit exceeded", false},
		{"", false},
	}

	for _, tt := range tests {
		got := isAuthRelatedError(tt.text)
		if got != tt.want {
			t.Errorf("isAuthRelatedError(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
