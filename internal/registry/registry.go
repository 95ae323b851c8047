// Package registry wires tool packages onto the MCP server, applying the
// tier and read-only filters from configuration.
package registry

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yonaka15/mcp-google-sheets/internal/config"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
	"github.com/yonaka15/mcp-google-sheets/internal/tools/sheets"
)

// toolNameRE enforces SEP-986: tool names must match ^[a-zA-Z0-9_-]{1,64}$
var toolNameRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateToolName checks that a tool name complies with SEP-986.
func ValidateToolName(name string) error {
	if !toolNameRE.MatchString(name) {
		return fmt.Errorf("tool name %q does not match SEP-986 pattern ^[a-zA-Z0-9_-]{1,64}$", name)
	}
	return nil
}

// RegisterAll registers the tool packages with the server, filtering each
// tool through ShouldIncludeTool.
func RegisterAll(server *mcp.Server, ctr *services.Container, cfg *config.Config, tierMap map[string]string) {
	slog.Info("registering tools",
		"tier", cfg.ToolTier,
		"readOnly", cfg.ReadOnly,
	)

	include := func(name string, annotations *mcp.ToolAnnotations) bool {
		if err := ValidateToolName(name); err != nil {
			slog.Warn("skipping tool with invalid name", "tool", name, "error", err)
			return false
		}
		return ShouldIncludeTool(name, cfg, tierMap, annotations)
	}

	sheets.Register(server, ctr, include)
	slog.Info("registered service", "service", "sheets")
}

// ShouldIncludeTool checks whether a tool should be registered based on the
// current config. An empty tier map disables tier filtering so a missing
// tiers file degrades to registering everything.
func ShouldIncludeTool(toolName string, cfg *config.Config, tierMap map[string]string, annotations *mcp.ToolAnnotations) bool {
	if len(tierMap) > 0 {
		tier, ok := tierMap[toolName]
		if !ok {
			slog.Warn("tool not found in tier config, skipping", "tool", toolName)
			return false
		}
		if config.TierLevel(tier) > config.TierLevel(cfg.ToolTier) {
			return false
		}
	}

	// Read-only mode registers only tools annotated as read-only.
	if cfg.ReadOnly && (annotations == nil || !annotations.ReadOnlyHint) {
		return false
	}

	return true
}
