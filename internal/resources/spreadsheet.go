// Package resources registers MCP resources served alongside the tool
// surface. Resources are read-only lookups addressed by URI instead of
// tool calls.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

// SpreadsheetInfoTemplate addresses the metadata of a single spreadsheet.
const SpreadsheetInfoTemplate = "spreadsheet://{spreadsheet_id}/info"

type sheetInfo struct {
	Title       string `json:"title"`
	SheetID     int64  `json:"sheetId"`
	RowCount    int64  `json:"rowCount"`
	ColumnCount int64  `json:"columnCount"`
}

type spreadsheetInfo struct {
	Title         string      `json:"title"`
	SpreadsheetID string      `json:"spreadsheetId"`
	Sheets        []sheetInfo `json:"sheets"`
}

// Register adds all resource templates to the server.
func Register(server *mcp.Server, ctr *services.Container) {
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "spreadsheet_info",
		Title:       "Spreadsheet Info",
		Description: "Title, sheet list, and per-sheet dimensions of a spreadsheet",
		MIMEType:    "application/json",
		URITemplate: SpreadsheetInfoTemplate,
	}, createSpreadsheetInfoHandler(ctr))
}

// parseSpreadsheetURI extracts the spreadsheet ID from a
// spreadsheet://{spreadsheet_id}/info URI.
func parseSpreadsheetURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(uri, "spreadsheet://")
	if !ok {
		return "", middleware.NewError(middleware.KindInvalidArgument, "unsupported resource URI %q", uri)
	}
	id, ok := strings.CutSuffix(rest, "/info")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", middleware.NewError(middleware.KindInvalidArgument,
			"unsupported resource URI %q: expected spreadsheet://{spreadsheet_id}/info", uri)
	}
	return id, nil
}

func createSpreadsheetInfoHandler(ctr *services.Container) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		id, err := parseSpreadsheetURI(req.Params.URI)
		if err != nil {
			return nil, err
		}

		ss, err := ctr.Sheets.Spreadsheets.Get(id).
			Fields("spreadsheetId,properties.title,sheets(properties(sheetId,title,gridProperties(rowCount,columnCount)))").
			Context(ctx).Do()
		if err != nil {
			return nil, middleware.HandleGoogleAPIError(err)
		}

		info := spreadsheetInfo{
			SpreadsheetID: ss.SpreadsheetId,
			Sheets:        make([]sheetInfo, 0, len(ss.Sheets)),
		}
		if info.SpreadsheetID == "" {
			info.SpreadsheetID = id
		}
		if ss.Properties != nil {
			info.Title = ss.Properties.Title
		}
		for _, sh := range ss.Sheets {
			if sh.Properties == nil {
				continue
			}
			entry := sheetInfo{Title: sh.Properties.Title, SheetID: sh.Properties.SheetId}
			if grid := sh.Properties.GridProperties; grid != nil {
				entry.RowCount = grid.RowCount
				entry.ColumnCount = grid.ColumnCount
			}
			info.Sheets = append(info.Sheets, entry)
		}

		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling spreadsheet info: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}
}
