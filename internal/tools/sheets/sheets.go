// Package sheets implements the spreadsheet tool surface: value reads and
// writes, sheet structure changes, Drive-level listing and sharing, and the
// multi-item read tools.
package sheets

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/yonaka15/mcp-google-sheets/internal/pkg/ptr"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

var serviceIcons = []mcp.Icon{{
	Source:   "https://www.gstatic.com/images/branding/product/1x/sheets_2020q4_48dp.png",
	MIMEType: "image/png",
	Sizes:    []string{"48x48"},
}}

// IncludeFunc decides whether a tool is registered, given its name and
// annotations. The registry builds one from the tier and read-only config.
type IncludeFunc func(name string, annotations *mcp.ToolAnnotations) bool

// addTool registers one tool unless the include filter rejects it.
func addTool[In, Out any](server *mcp.Server, include IncludeFunc, tool *mcp.Tool, handler mcp.ToolHandlerFor[In, Out]) {
	if include != nil && !include(tool.Name, tool.Annotations) {
		return
	}
	mcp.AddTool(server, tool, handler)
}

// Register registers all spreadsheet tools (core + extended + complete)
// with the MCP server, applying the include filter per tool.
func Register(server *mcp.Server, ctr *services.Container, include IncludeFunc) {
	addTool(server, include, &mcp.Tool{
		Name:        "get_sheet_data",
		Icons:       serviceIcons,
		Description: "Read cell values from a sheet. Returns a 2D array of values, or full grid metadata when include_grid_data is set.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Sheet Data",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetSheetDataHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "update_cells",
		Icons:       serviceIcons,
		Description: "Write a 2D array of values into a range, overwriting existing cells.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Update Cells",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createUpdateCellsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "add_rows",
		Icons:       serviceIcons,
		Description: "Append rows after the last row with data in a sheet.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Add Rows",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createAddRowsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "list_sheets",
		Icons:       serviceIcons,
		Description: "List the sheet tab names in a spreadsheet, in spreadsheet order.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Sheets",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListSheetsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "list_spreadsheets",
		Icons:       serviceIcons,
		Description: "List spreadsheets in the configured Drive folder, or in My Drive when no folder is configured.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Spreadsheets",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createListSpreadsheetsHandler(ctr))

	// --- Extended tools ---

	addTool(server, include, &mcp.Tool{
		Name:        "get_sheet_formulas",
		Icons:       serviceIcons,
		Description: "Read cell formulas from a sheet instead of computed values.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Sheet Formulas",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetSheetFormulasHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "batch_update_cells",
		Icons:       serviceIcons,
		Description: "Write multiple ranges in one batch call. Takes a map of A1 range to 2D value array.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Batch Update Cells",
			IdempotentHint: true,
			OpenWorldHint:  ptr.Bool(true),
		},
	}, createBatchUpdateCellsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "add_columns",
		Icons:       serviceIcons,
		Description: "Insert empty columns into a sheet at a given position.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Add Columns",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createAddColumnsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "insert_empty_rows",
		Icons:       serviceIcons,
		Description: "Insert empty rows into a sheet at a given position.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Insert Empty Rows",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createInsertEmptyRowsHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "create_sheet",
		Icons:       serviceIcons,
		Description: "Create a new sheet tab in an existing spreadsheet.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Create Sheet Tab",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createCreateSheetHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "copy_sheet",
		Icons:       serviceIcons,
		Description: "Copy a sheet within a spreadsheet or into another spreadsheet, optionally renaming the copy.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Copy Sheet",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createCopySheetHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "rename_sheet",
		Icons:       serviceIcons,
		Description: "Rename a sheet tab in place.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Rename Sheet",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createRenameSheetHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "create_spreadsheet",
		Icons:       serviceIcons,
		Description: "Create a new spreadsheet, placed in the configured Drive folder when one is set.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Create Spreadsheet",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createCreateSpreadsheetHandler(ctr))

	// --- Complete tools ---

	addTool(server, include, &mcp.Tool{
		Name:        "share_spreadsheet",
		Icons:       serviceIcons,
		Description: "Share a spreadsheet with multiple recipients, granting each independently. Reports per-recipient successes and failures.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Share Spreadsheet",
			OpenWorldHint: ptr.Bool(true),
		},
	}, createShareSpreadsheetHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "get_multiple_sheet_data",
		Icons:       serviceIcons,
		Description: "Read several ranges across spreadsheets in one call. Each query succeeds or fails independently.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Multiple Sheet Data",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetMultipleSheetDataHandler(ctr))

	addTool(server, include, &mcp.Tool{
		Name:        "get_multiple_spreadsheet_summary",
		Icons:       serviceIcons,
		Description: "Summarize several spreadsheets: title, sheet names, headers, and the first few rows of each sheet.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Get Multiple Spreadsheet Summary",
			ReadOnlyHint:  true,
			OpenWorldHint: ptr.Bool(true),
		},
	}, createGetMultipleSpreadsheetSummaryHandler(ctr))
}
