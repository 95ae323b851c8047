package sheets

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/sheets/v4"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/a1"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/response"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

// --- get_sheet_data ---

type GetSheetDataInput struct {
	SpreadsheetID   string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet           string `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Range           string `json:"range,omitempty" jsonschema_description:"Optional cell range in A1 notation (e.g. A1:C10). Defaults to the whole sheet."`
	IncludeGridData bool   `json:"include_grid_data,omitempty" jsonschema_description:"If true returns full grid metadata (formatting, formulas, notes) instead of bare values"`
}

type GetSheetDataOutput struct {
	Values   [][]any        `json:"values,omitempty"`
	GridData map[string]any `json:"grid_data,omitempty"`
}

func createGetSheetDataHandler(ctr *services.Container) mcp.ToolHandlerFor[GetSheetDataInput, GetSheetDataOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSheetDataInput) (*mcp.CallToolResult, GetSheetDataOutput, error) {
		fullRange := a1.Qualify(input.Sheet, input.Range)

		if input.IncludeGridData {
			ss, err := ctr.Sheets.Spreadsheets.Get(input.SpreadsheetID).
				Ranges(fullRange).
				IncludeGridData(true).
				Context(ctx).Do()
			if err != nil {
				return nil, GetSheetDataOutput{}, middleware.HandleGoogleAPIError(err)
			}

			grid, err := toJSONObject(ss)
			if err != nil {
				return nil, GetSheetDataOutput{}, err
			}

			rb := response.New()
			rb.Header("Sheet Grid Data")
			rb.KeyValue("Spreadsheet", input.SpreadsheetID)
			rb.KeyValue("Range", fullRange)
			rb.KeyValue("Sheets returned", len(ss.Sheets))

			return rb.TextResult(), GetSheetDataOutput{GridData: grid}, nil
		}

		result, err := ctr.Sheets.Spreadsheets.Values.Get(input.SpreadsheetID, fullRange).Context(ctx).Do()
		if err != nil {
			return nil, GetSheetDataOutput{}, middleware.HandleGoogleAPIError(err)
		}

		rb := response.New()
		rb.Header("Sheet Data")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Range", result.Range)
		rb.KeyValue("Rows", len(result.Values))
		rb.Blank()
		for i, row := range result.Values {
			rb.Line("Row %d: %s", i+1, formatRow(row))
		}

		return rb.TextResult(), GetSheetDataOutput{Values: result.Values}, nil
	}
}

// --- get_sheet_formulas ---

type GetSheetFormulasInput struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Range         string `json:"range,omitempty" jsonschema_description:"Optional cell range in A1 notation. Defaults to the whole sheet."`
}

type GetSheetFormulasOutput struct {
	Formulas [][]any `json:"formulas"`
}

func createGetSheetFormulasHandler(ctr *services.Container) mcp.ToolHandlerFor[GetSheetFormulasInput, GetSheetFormulasOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetSheetFormulasInput) (*mcp.CallToolResult, GetSheetFormulasOutput, error) {
		fullRange := a1.Qualify(input.Sheet, input.Range)

		result, err := ctr.Sheets.Spreadsheets.Values.Get(input.SpreadsheetID, fullRange).
			ValueRenderOption("FORMULA").
			Context(ctx).Do()
		if err != nil {
			return nil, GetSheetFormulasOutput{}, middleware.HandleGoogleAPIError(err)
		}

		formulas := result.Values
		if formulas == nil {
			formulas = [][]any{}
		}

		rb := response.New()
		rb.Header("Sheet Formulas")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Range", result.Range)
		rb.KeyValue("Rows", len(formulas))
		rb.Blank()
		for i, row := range formulas {
			rb.Line("Row %d: %s", i+1, formatRow(row))
		}

		return rb.TextResult(), GetSheetFormulasOutput{Formulas: formulas}, nil
	}
}

// --- update_cells ---

type UpdateCellsInput struct {
	SpreadsheetID string  `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string  `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Range         string  `json:"range" jsonschema:"required" jsonschema_description:"Cell range in A1 notation (e.g. A1:C10)"`
	Data          [][]any `json:"data" jsonschema:"required" jsonschema_description:"2D array of cell values to write"`
}

type UpdateCellsOutput struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

func createUpdateCellsHandler(ctr *services.Container) mcp.ToolHandlerFor[UpdateCellsInput, UpdateCellsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UpdateCellsInput) (*mcp.CallToolResult, UpdateCellsOutput, error) {
		fullRange := a1.Qualify(input.Sheet, input.Range)

		vr := &sheets.ValueRange{Values: input.Data}
		result, err := ctr.Sheets.Spreadsheets.Values.Update(input.SpreadsheetID, fullRange, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		if err != nil {
			return nil, UpdateCellsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		rb := response.New()
		rb.Header("Cells Updated")
		rb.KeyValue("Spreadsheet", result.SpreadsheetId)
		rb.KeyValue("Range", result.UpdatedRange)
		rb.KeyValue("Updated rows", result.UpdatedRows)
		rb.KeyValue("Updated columns", result.UpdatedColumns)
		rb.KeyValue("Updated cells", result.UpdatedCells)

		return rb.TextResult(), UpdateCellsOutput{
			SpreadsheetID:  result.SpreadsheetId,
			UpdatedRange:   result.UpdatedRange,
			UpdatedRows:    result.UpdatedRows,
			UpdatedColumns: result.UpdatedColumns,
			UpdatedCells:   result.UpdatedCells,
		}, nil
	}
}

// --- batch_update_cells ---

type BatchUpdateCellsInput struct {
	SpreadsheetID string             `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string             `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Ranges        map[string][][]any `json:"ranges" jsonschema:"required" jsonschema_description:"Map of A1 range to 2D array of values, e.g. {\"A1:B2\": [[1, 2], [3, 4]]}"`
}

type RangeUpdateResult struct {
	Range          string `json:"range"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int64  `json:"updatedRows"`
	UpdatedColumns int64  `json:"updatedColumns"`
	UpdatedCells   int64  `json:"updatedCells"`
}

type BatchUpdateCellsOutput struct {
	SpreadsheetID     string              `json:"spreadsheetId"`
	TotalUpdatedCells int64               `json:"totalUpdatedCells"`
	Results           []RangeUpdateResult `json:"results"`
}

func createBatchUpdateCellsHandler(ctr *services.Container) mcp.ToolHandlerFor[BatchUpdateCellsInput, BatchUpdateCellsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input BatchUpdateCellsInput) (*mcp.CallToolResult, BatchUpdateCellsOutput, error) {
		if len(input.Ranges) == 0 {
			return nil, BatchUpdateCellsOutput{}, middleware.NewError(middleware.KindInvalidArgument, "ranges must contain at least one entry")
		}

		// Map iteration order is random; submit in sorted key order so the
		// provider call and its per-range replies are deterministic.
		keys := make([]string, 0, len(input.Ranges))
		for k := range input.Ranges {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		data := make([]*sheets.ValueRange, 0, len(keys))
		for _, k := range keys {
			data = append(data, &sheets.ValueRange{
				Range:  a1.Qualify(input.Sheet, k),
				Values: input.Ranges[k],
			})
		}

		result, err := ctr.Sheets.Spreadsheets.Values.BatchUpdate(input.SpreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data:             data,
		}).Context(ctx).Do()
		if err != nil {
			return nil, BatchUpdateCellsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		results := make([]RangeUpdateResult, 0, len(keys))
		for i, k := range keys {
			entry := RangeUpdateResult{Range: k}
			if i < len(result.Responses) && result.Responses[i] != nil {
				r := result.Responses[i]
				entry.UpdatedRange = r.UpdatedRange
				entry.UpdatedRows = r.UpdatedRows
				entry.UpdatedColumns = r.UpdatedColumns
				entry.UpdatedCells = r.UpdatedCells
			}
			results = append(results, entry)
		}

		rb := response.New()
		rb.Header("Batch Update Complete")
		rb.KeyValue("Spreadsheet", result.SpreadsheetId)
		rb.KeyValue("Ranges", len(keys))
		rb.KeyValue("Total updated cells", result.TotalUpdatedCells)
		rb.Blank()
		for _, r := range results {
			rb.Item("%s: %d cells", r.Range, r.UpdatedCells)
		}

		return rb.TextResult(), BatchUpdateCellsOutput{
			SpreadsheetID:     result.SpreadsheetId,
			TotalUpdatedCells: result.TotalUpdatedCells,
			Results:           results,
		}, nil
	}
}

// --- add_rows ---

type AddRowsInput struct {
	SpreadsheetID string  `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string  `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Data          [][]any `json:"data" jsonschema:"required" jsonschema_description:"2D array of rows to append after the last row with data"`
	Range         string  `json:"range,omitempty" jsonschema_description:"Optional A1 region to append within. Defaults to the whole sheet."`
}

type AddRowsOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	TableRange    string `json:"tableRange,omitempty"`
	UpdatedRange  string `json:"updatedRange,omitempty"`
	UpdatedRows   int64  `json:"updatedRows"`
	UpdatedCells  int64  `json:"updatedCells"`
}

func createAddRowsHandler(ctr *services.Container) mcp.ToolHandlerFor[AddRowsInput, AddRowsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddRowsInput) (*mcp.CallToolResult, AddRowsOutput, error) {
		fullRange := a1.Qualify(input.Sheet, input.Range)

		vr := &sheets.ValueRange{Values: input.Data}
		result, err := ctr.Sheets.Spreadsheets.Values.Append(input.SpreadsheetID, fullRange, vr).
			ValueInputOption("USER_ENTERED").
			Context(ctx).Do()
		if err != nil {
			return nil, AddRowsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := AddRowsOutput{
			SpreadsheetID: result.SpreadsheetId,
			TableRange:    result.TableRange,
		}
		if result.Updates != nil {
			out.UpdatedRange = result.Updates.UpdatedRange
			out.UpdatedRows = result.Updates.UpdatedRows
			out.UpdatedCells = result.Updates.UpdatedCells
		}

		rb := response.New()
		rb.Header("Rows Appended")
		rb.KeyValue("Spreadsheet", out.SpreadsheetID)
		rb.KeyValue("Appended to", out.UpdatedRange)
		rb.KeyValue("Rows", out.UpdatedRows)
		rb.KeyValue("Cells", out.UpdatedCells)

		return rb.TextResult(), out, nil
	}
}

// formatRow renders one row of cell values for the text block.
func formatRow(row []any) string {
	cells := make([]string, 0, len(row))
	for _, cell := range row {
		cells = append(cells, fmt.Sprintf("%v", cell))
	}
	return strings.Join(cells, " | ")
}
