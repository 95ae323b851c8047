package sheets

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/sheets/v4"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/response"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

// --- add_columns ---

type AddColumnsInput struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Count         int64  `json:"count" jsonschema:"required" jsonschema_description:"Number of columns to insert"`
	StartColumn   int64  `json:"start_column,omitempty" jsonschema_description:"Column index to insert at (0-based). Default 0 inserts at the far left."`
}

type AddColumnsOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Sheet         string `json:"sheet"`
	StartColumn   int64  `json:"start_column"`
	Count         int64  `json:"count"`
}

func createAddColumnsHandler(ctr *services.Container) mcp.ToolHandlerFor[AddColumnsInput, AddColumnsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AddColumnsInput) (*mcp.CallToolResult, AddColumnsOutput, error) {
		id, err := lookupSheetID(ctx, ctr.Sheets, input.SpreadsheetID, input.Sheet)
		if err != nil {
			return nil, AddColumnsOutput{}, err
		}

		if err := insertDimension(ctx, ctr.Sheets, input.SpreadsheetID, id, "COLUMNS", input.StartColumn, input.Count); err != nil {
			return nil, AddColumnsOutput{}, err
		}

		rb := response.New()
		rb.Header("Columns Inserted")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Sheet", input.Sheet)
		rb.KeyValue("Start column", input.StartColumn)
		rb.KeyValue("Count", input.Count)

		return rb.TextResult(), AddColumnsOutput{
			SpreadsheetID: input.SpreadsheetID,
			Sheet:         input.Sheet,
			StartColumn:   input.StartColumn,
			Count:         input.Count,
		}, nil
	}
}

// --- insert_empty_rows ---

type InsertEmptyRowsInput struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet         string `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Count         int64  `json:"count" jsonschema:"required" jsonschema_description:"Number of rows to insert"`
	StartRow      int64  `json:"start_row,omitempty" jsonschema_description:"Row index to insert at (0-based). Default 0 inserts at the top."`
}

type InsertEmptyRowsOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Sheet         string `json:"sheet"`
	StartRow      int64  `json:"start_row"`
	Count         int64  `json:"count"`
}

func createInsertEmptyRowsHandler(ctr *services.Container) mcp.ToolHandlerFor[InsertEmptyRowsInput, InsertEmptyRowsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input InsertEmptyRowsInput) (*mcp.CallToolResult, InsertEmptyRowsOutput, error) {
		id, err := lookupSheetID(ctx, ctr.Sheets, input.SpreadsheetID, input.Sheet)
		if err != nil {
			return nil, InsertEmptyRowsOutput{}, err
		}

		if err := insertDimension(ctx, ctr.Sheets, input.SpreadsheetID, id, "ROWS", input.StartRow, input.Count); err != nil {
			return nil, InsertEmptyRowsOutput{}, err
		}

		rb := response.New()
		rb.Header("Rows Inserted")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Sheet", input.Sheet)
		rb.KeyValue("Start row", input.StartRow)
		rb.KeyValue("Count", input.Count)

		return rb.TextResult(), InsertEmptyRowsOutput{
			SpreadsheetID: input.SpreadsheetID,
			Sheet:         input.Sheet,
			StartRow:      input.StartRow,
			Count:         input.Count,
		}, nil
	}
}

// insertDimension inserts count empty rows or columns at start. Inherited
// formatting comes from the preceding row/column, which only exists when
// inserting past index 0.
func insertDimension(ctx context.Context, srv *sheets.Service, spreadsheetID string, sheetID int64, dimension string, start, count int64) error {
	_, err := srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  dimension,
					StartIndex: start,
					EndIndex:   start + count,
				},
				InheritFromBefore: start > 0,
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return middleware.HandleGoogleAPIError(err)
	}
	return nil
}

// --- list_sheets ---

type ListSheetsInput struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
}

type ListSheetsOutput struct {
	Sheets []string `json:"sheets"`
}

func createListSheetsHandler(ctr *services.Container) mcp.ToolHandlerFor[ListSheetsInput, ListSheetsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListSheetsInput) (*mcp.CallToolResult, ListSheetsOutput, error) {
		ss, err := ctr.Sheets.Spreadsheets.Get(input.SpreadsheetID).
			Fields("sheets(properties(title))").
			Context(ctx).Do()
		if err != nil {
			return nil, ListSheetsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		names := make([]string, 0, len(ss.Sheets))
		for _, s := range ss.Sheets {
			if s.Properties != nil {
				names = append(names, s.Properties.Title)
			}
		}

		rb := response.New()
		rb.Header("Sheets")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Count", len(names))
		rb.Blank()
		for _, name := range names {
			rb.Item("%s", name)
		}

		return rb.TextResult(), ListSheetsOutput{Sheets: names}, nil
	}
}

// --- create_sheet ---

type CreateSheetInput struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Title         string `json:"title" jsonschema:"required" jsonschema_description:"Title for the new sheet tab"`
}

type CreateSheetOutput struct {
	SheetID       int64  `json:"sheetId"`
	Title         string `json:"title"`
	Index         int64  `json:"index"`
	SpreadsheetID string `json:"spreadsheetId"`
}

func createCreateSheetHandler(ctr *services.Container) mcp.ToolHandlerFor[CreateSheetInput, CreateSheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateSheetInput) (*mcp.CallToolResult, CreateSheetOutput, error) {
		result, err := ctr.Sheets.Spreadsheets.BatchUpdate(input.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: input.Title},
				},
			}},
		}).Context(ctx).Do()
		if err != nil {
			return nil, CreateSheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		if len(result.Replies) == 0 || result.Replies[0].AddSheet == nil || result.Replies[0].AddSheet.Properties == nil {
			return nil, CreateSheetOutput{}, middleware.NewError(middleware.KindProvider, "provider returned no properties for the new sheet")
		}
		props := result.Replies[0].AddSheet.Properties

		rb := response.New()
		rb.Header("Sheet Created")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Title", props.Title)
		rb.KeyValue("Sheet ID", props.SheetId)
		rb.KeyValue("Index", props.Index)

		return rb.TextResult(), CreateSheetOutput{
			SheetID:       props.SheetId,
			Title:         props.Title,
			Index:         props.Index,
			SpreadsheetID: input.SpreadsheetID,
		}, nil
	}
}

// --- copy_sheet ---

type CopySheetInput struct {
	SrcSpreadsheet string `json:"src_spreadsheet" jsonschema:"required" jsonschema_description:"Source spreadsheet ID"`
	SrcSheet       string `json:"src_sheet" jsonschema:"required" jsonschema_description:"Name of the sheet to copy"`
	DstSpreadsheet string `json:"dst_spreadsheet,omitempty" jsonschema_description:"Destination spreadsheet ID. Defaults to the source spreadsheet."`
	DstSheet       string `json:"dst_sheet,omitempty" jsonschema_description:"Desired title for the copy. Defaults to the provider-generated title."`
}

type CopySheetOutput struct {
	SheetID       int64  `json:"sheetId"`
	Title         string `json:"title"`
	SpreadsheetID string `json:"spreadsheetId"`
	Warning       string `json:"warning,omitempty"`
}

func createCopySheetHandler(ctr *services.Container) mcp.ToolHandlerFor[CopySheetInput, CopySheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CopySheetInput) (*mcp.CallToolResult, CopySheetOutput, error) {
		dst := input.DstSpreadsheet
		if dst == "" {
			dst = input.SrcSpreadsheet
		}

		srcID, err := lookupSheetID(ctx, ctr.Sheets, input.SrcSpreadsheet, input.SrcSheet)
		if err != nil {
			return nil, CopySheetOutput{}, err
		}

		copied, err := ctr.Sheets.Spreadsheets.Sheets.CopyTo(input.SrcSpreadsheet, srcID, &sheets.CopySheetToAnotherSpreadsheetRequest{
			DestinationSpreadsheetId: dst,
		}).Context(ctx).Do()
		if err != nil {
			return nil, CopySheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := CopySheetOutput{
			SheetID:       copied.SheetId,
			Title:         copied.Title,
			SpreadsheetID: dst,
		}

		// The copy lands with a provider-generated title ("Copy of ...").
		// Renaming is a second provider step; if it fails the copy still
		// exists, so report the generated title instead of failing.
		if input.DstSheet != "" && copied.Title != input.DstSheet {
			if err := renameSheetByID(ctx, ctr.Sheets, dst, copied.SheetId, input.DstSheet); err != nil {
				out.Warning = fmt.Sprintf("sheet copied as %q but rename to %q failed: %v", copied.Title, input.DstSheet, err)
			} else {
				out.Title = input.DstSheet
			}
		}

		rb := response.New()
		rb.Header("Sheet Copied")
		rb.KeyValue("Source", fmt.Sprintf("%s / %s", input.SrcSpreadsheet, input.SrcSheet))
		rb.KeyValue("Destination", out.SpreadsheetID)
		rb.KeyValue("Title", out.Title)
		rb.KeyValue("Sheet ID", out.SheetID)
		if out.Warning != "" {
			rb.Blank()
			rb.Line("Warning: %s", out.Warning)
		}

		return rb.TextResult(), out, nil
	}
}

// --- rename_sheet ---

type RenameSheetInput struct {
	Spreadsheet string `json:"spreadsheet" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet (found in the URL)"`
	Sheet       string `json:"sheet" jsonschema:"required" jsonschema_description:"Current name of the sheet"`
	NewName     string `json:"new_name" jsonschema:"required" jsonschema_description:"New name for the sheet"`
}

type RenameSheetOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	SheetID       int64  `json:"sheetId"`
	Title         string `json:"title"`
}

func createRenameSheetHandler(ctr *services.Container) mcp.ToolHandlerFor[RenameSheetInput, RenameSheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RenameSheetInput) (*mcp.CallToolResult, RenameSheetOutput, error) {
		id, err := lookupSheetID(ctx, ctr.Sheets, input.Spreadsheet, input.Sheet)
		if err != nil {
			return nil, RenameSheetOutput{}, err
		}

		if err := renameSheetByID(ctx, ctr.Sheets, input.Spreadsheet, id, input.NewName); err != nil {
			return nil, RenameSheetOutput{}, err
		}

		rb := response.New()
		rb.Header("Sheet Renamed")
		rb.KeyValue("Spreadsheet", input.Spreadsheet)
		rb.KeyValue("From", input.Sheet)
		rb.KeyValue("To", input.NewName)

		return rb.TextResult(), RenameSheetOutput{
			SpreadsheetID: input.Spreadsheet,
			SheetID:       id,
			Title:         input.NewName,
		}, nil
	}
}

// renameSheetByID sets a sheet's title via a batch update.
func renameSheetByID(ctx context.Context, srv *sheets.Service, spreadsheetID string, sheetID int64, title string) error {
	_, err := srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					Title:   title,
				},
				Fields: "title",
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return middleware.HandleGoogleAPIError(err)
	}
	return nil
}
