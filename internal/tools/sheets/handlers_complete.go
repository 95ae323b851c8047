package sheets

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/a1"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/fanout"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/response"
	"github.com/yonaka15/mcp-google-sheets/internal/pkg/validate"
	"github.com/yonaka15/mcp-google-sheets/internal/services"
)

// --- list_spreadsheets ---

type ListSpreadsheetsInput struct{}

type SpreadsheetEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type ListSpreadsheetsOutput struct {
	Spreadsheets []SpreadsheetEntry `json:"spreadsheets"`
}

func createListSpreadsheetsHandler(ctr *services.Container) mcp.ToolHandlerFor[ListSpreadsheetsInput, ListSpreadsheetsOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListSpreadsheetsInput) (*mcp.CallToolResult, ListSpreadsheetsOutput, error) {
		q := "mimeType='application/vnd.google-apps.spreadsheet' and trashed=false"
		call := ctr.Drive.Files.List().
			Spaces("drive").
			Fields("files(id, name)").
			OrderBy("modifiedTime desc")
		if ctr.FolderID != "" {
			if err := validate.DriveID(ctr.FolderID); err != nil {
				return nil, ListSpreadsheetsOutput{}, middleware.NewError(middleware.KindInvalidArgument, "DRIVE_FOLDER_ID: %v", err)
			}
			q += fmt.Sprintf(" and '%s' in parents", ctr.FolderID)
			call = call.SupportsAllDrives(true).IncludeItemsFromAllDrives(true)
		}

		result, err := call.Q(q).Context(ctx).Do()
		if err != nil {
			return nil, ListSpreadsheetsOutput{}, middleware.HandleGoogleAPIError(err)
		}

		entries := make([]SpreadsheetEntry, 0, len(result.Files))
		rb := response.New()
		rb.Header("Spreadsheets")
		rb.KeyValue("Count", len(result.Files))
		rb.Blank()
		for _, f := range result.Files {
			entries = append(entries, SpreadsheetEntry{ID: f.Id, Title: f.Name})
			rb.Item("%s (ID: %s)", f.Name, f.Id)
		}

		return rb.TextResult(), ListSpreadsheetsOutput{Spreadsheets: entries}, nil
	}
}

// --- create_spreadsheet ---

type CreateSpreadsheetInput struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Title for the new spreadsheet"`
}

type CreateSpreadsheetOutput struct {
	SpreadsheetID string `json:"spreadsheetId"`
	Title         string `json:"title"`
	Folder        string `json:"folder"`
	Warning       string `json:"warning,omitempty"`
}

func createCreateSpreadsheetHandler(ctr *services.Container) mcp.ToolHandlerFor[CreateSpreadsheetInput, CreateSpreadsheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CreateSpreadsheetInput) (*mcp.CallToolResult, CreateSpreadsheetOutput, error) {
		created, err := ctr.Sheets.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: input.Title},
		}).Fields("spreadsheetId,properties,sheets").Context(ctx).Do()
		if err != nil {
			return nil, CreateSpreadsheetOutput{}, middleware.HandleGoogleAPIError(err)
		}

		out := CreateSpreadsheetOutput{
			SpreadsheetID: created.SpreadsheetId,
			Title:         input.Title,
			Folder:        "root",
		}
		if created.Properties != nil && created.Properties.Title != "" {
			out.Title = created.Properties.Title
		}

		// The Sheets API always creates in the Drive root; relocation is a
		// second step. A failed move leaves a usable spreadsheet behind, so
		// report it as a warning rather than failing the call.
		if ctr.FolderID != "" {
			if err := moveToFolder(ctx, ctr.Drive, created.SpreadsheetId, ctr.FolderID); err != nil {
				out.Warning = fmt.Sprintf("spreadsheet created but not moved into folder %s: %v", ctr.FolderID, err)
			} else {
				out.Folder = ctr.FolderID
			}
		}

		rb := response.New()
		rb.Header("Spreadsheet Created")
		rb.KeyValue("Title", out.Title)
		rb.KeyValue("ID", out.SpreadsheetID)
		rb.KeyValue("Folder", out.Folder)
		if out.Warning != "" {
			rb.Blank()
			rb.Line("Warning: %s", out.Warning)
		}

		return rb.TextResult(), out, nil
	}
}

// --- share_spreadsheet ---

type ShareRecipient struct {
	EmailAddress string `json:"email_address" jsonschema:"required" jsonschema_description:"Recipient email address"`
	Role         string `json:"role,omitempty" jsonschema_description:"Permission role: reader, commenter, or writer (default writer)"`
}

type ShareSpreadsheetInput struct {
	SpreadsheetID    string           `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet to share"`
	Recipients       []ShareRecipient `json:"recipients" jsonschema:"required" jsonschema_description:"List of recipients, each with email_address and an optional role"`
	SendNotification *bool            `json:"send_notification,omitempty" jsonschema_description:"Whether to send notification emails (default true)"`
}

type ShareSuccess struct {
	EmailAddress string `json:"email_address"`
	Role         string `json:"role"`
	PermissionID string `json:"permissionId"`
}

type ShareFailure struct {
	EmailAddress string `json:"email_address"`
	Error        string `json:"error"`
}

type ShareSpreadsheetOutput struct {
	Successes []ShareSuccess `json:"successes"`
	Failures  []ShareFailure `json:"failures"`
}

func createShareSpreadsheetHandler(ctr *services.Container) mcp.ToolHandlerFor[ShareSpreadsheetInput, ShareSpreadsheetOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ShareSpreadsheetInput) (*mcp.CallToolResult, ShareSpreadsheetOutput, error) {
		if len(input.Recipients) == 0 {
			return nil, ShareSpreadsheetOutput{}, middleware.NewError(middleware.KindInvalidArgument, "recipients must contain at least one entry")
		}

		sendNotification := true
		if input.SendNotification != nil {
			sendNotification = *input.SendNotification
		}

		grants := fanout.Run(ctx, input.Recipients, func(ctx context.Context, r ShareRecipient) (ShareSuccess, error) {
			role := r.Role
			if role == "" {
				role = "writer"
			}
			if err := validate.Email(r.EmailAddress); err != nil {
				return ShareSuccess{}, middleware.NewError(middleware.KindInvalidArgument, "%v", err)
			}
			if err := validate.Role(role); err != nil {
				return ShareSuccess{}, middleware.NewError(middleware.KindInvalidArgument, "%v", err)
			}

			created, err := ctr.Drive.Permissions.Create(input.SpreadsheetID, &drive.Permission{
				Type:         "user",
				Role:         role,
				EmailAddress: r.EmailAddress,
			}).
				SendNotificationEmail(sendNotification).
				SupportsAllDrives(true).
				Fields("id").
				Context(ctx).Do()
			if err != nil {
				return ShareSuccess{}, middleware.HandleGoogleAPIError(err)
			}

			return ShareSuccess{EmailAddress: r.EmailAddress, Role: role, PermissionID: created.Id}, nil
		})

		out := ShareSpreadsheetOutput{
			Successes: make([]ShareSuccess, 0, len(grants)),
			Failures:  make([]ShareFailure, 0),
		}
		for i, g := range grants {
			if g.Err != nil {
				out.Failures = append(out.Failures, ShareFailure{
					EmailAddress: input.Recipients[i].EmailAddress,
					Error:        g.Err.Error(),
				})
				continue
			}
			out.Successes = append(out.Successes, g.Value)
		}

		rb := response.New()
		rb.Header("Spreadsheet Shared")
		rb.KeyValue("Spreadsheet", input.SpreadsheetID)
		rb.KeyValue("Granted", len(out.Successes))
		rb.KeyValue("Failed", len(out.Failures))
		if len(out.Successes) > 0 {
			rb.Blank()
			rb.Section("Granted")
			for _, s := range out.Successes {
				rb.Item("%s as %s", s.EmailAddress, s.Role)
			}
		}
		if len(out.Failures) > 0 {
			rb.Blank()
			rb.Section("Failed")
			for _, f := range out.Failures {
				rb.Item("%s: %s", f.EmailAddress, f.Error)
			}
		}

		return rb.TextResult(), out, nil
	}
}

// --- get_multiple_sheet_data ---

type SheetDataQuery struct {
	SpreadsheetID string `json:"spreadsheet_id" jsonschema:"required" jsonschema_description:"The ID of the spreadsheet"`
	Sheet         string `json:"sheet" jsonschema:"required" jsonschema_description:"The name of the sheet"`
	Range         string `json:"range" jsonschema:"required" jsonschema_description:"Cell range in A1 notation (e.g. A1:C10)"`
}

type SheetDataResult struct {
	SpreadsheetID string  `json:"spreadsheet_id"`
	Sheet         string  `json:"sheet"`
	Range         string  `json:"range"`
	Data          [][]any `json:"data,omitempty"`
	Error         string  `json:"error,omitempty"`
}

type GetMultipleSheetDataInput struct {
	Queries []SheetDataQuery `json:"queries" jsonschema:"required" jsonschema_description:"List of queries, each with spreadsheet_id, sheet, and range"`
}

type GetMultipleSheetDataOutput struct {
	Results []SheetDataResult `json:"results"`
}

func createGetMultipleSheetDataHandler(ctr *services.Container) mcp.ToolHandlerFor[GetMultipleSheetDataInput, GetMultipleSheetDataOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetMultipleSheetDataInput) (*mcp.CallToolResult, GetMultipleSheetDataOutput, error) {
		if len(input.Queries) == 0 {
			return nil, GetMultipleSheetDataOutput{}, middleware.NewError(middleware.KindInvalidArgument, "queries must contain at least one entry")
		}

		fetched := fanout.Run(ctx, input.Queries, func(ctx context.Context, q SheetDataQuery) ([][]any, error) {
			if q.SpreadsheetID == "" || q.Sheet == "" || q.Range == "" {
				return nil, middleware.NewError(middleware.KindInvalidArgument, "spreadsheet_id, sheet, and range are all required")
			}
			result, err := ctr.Sheets.Spreadsheets.Values.Get(q.SpreadsheetID, a1.Qualify(q.Sheet, q.Range)).Context(ctx).Do()
			if err != nil {
				return nil, middleware.HandleGoogleAPIError(err)
			}
			values := result.Values
			if values == nil {
				values = [][]any{}
			}
			return values, nil
		})

		results := make([]SheetDataResult, 0, len(fetched))
		for i, f := range fetched {
			q := input.Queries[i]
			entry := SheetDataResult{
				SpreadsheetID: q.SpreadsheetID,
				Sheet:         q.Sheet,
				Range:         q.Range,
			}
			if f.Err != nil {
				entry.Error = f.Err.Error()
			} else {
				entry.Data = f.Value
			}
			results = append(results, entry)
		}

		rb := response.New()
		rb.Header("Multiple Sheet Data")
		rb.KeyValue("Queries", len(results))
		rb.Blank()
		for _, r := range results {
			if r.Error != "" {
				rb.Item("%s / %s!%s: error: %s", r.SpreadsheetID, r.Sheet, r.Range, r.Error)
				continue
			}
			rb.Item("%s / %s!%s: %d rows", r.SpreadsheetID, r.Sheet, r.Range, len(r.Data))
		}

		return rb.TextResult(), GetMultipleSheetDataOutput{Results: results}, nil
	}
}

// --- get_multiple_spreadsheet_summary ---

type GetMultipleSpreadsheetSummaryInput struct {
	SpreadsheetIDs []string `json:"spreadsheet_ids" jsonschema:"required" jsonschema_description:"List of spreadsheet IDs to summarize"`
	RowsToFetch    int64    `json:"rows_to_fetch,omitempty" jsonschema_description:"Number of rows to fetch per sheet, headers included (default 5)"`
}

type SheetSummary struct {
	Title     string  `json:"title"`
	Headers   []any   `json:"headers"`
	FirstRows [][]any `json:"first_rows"`
	Error     string  `json:"error,omitempty"`
}

type SpreadsheetSummary struct {
	SpreadsheetID string         `json:"spreadsheet_id"`
	Title         string         `json:"title,omitempty"`
	Sheets        []SheetSummary `json:"sheets"`
	Error         string         `json:"error,omitempty"`
}

type GetMultipleSpreadsheetSummaryOutput struct {
	Summaries []SpreadsheetSummary `json:"summaries"`
}

func createGetMultipleSpreadsheetSummaryHandler(ctr *services.Container) mcp.ToolHandlerFor[GetMultipleSpreadsheetSummaryInput, GetMultipleSpreadsheetSummaryOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetMultipleSpreadsheetSummaryInput) (*mcp.CallToolResult, GetMultipleSpreadsheetSummaryOutput, error) {
		if len(input.SpreadsheetIDs) == 0 {
			return nil, GetMultipleSpreadsheetSummaryOutput{}, middleware.NewError(middleware.KindInvalidArgument, "spreadsheet_ids must contain at least one entry")
		}

		rows := input.RowsToFetch
		if rows < 1 {
			rows = 5
		}

		summarized := fanout.Run(ctx, input.SpreadsheetIDs, func(ctx context.Context, id string) (SpreadsheetSummary, error) {
			return summarizeSpreadsheet(ctx, ctr.Sheets, id, rows)
		})

		summaries := make([]SpreadsheetSummary, 0, len(summarized))
		for i, s := range summarized {
			if s.Err != nil {
				summaries = append(summaries, SpreadsheetSummary{
					SpreadsheetID: input.SpreadsheetIDs[i],
					Sheets:        []SheetSummary{},
					Error:         s.Err.Error(),
				})
				continue
			}
			summaries = append(summaries, s.Value)
		}

		rb := response.New()
		rb.Header("Spreadsheet Summaries")
		rb.KeyValue("Spreadsheets", len(summaries))
		rb.Blank()
		for _, s := range summaries {
			if s.Error != "" {
				rb.Item("%s: error: %s", s.SpreadsheetID, s.Error)
				continue
			}
			rb.Item("%s (%s): %d sheets", s.Title, s.SpreadsheetID, len(s.Sheets))
			for _, sh := range s.Sheets {
				if sh.Error != "" {
					rb.Line("    %s: %s", sh.Title, sh.Error)
					continue
				}
				rb.Line("    %s: %d header cells, %d preview rows", sh.Title, len(sh.Headers), len(sh.FirstRows))
			}
		}

		return rb.TextResult(), GetMultipleSpreadsheetSummaryOutput{Summaries: summaries}, nil
	}
}

// summarizeSpreadsheet fetches the title and a small per-sheet preview. Row 1
// is reported as headers by convention; a sheet whose preview fetch fails
// carries its own error so the other sheets still summarize.
func summarizeSpreadsheet(ctx context.Context, srv *sheets.Service, spreadsheetID string, rows int64) (SpreadsheetSummary, error) {
	ss, err := srv.Spreadsheets.Get(spreadsheetID).
		Fields("properties.title,sheets(properties(title,sheetId))").
		Context(ctx).Do()
	if err != nil {
		return SpreadsheetSummary{}, middleware.HandleGoogleAPIError(err)
	}

	summary := SpreadsheetSummary{
		SpreadsheetID: spreadsheetID,
		Sheets:        make([]SheetSummary, 0, len(ss.Sheets)),
	}
	if ss.Properties != nil {
		summary.Title = ss.Properties.Title
	}

	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		sheetSummary := SheetSummary{
			Title:     sh.Properties.Title,
			Headers:   []any{},
			FirstRows: [][]any{},
		}

		preview := a1.FirstRows(sh.Properties.Title, rows)
		values, err := srv.Spreadsheets.Values.Get(spreadsheetID, preview).Context(ctx).Do()
		if err != nil {
			sheetSummary.Error = fmt.Sprintf("fetching %s: %v", preview, middleware.HandleGoogleAPIError(err))
			summary.Sheets = append(summary.Sheets, sheetSummary)
			continue
		}

		if len(values.Values) > 0 {
			sheetSummary.Headers = values.Values[0]
			if len(values.Values) > 1 {
				sheetSummary.FirstRows = values.Values[1:]
			}
		}
		summary.Sheets = append(summary.Sheets, sheetSummary)
	}

	return summary, nil
}
