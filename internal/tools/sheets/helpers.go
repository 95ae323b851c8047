package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
)

// lookupSheetID resolves a sheet title to its numeric sheet ID. Structure
// operations (insert, rename, copy) address sheets by ID while the tool
// surface addresses them by title.
func lookupSheetID(ctx context.Context, srv *sheets.Service, spreadsheetID, title string) (int64, error) {
	ss, err := srv.Spreadsheets.Get(spreadsheetID).
		Fields("sheets(properties(sheetId,title))").
		Context(ctx).Do()
	if err != nil {
		return 0, middleware.HandleGoogleAPIError(err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, nil
		}
	}
	return 0, middleware.NewError(middleware.KindNotFound, "sheet %q not found in spreadsheet %s", title, spreadsheetID)
}

// toJSONObject round-trips a typed API response into a generic JSON object
// so it can be returned as structured content without declaring the full
// provider schema.
func toJSONObject(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding provider response: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}
	return obj, nil
}

// moveToFolder relocates a Drive file into the given folder, detaching it
// from its previous parents.
func moveToFolder(ctx context.Context, drv *drive.Service, fileID, folderID string) error {
	file, err := drv.Files.Get(fileID).
		Fields("parents").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return middleware.HandleGoogleAPIError(err)
	}

	update := drv.Files.Update(fileID, &drive.File{}).
		AddParents(folderID).
		SupportsAllDrives(true).
		Fields("id, parents")
	if len(file.Parents) > 0 {
		update = update.RemoveParents(strings.Join(file.Parents, ","))
	}
	if _, err := update.Context(ctx).Do(); err != nil {
		return middleware.HandleGoogleAPIError(err)
	}
	return nil
}
