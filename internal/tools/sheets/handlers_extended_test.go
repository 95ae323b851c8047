package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"google.golang.org/api/sheets/v4"

	"github.com/yonaka15/mcp-google-sheets/internal/middleware"
)

// metadataHandler serves the sheet list for lookupSheetID calls and captures
// any batch update request.
type metadataHandler struct {
	t          *testing.T
	sheets     []*sheets.SheetProperties
	batchReply *sheets.BatchUpdateSpreadsheetResponse

	gotBatch *sheets.BatchUpdateSpreadsheetRequest
}

func (h *metadataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		list := make([]*sheets.Sheet, 0, len(h.sheets))
		for _, p := range h.sheets {
			list = append(list, &sheets.Sheet{Properties: p})
		}
		writeJSON(h.t, w, &sheets.Spreadsheet{Sheets: list})
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		h.gotBatch = &sheets.BatchUpdateSpreadsheetRequest{}
		if err := json.NewDecoder(r.Body).Decode(h.gotBatch); err != nil {
			h.t.Errorf("decoding batch update: %v", err)
		}
		reply := h.batchReply
		if reply == nil {
			reply = &sheets.BatchUpdateSpreadsheetResponse{SpreadsheetId: "ss-1"}
		}
		writeJSON(h.t, w, reply)
	default:
		h.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		writeAPIError(w, 500, "unexpected request")
	}
}

func TestAddColumns(t *testing.T) {
	tests := []struct {
		name        string
		start       int64
		count       int64
		wantInherit bool
	}{
		{name: "at the left edge", start: 0, count: 2, wantInherit: false},
		{name: "after an existing column", start: 3, count: 1, wantInherit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
				{SheetId: 7, Title: "Data"},
			}}
			ctr := newTestContainer(t, h, "")

			handler := createAddColumnsHandler(ctr)
			_, out, err := handler(context.Background(), nil, AddColumnsInput{
				SpreadsheetID: "ss-1", Sheet: "Data", Count: tt.count, StartColumn: tt.start,
			})
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if h.gotBatch == nil || len(h.gotBatch.Requests) != 1 {
				t.Fatal("expected one batch update request")
			}
			ins := h.gotBatch.Requests[0].InsertDimension
			if ins == nil {
				t.Fatal("request is not an InsertDimension")
			}
			if ins.Range.Dimension != "COLUMNS" {
				t.Errorf("dimension = %q, want COLUMNS", ins.Range.Dimension)
			}
			if ins.Range.SheetId != 7 {
				t.Errorf("sheetId = %d, want 7", ins.Range.SheetId)
			}
			if ins.Range.StartIndex != tt.start || ins.Range.EndIndex != tt.start+tt.count {
				t.Errorf("range = [%d, %d), want [%d, %d)", ins.Range.StartIndex, ins.Range.EndIndex, tt.start, tt.start+tt.count)
			}
			if ins.InheritFromBefore != tt.wantInherit {
				t.Errorf("inheritFromBefore = %v, want %v", ins.InheritFromBefore, tt.wantInherit)
			}
			if out.Count != tt.count || out.StartColumn != tt.start {
				t.Errorf("output = %+v", out)
			}
		})
	}
}

func TestAddColumnsSheetNotFound(t *testing.T) {
	h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
		{SheetId: 7, Title: "Data"},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createAddColumnsHandler(ctr)
	_, _, err := handler(context.Background(), nil, AddColumnsInput{
		SpreadsheetID: "ss-1", Sheet: "Nope", Count: 1,
	})
	if err == nil {
		t.Fatal("expected error for unknown sheet")
	}
	if kind := middleware.KindOf(err); kind != middleware.KindNotFound {
		t.Errorf("error kind = %v, want %v", kind, middleware.KindNotFound)
	}
	if !strings.Contains(err.Error(), "Nope") {
		t.Errorf("error %q does not name the missing sheet", err)
	}
	if h.gotBatch != nil {
		t.Error("batch update was issued despite failed lookup")
	}
}

func TestInsertEmptyRows(t *testing.T) {
	h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
		{SheetId: 3, Title: "Log"},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createInsertEmptyRowsHandler(ctr)
	_, out, err := handler(context.Background(), nil, InsertEmptyRowsInput{
		SpreadsheetID: "ss-1", Sheet: "Log", Count: 4, StartRow: 2,
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	ins := h.gotBatch.Requests[0].InsertDimension
	if ins.Range.Dimension != "ROWS" {
		t.Errorf("dimension = %q, want ROWS", ins.Range.Dimension)
	}
	if ins.Range.StartIndex != 2 || ins.Range.EndIndex != 6 {
		t.Errorf("range = [%d, %d), want [2, 6)", ins.Range.StartIndex, ins.Range.EndIndex)
	}
	if !ins.InheritFromBefore {
		t.Error("inheritFromBefore = false, want true for start > 0")
	}
	if out.StartRow != 2 || out.Count != 4 {
		t.Errorf("output = %+v", out)
	}
}

func TestListSheets(t *testing.T) {
	h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
		{SheetId: 0, Title: "First"},
		{SheetId: 9, Title: "Second"},
		{SheetId: 4, Title: "Third"},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createListSheetsHandler(ctr)
	result, out, err := handler(context.Background(), nil, ListSheetsInput{SpreadsheetID: "ss-1"})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	want := []string{"First", "Second", "Third"}
	if len(out.Sheets) != len(want) {
		t.Fatalf("Sheets = %v, want %v", out.Sheets, want)
	}
	for i := range want {
		if out.Sheets[i] != want[i] {
			t.Errorf("Sheets[%d] = %q, want %q", i, out.Sheets[i], want[i])
		}
	}
	if text := textContent(t, result); !strings.Contains(text, "Second") {
		t.Errorf("text missing sheet name:\n%s", text)
	}
}

func TestCreateSheet(t *testing.T) {
	h := &metadataHandler{t: t, batchReply: &sheets.BatchUpdateSpreadsheetResponse{
		SpreadsheetId: "ss-1",
		Replies: []*sheets.Response{{
			AddSheet: &sheets.AddSheetResponse{
				Properties: &sheets.SheetProperties{SheetId: 42, Title: "Budget", Index: 2},
			},
		}},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createCreateSheetHandler(ctr)
	_, out, err := handler(context.Background(), nil, CreateSheetInput{
		SpreadsheetID: "ss-1", Title: "Budget",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	add := h.gotBatch.Requests[0].AddSheet
	if add == nil || add.Properties.Title != "Budget" {
		t.Fatalf("batch request = %+v, want AddSheet with title Budget", h.gotBatch.Requests[0])
	}
	if out.SheetID != 42 || out.Title != "Budget" || out.Index != 2 || out.SpreadsheetID != "ss-1" {
		t.Errorf("output = %+v", out)
	}
}

func TestCreateSheetDuplicateTitle(t *testing.T) {
	ctr := newTestContainer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, 400, `Invalid requests[0].addSheet: A sheet with the name "Budget" already exists. Please enter another name.`)
	}), "")

	handler := createCreateSheetHandler(ctr)
	_, _, err := handler(context.Background(), nil, CreateSheetInput{
		SpreadsheetID: "ss-1", Title: "Budget",
	})
	if err == nil {
		t.Fatal("expected error for duplicate title")
	}
	if kind := middleware.KindOf(err); kind != middleware.KindConflict {
		t.Errorf("error kind = %v, want %v", kind, middleware.KindConflict)
	}
}

// copyHandler fakes the source metadata, the copyTo call, and the rename
// batch update on the destination spreadsheet.
type copyHandler struct {
	t         *testing.T
	copyReply *sheets.SheetProperties
	renameErr int

	gotCopy   *sheets.CopySheetToAnotherSpreadsheetRequest
	gotRename *sheets.BatchUpdateSpreadsheetRequest
}

func (h *copyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet:
		writeJSON(h.t, w, &sheets.Spreadsheet{Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{SheetId: 7, Title: "Data"}},
		}})
	case strings.HasSuffix(r.URL.Path, ":copyTo"):
		h.gotCopy = &sheets.CopySheetToAnotherSpreadsheetRequest{}
		if err := json.NewDecoder(r.Body).Decode(h.gotCopy); err != nil {
			h.t.Errorf("decoding copyTo: %v", err)
		}
		writeJSON(h.t, w, h.copyReply)
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		if h.renameErr != 0 {
			writeAPIError(w, h.renameErr, "rename rejected")
			return
		}
		h.gotRename = &sheets.BatchUpdateSpreadsheetRequest{}
		if err := json.NewDecoder(r.Body).Decode(h.gotRename); err != nil {
			h.t.Errorf("decoding rename: %v", err)
		}
		writeJSON(h.t, w, &sheets.BatchUpdateSpreadsheetResponse{})
	default:
		h.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		writeAPIError(w, 500, "unexpected request")
	}
}

func TestCopySheetDefaultsToSource(t *testing.T) {
	h := &copyHandler{t: t, copyReply: &sheets.SheetProperties{SheetId: 99, Title: "Copy of Data"}}
	ctr := newTestContainer(t, h, "")

	handler := createCopySheetHandler(ctr)
	_, out, err := handler(context.Background(), nil, CopySheetInput{
		SrcSpreadsheet: "ss-1", SrcSheet: "Data",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if h.gotCopy.DestinationSpreadsheetId != "ss-1" {
		t.Errorf("destination = %q, want the source spreadsheet", h.gotCopy.DestinationSpreadsheetId)
	}
	if out.Title != "Copy of Data" || out.SheetID != 99 || out.SpreadsheetID != "ss-1" {
		t.Errorf("output = %+v", out)
	}
	if h.gotRename != nil {
		t.Error("rename was issued without dst_sheet")
	}
	if out.Warning != "" {
		t.Errorf("unexpected warning %q", out.Warning)
	}
}

func TestCopySheetRenamesCopy(t *testing.T) {
	h := &copyHandler{t: t, copyReply: &sheets.SheetProperties{SheetId: 99, Title: "Copy of Data"}}
	ctr := newTestContainer(t, h, "")

	handler := createCopySheetHandler(ctr)
	_, out, err := handler(context.Background(), nil, CopySheetInput{
		SrcSpreadsheet: "ss-1", SrcSheet: "Data",
		DstSpreadsheet: "ss-2", DstSheet: "Final",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if h.gotCopy.DestinationSpreadsheetId != "ss-2" {
		t.Errorf("destination = %q, want ss-2", h.gotCopy.DestinationSpreadsheetId)
	}
	if h.gotRename == nil {
		t.Fatal("expected a rename batch update")
	}
	up := h.gotRename.Requests[0].UpdateSheetProperties
	if up == nil || up.Properties.SheetId != 99 || up.Properties.Title != "Final" || up.Fields != "title" {
		t.Errorf("rename request = %+v", h.gotRename.Requests[0])
	}
	if out.Title != "Final" || out.SpreadsheetID != "ss-2" {
		t.Errorf("output = %+v", out)
	}
}

func TestCopySheetRenameFailureIsPartialSuccess(t *testing.T) {
	h := &copyHandler{
		t:         t,
		copyReply: &sheets.SheetProperties{SheetId: 99, Title: "Copy of Data"},
		renameErr: 403,
	}
	ctr := newTestContainer(t, h, "")

	handler := createCopySheetHandler(ctr)
	result, out, err := handler(context.Background(), nil, CopySheetInput{
		SrcSpreadsheet: "ss-1", SrcSheet: "Data", DstSheet: "Final",
	})
	if err != nil {
		t.Fatalf("copy succeeded, rename failed; want partial success, got error: %v", err)
	}
	if out.Title != "Copy of Data" {
		t.Errorf("Title = %q, want the provider-generated title", out.Title)
	}
	if out.Warning == "" || !strings.Contains(out.Warning, "Copy of Data") {
		t.Errorf("Warning = %q, want it to name the generated title", out.Warning)
	}
	if text := textContent(t, result); !strings.Contains(text, "Warning") {
		t.Errorf("text missing warning:\n%s", text)
	}
}

func TestRenameSheet(t *testing.T) {
	h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
		{SheetId: 5, Title: "Old"},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createRenameSheetHandler(ctr)
	_, out, err := handler(context.Background(), nil, RenameSheetInput{
		Spreadsheet: "ss-1", Sheet: "Old", NewName: "New",
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	up := h.gotBatch.Requests[0].UpdateSheetProperties
	if up == nil {
		t.Fatal("request is not an UpdateSheetProperties")
	}
	if up.Properties.SheetId != 5 || up.Properties.Title != "New" || up.Fields != "title" {
		t.Errorf("rename request = %+v", up)
	}
	if out.SheetID != 5 || out.Title != "New" {
		t.Errorf("output = %+v", out)
	}
}

func TestRenameSheetMissing(t *testing.T) {
	h := &metadataHandler{t: t, sheets: []*sheets.SheetProperties{
		{SheetId: 5, Title: "Old"},
	}}
	ctr := newTestContainer(t, h, "")

	handler := createRenameSheetHandler(ctr)
	_, _, err := handler(context.Background(), nil, RenameSheetInput{
		Spreadsheet: "ss-1", Sheet: "Gone", NewName: "New",
	})
	if err == nil {
		t.Fatal("expected error for unknown sheet")
	}
	if kind := middleware.KindOf(err); kind != middleware.KindNotFound {
		t.Errorf("error kind = %v, want %v", kind, middleware.KindNotFound)
	}
}
