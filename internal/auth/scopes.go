package auth

// Scope URLs requested by the server. Drive access backs spreadsheet
// discovery, folder placement, and sharing; Sheets covers everything else.
const (
	ScopeSpreadsheets         = "https://www.googleapis.com/auth/spreadsheets"
	ScopeSpreadsheetsReadOnly = "https://www.googleapis.com/auth/spreadsheets.readonly"
	ScopeDrive                = "https://www.googleapis.com/auth/drive"
	ScopeDriveReadOnly        = "https://www.googleapis.com/auth/drive.readonly"
)

// Scopes returns the OAuth scopes to request. In read-only mode both
// scopes drop to their .readonly variants, which makes every write tool
// fail at the provider even if one slips past registration filtering.
func Scopes(readOnly bool) []string {
	if readOnly {
		return []string{ScopeSpreadsheetsReadOnly, ScopeDriveReadOnly}
	}
	return []string{ScopeSpreadsheets, ScopeDrive}
}
