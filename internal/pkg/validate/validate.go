// Package validate checks tool arguments before they reach the Google
// APIs, catching malformed identifiers early and keeping interpolated
// Drive queries injection-safe.
package validate

import (
	"fmt"
	"regexp"
)

// driveIDRE matches Google Drive file/folder IDs: alphanumeric with
// hyphens and underscores, plus the special "root" literal.
var driveIDRE = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// DriveID validates that the given string is a safe Drive resource ID.
// Spreadsheet and folder IDs are interpolated into Drive query strings,
// so anything outside this alphabet is rejected before it reaches a query.
func DriveID(id string) error {
	if !driveIDRE.MatchString(id) {
		return fmt.Errorf("invalid Drive resource ID %q: expected alphanumeric characters, hyphens, and underscores", id)
	}
	return nil
}

// emailRE matches basic email format: local@domain with at least one dot
// in the domain.
var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email validates that the given string looks like an email address.
func Email(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email address too long (max 254 characters)")
	}
	if !emailRE.MatchString(email) {
		return fmt.Errorf("invalid email address %q", email)
	}
	return nil
}

// Role validates a Drive permission role accepted by the sharing tools.
func Role(role string) error {
	switch role {
	case "reader", "commenter", "writer":
		return nil
	}
	return fmt.Errorf("invalid role %q: must be one of reader, commenter, writer", role)
}
