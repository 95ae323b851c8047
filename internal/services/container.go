// Package services builds the authenticated Google API clients shared by
// every tool handler.
package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Container bundles the Sheets and Drive clients built from the resolved
// credentials, plus the Drive folder scoping. It is constructed once at
// startup and injected into every tool handler and resource; nothing
// re-resolves credentials per call.
type Container struct {
	Sheets *sheets.Service
	Drive  *drive.Service

	// FolderID scopes spreadsheet listing and creation to one Drive
	// folder when non-empty.
	FolderID string
}

// New builds a Container from a resolved token source.
// The underlying HTTP client is bound to the background context so token
// refreshes outlive any single request; individual API calls carry their
// own request context via .Context(ctx).Do().
func New(ctx context.Context, source oauth2.TokenSource, folderID string) (*Container, error) {
	client := oauth2.NewClient(context.Background(), source)

	sheetsSrv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("building sheets client: %w", err)
	}
	driveSrv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("building drive client: %w", err)
	}

	return &Container{
		Sheets:   sheetsSrv,
		Drive:    driveSrv,
		FolderID: folderID,
	}, nil
}
