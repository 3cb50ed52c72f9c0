// Package gclient talks to Google Drive, Forms, Sheets and Gmail on behalf of the instructor.
//
// Authentication uses an installed-app OAuth flow with a loopback redirect. The resulting
// token is kept in the cache store so later runs reuse and refresh it:
//
//	auth := gclient.NewAuthenticator(cfg, gclient.NewTokenStore(cache), log)
//	httpClient, err := auth.HTTPClient(ctx)
//	client, err := gclient.NewClient(ctx, sender, option.WithHTTPClient(httpClient))
package gclient

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/forms/v1"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Scopes requested from the instructor account.
var Scopes = []string{
	drive.DriveReadonlyScope,
	forms.FormsBodyReadonlyScope,
	forms.FormsResponsesReadonlyScope,
	sheets.SpreadsheetsReadonlyScope,
	gmail.GmailSendScope,
}

// LoadOAuthConfig reads the OAuth client secrets downloaded from the Google Cloud console.
func LoadOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

// Client implements the forms, sheets and mail contracts on top of the Google APIs.
type Client struct {
	drive  *drive.Service
	forms  *forms.Service
	sheets *sheets.Service
	gmail  *gmail.Service
	sender string
}

// NewClient builds the API services. sender is used as the From header of sent emails;
// empty lets Gmail use the authenticated account.
func NewClient(ctx context.Context, sender string, opts ...option.ClientOption) (*Client, error) {
	driveSvc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	formsSvc, err := forms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Forms service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	gmailSvc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{
		drive:  driveSvc,
		forms:  formsSvc,
		sheets: sheetsSvc,
		gmail:  gmailSvc,
		sender: sender,
	}, nil
}
