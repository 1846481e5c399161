// Package sharepoint implements the document upload boundary. The
// Uploader orchestrates token acquisition, drive resolution, folder
// ensure, and the content PUT, and converts every failure (including
// panics from unexpected states) into an UploadResult value. Nothing
// escapes this boundary as a Go error.
package sharepoint

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmigration/backend/internal/graph"
)

// Config holds the SharePoint connection settings. Supplied once at
// process start; immutable for process lifetime.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	SiteID       string
	DriveID      string // optional: short-circuits drive resolution
}

// Configured reports whether the four required settings are present.
// DriveID is optional.
func (c Config) Configured() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != "" && c.SiteID != ""
}

// UploadResult is the outcome of a single upload. Success=false never
// carries a FileID; Success=true never carries an Error.
type UploadResult struct {
	Success bool
	FileID  string
	WebURL  string
	Error   string
}

// Uploader uploads documents to a SharePoint drive.
type Uploader struct {
	cfg    Config
	client *graph.Client
	logger *slog.Logger
}

// NewUploader creates an Uploader for the given configuration. ctx must
// outlive the Uploader; it is bound to the token source used for every
// authenticated call.
func NewUploader(ctx context.Context, cfg Config, httpClient *http.Client, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}

	creds := graph.ClientCredentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
	}

	token := graph.NewTokenProvider(ctx, creds, httpClient, logger)

	return &Uploader{
		cfg:    cfg,
		client: graph.NewClient(graph.BaseURL, httpClient, token, logger),
		logger: logger,
	}
}

// newUploaderWithClient wires a pre-built graph client, for tests.
func newUploaderWithClient(cfg Config, client *graph.Client, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Uploader{cfg: cfg, client: client, logger: logger}
}

// Upload stores content under folderPath/fileName in the configured drive.
// contentType defaults to application/octet-stream when empty. Text
// content should be passed as its UTF-8 bytes.
//
// All failure paths, including unexpected panics during any step, are
// caught and converted into the failure variant of UploadResult.
func (u *Uploader) Upload(ctx context.Context, folderPath, fileName string, content []byte, contentType string) (result UploadResult) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("upload panicked",
				slog.String("file_name", fileName),
				slog.Any("panic", r),
			)

			result = UploadResult{Error: fmt.Sprintf("unexpected error: %v", r)}
		}
	}()

	driveID, err := u.client.ResolveDrive(ctx, u.cfg.SiteID, u.cfg.DriveID)
	if err != nil {
		return u.failure(fileName, err)
	}

	if _, err := u.client.EnsureFolder(ctx, driveID, folderPath); err != nil {
		return u.failure(fileName, err)
	}

	item, err := u.client.PutContent(ctx, driveID, folderPath, fileName, contentType, bytes.NewReader(content))
	if err != nil {
		return u.failure(fileName, err)
	}

	u.logger.Info("file uploaded",
		slog.String("file_name", fileName),
		slog.String("file_id", item.ID),
		slog.String("web_url", item.WebURL),
	)

	return UploadResult{
		Success: true,
		FileID:  item.ID,
		WebURL:  item.WebURL,
	}
}

func (u *Uploader) failure(fileName string, err error) UploadResult {
	u.logger.Error("upload failed",
		slog.String("file_name", fileName),
		slog.String("error", err.Error()),
	)

	return UploadResult{Error: err.Error()}
}
