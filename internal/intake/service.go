package intake

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmigration/backend/internal/sharepoint"
)

// DefaultFormID is used when a submission carries no form identifier.
const DefaultFormID = "formulario"

// attachmentWorkers bounds concurrent attachment uploads per submission.
// Per-file isolation holds because Upload returns a result value, so one
// file's failure cannot affect another's.
const attachmentWorkers = 3

// Uploader stores a document and reports the outcome as a value.
// *sharepoint.Uploader is the production implementation.
type Uploader interface {
	Upload(ctx context.Context, folderPath, fileName string, content []byte, contentType string) sharepoint.UploadResult
}

// Service orchestrates form submissions. A nil uploader means SharePoint
// is not configured: submissions are rendered and accepted, and the
// relay step is skipped entirely.
type Service struct {
	uploader Uploader
	logger   *slog.Logger
}

// NewService creates a Service. uploader may be nil.
func NewService(uploader Uploader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{uploader: uploader, logger: logger}
}

// Submit renders the submission and, when SharePoint is configured,
// relays the rendering and every valid attachment. Upload failures are
// logged and swallowed; submission acceptance is independent of storage
// success, so Submit never fails once its inputs are parsed. The
// rendered document is returned for observability.
func (s *Service) Submit(ctx context.Context, formID string, fields map[string]string, files []File) string {
	if formID == "" {
		formID = DefaultFormID
	}

	now := time.Now()
	doc := RenderDocument(formID, now, fields, files)

	if s.uploader == nil {
		s.logger.Debug("sharepoint not configured, skipping relay",
			slog.String("form_id", formID),
		)

		return doc
	}

	clientID := ClientID(fields)
	folderPath := FolderPath(clientID, formID)

	s.logger.Info("relaying submission",
		slog.String("form_id", formID),
		slog.String("client_id", clientID),
		slog.String("folder_path", folderPath),
		slog.Int("attachments", len(files)),
	)

	textName := fmt.Sprintf("%s-%d.txt", formID, now.UnixMilli())

	if result := s.uploader.Upload(ctx, folderPath, textName, []byte(doc), "text/plain; charset=utf-8"); !result.Success {
		s.logger.Error("form document upload failed",
			slog.String("form_id", formID),
			slog.String("error", result.Error),
		)
	}

	s.uploadAttachments(ctx, folderPath, files)

	return doc
}

// uploadAttachments relays valid attachments through a bounded worker
// pool. Files with an empty name or zero size are skipped and logged.
func (s *Service) uploadAttachments(ctx context.Context, folderPath string, files []File) {
	valid := make([]File, 0, len(files))

	for _, f := range files {
		if f.Name == "" || f.Size == 0 {
			s.logger.Warn("skipping attachment with empty name or zero size",
				slog.String("name", f.Name),
				slog.Int64("size", f.Size),
			)

			continue
		}

		valid = append(valid, f)
	}

	if len(valid) == 0 {
		return
	}

	results := make([]sharepoint.UploadResult, len(valid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(attachmentWorkers)

	for i, f := range valid {
		g.Go(func() error {
			results[i] = s.uploader.Upload(gctx, folderPath, f.Name, f.Content, f.ContentType)

			return nil
		})
	}

	// Workers only record results; Wait cannot fail.
	_ = g.Wait()

	for i, result := range results {
		if !result.Success {
			s.logger.Error("attachment upload failed",
				slog.String("name", valid[i].Name),
				slog.String("error", result.Error),
			)
		}
	}
}
