package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultContentType is used when a caller supplies no content type.
const DefaultContentType = "application/octet-stream"

// PutContent uploads raw bytes to the given folder path under the drive
// root using a single PUT request. folderPath may be empty, in which case
// the file lands in the drive root. The caller ensures the folder exists.
func (c *Client) PutContent(
	ctx context.Context, driveID, folderPath, name, contentType string, content io.Reader,
) (*Item, error) {
	if contentType == "" {
		contentType = DefaultContentType
	}

	fullPath := name
	if trimmed := strings.Trim(folderPath, "/"); trimmed != "" {
		fullPath = trimmed + "/" + name
	}

	c.logger.Info("uploading content",
		slog.String("drive_id", driveID),
		slog.String("path", fullPath),
		slog.String("content_type", contentType),
	)

	apiPath := fmt.Sprintf("/drives/%s/root:/%s:/content", driveID, encodePathSegments(fullPath))

	resp, err := c.DoRaw(ctx, http.MethodPut, apiPath, contentType, content)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dir driveItemResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&dir); decErr != nil {
		return nil, fmt.Errorf("graph: decoding upload response: %w", decErr)
	}

	item := dir.toItem()

	c.logger.Debug("upload complete",
		slog.String("item_id", item.ID),
		slog.String("web_url", item.WebURL),
	)

	return &item, nil
}
