package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// driveItemResponse mirrors the Graph API driveItem JSON. Only the fields
// the upload workflow needs are decoded.
type driveItemResponse struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Size   int64        `json:"size"`
	WebURL string       `json:"webUrl"`
	Folder *folderFacet `json:"folder"`
}

type folderFacet struct {
	ChildCount int `json:"childCount"`
}

type createFolderRequest struct {
	Name             string      `json:"name"`
	Folder           folderFacet `json:"folder"`
	ConflictBehavior string      `json:"@microsoft.graph.conflictBehavior"` //nolint:tagliatelle // Graph API annotation key
}

// Item is a created or fetched drive item.
type Item struct {
	ID       string
	Name     string
	Size     int64
	WebURL   string
	IsFolder bool
}

func (d *driveItemResponse) toItem() Item {
	return Item{
		ID:       d.ID,
		Name:     d.Name,
		Size:     d.Size,
		WebURL:   d.WebURL,
		IsFolder: d.Folder != nil,
	}
}

// getItemByPath fetches a drive item by its path relative to the drive root.
// The path must start with a slash.
func (c *Client) getItemByPath(ctx context.Context, driveID, remotePath string) (*Item, error) {
	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/drives/%s/root:%s:", driveID, encodePathSegments(remotePath)), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dir driveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&dir); err != nil {
		return nil, fmt.Errorf("graph: decoding item response: %w", err)
	}

	item := dir.toItem()

	return &item, nil
}

// createFolder creates a new folder under the given parent. Uses
// conflictBehavior "rename": a name clash never overwrites and never
// fails; the provider auto-renames.
func (c *Client) createFolder(ctx context.Context, driveID, parentID, name string) (*Item, error) {
	c.logger.Info("creating folder",
		slog.String("drive_id", driveID),
		slog.String("parent_id", parentID),
		slog.String("name", name),
	)

	reqBody := createFolderRequest{
		Name:             name,
		Folder:           folderFacet{},
		ConflictBehavior: "rename",
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("graph: marshaling create folder request: %w", err)
	}

	path := fmt.Sprintf("/drives/%s/items/%s/children", driveID, parentID)

	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dir driveItemResponse
	if err := json.NewDecoder(resp.Body).Decode(&dir); err != nil {
		return nil, fmt.Errorf("graph: decoding create folder response: %w", err)
	}

	item := dir.toItem()

	return &item, nil
}

// EnsureFolder verifies or creates each segment of a slash-separated folder
// path and returns the deepest folder's ID. The path is normalized to start
// with a slash.
//
// Fast path: the full path is looked up directly and its ID returned on a
// hit. Otherwise the path is walked segment by segment from the root: each
// accumulated prefix is looked up, and on a miss the segment is created
// under the current parent. Parents are therefore always created before
// children. A segment-creation failure aborts the walk; segments already
// created are not rolled back.
func (c *Client) EnsureFolder(ctx context.Context, driveID, folderPath string) (string, error) {
	normalized := folderPath
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}

	if item, err := c.getItemByPath(ctx, driveID, normalized); err == nil {
		c.logger.Debug("folder path already exists",
			slog.String("path", normalized),
			slog.String("folder_id", item.ID),
		)

		return item.ID, nil
	}

	parentID := "root"
	currentPath := ""

	for _, segment := range strings.Split(normalized, "/") {
		if segment == "" {
			continue
		}

		currentPath += "/" + segment

		if item, err := c.getItemByPath(ctx, driveID, currentPath); err == nil {
			parentID = item.ID

			continue
		}

		created, err := c.createFolder(ctx, driveID, parentID, segment)
		if err != nil {
			return "", &FolderError{Segment: segment, Err: err}
		}

		parentID = created.ID
	}

	return parentID, nil
}
