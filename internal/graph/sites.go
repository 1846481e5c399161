package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// siteResponse mirrors the Graph API site JSON response. Only the fields
// the resolver needs are decoded.
type siteResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// driveResponse mirrors the Graph API drive JSON response.
type driveResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	DriveType string `json:"driveType"`
}

// ResolveSite resolves a configured site identifier into a concrete site ID.
// Three identifier forms are accepted:
//   - a composite "host,site,web" ID (contains a comma): used as-is
//   - an http(s) site URL: decomposed into hostname + path and resolved
//     via the sites lookup endpoint
//   - a bare directory ID: used as-is
//
// Only the URL form requires a network call.
func (c *Client) ResolveSite(ctx context.Context, siteID string) (string, error) {
	if strings.Contains(siteID, ",") {
		return siteID, nil
	}

	if !strings.HasPrefix(siteID, "http://") && !strings.HasPrefix(siteID, "https://") {
		return siteID, nil
	}

	u, err := url.Parse(siteID)
	if err != nil {
		return "", &ResolutionError{Target: "site", Err: fmt.Errorf("parsing site URL: %w", err)}
	}

	c.logger.Info("resolving site from URL",
		slog.String("hostname", u.Hostname()),
		slog.String("path", u.Path),
	)

	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/sites/%s:%s", u.Hostname(), u.Path), nil)
	if err != nil {
		return "", &ResolutionError{Target: "site", Err: err}
	}
	defer resp.Body.Close()

	var site siteResponse
	if err := json.NewDecoder(resp.Body).Decode(&site); err != nil {
		return "", &ResolutionError{Target: "site", Err: fmt.Errorf("decoding site response: %w", err)}
	}

	c.logger.Debug("resolved site",
		slog.String("site_id", site.ID),
		slog.String("display_name", site.DisplayName),
	)

	return site.ID, nil
}

// ResolveDrive maps a site identifier and optional pre-known drive ID into
// a concrete drive ID. A pre-known drive ID short-circuits with no network
// call; otherwise the site is resolved and its default document drive fetched.
func (c *Client) ResolveDrive(ctx context.Context, siteID, driveID string) (string, error) {
	if driveID != "" {
		c.logger.Debug("using configured drive",
			slog.String("drive_id", driveID),
		)

		return driveID, nil
	}

	resolvedSite, err := c.ResolveSite(ctx, siteID)
	if err != nil {
		return "", err
	}

	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/sites/%s/drive", resolvedSite), nil)
	if err != nil {
		return "", &ResolutionError{Target: "drive", Err: err}
	}
	defer resp.Body.Close()

	var drive driveResponse
	if err := json.NewDecoder(resp.Body).Decode(&drive); err != nil {
		return "", &ResolutionError{Target: "drive", Err: fmt.Errorf("decoding drive response: %w", err)}
	}

	c.logger.Info("resolved default drive",
		slog.String("site_id", resolvedSite),
		slog.String("drive_id", drive.ID),
		slog.String("drive_type", drive.DriveType),
	)

	return drive.ID, nil
}
