// Package config implements layered configuration loading for the
// backend: defaults -> optional TOML file -> environment variables.
// Environment always wins, matching the env-only deployment the service
// runs under; the file layer exists for local development.
package config

import (
	"github.com/mmigration/backend/internal/reviews"
	"github.com/mmigration/backend/internal/sharepoint"
)

// Config is the top-level configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	SharePoint SharePointConfig `toml:"sharepoint"`
	Google     GoogleConfig     `toml:"google"`
	Logging    LoggingConfig    `toml:"logging"`
}

// ServerConfig controls the HTTP listener and CORS policy.
type ServerConfig struct {
	Port int `toml:"port"`
	// CORSOrigin is a bare domain; the server admits its https and
	// https://www variants. Empty allows all origins.
	CORSOrigin string `toml:"cors_origin"`
}

// SharePointConfig holds the document-store credentials. All four of
// tenant/client/secret/site must be present for uploads to be attempted;
// drive_id optionally pins the target drive and skips resolution.
type SharePointConfig struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	SiteID       string `toml:"site_id"`
	DriveID      string `toml:"drive_id"`
}

// GoogleConfig holds one of several mutually-exclusive review-provider
// credential sets; see reviews.NewFromConfig for the selection order.
type GoogleConfig struct {
	APIKey        string `toml:"api_key"`
	PlaceID       string `toml:"place_id"`
	BusinessQuery string `toml:"business_query"`
	BusinessID    string `toml:"business_id"`
	PlacesAPI     string `toml:"places_api"` // "classic" or "new"

	OAuthClientID     string `toml:"oauth_client_id"`
	OAuthClientSecret string `toml:"oauth_client_secret"`
	RefreshToken      string `toml:"refresh_token"`
	AccountID         string `toml:"account_id"`
	LocationID        string `toml:"location_id"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// SharePointSettings maps the section to the uploader's config type.
func (c *Config) SharePointSettings() sharepoint.Config {
	return sharepoint.Config{
		TenantID:     c.SharePoint.TenantID,
		ClientID:     c.SharePoint.ClientID,
		ClientSecret: c.SharePoint.ClientSecret,
		SiteID:       c.SharePoint.SiteID,
		DriveID:      c.SharePoint.DriveID,
	}
}

// ReviewSettings maps the section to the review provider's config type.
func (c *Config) ReviewSettings() reviews.Config {
	return reviews.Config{
		APIKey:            c.Google.APIKey,
		PlaceID:           c.Google.PlaceID,
		BusinessQuery:     c.Google.BusinessQuery,
		BusinessID:        c.Google.BusinessID,
		API:               c.Google.PlacesAPI,
		OAuthClientID:     c.Google.OAuthClientID,
		OAuthClientSecret: c.Google.OAuthClientSecret,
		RefreshToken:      c.Google.RefreshToken,
		AccountID:         c.Google.AccountID,
		LocationID:        c.Google.LocationID,
	}
}
