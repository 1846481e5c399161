package config

import (
	"fmt"
	"os"
	"strconv"
)

// ApplyEnv overlays environment variables onto cfg, so an env-only
// deployment works without a config file.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.SharePoint.TenantID, "SHAREPOINT_TENANT_ID")
	setString(&cfg.SharePoint.ClientID, "SHAREPOINT_CLIENT_ID")
	setString(&cfg.SharePoint.ClientSecret, "SHAREPOINT_CLIENT_SECRET")
	setString(&cfg.SharePoint.SiteID, "SHAREPOINT_SITE_ID")
	setString(&cfg.SharePoint.DriveID, "SHAREPOINT_DRIVE_ID")

	setString(&cfg.Google.APIKey, "GOOGLE_PLACES_API_KEY")
	setString(&cfg.Google.PlaceID, "GOOGLE_PLACE_ID")
	setString(&cfg.Google.BusinessQuery, "GOOGLE_BUSINESS_QUERY")
	setString(&cfg.Google.BusinessID, "GOOGLE_BUSINESS_ID")
	setString(&cfg.Google.PlacesAPI, "GOOGLE_PLACES_API")
	setString(&cfg.Google.OAuthClientID, "GOOGLE_OAUTH_CLIENT_ID")
	setString(&cfg.Google.OAuthClientSecret, "GOOGLE_OAUTH_CLIENT_SECRET")
	setString(&cfg.Google.RefreshToken, "GOOGLE_OAUTH_REFRESH_TOKEN")
	setString(&cfg.Google.AccountID, "GOOGLE_ACCOUNT_ID")
	setString(&cfg.Google.LocationID, "GOOGLE_LOCATION_ID")

	setString(&cfg.Server.CORSOrigin, "CORS_ORIGIN")
	setString(&cfg.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
