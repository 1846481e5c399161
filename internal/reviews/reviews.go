// Package reviews proxies read-only business-review data from Google
// Places / Google Business Profile. One Provider interface covers the
// API variants; the concrete implementation is selected once at startup
// by inspecting which credential set is configured.
package reviews

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Review is the frontend-facing shape of a single review, reshaped from
// whichever upstream variant is configured. Date is unix seconds.
type Review struct {
	Author       string  `json:"author"`
	Rating       float64 `json:"rating"`
	Comment      string  `json:"comment"`
	Date         int64   `json:"date"`
	ProfilePhoto string  `json:"profilePhoto,omitempty"`
	RelativeTime string  `json:"relativeTime,omitempty"`
}

// PlaceStats aggregates a business's rating data.
type PlaceStats struct {
	Name          string  `json:"name"`
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

// Place identifies a business in the provider's directory. Returned by
// the find-place lookup used for operator configuration.
type Place struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
}

// UpstreamError reports a non-success response from the review provider.
// Status carries the provider's status string (classic Places) or the
// HTTP status text; StatusCode is the HTTP code when available.
type UpstreamError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("reviews: upstream error: %s - %s", e.Status, e.Message)
	}

	return fmt.Sprintf("reviews: upstream error: %s", e.Status)
}

// Provider fetches review data from a configured upstream.
type Provider interface {
	Reviews(ctx context.Context) ([]Review, error)
	Stats(ctx context.Context) (*PlaceStats, error)
}

// API variant selectors for the key-based providers.
const (
	APIClassic = "classic"
	APINew     = "new"
)

// Config selects and parameterizes a review provider. Exactly one
// credential set is honored, inspected in the order Business Profile
// OAuth, Places New, Places classic.
type Config struct {
	APIKey        string
	PlaceID       string
	BusinessQuery string
	BusinessID    string // legacy place identifier, used when PlaceID is absent
	API           string // APIClassic or APINew

	OAuthClientID     string
	OAuthClientSecret string
	RefreshToken      string
	AccountID         string
	LocationID        string
}

// oauthConfigured reports whether the full Business Profile credential
// set is present.
func (c Config) oauthConfigured() bool {
	return c.OAuthClientID != "" && c.OAuthClientSecret != "" && c.RefreshToken != "" &&
		c.AccountID != "" && c.LocationID != ""
}

// Configured reports whether any complete credential set is present.
func (c Config) Configured() bool {
	if c.oauthConfigured() {
		return true
	}

	return c.APIKey != "" && (c.PlaceID != "" || c.BusinessQuery != "" || c.BusinessID != "")
}

// NewFromConfig selects a Provider from the configuration. Returns nil
// when no complete credential set is present; callers treat a nil
// provider as "service unconfigured".
func NewFromConfig(ctx context.Context, cfg Config, httpClient *http.Client, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case cfg.oauthConfigured():
		logger.Info("review provider selected",
			slog.String("variant", "business_profile"),
		)

		return NewBusinessProfileClient(ctx, cfg, httpClient, logger)

	case cfg.APIKey != "" && cfg.API == APINew && cfg.PlaceID != "":
		logger.Info("review provider selected",
			slog.String("variant", "places_new"),
		)

		return NewPlacesNewClient(cfg.APIKey, cfg.PlaceID, httpClient, logger)

	case cfg.Configured():
		logger.Info("review provider selected",
			slog.String("variant", "places_classic"),
		)

		return NewPlacesClient(cfg, httpClient, logger)

	default:
		logger.Warn("review provider not configured")

		return nil
	}
}
