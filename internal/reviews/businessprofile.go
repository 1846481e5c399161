package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// businessProfileBaseURL is the production Google Business Profile v4 endpoint.
const businessProfileBaseURL = "https://mybusiness.googleapis.com"

// businessManageScope grants read/write access to business locations;
// the smallest scope the v4 reviews endpoint accepts.
const businessManageScope = "https://www.googleapis.com/auth/business.manage"

// starRatings maps the v4 API's enum rating to its numeric value.
var starRatings = map[string]float64{
	"ONE":   1,
	"TWO":   2,
	"THREE": 3,
	"FOUR":  4,
	"FIVE":  5,
}

// BusinessProfileClient proxies the Google Business Profile v4 reviews
// API, authenticating with a long-lived refresh token. The oauth2
// transport exchanges and renews access tokens transparently.
type BusinessProfileClient struct {
	accountID  string
	locationID string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBusinessProfileClient creates a Business Profile provider. ctx must
// outlive the client; it is bound to the token refresh transport.
// baseClient, when non-nil, is used as the transport underneath the
// oauth2 token exchange.
func NewBusinessProfileClient(ctx context.Context, cfg Config, baseClient *http.Client, logger *slog.Logger) *BusinessProfileClient {
	if logger == nil {
		logger = slog.Default()
	}

	oc := &oauth2.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{businessManageScope},
	}

	if baseClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, baseClient)
	}

	ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	return &BusinessProfileClient{
		accountID:  cfg.AccountID,
		locationID: cfg.LocationID,
		baseURL:    businessProfileBaseURL,
		httpClient: oauth2.NewClient(ctx, ts),
		logger:     logger,
	}
}

// reviewsResponse mirrors the v4 ListReviews JSON.
type reviewsResponse struct {
	Reviews []struct {
		Reviewer struct {
			DisplayName     string `json:"displayName"`
			ProfilePhotoURL string `json:"profilePhotoUrl"`
		} `json:"reviewer"`
		StarRating string `json:"starRating"`
		Comment    string `json:"comment"`
		CreateTime string `json:"createTime"`
	} `json:"reviews"`
	AverageRating    float64 `json:"averageRating"`
	TotalReviewCount int     `json:"totalReviewCount"`
}

// locationResponse mirrors the v4 location resource, limited to the name.
type locationResponse struct {
	LocationName string `json:"locationName"`
}

// Reviews fetches and reshapes the location's reviews.
func (c *BusinessProfileClient) Reviews(ctx context.Context) ([]Review, error) {
	var lr reviewsResponse
	if err := c.get(ctx, c.reviewsPath(), &lr); err != nil {
		return nil, err
	}

	reviews := make([]Review, 0, len(lr.Reviews))
	for _, r := range lr.Reviews {
		reviews = append(reviews, Review{
			Author:       r.Reviewer.DisplayName,
			Rating:       starRatings[r.StarRating],
			Comment:      r.Comment,
			Date:         parseRFC3339Unix(r.CreateTime),
			ProfilePhoto: r.Reviewer.ProfilePhotoURL,
		})
	}

	return reviews, nil
}

// Stats fetches the location's aggregate rating data. The reviews
// listing carries the aggregates; the location resource supplies the
// business name.
func (c *BusinessProfileClient) Stats(ctx context.Context) (*PlaceStats, error) {
	var lr reviewsResponse
	if err := c.get(ctx, c.reviewsPath()+"?pageSize=1", &lr); err != nil {
		return nil, err
	}

	var loc locationResponse
	if err := c.get(ctx, fmt.Sprintf("/v4/accounts/%s/locations/%s", c.accountID, c.locationID), &loc); err != nil {
		return nil, err
	}

	return &PlaceStats{
		Name:          loc.LocationName,
		AverageRating: lr.AverageRating,
		TotalReviews:  lr.TotalReviewCount,
	}, nil
}

func (c *BusinessProfileClient) reviewsPath() string {
	return fmt.Sprintf("/v4/accounts/%s/locations/%s/reviews", c.accountID, c.locationID)
}

func (c *BusinessProfileClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("reviews: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reviews: business profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		c.logger.Warn("business profile request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("reviews: decoding business profile response: %w", err)
	}

	return nil
}
