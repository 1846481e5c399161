package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// placesBaseURL is the production Google Maps/Places endpoint.
const placesBaseURL = "https://maps.googleapis.com"

// statusOK is the classic Places API success status string.
const statusOK = "OK"

// statusZeroResults indicates a well-formed query with no matches.
const statusZeroResults = "ZERO_RESULTS"

// PlacesClient proxies the classic Google Places Details API. When no
// place ID is configured, the business query is resolved to one via Find
// Place and memoized for the process lifetime; the mapping is treated
// as permanent.
type PlacesClient struct {
	apiKey        string
	placeID       string
	businessQuery string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger

	mu            sync.Mutex
	cachedPlaceID string
}

// NewPlacesClient creates a classic Places provider. A configured
// PlaceID wins; BusinessID is honored as a legacy place identifier;
// otherwise BusinessQuery is resolved lazily on first use.
func NewPlacesClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *PlacesClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	placeID := cfg.PlaceID
	if placeID == "" {
		placeID = cfg.BusinessID
	}

	return &PlacesClient{
		apiKey:        cfg.APIKey,
		placeID:       placeID,
		businessQuery: cfg.BusinessQuery,
		baseURL:       placesBaseURL,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// placeDetailsResponse mirrors the classic Place Details JSON envelope.
type placeDetailsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       struct {
		Name             string        `json:"name"`
		Rating           float64       `json:"rating"`
		UserRatingsTotal int           `json:"user_ratings_total"`
		Reviews          []placeReview `json:"reviews"`
	} `json:"result"`
}

type placeReview struct {
	AuthorName              string  `json:"author_name"`
	Rating                  float64 `json:"rating"`
	Text                    string  `json:"text"`
	Time                    int64   `json:"time"`
	ProfilePhotoURL         string  `json:"profile_photo_url"`
	RelativeTimeDescription string  `json:"relative_time_description"`
}

type findPlaceResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Candidates   []struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"candidates"`
}

// Reviews fetches and reshapes the place's reviews.
func (c *PlacesClient) Reviews(ctx context.Context) ([]Review, error) {
	var details placeDetailsResponse
	if err := c.placeDetails(ctx, "name,rating,user_ratings_total,reviews", &details); err != nil {
		return nil, err
	}

	reviews := make([]Review, 0, len(details.Result.Reviews))
	for _, r := range details.Result.Reviews {
		reviews = append(reviews, Review{
			Author:       r.AuthorName,
			Rating:       r.Rating,
			Comment:      r.Text,
			Date:         r.Time,
			ProfilePhoto: r.ProfilePhotoURL,
			RelativeTime: r.RelativeTimeDescription,
		})
	}

	if len(reviews) == 0 {
		// An API key restricted to HTTP referrers returns the place without
		// rating or reviews. Worth a log line because it looks like success.
		c.logger.Warn("place details returned no reviews",
			slog.String("place", details.Result.Name),
			slog.Int("user_ratings_total", details.Result.UserRatingsTotal),
		)
	}

	return reviews, nil
}

// Stats fetches the place's aggregate rating data.
func (c *PlacesClient) Stats(ctx context.Context) (*PlaceStats, error) {
	var details placeDetailsResponse
	if err := c.placeDetails(ctx, "name,rating,user_ratings_total", &details); err != nil {
		return nil, err
	}

	return &PlaceStats{
		Name:          details.Result.Name,
		AverageRating: details.Result.Rating,
		TotalReviews:  details.Result.UserRatingsTotal,
	}, nil
}

// FindPlace resolves a business by free-text query. Returns nil with no
// error when the query matches nothing.
func (c *PlacesClient) FindPlace(ctx context.Context, query string) (*Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{
		"input":     {query},
		"inputtype": {"textquery"},
		"fields":    {"place_id,name,formatted_address"},
		"language":  {"es"},
		"key":       {c.apiKey},
	}

	var fpr findPlaceResponse
	if err := c.get(ctx, "/maps/api/place/findplacefromtext/json?"+params.Encode(), &fpr); err != nil {
		return nil, err
	}

	if fpr.Status == statusZeroResults || len(fpr.Candidates) == 0 {
		return nil, nil
	}

	if fpr.Status != statusOK {
		return nil, &UpstreamError{Status: fpr.Status, Message: fpr.ErrorMessage}
	}

	cand := fpr.Candidates[0]

	return &Place{
		PlaceID:          cand.PlaceID,
		Name:             cand.Name,
		FormattedAddress: cand.FormattedAddress,
	}, nil
}

// placeDetails fetches the Place Details endpoint with the given field set.
func (c *PlacesClient) placeDetails(ctx context.Context, fields string, out *placeDetailsResponse) error {
	placeID, err := c.resolvePlaceID(ctx)
	if err != nil {
		return err
	}

	params := url.Values{
		"place_id": {placeID},
		"fields":   {fields},
		"language": {"es"},
		"key":      {c.apiKey},
	}

	if err := c.get(ctx, "/maps/api/place/details/json?"+params.Encode(), out); err != nil {
		return err
	}

	if out.Status != statusOK {
		return &UpstreamError{Status: out.Status, Message: out.ErrorMessage}
	}

	return nil
}

// resolvePlaceID returns the configured place ID, or resolves the
// business query once and reuses the result for the process lifetime.
func (c *PlacesClient) resolvePlaceID(ctx context.Context) (string, error) {
	if c.placeID != "" {
		return c.placeID, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cachedPlaceID != "" {
		return c.cachedPlaceID, nil
	}

	place, err := c.FindPlace(ctx, c.businessQuery)
	if err != nil {
		return "", err
	}

	if place == nil {
		return "", &UpstreamError{Status: statusZeroResults, Message: fmt.Sprintf("no se encontró el negocio %q", c.businessQuery)}
	}

	c.logger.Info("resolved business query to place id",
		slog.String("query", c.businessQuery),
		slog.String("place_id", place.PlaceID),
	)

	c.cachedPlaceID = place.PlaceID

	return c.cachedPlaceID, nil
}

// get issues a GET against the Places API and decodes the JSON body.
// Non-2xx responses become UpstreamError; API-level errors are reported
// via the envelope status and handled by callers.
func (c *PlacesClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("reviews: creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("reviews: places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("reviews: decoding places response: %w", err)
	}

	return nil
}
