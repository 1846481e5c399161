package reviews

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// placesNewBaseURL is the production Places API (New) endpoint.
const placesNewBaseURL = "https://places.googleapis.com"

// PlacesNewClient proxies the Places API (New) place resource. Unlike
// the classic API, it authenticates via the X-Goog-Api-Key header and
// selects response fields with a field mask.
type PlacesNewClient struct {
	apiKey     string
	placeID    string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewPlacesNewClient creates a Places API (New) provider.
func NewPlacesNewClient(apiKey, placeID string, httpClient *http.Client, logger *slog.Logger) *PlacesNewClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PlacesNewClient{
		apiKey:     apiKey,
		placeID:    placeID,
		baseURL:    placesNewBaseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// placeNewResponse mirrors the Places API (New) place resource, limited
// to the masked fields.
type placeNewResponse struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Rating          float64          `json:"rating"`
	UserRatingCount int              `json:"userRatingCount"`
	Reviews         []placeNewReview `json:"reviews"`
}

type placeNewReview struct {
	Rating float64 `json:"rating"`
	Text   struct {
		Text string `json:"text"`
	} `json:"text"`
	PublishTime                    string `json:"publishTime"`
	RelativePublishTimeDescription string `json:"relativePublishTimeDescription"`
	AuthorAttribution              struct {
		DisplayName string `json:"displayName"`
		PhotoURI    string `json:"photoUri"`
	} `json:"authorAttribution"`
}

// Reviews fetches and reshapes the place's reviews.
func (c *PlacesNewClient) Reviews(ctx context.Context) ([]Review, error) {
	place, err := c.fetchPlace(ctx, "displayName,rating,userRatingCount,reviews")
	if err != nil {
		return nil, err
	}

	reviews := make([]Review, 0, len(place.Reviews))
	for _, r := range place.Reviews {
		reviews = append(reviews, Review{
			Author:       r.AuthorAttribution.DisplayName,
			Rating:       r.Rating,
			Comment:      r.Text.Text,
			Date:         parseRFC3339Unix(r.PublishTime),
			ProfilePhoto: r.AuthorAttribution.PhotoURI,
			RelativeTime: r.RelativePublishTimeDescription,
		})
	}

	return reviews, nil
}

// Stats fetches the place's aggregate rating data.
func (c *PlacesNewClient) Stats(ctx context.Context) (*PlaceStats, error) {
	place, err := c.fetchPlace(ctx, "displayName,rating,userRatingCount")
	if err != nil {
		return nil, err
	}

	return &PlaceStats{
		Name:          place.DisplayName.Text,
		AverageRating: place.Rating,
		TotalReviews:  place.UserRatingCount,
	}, nil
}

func (c *PlacesNewClient) fetchPlace(ctx context.Context, fieldMask string) (*placeNewResponse, error) {
	url := fmt.Sprintf("%s/v1/places/%s?languageCode=es", c.baseURL, c.placeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("reviews: creating request: %w", err)
	}

	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reviews: places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body) //nolint:errcheck // best-effort read for error message

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    string(body),
		}
	}

	var place placeNewResponse
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, fmt.Errorf("reviews: decoding place response: %w", err)
	}

	return &place, nil
}

// parseRFC3339Unix converts an RFC3339 timestamp to unix seconds,
// returning zero for absent or malformed input.
func parseRFC3339Unix(s string) int64 {
	if s == "" {
		return 0
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0
	}

	return t.Unix()
}
