// Package geocode talks to the external place-search service
// (Nominatim-compatible) for forward search and reverse geocoding.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/YnTheNerd/cleanspot/internal/models"
)

// MsgSearchFailed is the user-visible reason attached to network and
// parse failures. The search flow renders it instead of crashing.
const MsgSearchFailed = "Erreur lors de la recherche. Vérifiez votre connexion."

const minQueryLen = 3

// SearchError carries a user-visible reason string across the client
// boundary. Callers surface Reason and treat the result list as empty.
type SearchError struct {
	Reason string
	Err    error
}

func (e *SearchError) Error() string { return e.Reason }
func (e *SearchError) Unwrap() error { return e.Err }

// Config holds the place-search service settings.
type Config struct {
	BaseURL      string
	UserAgent    string // identifying client tag, required by the service's usage policy
	CountryCodes string // geographic scope restriction, e.g. "cm"; empty disables it
	MaxResults   int
	Timeout      time.Duration
	MinInterval  time.Duration // minimum wall-clock gap between outbound queries
}

// Client issues rate-limited queries against the place-search service.
// The limiter state is instance-local; a single active search box is
// the expected caller, so there is no concurrent-writer contention.
type Client struct {
	baseURL      string
	userAgent    string
	countryCodes string
	maxResults   int
	httpClient   *http.Client
	limiter      *rate.Limiter
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "CleanSpotApp/1.0 (contact: cleanspot@example.com)"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:    cfg.UserAgent,
		countryCodes: cfg.CountryCodes,
		maxResults:   cfg.MaxResults,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
	}
}

type searchHit struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	DisplayName string      `json:"display_name"`
	Type        string      `json:"type"`
	Importance  float64     `json:"importance"`
}

// Search issues one text query and returns normalized results.
// Queries shorter than 3 trimmed characters return nothing without a
// network call. Calls arriving inside the rate-limit window are
// dropped, not queued: the caller keeps whatever results it has.
// Hits whose coordinates fail validation are discarded individually.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return nil, nil
	}
	if !c.limiter.Allow() {
		return nil, nil
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(c.maxResults))
	q.Set("addressdetails", "1")
	if c.countryCodes != "" {
		q.Set("countrycodes", c.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, &SearchError{Reason: MsgSearchFailed, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &SearchError{Reason: MsgSearchFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchError{
			Reason: MsgSearchFailed,
			Err:    fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status),
		}
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, &SearchError{Reason: MsgSearchFailed, Err: fmt.Errorf("error decoding resp.Body: %w", err)}
	}

	results := make([]models.SearchResult, 0, len(hits))
	for i, h := range hits {
		lat, latErr := strconv.ParseFloat(h.Lat, 64)
		lng, lngErr := strconv.ParseFloat(h.Lon, 64)
		if latErr != nil || lngErr != nil || !models.IsValidCoordinate(lat, lng) {
			continue // partial success: keep the valid hits
		}

		id := "search-" + strconv.Itoa(i)
		if h.PlaceID != "" {
			id = "place-" + h.PlaceID.String()
		}
		results = append(results, models.SearchResult{
			ID:         id,
			Coordinate: models.Coordinate{Latitude: lat, Longitude: lng},
			Title:      titleOf(h.DisplayName),
			Subtitle:   h.DisplayName,
			Importance: h.Importance,
		})
	}

	return results, nil
}

// titleOf keeps the first comma-separated segment of a display name.
func titleOf(displayName string) string {
	if i := strings.Index(displayName, ","); i >= 0 {
		return strings.TrimSpace(displayName[:i])
	}
	return displayName
}
