package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/YnTheNerd/cleanspot/internal/models"
)

// Address is a reverse-geocoded postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Formatted renders "street city postalCode" with empty parts dropped.
func (a *Address) Formatted() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

type reverseResponse struct {
	Address struct {
		Road     string `json:"road"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country"`
	} `json:"address"`
}

// Reverse resolves a coordinate to an address. Returns (nil, nil) when
// the service has nothing for that coordinate.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (*Address, error) {
	if !models.IsValidCoordinate(lat, lng) {
		return nil, fmt.Errorf("invalid coordinate: %v, %v", lat, lng)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	var decoded reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("error decoding resp.Body: %w", err)
	}

	a := decoded.Address
	city := a.City
	if city == "" {
		city = a.Town
	}
	if city == "" {
		city = a.Village
	}

	addr := &Address{
		Street:     a.Road,
		City:       city,
		Region:     a.State,
		PostalCode: a.Postcode,
		Country:    a.Country,
	}
	if addr.Formatted() == "" && addr.Country == "" {
		return nil, nil
	}
	return addr, nil
}

// ResolveAddress returns the formatted address for a coordinate, or an
// error when the service fails or has no result. The location flow uses
// this and falls back to a formatted coordinate pair on error.
func (c *Client) ResolveAddress(ctx context.Context, lat, lng float64) (string, error) {
	addr, err := c.Reverse(ctx, lat, lng)
	if err != nil {
		return "", err
	}
	if addr == nil {
		return "", fmt.Errorf("no address for %s", models.FormatCoordinate(lat, lng))
	}
	if f := addr.Formatted(); f != "" {
		return f, nil
	}
	return "", fmt.Errorf("empty address for %s", models.FormatCoordinate(lat, lng))
}
