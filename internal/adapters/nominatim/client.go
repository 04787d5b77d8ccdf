package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samirrijal/wayfinder/internal/core/domain"
	"github.com/samirrijal/wayfinder/internal/core/ports"
	"github.com/samirrijal/wayfinder/internal/pkg/metrics"
)

// Client implements ports.Geocoder against a Nominatim-shaped search API.
// An empty result list is a valid answer, not an error.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient builds a geocoder client. Nominatim's usage policy requires an
// identifying User-Agent on every request.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Search(ctx context.Context, text string, opts ports.GeocodeOptions) (locations []domain.Location, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("nominatim", "search", err, time.Since(start)) }()

	params := url.Values{}
	params.Set("q", text)
	params.Set("format", "json")
	limit := opts.Limit
	if limit <= 0 {
		limit = 1
	}
	params.Set("limit", strconv.Itoa(limit))
	if opts.CountryCode != "" {
		params.Set("countrycodes", opts.CountryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("geocode: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode: HTTP %d for %s", resp.StatusCode, c.baseURL)
	}

	// Coordinates arrive as strings in this API.
	var out []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("geocode: decode: %w", err)
	}

	for _, hit := range out {
		lat, latErr := strconv.ParseFloat(hit.Lat, 64)
		lng, lngErr := strconv.ParseFloat(hit.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		locations = append(locations, domain.Location{
			Lat:         lat,
			Lng:         lng,
			DisplayName: hit.DisplayName,
		})
	}
	return locations, nil
}
