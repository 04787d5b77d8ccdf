package places

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

const (
	defaultLimit = 20
	maxLimit     = 100
)

// categoryIDs maps the domain taxonomy to the places API category tree.
var categoryIDs = map[domain.POICategory]string{
	domain.CategoryCafe:         "catering.cafe",
	domain.CategoryRestaurant:   "catering.restaurant",
	domain.CategoryFastFood:     "catering.fast_food",
	domain.CategoryBar:          "catering.bar",
	domain.CategoryBakery:       "commercial.food_and_drink.bakery",
	domain.CategorySupermarket:  "commercial.supermarket",
	domain.CategoryPharmacy:     "healthcare.pharmacy",
	domain.CategoryHospital:     "healthcare.hospital",
	domain.CategoryClinic:       "healthcare.clinic_or_praxis",
	domain.CategoryPark:         "leisure.park",
	domain.CategoryGym:          "sport.fitness",
	domain.CategoryLibrary:      "education.library",
	domain.CategorySchool:       "education.school",
	domain.CategoryBank:         "service.financial.bank",
	domain.CategoryATM:          "service.financial.atm",
	domain.CategoryFuel:         "service.vehicle.fuel",
	domain.CategoryHotel:        "accommodation.hotel",
	domain.CategoryCinema:       "entertainment.cinema",
	domain.CategoryMuseum:       "entertainment.museum",
	domain.CategoryShoppingMall: "commercial.shopping_mall",
}

// Client implements ports.POISearcher against a places HTTP API with a
// fixed category taxonomy and rect (bbox) filtering.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) FindPOIs(ctx context.Context, q ports.POIQuery) (pois []domain.POI, err error) {
	start := time.Now()
	defer func() { metrics.ObserveCollaborator("places", "find_pois", err, time.Since(start)) }()

	categoryID, ok := categoryIDs[q.Category]
	if !ok {
		return nil, fmt.Errorf("find pois: unknown category %q", q.Category)
	}
	if q.Category == domain.CategoryRestaurant && q.Cuisine != "" {
		categoryID += "." + cuisinePath(q.Cuisine)
	}

	limit := q.MaxResults
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("categories", categoryID)
	params.Set("filter", fmt.Sprintf("rect:%g,%g,%g,%g",
		q.Bounds.MinLng, q.Bounds.MinLat, q.Bounds.MaxLng, q.Bounds.MaxLat))
	params.Set("limit", strconv.Itoa(limit))
	if c.apiKey != "" {
		params.Set("apiKey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("find pois: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("find pois: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("find pois: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("find pois: HTTP %d for %s", resp.StatusCode, c.baseURL)
	}

	var out struct {
		Features []struct {
			Properties struct {
				PlaceID    string  `json:"place_id"`
				Name       string  `json:"name"`
				Lat        float64 `json:"lat"`
				Lon        float64 `json:"lon"`
				Datasource struct {
					Raw map[string]any `json:"raw"`
				} `json:"datasource"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("find pois: decode: %w", err)
	}

	for _, f := range out.Features {
		p := f.Properties
		// Unnamed map features are noise for a named-place search.
		if p.Name == "" {
			continue
		}
		poi := domain.POI{
			ID:       p.PlaceID,
			Name:     p.Name,
			Category: q.Category,
			Lat:      p.Lat,
			Lng:      p.Lon,
		}
		for k, v := range p.Datasource.Raw {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if poi.Tags == nil {
				poi.Tags = make(map[string]string)
			}
			poi.Tags[k] = s
		}
		pois = append(pois, poi)
	}
	return pois, nil
}

// cuisinePath converts a normalized cuisine token to the API's subcategory
// spelling.
func cuisinePath(cuisine string) string {
	if cuisine == "bbq" {
		return "barbecue"
	}
	return cuisine
}
