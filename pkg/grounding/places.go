package grounding

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"friendlist-be/pkg/venue"

	"github.com/go-resty/resty/v2"
	"github.com/patrickmn/go-cache"
)

const (
	DefaultPlacesBaseURL = "https://maps.googleapis.com/maps/api/place"
	MaxPlaces            = 10

	mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="
)

var ErrPlacesNotConfigured = errors.New("google places api key not configured")

// Venue is one normalized venue-search hit.
type Venue struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Type         string   `json:"type"`
	Rating       *float64 `json:"rating,omitempty"`
	ReviewCount  *int     `json:"reviewCount,omitempty"`
	PriceRange   string   `json:"priceRange,omitempty"`
	IsOpen       *bool    `json:"isOpen,omitempty"`
	MapsURL      string   `json:"mapsUrl"`
}

var placeTypes = map[string]string{
	"restaurant":    "Restaurant",
	"bar":           "Bar",
	"night_club":    "Club",
	"cafe":          "Cafe",
	"bakery":        "Bakery",
	"meal_takeaway": "Restaurant",
	"meal_delivery": "Restaurant",
	"gym":           "Gym",
	"spa":           "Spa",
	"museum":        "Museum",
	"art_gallery":   "Gallery",
	"movie_theater": "Theater",
	"shopping_mall": "Shopping",
	"store":         "Store",
	"park":          "Park",
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		Types            []string `json:"types"`
		OpeningHours     *struct {
			OpenNow *bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
}

type PlacesClient struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	cache   *cache.Cache
}

type PlacesOption func(*PlacesClient)

func WithPlacesBaseURL(base string) PlacesOption {
	return func(p *PlacesClient) {
		if base != "" {
			p.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func NewPlacesClient(apiKey string, timeout time.Duration, opts ...PlacesOption) *PlacesClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	p := &PlacesClient{
		client:  resty.New().SetTimeout(timeout),
		apiKey:  apiKey,
		baseURL: DefaultPlacesBaseURL,
		cache:   cache.New(1*time.Hour, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PlacesClient) Configured() bool {
	return p != nil && p.apiKey != ""
}

// Search runs a text search for query scoped to NYC. A non-OK provider status
// yields an empty result, not an error.
func (p *PlacesClient) Search(ctx context.Context, query string) ([]Venue, error) {
	if !p.Configured() {
		return nil, ErrPlacesNotConfigured
	}

	cacheKey := fmt.Sprintf("places:%s", strings.ToLower(strings.TrimSpace(query)))
	if val, ok := p.cache.Get(cacheKey); ok {
		return val.([]Venue), nil
	}

	var out textSearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": query + " NYC",
			"key":   p.apiKey,
		}).
		SetResult(&out).
		Get(p.baseURL + "/textsearch/json")
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("places error: status %d", resp.StatusCode())
	}

	venues := []Venue{}
	if out.Status == "OK" {
		for i, r := range out.Results {
			if i == MaxPlaces {
				break
			}
			v := Venue{
				Name:         r.Name,
				Address:      r.FormattedAddress,
				Neighborhood: neighborhoodOf(r.FormattedAddress),
				Type:         placeTypeOf(r.Types),
				Rating:       r.Rating,
				ReviewCount:  r.UserRatingsTotal,
				MapsURL:      mapsSearchURL + encodeURIComponent(r.Name+" "+r.FormattedAddress),
			}
			if r.PriceLevel != nil {
				v.PriceRange = venue.PriceTier(*r.PriceLevel)
			}
			if r.OpeningHours != nil {
				v.IsOpen = r.OpeningHours.OpenNow
			}
			venues = append(venues, v)
		}
	}

	p.cache.Set(cacheKey, venues, cache.DefaultExpiration)
	return venues, nil
}

func neighborhoodOf(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func placeTypeOf(types []string) string {
	for _, t := range types {
		if mapped, ok := placeTypes[t]; ok {
			return mapped
		}
	}
	return "Place"
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
