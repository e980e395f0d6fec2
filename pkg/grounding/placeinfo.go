package grounding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/venue"
)

const placeLookupSystem = "You are a knowledgeable NYC local expert. Always respond with valid JSON only."

// PlaceDetails is the model's answer to a single place lookup.
type PlaceDetails struct {
	Found           bool    `json:"found"`
	Name            string  `json:"name,omitempty"`
	Type            string  `json:"type,omitempty"`
	Category        string  `json:"category,omitempty"`
	Neighborhood    string  `json:"neighborhood,omitempty"`
	Address         *string `json:"address,omitempty"`
	Description     string  `json:"description,omitempty"`
	KnownFor        string  `json:"knownFor,omitempty"`
	PriceRange      *string `json:"priceRange,omitempty"`
	Tips            string  `json:"tips,omitempty"`
	GoogleMapsQuery string  `json:"googleMapsQuery,omitempty"`
}

// PlaceInfo converts a found lookup into the item-level place summary.
func (d PlaceDetails) PlaceInfo() *venue.PlaceInfo {
	if !d.Found || d.Name == "" {
		return nil
	}
	info := &venue.PlaceInfo{
		Name:         d.Name,
		Type:         d.Type,
		Neighborhood: d.Neighborhood,
		Description:  d.Description,
		KnownFor:     d.KnownFor,
		Tips:         d.Tips,
	}
	if d.Address != nil {
		info.Address = *d.Address
	}
	if d.PriceRange != nil {
		info.PriceRange = *d.PriceRange
	}
	return info
}

type PlaceLookup struct {
	provider llm.LLMProvider
}

func NewPlaceLookup(provider llm.LLMProvider) *PlaceLookup {
	return &PlaceLookup{provider: provider}
}

// Lookup asks the model what it knows about query. A reply without a JSON
// object, or with one that does not decode, is reported as not found.
func (l *PlaceLookup) Lookup(ctx context.Context, query, kind string) (*PlaceDetails, error) {
	content, err := l.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: placeLookupSystem},
		{Role: llm.RoleUser, Content: placeLookupPrompt(query, kind)},
	}, llm.WithTemperature(0.3), llm.WithMaxTokens(1024), llm.WithWebSearch(false))
	if err != nil {
		return nil, fmt.Errorf("place lookup: %w", err)
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return &PlaceDetails{Found: false}, nil
	}

	var details PlaceDetails
	if err := json.Unmarshal([]byte(content[start:end+1]), &details); err != nil {
		return &PlaceDetails{Found: false}, nil
	}
	return &details, nil
}

func placeLookupPrompt(query, kind string) string {
	if kind == "" {
		kind = "a place"
	}
	return fmt.Sprintf(`You are a NYC local expert assistant. Search your knowledge for information about: "%s"

Context: The user is in NYC and looking for %s.

If this is a restaurant, bar, club, or venue, provide:
1. Full name of the place
2. Type (Restaurant, Bar, Club, Cafe, etc.)
3. Neighborhood/area in NYC
4. Approximate address if known
5. What it's known for (cuisine type, vibe, specialty)
6. Price range ($, $$, $$$, $$$$)
7. Any notable details

If this is an activity or event, provide:
1. Name/description
2. Location in NYC
3. Type of activity
4. Best time to go
5. Any tips

Respond in JSON format:
{
  "found": true/false,
  "name": "Official place name",
  "type": "Restaurant" | "Bar" | "Club" | "Cafe" | "Activity" | "Event" | "Shop" | "Other",
  "category": "Food" | "Nightlife" | "Activity" | "Entertainment" | "Shopping" | "Other",
  "neighborhood": "e.g., East Village, Williamsburg",
  "address": "approximate address or null",
  "description": "brief description of what it is",
  "knownFor": "what it's famous for",
  "priceRange": "$" | "$$" | "$$$" | "$$$$" | null,
  "tips": "any useful tips",
  "googleMapsQuery": "search query for Google Maps"
}`, query, kind)
}
