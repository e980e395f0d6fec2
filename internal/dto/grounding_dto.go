package dto

import "friendlist-be/pkg/grounding"

type ScrapeRequest struct {
	Url string `json:"url"`
}

type PlacesRequest struct {
	Query string `json:"query" validate:"required"`
}

type PlacesResponse struct {
	Results []grounding.Venue `json:"results"`
}

type PlaceLookupRequest struct {
	Query string `json:"query" validate:"required"`
	Type  string `json:"type"`
}
