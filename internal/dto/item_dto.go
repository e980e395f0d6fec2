package dto

import (
	"time"

	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
)

type ItemResponse struct {
	Id        uuid.UUID        `json:"id"`
	Text      string           `json:"text"`
	Category  venue.Category   `json:"category"`
	Link      *string          `json:"link"`
	Done      bool             `json:"done"`
	Place     *venue.PlaceInfo `json:"place,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

type CreateItemRequest struct {
	Text     string           `json:"text" validate:"required,max=500"`
	Category string           `json:"category" validate:"omitempty,oneof=Food Nightlife Activity Entertainment Shopping Travel Other"`
	Link     string           `json:"link" validate:"omitempty,url"`
	Place    *venue.PlaceInfo `json:"place"`
}

// UpdateItemRequest is a partial update; absent fields are left unchanged.
type UpdateItemRequest struct {
	Text     *string          `json:"text" validate:"omitempty,max=500"`
	Category *string          `json:"category" validate:"omitempty,oneof=Food Nightlife Activity Entertainment Shopping Travel Other"`
	Link     *string          `json:"link"`
	Done     *bool            `json:"done"`
	Place    *venue.PlaceInfo `json:"place"`
}

type ToggleDoneRequest struct {
	Done *bool `json:"done" validate:"required"`
}

type ItemFilter struct {
	Query    string `query:"q"`
	Category string `query:"category"`
	ShowDone bool   `query:"show_done"`
}

type ItemStatsResponse struct {
	Total          int                    `json:"total"`
	Visible        int                    `json:"visible"`
	DoneCount      int                    `json:"done_count"`
	CategoryCounts map[venue.Category]int `json:"category_counts"`
	Source         string                 `json:"source"`
}

type ItemActivityResponse struct {
	Type       string    `json:"type"`
	ItemId     string    `json:"item_id"`
	Text       string    `json:"text"`
	Category   string    `json:"category"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}
