package entity

import (
	"time"

	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
)

type Item struct {
	Id        uuid.UUID
	Text      string
	Category  venue.Category
	Link      *string
	Done      bool
	Place     *venue.PlaceInfo
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// ItemPatch carries the fields of a partial update; nil fields are left alone.
type ItemPatch struct {
	Text     *string
	Category *venue.Category
	Link     *string
	Done     *bool
	Place    *venue.PlaceInfo
}

func (i *Item) Apply(p ItemPatch) {
	if p.Text != nil {
		i.Text = *p.Text
	}
	if p.Category != nil {
		i.Category = *p.Category
	}
	if p.Link != nil {
		link := *p.Link
		if link == "" {
			i.Link = nil
		} else {
			i.Link = &link
		}
	}
	if p.Done != nil {
		i.Done = *p.Done
	}
	if p.Place != nil {
		i.Place = p.Place
	}
}
