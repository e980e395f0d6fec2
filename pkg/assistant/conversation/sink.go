package conversation

import (
	"context"

	"friendlist-be/pkg/assistant/prompt"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/venue"
)

// Draft is the content of a new list item.
type Draft struct {
	Text     string
	Category venue.Category
	Link     string
	Place    *venue.PlaceInfo
}

// Sink applies confirmed mutations to the shared list.
type Sink interface {
	Items(ctx context.Context) ([]prompt.ListItem, error)
	Add(ctx context.Context, draft Draft) error
	// Update changes only text and category.
	Update(ctx context.Context, id, text string, category venue.Category) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Filter receives accepted search proposals.
type Filter interface {
	ApplySearch(query string)
}

type Grounder interface {
	Ground(ctx context.Context, text string) grounding.Result
}
