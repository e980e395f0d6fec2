package events

import "time"

const (
	ItemAdded   = "ITEM_ADDED"
	ItemUpdated = "ITEM_UPDATED"
	ItemDeleted = "ITEM_DELETED"
)

// NewItemEvent describes a change to one list item.
func NewItemEvent(kind, itemID, text, category, source string) BaseEvent {
	return BaseEvent{
		Type: kind,
		Data: map[string]interface{}{
			"item_id":  itemID,
			"text":     text,
			"category": category,
			"source":   source,
		},
		OccurredAt: time.Now(),
	}
}
