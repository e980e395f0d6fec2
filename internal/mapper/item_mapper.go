package mapper

import (
	"encoding/json"
	"time"

	"friendlist-be/internal/entity"
	"friendlist-be/internal/model"
	"friendlist-be/pkg/venue"

	"gorm.io/datatypes"
)

type ItemMapper struct{}

func NewItemMapper() *ItemMapper {
	return &ItemMapper{}
}

func (m *ItemMapper) ToEntity(i *model.Item) *entity.Item {
	if i == nil {
		return nil
	}

	var updatedAt *time.Time
	if !i.UpdatedAt.IsZero() {
		t := i.UpdatedAt
		updatedAt = &t
	}

	var place *venue.PlaceInfo
	if len(i.Place) > 0 && string(i.Place) != "null" {
		var p venue.PlaceInfo
		if err := json.Unmarshal(i.Place, &p); err == nil {
			place = &p
		}
	}

	return &entity.Item{
		Id:        i.Id,
		Text:      i.Text,
		Category:  venue.NormalizeCategory(i.Category),
		Link:      i.Link,
		Done:      i.Done,
		Place:     place,
		CreatedAt: i.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ItemMapper) ToModel(i *entity.Item) *model.Item {
	if i == nil {
		return nil
	}

	var updatedAt time.Time
	if i.UpdatedAt != nil {
		updatedAt = *i.UpdatedAt
	}

	var place datatypes.JSON
	if i.Place != nil {
		if raw, err := json.Marshal(i.Place); err == nil {
			place = datatypes.JSON(raw)
		}
	}

	return &model.Item{
		Id:        i.Id,
		Text:      i.Text,
		Category:  string(i.Category),
		Link:      i.Link,
		Done:      i.Done,
		Place:     place,
		CreatedAt: i.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ItemMapper) ToEntities(items []*model.Item) []*entity.Item {
	entities := make([]*entity.Item, len(items))
	for i, it := range items {
		entities[i] = m.ToEntity(it)
	}
	return entities
}
