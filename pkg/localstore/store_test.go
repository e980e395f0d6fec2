package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"friendlist-be/internal/entity"
	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(text string, created time.Time) entity.Item {
	return entity.Item{Id: uuid.New(), Text: text, Category: venue.CategoryFood, CreatedAt: created}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "items.gob")
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)

	old := item("Old", base)
	rating := 4.2
	old.Place = &venue.PlaceInfo{Name: "Old", Type: "Bar", Rating: &rating}
	require.NoError(t, s.Add(old))
	require.NoError(t, s.Add(item("New", base.Add(time.Hour))))

	reopened, err := Open(path)
	require.NoError(t, err)

	items := reopened.List()
	require.Len(t, items, 2)
	assert.Equal(t, "New", items[0].Text)
	assert.Equal(t, "Old", items[1].Text)
	require.NotNil(t, items[1].Place)
	assert.InDelta(t, 4.2, *items[1].Place.Rating, 0.001)
}

func TestStore_ListSortsByCreatedAt(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	base := time.Now()
	// Added out of order: Add prepends, List still sorts.
	require.NoError(t, s.Add(item("middle", base)))
	require.NoError(t, s.Add(item("oldest", base.Add(-time.Hour))))
	require.NoError(t, s.Add(item("newest", base.Add(time.Hour))))

	var texts []string
	for _, it := range s.List() {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{"newest", "middle", "oldest"}, texts)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)

	it := item("Carbone", time.Now())
	require.NoError(t, s.Add(it))

	it.Done = true
	ok, err := s.Update(it)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := s.Get(it.Id)
	require.True(t, found)
	assert.True(t, got.Done)

	ok, err = s.Update(item("ghost", time.Now()))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Delete(it.Id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(it.Id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, s.List())
}
