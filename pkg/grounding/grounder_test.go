package grounding

import (
	"context"
	"errors"
	"testing"

	"friendlist-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeFetcher struct {
	pages map[string]*Page
	calls []string
}

func (f *fakeFetcher) Scrape(_ context.Context, url string) (*Page, error) {
	f.calls = append(f.calls, url)
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, ErrFetchFailed
}

type fakeSearcher struct {
	venues []Venue
	err    error
	calls  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]Venue, error) {
	f.calls = append(f.calls, query)
	return f.venues, f.err
}

func TestGrounder_PagesSupersedeVenues(t *testing.T) {
	pages := &fakeFetcher{pages: map[string]*Page{
		"https://eater.com/list": {Title: "Eater list", Content: "Carbone, Via Carota"},
	}}
	venues := &fakeSearcher{venues: []Venue{{Name: "Carbone"}}}
	g := NewGrounder(pages, venues, logger.NewNopLogger())

	res := g.Ground(context.Background(), "add everything from https://eater.com/list")

	assert.Len(t, res.Pages, 1)
	assert.Empty(t, res.Venues)
	assert.Empty(t, venues.calls)
}

func TestGrounder_FailedPagesFallBackToVenues(t *testing.T) {
	pages := &fakeFetcher{pages: map[string]*Page{
		"https://empty.example": {Title: "Empty"},
	}}
	venues := &fakeSearcher{venues: []Venue{{Name: "Carbone"}}}
	g := NewGrounder(pages, venues, logger.NewNopLogger())

	text := "see https://broken.example and https://empty.example"
	res := g.Ground(context.Background(), text)

	assert.Equal(t, []string{"https://broken.example", "https://empty.example"}, pages.calls)
	assert.Empty(t, res.Pages)
	assert.Equal(t, []string{text}, venues.calls)
	assert.Len(t, res.Venues, 1)
}

func TestGrounder_DegradesSilently(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"not configured", ErrPlacesNotConfigured},
		{"upstream failure", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrounder(&fakeFetcher{}, &fakeSearcher{err: tt.err}, logger.NewNopLogger())
			res := g.Ground(context.Background(), "sushi")
			assert.True(t, res.Empty())
		})
	}
}
