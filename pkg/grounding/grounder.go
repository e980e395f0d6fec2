package grounding

import (
	"context"
	"errors"

	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/metrics"
)

type PageFetcher interface {
	Scrape(ctx context.Context, url string) (*Page, error)
}

type VenueSearcher interface {
	Search(ctx context.Context, query string) ([]Venue, error)
}

// Result is the grounding data gathered for one user message. At most one of
// Pages and Venues is populated.
type Result struct {
	Pages  []Page
	Venues []Venue
}

func (r Result) Empty() bool {
	return len(r.Pages) == 0 && len(r.Venues) == 0
}

type Grounder struct {
	pages  PageFetcher
	venues VenueSearcher
	logger logger.ILogger
}

func NewGrounder(pages PageFetcher, venues VenueSearcher, log logger.ILogger) *Grounder {
	return &Grounder{pages: pages, venues: venues, logger: log}
}

// Ground never fails. Linked pages are fetched first; a venue search runs only
// when no page produced content.
func (g *Grounder) Ground(ctx context.Context, text string) Result {
	var res Result

	for _, u := range DetectURLs(text) {
		page, err := g.pages.Scrape(ctx, u)
		if err != nil {
			metrics.GroundingRequestsTotal.WithLabelValues("url", "error").Inc()
			g.logger.Warn("GROUNDING", "Scrape failed", map[string]interface{}{
				"url":   u,
				"error": err.Error(),
			})
			continue
		}
		if page.Content == "" {
			metrics.GroundingRequestsTotal.WithLabelValues("url", "empty").Inc()
			continue
		}
		metrics.GroundingRequestsTotal.WithLabelValues("url", "ok").Inc()
		res.Pages = append(res.Pages, *page)
	}
	if len(res.Pages) > 0 || g.venues == nil {
		return res
	}

	venues, err := g.venues.Search(ctx, text)
	switch {
	case errors.Is(err, ErrPlacesNotConfigured):
		metrics.GroundingRequestsTotal.WithLabelValues("places", "disabled").Inc()
	case err != nil:
		metrics.GroundingRequestsTotal.WithLabelValues("places", "error").Inc()
		g.logger.Warn("GROUNDING", "Places search failed", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		metrics.GroundingRequestsTotal.WithLabelValues("places", "ok").Inc()
		res.Venues = venues
	}
	return res
}
