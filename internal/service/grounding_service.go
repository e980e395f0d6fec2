package service

import (
	"context"
	"errors"
	"strings"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
)

var ErrURLRequired = errors.New("url is required")

// IGroundingService backs the raw fetch and gateway routes the web client calls directly.
type IGroundingService interface {
	Scrape(ctx context.Context, url string) (*grounding.Page, error)
	Places(ctx context.Context, query string) (*dto.PlacesResponse, error)
	Complete(ctx context.Context, req *dto.ChatCompletionRequest) (*llm.Response, error)
	PlaceInfo(ctx context.Context, req *dto.PlaceLookupRequest) (*grounding.PlaceDetails, error)
}

type groundingService struct {
	scraper  *grounding.Scraper
	places   *grounding.PlacesClient
	provider llm.LLMProvider
	lookup   *grounding.PlaceLookup
	logger   logger.ILogger
}

func NewGroundingService(scraper *grounding.Scraper, places *grounding.PlacesClient, provider llm.LLMProvider, log logger.ILogger) IGroundingService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &groundingService{
		scraper:  scraper,
		places:   places,
		provider: provider,
		lookup:   grounding.NewPlaceLookup(provider),
		logger:   log,
	}
}

func (s *groundingService) Scrape(ctx context.Context, url string) (*grounding.Page, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrURLRequired
	}

	page, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		s.logger.Warn("GroundingService", "Scrape failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, err
	}
	return page, nil
}

func (s *groundingService) Places(ctx context.Context, query string) (*dto.PlacesResponse, error) {
	venues, err := s.places.Search(ctx, query)
	if err != nil {
		if !errors.Is(err, grounding.ErrPlacesNotConfigured) {
			s.logger.Error("GroundingService", "Places search failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
		}
		return nil, err
	}
	return &dto.PlacesResponse{Results: venues}, nil
}

// Complete forwards a raw chat history. Web search is offered unless the caller turns it off.
func (s *groundingService) Complete(ctx context.Context, req *dto.ChatCompletionRequest) (*llm.Response, error) {
	enableSearch := true
	if req.EnableSearch != nil {
		enableSearch = *req.EnableSearch
	}

	res, err := s.provider.Complete(ctx, req.Messages, llm.WithWebSearch(enableSearch))
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.logger.Error("GroundingService", "Gateway call failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, err
	}
	return res, nil
}

func (s *groundingService) PlaceInfo(ctx context.Context, req *dto.PlaceLookupRequest) (*grounding.PlaceDetails, error) {
	details, err := s.lookup.Lookup(ctx, req.Query, req.Type)
	if err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			s.logger.Error("GroundingService", "Place lookup failed", map[string]interface{}{
				"query": req.Query,
				"error": err.Error(),
			})
		}
		return nil, err
	}
	return details, nil
}
