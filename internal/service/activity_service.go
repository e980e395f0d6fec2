package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/metrics"
	"friendlist-be/pkg/events"
)

const (
	// ActivitySubject covers the whole stream; Handle keeps only item events.
	ActivitySubject = "events.>"
	ActivityDurable = "item-activity"

	maxActivity = 50
)

// IActivityService consumes item events from the bus and keeps the most recent ones.
type IActivityService interface {
	Handle(ctx context.Context, event events.Event) error
	Recent(limit int) []*dto.ItemActivityResponse
}

type activityService struct {
	mu     sync.Mutex
	recent []*dto.ItemActivityResponse
	logger logger.ILogger
}

func NewActivityService(log logger.ILogger) IActivityService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &activityService{logger: log}
}

func (s *activityService) Handle(ctx context.Context, event events.Event) error {
	if !strings.HasPrefix(event.EventType(), "ITEM_") {
		return nil
	}
	metrics.ItemEventsTotal.WithLabelValues(event.EventType()).Inc()

	data := event.Payload()
	entry := &dto.ItemActivityResponse{
		Type:       event.EventType(),
		ItemId:     stringField(data, "item_id"),
		Text:       stringField(data, "text"),
		Category:   stringField(data, "category"),
		Source:     stringField(data, "source"),
		OccurredAt: event.Timestamp(),
	}

	s.mu.Lock()
	s.recent = append([]*dto.ItemActivityResponse{entry}, s.recent...)
	if len(s.recent) > maxActivity {
		s.recent = s.recent[:maxActivity]
	}
	s.mu.Unlock()

	s.logger.Info("ActivityService", "Item changed", map[string]interface{}{
		"type":    entry.Type,
		"item_id": entry.ItemId,
		"source":  entry.Source,
	})
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all.
func (s *activityService) Recent(limit int) []*dto.ItemActivityResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.recent) {
		limit = len(s.recent)
	}
	return append([]*dto.ItemActivityResponse(nil), s.recent[:limit]...)
}

func stringField(data map[string]interface{}, key string) string {
	v, ok := data[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
