package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"friendlist-be/internal/dto"
	"friendlist-be/internal/entity"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/pkg/metrics"
	"friendlist-be/internal/repository/specification"
	"friendlist-be/internal/repository/unitofwork"
	"friendlist-be/pkg/events"
	"friendlist-be/pkg/feed"
	"friendlist-be/pkg/localstore"
	"friendlist-be/pkg/venue"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var ErrItemNotFound = errors.New("item not found")

const (
	SourceDatabase = "database"
	SourceLocal    = "local"
)

type IItemService interface {
	List(ctx context.Context, filter dto.ItemFilter) ([]*dto.ItemResponse, error)
	Stats(ctx context.Context, showDone bool) (*dto.ItemStatsResponse, error)
	Create(ctx context.Context, req *dto.CreateItemRequest) (*dto.ItemResponse, error)
	Update(ctx context.Context, id uuid.UUID, req *dto.UpdateItemRequest) (*dto.ItemResponse, error)
	SetDone(ctx context.Context, id uuid.UUID, done bool) (*dto.ItemResponse, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// Subscribe delivers the full list after every change until the returned func is called.
	Subscribe(fn func(items []*dto.ItemResponse)) (func(), error)
	Close() error
}

type ItemServiceDeps struct {
	// UowFactory is nil when the database was unreachable at startup.
	UowFactory unitofwork.RepositoryFactory
	Local      *localstore.Store
	Feed       *feed.Feed
	Events     events.Publisher
	Logger     logger.ILogger
	Now        func() time.Time
	OnClose    []func()
}

type itemService struct {
	uowFactory unitofwork.RepositoryFactory
	local      *localstore.Store
	feed       *feed.Feed
	events     events.Publisher
	logger     logger.ILogger
	now        func() time.Time
	onClose    []func()
}

func NewItemService(deps ItemServiceDeps) IItemService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNopLogger()
	}
	return &itemService{
		uowFactory: deps.UowFactory,
		local:      deps.Local,
		feed:       deps.Feed,
		events:     deps.Events,
		logger:     deps.Logger,
		now:        deps.Now,
		onClose:    deps.OnClose,
	}
}

func (s *itemService) List(ctx context.Context, filter dto.ItemFilter) ([]*dto.ItemResponse, error) {
	if s.uowFactory != nil {
		specs := []specification.Specification{specification.ItemSearchQuery{Query: filter.Query}}
		if filter.Category != "" {
			specs = append(specs, specification.ByCategory{Category: string(venue.NormalizeCategory(filter.Category))})
		}
		if !filter.ShowDone {
			specs = append(specs, specification.NotDone{})
		}
		specs = append(specs, specification.OrderBy{Field: "created_at", Desc: true})

		items, err := s.uowFactory.NewUnitOfWork(ctx).ItemRepository().FindAll(ctx, specs...)
		if err == nil {
			return toItemResponses(lo.FromSlicePtr(items)), nil
		}
		s.fallback("list", err)
	}

	return toItemResponses(FilterItems(s.local.List(), filter)), nil
}

func (s *itemService) Stats(ctx context.Context, showDone bool) (*dto.ItemStatsResponse, error) {
	items, source := s.all(ctx)

	base := items
	if !showDone {
		base = lo.Filter(items, func(it entity.Item, _ int) bool { return !it.Done })
	}

	counts := make(map[venue.Category]int, len(venue.Categories))
	for _, c := range venue.Categories {
		counts[c] = 0
	}
	for _, it := range base {
		counts[it.Category]++
	}

	return &dto.ItemStatsResponse{
		Total:          len(items),
		Visible:        len(base),
		DoneCount:      lo.CountBy(items, func(it entity.Item) bool { return it.Done }),
		CategoryCounts: counts,
		Source:         source,
	}, nil
}

func (s *itemService) Create(ctx context.Context, req *dto.CreateItemRequest) (*dto.ItemResponse, error) {
	item := entity.Item{
		Id:        uuid.New(),
		Text:      strings.TrimSpace(req.Text),
		Category:  venue.NormalizeCategory(req.Category),
		Place:     req.Place,
		CreatedAt: s.now(),
	}
	if req.Link != "" {
		link := req.Link
		item.Link = &link
	}

	source := SourceLocal
	if s.uowFactory != nil {
		err := s.uowFactory.NewUnitOfWork(ctx).ItemRepository().Create(ctx, &item)
		if err == nil {
			source = SourceDatabase
		} else {
			s.fallback("create", err)
		}
	}
	if source == SourceLocal {
		if err := s.local.Add(item); err != nil {
			return nil, err
		}
	}

	s.changed(ctx, events.ItemAdded, item, source)
	return toItemResponse(item), nil
}

func (s *itemService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	patch := entity.ItemPatch{
		Text:  req.Text,
		Link:  req.Link,
		Done:  req.Done,
		Place: req.Place,
	}
	if req.Category != nil {
		c := venue.NormalizeCategory(*req.Category)
		patch.Category = &c
	}
	return s.patch(ctx, id, patch)
}

func (s *itemService) SetDone(ctx context.Context, id uuid.UUID, done bool) (*dto.ItemResponse, error) {
	return s.patch(ctx, id, entity.ItemPatch{Done: &done})
}

func (s *itemService) patch(ctx context.Context, id uuid.UUID, p entity.ItemPatch) (*dto.ItemResponse, error) {
	if s.uowFactory != nil {
		item, err := s.updateInDatabase(ctx, id, p)
		if err == nil {
			s.changed(ctx, events.ItemUpdated, *item, SourceDatabase)
			return toItemResponse(*item), nil
		}
		if errors.Is(err, ErrItemNotFound) {
			return nil, err
		}
		s.fallback("update", err)
	}

	item, ok := s.local.Get(id)
	if !ok {
		return nil, ErrItemNotFound
	}
	item.Apply(p)
	now := s.now()
	item.UpdatedAt = &now

	found, err := s.local.Update(item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrItemNotFound
	}

	s.changed(ctx, events.ItemUpdated, item, SourceLocal)
	return toItemResponse(item), nil
}

func (s *itemService) updateInDatabase(ctx context.Context, id uuid.UUID, p entity.ItemPatch) (*entity.Item, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	item, err := uow.ItemRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	item.Apply(p)
	if err := uow.ItemRepository().Update(ctx, item); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *itemService) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	var (
		deleted bool
		source  = SourceLocal
	)

	if s.uowFactory != nil {
		ok, err := s.uowFactory.NewUnitOfWork(ctx).ItemRepository().Delete(ctx, id)
		if err == nil {
			deleted, source = ok, SourceDatabase
		} else {
			s.fallback("delete", err)
		}
	}
	if source == SourceLocal {
		ok, err := s.local.Delete(id)
		if err != nil {
			return false, err
		}
		deleted = ok
	}

	if deleted {
		s.changed(ctx, events.ItemDeleted, entity.Item{Id: id}, source)
	}
	return deleted, nil
}

func (s *itemService) Subscribe(fn func(items []*dto.ItemResponse)) (func(), error) {
	if s.feed == nil {
		return func() {}, nil
	}
	return s.feed.Subscribe(func(payload []byte) {
		var items []*dto.ItemResponse
		if err := json.Unmarshal(payload, &items); err != nil {
			s.logger.Warn("ItemService", "Dropped malformed snapshot", map[string]interface{}{"error": err.Error()})
			return
		}
		fn(items)
	})
}

func (s *itemService) Close() error {
	for _, fn := range s.onClose {
		fn()
	}
	if s.feed != nil {
		return s.feed.Close()
	}
	return nil
}

// all returns every item, newest first, and where it was read from.
func (s *itemService) all(ctx context.Context) ([]entity.Item, string) {
	if s.uowFactory != nil {
		items, err := s.uowFactory.NewUnitOfWork(ctx).ItemRepository().FindAll(ctx,
			specification.OrderBy{Field: "created_at", Desc: true},
		)
		if err == nil {
			return lo.FromSlicePtr(items), SourceDatabase
		}
		s.fallback("list", err)
	}
	return s.local.List(), SourceLocal
}

func (s *itemService) fallback(op string, err error) {
	metrics.StoreFallbacksTotal.WithLabelValues(op).Inc()
	s.logger.Warn("ItemService", "Database unavailable, using local store", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
}

// changed pushes a fresh snapshot to feed subscribers and an event to the bus.
func (s *itemService) changed(ctx context.Context, kind string, item entity.Item, source string) {
	if s.feed != nil {
		items, _ := s.all(ctx)
		if err := s.feed.Publish(toItemResponses(items)); err != nil {
			s.logger.Warn("ItemService", "Failed to publish snapshot", map[string]interface{}{"error": err.Error()})
		}
	}

	if s.events != nil {
		ev := events.NewItemEvent(kind, item.Id.String(), item.Text, string(item.Category), source)
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.Warn("ItemService", "Failed to publish item event", map[string]interface{}{
				"type":  kind,
				"error": err.Error(),
			})
		}
	}
}

// FilterItems applies the list filters in memory: a case-insensitive query over
// text, category, place neighborhood and place type, an exact category, and the
// show-done toggle.
func FilterItems(items []entity.Item, f dto.ItemFilter) []entity.Item {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	category := ""
	if f.Category != "" {
		category = string(venue.NormalizeCategory(f.Category))
	}

	return lo.Filter(items, func(it entity.Item, _ int) bool {
		if query != "" && !matchesQuery(it, query) {
			return false
		}
		if category != "" && string(it.Category) != category {
			return false
		}
		return f.ShowDone || !it.Done
	})
}

func matchesQuery(it entity.Item, query string) bool {
	if strings.Contains(strings.ToLower(it.Text), query) ||
		strings.Contains(strings.ToLower(string(it.Category)), query) {
		return true
	}
	if it.Place == nil {
		return false
	}
	return strings.Contains(strings.ToLower(it.Place.Neighborhood), query) ||
		strings.Contains(strings.ToLower(it.Place.Type), query)
}

func toItemResponse(it entity.Item) *dto.ItemResponse {
	return &dto.ItemResponse{
		Id:        it.Id,
		Text:      it.Text,
		Category:  it.Category,
		Link:      it.Link,
		Done:      it.Done,
		Place:     it.Place,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func toItemResponses(items []entity.Item) []*dto.ItemResponse {
	return lo.Map(items, func(it entity.Item, _ int) *dto.ItemResponse { return toItemResponse(it) })
}
