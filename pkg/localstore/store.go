// Package localstore keeps the item list in a file-backed cache. It is the
// durable fallback used whenever the primary database is unavailable.
package localstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"friendlist-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const StorageKey = "friendlist_items"

func init() {
	gob.Register([]entity.Item{})
}

type Store struct {
	mu    sync.Mutex
	path  string
	cache *cache.Cache
}

// Open loads path if it exists. An empty path keeps the list in memory only.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		cache: cache.New(cache.NoExpiration, 0),
	}
	if path == "" {
		return s, nil
	}
	if err := s.cache.LoadFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load local store %s: %w", path, err)
	}
	return s, nil
}

// List returns a copy of all items, newest first.
func (s *Store) List() []entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]entity.Item(nil), s.itemsLocked()...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

func (s *Store) Get(id uuid.UUID) (entity.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, it := range s.itemsLocked() {
		if it.Id == id {
			return it, true
		}
	}
	return entity.Item{}, false
}

// Add puts item at the front of the list.
func (s *Store) Add(item entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]entity.Item{item}, s.itemsLocked()...)
	return s.saveLocked(items)
}

// Update replaces the stored item with the same id. It reports false when
// there is none.
func (s *Store) Update(item entity.Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := append([]entity.Item(nil), s.itemsLocked()...)
	for i := range items {
		if items[i].Id == item.Id {
			items[i] = item
			return true, s.saveLocked(items)
		}
	}
	return false, nil
}

func (s *Store) Delete(id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.itemsLocked()
	items := make([]entity.Item, 0, len(current))
	for _, it := range current {
		if it.Id != id {
			items = append(items, it)
		}
	}
	if len(items) == len(current) {
		return false, nil
	}
	return true, s.saveLocked(items)
}

func (s *Store) itemsLocked() []entity.Item {
	if v, ok := s.cache.Get(StorageKey); ok {
		return v.([]entity.Item)
	}
	return nil
}

func (s *Store) saveLocked(items []entity.Item) error {
	s.cache.Set(StorageKey, items, cache.NoExpiration)
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create local store dir: %w", err)
	}
	if err := s.cache.SaveFile(s.path); err != nil {
		return fmt.Errorf("save local store: %w", err)
	}
	return nil
}
