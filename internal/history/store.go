package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/repository"
	"go.uber.org/zap"
)

// DefaultKey is the storage key holding the serialized history
const DefaultKey = "weatherSearchHistory"

// ErrEmptyCity is returned when recording a blank city name
var ErrEmptyCity = errors.New("city name is empty")

// Store keeps the recent-search history in memory and mirrors it to a key-value repository.
// Mutations are serialized; the last one to complete wins.
type Store struct {
	repo   repository.KVRepository
	key    string
	logger *zap.Logger

	mu      sync.RWMutex
	entries model.SearchHistory
}

// New creates a history store. An empty key falls back to DefaultKey.
func New(repo repository.KVRepository, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		repo:    repo,
		key:     key,
		logger:  logger,
		entries: model.SearchHistory{},
	}
}

// Load reads the persisted history into memory. Missing or unreadable state yields an empty history.
func (s *Store) Load(ctx context.Context) model.SearchHistory {
	entries := s.read(ctx)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	return entries.Clone()
}

func (s *Store) read(ctx context.Context) model.SearchHistory {
	raw, err := s.repo.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Failed to read search history, starting empty",
				zap.String("key", s.key), zap.Error(err))
		}
		return model.SearchHistory{}
	}

	var stored []string
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.logger.Warn("Malformed search history, starting empty",
			zap.String("key", s.key), zap.Error(err))
		return model.SearchHistory{}
	}

	entries := model.SearchHistory{}
	for _, city := range stored {
		city = model.NormalizeCity(city)
		if city == "" || entries.Contains(city) {
			continue
		}
		entries = append(entries, city)
		if len(entries) == model.MaxHistory {
			break
		}
	}
	return entries
}

// Record moves city to the front of the history, dropping any case-insensitive duplicate
// and anything past MaxHistory, then persists the result before returning it.
// If persisting fails the in-memory history is left unchanged.
func (s *Store) Record(ctx context.Context, city string) (model.SearchHistory, error) {
	city = model.NormalizeCity(city)
	if city == "" {
		return nil, ErrEmptyCity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(model.SearchHistory{city}, s.entries.Without(city)...)
	if len(next) > model.MaxHistory {
		next = next[:model.MaxHistory]
	}

	if err := s.persist(ctx, next); err != nil {
		return s.entries.Clone(), err
	}
	s.entries = next

	return next.Clone(), nil
}

// Clear removes every entry and deletes the stored history.
// If deleting fails the in-memory history is left unchanged.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to delete search history: %w", err)
	}
	s.entries = model.SearchHistory{}
	return nil
}

// All returns the in-memory history without touching storage
func (s *Store) All() model.SearchHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

// Latest returns the most recently recorded city
func (s *Store) Latest() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[0], true
}

func (s *Store) persist(ctx context.Context, entries model.SearchHistory) error {
	raw, err := json.Marshal([]string(entries))
	if err != nil {
		return fmt.Errorf("failed to encode search history: %w", err)
	}
	if err := s.repo.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("failed to persist search history: %w", err)
	}
	s.logger.Debug("Search history persisted",
		zap.String("key", s.key), zap.String("entries", strings.Join(entries, ",")))
	return nil
}
