package stats

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/repository"
	"github.com/jmoiron/sqlx"
)

// Stats is a point-in-time snapshot of the widget process and its storage
type Stats struct {
	Timestamp time.Time    `json:"timestamp"`
	Memory    MemoryStats  `json:"memory"`
	Storage   StorageStats `json:"storage"`
	History   HistoryStats `json:"history"`
	Runtime   RuntimeStats `json:"runtime"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
}

type StorageStats struct {
	Type      string `json:"type"`
	Keys      int64  `json:"keys,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

type HistoryStats struct {
	Entries int    `json:"entries"`
	Latest  string `json:"latest,omitempty"`
}

type RuntimeStats struct {
	NumGoroutines int   `json:"num_goroutines"`
	NumCPU        int   `json:"num_cpu"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// HistoryReader exposes the in-memory search history
type HistoryReader interface {
	All() model.SearchHistory
}

// runtime.ReadMemStats stops the world, so snapshots are reused for memTTL
var memTTL = 5 * time.Second

type memSnapshot struct {
	mu    sync.Mutex
	taken time.Time
	stats MemoryStats
}

func (s *memSnapshot) get(now time.Time) MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.taken.IsZero() && now.Sub(s.taken) < memTTL {
		return s.stats
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	s.stats = MemoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
		HeapAlloc:  m.HeapAlloc,
		HeapInuse:  m.HeapInuse,
	}
	s.taken = now
	return s.stats
}

// Collector gathers Stats for the configured storage backend
type Collector struct {
	db      *sqlx.DB
	dbType  config.DBType
	history HistoryReader
	started time.Time
	mem     memSnapshot
}

// NewCollector creates a collector. db is nil for non-SQL backends.
func NewCollector(db *sqlx.DB, cfg config.DBConfig, history HistoryReader) *Collector {
	return &Collector{
		db:      db,
		dbType:  cfg.Type,
		history: history,
		started: time.Now(),
	}
}

// Collect takes a snapshot. Only storage failures are reported.
func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	now := time.Now()

	storage, err := c.storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect storage stats: %w", err)
	}

	return &Stats{
		Timestamp: now,
		Memory:    c.mem.get(now),
		Storage:   storage,
		History:   c.historyStats(),
		Runtime: RuntimeStats{
			NumGoroutines: runtime.NumGoroutine(),
			NumCPU:        runtime.NumCPU(),
			UptimeSeconds: int64(now.Sub(c.started).Seconds()),
		},
	}, nil
}

func (c *Collector) storage(ctx context.Context) (StorageStats, error) {
	s := StorageStats{Type: string(c.dbType)}
	if c.db == nil {
		return s, nil
	}

	keys, err := repository.CountKeys(ctx, c.db)
	if err != nil {
		return s, err
	}
	s.Keys = keys

	// size is best effort
	query := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
	if c.dbType == config.DBTypePostgreSQL {
		query = "SELECT pg_database_size(current_database())"
	}
	var size int64
	if err := c.db.GetContext(ctx, &size, query); err == nil {
		s.SizeBytes = size
	}

	return s, nil
}

func (c *Collector) historyStats() HistoryStats {
	if c.history == nil {
		return HistoryStats{}
	}
	entries := c.history.All()
	if len(entries) == 0 {
		return HistoryStats{}
	}
	return HistoryStats{Entries: len(entries), Latest: entries[0]}
}
