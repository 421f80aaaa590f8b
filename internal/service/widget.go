package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexivanou/weather-widget/internal/forecast"
	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/weather"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCity is returned for a blank search
	ErrEmptyCity = errors.New("city name is required")
	// ErrSuperseded is returned by a search cancelled because a newer one started
	ErrSuperseded = errors.New("search superseded by a newer request")
	// ErrHistoryIndex is returned when selecting a history entry that does not exist
	ErrHistoryIndex = errors.New("history entry does not exist")
	// ErrSearchInFlight is returned by Refresh when a search is already running
	ErrSearchInFlight = errors.New("a search is already in flight")
)

// Widget wires user searches to the weather client, the forecast aggregation and the history.
// Starting a search cancels the one in flight; only the latest search updates the view.
type Widget struct {
	client  WeatherClient
	history HistoryStore
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	view   model.View
}

// NewWidget creates the widget controller. loc is used to bucket forecast days.
func NewWidget(client WeatherClient, history HistoryStore, loc *time.Location, logger *zap.Logger) *Widget {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Widget{
		client:  client,
		history: history,
		loc:     loc,
		logger:  logger,
		now:     time.Now,
		view:    model.View{Forecast: []model.DailyForecast{}},
	}
}

// Search looks up current weather for city, records it in the history and
// aggregates the forecast. The forecast is only requested once current weather succeeded.
func (w *Widget) Search(ctx context.Context, city string) (*model.SearchResult, error) {
	return w.search(ctx, city, false)
}

// Refresh repeats the search for the most recent city unless a search is already
// running, in which case it returns ErrSearchInFlight and leaves that search alone.
// A search started while a refresh runs still cancels the refresh.
func (w *Widget) Refresh(ctx context.Context) (*model.SearchResult, error) {
	city, ok := w.history.Latest()
	if !ok {
		return nil, nil
	}
	return w.search(ctx, city, true)
}

func (w *Widget) search(ctx context.Context, city string, yield bool) (*model.SearchResult, error) {
	city = model.NormalizeCity(city)
	if city == "" {
		return nil, ErrEmptyCity
	}

	ctx, seq, done, ok := w.begin(ctx, yield)
	if !ok {
		return nil, ErrSearchInFlight
	}
	defer done()

	id := uuid.NewString()
	logger := w.logger.With(zap.String("search_id", id), zap.String("city", city))

	current, err := w.client.FetchCurrent(ctx, city)
	if err != nil {
		return nil, w.fail(logger, seq, city, fmt.Errorf("failed to fetch current weather: %w", err))
	}

	history, err := w.history.Record(ctx, city)
	if err != nil {
		logger.Warn("Failed to record search history", zap.Error(err))
		history = w.history.All()
	}

	samples, err := w.client.FetchForecastSamples(ctx, city)
	if err != nil {
		return nil, w.fail(logger, seq, city, fmt.Errorf("failed to fetch forecast: %w", err))
	}

	days, err := forecast.Aggregate(samples, w.loc)
	if err != nil {
		return nil, w.fail(logger, seq, city, fmt.Errorf("%w: %w", weather.ErrNetwork, err))
	}

	result := &model.SearchResult{
		ID:       id,
		City:     city,
		Current:  current,
		Forecast: days,
		History:  history,
		Fetched:  w.now(),
	}

	if !w.publish(seq, model.View{
		City:     city,
		Current:  current,
		Forecast: days,
		Updated:  result.Fetched,
	}) {
		logger.Info("Discarding result of superseded search")
		return nil, ErrSuperseded
	}

	logger.Info("Search completed", zap.Int("forecast_days", len(days)))
	return result, nil
}

// SelectFromHistory repeats the search for the history entry at index
func (w *Widget) SelectFromHistory(ctx context.Context, index int) (*model.SearchResult, error) {
	history := w.history.All()
	if index < 0 || index >= len(history) {
		return nil, fmt.Errorf("%w: %d", ErrHistoryIndex, index)
	}
	return w.Search(ctx, history[index])
}

// Restore repeats the search for the most recent city, if any
func (w *Widget) Restore(ctx context.Context) (*model.SearchResult, error) {
	city, ok := w.history.Latest()
	if !ok {
		return nil, nil
	}
	return w.Search(ctx, city)
}

// View returns the state currently displayed
func (w *Widget) View() model.View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// History returns the recent searches, most recent first
func (w *Widget) History() model.SearchHistory {
	return w.history.All()
}

// ClearHistory empties the recent-search history
func (w *Widget) ClearHistory(ctx context.Context) error {
	if err := w.history.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// begin cancels any search in flight and registers a new one.
// With yield set it registers nothing and reports false if a search is in flight.
func (w *Widget) begin(parent context.Context, yield bool) (context.Context, uint64, func(), bool) {
	w.mu.Lock()
	if w.cancel != nil {
		if yield {
			w.mu.Unlock()
			return nil, 0, nil, false
		}
		w.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	w.seq++
	seq := w.seq
	w.cancel = cancel
	w.mu.Unlock()

	return ctx, seq, func() {
		w.mu.Lock()
		if w.seq == seq {
			w.cancel = nil
		}
		w.mu.Unlock()
		cancel()
	}, true
}

// publish replaces the view if seq is still the latest search
func (w *Widget) publish(seq uint64, view model.View) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq != w.seq {
		return false
	}
	if view.Forecast == nil {
		view.Forecast = []model.DailyForecast{}
	}
	w.view = view
	return true
}

func (w *Widget) fail(logger *zap.Logger, seq uint64, city string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		w.mu.Lock()
		superseded := seq != w.seq
		w.mu.Unlock()
		if superseded {
			logger.Info("Search cancelled by a newer request")
			return ErrSuperseded
		}
		return err
	}

	if !w.publish(seq, model.View{City: city, Error: userMessage(err), Updated: w.now()}) {
		return ErrSuperseded
	}
	logger.Warn("Search failed", zap.Error(err))
	return err
}

// userMessage is the text shown in place of the weather display
func userMessage(err error) string {
	var apiErr *weather.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, weather.ErrNotFound) {
		return "City not found"
	}
	if errors.Is(err, weather.ErrNetwork) {
		return "Weather service unavailable"
	}
	return err.Error()
}
