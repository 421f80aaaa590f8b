package service

import (
	"context"

	"github.com/alexivanou/weather-widget/internal/model"
)

// WeatherClient fetches remote weather data
type WeatherClient interface {
	FetchCurrent(ctx context.Context, city string) (*model.CurrentWeather, error)
	FetchForecastSamples(ctx context.Context, city string) ([]model.WeatherSample, error)
}

// HistoryStore keeps the recent-search history
type HistoryStore interface {
	Record(ctx context.Context, city string) (model.SearchHistory, error)
	All() model.SearchHistory
	Latest() (string, bool)
	Clear(ctx context.Context) error
}

// ServiceInterface defines the widget operations used by the HTTP layer
type ServiceInterface interface {
	Search(ctx context.Context, city string) (*model.SearchResult, error)
	SelectFromHistory(ctx context.Context, index int) (*model.SearchResult, error)
	Restore(ctx context.Context) (*model.SearchResult, error)
	View() model.View
	History() model.SearchHistory
	ClearHistory(ctx context.Context) error
}
