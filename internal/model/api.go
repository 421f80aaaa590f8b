package model

import "time"

// SearchRequest represents the request parameters for a weather lookup
type SearchRequest struct {
	City string `validate:"required,max=100"`
}

// SearchResult is everything the widget renders after a successful lookup
type SearchResult struct {
	ID       string          `json:"id"`
	City     string          `json:"city"`
	Current  *CurrentWeather `json:"current"`
	Forecast []DailyForecast `json:"forecast"`
	History  SearchHistory   `json:"history"`
	Fetched  time.Time       `json:"fetched_at"`
}

// View is the state currently displayed by the widget
type View struct {
	City     string          `json:"city,omitempty"`
	Current  *CurrentWeather `json:"current,omitempty"`
	Forecast []DailyForecast `json:"forecast"`
	Error    string          `json:"error,omitempty"`
	Updated  time.Time       `json:"updated_at"`
}

// HistoryResponse represents the response for the history endpoint
type HistoryResponse struct {
	History SearchHistory `json:"history"`
	Count   int           `json:"count"`
}

// ErrorResponse is returned by the API on failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}
