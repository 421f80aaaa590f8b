package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when the API cannot resolve the city
	ErrNotFound = errors.New("city not found")
	// ErrNetwork covers transport failures, unreadable payloads and unexpected statuses
	ErrNetwork = errors.New("weather service unavailable")
)

// APIError carries the status and message reported by the remote API.
// Kind is ErrNotFound or ErrNetwork.
type APIError struct {
	Kind    error
	Cod     string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// envelope holds the status fields shared by both endpoints.
// cod is a number on the current endpoint and a string on the forecast endpoint.
type envelope struct {
	Cod     json.RawMessage `json:"cod"`
	Message json.RawMessage `json:"message"`
}

// currentOK is the success predicate of the current-weather endpoint: cod is the number 200.
func currentOK(cod json.RawMessage) bool {
	return string(bytes.TrimSpace(cod)) == "200"
}

// forecastOK is the success predicate of the forecast endpoint: cod is the string "200".
func forecastOK(cod json.RawMessage) bool {
	var s string
	if err := json.Unmarshal(cod, &s); err != nil {
		return false
	}
	return s == "200"
}

// codValue renders cod regardless of its JSON type
func codValue(cod json.RawMessage) string {
	var s string
	if err := json.Unmarshal(cod, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(cod))
}

// messageText returns the API message when it is a non-empty string
func messageText(msg json.RawMessage) string {
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
