package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/service"
	"github.com/alexivanou/weather-widget/internal/weather"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var validate = validator.New()

// Handler handles HTTP requests
type Handler struct {
	service service.ServiceInterface
	logger  *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(service service.ServiceInterface, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// GetWeather handles GET /api/v1/weather
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	req := model.SearchRequest{City: model.NormalizeCity(r.URL.Query().Get("city"))}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "query parameter 'city' is required and must be at most 100 characters", http.StatusBadRequest)
		return
	}

	result, err := h.service.Search(r.Context(), req.City)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}

	h.writeJSON(w, result)
}

// SelectHistory handles POST /api/v1/history/{index}/select
func (h *Handler) SelectHistory(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		http.Error(w, "invalid history index", http.StatusBadRequest)
		return
	}

	result, err := h.service.SelectFromHistory(r.Context(), index)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}

	h.writeJSON(w, result)
}

// GetView handles GET /api/v1/view
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.service.View())
}

// GetHistory handles GET /api/v1/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history := h.service.History()
	h.writeJSON(w, model.HistoryResponse{History: history, Count: len(history)})
}

// ClearHistory handles DELETE /api/v1/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context()); err != nil {
		h.logger.Error("Error clearing history", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) writeSearchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrHistoryIndex):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrSuperseded):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, weather.ErrNotFound):
		http.Error(w, errorText(err), http.StatusNotFound)
	case errors.Is(err, weather.ErrNetwork):
		http.Error(w, errorText(err), http.StatusBadGateway)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		h.logger.Error("Error searching weather", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Error encoding response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// errorText prefers the message reported by the weather API
func errorText(err error) string {
	var apiErr *weather.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, weather.ErrNotFound) {
		return "City not found"
	}
	return "weather service unavailable"
}
