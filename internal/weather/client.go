package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

var (
	errServerError = errors.New("server error")
	// errCallerGone marks a request abandoned by its caller; the circuit does not count it
	errCallerGone = errors.New("request abandoned by caller")
)

// Client fetches current conditions and forecast samples from OpenWeatherMap.
// Calls are never retried; a circuit breaker short-circuits a failing upstream.
type Client struct {
	apiKey     string
	baseURL    string
	units      string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

type response struct {
	status int
	body   []byte
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg config.WeatherConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	units := cfg.Units
	if units == "" {
		units = "metric"
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweathermap",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		units:      units,
		httpClient: httpClient,
		circuit:    cb,
		logger:     logger,
	}
}

// FetchCurrent returns current conditions for city
func (c *Client) FetchCurrent(ctx context.Context, city string) (*model.CurrentWeather, error) {
	resp, err := c.get(ctx, "weather", city)
	if err != nil {
		return nil, err
	}

	var payload struct {
		envelope
		Name string `json:"name"`
		Sys  struct {
			Country string `json:"country"`
		} `json:"sys"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			ID          int    `json:"id"`
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse current weather: %v", ErrNetwork, err)
	}
	if !currentOK(payload.Cod) {
		return nil, failure(resp.status, payload.envelope)
	}

	current := &model.CurrentWeather{
		Name:        payload.Name,
		Country:     payload.Sys.Country,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
	}
	current.WindSpeedKmh = model.KmhFromSpeed(current.WindSpeed, c.units)
	if len(payload.Weather) > 0 {
		current.ConditionCode = payload.Weather[0].ID
		current.Description = payload.Weather[0].Description
	}
	current.Category = model.CategoryOf(current.ConditionCode)

	return current, nil
}

// FetchForecastSamples returns the forecast feed for city in upstream order
func (c *Client) FetchForecastSamples(ctx context.Context, city string) ([]model.WeatherSample, error) {
	resp, err := c.get(ctx, "forecast", city)
	if err != nil {
		return nil, err
	}

	var payload struct {
		envelope
		List []struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []struct {
				ID          int    `json:"id"`
				Description string `json:"description"`
			} `json:"weather"`
		} `json:"list"`
	}

	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse forecast: %v", ErrNetwork, err)
	}
	if !forecastOK(payload.Cod) {
		return nil, failure(resp.status, payload.envelope)
	}

	samples := make([]model.WeatherSample, 0, len(payload.List))
	for _, item := range payload.List {
		s := model.WeatherSample{
			Timestamp:   item.Dt,
			Temperature: item.Main.Temp,
		}
		if len(item.Weather) > 0 {
			s.ConditionCode = item.Weather[0].ID
			s.Description = item.Weather[0].Description
		}
		samples = append(samples, s)
	}

	return samples, nil
}

func (c *Client) get(ctx context.Context, endpoint, city string) (*response, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: api key is not configured", ErrNetwork)
	}

	params := url.Values{}
	params.Add("q", city)
	params.Add("units", c.units)
	params.Add("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrNetwork, err)
	}

	start := time.Now()
	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", errCallerGone, err)
			}
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", errCallerGone, err)
			}
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: status %d", errServerError, resp.StatusCode)
		}
		return &response{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("Weather request failed",
			zap.String("endpoint", endpoint), zap.String("city", city), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	resp := result.(*response)
	c.logger.Debug("Weather request completed",
		zap.String("endpoint", endpoint),
		zap.String("city", city),
		zap.Int("status", resp.status),
		zap.Duration("elapsed", time.Since(start)),
	)
	return resp, nil
}

func failure(status int, env envelope) error {
	cod := codValue(env.Cod)
	msg := messageText(env.Message)
	if status == http.StatusNotFound || cod == "404" {
		if msg == "" {
			msg = "city not found"
		}
		return &APIError{Kind: ErrNotFound, Cod: cod, Message: msg}
	}
	if msg == "" {
		msg = "unexpected response"
		if cod != "" {
			msg = fmt.Sprintf("unexpected status %s", cod)
		}
	}
	return &APIError{Kind: ErrNetwork, Cod: cod, Message: msg}
}
