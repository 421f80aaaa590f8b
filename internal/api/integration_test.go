package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/database"
	"github.com/alexivanou/weather-widget/internal/history"
	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/alexivanou/weather-widget/internal/repository"
	"github.com/alexivanou/weather-widget/internal/service"
	"github.com/alexivanou/weather-widget/internal/stats"
	"github.com/alexivanou/weather-widget/internal/weather"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var forecastStart = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

// fakeOpenWeather serves the two upstream endpoints; "Atlantis" is unknown.
func fakeOpenWeather(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("q")
		if city == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"cod":"404","message":"city not found"}`))
			return
		}
		fmt.Fprintf(w, `{"cod":200,"name":%q,"sys":{"country":"XX"},"main":{"temp":21.5,"feels_like":20.1,"humidity":55},"wind":{"speed":2.5},"weather":[{"id":800,"description":"clear sky"}]}`, city)
	})
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		type item struct {
			Dt   int64 `json:"dt"`
			Main struct {
				Temp float64 `json:"temp"`
			} `json:"main"`
			Weather []map[string]interface{} `json:"weather"`
		}
		list := make([]item, 0, 40)
		for i := 0; i < 40; i++ {
			it := item{Dt: forecastStart.Add(time.Duration(3*i) * time.Hour).Unix()}
			it.Main.Temp = 15
			it.Weather = []map[string]interface{}{{"id": 801, "description": "few clouds"}}
			list = append(list, it)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"cod": "200", "message": 0, "cnt": len(list), "list": list})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func setupIntegrationStack(t *testing.T) (http.Handler, *history.Store) {
	cfg := config.DBConfig{
		Type: config.DBTypeMemory,
		Name: fmt.Sprintf("testdb_%s", uuid.NewString()),
	}

	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	// Point to the sqlite migrations folder
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite",
		"sqlite3",
		driver,
	)
	require.NoError(t, err)
	err = m.Up()
	require.NoError(t, err)

	ctx := context.Background()
	_, err = db.ExecContext(ctx, `INSERT INTO kv_store (key, value) VALUES ('weatherSearchHistory', '["Osaka"]')`)
	require.NoError(t, err)

	upstream := fakeOpenWeather(t)
	client := weather.NewClient(config.WeatherConfig{APIKey: "k", BaseURL: upstream.URL, Timeout: 2 * time.Second}, nil, nil)

	store := history.New(repository.NewRepository(db, cfg.Type), "", nil)
	store.Load(ctx)

	widget := service.NewWidget(client, store, time.UTC, nil)
	collector := stats.NewCollector(db, cfg, store)

	return NewRouter(widget, collector, nil), store
}

func TestAPI_Integration_Search(t *testing.T) {
	handler, store := setupIntegrationStack(t)

	req := httptest.NewRequest("GET", "/api/v1/weather?city=Tokyo", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.SearchResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "Tokyo", resp.Current.Name)
	assert.Equal(t, model.ConditionClear, resp.Current.Category)
	assert.Contains(t, rr.Body.String(), `"wind_speed_kmh":9`)
	require.Len(t, resp.Forecast, 5)
	assert.Equal(t, 11, resp.Forecast[0].Date.Day())
	assert.Equal(t, 15, resp.Forecast[0].AvgTemperature)
	assert.Equal(t, 801, resp.Forecast[0].ConditionCode)
	assert.Equal(t, model.SearchHistory{"Tokyo", "Osaka"}, resp.History)

	assert.Equal(t, model.SearchHistory{"Tokyo", "Osaka"}, store.All())
}

func TestAPI_Integration_NotFound(t *testing.T) {
	handler, store := setupIntegrationStack(t)

	req := httptest.NewRequest("GET", "/api/v1/weather?city=Atlantis", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, model.SearchHistory{"Osaka"}, store.All())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/view", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var view model.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "city not found", view.Error)
}

func TestAPI_Integration_HistoryFlow(t *testing.T) {
	handler, _ := setupIntegrationStack(t)

	for _, city := range []string{"Tokyo", "osaka"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/weather?city="+city, nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/api/v1/history/1/select", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp model.HistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, model.SearchHistory{"Tokyo", "osaka"}, resp.History)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/v1/history", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var s stats.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, "memory", s.Storage.Type)
	assert.Zero(t, s.History.Entries)
}
