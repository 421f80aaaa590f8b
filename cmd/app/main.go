package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/weather-widget/internal/api"
	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/database"
	"github.com/alexivanou/weather-widget/internal/history"
	"github.com/alexivanou/weather-widget/internal/repository"
	"github.com/alexivanou/weather-widget/internal/scheduler"
	"github.com/alexivanou/weather-widget/internal/service"
	"github.com/alexivanou/weather-widget/internal/stats"
	"github.com/alexivanou/weather-widget/internal/weather"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	loc, err := cfg.Widget.Location()
	if err != nil {
		logger.Fatal("Invalid widget timezone", zap.Error(err))
	}

	var (
		repo repository.KVRepository
		db   *sqlx.DB
	)
	if cfg.DB.IsSQL() {
		db, err = database.Connect(ctx, cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Fatal("Failed to ping database", zap.Error(err))
		}
		logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

		if err := runMigrations(db, cfg); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
		repo = repository.NewRepository(db, cfg.DB.Type)
	} else {
		client, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()

		logger.Info("Connected to redis", zap.String("addr", cfg.Redis.Addr))
		repo = repository.NewRedisRepository(client, "weather")
	}

	store := history.New(repo, cfg.Widget.HistoryKey, logger)
	entries := store.Load(ctx)
	logger.Info("Search history loaded", zap.Int("entries", len(entries)), zap.String("backend", repo.Backend()))

	if cfg.Weather.APIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set, searches will fail")
	}
	client := weather.NewClient(cfg.Weather, nil, logger)
	widget := service.NewWidget(client, store, loc, logger)

	// Show the most recent city on startup
	if len(entries) > 0 {
		restoreCtx, cancel := context.WithTimeout(ctx, cfg.Weather.Timeout*2)
		if _, err := widget.Restore(restoreCtx); err != nil {
			logger.Warn("Failed to restore last search", zap.String("city", entries[0]), zap.Error(err))
		}
		cancel()
	}

	refresher := scheduler.New(widget, cfg.Widget.RefreshInterval, cfg.Weather.Timeout*2, logger)
	if err := refresher.Start(); err != nil {
		logger.Fatal("Failed to start refresh scheduler", zap.Error(err))
	}
	defer refresher.Stop()

	statsCollector := stats.NewCollector(db, cfg.DB, store)
	router := api.NewRouter(widget, statsCollector, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func runMigrations(db *sqlx.DB, cfg *config.Config) error {
	var m *migrate.Migrate
	var err error

	if cfg.DB.IsSQLite() {
		// Use driver instance directly to avoid DSN parsing issues with in-memory SQLite
		driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		if err != nil {
			return fmt.Errorf("could not create sqlite driver: %w", err)
		}
		m, err = migrate.NewWithDatabaseInstance(
			"file://migrations/sqlite",
			"sqlite3",
			driver,
		)
		if err != nil {
			return fmt.Errorf("could not create migrate instance: %w", err)
		}
	} else {
		m, err = migrate.New("file://migrations/postgres", cfg.DB.DSN())
		if err != nil {
			return err
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
