package main

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/clubtrivia/clubtrivia/internal/api"
	"github.com/clubtrivia/clubtrivia/internal/attempts"
	"github.com/clubtrivia/clubtrivia/internal/config"
	"github.com/clubtrivia/clubtrivia/internal/games"
	"github.com/clubtrivia/clubtrivia/internal/hydrate"
	"github.com/clubtrivia/clubtrivia/internal/metrics"
	"github.com/clubtrivia/clubtrivia/internal/storage"
	"github.com/google/uuid"
)

// app bundles the wired-up stores for the CLI commands.
type app struct {
	cfg          config.Config
	store        *storage.SQLite
	client       *api.Client
	server       *attempts.ServerStore
	local        *attempts.LocalStore
	games        *games.Store
	orchestrator *hydrate.Orchestrator
	metrics      *metrics.Service
	teardown     func()
}

// newApp wires everything the way main wires a server: config, storage,
// client, stores, orchestrator.
func newApp() (*app, error) {
	startTime := time.Now()
	cfg := config.Load()

	store, teardown, err := storage.Open(cfg.DBPath, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIBaseURL, deviceID(store))
	metricsSvc := metrics.NewService()
	serverStore := attempts.NewServerStore(client, store, metricsSvc)
	localStore := attempts.NewLocalStore(store, metricsSvc)
	gamesStore := games.NewStore(client, store, metricsSvc)
	orchestrator := hydrate.New(client, store, serverStore, localStore, gamesStore, metricsSvc)

	metricsSvc.SetStartupTime(time.Since(startTime).Seconds())
	return &app{
		cfg:          cfg,
		store:        store,
		client:       client,
		server:       serverStore,
		local:        localStore,
		games:        gamesStore,
		orchestrator: orchestrator,
		metrics:      metricsSvc,
		teardown:     teardown,
	}, nil
}

// deviceID returns this install's identity, generating one on first use.
func deviceID(store storage.Store) string {
	raw, ok, err := store.Get(storage.KeyDeviceID)
	if err == nil && ok && len(raw) > 0 {
		return string(raw)
	}
	if err != nil {
		log.Error("Failed to read device id", "error", err)
	}

	id := uuid.NewString()
	if err := store.Put(storage.KeyDeviceID, []byte(id)); err != nil {
		log.Error("Failed to persist device id", "error", err)
	}
	log.Info("Generated new device id", "deviceID", id)
	return id
}
