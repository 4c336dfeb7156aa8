// Package app wires the configuration, store, providers, and services into a
// runnable application.
package app

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/providers/unipile"
	"github.com/ternarybob/venari/internal/providers/webfetch"
	"github.com/ternarybob/venari/internal/providers/websearch"
	"github.com/ternarybob/venari/internal/services/enricher"
	"github.com/ternarybob/venari/internal/services/identity"
	"github.com/ternarybob/venari/internal/services/pipeline"
	"github.com/ternarybob/venari/internal/services/scoring"
	"github.com/ternarybob/venari/internal/storage/sqlite"
)

// App holds the wired application services
type App struct {
	Config   *common.Config
	Logger   arbor.ILogger
	Store    *sqlite.Store
	Pipeline *pipeline.Service
}

// New wires the application. It refuses to start when the recruiting
// pipeline is not enabled in configuration.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	if !config.Tools.Recruiting.Enabled {
		return nil, fmt.Errorf("recruiting pipeline is disabled: set tools.recruiting.enabled = true")
	}

	store, err := sqlite.NewStore(logger, &config.Storage.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	linkedin := unipile.NewClient(&config.Providers.Unipile, logger)
	accounts := unipile.NewAccountResolver(&config.Providers.Unipile)
	search := websearch.NewClient(&config.Providers.WebSearch, logger)
	fetch := webfetch.NewClient(&config.Providers.WebFetch, logger)

	enrichSvc := enricher.NewService(search, fetch, logger)
	resolver := identity.NewResolver(logger)
	scorer := scoring.NewScorer(logger)

	pipelineSvc := pipeline.NewService(store, linkedin, accounts, enrichSvc, resolver, scorer,
		&config.Tools.Recruiting, logger)

	return &App{
		Config:   config,
		Logger:   logger,
		Store:    store,
		Pipeline: pipelineSvc,
	}, nil
}

// Close releases the application's resources
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
