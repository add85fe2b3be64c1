package main

import (
	"context"
	"fmt"

	"investment-dashboard/src/aggregator"
	"investment-dashboard/src/client"
	"investment-dashboard/src/config"
	"investment-dashboard/src/interfaces"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/network"
	"investment-dashboard/src/storage"
	"investment-dashboard/src/views"
)

// app holds the components shared by every command.
type app struct {
	Config   *config.Config
	Logger   *logger.Logger
	API      *client.EndpointClient
	Store    interfaces.ISnapshotStore
	Registry *views.Registry
}

// -----------------------------------------------------------------------------

func setup(ctx context.Context, configPath string) (*app, error) {
	// 1. Load config
	conf, err := config.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	// 2. Setup Logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// 3. Snapshot store
	db, err := storage.Open(ctx, conf.MConfig, appLogger)
	if err != nil {
		appLogger.Error("Failed to init snapshot store: %v", err)
		return nil, err
	}

	// 4. Backend access
	networkManager, err := network.NewAsyncNetworkManager(conf.MConfig, appLogger.Named("Network"))
	if err != nil {
		db.Close()
		return nil, err
	}
	api := client.NewEndpointClient(networkManager)

	// 5. Views
	agg := aggregator.NewAggregator(conf.MConfig, appLogger.Named("Aggregator"))
	registry := views.NewRegistry(views.Catalog(api, conf.MConfig), agg, db, views.PolicyFromConfig(conf.MConfig), appLogger)

	return &app{
		Config:   conf,
		Logger:   appLogger,
		API:      api,
		Store:    db,
		Registry: registry,
	}, nil
}

// -----------------------------------------------------------------------------

func (a *app) Close() {
	a.Registry.Close()
	if err := a.Store.Close(); err != nil {
		a.Logger.Warning("Snapshot store close: %v", err)
	}
}
