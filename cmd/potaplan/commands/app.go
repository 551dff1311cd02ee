package commands

import (
	"github.com/pjbaur/potaplan/pkg/config"
	"github.com/pjbaur/potaplan/pkg/forecast"
	"github.com/pjbaur/potaplan/pkg/planner"
	"github.com/pjbaur/potaplan/pkg/potadirectory"
	"github.com/pjbaur/potaplan/pkg/stores"
	"github.com/pjbaur/potaplan/pkg/telemetry"
)

// app wires configuration, logging, the store manager, and the
// repositories together for one command invocation. The manager is
// dependency-injected into every repository; nothing holds a
// package-level handle.
type app struct {
	cfg     *config.Config
	log     *telemetry.Logger
	mgr     *stores.Manager
	parks   *stores.ParkRepo
	plans   *stores.PlanRepo
	weather *stores.WeatherRepo
	user    *stores.UserConfigRepo
	planner *planner.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	if verbose {
		logCfg.Level = "debug"
	}
	log, err := telemetry.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}

	mgr, err := stores.NewManager(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		mgr:     mgr,
		parks:   stores.NewParkRepo(mgr, cfg.Database.FreshnessThreshold.Std()),
		plans:   stores.NewPlanRepo(mgr),
		weather: stores.NewWeatherRepo(mgr),
		user:    stores.NewUserConfigRepo(mgr),
	}
	a.planner = planner.NewService(a.plans, a.weather, log)
	return a, nil
}

func (a *app) close() {
	if err := a.mgr.Close(); err != nil {
		a.log.WithError(err).Warn("failed to close store")
	}
}

func (a *app) directoryClient() *potadirectory.Client {
	return potadirectory.NewClient(a.cfg.Directory.BaseURL, a.cfg.Directory.Timeout.Std(), a.log)
}

func (a *app) forecastClient() *forecast.Client {
	return forecast.NewClient(a.cfg.Weather.BaseURL, a.cfg.Weather.Timeout.Std(), a.log)
}
