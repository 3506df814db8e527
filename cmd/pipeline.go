package main

import (
	"context"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/civita/urbanaccess/internal/access"
	"github.com/civita/urbanaccess/internal/config"
	"github.com/civita/urbanaccess/internal/export"
	"github.com/civita/urbanaccess/internal/grid"
	"github.com/civita/urbanaccess/internal/ingest"
	"github.com/civita/urbanaccess/internal/kpi"
	"github.com/civita/urbanaccess/internal/store"
	"github.com/civita/urbanaccess/internal/zone"
)

func loadZones() (*zone.Layer, error) {
	if cfg.City.Subdivisions == "" {
		return nil, eris.New("city.subdivisions not configured")
	}
	layer, err := zone.Load(cfg.City.Subdivisions, zone.LoadOptions{
		IDField:   cfg.City.ZoneIDField,
		NameField: cfg.City.ZoneNameField,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded city zones",
		zap.String("city", cfg.City.Name),
		zap.Int("zones", len(layer.Zones())),
	)
	return layer, nil
}

func buildGrid(layer *zone.Layer) (*grid.Grid, error) {
	g, err := grid.Build(layer, cfg.Grid.StepKM)
	if err != nil {
		return nil, err
	}
	nLon, nLat := g.Shape()
	zap.L().Info("built evaluation grid",
		zap.Float64("step_km", g.StepKM()),
		zap.Int("n_lon", nLon),
		zap.Int("n_lat", nLat),
		zap.Int("active_points", len(g.Active())),
	)
	return g, nil
}

// configuredServices returns the configured service types in enum order
// with their dataset settings.
func configuredServices() ([]access.ServiceType, map[access.ServiceType]config.ServiceConfig, error) {
	byType := make(map[access.ServiceType]config.ServiceConfig, len(cfg.City.Services))
	var types []access.ServiceType
	for name, svc := range cfg.City.Services {
		st, err := access.ParseServiceType(name)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "city.services.%s", name)
		}
		byType[st] = svc
		types = append(types, st)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types, byType, nil
}

func loadCollection(ctx context.Context, st access.ServiceType, svc config.ServiceConfig) (*access.Collection, error) {
	loader, err := ingest.LoaderFor(st)
	if err != nil {
		return nil, err
	}
	units, err := loader.Load(ctx, svc.Path, svc.MeanRadiusKM)
	if err != nil {
		return nil, err
	}
	return access.NewCollection(st, units, cfg.Kernel.Epsilon)
}

// computation is a fully evaluated city: the grid, per-service
// surfaces, and per-zone indicators.
type computation struct {
	layer    *zone.Layer
	grid     *grid.Grid
	types    []access.ServiceType
	surfaces map[access.ServiceType]*access.Surface
	zoneKPI  kpi.ZoneKPI
}

func computeCity(ctx context.Context) (*computation, error) {
	layer, err := loadZones()
	if err != nil {
		return nil, err
	}
	g, err := buildGrid(layer)
	if err != nil {
		return nil, err
	}

	types, byType, err := configuredServices()
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, eris.New("no services configured")
	}

	norm, err := kpi.ParseNorm(cfg.KPI.Norm)
	if err != nil {
		return nil, err
	}

	positions := g.ActivePositions()
	points := g.Active()
	agg := access.NewAggregator(runtime.NumCPU())
	summarizer := kpi.NewSummarizer(norm, layer.IDs())
	surfaces := make(map[access.ServiceType]*access.Surface, len(types))

	for _, st := range types {
		coll, err := loadCollection(ctx, st, byType[st])
		if err != nil {
			return nil, err
		}
		surface, err := agg.Evaluate(ctx, coll, positions)
		if err != nil {
			return nil, err
		}
		if err := summarizer.Add(surface, points); err != nil {
			return nil, err
		}
		surfaces[st] = surface
	}

	return &computation{
		layer:    layer,
		grid:     g,
		types:    types,
		surfaces: surfaces,
		zoneKPI:  summarizer.Result(),
	}, nil
}

func cityMeta() export.CityMeta {
	return export.CityMeta{
		Name:      cfg.City.Name,
		SourceURL: cfg.City.SourceURL,
		Zoom:      cfg.City.Zoom,
		Center:    cfg.City.Center,
		JoinField: cfg.City.ZoneIDField,
	}
}

func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	}
	return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
}
