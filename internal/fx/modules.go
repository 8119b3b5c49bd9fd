package fx

import (
	"go.uber.org/fx"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/cache"
	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/database"
	"github.com/jayclim/CR-Data/internal/logger"
	"github.com/jayclim/CR-Data/internal/metrics"
	"github.com/jayclim/CR-Data/internal/repository"
	"github.com/jayclim/CR-Data/internal/server"
	"github.com/jayclim/CR-Data/internal/service"
)

func applyLogLevel(cfg *config.Config) error {
	return logger.SetLevel(cfg.LogLevel)
}

// Storage is enough to read stored snapshots. It expects a config.Source
// to be supplied by the caller.
var Storage = fx.Options(
	logger.Module,
	config.Module,
	fx.Invoke(applyLogLevel),
	metrics.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewSnapshotRepository),
)

var Module = fx.Options(
	Storage,
	cache.Module,
	// api client
	fx.Provide(fx.Annotate(api.NewRoyaleClient, fx.As(new(service.Upstream)))),
	// svc
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewMetaService),
	fx.Provide(service.NewSnapshotService),
	// server
	fx.Provide(server.NewMetaServer),
)
