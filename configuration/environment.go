package configuration

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zvonler/chanspy/boards"
	"github.com/zvonler/chanspy/database"
	"github.com/zvonler/chanspy/descriptor"
	"github.com/zvonler/chanspy/fetch"
	"github.com/zvonler/chanspy/logging"
	"github.com/zvonler/chanspy/metrics"
	"github.com/zvonler/chanspy/site"
)

// Environment is everything a command needs, built from the settings.
type Environment struct {
	Logger   *zap.Logger
	Registry *descriptor.Registry
	DB       *database.BoardDB
	Store    *boards.Manager
	Sites    *site.Manager
	Metrics  *metrics.SyncMetrics
}

// OpenEnvironment builds the environment. With withDB the board store is
// bootstrapped from, and persists to, the database; otherwise it starts
// empty.
func OpenEnvironment(ctx context.Context, withDB bool) (env *Environment, err error) {
	env = &Environment{
		Registry: descriptor.NewRegistry(),
		Metrics:  metrics.NewSyncMetrics(),
	}
	if env.Logger, err = logging.New(viper.GetString("log-level")); err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			env.Close()
			env = nil
		}
	}()

	var (
		opts   = []boards.Option{boards.WithLogger(env.Logger)}
		loader boards.Loader
	)
	if withDB {
		if env.DB, err = OpenDatabase(); err != nil {
			return
		}
		opts = append(opts, boards.WithPersister(env.DB))
		loader = env.DB
	}
	env.Store = boards.NewManager(env.Registry, opts...)
	if err = env.Store.Initialize(ctx, loader); err != nil {
		return
	}

	cfgs, err := LoadConfiguredSites()
	if err != nil {
		return
	}
	client, err := fetch.New(fetch.Options{})
	if err != nil {
		return
	}
	env.Sites, err = NewSiteManager(cfgs, client, site.Deps{
		Registry: env.Registry,
		Store:    env.Store,
		Logger:   env.Logger,
		Metrics:  env.Metrics,
	})
	if err != nil {
		err = fmt.Errorf("configuring sites: %w", err)
	}
	return
}

func (env *Environment) Close() {
	if env.DB != nil {
		env.DB.Close()
	}
	if env.Logger != nil {
		_ = env.Logger.Sync()
	}
}
