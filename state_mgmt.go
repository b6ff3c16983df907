package main

import (
	"context"
	"fmt"
	"github.com/go-redis/redis/v8"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/persistence/impl/memory"
	"github.com/shimmeringbee/somfycul/config"
	"github.com/shimmeringbee/somfycul/state"
	"os"
	"path/filepath"
)

const DefaultStateDirectory = "covers"

func loadStateConfiguration(dir string) (config.StateConfig, error) {
	cfgs, err := loadConfigurations(dir, "state", func(name string) *config.StateConfig {
		return &config.StateConfig{Name: name}
	})
	if err != nil {
		return config.StateConfig{}, err
	}

	switch len(cfgs) {
	case 0:
		return config.StateConfig{Name: "default", Type: "file", Config: &config.FileState{Directory: DefaultStateDirectory}}, nil
	case 1:
		return cfgs[0], nil
	default:
		return config.StateConfig{}, fmt.Errorf("only one state store may be configured, found %d", len(cfgs))
	}
}

func startState(ctx context.Context, cfg config.StateConfig, dataDir string, l logwrap.Logger) (state.Gateway, func() error, error) {
	noop := func() error { return nil }

	switch sCfg := cfg.Config.(type) {
	case *config.MemoryState:
		l.LogWarn(ctx, "Memory state store configured, rolling codes will be lost on restart.")
		return &state.SectionGateway{Section: memory.New()}, noop, nil

	case *config.FileState:
		dir := resolvePath(dataDir, sCfg.Directory)
		if err := os.MkdirAll(dir, DefaultDirectoryPermissions); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory '%s': %w", dir, err)
		}

		l.LogInfo(ctx, "Using file state store.", logwrap.Datum("directory", dir))
		return &state.FileGateway{Directory: filepath.Clean(dir)}, noop, nil

	case *config.RedisState:
		client := redis.NewClient(&redis.Options{Addr: sCfg.Address, Password: sCfg.Password, DB: sCfg.DB})

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis '%s': %w", sCfg.Address, err)
		}

		l.LogInfo(ctx, "Using redis state store.", logwrap.Datum("address", sCfg.Address), logwrap.Datum("prefix", sCfg.Prefix))
		return &state.RedisGateway{Client: client, Prefix: sCfg.Prefix}, client.Close, nil

	case *config.PostgresState:
		gw, err := state.NewPostgresGateway(ctx, sCfg.DSN, sCfg.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start postgres state store: %w", err)
		}

		l.LogInfo(ctx, "Using postgres state store.", logwrap.Datum("table", sCfg.Table))
		return gw, gw.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown state type loaded: %s", cfg.Type)
	}
}
