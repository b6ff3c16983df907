package main

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/somfycul/config"
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/shimmeringbee/somfycul/gateway"
	"github.com/shimmeringbee/somfycul/rollingcode"
	"github.com/shimmeringbee/somfycul/state"
	"github.com/shimmeringbee/somfycul/transport"
)

func loadCoverConfigurations(dir string) ([]config.CoverConfig, error) {
	cfgs, err := loadConfigurations(dir, "cover", func(name string) *config.CoverConfig {
		return &config.CoverConfig{Name: name}
	})
	if err != nil {
		return nil, err
	}

	for _, cfg := range cfgs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfgs, nil
}

func coverInfo(cfg config.CoverConfig) cover.Info {
	up, down := cfg.Travel()

	return cover.Info{
		Name:               cfg.Name,
		Address:            cfg.Address,
		DeviceClass:        cfg.Class(),
		Travel:             cover.TravelProfile{Up: up, Down: down},
		Reversed:           cfg.Reversed,
		LegacyStopEstimate: cfg.LegacyStopEstimate,
	}
}

// startCovers constructs a controller per cover sharing the link and rolling code store, a cover
// whose persisted state cannot be read starts from the default rolling state.
func startCovers(ctx context.Context, cfgs []config.CoverConfig, link transport.Link, gw state.Gateway, publisher cover.EventPublisher, mux *gateway.Mux, l logwrap.Logger) error {
	store := rollingcode.NewStore()

	for _, cfg := range cfgs {
		info := coverInfo(cfg)

		cl := logwrap.New(nest.Wrap(l))
		cl.AddOptionsToLogger(logwrap.Datum("cover", info.Name), logwrap.Datum("address", info.Address))

		c := cover.NewController(info, link, store, gw, publisher, cl)

		if err := mux.Add(c); err != nil {
			return fmt.Errorf("failed to register cover '%s': %w", info.Name, err)
		}

		if err := c.Load(ctx); err != nil {
			cl.LogWarn(ctx, "Failed to load persisted state of cover, starting from defaults.", logwrap.Err(err))
		}

		cl.LogInfo(ctx, "Cover started.", logwrap.Datum("deviceClass", info.DeviceClass), logwrap.Datum("positionEstimated", info.Travel.Present()))
	}

	return nil
}
