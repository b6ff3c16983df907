package main

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/somfycul/config"
	"github.com/shimmeringbee/somfycul/transport"
	"go.bug.st/serial.v1"
	"time"
)

const DefaultVersionTimeout = 5 * time.Second

func loadTransportConfiguration(dir string) (config.TransportConfig, error) {
	cfgs, err := loadConfigurations(dir, "transport", func(name string) *config.TransportConfig {
		return &config.TransportConfig{Name: name}
	})
	if err != nil {
		return config.TransportConfig{}, err
	}

	switch len(cfgs) {
	case 0:
		return defaultTransportConfiguration(), nil
	case 1:
		return cfgs[0], nil
	default:
		return config.TransportConfig{}, fmt.Errorf("only one transport may be configured, found %d", len(cfgs))
	}
}

func defaultTransportConfiguration() config.TransportConfig {
	cul := &config.CULTransport{}
	cul.Port.Name = config.DefaultSerialPort
	cul.Port.Baud = config.DefaultSerialBaud

	return config.TransportConfig{Name: "default", Type: "cul", Config: cul}
}

func startTransport(ctx context.Context, cfg config.TransportConfig, l logwrap.Logger) (transport.Link, func() error, error) {
	switch tCfg := cfg.Config.(type) {
	case *config.CULTransport:
		return startCULTransport(ctx, *tCfg, l)
	case *config.DryRunTransport:
		l.LogWarn(ctx, "Dry run transport configured, frames will be logged and not transmitted.")
		return &transport.DryRun{Logger: l}, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport type loaded: %s", cfg.Type)
	}
}

func startCULTransport(ctx context.Context, cfg config.CULTransport, l logwrap.Logger) (transport.Link, func() error, error) {
	l.LogInfo(ctx, "Opening CUL serial port.", logwrap.Datum("port", cfg.Port.Name), logwrap.Datum("baud", cfg.Port.Baud))

	port, err := serial.Open(cfg.Port.Name, &serial.Mode{BaudRate: cfg.Port.Baud})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port for cul '%s': %w", cfg.Port.Name, err)
	}

	cul := transport.NewCUL(port)

	if cfg.CheckVersion {
		versionCtx, cancel := context.WithTimeout(ctx, DefaultVersionTimeout)
		defer cancel()

		version, err := cul.Version(versionCtx)
		if err != nil {
			_ = cul.Close()
			return nil, nil, fmt.Errorf("cul did not report its version: %w", err)
		}

		l.LogInfo(ctx, "CUL responded to version query.", logwrap.Datum("version", version))
	}

	return cul, cul.Close, nil
}
