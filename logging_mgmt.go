package main

import (
	"context"
	"fmt"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/filter"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/logwrap/impl/tee"
	"github.com/shimmeringbee/somfycul/config"
	"gopkg.in/natefinch/lumberjack.v2"
	"io"
	"log"
	"os"
)

// configureLogging builds the loggers described in cfgDir, returning l unchanged when there are none.
func configureLogging(cfgDir string, logDir string, l logwrap.Logger) (logwrap.Logger, error) {
	ctx := context.Background()

	logCfgs, err := loadConfigurations(cfgDir, "logging", func(name string) *config.LoggingConfig {
		return &config.LoggingConfig{Name: name}
	})
	if err != nil {
		return l, err
	}

	var impls []logwrap.Impl

	for _, cfg := range logCfgs {
		writer, baseCfg, err := constructLogWriter(cfg, logDir)
		if err != nil {
			return l, err
		}

		impl, err := constructFilter(baseCfg, golog.Wrap(log.New(writer, "", log.LstdFlags)))
		if err != nil {
			return l, fmt.Errorf("failed to construct filter for logging '%s': %w", cfg.Name, err)
		}

		impls = append(impls, impl)

		l.LogInfo(ctx, "Constructed logging.", logwrap.Datum("name", cfg.Name), logwrap.Datum("type", cfg.Type))
	}

	if len(impls) == 0 {
		l.LogWarn(ctx, "No logging configurations loaded, continuing with stderr only.")
		return l, nil
	}

	l.LogDebug(ctx, "Handing over to new logging configuration.")

	return logwrap.New(tee.Tee(impls...)), nil
}

func constructLogWriter(cfg config.LoggingConfig, logDir string) (io.Writer, config.BaseLogging, error) {
	switch lCfg := cfg.Config.(type) {
	case *config.StdoutLogging:
		return os.Stderr, lCfg.BaseLogging, nil
	case *config.FileLogging:
		if len(lCfg.Filename) == 0 {
			return nil, lCfg.BaseLogging, fmt.Errorf("logging '%s' has no filename", cfg.Name)
		}

		return &lumberjack.Logger{
			Filename:   resolvePath(logDir, lCfg.Filename),
			MaxSize:    lCfg.Size,
			MaxBackups: lCfg.Count,
			MaxAge:     lCfg.MaxAge,
			Compress:   lCfg.Compress,
		}, lCfg.BaseLogging, nil
	default:
		return nil, config.BaseLogging{}, fmt.Errorf("unknown logging type loaded: %s", cfg.Type)
	}
}

var logLevels = map[string]logwrap.LogLevel{
	"panic": logwrap.Panic,
	"fatal": logwrap.Fatal,
	"error": logwrap.Error,
	"warn":  logwrap.Warn,
	"info":  logwrap.Info,
	"debug": logwrap.Debug,
	"trace": logwrap.Trace,
}

// constructFilter limits base to messages at or above the configured level, and to the listed
// subsystems (or every other subsystem when negated).
func constructFilter(cfg config.BaseLogging, base logwrap.Impl) (logwrap.Impl, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	level, found := logLevels[cfg.Level]
	if !found {
		return base, fmt.Errorf("unknown log level '%s'", cfg.Level)
	}

	subsystems := map[string]struct{}{}
	for _, s := range cfg.Subsystems {
		subsystems[s] = struct{}{}
	}

	return filter.Filter(base, func(message logwrap.Message) bool {
		if message.Level > level {
			return false
		}

		if len(subsystems) == 0 {
			return true
		}

		_, listed := subsystems[message.Source]
		return cfg.NegateSubsystems != listed
	}), nil
}
