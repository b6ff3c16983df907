package main

import (
	"context"
	lw "github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/golog"
	"github.com/shimmeringbee/logwrap/impl/nest"
	"github.com/shimmeringbee/somfycul/gateway"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func main() {
	ctx := context.Background()
	l := lw.New(golog.Wrap(log.New(os.Stderr, "", log.LstdFlags)))

	l.LogInfo(ctx, "Shimmering Bee: Somfy CUL - Starting...")

	directories := enumerateDirectories(ctx, l, os.Args[1:])

	l.LogInfo(ctx, "Directory enumeration complete.", lw.Datum("directories", directories))

	if newLogger, err := configureLogging(filepath.Join(directories.Config, "logging"), directories.Log, l); err != nil {
		l.LogFatal(ctx, "Failed to configure logging.", lw.Err(err))
	} else {
		l = newLogger
	}

	transportCfg, err := loadTransportConfiguration(filepath.Join(directories.Config, "transport"))
	if err != nil {
		l.LogFatal(ctx, "Failed to load transport configuration.", lw.Err(err))
	}

	stateCfg, err := loadStateConfiguration(filepath.Join(directories.Config, "state"))
	if err != nil {
		l.LogFatal(ctx, "Failed to load state configuration.", lw.Err(err))
	}

	coverCfgs, err := loadCoverConfigurations(filepath.Join(directories.Config, "covers"))
	if err != nil {
		l.LogFatal(ctx, "Failed to load cover configurations.", lw.Err(err))
	}

	interfaceCfgs, err := loadInterfaceConfigurations(filepath.Join(directories.Config, "interfaces"))
	if err != nil {
		l.LogFatal(ctx, "Failed to load interface configurations.", lw.Err(err))
	}

	l.LogInfo(ctx, "Starting transport.", lw.Datum("type", transportCfg.Type))
	link, shutdownTransport, err := startTransport(ctx, transportCfg, subsystemLogger(l, "transport"))
	if err != nil {
		l.LogFatal(ctx, "Failed to start transport.", lw.Err(err))
	}

	l.LogInfo(ctx, "Starting state store.", lw.Datum("type", stateCfg.Type))
	stateGateway, shutdownState, err := startState(ctx, stateCfg, directories.Data, subsystemLogger(l, "state"))
	if err != nil {
		l.LogFatal(ctx, "Failed to start state store.", lw.Err(err))
	}

	eventBus := gateway.NewEventBus()
	coverMux := gateway.NewMux()

	l.LogInfo(ctx, "Starting covers.", lw.Datum("configCount", len(coverCfgs)))
	if err := startCovers(ctx, coverCfgs, link, stateGateway, eventBus, coverMux, subsystemLogger(l, "cover")); err != nil {
		l.LogFatal(ctx, "Failed to start covers.", lw.Err(err))
	}

	l.LogInfo(ctx, "Starting interfaces.", lw.Datum("configCount", len(interfaceCfgs)))
	startedInterfaces, err := startInterfaces(interfaceCfgs, coverMux, eventBus, directories, l)
	if err != nil {
		l.LogFatal(ctx, "Failed to start interfaces.", lw.Err(err))
	}

	l.LogInfo(ctx, "Somfy CUL ready.")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	s := <-signalCh
	l.LogInfo(ctx, "Signal received, shutting down.", lw.Datum("signal", s.String()))

	for _, intf := range startedInterfaces {
		l.LogInfo(ctx, "Shutting down interface.", lw.Datum("interface", intf.Name))

		if err := intf.Shutdown(); err != nil {
			l.LogError(ctx, "Failed to shutdown interface.", lw.Err(err), lw.Datum("interface", intf.Name))
		}
	}

	l.LogInfo(ctx, "Shutting down state store.")
	if err := shutdownState(); err != nil {
		l.LogError(ctx, "Failed to shutdown state store.", lw.Err(err))
	}

	l.LogInfo(ctx, "Shutting down transport.")
	if err := shutdownTransport(); err != nil {
		l.LogError(ctx, "Failed to shutdown transport.", lw.Err(err))
	}

	l.LogInfo(ctx, "Shut down complete.")
}

func subsystemLogger(l lw.Logger, source string) lw.Logger {
	sl := lw.New(nest.Wrap(l))
	sl.AddOptionsToLogger(lw.Source(source))
	return sl
}
