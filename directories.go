package main

import (
	"context"
	"errors"
	"flag"
	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/shimmeringbee/logwrap"
	"io/fs"
	"os"
	"path/filepath"
)

const DefaultDirectoryPermissions = 0700

const DefaultEnvironmentFile = ".env"

type Directories struct {
	Config string
	Data   string
	Log    string
}

// enumerateDirectories resolves directories from flags, then environment variables (optionally
// loaded from a .env file in the working directory), then per user defaults.
func enumerateDirectories(ctx context.Context, l logwrap.Logger, args []string) Directories {
	if err := godotenv.Load(DefaultEnvironmentFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.LogWarn(ctx, "Failed to load environment file.", logwrap.Datum("file", DefaultEnvironmentFile), logwrap.Err(err))
	}

	directories, err := parseDirectories(args)
	if err != nil {
		l.LogFatal(ctx, "Failed to parse environment/command line arguments.", logwrap.Err(err))
	}

	for _, dir := range []string{directories.Config, directories.Data, directories.Log} {
		if err := os.MkdirAll(dir, DefaultDirectoryPermissions); err != nil {
			l.LogFatal(ctx, "Failed to initialise directory.", logwrap.Datum("directory", dir), logwrap.Err(err))
		}
	}

	return directories
}

func parseDirectories(args []string) (Directories, error) {
	flags := flag.NewFlagSet("somfycul", flag.ContinueOnError)

	defaults := Directories{}

	for t, dst := range map[string]*string{"config": &defaults.Config, "data": &defaults.Data, "log": &defaults.Log} {
		dir, err := defaultDirectory(t)
		if err != nil {
			return Directories{}, err
		}

		*dst = dir
	}

	configDirectory := flags.String("config-directory", defaults.Config, "location of configuration files")
	dataDirectory := flags.String("data-directory", defaults.Data, "location of data files")
	logDirectory := flags.String("log-directory", defaults.Log, "location of log files")

	if err := ff.Parse(flags, args, ff.WithEnvVarNoPrefix()); err != nil {
		return Directories{}, err
	}

	return Directories{
		Config: *configDirectory,
		Data:   *dataDirectory,
		Log:    *logDirectory,
	}, nil
}

func defaultDirectory(t string) (string, error) {
	if configDir, err := os.UserConfigDir(); err != nil {
		return "", err
	} else {
		return filepath.Join(configDir, "shimmeringbee", "somfycul", t), nil
	}
}
