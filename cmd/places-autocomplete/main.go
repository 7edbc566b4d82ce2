// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package main implements the places-autocomplete command line client.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/wneessen/places-autocomplete/internal/config"
	"github.com/wneessen/places-autocomplete/internal/logger"
	"github.com/wneessen/places-autocomplete/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.NewLogger(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	queryText := flag.String("query", "", "search once for the given text instead of reading from stdin")
	selection := flag.Int("select", 0, "fetch the details of the n-th result of -query")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.NewLogger(conf.LogLevel)
	if conf.APIKey == "" {
		log.Warn("no API key configured, requests will be rejected by the Places API")
	}

	serv, err := service.New(conf, log, os.Stdout)
	if err != nil {
		log.Error("failed to initialize places-autocomplete service", logger.Err(err))
		os.Exit(1)
	}

	log.Debug("starting places-autocomplete", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	if *queryText != "" {
		err = serv.Query(ctx, *queryText, *selection)
	} else {
		err = serv.Run(ctx, os.Stdin)
	}
	if err != nil {
		log.Error("places-autocomplete failed", logger.Err(err))
		os.Exit(1)
	}
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", config.AppName, "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
