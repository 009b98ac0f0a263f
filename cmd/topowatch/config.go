// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package main

import (
	"os"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	defaultURI     = "mongodb://localhost:27017"
	defaultTimeout = 30 * time.Second
)

type config struct {
	URI         string
	Timeout     time.Duration
	MetricsAddr string
	LogLevel    string
	Once        bool
}

// fileConfig is the layout of the file passed with --config. Durations are
// strings accepted by time.ParseDuration.
type fileConfig struct {
	URI         string `toml:"uri"`
	Timeout     string `toml:"timeout"`
	MetricsAddr string `toml:"metrics_addr"`
	LogLevel    string `toml:"log_level"`
}

func defaultConfig() config {
	return config{
		URI:     defaultURI,
		Timeout: defaultTimeout,
	}
}

func loadConfigFile(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return errors.Wrapf(err, "parsing config file %s", path)
	}

	if fc.URI != "" {
		cfg.URI = fc.URI
	}
	if fc.Timeout != "" {
		timeout, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return errors.Wrapf(err, "parsing timeout in %s", path)
		}
		cfg.Timeout = timeout
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	return nil
}

// configFromContext builds the configuration from defaults, then the config
// file, then the flags that were set explicitly.
func configFromContext(c *cli.Context) (config, error) {
	cfg := defaultConfig()

	if path := c.String("config"); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	if c.IsSet("uri") {
		cfg.URI = c.String("uri")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	cfg.Once = c.Bool("once")

	return cfg, nil
}
