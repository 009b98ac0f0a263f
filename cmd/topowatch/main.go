// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Command topowatch connects to a deployment, prints every change of its
// description, and optionally serves the description as Prometheus metrics.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/connstring"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/metrics"
	"github.com/ikmak/mongo-topology/model"
	"github.com/ikmak/mongo-topology/server"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("topowatch failed")
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "topowatch",
		Usage: "watch the topology of a MongoDB deployment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "uri",
				Usage: "connection string of the deployment",
				Value: defaultURI,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "TOML file with uri, timeout, metrics_addr and log_level",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "how long to wait for the first description",
				Value: defaultTimeout,
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "address to serve /metrics on",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level for every component (off, info, debug)",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "print the first description and exit",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := configFromContext(c)
			if err != nil {
				return err
			}
			return run(c.Context, cfg, out, c.App.ErrWriter)
		},
	}
}

func newLogger(level string, w io.Writer) *logger.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)

	var levels map[logger.Component]logger.Level
	if level != "" {
		levels = map[logger.Component]logger.Level{logger.ComponentAll: logger.ParseLevel(level)}
	}
	return logger.New(logger.NewLogrusSink(l), levels)
}

func run(ctx context.Context, cfg config, out, errOut io.Writer) error {
	cs, err := connstring.Parse(cfg.URI)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel, errOut)
	collector := metrics.NewCollector("topowatch")
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	factory := server.NewFactory(
		server.WithConnString(cs),
		server.WithLogger(log),
		server.WithServerMonitor(collector.ServerMonitor()),
	)
	topo, err := cluster.New(cluster.NewSettings(
		cluster.WithConnString(cs),
		cluster.WithLogger(log),
		cluster.WithChangeListener(collector),
	), factory)
	if err != nil {
		return err
	}
	defer topo.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	desc, err := topo.Description(ctx, cfg.Timeout)
	if err != nil {
		return errors.Wrap(err, "waiting for the deployment")
	}
	if cfg.Once {
		_, err := fmt.Fprintln(out, desc)
		return err
	}

	// the first event replays the description already obtained
	topo.AddChangeListener(event.ChangeListenerFunc[model.Cluster](func(e event.ChangeEvent[model.Cluster]) {
		fmt.Fprintln(out, e.New)
	}))

	g, ctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler(registry))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serving metrics")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}
