// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cluster

import (
	"time"

	"github.com/google/uuid"
	"github.com/ikmak/mongo-topology/connstring"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
)

const defaultServerSelectionTimeout = 30 * time.Second

// Settings configures a cluster. Settings are validated once, when the
// cluster is constructed, and never change afterwards.
type Settings struct {
	ID                     uuid.UUID
	AppName                string
	Hosts                  []model.Addr
	Mode                   model.ClusterMode
	ServerSelectionTimeout time.Duration

	// Listeners are registered before the cluster installs its first
	// description, so they observe every change.
	Listeners []event.ChangeListener[model.Cluster]
	Monitor   *event.ServerMonitor
	Logger    *logger.Logger
}

// Option configures Settings.
type Option func(*Settings)

// NewSettings creates Settings for a single server on localhost and applies
// opts in order. Logging is configured from the MONGODB_LOG_* environment
// variables unless WithLogger is given.
func NewSettings(opts ...Option) Settings {
	s := Settings{
		ID:                     uuid.New(),
		Hosts:                  []model.Addr{model.Addr("localhost").Canonicalize()},
		Mode:                   model.Single,
		ServerSelectionTimeout: defaultServerSelectionTimeout,
		Logger:                 logger.New(nil, nil),
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// WithConnString configures the cluster using the connection
// string.
func WithConnString(cs connstring.ConnString) Option {
	return func(s *Settings) {
		hosts := make([]model.Addr, 0, len(cs.Hosts))
		for _, host := range cs.Hosts {
			hosts = append(hosts, model.Addr(host).Canonicalize())
		}
		s.Hosts = hosts
		if cs.AppName != "" {
			s.AppName = cs.AppName
		}

		switch {
		case cs.ConnectSet() && cs.Connect == connstring.SingleConnect:
			s.Mode = model.Single
		case cs.ReplicaSet != "":
			s.Mode = model.ReplicaSet
		case len(cs.Hosts) == 1:
			s.Mode = model.Single
		default:
			// discovery of multi-host deployments is left to other variants.
			s.Mode = 0
		}

		if cs.ServerSelectionTimeoutSet() {
			s.ServerSelectionTimeout = cs.ServerSelectionTimeout
		}
	}
}

// WithAppName configures the application name reported when the cluster
// opens.
func WithAppName(name string) Option {
	return func(s *Settings) {
		s.AppName = name
	}
}

// WithSeedList configures a cluster's seed list.
func WithSeedList(addrs ...model.Addr) Option {
	return func(s *Settings) {
		s.Hosts = make([]model.Addr, 0, len(addrs))
		for _, addr := range addrs {
			s.Hosts = append(s.Hosts, addr.Canonicalize())
		}
	}
}

// WithMode configures the cluster's connection mode.
func WithMode(mode model.ClusterMode) Option {
	return func(s *Settings) {
		s.Mode = mode
	}
}

// WithServerSelectionTimeout configures how long Description waits when it
// is called without a timeout. It must be positive.
func WithServerSelectionTimeout(timeout time.Duration) Option {
	return func(s *Settings) {
		s.ServerSelectionTimeout = timeout
	}
}

// WithChangeListener registers a listener that is in place before the
// cluster's first description is installed.
func WithChangeListener(l event.ChangeListener[model.Cluster]) Option {
	return func(s *Settings) {
		s.Listeners = append(s.Listeners, l)
	}
}

// WithServerMonitor configures the monitor that receives the cluster's
// lifecycle events.
func WithServerMonitor(monitor *event.ServerMonitor) Option {
	return func(s *Settings) {
		s.Monitor = monitor
	}
}

// WithLogger configures the cluster's logger. A nil logger disables logging.
func WithLogger(log *logger.Logger) Option {
	return func(s *Settings) {
		s.Logger = log
	}
}

// WithID overrides the generated cluster ID.
func WithID(id uuid.UUID) Option {
	return func(s *Settings) {
		s.ID = id
	}
}

func (s Settings) validateSingle() error {
	if len(s.Hosts) != 1 {
		return invalidConfiguration("a single server cluster needs exactly one host, got %d", len(s.Hosts))
	}
	if s.Mode != model.Single {
		return invalidConfiguration("a single server cluster needs connection mode %s, got %s", model.Single, s.Mode)
	}
	if s.ServerSelectionTimeout <= 0 {
		return invalidConfiguration("server selection timeout must be positive, got %s", s.ServerSelectionTimeout)
	}
	return nil
}
