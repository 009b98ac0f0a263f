// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"time"

	"github.com/ikmak/mongo-topology/connstring"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
)

const (
	defaultHeartbeatInterval = 10 * time.Second
	defaultConnectTimeout    = 30 * time.Second
	defaultMinRTTWindow      = 5 * time.Minute

	// minHeartbeatInterval is the shortest time allowed between two
	// heartbeats, including ones requested with RequestImmediateCheck.
	minHeartbeatInterval = 500 * time.Millisecond
)

func newConfig(opts ...Option) *config {
	cfg := &config{
		checker:              &DialChecker{},
		heartbeatInterval:    defaultHeartbeatInterval,
		connectTimeout:       defaultConnectTimeout,
		minRTTWindow:         defaultMinRTTWindow,
		minHeartbeatInterval: minHeartbeatInterval,
		logger:               logger.New(nil, nil),
	}

	cfg.apply(opts...)

	return cfg
}

// Option configures a server.
type Option func(*config)

type config struct {
	checker              Checker
	heartbeatInterval    time.Duration
	connectTimeout       time.Duration
	minRTTWindow         time.Duration
	minHeartbeatInterval time.Duration
	monitor              *event.ServerMonitor
	logger               *logger.Logger
}

func (c *config) apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

func (c *config) validate() error {
	if c.checker == nil {
		return errInvalidOption("a checker is required")
	}
	if c.heartbeatInterval <= 0 {
		return errInvalidOption("heartbeat interval must be positive, got %s", c.heartbeatInterval)
	}
	if c.connectTimeout <= 0 {
		return errInvalidOption("connect timeout must be positive, got %s", c.connectTimeout)
	}
	return nil
}

// WithConnString configures the server using the connection string.
func WithConnString(cs connstring.ConnString) Option {
	return func(c *config) {
		if cs.HeartbeatIntervalSet() {
			c.heartbeatInterval = cs.HeartbeatInterval
		}
		if cs.ConnectTimeoutSet() {
			c.connectTimeout = cs.ConnectTimeout
		}
	}
}

// WithChecker configures how a server is checked on every heartbeat.
func WithChecker(checker Checker) Option {
	return func(c *config) {
		c.checker = checker
	}
}

// WithHeartbeatInterval configures a server's heartbeat interval.
func WithHeartbeatInterval(interval time.Duration) Option {
	return func(c *config) {
		c.heartbeatInterval = interval
	}
}

// WithConnectTimeout configures how long a single check may take.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.connectTimeout = timeout
	}
}

// WithMinRTTWindow configures the window over which the minimum and the 90th
// percentile round trip times are computed.
func WithMinRTTWindow(window time.Duration) Option {
	return func(c *config) {
		c.minRTTWindow = window
	}
}

// WithServerMonitor configures the monitor that receives the server's
// lifecycle and heartbeat events.
func WithServerMonitor(monitor *event.ServerMonitor) Option {
	return func(c *config) {
		c.monitor = monitor
	}
}

// WithLogger configures the server's logger.
func WithLogger(log *logger.Logger) Option {
	return func(c *config) {
		c.logger = log
	}
}
