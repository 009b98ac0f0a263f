// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package cluster tracks the client's view of the servers it is connected to.
//
// A Cluster owns the servers it creates through a ServerFactory and keeps an
// immutable model.Cluster describing them, replacing it every time one of its
// servers reports a new model.Server. Callers read the current description
// with DescriptionNoWaiting, wait for the first real one with Description,
// and subscribe to changes with AddChangeListener.
package cluster

import (
	"context"
	"time"

	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/model"
)

// Cluster represents a connection to a cluster.
type Cluster interface {
	// DescriptionNoWaiting returns the current description, which may still be
	// the placeholder installed at construction. It never blocks.
	DescriptionNoWaiting() model.Cluster

	// Description blocks until a description other than the placeholder is
	// available, the timeout elapses, or ctx is done. A timeout <= 0 uses the
	// cluster's server selection timeout.
	Description(ctx context.Context, timeout time.Duration) (model.Cluster, error)

	// Server resolves an address to the server managing it.
	Server(addr model.Addr) (Server, error)

	// AddChangeListener registers a listener for description changes and
	// returns a function that removes it. Listeners are called in
	// registration order and may read from the cluster, but must not close it.
	AddChangeListener(event.ChangeListener[model.Cluster]) func()

	// Close closes the cluster and the servers it owns. It is idempotent and
	// always returns nil.
	Close() error
}

// Server is a monitored server owned by a Cluster.
type Server interface {
	// Description returns the most recently observed description without
	// blocking. Before the first heartbeat it returns model.UnknownServer.
	Description() model.Server

	// Close stops monitoring. It is idempotent and Description keeps working
	// after it.
	Close() error
}

// ServerFactory creates servers for a Cluster.
//
// Create starts monitoring addr and returns without waiting for the first
// heartbeat. The listener is called from the server's own goroutine every time
// the server's description changes, including the first observation. It must
// never be called synchronously from Create.
type ServerFactory interface {
	Create(addr model.Addr, listener event.ChangeListener[model.Server]) (Server, error)
}

// ServerFactoryFunc adapts an ordinary function to a ServerFactory.
type ServerFactoryFunc func(model.Addr, event.ChangeListener[model.Server]) (Server, error)

// Create implements ServerFactory.
func (f ServerFactoryFunc) Create(addr model.Addr, listener event.ChangeListener[model.Server]) (Server, error) {
	return f(addr, listener)
}

// New creates the Cluster variant matching settings.Mode.
func New(settings Settings, factory ServerFactory) (Cluster, error) {
	switch settings.Mode {
	case model.Single:
		c, err := NewSingle(settings, factory)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, invalidConfiguration("unsupported connection mode %s", settings.Mode)
	}
}
