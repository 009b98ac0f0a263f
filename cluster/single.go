// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cluster

import (
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
)

// Single is a cluster of exactly one server, connected to directly.
type Single struct {
	*base
	server Server
}

var _ Cluster = (*Single)(nil)

// NewSingle creates a Single cluster. The settings must name exactly one
// host and use model.Single mode; otherwise ErrInvalidConfiguration is
// returned and no server is created.
func NewSingle(settings Settings, factory ServerFactory) (*Single, error) {
	if err := settings.validateSingle(); err != nil {
		return nil, err
	}

	addr := settings.Hosts[0]
	c := &Single{
		base: newBase(settings, model.NewSingleCluster(model.UnknownServer(addr))),
	}
	c.publishOpening()

	// The server may report its first description before this function
	// returns. Holding mu until the first description is installed makes such
	// a report wait for the construction to finish.
	c.mu.Lock()
	server, err := factory.Create(addr, event.ChangeListenerFunc[model.Server](c.serverChanged))
	if err != nil {
		c.markClosedLocked()
		c.mu.Unlock()
		c.publishClosed()
		return nil, errors.Wrapf(err, "creating server %s", addr)
	}
	c.server = server
	c.updateLocked(model.NewSingleCluster(server.Description()))
	c.unlockAndDispatch()

	return c, nil
}

func (c *Single) serverChanged(e event.ChangeEvent[model.Server]) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.updateLocked(model.NewSingleCluster(e.New))
	c.unlockAndDispatch()
}

// Server returns the cluster's only server, whatever addr is.
func (c *Single) Server(model.Addr) (Server, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClusterClosed
	}
	return c.server, nil
}

// Close closes the server and the cluster. Only the first call has an effect.
// The cluster is marked closed before the server is closed so that a change
// reported while the server shuts down is dropped.
func (c *Single) Close() error {
	c.mu.Lock()
	if !c.markClosedLocked() {
		c.mu.Unlock()
		return nil
	}
	server := c.server
	c.mu.Unlock()

	if err := server.Close(); err != nil {
		c.settings.Logger.Error(logger.ComponentTopology, err, "Error closing server",
			logger.KeyClusterID, c.ID(), logger.KeyServerHost, string(c.settings.Hosts[0]))
	}
	c.publishClosed()
	return nil
}
