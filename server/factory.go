// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/model"
)

// Factory creates heartbeat-monitored servers for a cluster. Every server it
// creates shares the same options.
type Factory struct {
	opts []Option
}

var _ cluster.ServerFactory = (*Factory)(nil)

// NewFactory creates a Factory.
func NewFactory(opts ...Option) *Factory {
	return &Factory{opts: opts}
}

// Create implements cluster.ServerFactory.
func (f *Factory) Create(addr model.Addr, listener event.ChangeListener[model.Server]) (cluster.Server, error) {
	s, err := New(addr, listener, f.opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}
