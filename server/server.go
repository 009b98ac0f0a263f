// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package server monitors a single server with periodic heartbeats.
package server

import (
	"sync"

	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
)

// ErrInvalidOption is returned when a server is created with options that
// cannot work.
var ErrInvalidOption = errors.New("invalid server option")

func errInvalidOption(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidOption, format, args...)
}

// Server is a monitored server. It starts heartbeating as soon as it is
// created and notifies its listener every time its description changes.
type Server struct {
	addr     model.Addr
	cfg      *config
	listener event.ChangeListener[model.Server]
	monitor  *monitor

	mu   sync.Mutex
	desc model.Server

	closeOnce sync.Once
}

var _ cluster.Server = (*Server)(nil)

// New creates a Server for addr and starts monitoring it. The first
// heartbeat runs in the background; until it completes Description returns
// model.UnknownServer. listener may be nil.
func New(addr model.Addr, listener event.ChangeListener[model.Server], opts ...Option) (*Server, error) {
	cfg := newConfig(opts...)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		addr:     addr,
		cfg:      cfg,
		listener: listener,
		desc:     model.UnknownServer(addr),
	}
	s.monitor = newMonitor(addr, cfg, s.updateDescription)

	s.cfg.logger.Print(logger.LevelInfo, logger.ComponentTopology, logger.ServerOpening,
		logger.KeyServerHost, addr.String())
	if cfg.monitor != nil && cfg.monitor.ServerOpening != nil {
		cfg.monitor.ServerOpening(&event.ServerOpeningEvent{Addr: addr})
	}

	s.monitor.start()
	return s, nil
}

// Addr returns the server's address.
func (s *Server) Addr() model.Addr {
	return s.addr
}

// Description returns the most recent description of the server.
func (s *Server) Description() model.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// RequestImmediateCheck asks for a heartbeat right away instead of at the
// next heartbeat interval.
func (s *Server) RequestImmediateCheck() {
	s.monitor.requestImmediateCheck()
}

// Close stops monitoring the server and waits for an in-flight heartbeat to
// be abandoned. The listener is not called once Close returns.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.monitor.stop()

		s.cfg.logger.Print(logger.LevelInfo, logger.ComponentTopology, logger.ServerClosed,
			logger.KeyServerHost, s.addr.String())
		if s.cfg.monitor != nil && s.cfg.monitor.ServerClosed != nil {
			s.cfg.monitor.ServerClosed(&event.ServerClosedEvent{Addr: s.addr})
		}
	})
	return nil
}

func (s *Server) updateDescription(desc model.Server) {
	s.mu.Lock()
	old := s.desc
	s.desc = desc
	s.mu.Unlock()

	if old.Equal(desc) || s.listener == nil {
		return
	}
	s.listener.StateChanged(event.NewChangeEvent(old, desc))
}
