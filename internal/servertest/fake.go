// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package servertest provides a fake server and server factory whose
// descriptions are driven by tests.
package servertest

import (
	"sync"
	"sync/atomic"

	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/model"
)

type report struct {
	desc model.Server
	ack  chan struct{}
}

// FakeServer is a cluster.Server whose descriptions come from Report. The
// listener is always called from the fake's own goroutine.
type FakeServer struct {
	addr     model.Addr
	listener event.ChangeListener[model.Server]

	mu   sync.Mutex
	desc model.Server

	reports    chan report
	done       chan struct{}
	closeOnce  sync.Once
	closeCount int32
	wg         sync.WaitGroup
}

var _ cluster.Server = (*FakeServer)(nil)

// NewFakeServer creates a FakeServer and starts its goroutine.
func NewFakeServer(addr model.Addr, listener event.ChangeListener[model.Server]) *FakeServer {
	s := &FakeServer{
		addr:     addr,
		listener: listener,
		desc:     model.UnknownServer(addr),
		reports:  make(chan report),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *FakeServer) run() {
	defer s.wg.Done()
	for {
		select {
		case r := <-s.reports:
			s.mu.Lock()
			old := s.desc
			s.desc = r.desc
			s.mu.Unlock()
			if s.listener != nil {
				s.listener.StateChanged(event.NewChangeEvent(old, r.desc))
			}
			close(r.ack)
		case <-s.done:
			return
		}
	}
}

// Addr returns the server's address.
func (s *FakeServer) Addr() model.Addr {
	return s.addr
}

// Description implements cluster.Server.
func (s *FakeServer) Description() model.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desc
}

// Report installs desc and notifies the listener from the fake's goroutine.
// It returns once the listener has returned, or immediately when the server
// is closed.
func (s *FakeServer) Report(desc model.Server) {
	r := report{desc: desc, ack: make(chan struct{})}
	select {
	case s.reports <- r:
	case <-s.done:
		return
	}
	<-r.ack
}

// ReportAsync is Report without waiting for the listener.
func (s *FakeServer) ReportAsync(desc model.Server) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Report(desc)
	}()
}

// Close implements cluster.Server. It counts every call and stops the
// goroutine on the first one.
func (s *FakeServer) Close() error {
	atomic.AddInt32(&s.closeCount, 1)
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}

// CloseCount returns how many times Close was called.
func (s *FakeServer) CloseCount() int {
	return int(atomic.LoadInt32(&s.closeCount))
}

// FakeFactory creates FakeServers.
type FakeFactory struct {
	// Initial, when set, is reported by every created server right after
	// Create returns, racing with the caller.
	Initial *model.Server

	// Err is returned by Create when set.
	Err error

	mu      sync.Mutex
	servers []*FakeServer
}

var _ cluster.ServerFactory = (*FakeFactory)(nil)

// Create implements cluster.ServerFactory.
func (f *FakeFactory) Create(addr model.Addr, listener event.ChangeListener[model.Server]) (cluster.Server, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	s := NewFakeServer(addr, listener)
	f.mu.Lock()
	f.servers = append(f.servers, s)
	f.mu.Unlock()

	if f.Initial != nil {
		initial := *f.Initial
		initial.Addr = addr
		s.ReportAsync(initial)
	}
	return s, nil
}

// Servers returns every server created so far.
func (f *FakeFactory) Servers() []*FakeServer {
	f.mu.Lock()
	defer f.mu.Unlock()
	servers := make([]*FakeServer, len(f.servers))
	copy(servers, f.servers)
	return servers
}
