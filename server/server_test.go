// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/connstring"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const addr = model.Addr("db1:27017")

func withMinHeartbeatInterval(interval time.Duration) Option {
	return func(c *config) {
		c.minHeartbeatInterval = interval
	}
}

type recorder struct {
	mu     sync.Mutex
	events []event.ChangeEvent[model.Server]
}

func (r *recorder) StateChanged(e event.ChangeEvent[model.Server]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Events() []event.ChangeEvent[model.Server] {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]event.ChangeEvent[model.Server], len(r.events))
	copy(events, r.events)
	return events
}

func (r *recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// blockingChecker answers the n-th check with results[n] and blocks every
// later check until ctx is done.
func blockingChecker(calls *int32, results ...error) Checker {
	return CheckerFunc(func(ctx context.Context, _ model.Addr) (CheckResult, error) {
		n := int(atomic.AddInt32(calls, 1)) - 1
		if n < len(results) {
			if results[n] != nil {
				return CheckResult{}, results[n]
			}
			return CheckResult{Kind: model.RSPrimary, Tags: model.NewTagSet("dc", "ny")}, nil
		}
		<-ctx.Done()
		return CheckResult{}, ctx.Err()
	})
}

func newServer(t *testing.T, listener event.ChangeListener[model.Server], opts ...Option) *Server {
	t.Helper()

	opts = append([]Option{
		WithHeartbeatInterval(10 * time.Millisecond),
		withMinHeartbeatInterval(time.Millisecond),
	}, opts...)
	s, err := New(addr, listener, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestServer_unknown_until_first_heartbeat(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	checker := CheckerFunc(func(ctx context.Context, _ model.Addr) (CheckResult, error) {
		select {
		case <-release:
			return CheckResult{Kind: model.Standalone}, nil
		case <-ctx.Done():
			return CheckResult{}, ctx.Err()
		}
	})

	rec := &recorder{}
	s := newServer(t, rec, WithChecker(checker), WithHeartbeatInterval(time.Hour))

	require.True(t, s.Description().IsUnknown())
	require.Equal(t, addr, s.Description().Addr)
	require.Equal(t, addr, s.Addr())

	close(release)
	require.Eventually(t, func() bool { return rec.Len() == 1 }, 5*time.Second, time.Millisecond)

	e := rec.Events()[0]
	require.True(t, e.Old.IsUnknown())
	require.Equal(t, model.Connected, e.New.State)
	require.Equal(t, model.Standalone, e.New.Kind)
	require.True(t, e.New.AverageRTTSet)
	require.Equal(t, time.Hour, e.New.HeartbeatInterval)
	require.True(t, e.New.Equal(s.Description()))
}

func TestServer_check_result_is_described(t *testing.T) {
	t.Parallel()

	var calls int32
	rec := &recorder{}
	s := newServer(t, rec, WithChecker(blockingChecker(&calls, nil)))

	require.Eventually(t, func() bool { return rec.Len() == 1 }, 5*time.Second, time.Millisecond)

	desc := s.Description()
	require.Equal(t, model.RSPrimary, desc.Kind)
	require.True(t, desc.Tags.Equal(model.NewTagSet("dc", "ny")))
	require.NoError(t, desc.LastError)
	require.False(t, desc.LastUpdateTime.IsZero())
}

func TestServer_failed_heartbeat_is_unavailable(t *testing.T) {
	t.Parallel()

	var calls int32
	failure := errors.New("connection refused")
	rec := &recorder{}
	newServer(t, rec, WithChecker(blockingChecker(&calls, failure)))

	require.Eventually(t, func() bool { return rec.Len() == 1 }, 5*time.Second, time.Millisecond)

	desc := rec.Events()[0].New
	require.Equal(t, model.Unavailable, desc.State)
	require.Equal(t, model.UnknownKind, desc.Kind)
	require.Equal(t, failure, desc.LastError)
	require.False(t, desc.AverageRTTSet)
}

func TestServer_unknown_server_is_not_retried(t *testing.T) {
	t.Parallel()

	var calls int32
	rec := &recorder{}
	newServer(t, rec, WithChecker(blockingChecker(&calls, errors.New("connection refused"), nil)))

	require.Eventually(t, func() bool { return rec.Len() == 2 }, 5*time.Second, time.Millisecond)

	events := rec.Events()
	require.Equal(t, model.Unavailable, events[0].New.State)
	require.Equal(t, model.Connected, events[1].New.State)
}

func TestServer_connected_server_is_retried_once(t *testing.T) {
	t.Parallel()

	var calls int32
	rec := &recorder{}
	s := newServer(t, rec, WithChecker(blockingChecker(&calls, nil, errors.New("reset by peer"), nil)))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 4 }, 5*time.Second, time.Millisecond)

	require.Equal(t, model.Connected, s.Description().State)
	for _, e := range rec.Events() {
		require.NotEqual(t, model.Unavailable, e.New.State)
	}
}

func TestServer_second_failure_is_reported(t *testing.T) {
	t.Parallel()

	var calls int32
	failure := errors.New("reset by peer")
	rec := &recorder{}
	s := newServer(t, rec, WithChecker(blockingChecker(&calls, nil, failure, failure)))

	require.Eventually(t, func() bool { return rec.Len() == 2 }, 5*time.Second, time.Millisecond)

	events := rec.Events()
	require.Equal(t, model.Unavailable, s.Description().State)
	require.Equal(t, model.Connected, events[1].Old.State)
	require.Equal(t, failure, events[1].New.LastError)
}

func TestServer_RequestImmediateCheck(t *testing.T) {
	t.Parallel()

	var calls int32
	checker := CheckerFunc(func(context.Context, model.Addr) (CheckResult, error) {
		atomic.AddInt32(&calls, 1)
		return CheckResult{Kind: model.Standalone}, nil
	})
	s := newServer(t, nil, WithChecker(checker), WithHeartbeatInterval(time.Hour))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, 5*time.Second, time.Millisecond)

	s.RequestImmediateCheck()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, 5*time.Second, time.Millisecond)
}

func TestServer_Close(t *testing.T) {
	t.Parallel()

	var opened, closed, started int32
	monitor := &event.ServerMonitor{
		ServerOpening: func(*event.ServerOpeningEvent) { atomic.AddInt32(&opened, 1) },
		ServerClosed:  func(*event.ServerClosedEvent) { atomic.AddInt32(&closed, 1) },
		ServerHeartbeatStarted: func(*event.ServerHeartbeatStartedEvent) {
			atomic.AddInt32(&started, 1)
		},
	}

	var calls int32
	rec := &recorder{}
	s, err := New(addr, rec,
		WithChecker(blockingChecker(&calls, nil)),
		WithServerMonitor(monitor),
		withMinHeartbeatInterval(time.Millisecond),
		WithHeartbeatInterval(10*time.Millisecond),
	)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&opened))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, 5*time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))

	// the check abandoned by Close is not reported
	require.Equal(t, 1, rec.Len())
	require.Equal(t, model.Connected, s.Description().State)
	require.Equal(t, int32(2), atomic.LoadInt32(&started))
}

func TestServer_heartbeat_events(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var succeeded []*event.ServerHeartbeatSucceededEvent
	var failed []*event.ServerHeartbeatFailedEvent
	monitor := &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(e *event.ServerHeartbeatSucceededEvent) {
			mu.Lock()
			succeeded = append(succeeded, e)
			mu.Unlock()
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			mu.Lock()
			failed = append(failed, e)
			mu.Unlock()
		},
	}

	var calls int32
	failure := errors.New("timeout")
	s := newServer(t, nil, WithChecker(blockingChecker(&calls, nil, failure, failure)), WithServerMonitor(monitor))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 4 }, 5*time.Second, time.Millisecond)
	require.NoError(t, s.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, succeeded, 1)
	assert.Equal(t, addr, succeeded[0].Addr)
	assert.Equal(t, model.Connected, succeeded[0].Reply.State)
	require.GreaterOrEqual(t, len(failed), 2)
	assert.Equal(t, failure, failed[0].Failure)
	assert.Equal(t, addr, failed[0].Addr)
}

func TestNew_invalid_options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  Option
	}{
		{"no checker", WithChecker(nil)},
		{"zero heartbeat interval", WithHeartbeatInterval(0)},
		{"negative connect timeout", WithConnectTimeout(-time.Second)},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			s, err := New(addr, nil, test.opt)
			require.Nil(t, s)
			require.True(t, errors.Is(err, ErrInvalidOption), "unexpected error %v", err)

			_, err = NewFactory(test.opt).Create(addr, nil)
			require.True(t, errors.Is(err, ErrInvalidOption))
		})
	}
}

func TestWithConnString(t *testing.T) {
	t.Parallel()

	cs, err := connstring.Parse("mongodb://db1/?heartbeatFrequencyMS=2000&connectTimeoutMS=300")
	require.NoError(t, err)
	cfg := newConfig(WithConnString(cs))
	require.Equal(t, 2*time.Second, cfg.heartbeatInterval)
	require.Equal(t, 300*time.Millisecond, cfg.connectTimeout)

	cs, err = connstring.Parse("mongodb://db1")
	require.NoError(t, err)
	cfg = newConfig(WithConnString(cs))
	require.Equal(t, defaultHeartbeatInterval, cfg.heartbeatInterval)
	require.Equal(t, defaultConnectTimeout, cfg.connectTimeout)
}

func TestFactory_with_single_cluster(t *testing.T) {
	t.Parallel()

	var calls int32
	factory := NewFactory(
		WithChecker(blockingChecker(&calls, nil)),
		withMinHeartbeatInterval(time.Millisecond),
	)

	c, err := cluster.NewSingle(cluster.NewSettings(cluster.WithSeedList(addr)), factory)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	desc, err := c.Description(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, model.Single, desc.Mode)
	require.Len(t, desc.Servers, 1)
	require.Equal(t, model.Connected, desc.Servers[0].State)
	require.Equal(t, model.RSPrimary, desc.Servers[0].Kind)

	srv, err := c.Server(addr)
	require.NoError(t, err)
	require.IsType(t, &Server{}, srv)
}

func TestDialChecker(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		conn, err := l.Accept()
		if err == nil {
			_ = conn.Close()
		}
	}()

	p := &DialChecker{}
	result, err := p.Check(context.Background(), model.Addr(l.Addr().String()))
	require.NoError(t, err)
	require.Equal(t, model.Standalone, result.Kind)
	<-accepted

	require.NoError(t, l.Close())
	_, err = p.Check(context.Background(), model.Addr(l.Addr().String()))
	require.Error(t, err)
}
