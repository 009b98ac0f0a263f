// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"context"
	"sync"
	"time"

	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
)

// monitor runs the heartbeat loop of one server and hands every description
// it produces to update, from its own goroutine.
type monitor struct {
	addr   model.Addr
	cfg    *config
	rtt    *rttStats
	update func(model.Server)

	checkNow chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func newMonitor(addr model.Addr, cfg *config, update func(model.Server)) *monitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &monitor{
		addr:     addr,
		cfg:      cfg,
		rtt:      newRTTStats(cfg.heartbeatInterval, cfg.minRTTWindow),
		update:   update,
		checkNow: make(chan struct{}, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (m *monitor) start() {
	m.wg.Add(1)
	go m.run()
}

// stop cancels an in-flight check and waits for the goroutine to exit. No
// description is handed to update once stop returns.
func (m *monitor) stop() {
	m.cancel()
	m.wg.Wait()
}

// requestImmediateCheck wakes the heartbeat loop early. Requests made while
// one is pending are coalesced.
func (m *monitor) requestImmediateCheck() {
	select {
	case m.checkNow <- struct{}{}:
	default:
	}
}

func (m *monitor) run() {
	defer m.wg.Done()

	heartbeatTimer := time.NewTimer(0)
	rateLimitTimer := time.NewTimer(0)
	defer heartbeatTimer.Stop()
	defer rateLimitTimer.Stop()

	prev := model.UnknownServer(m.addr)
	for {
		select {
		case <-heartbeatTimer.C:
		case <-m.checkNow:
		case <-m.ctx.Done():
			return
		}

		// wait if the last heartbeat was less than minHeartbeatInterval ago
		select {
		case <-rateLimitTimer.C:
		case <-m.ctx.Done():
			return
		}

		desc := m.heartbeat(prev)
		if m.ctx.Err() != nil {
			return
		}
		m.update(desc)
		prev = desc

		rateLimitTimer.Reset(m.cfg.minHeartbeatInterval)
		if !heartbeatTimer.Stop() {
			select {
			case <-heartbeatTimer.C:
			default:
			}
		}
		heartbeatTimer.Reset(m.cfg.heartbeatInterval)
	}
}

// heartbeat checks the server. A server that was connected gets a second
// attempt before it is reported unavailable.
func (m *monitor) heartbeat(prev model.Server) model.Server {
	attempts := 1
	if prev.State == model.Connected {
		attempts = 2
	}

	var err error
	for i := 0; i < attempts; i++ {
		m.publishStarted()

		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.connectTimeout)
		start := time.Now()
		var result CheckResult
		result, err = m.cfg.checker.Check(ctx, m.addr)
		duration := time.Since(start)
		cancel()

		if err == nil {
			m.rtt.addSample(duration)
			desc := model.Server{
				Addr:              m.addr,
				State:             model.Connected,
				Kind:              result.Kind,
				MinRTT:            m.rtt.minRTT,
				RTT90:             m.rtt.rtt90,
				HeartbeatInterval: m.cfg.heartbeatInterval,
				LastUpdateTime:    time.Now().UTC(),
				Tags:              result.Tags,
			}
			desc.SetAverageRTT(m.rtt.averageRTT)
			m.publishSucceeded(duration, desc)
			return desc
		}

		m.publishFailed(duration, err)
		if m.ctx.Err() != nil {
			break
		}
	}

	m.rtt.reset()
	desc := model.UnavailableServer(m.addr, err)
	desc.HeartbeatInterval = m.cfg.heartbeatInterval
	return desc
}

func (m *monitor) publishStarted() {
	if m.cfg.monitor != nil && m.cfg.monitor.ServerHeartbeatStarted != nil {
		m.cfg.monitor.ServerHeartbeatStarted(&event.ServerHeartbeatStartedEvent{Addr: m.addr})
	}
}

func (m *monitor) publishSucceeded(duration time.Duration, desc model.Server) {
	m.cfg.logger.Print(logger.LevelDebug, logger.ComponentTopology, logger.ServerHeartbeatSucceeded,
		logger.KeyServerHost, m.addr.String(),
		logger.KeyDurationMS, duration.Milliseconds(),
	)
	if m.cfg.monitor != nil && m.cfg.monitor.ServerHeartbeatSucceeded != nil {
		m.cfg.monitor.ServerHeartbeatSucceeded(&event.ServerHeartbeatSucceededEvent{
			Addr:     m.addr,
			Duration: duration,
			Reply:    desc,
		})
	}
}

func (m *monitor) publishFailed(duration time.Duration, err error) {
	m.cfg.logger.Print(logger.LevelDebug, logger.ComponentTopology, logger.ServerHeartbeatFailed,
		logger.KeyServerHost, m.addr.String(),
		logger.KeyDurationMS, duration.Milliseconds(),
		logger.KeyFailure, err.Error(),
	)
	if m.cfg.monitor != nil && m.cfg.monitor.ServerHeartbeatFailed != nil {
		m.cfg.monitor.ServerHeartbeatFailed(&event.ServerHeartbeatFailedEvent{
			Addr:     m.addr,
			Duration: duration,
			Failure:  err,
		})
	}
}
