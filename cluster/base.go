// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
)

type listenerEntry struct {
	listener event.ChangeListener[model.Cluster]
}

type dispatch struct {
	event     event.ChangeEvent[model.Cluster]
	listeners []*listenerEntry
}

// base holds the state shared by every cluster variant: the current
// description, the closed flag, and the registered listeners. All of it is
// guarded by mu.
//
// Listeners are never called with mu held. Changes are queued in pending
// under mu and delivered by whichever goroutine finds no delivery in progress,
// so listeners see changes in the order they were installed and may call
// back into the cluster's read accessors.
type base struct {
	settings    Settings
	placeholder model.Cluster

	mu          sync.Mutex
	desc        model.Cluster
	closed      bool
	updated     chan struct{}
	done        chan struct{}
	listeners   []*listenerEntry
	pending     []dispatch
	dispatching bool
}

func newBase(settings Settings, placeholder model.Cluster) *base {
	b := &base{
		settings:    settings,
		placeholder: placeholder,
		desc:        placeholder,
		updated:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, l := range settings.Listeners {
		b.listeners = append(b.listeners, &listenerEntry{listener: l})
	}
	return b
}

// ID returns the cluster's ID.
func (b *base) ID() string {
	return b.settings.ID.String()
}

// DescriptionNoWaiting returns the current description.
func (b *base) DescriptionNoWaiting() model.Cluster {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.desc
}

// Description waits for a description that is not the placeholder.
func (b *base) Description(ctx context.Context, timeout time.Duration) (model.Cluster, error) {
	if timeout <= 0 {
		timeout = b.settings.ServerSelectionTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		b.mu.Lock()
		desc, updated, closed := b.desc, b.updated, b.closed
		b.mu.Unlock()

		if !desc.IsUnknown() {
			return desc, nil
		}
		if closed {
			return model.Cluster{}, ErrClusterClosed
		}

		select {
		case <-updated:
		case <-b.done:
		case <-timer.C:
			return model.Cluster{}, errors.Wrapf(ErrTimedOut, "waited %s, current description: { %s }", timeout, desc)
		case <-ctx.Done():
			return model.Cluster{}, errors.Wrap(ctx.Err(), "waiting for a cluster description")
		}
	}
}

// AddChangeListener registers l. When the current description is no longer
// the placeholder, l first receives a synthetic event from the placeholder to
// the current description. A listener that is removed may still receive
// changes that were queued before its removal.
func (b *base) AddChangeListener(l event.ChangeListener[model.Cluster]) func() {
	entry := &listenerEntry{listener: l}

	b.mu.Lock()
	b.listeners = append(b.listeners, entry)
	if b.closed || b.desc.IsUnknown() {
		b.mu.Unlock()
	} else {
		b.pending = append(b.pending, dispatch{
			event:     event.NewChangeEvent(b.placeholder, b.desc),
			listeners: []*listenerEntry{entry},
		})
		b.unlockAndDispatch()
	}

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		listeners := make([]*listenerEntry, 0, len(b.listeners))
		for _, e := range b.listeners {
			if e != entry {
				listeners = append(listeners, e)
			}
		}
		b.listeners = listeners
	}
}

// updateLocked installs desc, wakes every waiter, and queues the change for
// the listeners registered at this moment. A desc equal to the current one is
// installed without queuing an event. b.mu must be held.
func (b *base) updateLocked(desc model.Cluster) {
	old := b.desc
	b.desc = desc
	close(b.updated)
	b.updated = make(chan struct{})

	if old.Equal(desc) {
		return
	}

	listeners := make([]*listenerEntry, len(b.listeners))
	copy(listeners, b.listeners)
	b.pending = append(b.pending, dispatch{
		event:     event.NewChangeEvent(old, desc),
		listeners: listeners,
	})
}

// unlockAndDispatch delivers the queued changes and releases b.mu. If another
// goroutine is already delivering, it delivers these changes as well and this
// call returns right away. Delivery stops once the cluster is closed; a
// listener call already in progress runs to completion. b.mu must be held.
func (b *base) unlockAndDispatch() {
	if b.dispatching {
		b.mu.Unlock()
		return
	}

	b.dispatching = true
	for len(b.pending) > 0 {
		d := b.pending[0]
		b.pending[0] = dispatch{}
		b.pending = b.pending[1:]

		b.mu.Unlock()
		b.fire(d)
		b.mu.Lock()

		if b.closed {
			break
		}
	}
	b.pending = nil
	b.dispatching = false
	b.mu.Unlock()
}

func (b *base) fire(d dispatch) {
	if log := b.settings.Logger; log.LevelComponentEnabled(logger.LevelDebug, logger.ComponentTopology) {
		log.Print(logger.LevelDebug, logger.ComponentTopology, logger.ClusterDescriptionChanged,
			logger.KeyClusterID, b.ID(),
			logger.KeyPreviousDescription, d.event.Old.String(),
			logger.KeyNewDescription, d.event.New.String(),
		)
	}

	for _, entry := range d.listeners {
		select {
		case <-b.done:
			return
		default:
		}
		b.notify(entry.listener, d.event)
	}
}

// notify calls l and recovers a panic so that a faulty listener cannot take
// down the goroutine delivering changes.
func (b *base) notify(l event.ChangeListener[model.Cluster], e event.ChangeEvent[model.Cluster]) {
	defer func() {
		if r := recover(); r != nil {
			b.settings.Logger.Error(logger.ComponentTopology, fmt.Errorf("%v", r),
				"Cluster change listener panicked", logger.KeyClusterID, b.ID())
		}
	}()
	l.StateChanged(e)
}

// markClosedLocked marks the cluster closed, wakes every waiter, and drops
// the changes not yet delivered. It reports false when the cluster was already
// closed. b.mu must be held.
func (b *base) markClosedLocked() bool {
	if b.closed {
		return false
	}
	b.closed = true
	close(b.done)
	b.pending = nil
	return true
}

func (b *base) publishOpening() {
	keysAndValues := []interface{}{logger.KeyClusterID, b.ID()}
	if b.settings.AppName != "" {
		keysAndValues = append(keysAndValues, logger.KeyAppName, b.settings.AppName)
	}
	b.settings.Logger.Print(logger.LevelInfo, logger.ComponentTopology, logger.ClusterOpening, keysAndValues...)
	if b.settings.Monitor != nil && b.settings.Monitor.ClusterOpening != nil {
		b.settings.Monitor.ClusterOpening(&event.ClusterOpeningEvent{
			ClusterID: b.settings.ID,
			AppName:   b.settings.AppName,
			Mode:      b.settings.Mode,
		})
	}
}

func (b *base) publishClosed() {
	b.settings.Logger.Print(logger.LevelInfo, logger.ComponentTopology, logger.ClusterClosed,
		logger.KeyClusterID, b.ID())
	if b.settings.Monitor != nil && b.settings.Monitor.ClusterClosed != nil {
		b.settings.Monitor.ClusterClosed(&event.ClusterClosedEvent{ClusterID: b.settings.ID})
	}
}
