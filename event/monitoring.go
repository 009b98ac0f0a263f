// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/ikmak/mongo-topology/model"
)

// ServerOpeningEvent is an event generated when the server is initialized.
type ServerOpeningEvent struct {
	Addr model.Addr
}

// ServerClosedEvent is an event generated when the server is closed.
type ServerClosedEvent struct {
	Addr model.Addr
}

// ClusterOpeningEvent is an event generated when the cluster is initialized.
type ClusterOpeningEvent struct {
	ClusterID uuid.UUID
	AppName   string
	Mode      model.ClusterMode
}

// ClusterClosedEvent is an event generated when the cluster is closed.
type ClusterClosedEvent struct {
	ClusterID uuid.UUID
}

// ServerHeartbeatStartedEvent is an event generated when a heartbeat is started.
type ServerHeartbeatStartedEvent struct {
	Addr model.Addr
}

// ServerHeartbeatSucceededEvent is an event generated when a heartbeat succeeds.
type ServerHeartbeatSucceededEvent struct {
	Addr     model.Addr
	Duration time.Duration
	Reply    model.Server
}

// ServerHeartbeatFailedEvent is an event generated when a heartbeat fails.
type ServerHeartbeatFailedEvent struct {
	Addr     model.Addr
	Duration time.Duration
	Failure  error
}

// ServerMonitor represents a monitor that is triggered for lifecycle events of
// clusters and their servers. Description changes are not reported here;
// they are delivered to ChangeListeners.
//
// Every field is optional. The callbacks run on the goroutine that produced
// the event and must not block.
type ServerMonitor struct {
	ServerOpening            func(*ServerOpeningEvent)
	ServerClosed             func(*ServerClosedEvent)
	ClusterOpening           func(*ClusterOpeningEvent)
	ClusterClosed            func(*ClusterClosedEvent)
	ServerHeartbeatStarted   func(*ServerHeartbeatStartedEvent)
	ServerHeartbeatSucceeded func(*ServerHeartbeatSucceededEvent)
	ServerHeartbeatFailed    func(*ServerHeartbeatFailedEvent)
}
