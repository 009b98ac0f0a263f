// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

// ClusterMode is the connection mode of a cluster.
type ClusterMode uint32

// ClusterMode constants.
const (
	Single     ClusterMode = 1
	ReplicaSet ClusterMode = 2
	Sharded    ClusterMode = 256
)

func (m ClusterMode) String() string {
	switch m {
	case Single:
		return "Single"
	case ReplicaSet:
		return "ReplicaSet"
	case Sharded:
		return "Sharded"
	}

	return "Unknown"
}

// ServerKind represents the role a server plays in its deployment.
type ServerKind uint32

// ServerKind constants.
const (
	UnknownKind ServerKind = 0
	Standalone  ServerKind = 1
	RSMember    ServerKind = 2
	RSPrimary   ServerKind = 4 + RSMember
	RSSecondary ServerKind = 8 + RSMember
	RSArbiter   ServerKind = 16 + RSMember
	RSGhost     ServerKind = 32 + RSMember
	Mongos      ServerKind = 256
)

func (kind ServerKind) String() string {
	switch kind {
	case Standalone:
		return "Standalone"
	case RSMember:
		return "RSOther"
	case RSPrimary:
		return "RSPrimary"
	case RSSecondary:
		return "RSSecondary"
	case RSArbiter:
		return "RSArbiter"
	case RSGhost:
		return "RSGhost"
	case Mongos:
		return "Mongos"
	}

	return "Unknown"
}

// ServerState is the observed connection state of a server.
type ServerState uint8

// ServerState constants. Connecting is the state of a server that has not
// completed its first heartbeat.
const (
	Connecting ServerState = iota
	Connected
	Unavailable
)

func (s ServerState) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	case Unavailable:
		return "Unavailable"
	}

	return "Unknown"
}
