// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

import (
	"fmt"
	"strings"
)

// Cluster is a description of a cluster. Like Server, a Cluster is replaced
// rather than edited.
type Cluster struct {
	Servers []Server
	Mode    ClusterMode
}

// NewSingleCluster returns the description of a single-server cluster.
func NewSingleCluster(server Server) Cluster {
	return Cluster{
		Servers: []Server{server},
		Mode:    Single,
	}
}

// Server returns the server description with the specified address.
func (c Cluster) Server(addr Addr) (Server, bool) {
	for _, server := range c.Servers {
		if server.Addr == addr {
			return server, true
		}
	}
	return Server{}, false
}

// IsUnknown reports whether no server in the cluster has completed a
// heartbeat yet.
func (c Cluster) IsUnknown() bool {
	for _, server := range c.Servers {
		if !server.IsUnknown() {
			return false
		}
	}
	return true
}

// Equal compares two cluster descriptions server by server, in order.
func (c Cluster) Equal(other Cluster) bool {
	if c.Mode != other.Mode || len(c.Servers) != len(other.Servers) {
		return false
	}
	for i := range c.Servers {
		if !c.Servers[i].Equal(other.Servers[i]) {
			return false
		}
	}
	return true
}

func (c Cluster) String() string {
	servers := make([]string, 0, len(c.Servers))
	for _, s := range c.Servers {
		servers = append(servers, "{ "+s.String()+" }")
	}
	return fmt.Sprintf("Mode: %s, Servers: [%s]", c.Mode, strings.Join(servers, ", "))
}
