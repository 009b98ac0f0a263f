// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package model

import (
	"fmt"
	"time"
)

// UnsetRTT is the unset value for a round trip time.
const UnsetRTT = -1 * time.Millisecond

// Server is a description of a server. A Server is never modified after it
// has been published; a state change produces a new Server.
type Server struct {
	Addr Addr

	State             ServerState
	Kind              ServerKind
	AverageRTT        time.Duration
	AverageRTTSet     bool
	MinRTT            time.Duration
	RTT90             time.Duration
	HeartbeatInterval time.Duration
	LastError         error
	LastUpdateTime    time.Time
	Tags              TagSet
}

// UnknownServer returns the description of a server that has not been
// heard from yet.
func UnknownServer(addr Addr) Server {
	return Server{
		Addr:  addr,
		State: Connecting,
	}
}

// UnavailableServer returns the description of a server whose last
// heartbeat failed with err.
func UnavailableServer(addr Addr, err error) Server {
	return Server{
		Addr:           addr,
		State:          Unavailable,
		LastError:      err,
		LastUpdateTime: time.Now().UTC(),
	}
}

// SetAverageRTT sets the average round trip time.
func (s *Server) SetAverageRTT(rtt time.Duration) {
	s.AverageRTT = rtt
	if rtt == UnsetRTT {
		s.AverageRTTSet = false
	} else {
		s.AverageRTTSet = true
	}
}

// IsUnknown reports whether the server has not completed a heartbeat.
func (s Server) IsUnknown() bool {
	return s.State == Connecting
}

// Equal compares two server descriptions. LastUpdateTime is ignored and
// errors are compared by message.
func (s Server) Equal(other Server) bool {
	if s.Addr != other.Addr ||
		s.State != other.State ||
		s.Kind != other.Kind ||
		s.AverageRTT != other.AverageRTT ||
		s.AverageRTTSet != other.AverageRTTSet ||
		s.MinRTT != other.MinRTT ||
		s.RTT90 != other.RTT90 ||
		s.HeartbeatInterval != other.HeartbeatInterval {
		return false
	}

	if errorMessage(s.LastError) != errorMessage(other.LastError) {
		return false
	}

	return s.Tags.Equal(other.Tags)
}

func (s Server) String() string {
	str := fmt.Sprintf("Addr: %s, State: %s, Kind: %s", s.Addr, s.State, s.Kind)
	if s.AverageRTTSet {
		str += fmt.Sprintf(", Average RTT: %s", s.AverageRTT)
	}
	if s.LastError != nil {
		str += fmt.Sprintf(", Last error: %s", s.LastError)
	}
	return str
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
