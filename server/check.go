// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"context"
	"net"

	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
)

// CheckResult is what a successful check learned about a server.
type CheckResult struct {
	Kind model.ServerKind
	Tags model.TagSet
}

// Checker checks a server once. The time Check takes is recorded as the
// server's round trip time, so it should do as little as possible besides
// talking to the server. Check must return promptly once ctx is done.
type Checker interface {
	Check(ctx context.Context, addr model.Addr) (CheckResult, error)
}

// CheckerFunc adapts an ordinary function to a Checker.
type CheckerFunc func(context.Context, model.Addr) (CheckResult, error)

// Check implements Checker.
func (f CheckerFunc) Check(ctx context.Context, addr model.Addr) (CheckResult, error) {
	return f(ctx, addr)
}

// DialChecker considers a server reachable when a connection to it can be
// opened. It cannot tell what kind of server it reached and reports every
// reachable server as a standalone.
type DialChecker struct {
	Dialer net.Dialer
	Logger *logger.Logger
}

// Check implements Checker.
func (p *DialChecker) Check(ctx context.Context, addr model.Addr) (CheckResult, error) {
	conn, err := p.Dialer.DialContext(ctx, addr.Network(), addr.String())
	if err != nil {
		return CheckResult{}, errors.Wrapf(err, "dialing %s", addr)
	}
	if err := conn.Close(); err != nil {
		p.Logger.Error(logger.ComponentConnection, err, "Error closing check connection",
			logger.KeyServerHost, addr.String())
	}
	return CheckResult{Kind: model.Standalone}, nil
}
