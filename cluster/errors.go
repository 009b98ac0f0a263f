// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cluster

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfiguration is returned when the settings do not satisfy
	// the requirements of a cluster variant.
	ErrInvalidConfiguration = errors.New("invalid cluster configuration")

	// ErrClusterClosed is returned by accessors that need an open cluster.
	ErrClusterClosed = errors.New("cluster is closed")

	// ErrTimedOut is returned when waiting for a cluster description takes
	// longer than the allowed timeout.
	ErrTimedOut = errors.New("timed out waiting for a cluster description")
)

func invalidConfiguration(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidConfiguration, format, args...)
}
