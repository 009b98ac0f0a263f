// Copyright (C) MongoDB, Inc. 2023-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package logger is the component/level logger used by the cluster and
// server packages.
package logger

import (
	"github.com/sirupsen/logrus"
)

// Message literals shared by the cluster and server packages.
const (
	ClusterOpening            = "Starting topology monitoring"
	ClusterClosed             = "Stopped topology monitoring"
	ClusterDescriptionChanged = "Topology description changed"
	ServerOpening             = "Starting server monitoring"
	ServerClosed              = "Stopped server monitoring"
	ServerHeartbeatFailed     = "Server heartbeat failed"
	ServerHeartbeatSucceeded  = "Server heartbeat succeeded"
)

// Keys used in the key/value pairs passed to a LogSink.
const (
	KeyClusterID           = "topologyId"
	KeyServerHost          = "serverHost"
	KeyPreviousDescription = "previousDescription"
	KeyNewDescription      = "newDescription"
	KeyDurationMS          = "durationMS"
	KeyFailure             = "failure"
	KeyAppName             = "appName"
)

// LogSink represents a logging implementation. It is modeled after the
// go-logr LogSink so that existing sinks can be adapted with little code.
type LogSink interface {
	// Info logs a non-error message with the given key/value pairs. The level
	// is 0 for LevelInfo and increases with verbosity.
	Info(level int, msg string, keysAndValues ...interface{})

	// Error logs an error, with the given message and key/value pairs.
	Error(err error, msg string, keysAndValues ...interface{})
}

// Logger is the topology logger. A nil *Logger is valid and logs nothing.
type Logger struct {
	ComponentLevels map[Component]Level
	Sink            LogSink
}

// New will construct a new logger with the given LogSink. If the given
// LogSink is nil, then the logger will log through the logrus standard
// logger.
//
// Component levels from the environment are used for any component not
// present in componentLevels.
func New(sink LogSink, componentLevels map[Component]Level) *Logger {
	levels := getEnvComponentLevels()
	for component, level := range componentLevels {
		if component == ComponentAll {
			for _, c := range []Component{ComponentTopology, ComponentConnection} {
				levels[c] = level
			}
			continue
		}
		levels[component] = level
	}

	if sink == nil {
		sink = NewLogrusSink(logrus.StandardLogger())
	}

	return &Logger{
		ComponentLevels: levels,
		Sink:            sink,
	}
}

// LevelComponentEnabled will return true if the given Level is enabled for
// the given Component.
func (logger *Logger) LevelComponentEnabled(level Level, component Component) bool {
	if logger == nil || logger.Sink == nil || level == LevelOff {
		return false
	}
	return logger.ComponentLevels[component] >= level
}

// Print will synchronously print the given message to the configured LogSink.
// If the LogSink is nil, then this method will do nothing.
func (logger *Logger) Print(level Level, component Component, msg string, keysAndValues ...interface{}) {
	if !logger.LevelComponentEnabled(level, component) {
		return
	}

	logger.Sink.Info(int(level)-DiffToInfo, msg, keysAndValues...)
}

// Error logs an error at LevelInfo for the given component.
func (logger *Logger) Error(component Component, err error, msg string, keysAndValues ...interface{}) {
	if !logger.LevelComponentEnabled(LevelInfo, component) {
		return
	}

	logger.Sink.Error(err, msg, keysAndValues...)
}
