// Copyright (C) MongoDB, Inc. 2023-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// LogrusSink writes to a logrus logger and is the default sink.
type LogrusSink struct {
	log logrus.FieldLogger
}

// Compile-time check to ensure LogrusSink implements the LogSink interface.
var _ LogSink = &LogrusSink{}

// NewLogrusSink will create a new LogrusSink that writes to log.
func NewLogrusSink(log logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{log: log}
}

// Info writes msg at logrus' info level for level 0 and at debug level
// otherwise.
func (sink *LogrusSink) Info(level int, msg string, keysAndValues ...interface{}) {
	entry := sink.log.WithFields(fields(keysAndValues))
	if level > 0 {
		entry.Debug(msg)
		return
	}
	entry.Info(msg)
}

// Error writes msg and err at logrus' error level.
func (sink *LogrusSink) Error(err error, msg string, keysAndValues ...interface{}) {
	sink.log.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(keysAndValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		f[key] = keysAndValues[i+1]
	}
	return f
}
