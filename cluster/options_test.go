// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package cluster_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ikmak/mongo-topology/cluster"
	"github.com/ikmak/mongo-topology/connstring"
	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/internal/logger"
	"github.com/ikmak/mongo-topology/internal/servertest"
	"github.com/ikmak/mongo-topology/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestNewSettings_defaults(t *testing.T) {
	t.Parallel()

	s := cluster.NewSettings()
	require.NotEqual(t, uuid.Nil, s.ID)
	require.Equal(t, []model.Addr{"localhost:27017"}, s.Hosts)
	require.Equal(t, model.Single, s.Mode)
	require.Equal(t, 30*time.Second, s.ServerSelectionTimeout)
	require.NotNil(t, s.Logger)
}

func TestWithConnString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		uri     string
		hosts   []model.Addr
		mode    model.ClusterMode
		timeout time.Duration
	}{
		{"mongodb://DB1", []model.Addr{"db1:27017"}, model.Single, 30 * time.Second},
		{"mongodb://db1:27018/?serverSelectionTimeoutMS=1500", []model.Addr{"db1:27018"}, model.Single, 1500 * time.Millisecond},
		{"mongodb://db1,db2/?connect=direct", []model.Addr{"db1:27017", "db2:27017"}, model.Single, 30 * time.Second},
		{"mongodb://db1/?replicaSet=rs0", []model.Addr{"db1:27017"}, model.ReplicaSet, 30 * time.Second},
		{"mongodb://db1,db2", []model.Addr{"db1:27017", "db2:27017"}, 0, 30 * time.Second},
	}

	for _, test := range tests {
		test := test
		t.Run(test.uri, func(t *testing.T) {
			t.Parallel()

			cs, err := connstring.Parse(test.uri)
			require.NoError(t, err)

			s := cluster.NewSettings(cluster.WithConnString(cs))
			require.Equal(t, test.hosts, s.Hosts)
			require.Equal(t, test.mode, s.Mode)
			require.Equal(t, test.timeout, s.ServerSelectionTimeout)
		})
	}
}

func TestWithConnString_zero_server_selection_timeout(t *testing.T) {
	t.Parallel()

	cs, err := connstring.Parse("mongodb://db1/?serverSelectionTimeoutMS=0")
	require.NoError(t, err)

	c, err := cluster.New(cluster.NewSettings(cluster.WithConnString(cs)), &servertest.FakeFactory{})
	require.Nil(t, c)
	require.True(t, errors.Is(err, cluster.ErrInvalidConfiguration), "unexpected error %v", err)
}

type logRecord struct {
	msg           string
	keysAndValues []interface{}
}

type recordingSink struct {
	mu      sync.Mutex
	records []logRecord
}

func (s *recordingSink) Info(_ int, msg string, keysAndValues ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, logRecord{msg: msg, keysAndValues: keysAndValues})
}

func (s *recordingSink) Error(_ error, msg string, keysAndValues ...interface{}) {
	s.Info(0, msg, keysAndValues...)
}

func TestWithConnString_app_name(t *testing.T) {
	t.Parallel()

	cs, err := connstring.Parse("mongodb://db1/?appName=watcher")
	require.NoError(t, err)

	sink := &recordingSink{}
	var opening *event.ClusterOpeningEvent
	id := uuid.New()
	settings := cluster.NewSettings(
		cluster.WithConnString(cs),
		cluster.WithID(id),
		cluster.WithLogger(logger.New(sink, map[logger.Component]logger.Level{logger.ComponentTopology: logger.LevelInfo})),
		cluster.WithServerMonitor(&event.ServerMonitor{
			ClusterOpening: func(e *event.ClusterOpeningEvent) { opening = e },
		}),
	)
	require.Equal(t, "watcher", settings.AppName)

	c, err := cluster.NewSingle(settings, &servertest.FakeFactory{})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.NotNil(t, opening)
	require.Equal(t, "watcher", opening.AppName)
	require.Equal(t, id, opening.ClusterID)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.records)
	require.Equal(t, logger.ClusterOpening, sink.records[0].msg)
	require.Equal(t, []interface{}{logger.KeyClusterID, id.String(), logger.KeyAppName, "watcher"}, sink.records[0].keysAndValues)
}

func TestWithConnString_connect_automatic(t *testing.T) {
	t.Parallel()

	cs, err := connstring.Parse("mongodb://db1,db2/?connect=automatic")
	require.NoError(t, err)
	require.True(t, cs.ConnectSet())

	s := cluster.NewSettings(cluster.WithConnString(cs))
	require.Equal(t, model.ClusterMode(0), s.Mode)
	require.Empty(t, s.AppName)
}

func TestWithID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	require.Equal(t, id, cluster.NewSettings(cluster.WithID(id)).ID)
}
