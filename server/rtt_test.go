// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRTTStats(t *testing.T) {
	t.Parallel()

	t.Run("sample count is bounded", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, newRTTStats(10*time.Second, time.Second).samples, minSamples)
		assert.Len(t, newRTTStats(time.Millisecond, time.Hour).samples, maxSamples)
		assert.Len(t, newRTTStats(10*time.Second, 5*time.Minute).samples, 30)
	})

	t.Run("average is a moving average", func(t *testing.T) {
		t.Parallel()

		r := newRTTStats(10*time.Second, 5*time.Minute)
		r.addSample(10 * time.Millisecond)
		assert.True(t, r.averageRTTSet)
		assert.Equal(t, 10*time.Millisecond, r.averageRTT)

		r.addSample(20 * time.Millisecond)
		assert.Equal(t, 12*time.Millisecond, r.averageRTT)
	})

	t.Run("min and 90th percentile need enough samples", func(t *testing.T) {
		t.Parallel()

		r := newRTTStats(10*time.Second, 5*time.Minute)
		for i := 1; i < minSamples; i++ {
			r.addSample(time.Duration(i) * time.Millisecond)
		}
		assert.Zero(t, r.minRTT)
		assert.Zero(t, r.rtt90)

		r.addSample(minSamples * time.Millisecond)
		assert.Equal(t, time.Millisecond, r.minRTT)
		assert.Equal(t, 9*time.Millisecond, r.rtt90)
	})

	t.Run("oldest samples are overwritten", func(t *testing.T) {
		t.Parallel()

		r := newRTTStats(10*time.Second, time.Second)
		r.addSample(time.Millisecond)
		for i := 0; i < minSamples; i++ {
			r.addSample(5 * time.Millisecond)
		}
		assert.Equal(t, 5*time.Millisecond, r.minRTT)
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()

		r := newRTTStats(10*time.Second, time.Second)
		for i := 0; i < minSamples; i++ {
			r.addSample(5 * time.Millisecond)
		}
		r.reset()

		assert.False(t, r.averageRTTSet)
		assert.Zero(t, r.averageRTT)
		assert.Zero(t, r.minRTT)
		assert.Zero(t, r.rtt90)
		assert.Zero(t, r.offset)
		for _, s := range r.samples {
			assert.Zero(t, s)
		}
	})
}
