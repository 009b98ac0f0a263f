// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package server

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

const (
	rttAlphaValue = 0.2
	minSamples    = 10
	maxSamples    = 500
)

// rttStats tracks the round trip times of successful heartbeats. It is owned
// by the monitor goroutine and is not safe for concurrent use.
type rttStats struct {
	samples       []time.Duration
	offset        int
	minRTT        time.Duration
	rtt90         time.Duration
	averageRTT    time.Duration
	averageRTTSet bool
}

func newRTTStats(interval, minRTTWindow time.Duration) *rttStats {
	// Keep enough samples to cover minRTTWindow, bounded to [10, 500].
	numSamples := int(math.Max(minSamples, math.Min(maxSamples, float64(minRTTWindow/interval))))

	return &rttStats{
		samples: make([]time.Duration, numSamples),
	}
}

func (r *rttStats) reset() {
	for i := range r.samples {
		r.samples[i] = 0
	}
	r.offset = 0
	r.minRTT = 0
	r.rtt90 = 0
	r.averageRTT = 0
	r.averageRTTSet = false
}

func (r *rttStats) addSample(rtt time.Duration) {
	// Zero marks an empty slot.
	if rtt <= 0 {
		rtt = time.Nanosecond
	}

	r.samples[r.offset] = rtt
	r.offset = (r.offset + 1) % len(r.samples)
	// Noisy samples right after startup would skew these, so both stay 0
	// until there are at least minSamples.
	r.minRTT = minSample(r.samples, minSamples)
	r.rtt90 = percentile(90.0, r.samples, minSamples)

	if !r.averageRTTSet {
		r.averageRTT = rtt
		r.averageRTTSet = true
		return
	}

	r.averageRTT = time.Duration(rttAlphaValue*float64(rtt) + (1-rttAlphaValue)*float64(r.averageRTT))
}

// minSample returns the smallest non-zero sample, or 0 if there are fewer
// than minSamples of them.
func minSample(samples []time.Duration, minSamples int) time.Duration {
	count := 0
	min := time.Duration(math.MaxInt64)
	for _, d := range samples {
		if d > 0 {
			count++
		}
		if d > 0 && d < min {
			min = d
		}
	}
	if count == 0 || count < minSamples {
		return 0
	}
	return min
}

// percentile returns the perc percentile of the non-zero samples, or 0 if
// there are fewer than minSamples of them.
func percentile(perc float64, samples []time.Duration, minSamples int) time.Duration {
	floatSamples := make([]float64, 0, len(samples))
	for _, sample := range samples {
		if sample > 0 {
			floatSamples = append(floatSamples, float64(sample))
		}
	}
	if len(floatSamples) == 0 || len(floatSamples) < minSamples {
		return 0
	}

	p, err := stats.Percentile(floatSamples, perc)
	if err != nil {
		panic(fmt.Errorf("server: error calculating %f percentile RTT: %v for samples:\n%v", perc, err, floatSamples))
	}
	return time.Duration(p)
}
