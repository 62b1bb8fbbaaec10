// Copyright (c) 2017-2019 The Qitmeer developers
//
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package metrics hands out counters, meters and timers that are real when
// metrics collection is enabled and no-ops otherwise.
package metrics

import (
	"github.com/Qitmeer/xsubnet/log"
	"github.com/rcrowley/go-metrics"
)

// MetricsEnabledFlag is the config option name that enables metrics collection.
const MetricsEnabledFlag = "metrics"

// Enabled is the flag specifying if metrics are enable or not. It must be set
// before any component creates its meters.
var Enabled = false

// Enable turns metrics collection on.
func Enable() {
	if !Enabled {
		log.Info("Enabling metrics collection")
	}
	Enabled = true
}

// NewCounter create a new metrics Counter, either a real one of a NOP stub depending
// on the metrics flag.
func NewCounter(name string) metrics.Counter {
	if !Enabled {
		return new(metrics.NilCounter)
	}
	return metrics.GetOrRegisterCounter(name, metrics.DefaultRegistry)
}

// NewMeter create a new metrics Meter, either a real one of a NOP stub depending
// on the metrics flag.
func NewMeter(name string) metrics.Meter {
	if !Enabled {
		return new(metrics.NilMeter)
	}
	return metrics.GetOrRegisterMeter(name, metrics.DefaultRegistry)
}

// NewTimer create a new metrics Timer, either a real one of a NOP stub depending
// on the metrics flag.
func NewTimer(name string) metrics.Timer {
	if !Enabled {
		return new(metrics.NilTimer)
	}
	return metrics.GetOrRegisterTimer(name, metrics.DefaultRegistry)
}

// Snapshot returns the current values of every registered metric.
func Snapshot() map[string]map[string]interface{} {
	return metrics.DefaultRegistry.GetAll()
}
