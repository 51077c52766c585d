// Copyright 2025 The A2A Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package adapter

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/a2aproject/a2a-tck-go/a2a"
)

const metricsNamespace = "a2a_tck"

// Metrics records the duration and outcome of adapter operations.
type Metrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewMetrics creates the adapter collectors and registers them on reg, or on
// prometheus.DefaultRegisterer when reg is nil. Collectors already registered
// by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"transport", "operation", "outcome"}

	duration, err := register(reg, prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of A2A operations made against the agent under test.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		labels,
	))
	if err != nil {
		return nil, err
	}
	total, err := register(reg, prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Number of A2A operations made against the agent under test.",
		},
		labels,
	))
	if err != nil {
		return nil, err
	}
	return &Metrics{duration: duration, total: total}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observe(t a2a.TransportType, op a2a.Operation, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(string(t), string(op), string(outcome)).Observe(d.Seconds())
	m.total.WithLabelValues(string(t), string(op), string(outcome)).Inc()
}
