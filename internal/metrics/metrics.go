// Copyright 2024 Alexandre Mahdhaoui
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

// Package metrics records batch runs as Prometheus metrics and writes them in the
// textfile format read by the node_exporter textfile collector.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vmident"

var errWriteTextfile = errors.New("failed to write metrics textfile")

// Recorder holds the metrics of one process.
type Recorder struct {
	registry *prometheus.Registry

	records   prometheus.Counter
	failures  prometheus.Counter
	duration  prometheus.Gauge
	timestamp prometheus.Gauge
}

// NewRecorder returns a Recorder backed by its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		records: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Number of VM identity records written.",
		}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_failures_total",
			Help:      "Number of aborted batches.",
		}),
		duration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Duration of the last batch.",
		}),
		timestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time at which the last batch ended.",
		}),
	}
}

// ObserveRun records a batch that wrote records files in d. A non-nil err counts
// as a failure.
func (r *Recorder) ObserveRun(records int, d time.Duration, err error) {
	r.records.Add(float64(records))
	if err != nil {
		r.failures.Inc()
	}

	r.duration.Set(d.Seconds())
	r.timestamp.SetToCurrentTime()
}

// WriteTextfile atomically writes the metrics to path.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Join(err, errWriteTextfile)
	}

	return nil
}
