// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package rwe

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rwe_agent_commands_total",
			Help: "Total number of commands issued to the RW-Everything agent",
		},
		[]string{"verb", "result"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rwe_agent_command_duration_seconds",
			Help:    "Wall time of a single RW-Everything agent invocation",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"verb"},
	)
)

func init() {
	metrics.Registry.MustRegister(commandsTotal, commandDuration)
}

func observeCommand(verb string, exitCode int, err error, duration time.Duration) {
	result := resultSuccess
	switch {
	case err != nil:
		result = resultError
	case exitCode != 0:
		result = resultRejected
	}
	commandsTotal.WithLabelValues(verb, result).Inc()
	commandDuration.WithLabelValues(verb).Observe(duration.Seconds())
}
