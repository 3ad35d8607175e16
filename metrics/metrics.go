/***
Copyright 2017 Cisco Systems Inc. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exports prometheus metrics for the neutron requests served
// by the plugin and the api server requests it makes.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "contrail_neutron"

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Counter of neutron requests broken out by resource, operation and response code.",
		},
		[]string{"resource", "operation", "code"},
	)

	requestLatencies = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Neutron request latency distribution in seconds by resource and operation.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"resource", "operation"},
	)

	apiServerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api_server",
			Name:      "requests_total",
			Help:      "Counter of requests sent to the contrail api server by method and response code.",
		},
		[]string{"method", "code"},
	)

	apiServerLatencies = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api_server",
			Name:      "request_duration_seconds",
			Help:      "Contrail api server response latency distribution in seconds by method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

var registerMetrics sync.Once

// Register registers all metrics with the default prometheus registry
func Register() {
	registerMetrics.Do(func() {
		prometheus.MustRegister(requestCounter)
		prometheus.MustRegister(requestLatencies)
		prometheus.MustRegister(apiServerRequests)
		prometheus.MustRegister(apiServerLatencies)
	})
}

// Handler returns the http handler exposing the registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// MonitorRequest records a served neutron request
func MonitorRequest(resource, operation string, code int, elapsed time.Duration) {
	requestCounter.WithLabelValues(resource, operation, strconv.Itoa(code)).Inc()
	requestLatencies.WithLabelValues(resource, operation).Observe(elapsed.Seconds())
}

// MonitorAPIServerRequest records a request sent to the api server. A code
// of 0 means no response was received.
func MonitorAPIServerRequest(method string, code int, elapsed time.Duration) {
	apiServerRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	apiServerLatencies.WithLabelValues(method).Observe(elapsed.Seconds())
}
