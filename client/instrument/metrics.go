package instrument

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	next     http.RoundTripper
}

// Metrics wraps next so every request is counted and timed on reg.
// Collectors already registered on reg, e.g. by another client, are
// reused.
//
// Labels are the method, the API route and the status code, or
// "error" when no response was received.
func Metrics(reg prometheus.Registerer, next http.RoundTripper) (http.RoundTripper, error) {
	if reg == nil {
		return nil, errors.New("registerer must not be nil")
	}
	if next == nil {
		next = http.DefaultTransport
	}

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vjmap",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the map service.",
		},
		[]string{"method", "route", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vjmap",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests sent to the map service.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}

	return &metrics{requests: requests, duration: duration, next: next}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("registering collector: %w", err)
	}

	return c, nil
}

func (m *metrics) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := m.next.RoundTrip(r)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}

	route := Route(r.URL.Path)
	m.requests.WithLabelValues(r.Method, route, status).Inc()
	m.duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())

	return resp, err
}

// Route reduces a request path to a low-cardinality label: the path
// segments up to and including the map resource and action, without
// map IDs, versions or tile coordinates.
//
//	/server/api/v1/map/tile/abc/v1/s/3/1/2 -> map/tile
//	/server/api/v1/map/cmd/thumbnail/abc/v1 -> map/cmd/thumbnail
//	/server/api/v1/map/openmap/abc -> map/openmap
func Route(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")

	for i, s := range segs {
		if s != "map" {
			continue
		}

		end := min(i+2, len(segs))
		if end < len(segs) && segs[i+1] == "cmd" {
			end++
		}
		return strings.Join(segs[i:end], "/")
	}

	return "other"
}
