package observability

import (
	"sort"
	"sync"
	"time"
)

type requestKey struct {
	Route  string
	Method string
	Status int
}

type errorKey struct {
	Route  string
	Method string
	Code   string
}

// Metrics provides basic in-memory counters keyed by route, method and
// status (or error code).
type Metrics struct {
	mu           sync.Mutex
	requestCount map[requestKey]int64
	requestTime  map[requestKey]time.Duration
	errorCount   map[errorKey]int64
}

// RequestStat aggregates the requests seen for one route, method and status.
type RequestStat struct {
	Route         string  `json:"route"`
	Method        string  `json:"method"`
	Status        int     `json:"status"`
	Count         int64   `json:"count"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
}

// ErrorStat counts one error code on a route.
type ErrorStat struct {
	Route  string `json:"route"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the counters, sorted by route.
type Snapshot struct {
	Requests []RequestStat `json:"requests"`
	Errors   []ErrorStat   `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[requestKey]int64),
		requestTime:  make(map[requestKey]time.Duration),
		errorCount:   make(map[errorKey]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{Route: route, Method: method, Status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestTime[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	key := errorKey{Route: route, Method: method, Code: code}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Requests: []RequestStat{}, Errors: []ErrorStat{}}
	if m == nil {
		return snap
	}

	m.mu.Lock()
	for key, count := range m.requestCount {
		mean := m.requestTime[key] / time.Duration(count)
		snap.Requests = append(snap.Requests, RequestStat{
			Route:         key.Route,
			Method:        key.Method,
			Status:        key.Status,
			Count:         count,
			MeanLatencyMs: float64(mean) / float64(time.Millisecond),
		})
	}
	for key, count := range m.errorCount {
		snap.Errors = append(snap.Errors, ErrorStat{Route: key.Route, Method: key.Method, Code: key.Code, Count: count})
	}
	m.mu.Unlock()

	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})
	sort.Slice(snap.Errors, func(i, j int) bool {
		a, b := snap.Errors[i], snap.Errors[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Code < b.Code
	})
	return snap
}
