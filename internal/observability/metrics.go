package observability

import (
	"sync"
	"time"
)

// Metrics keeps in-process counters for the HTTP surface and the outbound
// notification pipeline. There is no scrape endpoint; Snapshot exposes the
// counters for debugging and tests. All methods are nil-safe so optional
// wiring stays cheap.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]*routeStats
	errors   map[string]int64

	notificationsSent    int64
	notificationsDropped int64
}

type routeStats struct {
	count        int64
	totalLatency time.Duration
	byStatus     map[int]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]*routeStats),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one handled request per route and status, keeping a
// running latency total.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := m.requests[routeKey(method, path)]
	if stats == nil {
		stats = &routeStats{byStatus: make(map[int]int64)}
		m.requests[routeKey(method, path)] = stats
	}
	stats.count++
	stats.totalLatency += duration
	stats.byStatus[status]++
}

// RecordError counts a handler failure by route and domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[routeKey(method, path)+" "+code]++
}

// RecordNotification counts an outbound mail outcome. Dropped covers both
// transport failures and messages skipped for lack of a recipient.
func (m *Metrics) RecordNotification(sent bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sent {
		m.notificationsSent++
	} else {
		m.notificationsDropped++
	}
}

// RouteSnapshot is the aggregated view of one route.
type RouteSnapshot struct {
	Count      int64
	AvgLatency time.Duration
	ByStatus   map[int]int64
}

// Snapshot copies the current counters.
type Snapshot struct {
	Requests             map[string]RouteSnapshot
	Errors               map[string]int64
	NotificationsSent    int64
	NotificationsDropped int64
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests: make(map[string]RouteSnapshot),
		Errors:   make(map[string]int64),
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for route, stats := range m.requests {
		byStatus := make(map[int]int64, len(stats.byStatus))
		for status, n := range stats.byStatus {
			byStatus[status] = n
		}
		avg := time.Duration(0)
		if stats.count > 0 {
			avg = stats.totalLatency / time.Duration(stats.count)
		}
		snap.Requests[route] = RouteSnapshot{
			Count:      stats.count,
			AvgLatency: avg,
			ByStatus:   byStatus,
		}
	}
	for key, n := range m.errors {
		snap.Errors[key] = n
	}
	snap.NotificationsSent = m.notificationsSent
	snap.NotificationsDropped = m.notificationsDropped
	return snap
}

func routeKey(method, path string) string {
	return method + " " + path
}
