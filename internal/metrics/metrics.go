package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/staffsight/backend/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Refresh cycle metrics
	RefreshCyclesTotal   int64
	RefreshErrorsTotal   int64
	SnapshotsBroadcast   int64
	lastRefreshDuration  time.Duration
	lastRefreshTimestamp time.Time

	// Source metrics
	BudgetFetchErrorsTotal   int64
	CalendarFetchErrorsTotal int64
	StaffFetchErrorsTotal    int64

	// Snapshot content stats
	projectCount int
	staffCount   int
	statusCounts map[string]int

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			statusCounts:         make(map[string]int),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordRefreshCycle records one completed snapshot rebuild
func (m *Metrics) RecordRefreshCycle(duration time.Duration) {
	m.mu.Lock()
	m.RefreshCyclesTotal++
	m.lastRefreshDuration = duration
	m.lastRefreshTimestamp = time.Now()
	m.mu.Unlock()
}

// RecordRefreshError increments the refresh error counter
func (m *Metrics) RecordRefreshError() {
	m.mu.Lock()
	m.RefreshErrorsTotal++
	m.mu.Unlock()
}

// RecordBudgetFetchError increments the budget source error counter
func (m *Metrics) RecordBudgetFetchError() {
	m.mu.Lock()
	m.BudgetFetchErrorsTotal++
	m.mu.Unlock()
}

// RecordCalendarFetchError increments the calendar source error counter
func (m *Metrics) RecordCalendarFetchError() {
	m.mu.Lock()
	m.CalendarFetchErrorsTotal++
	m.mu.Unlock()
}

// RecordStaffFetchError increments the per-staff fetch error counter
func (m *Metrics) RecordStaffFetchError() {
	m.mu.Lock()
	m.StaffFetchErrorsTotal++
	m.mu.Unlock()
}

// RecordSnapshotBroadcast increments the broadcast counter
func (m *Metrics) RecordSnapshotBroadcast() {
	m.mu.Lock()
	m.SnapshotsBroadcast++
	m.mu.Unlock()
}

// UpdateSnapshotStats records the content shape of the latest snapshot
func (m *Metrics) UpdateSnapshotStats(snap *types.Snapshot) {
	if snap == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.projectCount = len(snap.Projects)
	m.staffCount = len(snap.Staff)
	m.statusCounts = make(map[string]int)
	if snap.Capacity != nil {
		m.statusCounts[snap.Capacity.GapStatus]++
	}
	for _, s := range snap.Staff {
		if s.UtilizationPct > 100 {
			m.statusCounts["staff_over_capacity"]++
		}
	}
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("staffsight_uptime_seconds", time.Since(m.startTime).Seconds())

		// Refresh metrics
		write("staffsight_refresh_cycles_total", m.RefreshCyclesTotal)
		write("staffsight_refresh_errors_total", m.RefreshErrorsTotal)
		write("staffsight_refresh_duration_seconds", m.lastRefreshDuration.Seconds())
		if !m.lastRefreshTimestamp.IsZero() {
			write("staffsight_last_refresh_timestamp_seconds", float64(m.lastRefreshTimestamp.Unix()))
		}
		write("staffsight_snapshots_broadcast_total", m.SnapshotsBroadcast)

		// Source metrics
		write("staffsight_budget_fetch_errors_total", m.BudgetFetchErrorsTotal)
		write("staffsight_calendar_fetch_errors_total", m.CalendarFetchErrorsTotal)
		write("staffsight_staff_fetch_errors_total", m.StaffFetchErrorsTotal)

		// Snapshot content
		write("staffsight_projects_total", m.projectCount)
		write("staffsight_staff_total", m.staffCount)
		for status, count := range m.statusCounts {
			write("staffsight_capacity_status", count, "status", status)
		}

		// WebSocket metrics
		write("staffsight_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("staffsight_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("staffsight_websocket_active_connections", m.activeConnections)
		write("staffsight_websocket_errors_total", m.WebSocketErrorsTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("staffsight_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
