package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	ItemsFetched        int64
	DuplicatesFiltered  int64
	ItemsDelivered      int64
	MessagesSent        int64
	PermissionDenials   int64
	DeliveryFailures    int64
	SourceFailures      int64
	GenerationFailures  int64
	CategoriesProcessed int64
	CyclesCompleted     int64

	// Timings
	LastCycleDuration    time.Duration
	AverageCycleDuration time.Duration
	TotalCycleDuration   time.Duration

	// Status
	StartedAt     time.Time
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

func New() *Metrics {
	return &Metrics{IsHealthy: true, StartedAt: time.Now()}
}

func (m *Metrics) AddItemsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) AddDuplicatesFiltered(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered += int64(n)
}

// RecordDelivery counts one sent message carrying n items.
func (m *Metrics) RecordDelivery(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MessagesSent++
	m.ItemsDelivered += int64(n)
}

func (m *Metrics) IncrementPermissionDenials() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PermissionDenials++
}

func (m *Metrics) IncrementDeliveryFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeliveryFailures++
}

func (m *Metrics) IncrementSourceFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourceFailures++
}

func (m *Metrics) IncrementGenerationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerationFailures++
}

func (m *Metrics) IncrementCategoriesProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CategoriesProcessed++
}

// RecordCycle marks the end of a cycle run. A clean run clears the unhealthy
// state left by an earlier error; a run with failures keeps it.
func (m *Metrics) RecordCycle(duration time.Duration, clean bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CyclesCompleted++
	m.LastCycleDuration = duration
	m.TotalCycleDuration += duration
	m.AverageCycleDuration = m.TotalCycleDuration / time.Duration(m.CyclesCompleted)
	m.LastRunTime = time.Now()
	if clean {
		m.IsHealthy = true
	}
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"items_fetched":             m.ItemsFetched,
		"duplicates_filtered":       m.DuplicatesFiltered,
		"items_delivered":           m.ItemsDelivered,
		"messages_sent":             m.MessagesSent,
		"permission_denials":        m.PermissionDenials,
		"delivery_failures":         m.DeliveryFailures,
		"source_failures":           m.SourceFailures,
		"generation_failures":       m.GenerationFailures,
		"categories_processed":      m.CategoriesProcessed,
		"cycles_completed":          m.CyclesCompleted,
		"last_cycle_duration_ms":    m.LastCycleDuration.Milliseconds(),
		"average_cycle_duration_ms": m.AverageCycleDuration.Milliseconds(),
		"uptime_seconds":            int64(time.Since(m.StartedAt).Seconds()),
		"last_run_time":             formatTime(m.LastRunTime),
		"last_error_time":           formatTime(m.LastErrorTime),
		"last_error":                m.LastError,
		"is_healthy":                m.IsHealthy,
	}
}
