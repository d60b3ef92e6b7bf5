package botmonitor

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	StageInbound  = "inbound"
	StageAgent    = "agent"
	StageOutbound = "outbound"

	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	MessageID  string            `json:"message_id"`
	BusinessID string            `json:"business_id,omitempty"`
	EndUser    string            `json:"end_user"`
	Stage      string            `json:"stage"`  // inbound | agent | outbound
	Status     string            `json:"status"` // ok | error | skipped
	Error      string            `json:"error,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	DurationMs int64             `json:"duration_ms,omitempty"`
}

type Stats struct {
	TotalInbound    int64   `json:"total_inbound"`
	TotalDuplicates int64   `json:"total_duplicates"`
	TotalAgentRuns  int64   `json:"total_agent_runs"`
	TotalOutbound   int64   `json:"total_outbound"`
	TotalErrors     int64   `json:"total_errors"`
	RecentEvents    []Event `json:"recent_events"`
}

// Monitor guarda los últimos eventos del pipeline en un buffer circular.
// Un *Monitor nil es válido y no registra nada.
type Monitor struct {
	ttl time.Duration
	now func() time.Time

	eventsMu sync.Mutex
	events   []Event
	idx      int
	count    int

	totalInbound    int64
	totalDuplicates int64
	totalAgentRuns  int64
	totalOutbound   int64
	totalErrors     int64
}

// New crea un monitor de size eventos; ttl 0 conserva los eventos hasta que se sobrescriben.
func New(size int, ttl time.Duration) *Monitor {
	if size <= 0 {
		size = 200
	}
	return &Monitor{events: make([]Event, size), ttl: ttl, now: time.Now}
}

func (m *Monitor) Record(e Event) {
	if m == nil {
		return
	}
	e.Timestamp = m.now().UTC()

	switch e.Stage {
	case StageInbound:
		if e.Status == StatusSkipped {
			atomic.AddInt64(&m.totalDuplicates, 1)
		} else {
			atomic.AddInt64(&m.totalInbound, 1)
		}
	case StageAgent:
		atomic.AddInt64(&m.totalAgentRuns, 1)
	case StageOutbound:
		if e.Status == StatusOK {
			atomic.AddInt64(&m.totalOutbound, 1)
		}
	}
	if e.Status == StatusError {
		atomic.AddInt64(&m.totalErrors, 1)
	}

	m.eventsMu.Lock()
	m.events[m.idx] = e
	m.idx = (m.idx + 1) % len(m.events)
	if m.count < len(m.events) {
		m.count++
	}
	m.eventsMu.Unlock()
}

// GetStats devuelve los contadores y los eventos vigentes, del más viejo al más nuevo.
func (m *Monitor) GetStats() Stats {
	if m == nil {
		return Stats{RecentEvents: []Event{}}
	}
	m.eventsMu.Lock()
	defer m.eventsMu.Unlock()

	res := make([]Event, 0, m.count)
	cutoff := time.Time{}
	if m.ttl > 0 {
		cutoff = m.now().UTC().Add(-m.ttl)
	}
	start := (m.idx - m.count) % len(m.events)
	if start < 0 {
		start += len(m.events)
	}
	for i := 0; i < m.count; i++ {
		e := m.events[(start+i)%len(m.events)]
		if !cutoff.IsZero() && e.Timestamp.Before(cutoff) {
			continue
		}
		res = append(res, e)
	}

	return Stats{
		TotalInbound:    atomic.LoadInt64(&m.totalInbound),
		TotalDuplicates: atomic.LoadInt64(&m.totalDuplicates),
		TotalAgentRuns:  atomic.LoadInt64(&m.totalAgentRuns),
		TotalOutbound:   atomic.LoadInt64(&m.totalOutbound),
		TotalErrors:     atomic.LoadInt64(&m.totalErrors),
		RecentEvents:    res,
	}
}
