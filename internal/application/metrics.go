package application

import (
	"sync"
	"time"

	"github.com/quorum-sh/quorum/internal/domain"
)

// metricsRecorder accumulates timing and outcome counters for one session run.
// It is safe for concurrent use by the phase fan-out goroutines.
type metricsRecorder struct {
	mu             sync.Mutex
	started        time.Time
	phaseDurations map[domain.Phase]time.Duration
	agentTotals    map[domain.AgentID]time.Duration
	agentCalls     map[domain.AgentID]int
	successes      int
	failures       int
	totalTokens    int
}

func newMetricsRecorder(started time.Time) *metricsRecorder {
	return &metricsRecorder{
		started:        started,
		phaseDurations: map[domain.Phase]time.Duration{},
		agentTotals:    map[domain.AgentID]time.Duration{},
		agentCalls:     map[domain.AgentID]int{},
	}
}

func (m *metricsRecorder) recordPhase(phase domain.Phase, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phaseDurations[phase] += elapsed
}

func (m *metricsRecorder) recordAgentCall(id domain.AgentID, elapsed time.Duration, success bool, tokens int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agentTotals[id] += elapsed
	m.agentCalls[id]++
	if success {
		m.successes++
	} else {
		m.failures++
	}
	m.totalTokens += tokens
}

// summary snapshots the counters; agent latencies are averaged over the
// agent's call count.
func (m *metricsRecorder) summary(finished time.Time) domain.MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	phases := make(map[domain.Phase]time.Duration, len(m.phaseDurations))
	for phase, d := range m.phaseDurations {
		phases[phase] = d
	}
	latencies := make(map[domain.AgentID]time.Duration, len(m.agentTotals))
	for id, total := range m.agentTotals {
		if calls := m.agentCalls[id]; calls > 0 {
			latencies[id] = total / time.Duration(calls)
		}
	}

	return domain.MetricsSummary{
		TotalDuration:  finished.Sub(m.started),
		PhaseDurations: phases,
		AgentLatencies: latencies,
		Successes:      m.successes,
		Failures:       m.failures,
		TotalTokens:    m.totalTokens,
	}
}
