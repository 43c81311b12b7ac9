package domain

import "time"

type SessionID string

// Session is the complete result of one collaboration run. It is finalized by
// the orchestrator and handed to the session repository exactly once.
type Session struct {
	ID        SessionID
	Problem   string
	StartedAt time.Time
	Phases    map[Phase]map[AgentID]PhaseRecord
	Consensus ConsensusRecord
	Metrics   MetricsSummary
}

func (s Session) PhaseRecords(phase Phase) map[AgentID]PhaseRecord {
	if s.Phases == nil {
		return nil
	}
	return s.Phases[phase]
}

// ConsensusRecord is the algorithmic reduction of analysis and synthesis
// records; it is never produced by a model call.
type ConsensusRecord struct {
	PhaseRecord
	ContributingAgents []AgentID
	ConsensusStrength  int
	InsightsConsidered int
}

type MetricsSummary struct {
	TotalDuration  time.Duration
	PhaseDurations map[Phase]time.Duration
	AgentLatencies map[AgentID]time.Duration
	Successes      int
	Failures       int
	TotalTokens    int
}

func (m MetricsSummary) SuccessRate() float64 {
	total := m.Successes + m.Failures
	if total == 0 {
		return 0
	}
	return float64(m.Successes) / float64(total)
}

// SessionSummary identifies a persisted session without loading its records.
type SessionSummary struct {
	ID        SessionID
	Problem   string
	StartedAt time.Time
}
