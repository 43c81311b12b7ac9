package jsonfile

import (
	"time"

	"github.com/quorum-sh/quorum/internal/domain"
)

type sessionSchema struct {
	SessionID string                             `json:"session_id"`
	Problem   string                             `json:"problem"`
	StartedAt time.Time                          `json:"started_at"`
	Phases    map[string]map[string]recordSchema `json:"phases"`
	Consensus consensusSchema                    `json:"consensus"`
	Metrics   metricsSchema                      `json:"metrics"`
}

type recordSchema struct {
	AgentID            string   `json:"agent_id"`
	MainResponse       string   `json:"main_response"`
	ConfidenceLevel    float64  `json:"confidence_level"`
	KeyInsights        []string `json:"key_insights,omitempty"`
	QuestionsForOthers []string `json:"questions_for_others,omitempty"`
	NextAction         string   `json:"next_action,omitempty"`
	Reasoning          string   `json:"reasoning,omitempty"`
	CritiqueTarget     string   `json:"critique_target,omitempty"`
	IsError            bool     `json:"is_error,omitempty"`
}

type consensusSchema struct {
	recordSchema
	ContributingAgents []string `json:"contributing_agents"`
	ConsensusStrength  int      `json:"consensus_strength"`
	InsightsConsidered int      `json:"insights_considered"`
}

type metricsSchema struct {
	TotalDurationMS int64            `json:"total_duration_ms"`
	PhaseDurationMS map[string]int64 `json:"phase_duration_ms,omitempty"`
	AgentLatencyMS  map[string]int64 `json:"agent_latency_ms,omitempty"`
	Successes       int              `json:"successes"`
	Failures        int              `json:"failures"`
	TotalTokens     int              `json:"total_tokens"`
}

func toSchema(session domain.Session) sessionSchema {
	phases := make(map[string]map[string]recordSchema, len(session.Phases))
	for phase, records := range session.Phases {
		encoded := make(map[string]recordSchema, len(records))
		for id, record := range records {
			encoded[string(id)] = toRecordSchema(record)
		}
		phases[string(phase)] = encoded
	}

	agents := make([]string, 0, len(session.Consensus.ContributingAgents))
	for _, id := range session.Consensus.ContributingAgents {
		agents = append(agents, string(id))
	}

	return sessionSchema{
		SessionID: string(session.ID),
		Problem:   session.Problem,
		StartedAt: session.StartedAt,
		Phases:    phases,
		Consensus: consensusSchema{
			recordSchema:       toRecordSchema(session.Consensus.PhaseRecord),
			ContributingAgents: agents,
			ConsensusStrength:  session.Consensus.ConsensusStrength,
			InsightsConsidered: session.Consensus.InsightsConsidered,
		},
		Metrics: toMetricsSchema(session.Metrics),
	}
}

func fromSchema(encoded sessionSchema) domain.Session {
	phases := make(map[domain.Phase]map[domain.AgentID]domain.PhaseRecord, len(encoded.Phases))
	for phase, records := range encoded.Phases {
		decoded := make(map[domain.AgentID]domain.PhaseRecord, len(records))
		for id, record := range records {
			decoded[domain.AgentID(id)] = fromRecordSchema(record)
		}
		phases[domain.Phase(phase)] = decoded
	}

	agents := make([]domain.AgentID, 0, len(encoded.Consensus.ContributingAgents))
	for _, id := range encoded.Consensus.ContributingAgents {
		agents = append(agents, domain.AgentID(id))
	}

	return domain.Session{
		ID:        domain.SessionID(encoded.SessionID),
		Problem:   encoded.Problem,
		StartedAt: encoded.StartedAt,
		Phases:    phases,
		Consensus: domain.ConsensusRecord{
			PhaseRecord:        fromRecordSchema(encoded.Consensus.recordSchema),
			ContributingAgents: agents,
			ConsensusStrength:  encoded.Consensus.ConsensusStrength,
			InsightsConsidered: encoded.Consensus.InsightsConsidered,
		},
		Metrics: fromMetricsSchema(encoded.Metrics),
	}
}

func toRecordSchema(record domain.PhaseRecord) recordSchema {
	return recordSchema{
		AgentID:            string(record.AgentID),
		MainResponse:       record.MainResponse,
		ConfidenceLevel:    record.ConfidenceLevel,
		KeyInsights:        record.KeyInsights,
		QuestionsForOthers: record.QuestionsForOthers,
		NextAction:         record.NextAction,
		Reasoning:          record.Reasoning,
		CritiqueTarget:     string(record.CritiqueTarget),
		IsError:            record.IsError,
	}
}

func fromRecordSchema(encoded recordSchema) domain.PhaseRecord {
	return domain.PhaseRecord{
		AgentID:            domain.AgentID(encoded.AgentID),
		MainResponse:       encoded.MainResponse,
		ConfidenceLevel:    encoded.ConfidenceLevel,
		KeyInsights:        encoded.KeyInsights,
		QuestionsForOthers: encoded.QuestionsForOthers,
		NextAction:         encoded.NextAction,
		Reasoning:          encoded.Reasoning,
		CritiqueTarget:     domain.AgentID(encoded.CritiqueTarget),
		IsError:            encoded.IsError,
	}
}

func toMetricsSchema(metrics domain.MetricsSummary) metricsSchema {
	phases := make(map[string]int64, len(metrics.PhaseDurations))
	for phase, d := range metrics.PhaseDurations {
		phases[string(phase)] = d.Milliseconds()
	}
	latencies := make(map[string]int64, len(metrics.AgentLatencies))
	for id, d := range metrics.AgentLatencies {
		latencies[string(id)] = d.Milliseconds()
	}

	return metricsSchema{
		TotalDurationMS: metrics.TotalDuration.Milliseconds(),
		PhaseDurationMS: phases,
		AgentLatencyMS:  latencies,
		Successes:       metrics.Successes,
		Failures:        metrics.Failures,
		TotalTokens:     metrics.TotalTokens,
	}
}

func fromMetricsSchema(encoded metricsSchema) domain.MetricsSummary {
	phases := make(map[domain.Phase]time.Duration, len(encoded.PhaseDurationMS))
	for phase, ms := range encoded.PhaseDurationMS {
		phases[domain.Phase(phase)] = time.Duration(ms) * time.Millisecond
	}
	latencies := make(map[domain.AgentID]time.Duration, len(encoded.AgentLatencyMS))
	for id, ms := range encoded.AgentLatencyMS {
		latencies[domain.AgentID(id)] = time.Duration(ms) * time.Millisecond
	}

	return domain.MetricsSummary{
		TotalDuration:  time.Duration(encoded.TotalDurationMS) * time.Millisecond,
		PhaseDurations: phases,
		AgentLatencies: latencies,
		Successes:      encoded.Successes,
		Failures:       encoded.Failures,
		TotalTokens:    encoded.TotalTokens,
	}
}
