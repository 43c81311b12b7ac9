package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quorum-sh/quorum/internal/domain"
)

// consensusSourcePhases names the phases whose records feed the consensus
// reduction. Critique records judge other agents' work rather than the
// problem itself, so they are excluded.
var consensusSourcePhases = []domain.Phase{
	domain.PhaseAnalysis,
	domain.PhaseSynthesis,
}

const ConsensusAgentID domain.AgentID = "consensus"

type weightedText struct {
	text       string
	confidence float64
	agentID    domain.AgentID
}

// BuildConsensus reduces the session's analysis and synthesis records into a
// single confidence-weighted record. It is a pure function of the phase
// records and never calls a model.
func BuildConsensus(session domain.Session) domain.ConsensusRecord {
	var insights []weightedText
	var solutions []weightedText
	var confidences []float64
	contributing := map[domain.AgentID]struct{}{}

	for _, phase := range consensusSourcePhases {
		records := session.PhaseRecords(phase)
		ids := make([]string, 0, len(records))
		for id := range records {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)

		for _, raw := range ids {
			id := domain.AgentID(raw)
			record := records[id]
			contributing[id] = struct{}{}
			confidences = append(confidences, record.ConfidenceLevel)

			for _, insight := range record.KeyInsights {
				insights = append(insights, weightedText{insight, record.ConfidenceLevel, id})
			}
			if record.MainResponse != "" {
				solutions = append(solutions, weightedText{record.MainResponse, record.ConfidenceLevel, id})
			}
		}
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].confidence > insights[j].confidence
	})
	sort.SliceStable(solutions, func(i, j int) bool {
		return solutions[i].confidence > solutions[j].confidence
	})

	topInsights := dedupeTexts(insights, domain.MaxKeyInsights)

	mainResponse := "No clear solution identified"
	confidence := 0.0
	if len(solutions) > 0 {
		mainResponse = solutions[0].text
		confidence = meanConfidence(confidences)
	}

	agents := make([]domain.AgentID, 0, len(contributing))
	for id := range contributing {
		agents = append(agents, id)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })

	return domain.ConsensusRecord{
		PhaseRecord: domain.PhaseRecord{
			AgentID:         ConsensusAgentID,
			MainResponse:    mainResponse,
			ConfidenceLevel: confidence,
			KeyInsights:     topInsights,
			NextAction:      "Review consensus and decide next steps",
			Reasoning: fmt.Sprintf("Consensus built from %d agent perspectives with confidence weighting",
				len(agents)),
		},
		ContributingAgents: agents,
		ConsensusStrength:  len(solutions),
		InsightsConsidered: len(insights),
	}
}

// dedupeTexts keeps the first occurrence of each insight, compared
// case-insensitively, up to limit entries. Input must already be sorted by
// descending confidence so the kept copy is the highest-weighted one.
func dedupeTexts(items []weightedText, limit int) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, limit)
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.text))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item.text)
		if len(out) == limit {
			break
		}
	}
	return out
}

func meanConfidence(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
