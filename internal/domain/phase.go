package domain

type Phase string

const (
	PhaseAnalysis  Phase = "analysis"
	PhaseCritique  Phase = "critique"
	PhaseSynthesis Phase = "synthesis"
	PhaseConsensus Phase = "consensus"
)

// WorkflowPhases lists the fan-out phases in execution order. Consensus is
// computed algorithmically and never dispatched to agents.
func WorkflowPhases() []Phase {
	return []Phase{PhaseAnalysis, PhaseCritique, PhaseSynthesis}
}

// CritiqueTargets assigns every agent the next agent in registration order.
// The assignment is fixed before dispatch and does not depend on completion
// timing. A single agent has nobody to critique, so no assignment is made and
// the critique phase is skipped for single-agent sessions.
func CritiqueTargets(ids []AgentID) map[AgentID]AgentID {
	targets := make(map[AgentID]AgentID, len(ids))
	if len(ids) < 2 {
		return targets
	}
	for i, id := range ids {
		targets[id] = ids[(i+1)%len(ids)]
	}
	return targets
}
