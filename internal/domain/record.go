package domain

import "fmt"

const (
	MaxMainResponseLen = 1000
	MaxKeyInsights     = 5
	MaxQuestions       = 3
	TruncationMarker   = "..."
)

// PhaseRecord is the normalized output of one agent for one phase. Records are
// immutable once produced; AgentID always names the owning agent regardless of
// what the raw model output claimed.
type PhaseRecord struct {
	AgentID            AgentID
	MainResponse       string
	ConfidenceLevel    float64
	KeyInsights        []string
	QuestionsForOthers []string
	NextAction         string
	Reasoning          string
	CritiqueTarget     AgentID
	IsError            bool
}

// NewErrorRecord substitutes for an agent whose call failed after the client's
// retry budget. The phase still completes with full agent coverage.
func NewErrorRecord(id AgentID, err error) PhaseRecord {
	return PhaseRecord{
		AgentID:            id,
		MainResponse:       fmt.Sprintf("Agent error: %v", err),
		ConfidenceLevel:    0.0,
		KeyInsights:        []string{"Agent encountered an error"},
		QuestionsForOthers: []string{},
		NextAction:         "Investigate agent error",
		Reasoning:          fmt.Sprintf("Error in agent %s: %v", id, err),
		IsError:            true,
	}
}
