package session

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/quorum-sh/quorum/internal/domain"
)

type RenderOptions struct {
	// ShowPhases includes the per-agent records of every phase; the default
	// output shows only the consensus and metrics.
	ShowPhases bool
}

func renderView(session domain.Session, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Collaboration Session " + string(session.ID)),
		s.header.Render("problem: " + session.Problem),
	}

	lines = append(lines, s.section.Render(renderConsensus(session.Consensus, s)))

	if opts.ShowPhases {
		for _, phase := range domain.WorkflowPhases() {
			records := session.PhaseRecords(phase)
			if len(records) == 0 {
				continue
			}
			lines = append(lines, s.section.Render(renderPhase(phase, records, s)))
		}
	}

	lines = append(lines, s.section.Render(renderMetrics(session.Metrics, s)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderConsensus(consensus domain.ConsensusRecord, s styles) string {
	parts := []string{
		s.phase.Render("Consensus"),
		s.detail.Render(consensus.MainResponse),
		confidenceLine(consensus.ConfidenceLevel, s),
	}

	if len(consensus.KeyInsights) > 0 {
		parts = append(parts, s.insight.Render("key insights:"))
		for _, insight := range consensus.KeyInsights {
			parts = append(parts, s.insight.Render("  - "+insight))
		}
	}

	agents := make([]string, 0, len(consensus.ContributingAgents))
	for _, id := range consensus.ContributingAgents {
		agents = append(agents, string(id))
	}
	parts = append(parts, s.header.Render(fmt.Sprintf(
		"agents: %s | strength: %d | insights considered: %d",
		strings.Join(agents, ", "), consensus.ConsensusStrength, consensus.InsightsConsidered)))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderPhase(phase domain.Phase, records map[domain.AgentID]domain.PhaseRecord, s styles) string {
	parts := []string{s.phase.Render(phaseTitle(phase))}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for _, id := range ids {
		record := records[domain.AgentID(id)]
		parts = append(parts, renderRecord(record, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderRecord(record domain.PhaseRecord, s styles) string {
	name := s.agent.Render(string(record.AgentID))
	if record.CritiqueTarget != "" {
		name += s.header.Render(" -> " + string(record.CritiqueTarget))
	}
	if record.IsError {
		name += " " + s.errored.Render("[error]")
	}

	parts := []string{
		name,
		s.detail.Render("  " + summarize(record.MainResponse, 160)),
		"  " + confidenceLine(record.ConfidenceLevel, s),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderMetrics(metrics domain.MetricsSummary, s styles) string {
	parts := []string{
		s.phase.Render("Metrics"),
		s.metricKey.Render(fmt.Sprintf("  duration: %s | calls: %d ok / %d failed (%.0f%% success) | tokens: %d",
			formatDuration(metrics.TotalDuration),
			metrics.Successes,
			metrics.Failures,
			metrics.SuccessRate()*100,
			metrics.TotalTokens)),
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func confidenceLine(confidence float64, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderConfidenceBar(confidence, 20, s),
		" ",
		s.metricKey.Render(fmt.Sprintf("%.2f confidence", confidence)),
	)
}

func renderConfidenceBar(confidence float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	filled := int(math.Round(float64(width) * confidence))
	empty := width - filled

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func phaseTitle(phase domain.Phase) string {
	switch phase {
	case domain.PhaseAnalysis:
		return "Phase 1: Analysis"
	case domain.PhaseCritique:
		return "Phase 2: Critique"
	case domain.PhaseSynthesis:
		return "Phase 3: Synthesis"
	default:
		return string(phase)
	}
}

func summarize(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
