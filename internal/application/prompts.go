package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quorum-sh/quorum/internal/domain"
)

const responseContract = `Respond with a single JSON object using exactly these fields:
{"agent_id": string, "main_response": string, "confidence_level": number between 0 and 1,
"key_insights": array of up to 5 strings, "questions_for_others": array of up to 3 strings,
"next_action": string, "reasoning": string}`

func analysisPrompt(profile domain.AgentProfile, problem string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following problem from your perspective as a %s:\n\n", profile.Role)
	fmt.Fprintf(&b, "PROBLEM: %s\n\n", problem)
	b.WriteString("Provide a comprehensive analysis covering:\n")
	b.WriteString("1. Your initial assessment of the problem\n")
	b.WriteString("2. Key considerations from your role's perspective\n")
	b.WriteString("3. Potential approaches or solutions\n")
	b.WriteString("4. Critical factors that need attention\n")
	b.WriteString("5. Your confidence in your analysis\n\n")
	fmt.Fprintf(&b, "Focus on what you bring uniquely as a %s with %s characteristics.\n\n",
		profile.Role, profile.Personality)
	b.WriteString(responseContract)
	return b.String()
}

func critiquePrompt(profile domain.AgentProfile, problem string, target domain.AgentID, analysis domain.PhaseRecord) string {
	var b strings.Builder
	b.WriteString("Review and critique the following analysis from another agent:\n\n")
	fmt.Fprintf(&b, "ORIGINAL PROBLEM: %s\n\n", problem)
	fmt.Fprintf(&b, "AGENT %s'S ANALYSIS:\n%s\n", target, recordSummary(analysis))
	fmt.Fprintf(&b, "\nAs a %s, provide a constructive critique covering:\n", profile.Role)
	b.WriteString("1. Strengths you see in the analysis\n")
	b.WriteString("2. Gaps or weaknesses you identify\n")
	b.WriteString("3. Alternative perspectives from your expertise\n")
	b.WriteString("4. Questions that need to be addressed\n")
	b.WriteString("5. Suggestions for improvement\n\n")
	b.WriteString("Be constructive but honest in your assessment.\n\n")
	b.WriteString(responseContract)
	return b.String()
}

func synthesisPrompt(profile domain.AgentProfile, problem string, analyses map[domain.AgentID]domain.PhaseRecord) string {
	var b strings.Builder
	b.WriteString("Synthesize insights from all agent analyses into a comprehensive solution:\n\n")
	fmt.Fprintf(&b, "ORIGINAL PROBLEM: %s\n\n", problem)
	b.WriteString("ALL AGENT ANALYSES:\n")
	writeRecordSummaries(&b, analyses)
	fmt.Fprintf(&b, "\nAs a %s, synthesize these perspectives into:\n", profile.Role)
	b.WriteString("1. A unified understanding of the problem\n")
	b.WriteString("2. Integration of the best insights from all analyses\n")
	b.WriteString("3. A comprehensive solution approach\n")
	b.WriteString("4. Implementation recommendations\n")
	b.WriteString("5. Potential risks and mitigation strategies\n\n")
	b.WriteString(responseContract)
	return b.String()
}

func consensusPrompt(profile domain.AgentProfile, problem string, syntheses map[domain.AgentID]domain.PhaseRecord) string {
	var b strings.Builder
	b.WriteString("Build consensus from the following agent syntheses:\n\n")
	fmt.Fprintf(&b, "ORIGINAL PROBLEM: %s\n\n", problem)
	b.WriteString("AGENT SYNTHESES:\n")
	writeRecordSummaries(&b, syntheses)
	fmt.Fprintf(&b, "\nAs a %s, identify common themes, areas of agreement, and a unified path forward.\n\n", profile.Role)
	b.WriteString(responseContract)
	return b.String()
}

// writeRecordSummaries emits summaries in agent-id order so identical inputs
// always build identical prompts.
func writeRecordSummaries(b *strings.Builder, records map[domain.AgentID]domain.PhaseRecord) {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	for _, id := range ids {
		record := records[domain.AgentID(id)]
		fmt.Fprintf(b, "\nAgent: %s\n%s", id, recordSummary(record))
	}
}

func recordSummary(record domain.PhaseRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Response: %s\n", clip(record.MainResponse, 300))
	if len(record.KeyInsights) > 0 {
		fmt.Fprintf(&b, "Key Insights: %s\n", strings.Join(record.KeyInsights, ", "))
	}
	fmt.Fprintf(&b, "Confidence: %.2f\n", record.ConfidenceLevel)
	return b.String()
}

func clip(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
