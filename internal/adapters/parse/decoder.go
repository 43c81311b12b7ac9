package parse

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/quorum-sh/quorum/internal/domain"
)

const (
	fallbackConfidence = 0.3
	defaultConfidence  = 0.5

	defaultNextAction  = "Continue collaboration"
	defaultReasoning   = "Analysis completed"
	unparsableResponse = "Response could not be parsed properly"
	emptyResponseText  = "Unable to generate proper response"

	// FallbackReasoning marks records synthesized from free text after every
	// parsing strategy failed.
	FallbackReasoning = "Response created from fallback parsing"

	minInsightLen = 20
	maxInsightLen = 200
)

var (
	braceSpanRe   = regexp.MustCompile(`(?s)\{.*\}`)
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	mainLineRe      = regexp.MustCompile(`(?is)(?:main_response|analysis|response):\s*(.+?)(?:\n|$)`)
	confLineRe      = regexp.MustCompile(`(?i)(?:confidence_level|confidence):\s*([0-9.]+)`)
	insightsLineRe  = regexp.MustCompile(`(?is)(?:key_insights|insights):\s*\[(.*?)\]`)
	questionsLineRe = regexp.MustCompile(`(?is)(?:questions_for_others|questions):\s*\[(.*?)\]`)
)

// Decode turns arbitrary, possibly malformed model output into a valid
// PhaseRecord. It never fails: when every strategy comes up empty the raw text
// is wrapped in a low-confidence fallback record. The owner id always wins over
// whatever agent_id the text claimed.
func Decode(raw string, owner domain.AgentID) domain.PhaseRecord {
	trimmed := strings.TrimSpace(raw)

	if fields, ok := decodeJSON(trimmed); ok {
		return normalize(fields, owner)
	}

	if span := braceSpanRe.FindString(raw); span != "" {
		if fields, ok := decodeJSON(span); ok {
			return normalize(fields, owner)
		}
	}

	if match := fencedBlockRe.FindStringSubmatch(raw); match != nil {
		if fields, ok := decodeJSON(match[1]); ok {
			return normalize(fields, owner)
		}
	}

	if fields, ok := decodeLabeledLines(raw); ok {
		return normalize(fields, owner)
	}

	return fallbackRecord(trimmed, owner)
}

// decodeJSON parses text as a generic JSON object and accepts it only when the
// required fields are present and well-typed.
func decodeJSON(text string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, false
	}
	if !validFields(fields) {
		return nil, false
	}
	return fields, true
}

func validFields(fields map[string]any) bool {
	for _, required := range []string{"agent_id", "main_response", "confidence_level"} {
		if _, ok := fields[required]; !ok {
			return false
		}
	}

	confidence, ok := fields["confidence_level"].(float64)
	if !ok || math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return false
	}

	for _, listField := range []string{"key_insights", "questions_for_others"} {
		if value, ok := fields[listField]; ok {
			if _, isList := value.([]any); !isList {
				return false
			}
		}
	}

	return true
}

// decodeLabeledLines handles prose of the form "response: ...", "confidence:
// 0.8", "insights: [a, b]". It succeeds only when a main-response line was
// found.
func decodeLabeledLines(text string) (map[string]any, bool) {
	fields := map[string]any{}

	if match := mainLineRe.FindStringSubmatch(text); match != nil {
		fields["main_response"] = strings.TrimSpace(match[1])
	}
	if match := confLineRe.FindStringSubmatch(text); match != nil {
		if value, err := strconv.ParseFloat(match[1], 64); err == nil {
			fields["confidence_level"] = value
		}
	}
	if match := insightsLineRe.FindStringSubmatch(text); match != nil {
		fields["key_insights"] = splitListItems(match[1])
	}
	if match := questionsLineRe.FindStringSubmatch(text); match != nil {
		fields["questions_for_others"] = splitListItems(match[1])
	}

	if _, ok := fields["main_response"]; !ok {
		return nil, false
	}
	return fields, true
}

func splitListItems(body string) []any {
	items := make([]any, 0)
	for _, part := range strings.Split(body, ",") {
		item := strings.Trim(part, " \"',\n\t")
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// normalize applies the post-processing every decode path goes through: the
// owner id is forced, confidence is clamped, list and length caps are applied,
// and missing optional fields get their defaults.
func normalize(fields map[string]any, owner domain.AgentID) domain.PhaseRecord {
	return domain.PhaseRecord{
		AgentID:            owner,
		MainResponse:       truncate(stringField(fields, "main_response", unparsableResponse)),
		ConfidenceLevel:    confidenceField(fields),
		KeyInsights:        listField(fields, "key_insights", domain.MaxKeyInsights),
		QuestionsForOthers: listField(fields, "questions_for_others", domain.MaxQuestions),
		NextAction:         stringField(fields, "next_action", defaultNextAction),
		Reasoning:          stringField(fields, "reasoning", defaultReasoning),
	}
}

func stringField(fields map[string]any, key, fallback string) string {
	value, ok := fields[key].(string)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func confidenceField(fields map[string]any) float64 {
	switch value := fields["confidence_level"].(type) {
	case float64:
		return clampConfidence(value)
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultConfidence
		}
		return clampConfidence(parsed)
	default:
		return defaultConfidence
	}
}

func clampConfidence(value float64) float64 {
	if math.IsNaN(value) {
		return defaultConfidence
	}
	return math.Max(0, math.Min(1, value))
}

func listField(fields map[string]any, key string, limit int) []string {
	items, ok := fields[key].([]any)
	if !ok {
		return []string{}
	}

	result := make([]string, 0, limit)
	for _, item := range items {
		if len(result) == limit {
			break
		}
		if text, ok := item.(string); ok && text != "" {
			result = append(result, text)
		}
	}
	return result
}

func truncate(text string) string {
	if len(text) <= domain.MaxMainResponseLen {
		return text
	}
	keep := domain.MaxMainResponseLen - len(domain.TruncationMarker)
	return text[:keep] + domain.TruncationMarker
}

// fallbackRecord wraps free text that resisted every parsing strategy. Insights
// are mined from sentences of plausible length so downstream aggregation still
// has something to fold in.
func fallbackRecord(trimmed string, owner domain.AgentID) domain.PhaseRecord {
	main := truncate(trimmed)
	if main == "" {
		main = emptyResponseText
	}

	return domain.PhaseRecord{
		AgentID:            owner,
		MainResponse:       main,
		ConfidenceLevel:    fallbackConfidence,
		KeyInsights:        mineInsights(main),
		QuestionsForOthers: []string{},
		NextAction:         "Review and clarify response",
		Reasoning:          FallbackReasoning,
	}
}

func mineInsights(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	insights := make([]string, 0, domain.MaxKeyInsights)
	for _, sentence := range sentences {
		if len(insights) == domain.MaxKeyInsights {
			break
		}
		candidate := strings.TrimSpace(sentence)
		if len(candidate) >= minInsightLen && len(candidate) <= maxInsightLen {
			insights = append(insights, candidate)
		}
	}
	return insights
}
