package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quorum-sh/quorum/internal/domain"
)

func TestDecodeDirectJSON(t *testing.T) {
	t.Parallel()

	raw := `{
		"agent_id": "claimed-id",
		"main_response": "Use a message queue between the services.",
		"confidence_level": 0.85,
		"key_insights": ["decoupling helps", "retries become safe"],
		"questions_for_others": ["what about ordering?"],
		"next_action": "Prototype the queue",
		"reasoning": "Queues absorb bursts"
	}`

	record := Decode(raw, "Agent1")

	assert.Equal(t, domain.AgentID("Agent1"), record.AgentID)
	assert.Equal(t, "Use a message queue between the services.", record.MainResponse)
	assert.InDelta(t, 0.85, record.ConfidenceLevel, 1e-9)
	assert.Equal(t, []string{"decoupling helps", "retries become safe"}, record.KeyInsights)
	assert.Equal(t, []string{"what about ordering?"}, record.QuestionsForOthers)
	assert.Equal(t, "Prototype the queue", record.NextAction)
	assert.False(t, record.IsError)
}

func TestDecodeJSONEmbeddedInProse(t *testing.T) {
	t.Parallel()

	raw := `Sure, here is my analysis:
{"agent_id": "x", "main_response": "Cache the reads.", "confidence_level": 0.6}
Hope that helps!`

	record := Decode(raw, "Agent2")

	assert.Equal(t, domain.AgentID("Agent2"), record.AgentID)
	assert.Equal(t, "Cache the reads.", record.MainResponse)
	assert.InDelta(t, 0.6, record.ConfidenceLevel, 1e-9)
}

func TestDecodeFencedCodeBlock(t *testing.T) {
	t.Parallel()

	raw := "Analysis below.\n```json\n{\"agent_id\": \"x\", \"main_response\": \"Shard by tenant.\", \"confidence_level\": 0.7}\n```\n"

	record := Decode(raw, "Agent3")
	assert.Equal(t, "Shard by tenant.", record.MainResponse)
	assert.InDelta(t, 0.7, record.ConfidenceLevel, 1e-9)
}

func TestDecodeFencedBlockWithoutLanguageTag(t *testing.T) {
	t.Parallel()

	raw := "```\n{\"agent_id\": \"x\", \"main_response\": \"Batch the writes.\", \"confidence_level\": 0.5}\n```"

	record := Decode(raw, "Agent3")
	assert.Equal(t, "Batch the writes.", record.MainResponse)
}

func TestDecodeLabeledLines(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"response: Split the monolith along team boundaries",
		"confidence: 0.9",
		`insights: ["small services", "clear ownership"]`,
		`questions: [who owns the gateway?]`,
	}, "\n")

	record := Decode(raw, "Agent4")

	assert.Equal(t, "Split the monolith along team boundaries", record.MainResponse)
	assert.InDelta(t, 0.9, record.ConfidenceLevel, 1e-9)
	assert.Equal(t, []string{"small services", "clear ownership"}, record.KeyInsights)
	assert.Equal(t, []string{"who owns the gateway?"}, record.QuestionsForOthers)
}

func TestDecodeUnterminatedJSONFallsBack(t *testing.T) {
	t.Parallel()

	record := Decode(`{"agent_id": "X", "main_response": "incomplete`, "Agent7")

	assert.Equal(t, domain.AgentID("Agent7"), record.AgentID)
	assert.InDelta(t, 0.3, record.ConfidenceLevel, 1e-9)
	assert.Equal(t, FallbackReasoning, record.Reasoning)
}

func TestDecodeFreeTextFallbackMinesInsights(t *testing.T) {
	t.Parallel()

	raw := "The main bottleneck is the synchronous payment call. " +
		"Moving it behind a queue removes the coupling. " +
		"Ok. " +
		"A circuit breaker protects the checkout flow from slow dependencies."

	record := Decode(raw, "Agent5")

	assert.InDelta(t, 0.3, record.ConfidenceLevel, 1e-9)
	require.NotEmpty(t, record.KeyInsights)
	assert.LessOrEqual(t, len(record.KeyInsights), domain.MaxKeyInsights)
	for _, insight := range record.KeyInsights {
		assert.GreaterOrEqual(t, len(insight), 20)
		assert.LessOrEqual(t, len(insight), 200)
	}
	assert.Empty(t, record.QuestionsForOthers)
}

func TestDecodeEmptyInputYieldsPlaceholder(t *testing.T) {
	t.Parallel()

	record := Decode("   ", "Agent6")

	assert.Equal(t, "Unable to generate proper response", record.MainResponse)
	assert.InDelta(t, 0.3, record.ConfidenceLevel, 1e-9)
	assert.Equal(t, FallbackReasoning, record.Reasoning)
}

func TestDecodeOwnerAlwaysOverridesEmbeddedAgentID(t *testing.T) {
	t.Parallel()

	record := Decode(`{"agent_id": "impostor", "main_response": "hi there", "confidence_level": 0.4}`, "Agent8")
	assert.Equal(t, domain.AgentID("Agent8"), record.AgentID)
}

func TestDecodeConfidenceAlwaysInRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "missing", raw: `{"agent_id": "x", "main_response": "m"}`, want: 0.3},
		{name: "string number", raw: "response: fine\nconfidence: 0.75", want: 0.75},
		{name: "too large", raw: "response: fine\nconfidence: 7.5", want: 1},
		{name: "non numeric", raw: "response: something useful here", want: 0.5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			record := Decode(tc.raw, "owner")
			assert.InDelta(t, tc.want, record.ConfidenceLevel, 1e-9)
			assert.GreaterOrEqual(t, record.ConfidenceLevel, 0.0)
			assert.LessOrEqual(t, record.ConfidenceLevel, 1.0)
		})
	}
}

func TestDecodeRejectsOutOfRangeJSONConfidenceThenRecovers(t *testing.T) {
	t.Parallel()

	// A JSON object with confidence outside [0,1] fails validation and the
	// decoder falls through to the later strategies.
	record := Decode(`{"agent_id": "x", "main_response": "m", "confidence_level": 3.0}`, "owner")
	assert.LessOrEqual(t, record.ConfidenceLevel, 1.0)
	assert.GreaterOrEqual(t, record.ConfidenceLevel, 0.0)
}

func TestDecodeTruncationLaws(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 3000)
	raw := `{"agent_id": "x", "main_response": "` + long + `", "confidence_level": 0.5,
		"key_insights": ["1","2","3","4","5","6","7"],
		"questions_for_others": ["a","b","c","d","e"]}`

	record := Decode(raw, "Agent9")

	assert.Len(t, record.MainResponse, domain.MaxMainResponseLen)
	assert.True(t, strings.HasSuffix(record.MainResponse, domain.TruncationMarker))
	assert.Len(t, record.KeyInsights, domain.MaxKeyInsights)
	assert.Len(t, record.QuestionsForOthers, domain.MaxQuestions)
}

func TestDecodeNonListInsightsRejectedByValidation(t *testing.T) {
	t.Parallel()

	record := Decode(`{"agent_id": "x", "main_response": "m", "confidence_level": 0.5, "key_insights": "not a list"}`, "owner")

	// Validation fails, fallback path handles the raw text instead.
	assert.Equal(t, FallbackReasoning, record.Reasoning)
}

func TestDecodeDefaultsForMissingOptionalFields(t *testing.T) {
	t.Parallel()

	record := Decode(`{"agent_id": "x", "main_response": "m", "confidence_level": 0.5}`, "owner")

	assert.Equal(t, "Continue collaboration", record.NextAction)
	assert.Equal(t, "Analysis completed", record.Reasoning)
	assert.Empty(t, record.KeyInsights)
	assert.Empty(t, record.QuestionsForOthers)
}
