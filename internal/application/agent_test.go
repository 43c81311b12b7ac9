package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/ports/mocks"
)

func testProfile() domain.AgentProfile {
	return domain.AgentProfile{
		ID:           "Alpha",
		Role:         "systems analyst",
		Personality:  "methodical",
		Model:        "llama3.2",
		Temperature:  0.4,
		SystemPrompt: "You are a systems analyst.",
		Enabled:      true,
	}
}

func TestAgentAnalyzeBuildsStructuredRequest(t *testing.T) {
	t.Parallel()

	client := &mocks.InferenceClient{}
	client.On("Generate", mock.Anything, mock.MatchedBy(func(req domain.GenerateRequest) bool {
		return req.Model == "llama3.2" &&
			req.System == "You are a systems analyst." &&
			req.Temperature == 0.4 &&
			req.StructuredJSON &&
			strings.Contains(req.Prompt, "systems analyst")
	})).Return(domain.GenerateResult{
		Text: `{"agent_id": "Alpha", "main_response": "looks good", "confidence_level": 0.7}`,
		Done: true, CompletionTokens: 12,
	}, nil)

	agent := NewAgent(testProfile(), client)
	reply, err := agent.Analyze(context.Background(), "review the design")
	require.NoError(t, err)

	assert.Equal(t, domain.AgentID("Alpha"), reply.Record.AgentID)
	assert.Equal(t, "looks good", reply.Record.MainResponse)
	assert.InDelta(t, 0.7, reply.Record.ConfidenceLevel, 1e-9)
	assert.Equal(t, 12, reply.Tokens)
	client.AssertExpectations(t)
}

func TestAgentCritiqueTagsTarget(t *testing.T) {
	t.Parallel()

	client := &mocks.InferenceClient{}
	client.On("Generate", mock.Anything, mock.Anything).Return(domain.GenerateResult{
		Text: `{"agent_id": "Alpha", "main_response": "solid analysis", "confidence_level": 0.6}`,
		Done: true,
	}, nil)

	agent := NewAgent(testProfile(), client)
	analysis := domain.PhaseRecord{AgentID: "Beta", MainResponse: "original take", ConfidenceLevel: 0.5}
	reply, err := agent.Critique(context.Background(), "problem", "Beta", analysis)
	require.NoError(t, err)

	assert.Equal(t, domain.AgentID("Beta"), reply.Record.CritiqueTarget)
}

func TestAgentDecodesMalformedOutput(t *testing.T) {
	t.Parallel()

	client := &mocks.InferenceClient{}
	client.On("Generate", mock.Anything, mock.Anything).Return(domain.GenerateResult{
		Text: "not json at all, just prose about the problem at hand",
		Done: true,
	}, nil)

	agent := NewAgent(testProfile(), client)
	reply, err := agent.Analyze(context.Background(), "problem")
	require.NoError(t, err)

	assert.Equal(t, domain.AgentID("Alpha"), reply.Record.AgentID)
	assert.GreaterOrEqual(t, reply.Record.ConfidenceLevel, 0.0)
	assert.LessOrEqual(t, reply.Record.ConfidenceLevel, 1.0)
}

func TestAgentPropagatesTransportError(t *testing.T) {
	t.Parallel()

	client := &mocks.InferenceClient{}
	client.On("Generate", mock.Anything, mock.Anything).
		Return(domain.GenerateResult{}, errors.New("connection refused"))

	agent := NewAgent(testProfile(), client)
	_, err := agent.Analyze(context.Background(), "problem")
	require.ErrorContains(t, err, "connection refused")
}
