package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCritiqueTargetsRoundRobin(t *testing.T) {
	t.Parallel()

	ids := []AgentID{"w0", "w1", "w2", "w3", "w4"}
	targets := CritiqueTargets(ids)

	require.Len(t, targets, len(ids))
	for i, id := range ids {
		assert.Equal(t, ids[(i+1)%len(ids)], targets[id])
	}
}

func TestCritiqueTargetsTwoAgentsCritiqueEachOther(t *testing.T) {
	t.Parallel()

	targets := CritiqueTargets([]AgentID{"Alpha", "Beta"})
	assert.Equal(t, AgentID("Beta"), targets["Alpha"])
	assert.Equal(t, AgentID("Alpha"), targets["Beta"])
}

func TestCritiqueTargetsSingleAgentHasNoAssignment(t *testing.T) {
	t.Parallel()

	assert.Empty(t, CritiqueTargets([]AgentID{"solo"}))
	assert.Empty(t, CritiqueTargets(nil))
}

func TestRetryPolicyDelayGrowsExponentially(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, policy.Delay(0))
	assert.Equal(t, 200*time.Millisecond, policy.Delay(1))
	assert.Equal(t, 400*time.Millisecond, policy.Delay(2))
}

func TestRetryPolicyDelayToleratesBadInputs(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{BaseDelay: 50 * time.Millisecond}

	assert.Equal(t, 50*time.Millisecond, policy.Delay(-1))
	assert.Equal(t, 50*time.Millisecond, policy.Delay(3))
}

func TestGenerateRequestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		request GenerateRequest
		wantErr bool
	}{
		{name: "valid", request: GenerateRequest{Model: "llama3.1:8b", Temperature: 0.7}},
		{name: "empty model", request: GenerateRequest{Temperature: 0.7}, wantErr: true},
		{name: "blank model", request: GenerateRequest{Model: "   ", Temperature: 0.7}, wantErr: true},
		{name: "temperature too low", request: GenerateRequest{Model: "m", Temperature: -0.1}, wantErr: true},
		{name: "temperature too high", request: GenerateRequest{Model: "m", Temperature: 2.1}, wantErr: true},
		{name: "temperature upper bound", request: GenerateRequest{Model: "m", Temperature: 2.0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.request.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnabledProfilesFiltersDisabled(t *testing.T) {
	t.Parallel()

	profiles := []AgentProfile{
		{ID: "a", Enabled: true},
		{ID: "b", Enabled: false},
		{ID: "c", Enabled: true},
	}

	enabled := EnabledProfiles(profiles)
	require.Len(t, enabled, 2)
	assert.Equal(t, AgentID("a"), enabled[0].ID)
	assert.Equal(t, AgentID("c"), enabled[1].ID)
}

func TestNewErrorRecordShape(t *testing.T) {
	t.Parallel()

	record := NewErrorRecord("Agent7", errors.New("connection refused"))

	assert.Equal(t, AgentID("Agent7"), record.AgentID)
	assert.True(t, record.IsError)
	assert.Zero(t, record.ConfidenceLevel)
	assert.Contains(t, record.MainResponse, "connection refused")
	assert.Contains(t, record.Reasoning, "Agent7")
}

func TestMetricsSummarySuccessRate(t *testing.T) {
	t.Parallel()

	assert.Zero(t, MetricsSummary{}.SuccessRate())
	assert.InDelta(t, 0.8, MetricsSummary{Successes: 4, Failures: 1}.SuccessRate(), 1e-9)
}
