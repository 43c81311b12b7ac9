package application

import (
	"context"

	"github.com/quorum-sh/quorum/internal/adapters/parse"
	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/ports"
)

// AgentReply carries one normalized record plus the token usage of the call
// that produced it.
type AgentReply struct {
	Record domain.PhaseRecord
	Tokens int
}

// Agent binds a profile to the shared inference client. All raw output goes
// through the decoder, so a reply is always a structurally valid record; only
// transport-level failures surface as errors.
type Agent struct {
	profile domain.AgentProfile
	client  ports.InferenceClient
}

func NewAgent(profile domain.AgentProfile, client ports.InferenceClient) *Agent {
	return &Agent{profile: profile, client: client}
}

func (a *Agent) ID() domain.AgentID {
	return a.profile.ID
}

func (a *Agent) Profile() domain.AgentProfile {
	return a.profile
}

func (a *Agent) Analyze(ctx context.Context, problem string) (AgentReply, error) {
	return a.generate(ctx, analysisPrompt(a.profile, problem))
}

func (a *Agent) Critique(ctx context.Context, problem string, target domain.AgentID, analysis domain.PhaseRecord) (AgentReply, error) {
	reply, err := a.generate(ctx, critiquePrompt(a.profile, problem, target, analysis))
	if err != nil {
		return AgentReply{}, err
	}
	reply.Record.CritiqueTarget = target
	return reply, nil
}

func (a *Agent) Synthesize(ctx context.Context, problem string, analyses map[domain.AgentID]domain.PhaseRecord) (AgentReply, error) {
	return a.generate(ctx, synthesisPrompt(a.profile, problem, analyses))
}

// ConsensusInput asks the agent for its own consensus proposal over all
// syntheses. The standard workflow computes consensus algorithmically and does
// not use this; it is exposed for callers that want a model-written summary.
func (a *Agent) ConsensusInput(ctx context.Context, problem string, syntheses map[domain.AgentID]domain.PhaseRecord) (AgentReply, error) {
	return a.generate(ctx, consensusPrompt(a.profile, problem, syntheses))
}

func (a *Agent) generate(ctx context.Context, prompt string) (AgentReply, error) {
	result, err := a.client.Generate(ctx, domain.GenerateRequest{
		Model:          a.profile.Model,
		Prompt:         prompt,
		System:         a.profile.SystemPrompt,
		Temperature:    a.profile.Temperature,
		StructuredJSON: true,
	})
	if err != nil {
		return AgentReply{}, err
	}

	return AgentReply{
		Record: parse.Decode(result.Text, a.profile.ID),
		Tokens: result.TotalTokens(),
	}, nil
}
