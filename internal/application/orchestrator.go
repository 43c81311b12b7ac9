package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quorum-sh/quorum/internal/domain"
	"github.com/quorum-sh/quorum/internal/observability"
	"github.com/quorum-sh/quorum/internal/ports"
)

// Orchestrator drives the phase workflow over a fixed roster of agents. All
// agents share one inference client; each phase fans out concurrently and
// barriers before the next phase starts.
type Orchestrator struct {
	agents   []*Agent
	client   ports.InferenceClient
	sessions ports.SessionRepository
	clock    ports.Clock

	mu          sync.Mutex
	lastMetrics *domain.MetricsSummary
}

func NewOrchestrator(profiles []domain.AgentProfile, client ports.InferenceClient, sessions ports.SessionRepository, clock ports.Clock) (*Orchestrator, error) {
	enabled := domain.EnabledProfiles(profiles)
	if len(enabled) == 0 {
		return nil, domain.ErrNoAgentsEnabled
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	agents := make([]*Agent, 0, len(enabled))
	for _, profile := range enabled {
		agents = append(agents, NewAgent(profile, client))
	}

	return &Orchestrator{
		agents:   agents,
		client:   client,
		sessions: sessions,
		clock:    clock,
	}, nil
}

// Status describes the orchestrator for rendering and diagnostics.
type Status struct {
	AgentCount  int
	Agents      []domain.AgentID
	LastMetrics *domain.MetricsSummary
}

func (o *Orchestrator) Status() Status {
	ids := make([]domain.AgentID, 0, len(o.agents))
	for _, agent := range o.agents {
		ids = append(ids, agent.ID())
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{AgentCount: len(o.agents), Agents: ids, LastMetrics: o.lastMetrics}
}

func (o *Orchestrator) Close() error {
	return o.client.Close()
}

// Run executes the full workflow for one problem and returns the finalized
// session. A failed persistence write is logged but does not fail the run;
// the caller still gets the complete in-memory session.
func (o *Orchestrator) Run(ctx context.Context, problem string) (domain.Session, error) {
	started := o.clock.Now()
	sessionID := domain.SessionID(started.Format("20060102_150405"))
	ctx = observability.WithSessionID(ctx, string(sessionID))
	log := observability.LoggerFromContext(ctx)

	if err := o.client.Healthy(ctx); err != nil {
		return domain.Session{}, fmt.Errorf("inference service unavailable: %w", err)
	}

	log.Info("session started", "problem", problem, "agents", len(o.agents))
	metrics := newMetricsRecorder(started)

	session := domain.Session{
		ID:        sessionID,
		Problem:   problem,
		StartedAt: started,
		Phases:    map[domain.Phase]map[domain.AgentID]domain.PhaseRecord{},
	}

	for _, phase := range domain.WorkflowPhases() {
		records, err := o.runPhase(ctx, phase, problem, session, metrics)
		if err != nil {
			return domain.Session{}, err
		}
		if records != nil {
			session.Phases[phase] = records
		}
	}

	consensusStart := o.clock.Now()
	session.Consensus = BuildConsensus(session)
	metrics.recordPhase(domain.PhaseConsensus, o.clock.Now().Sub(consensusStart))

	session.Metrics = metrics.summary(o.clock.Now())
	o.mu.Lock()
	summary := session.Metrics
	o.lastMetrics = &summary
	o.mu.Unlock()

	if o.sessions != nil {
		if err := o.sessions.Save(ctx, session); err != nil {
			log.Error("session persistence failed", "error", err)
		}
	}

	log.Info("session finished",
		"duration", session.Metrics.TotalDuration,
		"successes", session.Metrics.Successes,
		"failures", session.Metrics.Failures,
		"consensus_strength", session.Consensus.ConsensusStrength)
	return session, nil
}

type phaseOutcome struct {
	id      domain.AgentID
	record  domain.PhaseRecord
	tokens  int
	elapsed time.Duration
	err     error
}

// runPhase fans one phase out to every agent and collects a record per agent.
// A nil map with nil error means the phase was skipped.
func (o *Orchestrator) runPhase(ctx context.Context, phase domain.Phase, problem string, session domain.Session, metrics *metricsRecorder) (map[domain.AgentID]domain.PhaseRecord, error) {
	log := observability.LoggerFromContext(ctx)

	var targets map[domain.AgentID]domain.AgentID
	if phase == domain.PhaseCritique {
		ids := make([]domain.AgentID, 0, len(o.agents))
		for _, agent := range o.agents {
			ids = append(ids, agent.ID())
		}
		targets = domain.CritiqueTargets(ids)
		if len(targets) == 0 {
			log.Info("critique skipped", "reason", "single agent session")
			return nil, nil
		}
	}

	log.Info("phase started", "phase", phase)
	phaseStart := o.clock.Now()

	outcomes := make(chan phaseOutcome, len(o.agents))
	var wg sync.WaitGroup
	for _, agent := range o.agents {
		wg.Add(1)
		go func(agent *Agent) {
			defer wg.Done()
			callStart := time.Now()
			reply, err := o.dispatch(ctx, phase, agent, problem, session, targets)
			outcomes <- phaseOutcome{
				id:      agent.ID(),
				record:  reply.Record,
				tokens:  reply.Tokens,
				elapsed: time.Since(callStart),
				err:     err,
			}
		}(agent)
	}
	wg.Wait()
	close(outcomes)

	records := make(map[domain.AgentID]domain.PhaseRecord, len(o.agents))
	for outcome := range outcomes {
		if outcome.err != nil {
			log.Warn("agent call failed", "phase", phase, "agent", outcome.id, "error", outcome.err)
			records[outcome.id] = domain.NewErrorRecord(outcome.id, outcome.err)
			metrics.recordAgentCall(outcome.id, outcome.elapsed, false, 0)
			continue
		}
		records[outcome.id] = outcome.record
		metrics.recordAgentCall(outcome.id, outcome.elapsed, true, outcome.tokens)
	}

	metrics.recordPhase(phase, o.clock.Now().Sub(phaseStart))
	log.Info("phase finished", "phase", phase, "records", len(records))
	return records, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, phase domain.Phase, agent *Agent, problem string, session domain.Session, targets map[domain.AgentID]domain.AgentID) (AgentReply, error) {
	switch phase {
	case domain.PhaseAnalysis:
		return agent.Analyze(ctx, problem)
	case domain.PhaseCritique:
		target := targets[agent.ID()]
		return agent.Critique(ctx, problem, target, session.PhaseRecords(domain.PhaseAnalysis)[target])
	case domain.PhaseSynthesis:
		return agent.Synthesize(ctx, problem, session.PhaseRecords(domain.PhaseAnalysis))
	default:
		return AgentReply{}, fmt.Errorf("phase %q has no agent dispatch", phase)
	}
}
