// Package pipeline implements the session state machine that coordinates
// the agents: Route -> Plan -> Retrieve -> Analyze -> (Clarify/WaitUser)
// -> Synthesize -> Evaluate/Retry, plus domain expansion, the correction
// flow, and the observer trigger dispatcher.
package pipeline

import (
	"context"
	"fmt"

	"fitcoach/internal/agents"
	"fitcoach/internal/domain"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"
	"fitcoach/internal/store"
	"fitcoach/internal/types"
)

// Agent interfaces consumed by the machine. The pipeline depends on
// these, not on the concrete agents, so tests drive the machine with
// scripted stubs.

// RouterAgent classifies raw input.
type RouterAgent interface {
	Route(ctx context.Context, rawInput string, available []domain.Info, sessionContext string) (*types.RouterOutput, error)
}

// PlannerAgent decides the next step.
type PlannerAgent interface {
	Plan(ctx context.Context, in agents.PlanInput) (*types.PlannerOutput, error)
}

// RetrieverAgent executes one retrieval strategy.
type RetrieverAgent interface {
	Retrieve(ctx context.Context, strategy types.RetrievalStrategy) (*types.RetrieverOutput, error)
}

// AnalyzerAgent judges evidence sufficiency.
type AnalyzerAgent interface {
	Analyze(ctx context.Context, in agents.AnalyzeInput) (*types.AnalyzerOutput, error)
}

// ClarifierAgent produces questions for the user.
type ClarifierAgent interface {
	Clarify(ctx context.Context, in agents.ClarifyInput) (*types.ClarifierOutput, error)
}

// SynthesizerAgent drafts the answer.
type SynthesizerAgent interface {
	Synthesize(ctx context.Context, in agents.SynthesizeInput) (*types.SynthesizerOutput, error)
}

// EvaluatorAgent scores a draft.
type EvaluatorAgent interface {
	Evaluate(ctx context.Context, in agents.EvaluateInput) (*types.EvaluatorOutput, error)
}

// ParserAgent structures log and correction text.
type ParserAgent interface {
	Parse(ctx context.Context, in agents.ParseInput) (*types.ParserOutput, error)
}

// EntryStore is the storage surface the pipeline writes entries through.
type EntryStore interface {
	agents.EntryStore
	SaveEntry(entry types.Entry, correction *store.Correction) error
}

// SessionStore persists session snapshots across suspension.
type SessionStore interface {
	SaveSession(id string, stateJSON []byte, waitingForUser, complete bool) error
	LoadSession(id string) ([]byte, error)
}

// GlobalContextStore is the observer-owned long-lived context store.
type GlobalContextStore interface {
	GetGlobalContext(userID string) (string, error)
	UpdateGlobalContext(userID, context string) error
}

// Config tunes the machine.
type Config struct {
	MaxRetries       int    // Evaluate->Synthesize retry bound (default 2)
	MaxSteps         int    // Safety valve on loop iterations (default 50)
	ResponseStyle    string // Forwarded to the Synthesizer
	RecentEntryCount int    // Correction disambiguation window (default 10)
	UserID           string // Owner of the global context (default "local")
}

func (c *Config) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = session.DefaultMaxRetries
	}
	if c.MaxSteps <= 0 {
		c.MaxSteps = 50
	}
	if c.RecentEntryCount <= 0 {
		c.RecentEntryCount = 10
	}
	if c.UserID == "" {
		c.UserID = "local"
	}
}

// Machine runs the session state machine. One Machine serves many
// sessions; all per-turn state lives on the SessionState.
type Machine struct {
	registry *domain.Registry

	router      RouterAgent
	planner     PlannerAgent
	retriever   RetrieverAgent
	analyzer    AnalyzerAgent
	clarifier   ClarifierAgent
	synthesizer SynthesizerAgent
	evaluator   EvaluatorAgent
	parser      ParserAgent

	entries    EntryStore
	sessions   SessionStore
	globalCtx  GlobalContextStore
	dispatcher *Dispatcher
	detector   SignificanceDetector

	cfg Config
}

// Deps bundles everything a Machine needs.
type Deps struct {
	Registry    *domain.Registry
	Router      RouterAgent
	Planner     PlannerAgent
	Retriever   RetrieverAgent
	Analyzer    AnalyzerAgent
	Clarifier   ClarifierAgent
	Synthesizer SynthesizerAgent
	Evaluator   EvaluatorAgent
	Parser      ParserAgent
	Entries     EntryStore
	Sessions    SessionStore
	GlobalCtx   GlobalContextStore
	Dispatcher  *Dispatcher
	Detector    SignificanceDetector // defaults to KeywordSignificance
	Config      Config
}

// NewMachine wires a Machine from its dependencies.
func NewMachine(deps Deps) (*Machine, error) {
	if deps.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if deps.Router == nil || deps.Planner == nil || deps.Retriever == nil ||
		deps.Analyzer == nil || deps.Clarifier == nil || deps.Synthesizer == nil ||
		deps.Evaluator == nil || deps.Parser == nil {
		return nil, fmt.Errorf("all agents are required")
	}
	if deps.Entries == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("entry and session stores are required")
	}
	deps.Config.applyDefaults()
	if deps.Detector == nil {
		deps.Detector = &KeywordSignificance{}
	}

	return &Machine{
		registry:    deps.Registry,
		router:      deps.Router,
		planner:     deps.Planner,
		retriever:   deps.Retriever,
		analyzer:    deps.Analyzer,
		clarifier:   deps.Clarifier,
		synthesizer: deps.Synthesizer,
		evaluator:   deps.Evaluator,
		parser:      deps.Parser,
		entries:     deps.Entries,
		sessions:    deps.Sessions,
		globalCtx:   deps.GlobalCtx,
		dispatcher:  deps.Dispatcher,
		detector:    deps.Detector,
		cfg:         deps.Config,
	}, nil
}

// run drives the machine until it completes, suspends, or fails. Agent
// calls are strictly sequential: each step's state updates are fully
// applied before the next agent is invoked.
func (m *Machine) run(ctx context.Context, sess *session.SessionState) error {
	for steps := 0; steps < m.cfg.MaxSteps; steps++ {
		if sess.Complete || sess.WaitingForUser {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		logging.Pipeline("session %s: state=%s", sess.ID, sess.CurrentState)

		var err error
		switch sess.CurrentState {
		case session.StatePlan:
			err = m.stepPlan(ctx, sess)
		case session.StateRetrieve:
			err = m.stepRetrieve(ctx, sess)
		case session.StateAnalyze:
			err = m.stepAnalyze(ctx, sess)
		case session.StateExpandDomain:
			err = m.stepExpandDomain(sess)
		case session.StateClarify:
			err = m.stepClarify(ctx, sess)
		case session.StateSynthesize:
			err = m.stepSynthesize(ctx, sess)
		case session.StateEvaluate:
			err = m.stepEvaluate(ctx, sess)
		default:
			return fmt.Errorf("no transition defined from state %q", sess.CurrentState)
		}
		if err != nil {
			// An unusable agent output halts the transition; never guess
			// a next state.
			logging.Get(logging.CategoryPipeline).Error("session %s: step %s failed: %v",
				sess.ID, sess.CurrentState, err)
			return err
		}

		if err := m.persist(sess); err != nil {
			return err
		}
	}
	return fmt.Errorf("session %s exceeded %d machine steps", sess.ID, m.cfg.MaxSteps)
}

// persist snapshots the session after every applied transition, so a
// crash never observes a half-applied iteration.
func (m *Machine) persist(sess *session.SessionState) error {
	data, err := sess.Marshal()
	if err != nil {
		return err
	}
	return m.sessions.SaveSession(sess.ID, data, sess.WaitingForUser, sess.Complete)
}

// globalContext fetches the long-lived user context, tolerating a
// missing store.
func (m *Machine) globalContext() string {
	if m.globalCtx == nil {
		return ""
	}
	gc, err := m.globalCtx.GetGlobalContext(m.cfg.UserID)
	if err != nil {
		logging.Get(logging.CategoryPipeline).Warn("global context load failed: %v", err)
		return ""
	}
	return gc
}
