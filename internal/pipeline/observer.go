package pipeline

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"fitcoach/internal/agents"
	"fitcoach/internal/logging"
	"fitcoach/internal/types"
)

// TriggerKind names the closed set of events the Observer reacts to.
type TriggerKind string

const (
	TriggerPostQuery      TriggerKind = "post_query"
	TriggerUserCorrection TriggerKind = "user_correction"
	TriggerSignificantLog TriggerKind = "significant_log"
)

// Trigger is one observer event.
type Trigger struct {
	Kind     TriggerKind
	UserID   string
	Context  string // what happened, rendered for the Observer prompt
	Guidance string // domain context guidance active at trigger time
}

// ObserverAgent is the slice of the Observer the dispatcher calls.
type ObserverAgent interface {
	Observe(ctx context.Context, in agents.ObserveInput) (*types.ObserverOutput, error)
}

// SignificanceDetector decides whether a logged entry warrants an
// observer pass. Routine entries do not.
type SignificanceDetector interface {
	Significant(entry types.Entry) bool
}

// KeywordSignificance flags entries whose raw text mentions a milestone
// or safety marker. It is the default detector.
type KeywordSignificance struct {
	Keywords []string
}

// DefaultSignificanceKeywords is the detector word list used when none is
// configured.
var DefaultSignificanceKeywords = []string{
	"pr", "personal record", "personal best", "first time", "finally",
	"injury", "injured", "pain", "hurt", "milestone", "goal",
}

// Significant reports whether the entry's text contains any keyword.
func (k *KeywordSignificance) Significant(entry types.Entry) bool {
	words := k.Keywords
	if len(words) == 0 {
		words = DefaultSignificanceKeywords
	}
	text := strings.ToLower(entry.RawText)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// Dispatcher runs observer passes asynchronously. A trigger never blocks
// the session that raised it and never touches session state; the only
// thing an observer pass may write is the user's global context.
// Triggers for the same user are serialized so concurrent passes cannot
// clobber each other's context rewrite.
type Dispatcher struct {
	agent ObserverAgent
	store GlobalContextStore

	group *errgroup.Group

	mu      sync.Mutex
	userMus map[string]*sync.Mutex
}

// NewDispatcher creates a Dispatcher over the observer agent and the
// global context store.
func NewDispatcher(agent ObserverAgent, store GlobalContextStore) *Dispatcher {
	g := &errgroup.Group{}
	g.SetLimit(4)
	return &Dispatcher{
		agent:   agent,
		store:   store,
		group:   g,
		userMus: make(map[string]*sync.Mutex),
	}
}

// Dispatch queues one trigger, fire-and-forget. The pass runs detached
// from the caller's cancellation: an answered query should still get its
// observation even if the caller returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, t Trigger) {
	bg := context.WithoutCancel(ctx)
	d.group.Go(func() error {
		d.handle(bg, t)
		return nil
	})
}

// Wait drains all in-flight observer passes. Callers use it on shutdown.
func (d *Dispatcher) Wait() {
	_ = d.group.Wait()
}

// handle runs one observer pass. Failures are logged and dropped; an
// observer error must never surface to the session that raised the
// trigger.
func (d *Dispatcher) handle(ctx context.Context, t Trigger) {
	mu := d.userMutex(t.UserID)
	mu.Lock()
	defer mu.Unlock()

	current, err := d.store.GetGlobalContext(t.UserID)
	if err != nil {
		logging.Get(logging.CategoryObserver).Error("context load for %s failed: %v", t.UserID, err)
		return
	}

	out, err := d.agent.Observe(ctx, agents.ObserveInput{
		Trigger:        string(t.Kind),
		TriggerContext: t.Context,
		CurrentContext: current,
		Guidance:       t.Guidance,
	})
	if err != nil {
		logging.Get(logging.CategoryObserver).Error("observe %s for %s failed: %v", t.Kind, t.UserID, err)
		return
	}
	if !out.ShouldUpdate {
		logging.ObserverDebug("%s for %s: no context change", t.Kind, t.UserID)
		return
	}

	if err := d.store.UpdateGlobalContext(t.UserID, out.UpdatedContext); err != nil {
		logging.Get(logging.CategoryObserver).Error("context update for %s failed: %v", t.UserID, err)
		return
	}
	logging.Observer("%s for %s: context updated (%d insight(s))",
		t.Kind, t.UserID, len(out.InsightsCaptured))
}

func (d *Dispatcher) userMutex(userID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	mu, ok := d.userMus[userID]
	if !ok {
		mu = &sync.Mutex{}
		d.userMus[userID] = mu
	}
	return mu
}
