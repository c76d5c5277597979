package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"fitcoach/internal/agents"
	"fitcoach/internal/types"
)

type scriptObserver struct {
	mu     sync.Mutex
	outs   map[string]*types.ObserverOutput // keyed by trigger kind
	err    error
	delay  time.Duration
	inputs []agents.ObserveInput

	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *scriptObserver) Observe(ctx context.Context, in agents.ObserveInput) (*types.ObserverOutput, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if out, ok := s.outs[in.Trigger]; ok {
		return out, nil
	}
	return &types.ObserverOutput{ShouldUpdate: false}, nil
}

func TestDispatcherUpdatesContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	agent := &scriptObserver{outs: map[string]*types.ObserverOutput{
		string(TriggerPostQuery): {ShouldUpdate: true, UpdatedContext: "user asks about squats a lot"},
	}}
	global := &memGlobalStore{contexts: map[string]string{"local": "old context"}}
	d := NewDispatcher(agent, global)

	d.Dispatch(context.Background(), Trigger{Kind: TriggerPostQuery, UserID: "local", Context: "Query: ..."})
	d.Wait()

	if got := global.contexts["local"]; got != "user asks about squats a lot" {
		t.Errorf("context = %q", got)
	}
	if len(agent.inputs) != 1 || agent.inputs[0].CurrentContext != "old context" {
		t.Errorf("observer inputs = %+v", agent.inputs)
	}
}

func TestDispatcherNoUpdateIsNoOp(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	agent := &scriptObserver{}
	global := &memGlobalStore{contexts: map[string]string{"local": "unchanged"}}
	d := NewDispatcher(agent, global)

	d.Dispatch(context.Background(), Trigger{Kind: TriggerSignificantLog, UserID: "local", Context: "Logged: ..."})
	d.Wait()

	if got := global.contexts["local"]; got != "unchanged" {
		t.Errorf("context = %q, want untouched", got)
	}
}

func TestDispatcherSwallowsObserverErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	agent := &scriptObserver{err: errors.New("provider down")}
	global := &memGlobalStore{contexts: map[string]string{"local": "kept"}}
	d := NewDispatcher(agent, global)

	d.Dispatch(context.Background(), Trigger{Kind: TriggerUserCorrection, UserID: "local"})
	d.Wait()

	if got := global.contexts["local"]; got != "kept" {
		t.Errorf("context = %q, want untouched after observer failure", got)
	}
}

func TestDispatcherSerializesPerUser(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	agent := &scriptObserver{delay: 20 * time.Millisecond}
	global := &memGlobalStore{contexts: make(map[string]string)}
	d := NewDispatcher(agent, global)

	for i := 0; i < 4; i++ {
		d.Dispatch(context.Background(), Trigger{Kind: TriggerPostQuery, UserID: "local"})
	}
	d.Wait()

	if agent.overlap.Load() {
		t.Error("observer passes for the same user overlapped")
	}
	if len(agent.inputs) != 4 {
		t.Errorf("observer ran %d times, want 4", len(agent.inputs))
	}
}

func TestDispatcherSurvivesCallerCancellation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	agent := &scriptObserver{outs: map[string]*types.ObserverOutput{
		string(TriggerPostQuery): {ShouldUpdate: true, UpdatedContext: "observed"},
	}}
	global := &memGlobalStore{contexts: make(map[string]string)}
	d := NewDispatcher(agent, global)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, Trigger{Kind: TriggerPostQuery, UserID: "local"})
	cancel()
	d.Wait()

	if got := global.contexts["local"]; got != "observed" {
		t.Errorf("context = %q, want the pass to complete despite cancellation", got)
	}
}

func TestKeywordSignificance(t *testing.T) {
	det := &KeywordSignificance{}

	if !det.Significant(types.Entry{RawText: "new PR on deadlift today!"}) {
		t.Error("milestone entry not flagged")
	}
	if !det.Significant(types.Entry{RawText: "knee pain during the run"}) {
		t.Error("safety entry not flagged")
	}
	if det.Significant(types.Entry{RawText: "easy 5k, nothing special"}) {
		t.Error("routine entry flagged")
	}

	custom := &KeywordSignificance{Keywords: []string{"marathon"}}
	if custom.Significant(types.Entry{RawText: "new PR today"}) {
		t.Error("custom keyword list ignored")
	}
	if !custom.Significant(types.Entry{RawText: "signed up for a marathon"}) {
		t.Error("custom keyword not matched")
	}
}
