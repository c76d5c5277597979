package session

import (
	"testing"
	"time"

	"fitcoach/internal/types"
)

func TestNewStartsAtRoute(t *testing.T) {
	s := New("hello")
	if s.CurrentState != StateRoute {
		t.Errorf("CurrentState = %s, want %s", s.CurrentState, StateRoute)
	}
	if s.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", s.MaxRetries, DefaultMaxRetries)
	}
	if s.ID == "" {
		t.Error("ID not assigned")
	}
}

func TestAppendRetrievalDeduplicatesEntries(t *testing.T) {
	s := New("q")
	attempt := types.RetrievalAttempt{Summary: "first", Timestamp: time.Now()}

	s.AppendRetrieval(attempt, []types.Entry{{ID: "e1"}, {ID: "e2"}})
	s.AppendRetrieval(attempt, []types.Entry{{ID: "e2"}, {ID: "e3"}})

	if len(s.RetrievalHistory) != 2 {
		t.Errorf("RetrievalHistory len = %d, want 2", len(s.RetrievalHistory))
	}
	if len(s.RetrievedEntries) != 3 {
		t.Fatalf("RetrievedEntries len = %d, want 3", len(s.RetrievedEntries))
	}
	want := []string{"e1", "e2", "e3"}
	for i, e := range s.RetrievedEntries {
		if e.ID != want[i] {
			t.Errorf("entry %d = %s, want %s", i, e.ID, want[i])
		}
	}
}

func TestRecordExpansionNeverDuplicates(t *testing.T) {
	s := New("q")
	s.RecordExpansion([]string{"nutrition", "running"})
	s.RecordExpansion([]string{"nutrition", "mobility"})

	if len(s.DomainExpansionHistory) != 3 {
		t.Errorf("history = %v, want 3 unique names", s.DomainExpansionHistory)
	}
	if !s.InExpansionHistory("mobility") {
		t.Error("mobility missing from history")
	}
	if s.InExpansionHistory("swimming") {
		t.Error("swimming unexpectedly in history")
	}
}

func TestCanRetry(t *testing.T) {
	s := New("q")
	s.MaxRetries = 2

	for i := 0; i < 2; i++ {
		if !s.CanRetry() {
			t.Fatalf("CanRetry() = false at retry %d", i)
		}
		s.RetryCount++
	}
	if s.CanRetry() {
		t.Error("CanRetry() = true after exhausting the budget")
	}
}

func TestFinish(t *testing.T) {
	s := New("q")
	s.Finish("all done")

	if !s.Complete {
		t.Error("Complete = false")
	}
	if s.CurrentState != StateDone {
		t.Errorf("CurrentState = %s, want %s", s.CurrentState, StateDone)
	}
	if s.FinalResponse != "all done" {
		t.Errorf("FinalResponse = %q", s.FinalResponse)
	}
}

func TestMarshalRoundtripPreservesSuspension(t *testing.T) {
	s := New("how is my squat going?")
	s.Query = "how is my squat going?"
	s.InputType = types.InputQuery
	s.Gaps = []types.Gap{{ID: "g1", Type: types.GapSubjective, Severity: types.SeverityCritical}}
	s.Clarification = &ClarificationSnapshot{
		Questions:      []types.ClarificationQuestion{{GapID: "g1", Question: "How did it feel?"}},
		FallbackAction: "answer from logs only",
	}
	s.WaitingForUser = true
	s.CurrentState = StateWaitUser
	s.RetryCount = 1
	s.EvaluationFeedback = []types.EvaluatorFeedback{{Issue: "vague"}}
	s.DomainExpansionHistory = []string{"nutrition"}
	s.IsPartial = true

	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ID != s.ID || got.Query != s.Query {
		t.Error("identity fields lost in roundtrip")
	}
	if !got.WaitingForUser || got.CurrentState != StateWaitUser {
		t.Error("suspension state lost in roundtrip")
	}
	if got.Clarification == nil || len(got.Clarification.Questions) != 1 {
		t.Fatal("clarification snapshot lost in roundtrip")
	}
	if got.Clarification.Questions[0].GapID != "g1" {
		t.Error("question gap id lost in roundtrip")
	}
	if got.RetryCount != 1 || len(got.EvaluationFeedback) != 1 {
		t.Error("retry bookkeeping lost in roundtrip")
	}
	if !got.InExpansionHistory("nutrition") || !got.IsPartial {
		t.Error("expansion state lost in roundtrip")
	}
}

func TestUnmarshalDefaultsMaxRetries(t *testing.T) {
	got, err := Unmarshal([]byte(`{"id":"s1","current_state":"plan"}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.MaxRetries != DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", got.MaxRetries, DefaultMaxRetries)
	}
}
