package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fitcoach/internal/types"
)

func TestClarifyOnlyAsksUserResolvableGaps(t *testing.T) {
	client := &stubLLM{response: `{"questions": [{"gap_id": "g2", "question": "How did it feel?"}], "fallback_action": "answer from logs"}`}
	c := NewClarifier(client)

	out, err := c.Clarify(context.Background(), ClarifyInput{
		Gaps: []types.Gap{
			{ID: "g1", Type: types.GapTemporal, Description: "missing last month"},
			{ID: "g2", Type: types.GapSubjective, Description: "perceived effort unknown"},
		},
	})
	if err != nil {
		t.Fatalf("Clarify: %v", err)
	}
	if len(out.Questions) != 1 {
		t.Fatalf("questions = %v", out.Questions)
	}
	// The temporal gap never reaches the prompt; it is not the user's to fix.
	if strings.Contains(client.gotUser, "g1") {
		t.Error("non-resolvable gap leaked into the prompt")
	}
	if !strings.Contains(client.gotUser, "g2") {
		t.Error("resolvable gap missing from the prompt")
	}
}

func TestClarifyFailsWithNoResolvableGaps(t *testing.T) {
	c := NewClarifier(&stubLLM{response: `{}`})

	_, err := c.Clarify(context.Background(), ClarifyInput{
		Gaps: []types.Gap{{ID: "g1", Type: types.GapTemporal}},
	})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestClarifyClampsQuestionCount(t *testing.T) {
	client := &stubLLM{response: `{"questions": [
		{"gap_id": "g1", "question": "a?"}, {"gap_id": "g1", "question": "b?"},
		{"gap_id": "g1", "question": "c?"}, {"gap_id": "g1", "question": "d?"}]}`}
	c := NewClarifier(client)

	out, err := c.Clarify(context.Background(), ClarifyInput{
		Gaps: []types.Gap{{ID: "g1", Type: types.GapClarification}},
	})
	if err != nil {
		t.Fatalf("Clarify: %v", err)
	}
	if len(out.Questions) != MaxClarificationQuestions {
		t.Errorf("questions = %d, want %d", len(out.Questions), MaxClarificationQuestions)
	}
}
