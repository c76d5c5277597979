package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/types"
)

func testContext() *domain.ActiveContext {
	return &domain.ActiveContext{
		DomainsLoaded: []string{"strength_training"},
		Vocabulary:    map[string]string{"squats": "back squat"},
		Schemas: map[string]map[string]string{
			"strength_training": {"exercise": "normalized exercise name"},
		},
	}
}

func TestParseDefaultsDateFromTimestamp(t *testing.T) {
	client := &stubLLM{response: `{"domain_data": {"exercise": "back squat"}, "confidence": 0.9}`}
	p := NewParser(client)

	ts := time.Date(2026, 8, 30, 7, 15, 0, 0, time.UTC)
	out, err := p.Parse(context.Background(), ParseInput{
		RawInput:      "did squats 5x5",
		Timestamp:     ts,
		DomainContext: testContext(),
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Date != "2026-08-30" {
		t.Errorf("Date = %q, want 2026-08-30", out.Date)
	}
	if !out.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", out.Timestamp, ts)
	}
}

func TestParseRejectsEmptyLogResult(t *testing.T) {
	p := NewParser(&stubLLM{response: `{"domain_data": {}, "confidence": 0.1}`})

	_, err := p.Parse(context.Background(), ParseInput{
		RawInput:      "hmm",
		Timestamp:     time.Now(),
		DomainContext: testContext(),
	})
	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestParseCorrectionModeIncludesRecentEntries(t *testing.T) {
	client := &stubLLM{response: `{"is_correction": true, "target_entry_id": "2026-08-29_07-00-00", "correction_delta": {"weight_kg": 110}}`}
	p := NewParser(client)

	out, err := p.Parse(context.Background(), ParseInput{
		RawInput:         "actually that was 110kg",
		Timestamp:        time.Now(),
		DomainContext:    testContext(),
		CorrectionMode:   true,
		CorrectionTarget: "yesterday's squats",
		RecentEntries:    []types.Entry{{ID: "2026-08-29_07-00-00", RawText: "squats 5x5 100kg"}},
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !out.IsCorrection || out.TargetEntryID != "2026-08-29_07-00-00" {
		t.Errorf("output = %+v", out)
	}
	if !strings.Contains(client.gotUser, "2026-08-29_07-00-00") {
		t.Error("recent entries missing from the prompt")
	}
	if !strings.Contains(client.gotUser, "yesterday's squats") {
		t.Error("correction hint missing from the prompt")
	}
}
