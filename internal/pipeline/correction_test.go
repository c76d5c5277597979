package pipeline

import "testing"

func TestNewCorrectionResultEnforcesPairing(t *testing.T) {
	if _, err := NewCorrectionResult(CorrectionResult{Success: true}); err == nil {
		t.Error("success without a target entry id accepted")
	}
	if _, err := NewCorrectionResult(CorrectionResult{Success: false}); err == nil {
		t.Error("failure without an error message accepted")
	}

	ok, err := NewCorrectionResult(CorrectionResult{Success: true, TargetEntryID: "2026-08-29_07-00-00", CorrectionEntryID: "2026-08-30_09-15-00"})
	if err != nil {
		t.Fatalf("valid success rejected: %v", err)
	}
	if !ok.Success || ok.TargetEntryID == "" {
		t.Errorf("result = %+v", ok)
	}

	if _, err := NewCorrectionResult(CorrectionResult{Error: "entry does not exist"}); err != nil {
		t.Errorf("valid failure rejected: %v", err)
	}
}
