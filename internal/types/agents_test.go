package types

import "testing"

func TestRouterOutputValidate(t *testing.T) {
	cases := []struct {
		name    string
		out     RouterOutput
		wantErr bool
	}{
		{"query ok", RouterOutput{InputType: InputQuery}, false},
		{"unknown type", RouterOutput{InputType: "greeting"}, true},
		{"both with portions", RouterOutput{InputType: InputBoth, LogPortion: "l", QueryPortion: "q"}, false},
		{"both missing log", RouterOutput{InputType: InputBoth, QueryPortion: "q"}, true},
		{"both missing query", RouterOutput{InputType: InputBoth, LogPortion: "l"}, true},
		{"correction with target", RouterOutput{InputType: InputCorrection, CorrectionTarget: "yesterday"}, false},
		{"correction without target", RouterOutput{InputType: InputCorrection}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.out.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestPlannerOutputValidate(t *testing.T) {
	if err := (&PlannerOutput{NextAction: ActionRetrieve}).Validate(); err == nil {
		t.Error("retrieve without strategies accepted")
	}
	if err := (&PlannerOutput{NextAction: ActionExpandDomain}).Validate(); err == nil {
		t.Error("expand without request accepted")
	}
	ok := &PlannerOutput{NextAction: ActionRetrieve, RetrievalStrategies: []RetrievalStrategy{{Kind: "recent"}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid output rejected: %v", err)
	}
}

func TestEvaluatorOutputPassedStrictAnd(t *testing.T) {
	all := &EvaluatorOutput{Dimensions: []EvaluationDimension{
		{Name: DimensionAccuracy, Passed: true},
		{Name: DimensionRelevance, Passed: true},
		{Name: DimensionSafety, Passed: true},
		{Name: DimensionCompleteness, Passed: true},
	}}
	if !all.Passed() {
		t.Error("all-pass evaluation did not pass")
	}

	// One failing dimension fails the whole evaluation even if the model
	// claims an overall pass.
	one := &EvaluatorOutput{OverallVerdict: "pass", Dimensions: []EvaluationDimension{
		{Name: DimensionAccuracy, Passed: true},
		{Name: DimensionRelevance, Passed: true},
		{Name: DimensionSafety, Passed: false},
		{Name: DimensionCompleteness, Passed: true},
	}}
	if one.Passed() {
		t.Error("evaluation passed with a failing dimension")
	}

	if (&EvaluatorOutput{}).Passed() {
		t.Error("evaluation with no dimensions passed")
	}
}

func TestGapUserResolvable(t *testing.T) {
	if !(Gap{Type: GapSubjective}).UserResolvable() || !(Gap{Type: GapClarification}).UserResolvable() {
		t.Error("subjective/clarification gaps should be user-resolvable")
	}
	for _, gt := range []GapType{GapTemporal, GapTopical, GapContextual} {
		if (Gap{Type: gt}).UserResolvable() {
			t.Errorf("%s gap should not be user-resolvable", gt)
		}
	}
}
