package pipeline

import (
	"testing"

	"fitcoach/internal/session"
	"fitcoach/internal/types"
)

func TestRouteAfterPlan(t *testing.T) {
	cases := []struct {
		action types.NextAction
		want   session.State
	}{
		{types.ActionRetrieve, session.StateRetrieve},
		{types.ActionClarify, session.StateClarify},
		{types.ActionSynthesize, session.StateSynthesize},
		{types.ActionExpandDomain, session.StateExpandDomain},
	}
	for _, tc := range cases {
		got, err := routeAfterPlan(tc.action)
		if err != nil {
			t.Fatalf("routeAfterPlan(%s): %v", tc.action, err)
		}
		if got != tc.want {
			t.Errorf("routeAfterPlan(%s) = %s, want %s", tc.action, got, tc.want)
		}
	}

	if _, err := routeAfterPlan("teleport"); err == nil {
		t.Error("unknown action accepted")
	}
}

func sessWithAnalysis(verdict types.Verdict, gaps ...types.Gap) *session.SessionState {
	s := session.New("q")
	s.Analysis = &types.AnalyzerOutput{Verdict: verdict}
	s.Gaps = gaps
	return s
}

func TestRouteAfterAnalyze(t *testing.T) {
	expertiseGap := types.Gap{ID: "g1", Type: types.GapTopical, OutsideCurrentExpertise: true, SuspectedDomain: "nutrition"}
	subjectiveGap := types.Gap{ID: "g2", Type: types.GapSubjective}
	temporalGap := types.Gap{ID: "g3", Type: types.GapTemporal}

	cases := []struct {
		name string
		sess *session.SessionState
		want session.State
	}{
		{"sufficient goes straight to synthesis", sessWithAnalysis(types.VerdictSufficient, subjectiveGap), session.StateSynthesize},
		{"expertise gap expands first", sessWithAnalysis(types.VerdictInsufficient, expertiseGap, subjectiveGap), session.StateExpandDomain},
		{"expertise gap expands even when sufficient", sessWithAnalysis(types.VerdictSufficient, expertiseGap), session.StateExpandDomain},
		{"insufficient with user-resolvable gap still replans", sessWithAnalysis(types.VerdictInsufficient, subjectiveGap), session.StatePlan},
		{"insufficient with retrievable gaps replans", sessWithAnalysis(types.VerdictInsufficient, temporalGap), session.StatePlan},
		{"partial replans", sessWithAnalysis(types.VerdictPartial, temporalGap), session.StatePlan},
		{"partial without gaps replans", sessWithAnalysis(types.VerdictPartial), session.StatePlan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := routeAfterAnalyze(tc.sess); got != tc.want {
				t.Errorf("routeAfterAnalyze = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRouteAfterAnalyze_ExpansionHistoryBlocksRetry(t *testing.T) {
	gap := types.Gap{ID: "g1", Type: types.GapTopical, OutsideCurrentExpertise: true, SuspectedDomain: "nutrition"}
	s := sessWithAnalysis(types.VerdictInsufficient, gap)
	s.RecordExpansion([]string{"nutrition"})

	// Already-tried domains are not candidates, so the insufficient
	// verdict replans instead of looping through expansion.
	if got := routeAfterAnalyze(s); got != session.StatePlan {
		t.Errorf("routeAfterAnalyze = %s, want %s", got, session.StatePlan)
	}
}

func TestRouteAfterExpand_AnsweredGapsNotReAsked(t *testing.T) {
	s := session.New("q")
	s.Gaps = []types.Gap{{ID: "g2", Type: types.GapSubjective}}
	s.UserResponses = map[string]string{"g2": "felt heavy"}

	// A failed expansion only falls through to the user for gaps the
	// user has not already answered.
	if got := routeAfterExpand(s, 0); got != session.StateSynthesize {
		t.Errorf("routeAfterExpand = %s, want %s", got, session.StateSynthesize)
	}
}

func TestRouteAfterExpand(t *testing.T) {
	subjective := types.Gap{ID: "g1", Type: types.GapSubjective}
	temporal := types.Gap{ID: "g2", Type: types.GapTemporal}

	s := session.New("q")
	s.Gaps = []types.Gap{subjective}
	if got := routeAfterExpand(s, 2); got != session.StatePlan {
		t.Errorf("added>0: got %s, want %s", got, session.StatePlan)
	}
	if got := routeAfterExpand(s, 0); got != session.StateClarify {
		t.Errorf("added=0 with askable gap: got %s, want %s", got, session.StateClarify)
	}

	s.Gaps = []types.Gap{temporal}
	if got := routeAfterExpand(s, 0); got != session.StateSynthesize {
		t.Errorf("added=0 without askable gap: got %s, want %s", got, session.StateSynthesize)
	}
}

func TestRouteAfterWaitUser(t *testing.T) {
	if got := routeAfterWaitUser(session.ResumeInput{Responses: map[string]string{"g1": "yes"}}); got != session.StateAnalyze {
		t.Errorf("answered: got %s, want %s", got, session.StateAnalyze)
	}
	if got := routeAfterWaitUser(session.ResumeInput{Declined: true}); got != session.StateSynthesize {
		t.Errorf("declined: got %s, want %s", got, session.StateSynthesize)
	}
	// No answers means the same as declining.
	if got := routeAfterWaitUser(session.ResumeInput{}); got != session.StateSynthesize {
		t.Errorf("empty: got %s, want %s", got, session.StateSynthesize)
	}
}

func TestExpansionCandidatesDeduplicates(t *testing.T) {
	s := session.New("q")
	s.Gaps = []types.Gap{
		{ID: "g1", OutsideCurrentExpertise: true, SuspectedDomain: "nutrition"},
		{ID: "g2", OutsideCurrentExpertise: true, SuspectedDomain: "nutrition"},
		{ID: "g3", OutsideCurrentExpertise: true}, // no suspected domain
		{ID: "g4", SuspectedDomain: "running"},    // inside expertise
	}

	got := expansionCandidates(s)
	if len(got) != 1 || got[0] != "nutrition" {
		t.Errorf("candidates = %v, want [nutrition]", got)
	}
}
