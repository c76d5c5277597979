package pipeline

import (
	"fmt"

	"fitcoach/internal/session"
	"fitcoach/internal/types"
)

// Routing decisions are pure functions over the session state, so the
// full transition table is testable without any agent or store.

// routeAfterPlan maps the Planner's action to the next state.
func routeAfterPlan(action types.NextAction) (session.State, error) {
	switch action {
	case types.ActionRetrieve:
		return session.StateRetrieve, nil
	case types.ActionClarify:
		return session.StateClarify, nil
	case types.ActionSynthesize:
		return session.StateSynthesize, nil
	case types.ActionExpandDomain:
		return session.StateExpandDomain, nil
	default:
		return "", fmt.Errorf("no transition defined for planner action %q", action)
	}
}

// routeAfterAnalyze decides where an analysis verdict leads. An
// expertise gap with an untried suspected domain expands unconditionally:
// loading the missing domain may reinterpret the same evidence, whatever
// the verdict says. With no such gap, a sufficient verdict synthesizes
// and anything less goes back to the Planner, which owns the decision to
// retrieve more, clarify, or give up.
func routeAfterAnalyze(sess *session.SessionState) session.State {
	if len(expansionCandidates(sess)) > 0 {
		return session.StateExpandDomain
	}
	if sess.Analysis.Verdict == types.VerdictSufficient {
		return session.StateSynthesize
	}
	return session.StatePlan
}

// routeAfterExpand picks the state after an expansion attempt. A grown
// context goes back to planning; a failed expansion falls through to the
// user if anything is still askable, otherwise to a partial synthesis.
func routeAfterExpand(sess *session.SessionState, added int) session.State {
	if added > 0 {
		return session.StatePlan
	}
	if len(askableGaps(sess)) > 0 {
		return session.StateClarify
	}
	return session.StateSynthesize
}

// routeAfterWaitUser decides where a resumed session continues. Answers
// feed a fresh analysis; a decline (or an empty response set, which means
// the same thing) goes straight to synthesis so the user is never asked
// twice for information they withheld.
func routeAfterWaitUser(in session.ResumeInput) session.State {
	if in.Declined || len(in.Responses) == 0 {
		return session.StateSynthesize
	}
	return session.StateAnalyze
}

// expansionCandidates lists suspected domains from gaps the loaded
// expertise cannot interpret, excluding domains already tried.
func expansionCandidates(sess *session.SessionState) []string {
	var out []string
	seen := make(map[string]bool)
	for _, g := range sess.Gaps {
		if !g.OutsideCurrentExpertise || g.SuspectedDomain == "" {
			continue
		}
		if seen[g.SuspectedDomain] || sess.InExpansionHistory(g.SuspectedDomain) {
			continue
		}
		seen[g.SuspectedDomain] = true
		out = append(out, g.SuspectedDomain)
	}
	return out
}

// askableGaps lists user-resolvable gaps the user has not answered yet.
func askableGaps(sess *session.SessionState) []types.Gap {
	var out []types.Gap
	for _, g := range sess.Gaps {
		if !g.UserResolvable() {
			continue
		}
		if _, answered := sess.UserResponses[g.ID]; answered {
			continue
		}
		out = append(out, g)
	}
	return out
}
