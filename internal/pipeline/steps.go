package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fitcoach/internal/agents"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"
	"fitcoach/internal/types"
)

// stepPlan asks the Planner for the next action and routes on it.
func (m *Machine) stepPlan(ctx context.Context, sess *session.SessionState) error {
	var feedback string
	if sess.Analysis != nil {
		feedback = sess.Analysis.VerdictReasoning
	}

	out, err := m.planner.Plan(ctx, agents.PlanInput{
		Query:            sess.Query,
		DomainContext:    sess.ActiveDomainContext,
		Feedback:         feedback,
		RetrievalHistory: sess.RetrievalHistory,
	})
	if err != nil {
		return err
	}
	sess.PlannerOutput = out

	next, err := routeAfterPlan(out.NextAction)
	if err != nil {
		return err
	}
	if next == session.StateExpandDomain {
		sess.DomainExpansionRequest = out.DomainExpansionRequest
	}
	logging.Pipeline("session %s: planner chose %s", sess.ID, out.NextAction)
	sess.Transition(next)
	return nil
}

// stepRetrieve executes every planned strategy, appending each attempt
// and its entries to the session history.
func (m *Machine) stepRetrieve(ctx context.Context, sess *session.SessionState) error {
	if sess.PlannerOutput == nil || len(sess.PlannerOutput.RetrievalStrategies) == 0 {
		return fmt.Errorf("retrieve state reached without strategies")
	}

	for _, strategy := range sess.PlannerOutput.RetrievalStrategies {
		out, err := m.retriever.Retrieve(ctx, strategy)
		if err != nil {
			return err
		}
		sess.AppendRetrieval(types.RetrievalAttempt{
			Strategy:   strategy,
			Summary:    out.Summary,
			EntryCount: len(out.Entries),
			Timestamp:  time.Now(),
		}, out.Entries)
	}

	sess.Transition(session.StateAnalyze)
	return nil
}

// stepAnalyze judges the accumulated evidence and routes on the verdict.
func (m *Machine) stepAnalyze(ctx context.Context, sess *session.SessionState) error {
	out, err := m.analyzer.Analyze(ctx, agents.AnalyzeInput{
		Query:            sess.Query,
		Entries:          sess.RetrievedEntries,
		RetrievalSummary: retrievalSummary(sess),
		DomainContext:    sess.ActiveDomainContext,
		GlobalContext:    m.globalContext(),
		UserResponses:    sess.UserResponses,
	})
	if err != nil {
		return err
	}
	sess.Analysis = out
	sess.Gaps = out.Gaps()

	next := routeAfterAnalyze(sess)
	if next == session.StateExpandDomain {
		sess.DomainExpansionRequest = expansionCandidates(sess)
	}
	logging.Pipeline("session %s: verdict=%s gaps=%d next=%s",
		sess.ID, out.Verdict, len(sess.Gaps), next)
	sess.Transition(next)
	return nil
}

// stepExpandDomain grows the active context with the requested domains.
// Names already tried this session and names with no registered config
// are dropped from the request. When nothing survives the filter the
// session is marked partial and falls through toward an answer; the
// expansion history guarantees the same request can never loop. A
// successful expansion rebuilds the context as a superset from the
// registry and returns to planning.
func (m *Machine) stepExpandDomain(sess *session.SessionState) error {
	request := sess.DomainExpansionRequest
	sess.DomainExpansionRequest = nil

	var added []string
	for _, name := range request {
		switch {
		case sess.InExpansionHistory(name):
			logging.DomainsDebug("session %s: domain %q already tried", sess.ID, name)
		case sess.ActiveDomainContext != nil && sess.ActiveDomainContext.Loaded(name):
			logging.DomainsDebug("session %s: domain %q already loaded", sess.ID, name)
		case !m.registry.Has(name):
			logging.Domains("session %s: no config for requested domain %q", sess.ID, name)
		default:
			added = append(added, name)
		}
	}

	if len(added) > 0 {
		sess.RecordExpansion(added)

		var selected []string
		if sess.ActiveDomainContext != nil {
			selected = append(selected, sess.ActiveDomainContext.DomainsLoaded...)
		}
		selected = append(selected, added...)
		sess.ActiveDomainContext = m.registry.BuildActiveContext(selected)
		logging.Domains("session %s: expanded with %v, now %v",
			sess.ID, added, sess.ActiveDomainContext.DomainsLoaded)
	} else {
		sess.IsPartial = true
		logging.Domains("session %s: expansion request %v yielded nothing, answer will be partial",
			sess.ID, request)
	}

	sess.Transition(routeAfterExpand(sess, len(added)))
	return nil
}

// stepClarify generates questions for the user and suspends the session.
// The questions are snapshotted on the state so the resume side can
// present them without re-running the Clarifier.
func (m *Machine) stepClarify(ctx context.Context, sess *session.SessionState) error {
	var previous []types.ClarificationQuestion
	if sess.Clarification != nil {
		previous = sess.Clarification.Questions
	}

	out, err := m.clarifier.Clarify(ctx, agents.ClarifyInput{
		Gaps:                   askableGaps(sess),
		Vocabulary:             sess.ActiveDomainContext.Vocabulary,
		RetrievalHistory:       sess.RetrievalHistory,
		PreviousClarifications: previous,
		ClarificationPatterns:  sess.ActiveDomainContext.ClarificationPatterns,
	})
	if err != nil {
		return err
	}

	sess.ClarifierOutput = out
	sess.Clarification = &session.ClarificationSnapshot{
		Questions:          out.Questions,
		ContextExplanation: out.ContextExplanation,
		FallbackAction:     out.FallbackAction,
	}
	sess.WaitingForUser = true
	sess.Transition(session.StateWaitUser)
	logging.Session("session %s: suspended with %d question(s)", sess.ID, len(out.Questions))
	return nil
}

// stepSynthesize drafts a response from the current analysis.
func (m *Machine) stepSynthesize(ctx context.Context, sess *session.SessionState) error {
	var vocab map[string]string
	if sess.ActiveDomainContext != nil {
		vocab = sess.ActiveDomainContext.Vocabulary
	}

	var unanswered []types.Gap
	if sess.IsPartial {
		unanswered = askableGaps(sess)
		unanswered = append(unanswered, nonAskableGaps(sess)...)
	}

	out, err := m.synthesizer.Synthesize(ctx, agents.SynthesizeInput{
		Query:            sess.Query,
		Analysis:         sess.Analysis,
		Vocabulary:       vocab,
		ResponseStyle:    m.cfg.ResponseStyle,
		IsPartial:        sess.IsPartial,
		UnansweredGaps:   unanswered,
		PreviousFeedback: sess.EvaluationFeedback,
	})
	if err != nil {
		return err
	}
	sess.DraftResponse = out.Response
	sess.Transition(session.StateEvaluate)
	return nil
}

// stepEvaluate scores the draft. All four dimensions must pass. A failure
// within the retry budget returns to synthesis with the accumulated
// feedback; an exhausted budget ships the last draft, flagged.
func (m *Machine) stepEvaluate(ctx context.Context, sess *session.SessionState) error {
	var rules []string
	if sess.ActiveDomainContext != nil {
		rules = sess.ActiveDomainContext.EvaluationRules
	}

	out, err := m.evaluator.Evaluate(ctx, agents.EvaluateInput{
		Query:            sess.Query,
		Response:         sess.DraftResponse,
		Analysis:         sess.Analysis,
		EntriesSummary:   retrievalSummary(sess),
		Rules:            rules,
		PreviousFeedback: sess.EvaluationFeedback,
		AttemptNumber:    sess.RetryCount + 1,
	})
	if err != nil {
		return err
	}
	sess.Evaluation = out

	if out.Passed() {
		logging.Pipeline("session %s: evaluation passed on attempt %d", sess.ID, sess.RetryCount+1)
		sess.Finish(sess.DraftResponse)
		return nil
	}

	sess.EvaluationFeedback = append(sess.EvaluationFeedback, out.Feedback...)

	if sess.CanRetry() {
		sess.RetryCount++
		logging.Pipeline("session %s: evaluation failed, retry %d/%d",
			sess.ID, sess.RetryCount, sess.MaxRetries)
		sess.Transition(session.StateSynthesize)
		return nil
	}

	logging.Pipeline("session %s: evaluation failed with retries exhausted, shipping last draft", sess.ID)
	sess.RetriesExhausted = true
	sess.Finish(sess.DraftResponse)
	return nil
}

// retrievalSummary joins the per-attempt summaries for prompt context.
func retrievalSummary(sess *session.SessionState) string {
	if len(sess.RetrievalHistory) == 0 {
		return "no retrievals executed"
	}
	parts := make([]string, len(sess.RetrievalHistory))
	for i, attempt := range sess.RetrievalHistory {
		parts[i] = attempt.Summary
	}
	return strings.Join(parts, "; ")
}

// nonAskableGaps lists gaps the user cannot resolve; a partial answer
// acknowledges these too.
func nonAskableGaps(sess *session.SessionState) []types.Gap {
	var out []types.Gap
	for _, g := range sess.Gaps {
		if !g.UserResolvable() {
			out = append(out, g)
		}
	}
	return out
}
