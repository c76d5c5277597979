package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fitcoach/internal/agents"
	"fitcoach/internal/logging"
	"fitcoach/internal/session"
	"fitcoach/internal/types"
)

// Result is what one processed (or resumed) turn hands back to the
// caller. Exactly one of the terminal shapes applies: a final response, a
// suspended clarification, or a log/correction acknowledgement.
type Result struct {
	SessionID string          `json:"session_id"`
	InputType types.InputType `json:"input_type"`

	Response string `json:"response,omitempty"`

	// Suspension: the machine stopped to ask the user something. Answer
	// or decline via Resume with the same session id.
	WaitingForUser     bool                          `json:"waiting_for_user,omitempty"`
	Questions          []types.ClarificationQuestion `json:"questions,omitempty"`
	ContextExplanation string                        `json:"context_explanation,omitempty"`
	FallbackAction     string                        `json:"fallback_action,omitempty"`

	EntrySaved *types.Entry      `json:"entry_saved,omitempty"`
	Correction *CorrectionResult `json:"correction,omitempty"`

	IsPartial        bool `json:"is_partial,omitempty"`
	RetriesExhausted bool `json:"retries_exhausted,omitempty"`
}

// Process runs one raw user input through the pipeline. Logs and
// corrections are handled directly without entering the state machine;
// queries run the machine until completion or suspension. A "both" input
// saves its log portion first, then runs the query portion, so the query
// can retrieve the entry it arrived with.
func (m *Machine) Process(ctx context.Context, rawInput string) (*Result, error) {
	sess := session.New(rawInput)
	sess.MaxRetries = m.cfg.MaxRetries

	routed, err := m.router.Route(ctx, rawInput, m.registry.Infos(), m.globalContext())
	if err != nil {
		return nil, err
	}
	sess.InputType = routed.InputType
	sess.QueryType = routed.QueryType
	sess.ActiveDomainContext = m.registry.BuildActiveContext(routed.SelectedDomains)
	logging.Router("session %s: input=%s domains=%v confidence=%.2f",
		sess.ID, routed.InputType, routed.SelectedDomains, routed.Confidence)

	result := &Result{SessionID: sess.ID, InputType: routed.InputType}

	switch routed.InputType {
	case types.InputLog:
		entry, err := m.runLog(ctx, sess, rawInput)
		if err != nil {
			return nil, err
		}
		result.EntrySaved = entry
		result.Response = logConfirmation(entry)
		sess.Finish(result.Response)
		if err := m.persist(sess); err != nil {
			return nil, err
		}
		return result, nil

	case types.InputCorrection:
		cr, err := m.runCorrection(ctx, sess, routed.CorrectionTarget)
		if err != nil {
			return nil, err
		}
		result.Correction = cr
		if cr.Success {
			result.Response = cr.Message
			m.dispatch(ctx, TriggerUserCorrection, sess,
				fmt.Sprintf("User corrected entry %s: %s", cr.TargetEntryID, rawInput))
		} else {
			result.Response = cr.Error
		}
		sess.Finish(result.Response)
		if err := m.persist(sess); err != nil {
			return nil, err
		}
		return result, nil

	case types.InputBoth:
		entry, err := m.runLog(ctx, sess, routed.LogPortion)
		if err != nil {
			return nil, err
		}
		result.EntrySaved = entry
		sess.Query = routed.QueryPortion

	case types.InputQuery:
		sess.Query = rawInput
		if routed.QueryPortion != "" {
			sess.Query = routed.QueryPortion
		}
	}

	sess.Transition(session.StatePlan)
	if err := m.run(ctx, sess); err != nil {
		// Keep the snapshot so the failure is inspectable.
		_ = m.persist(sess)
		return nil, err
	}

	m.fillResult(result, sess)
	if sess.Complete {
		m.dispatch(ctx, TriggerPostQuery, sess,
			fmt.Sprintf("Query: %s\nAnswer: %s", sess.Query, sess.FinalResponse))
	}
	return result, nil
}

// runLog parses free-text log input and stores it as an entry. When the
// entry looks significant the observer is triggered; routine entries are
// saved silently.
func (m *Machine) runLog(ctx context.Context, sess *session.SessionState, text string) (*types.Entry, error) {
	now := time.Now()
	parsed, err := m.parser.Parse(ctx, agents.ParseInput{
		RawInput:      text,
		Timestamp:     now,
		DomainContext: sess.ActiveDomainContext,
	})
	if err != nil {
		return nil, err
	}

	entry := types.Entry{
		ID:         types.EntryID(now),
		Date:       parsed.Date,
		Timestamp:  parsed.Timestamp,
		RawText:    text,
		DomainData: parsed.DomainData,
		Confidence: parsed.Confidence,
	}
	if err := m.entries.SaveEntry(entry, nil); err != nil {
		return nil, err
	}
	logging.Session("session %s: logged entry %s", sess.ID, entry.ID)

	if m.detector.Significant(entry) {
		data, _ := json.Marshal(entry.DomainData)
		m.dispatch(ctx, TriggerSignificantLog, sess,
			fmt.Sprintf("Logged: %s\nParsed: %s", text, data))
	}
	return &entry, nil
}

// fillResult copies the session's terminal or suspended shape onto the
// result.
func (m *Machine) fillResult(result *Result, sess *session.SessionState) {
	result.WaitingForUser = sess.WaitingForUser
	result.IsPartial = sess.IsPartial
	result.RetriesExhausted = sess.RetriesExhausted

	if sess.WaitingForUser && sess.Clarification != nil {
		result.Questions = sess.Clarification.Questions
		result.ContextExplanation = sess.Clarification.ContextExplanation
		result.FallbackAction = sess.Clarification.FallbackAction
		return
	}
	if result.EntrySaved != nil && sess.FinalResponse != "" {
		result.Response = logConfirmation(result.EntrySaved) + "\n\n" + sess.FinalResponse
		return
	}
	result.Response = sess.FinalResponse
}

// dispatch queues an observer trigger if a dispatcher is wired.
func (m *Machine) dispatch(ctx context.Context, kind TriggerKind, sess *session.SessionState, eventContext string) {
	if m.dispatcher == nil {
		return
	}
	var guidance string
	if sess.ActiveDomainContext != nil {
		guidance = sess.ActiveDomainContext.ContextGuidance
	}
	m.dispatcher.Dispatch(ctx, Trigger{
		Kind:     kind,
		UserID:   m.cfg.UserID,
		Context:  eventContext,
		Guidance: guidance,
	})
}

func logConfirmation(entry *types.Entry) string {
	return fmt.Sprintf("Logged entry %s for %s.", entry.ID, entry.Date)
}
