package pipeline

import (
	"context"
	"fmt"

	"fitcoach/internal/logging"
	"fitcoach/internal/session"
)

// Resume continues a suspended session with the user's answers. The
// session is reconstructed entirely from its stored snapshot; nothing
// about the suspended run survives in memory. Declining always means no
// information was given: any responses sent alongside a decline are
// dropped, and the machine synthesizes from what it already has instead
// of asking again.
func (m *Machine) Resume(ctx context.Context, sessionID string, in session.ResumeInput) (*Result, error) {
	data, err := m.sessions.LoadSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	sess, err := session.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	if sess.Complete {
		return nil, fmt.Errorf("session %s is already complete", sessionID)
	}
	if !sess.WaitingForUser {
		return nil, fmt.Errorf("session %s is not waiting for user input", sessionID)
	}

	if in.Declined {
		in.Responses = nil
	}
	if len(in.Responses) > 0 {
		if sess.UserResponses == nil {
			sess.UserResponses = make(map[string]string)
		}
		for gapID, answer := range in.Responses {
			sess.UserResponses[gapID] = answer
		}
	}

	sess.WaitingForUser = false
	sess.Transition(session.StateWaitUserDone)

	next := routeAfterWaitUser(in)
	logging.Session("session %s: resumed with %d answer(s), declined=%v, next=%s",
		sess.ID, len(in.Responses), in.Declined, next)
	sess.Transition(next)

	if err := m.run(ctx, sess); err != nil {
		_ = m.persist(sess)
		return nil, err
	}

	result := &Result{SessionID: sess.ID, InputType: sess.InputType}
	m.fillResult(result, sess)
	if sess.Complete {
		m.dispatch(ctx, TriggerPostQuery, sess,
			fmt.Sprintf("Query: %s\nAnswer: %s", sess.Query, sess.FinalResponse))
	}
	return result, nil
}
