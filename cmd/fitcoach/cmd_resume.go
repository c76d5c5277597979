package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fitcoach/internal/session"
)

var resumeDecline bool

var resumeCmd = &cobra.Command{
	Use:   "resume [session-id]",
	Short: "Resume a suspended session",
	Long: `Re-presents the clarification questions of a suspended session, reads
your answers, and continues the pipeline. Use --decline to continue without
answering; the assistant then answers from what it already has.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().BoolVar(&resumeDecline, "decline", false, "Continue without answering the questions")
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	sessionID := args[0]

	var in session.ResumeInput
	if resumeDecline {
		in.Declined = true
	} else {
		// Re-present the stored questions before reading answers.
		data, err := a.store.LoadSession(sessionID)
		if err != nil {
			return err
		}
		sess, err := session.Unmarshal(data)
		if err != nil {
			return err
		}
		if !sess.WaitingForUser || sess.Clarification == nil {
			return fmt.Errorf("session %s is not waiting for answers", sessionID)
		}

		if sess.Clarification.ContextExplanation != "" {
			fmt.Println(noticeStyle.Render(sess.Clarification.ContextExplanation))
		}
		for i, q := range sess.Clarification.Questions {
			fmt.Println(questionStyle.Render(fmt.Sprintf("%d. %s", i+1, q.Question)))
		}

		in, err = readAnswers(bufio.NewReader(os.Stdin), sess.Clarification.Questions)
		if err != nil {
			return err
		}
	}

	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := a.machine.Resume(turnCtx, sessionID, in)
	if err != nil {
		return err
	}
	printResult(res)
	if res.WaitingForUser {
		fmt.Println(noticeStyle.Render(fmt.Sprintf("Still suspended. Answer with: fitcoach resume %s", res.SessionID)))
	}
	return nil
}
