package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session",
	Long: `Starts an interactive session. Type log entries or questions; when the
assistant needs clarification it asks inline and resumes with your answers.
Type 'exit' or press Ctrl-D to leave.`,
	RunE: runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Process a single message and exit",
	Long: `Sends one message through the pipeline. If the assistant needs to ask
you something, the session is suspended and its questions printed; answer
later with 'fitcoach resume <session-id>'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Println(noticeStyle.Render("fitcoach ready. Log something or ask a question; 'exit' to quit."))
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print(promptStyle.Render("you> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		turnCtx, cancel := context.WithTimeout(ctx, timeout)
		res, err := a.machine.Process(turnCtx, input)
		cancel()
		if err != nil {
			fmt.Println(errorStyle.Render("error: " + err.Error()))
			continue
		}

		// Resume inline until the turn no longer needs the user.
		for res.WaitingForUser {
			printResult(res)
			in, err := readAnswers(reader, res.Questions)
			if err != nil {
				return err
			}
			turnCtx, cancel := context.WithTimeout(ctx, timeout)
			res, err = a.machine.Resume(turnCtx, res.SessionID, in)
			cancel()
			if err != nil {
				fmt.Println(errorStyle.Render("error: " + err.Error()))
				break
			}
		}
		if res != nil && !res.WaitingForUser {
			printResult(res)
		}
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	turnCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := a.machine.Process(turnCtx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	printResult(res)
	if res.WaitingForUser {
		fmt.Println(noticeStyle.Render(fmt.Sprintf("Session suspended. Answer with: fitcoach resume %s", res.SessionID)))
	}
	return nil
}
