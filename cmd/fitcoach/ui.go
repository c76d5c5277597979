package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"fitcoach/internal/pipeline"
	"fitcoach/internal/session"
	"fitcoach/internal/types"
)

var (
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	savedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
)

// renderMarkdown renders the assistant's answer for the terminal, falling
// back to plain text if the renderer cannot be built.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

// printResult shows one turn's outcome.
func printResult(res *pipeline.Result) {
	if res.EntrySaved != nil {
		fmt.Println(savedStyle.Render(fmt.Sprintf("✓ Logged entry %s", res.EntrySaved.ID)))
	}
	if res.Correction != nil {
		if res.Correction.Success {
			fmt.Println(savedStyle.Render("✓ " + res.Correction.Message))
		} else {
			fmt.Println(errorStyle.Render("✗ " + res.Correction.Error))
		}
		return
	}

	if res.WaitingForUser {
		if res.ContextExplanation != "" {
			fmt.Println(noticeStyle.Render(res.ContextExplanation))
		}
		for i, q := range res.Questions {
			fmt.Println(questionStyle.Render(fmt.Sprintf("%d. %s", i+1, q.Question)))
		}
		if res.FallbackAction != "" {
			fmt.Println(noticeStyle.Render("If you skip these: " + res.FallbackAction))
		}
		return
	}

	if res.IsPartial {
		fmt.Println(noticeStyle.Render("(partial answer: some expertise was unavailable)"))
	}
	if res.RetriesExhausted {
		fmt.Println(noticeStyle.Render("(this answer did not pass every quality check; treat with care)"))
	}
	if res.Response != "" {
		fmt.Print(renderMarkdown(res.Response))
	}
}

// readAnswers prompts for each clarification question and assembles the
// resume input.
func readAnswers(reader *bufio.Reader, questions []types.ClarificationQuestion) (session.ResumeInput, error) {
	fmt.Println(noticeStyle.Render("Answer below, or press Enter to skip a question. Skipping all of them continues without answers."))

	responses := make(map[string]string)
	for _, q := range questions {
		fmt.Print(promptStyle.Render("> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return session.ResumeInput{}, err
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			continue
		}
		responses[q.GapID] = answer
	}

	if len(responses) == 0 {
		return session.ResumeInput{Declined: true}, nil
	}
	return session.ResumeInput{Responses: responses}, nil
}
