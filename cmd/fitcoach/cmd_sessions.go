package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fitcoach/internal/config"
	"fitcoach/internal/logging"
	"fitcoach/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions waiting for your answers",
	RunE:  runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	if err := logging.Initialize(ws); err != nil {
		return err
	}
	defer logging.CloseAll()

	cfg, err := config.Load(ws)
	if err != nil {
		return err
	}
	db, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	suspended, err := db.ListSuspendedSessions()
	if err != nil {
		return err
	}
	if len(suspended) == 0 {
		fmt.Println("No suspended sessions.")
		return nil
	}

	fmt.Printf("%d suspended session(s):\n", len(suspended))
	for _, ss := range suspended {
		fmt.Printf("  %s  (updated %s)\n", ss.ID, ss.UpdatedAt)
	}
	fmt.Println("\nAnswer one with: fitcoach resume <session-id>")
	return nil
}

// resolveWorkspace applies the --workspace flag or falls back to the
// current directory.
func resolveWorkspace() (string, error) {
	if workspace != "" {
		return workspace, nil
	}
	ws, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine workspace: %w", err)
	}
	return ws, nil
}
