package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"fitcoach/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize fitcoach in the current workspace",
	Long: `Creates the .fitcoach/ directory with a default config.yaml and a set
of starter domain files. Existing files are left untouched.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}

	cfgPath := config.ConfigPath(ws)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.DefaultConfig(ws), ws); err != nil {
			return err
		}
		fmt.Println("Created", cfgPath)
	} else {
		fmt.Println("Keeping existing", cfgPath)
	}

	domainsDir := filepath.Join(ws, ".fitcoach", "domains")
	if err := os.MkdirAll(domainsDir, 0755); err != nil {
		return fmt.Errorf("failed to create domains dir: %w", err)
	}
	for name, content := range starterDomains {
		path := filepath.Join(domainsDir, name+".yaml")
		if _, err := os.Stat(path); err == nil {
			fmt.Println("Keeping existing", path)
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
		fmt.Println("Created", path)
	}

	fmt.Println("\nSet GEMINI_API_KEY (or OPENAI_API_KEY) and run 'fitcoach chat'.")
	return nil
}

// starterDomains seeds a usable domain set on first init. Users edit or
// replace these; with hot_reload enabled edits apply without a restart.
var starterDomains = map[string]string{
	"general_fitness": `name: general_fitness
description: Baseline fitness knowledge, always loaded
vocabulary:
  workout: training session
  cardio: cardiovascular training
expertise: |
  General training principles: progressive overload, recovery, consistency.
  Can interpret common log entries and answer broad training questions.
evaluation_rules:
  - Never give medical advice; suggest a professional for pain or injury.
  - Only cite numbers that appear in the user's own log entries.
context_guidance: |
  Prefer trends over single data points. A single missed session is noise.
clarification_patterns:
  subjective:
    - How did the session feel on a 1-10 effort scale?
  clarification:
    - Which exercise do you mean by that?
schema:
  activity: what the user did
  duration_minutes: session length in minutes
  notes: anything else worth keeping
`,
	"strength_training": `name: strength_training
description: Barbell and resistance training expertise
vocabulary:
  squats: back squat
  bench: bench press
  deads: deadlift
  ohp: overhead press
expertise: |
  Set/rep/load programming, rep maxes, and strength progression analysis.
  Understands RPE, percentages of 1RM, and common barbell movements.
evaluation_rules:
  - Check load progressions for plausibility before citing them.
context_guidance: |
  Compare working-set loads across sessions of the same lift.
clarification_patterns:
  subjective:
    - What RPE did the top set feel like?
schema:
  exercise: normalized exercise name
  sets: number of sets
  reps: reps per set
  weight_kg: load in kilograms
`,
	"running": `name: running
description: Running and endurance training expertise
vocabulary:
  tempo: tempo run
  intervals: interval session
expertise: |
  Pace, distance, and heart-rate based endurance analysis. Understands
  weekly mileage, long runs, and interval structures.
evaluation_rules:
  - Distinguish pace improvements from distance changes when citing trends.
context_guidance: |
  Weekly volume matters more than any single run.
clarification_patterns:
  subjective:
    - How did the legs feel during the run?
schema:
  distance_km: distance in kilometers
  duration_minutes: run duration
  pace: average pace if mentioned
`,
}
