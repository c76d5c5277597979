package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitcoach/internal/config"
	"fitcoach/internal/domain"
	"fitcoach/internal/logging"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the registered expertise domains",
	RunE:  runDomains,
}

func runDomains(cmd *cobra.Command, args []string) error {
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
	registry := domain.NewRegistry(cfg.Domains.BaseDomain)
	if err := domain.LoadDir(registry, cfg.Domains.Dir); err != nil {
		return err
	}

	infos := registry.Infos()
	if len(infos) == 0 {
		fmt.Println("No domains registered. Run 'fitcoach init' to create starter domains.")
		return nil
	}

	for _, info := range infos {
		marker := " "
		if info.Name == cfg.Domains.BaseDomain {
			marker = "*"
		}
		fmt.Printf("%s %s - %s\n", marker, info.Name, info.Description)
	}
	if cfg.Domains.BaseDomain != "" {
		fmt.Println("\n* base domain, always loaded")
	}
	return nil
}
