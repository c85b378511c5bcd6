package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var hospitalsCmd = &cobra.Command{
	Use:   "hospitals",
	Short: "List all configured hospitals",
	Long:  "Reads the config and prints a table of all configured hospital boards.",
	RunE:  runHospitals,
}

func init() {
	rootCmd.AddCommand(hospitalsCmd)
}

func runHospitals(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-25s %-18s %s\n", "Hospital", "Type", "Status")
	fmt.Println(strings.Repeat("─", 52))

	enabled, disabled := 0, 0
	for _, h := range cfg.Hospitals {
		status := "enabled"
		if !h.IsEnabled() {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		fmt.Printf("%-25s %-18s %s\n", h.ID, h.Type, status)
	}

	fmt.Printf("\nTotal: %d hospitals (%d enabled, %d disabled)\n", len(cfg.Hospitals), enabled, disabled)
	return nil
}
