package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/presentation/graph"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect stored workflow plans",
}

var plansLsCmd = &cobra.Command{
	Use:   "ls <domain-id>",
	Short: "List plans stored for a domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		plans, _, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error opening stores: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		stored, err := plans.List(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error listing plans: %v\n", err)
			os.Exit(1)
		}
		if len(stored) == 0 {
			fmt.Println("No plans stored.")
			return
		}

		for _, p := range stored {
			provenance := p.Provenance
			if provenance == "" {
				provenance = domain.ProvenanceSynthesized
			}
			fmt.Printf("%-28s %-24s steps=%d provenance=%s intents=%v\n",
				p.ID, p.Name, len(p.Steps), provenance, p.Intents)
		}
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <domain-id> <intent>",
	Short: "Show the plan for an intent",
	Long: `Looks up the stored plan for a (domain, intent) pair and prints it,
either as a Mermaid flowchart (default) or as JSON.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		plans, _, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error opening stores: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		plan, err := plans.Get(cmd.Context(), args[0], args[1])
		if err != nil {
			fmt.Printf("Error loading plan: %v\n", err)
			os.Exit(1)
		}

		format, _ := cmd.Flags().GetString("format")
		switch format {
		case "json":
			data, err := json.MarshalIndent(plan, "", "  ")
			if err != nil {
				fmt.Printf("Error marshaling plan: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		default:
			fmt.Print(graph.GenerateMermaid(plan, nil))
		}
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansLsCmd)
	plansCmd.AddCommand(plansShowCmd)
	plansShowCmd.Flags().String("format", "mermaid", "Output format: mermaid or json")
}
