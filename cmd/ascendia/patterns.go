package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/cli"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/pattern"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/ports"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage the pattern review queue",
	Long: `Patterns are function-call sequences observed on the fallback path.
Recurring successful sequences are suggested for review; approving one
promotes it into a stored plan.`,
}

var patternsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List observed patterns",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		_, patterns, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error opening stores: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		status := domain.PatternStatus(cmd.Flag("status").Value.String())
		switch status {
		case domain.PatternObserved, domain.PatternSuggested, domain.PatternApproved:
		default:
			fmt.Printf("Unknown status %q. Supported: observed, suggested, approved\n", status)
			os.Exit(1)
		}

		observations, err := patterns.ListByStatus(cmd.Context(), status)
		if err != nil {
			fmt.Printf("Error listing patterns: %v\n", err)
			os.Exit(1)
		}
		if len(observations) == 0 {
			fmt.Printf("No %s patterns.\n", status)
			return
		}

		for _, obs := range observations {
			fmt.Printf("%-16s %-12s %-24s seen=%d ok=%d  %s\n",
				obs.Fingerprint, obs.DomainID, obs.Intent,
				obs.TimesObserved, obs.SuccessCount, strings.Join(obs.Sequence, " > "))
		}
	},
}

var patternsApproveCmd = &cobra.Command{
	Use:   "approve <fingerprint>",
	Short: "Promote a suggested pattern into a plan",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		plans, patterns, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error opening stores: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		cat, err := buildCatalog(cfg)
		if err != nil {
			fmt.Printf("Error opening domain catalog: %v\n", err)
			os.Exit(1)
		}

		obs, err := patterns.Get(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading pattern %q: %v\n", args[0], err)
			os.Exit(1)
		}
		entry, err := cat.Domain(cmd.Context(), obs.DomainID)
		if err != nil {
			fmt.Printf("Error loading domain %q: %v\n", obs.DomainID, err)
			os.Exit(1)
		}

		log := cli.NewLogger(cfg.Logging)
		learner := pattern.NewLearner(patterns, plans, ports.NopPublisher{}, nil, log)
		plan, err := learner.Promote(cmd.Context(), entry.Domain, args[0])
		if err != nil {
			fmt.Printf("Error promoting pattern: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Promoted %s into plan %s (%d steps, intents %v)\n",
			args[0], plan.ID, len(plan.Steps), plan.Intents)
	},
}

var patternsRejectCmd = &cobra.Command{
	Use:   "reject <fingerprint>...",
	Short: "Remove patterns from the queue",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		_, patterns, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Printf("Error opening stores: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()

		hasError := false
		for _, fingerprint := range args {
			if err := patterns.Delete(cmd.Context(), fingerprint); err != nil {
				fmt.Printf("Error rejecting %q: %v\n", fingerprint, err)
				hasError = true
				continue
			}
			fmt.Printf("Rejected %s\n", fingerprint)
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsLsCmd)
	patternsCmd.AddCommand(patternsApproveCmd)
	patternsCmd.AddCommand(patternsRejectCmd)

	patternsLsCmd.Flags().String("status", "suggested", "Filter by status: observed, suggested or approved")
}
