package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Inspect configured domains",
}

var domainsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured domains",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		cat, err := buildCatalog(cfg)
		if err != nil {
			fmt.Printf("Error opening domain catalog: %v\n", err)
			os.Exit(1)
		}

		ids, err := cat.Domains(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing domains: %v\n", err)
			os.Exit(1)
		}
		if len(ids) == 0 {
			fmt.Println("No domains configured.")
			return
		}

		for _, id := range ids {
			entry, err := cat.Domain(cmd.Context(), id)
			if err != nil {
				fmt.Printf("Error loading domain %q: %v\n", id, err)
				os.Exit(1)
			}
			d := entry.Domain
			fmt.Printf("%-20s %-30s functions=%d triggers=%d intents=%s\n",
				d.ID, d.Name, len(d.Functions), len(d.Triggers), strings.Join(d.Intents(), ","))
		}
	},
}

var domainsShowCmd = &cobra.Command{
	Use:   "show <domain-id>",
	Short: "Print one domain definition as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		cat, err := buildCatalog(cfg)
		if err != nil {
			fmt.Printf("Error opening domain catalog: %v\n", err)
			os.Exit(1)
		}

		entry, err := cat.Domain(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading domain %q: %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(entry.Domain, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling domain: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.AddCommand(domainsLsCmd)
	domainsCmd.AddCommand(domainsShowCmd)
}
