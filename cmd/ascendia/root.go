package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/config"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "ascendia",
	Short: "Ascendia is an intent-to-workflow orchestration engine",
	Long: `Ascendia turns natural-language utterances into executed workflows
against configured business APIs. Plans are synthesized by model
consensus, persisted, and reused so repeated requests cost zero model
calls.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (overrides discovery)")
	rootCmd.PersistentFlags().String("domains", "", "Directory containing domain definitions")
}

// loadConfig resolves layered configuration, honoring the --config and
// --domains flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg := config.Default()
		layer, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(layer)
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
		if domains, _ := cmd.Flags().GetString("domains"); domains != "" {
			cfg.Catalog.Path = domains
		}
		return cfg, cfg.Validate()
	}

	cfg, err := config.NewLoader(logging.New(slog.LevelWarn)).Load()
	if err != nil {
		return nil, err
	}
	if domains, _ := cmd.Flags().GetString("domains"); domains != "" {
		cfg.Catalog.Path = domains
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
