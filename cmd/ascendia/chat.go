package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/cli"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/presentation/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat <domain-id>",
	Short: "Start an interactive conversation with a domain",
	Long: `Opens a console conversation against one configured domain.
Responses render as markdown when the terminal supports it; pipe input
for scripted runs.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}

		log := cli.NewLogger(cfg.Logging)
		build, err := cli.BuildEngine(cfg, log)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer build.Close()

		headless, _ := cmd.Flags().GetBool("headless")
		sessionID, _ := cmd.Flags().GetString("session")

		interactive := term.IsTerminal(int(os.Stdin.Fd())) && !headless
		if interactive {
			tui.PrintBanner(os.Stdout)
		}

		runner := ascendia.NewRunner(args[0])
		runner.Input = os.Stdin
		runner.Output = os.Stdout
		runner.SessionID = sessionID
		runner.Headless = !interactive
		if interactive {
			runner.Renderer = tui.NewRenderer()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runner.Run(ctx, build.Engine); err != nil && ctx.Err() == nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().Bool("headless", false, "Disable the banner, prompts and markdown rendering")
	chatCmd.Flags().String("session", "", "Resume an existing session by ID")
}
