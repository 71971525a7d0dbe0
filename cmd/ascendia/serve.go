package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
	"github.com/Sam-lateef/Ascendia-booking-sub000/internal/cli"
	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/httpapi"
	mcpadapter "github.com/Sam-lateef/Ascendia-booking-sub000/pkg/adapters/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the engine behind a JSON API over HTTP: turn handling,
domain listing, the pattern review queue and a live event stream.
The MCP surface starts alongside when enabled in configuration.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log := cli.NewLogger(cfg.Logging)
		build, err := cli.BuildEngine(cfg, log)
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer build.Close()
		engine := build.Engine

		handlerOpts := []httpapi.Option{
			httpapi.WithLogger(log),
			httpapi.WithMetrics(engine.Metrics()),
		}
		if build.Stream != nil {
			handlerOpts = append(handlerOpts, httpapi.WithEventStream(build.Stream))
		}
		handler := httpapi.NewHandler(engine, engine.Catalog(), engine.Patterns(), engine, handlerOpts...)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listeners.
		serverErrors := make(chan error, 2)

		go func() {
			log.Info("starting HTTP server", "addr", srv.Addr, "domains", cfg.Catalog.Path)
			serverErrors <- srv.ListenAndServe()
		}()

		mcpCtx, stopMCP := context.WithCancel(context.Background())
		defer stopMCP()
		if cfg.Server.MCP.Enabled {
			mcpServer := mcpadapter.NewServer(engine, engine.Catalog(), engine.Patterns(), engine, ascendia.Version, log)
			go func() {
				switch cfg.Server.MCP.Transport {
				case "sse":
					log.Info("starting MCP server", "transport", "sse", "addr", cfg.Server.MCP.Addr)
					serverErrors <- mcpServer.ServeSSE(mcpCtx, cfg.Server.MCP.Addr)
				default:
					log.Info("starting MCP server", "transport", "stdio")
					serverErrors <- mcpServer.ServeStdio()
				}
			}()
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if err != nil && err != http.ErrServerClosed {
				log.Error("server error", "err", err)
				os.Exit(1)
			}

		case sig := <-shutdown:
			log.Info("shutting down", "signal", sig.String())
			stopMCP()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Warn("graceful shutdown did not complete", "err", err)
				_ = srv.Close()
			}
			log.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "HTTP listen address (overrides config)")
}
