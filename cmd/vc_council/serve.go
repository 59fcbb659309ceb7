package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/michael/vc-council/internal/config"
	"github.com/michael/vc-council/internal/llm"
	"github.com/michael/vc-council/internal/mcp"
	"github.com/michael/vc-council/internal/orchestrator"
	"github.com/michael/vc-council/internal/server"
)

var (
	servePort       int
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes analysis, SSE streaming, and OAuth endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file (values can be overridden by environment)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	llmCfg := llm.DefaultConfig()
	client, err := llm.NewGeminiClient(ctx, llmCfg, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	var broker *mcp.Broker
	if cfg.BrokerConfigured() {
		provider := mcp.NewClient(cfg.MetorialBaseURL, cfg.MetorialAPIKey, cfg.DeploymentIDs)
		broker = mcp.NewBroker(provider)
	} else {
		log.Printf("[serve] authorization provider not configured, calendar scheduling disabled")
	}

	coordinator := orchestrator.New(orchestrator.Options{
		Runner:        llm.NewRunner(client, llmCfg),
		Broker:        broker,
		AuthWait:      time.Duration(cfg.AuthWaitSeconds) * time.Second,
		AuthPollEvery: time.Duration(cfg.AuthPollSeconds) * time.Second,
	})

	srv, err := server.New(server.Config{
		Port:        servePort,
		Coordinator: coordinator,
		Broker:      broker,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
