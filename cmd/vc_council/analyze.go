package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/michael/vc-council/internal/debate"
	"github.com/michael/vc-council/internal/llm"
	"github.com/michael/vc-council/internal/observability"
	"github.com/michael/vc-council/internal/parsing"
	"github.com/michael/vc-council/internal/types"
)

var (
	analyzeInput   string
	analyzeAPIKey  string
	analyzeVerbose bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full committee analysis from the command line",
	Long: `Runs the five-round committee debate against a company described in a JSON
file and prints the final decision. No server or event stream is involved;
output goes to stdout.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "Path to company JSON file (required)")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print each step as it completes")

	_ = analyzeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	data, err := os.ReadFile(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to read input file %s: %w", analyzeInput, err)
	}

	var input types.CompanyInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse company JSON: %w", err)
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("invalid company input: %w", err)
	}

	apiKey := analyzeAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	ctx := context.Background()
	llmCfg := llm.DefaultConfig()
	client, err := llm.NewGeminiClient(ctx, llmCfg, apiKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	printer := observability.NewPrinter(os.Stdout)
	if analyzeVerbose {
		printer.PrintPlan(debate.Plan())
	}

	opts := debate.RunOptions{
		Input:  input,
		Runner: llm.NewRunner(client, llmCfg),
		OnPhase: func(round int, topic string) {
			fmt.Printf("── Round %d: %s\n", round, topic)
		},
	}
	if analyzeVerbose {
		opts.OnStep = func(record types.StepRecord) {
			printer.PrintStepRecord(record)
		}
	}

	records, err := debate.Run(ctx, opts)
	if err != nil {
		printer.PrintError(err)
		return err
	}

	result := parsing.ExtractDecision(records[len(records)-1].Output, time.Now())
	printer.PrintDecision(&result)
	return nil
}
