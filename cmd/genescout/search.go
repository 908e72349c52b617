// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genescout/internal/analyze"
	"github.com/pdiddy/genescout/internal/explain"
	"github.com/pdiddy/genescout/internal/history"
	"github.com/pdiddy/genescout/internal/orchestrator"
	"github.com/pdiddy/genescout/internal/planner"
	"github.com/pdiddy/genescout/internal/report"
	"github.com/pdiddy/genescout/internal/secrets"
	"github.com/pdiddy/genescout/internal/tools"
	"github.com/pdiddy/genescout/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run the evidence pipeline for one research question",
	Long: `Search plans tool calls for a free-text gene-trait question, executes
them concurrently against the public APIs, and prints the deduplicated
evidence with provenance, an execution summary, and an optional synthesis.

Without an OpenAI API key (flag, config, or .secrets/openai-api-key) the
planner falls back to a fixed discovery batch and synthesis is skipped.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	cfg := pipelineConfig(cmd)
	secrets.Apply(&cfg, loadedSecrets)

	reg := tools.NewRegistry()
	o := &orchestrator.Orchestrator{
		Planner:  buildPlanner(cfg.Planner, reg),
		Registry: reg,
		Client:   tools.NewClient(cfg.Tools),
		Cfg:      cfg.Orchestrator,
		Out:      os.Stderr,
	}
	if !cfg.Explain.Disabled && cfg.Explain.APIKey != "" {
		o.Explainer = explain.NewLLM(cfg.Explain)
	}

	res := o.Run(context.Background(), query)

	if !res.Success {
		report.FormatTable(&res, os.Stdout)
		return fmt.Errorf("run failed: %s", res.Err)
	}

	if err := saveHistory(cmd, cfg.History, &res); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history not saved: %v\n", err)
	}

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if err := report.WriteResultFile(outPath, &res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "result written to %s\n", outPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return report.FormatJSON(&res, os.Stdout)
	}

	report.FormatTable(&res, os.Stdout)
	report.FormatAssessment(analyze.Assess(&res), os.Stdout)
	return nil
}

// buildPlanner selects the model-backed planner when a key is available
// and the fixed discovery batch otherwise.
func buildPlanner(cfg types.PlannerConfig, reg *tools.Registry) planner.Planner {
	if cfg.Disabled || cfg.APIKey == "" {
		return planner.Heuristic{}
	}
	return planner.NewLLM(cfg, reg)
}

func saveHistory(cmd *cobra.Command, cfg types.HistoryConfig, res *types.AggregateResult) error {
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		return nil
	}
	store, err := history.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.SaveRun(context.Background(), res)
	return err
}

// pipelineConfig assembles the stage configurations from the config file
// and flags. Flags win over file values.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Tools: types.ToolConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("tools.timeout"),
				UserAgent: viper.GetString("tools.user_agent"),
			},
			MaxRetries:   viper.GetInt("tools.max_retries"),
			NCBIAPIKey:   viper.GetString("tools.ncbi_api_key"),
			ContactEmail: viper.GetString("tools.contact_email"),
		},
		Planner: types.PlannerConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("planner.model"),
				APIKey:     viper.GetString("openai_api_key"),
				MaxRetries: viper.GetInt("planner.max_retries"),
			},
			Disabled: viper.GetBool("planner.disabled"),
		},
		Explain: types.ExplainConfig{
			AIConfig: types.AIConfig{
				Model:      viper.GetString("explain.model"),
				APIKey:     viper.GetString("openai_api_key"),
				MaxRetries: viper.GetInt("explain.max_retries"),
			},
			Disabled: viper.GetBool("explain.disabled"),
		},
		Orchestrator: types.OrchestratorConfig{
			MaxWorkers:    viper.GetInt("orchestrator.max_workers"),
			DedupeNonGene: viper.GetBool("orchestrator.dedupe_non_gene"),
		},
		History: historyConfigFromViper(),
	}

	if cfg.Tools.UserAgent == "" {
		cfg.Tools.UserAgent = "genescout/" + version
	}
	if cfg.Tools.Timeout == 0 {
		cfg.Tools.Timeout = 30 * time.Second
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Planner.Model = model
		cfg.Explain.Model = model
	}
	if noLLM, _ := cmd.Flags().GetBool("no-llm"); noLLM {
		cfg.Planner.Disabled = true
		cfg.Explain.Disabled = true
	}
	if workers, _ := cmd.Flags().GetInt("max-workers"); workers > 0 {
		cfg.Orchestrator.MaxWorkers = workers
	}
	if dedupe, _ := cmd.Flags().GetBool("dedupe-publications"); dedupe {
		cfg.Orchestrator.DedupeNonGene = true
	}

	return cfg
}

func historyConfigFromViper() types.HistoryConfig {
	return types.HistoryConfig{
		Path:       viper.GetString("history.path"),
		MaxResults: viper.GetInt("history.max_results"),
	}
}

func init() {
	searchCmd.Flags().String("model", "", "LLM model for planning and synthesis")
	searchCmd.Flags().Bool("no-llm", false, "use the fixed discovery plan and skip synthesis")
	searchCmd.Flags().Int("max-workers", 0, "maximum concurrent tool calls")
	searchCmd.Flags().Bool("dedupe-publications", false, "merge publication records by identifier")
	searchCmd.Flags().Bool("json", false, "output the aggregate as JSON")
	searchCmd.Flags().String("out", "", "also write the result to a YAML file")
	searchCmd.Flags().Bool("no-history", false, "do not record this run in the history database")

	rootCmd.AddCommand(searchCmd)
}
