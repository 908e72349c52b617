// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "genescout/0.1"). Per prd001-tools R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ToolConfig holds settings for the external tool wrappers.
// Per prd001-tools R1.4, R5.1-R5.4.
type ToolConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries is the retry bound for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// NCBIAPIKey raises the E-utilities rate limit when set.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`

	// ContactEmail is sent to APIs that ask for a contact address.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
}

// AIConfig holds shared settings for stages that call the LLM API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the LLM API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// PlannerConfig holds settings for the tool-selection step.
// Per prd004-orchestration R1.1-R1.4.
type PlannerConfig struct {
	AIConfig `yaml:",inline"`

	// Disabled switches planning to the fixed heuristic tool set.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// ExplainConfig holds settings for the synthesis step.
type ExplainConfig struct {
	AIConfig `yaml:",inline"`

	// Disabled skips synthesis; the evidence lists are still returned.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// OrchestratorConfig holds settings for one pipeline run.
// Per prd004-orchestration R2.1-R2.4.
type OrchestratorConfig struct {
	// MaxWorkers bounds concurrent tool calls (default 8).
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	// DedupeNonGene enables identifier dedup for publication records.
	// Off by default: duplicates across literature tools coexist.
	DedupeNonGene bool `json:"dedupe_non_gene" yaml:"dedupe_non_gene"`
}

// HistoryConfig holds settings for the run-history store.
// Per prd006-history R1.1.
type HistoryConfig struct {
	// Path is the SQLite database file (default "genescout.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default listing limit (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Tools        ToolConfig         `json:"tools" yaml:"tools"`
	Planner      PlannerConfig      `json:"planner" yaml:"planner"`
	Explain      ExplainConfig      `json:"explain" yaml:"explain"`
	Orchestrator OrchestratorConfig `json:"orchestrator" yaml:"orchestrator"`
	History      HistoryConfig      `json:"history" yaml:"history"`
}
