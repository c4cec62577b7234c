// Package config initializes service configuration from environment
// variables and holds the shared postgres pool.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

var (
	// AnthropicModel is the model used for narration.
	AnthropicModel anthropic.Model
	// AnthropicMaxTokens bounds every model response.
	AnthropicMaxTokens int64
	// QuotaLimit is the number of questions per user per article per
	// rolling 24h window.
	QuotaLimit int
	// AdminToken grants unlimited, audit-logged access when presented in
	// the X-Admin-Token header. Empty disables admin bypass.
	AdminToken string
	// DatasetCacheTTL is how long loaded datasets and inferred schemas
	// stay cached.
	DatasetCacheTTL time.Duration
)

// Load initializes configuration from environment variables.
func Load() error {
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = string(anthropic.ModelClaude3_5Haiku20241022)
	}
	AnthropicModel = anthropic.Model(model)

	AnthropicMaxTokens = 2048
	if v := os.Getenv("ANTHROPIC_MAX_TOKENS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			AnthropicMaxTokens = n
		}
	}

	QuotaLimit = 3
	if v := os.Getenv("AI_QUOTA_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			QuotaLimit = n
		}
	}

	AdminToken = os.Getenv("ADMIN_TOKEN")

	DatasetCacheTTL = 30 * time.Minute
	if v := os.Getenv("DATASET_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			DatasetCacheTTL = d
		}
	}

	slog.Info("configuration loaded",
		"model", AnthropicModel,
		"maxTokens", AnthropicMaxTokens,
		"quotaLimit", QuotaLimit,
		"cacheTTL", DatasetCacheTTL,
		"adminBypass", AdminToken != "",
	)
	return nil
}
