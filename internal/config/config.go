// Package config loads the engine configuration from fathom.yaml with
// environment overrides, and hot-reloads it on file change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Kocoro-lab/Fathom/internal/embeddings"
	"github.com/Kocoro-lab/Fathom/internal/llm"
	"github.com/Kocoro-lab/Fathom/internal/search"
	"github.com/Kocoro-lab/Fathom/internal/tracing"
	"github.com/Kocoro-lab/Fathom/internal/vectordb"
)

// ServiceConfig holds daemon-level settings.
type ServiceConfig struct {
	Name      string `mapstructure:"name"`
	AdminPort int    `mapstructure:"admin_port"`
}

// TemporalConfig holds Temporal connection settings.
type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

// RunConfig holds per-run execution knobs.
type RunConfig struct {
	// Attempt cap per plan item before the dispatcher gives up on it.
	MaxAttempts int `mapstructure:"max_attempts"`
	// Retrieval tool invocations allowed per writing task.
	MaxToolCalls int `mapstructure:"max_tool_calls"`
	// Results requested per research search.
	SearchResults int `mapstructure:"search_results"`
	// Per-activity timeout.
	ActivityTimeout time.Duration `mapstructure:"activity_timeout"`
}

// HealthConfig holds health check settings.
type HealthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Config is the full engine configuration.
type Config struct {
	Service    ServiceConfig     `mapstructure:"service"`
	Temporal   TemporalConfig    `mapstructure:"temporal"`
	Run        RunConfig         `mapstructure:"run"`
	LLM        llm.Config        `mapstructure:"llm"`
	Search     search.Config     `mapstructure:"search"`
	Vector     vectordb.Config   `mapstructure:"vector"`
	Embeddings embeddings.Config `mapstructure:"embeddings"`
	Tracing    tracing.Config    `mapstructure:"tracing"`
	Health     HealthConfig      `mapstructure:"health"`
	Logging    struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
}

// Load reads configuration from CONFIG_PATH (default ./config/fathom.yaml)
// and applies FATHOM_* env overrides. A missing file yields defaults only.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/fathom.yaml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FATHOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Legacy env names used by the service containers.
	if s := os.Getenv("LLM_SERVICE_URL"); s != "" {
		cfg.LLM.BaseURL = s
	}
	if s := os.Getenv("SEARCH_SERVICE_URL"); s != "" {
		cfg.Search.BaseURL = s
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = cfg.LLM.BaseURL
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "fathom-engine")
	v.SetDefault("service.admin_port", 8081)
	v.SetDefault("temporal.host_port", "temporal:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "fathom-reports")
	v.SetDefault("run.max_attempts", 3)
	v.SetDefault("run.max_tool_calls", 7)
	v.SetDefault("run.search_results", 5)
	v.SetDefault("run.activity_timeout", 5*time.Minute)
	v.SetDefault("llm.base_url", "http://llm-service:8000")
	v.SetDefault("llm.timeout", 120*time.Second)
	v.SetDefault("llm.model_tier", "medium")
	v.SetDefault("search.base_url", "http://search-service:8090")
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.num_results", 5)
	v.SetDefault("vector.host", "qdrant")
	v.SetDefault("vector.port", 6333)
	v.SetDefault("vector.collection", "research_chunks")
	v.SetDefault("vector.top_k", 5)
	v.SetDefault("vector.timeout", 5*time.Second)
	v.SetDefault("embeddings.default_model", "text-embedding-3-small")
	v.SetDefault("embeddings.timeout", 5*time.Second)
	v.SetDefault("embeddings.cache_ttl", time.Hour)
	v.SetDefault("embeddings.max_lru", 2048)
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.check_interval", 30*time.Second)
	v.SetDefault("health.timeout", 5*time.Second)
	v.SetDefault("logging.level", "info")
}
