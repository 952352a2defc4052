// Package config provides configuration loading for the orchestrator core,
// following the same viper-backed, mapstructure-tagged pattern used across
// the backend.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kandev/orchestrator/internal/common/logger"
)

// OrchestratorConfig holds the orchestrator core's resource-cap tunables.
type OrchestratorConfig struct {
	MaxAgents       int  `mapstructure:"maxAgents"`
	MaxTerminals    int  `mapstructure:"maxTerminals"`
	MaxQueueSize    int  `mapstructure:"maxQueueSize"`
	MaxExecutions   int  `mapstructure:"maxExecutions"`
	RequireApproval bool `mapstructure:"requireApproval"`

	Approval ApprovalConfig `mapstructure:"approval"`
	Logging  logger.Config  `mapstructure:"logging"`
}

// ApprovalConfig holds the approval-manager tunables.
type ApprovalConfig struct {
	MaxRequests      int           `mapstructure:"maxRequests"`
	MaxPerAgent      int           `mapstructure:"maxPerAgent"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxAuditEntries  int           `mapstructure:"maxAuditEntries"`
}

// Default returns the orchestrator's baseline configuration.
func Default() OrchestratorConfig {
	return OrchestratorConfig{
		MaxAgents:       10,
		MaxTerminals:    5,
		MaxQueueSize:    100,
		MaxExecutions:   5,
		RequireApproval: false,
		Approval: ApprovalConfig{
			MaxRequests:     50,
			MaxPerAgent:     5,
			Timeout:         5 * time.Minute,
			MaxAuditEntries: 500,
		},
		Logging: logger.Config{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

// Load reads configuration from the given path (if non-empty), environment
// variables prefixed ORCHESTRATOR_, and falls back to Default() for anything
// left unset.
func Load(path string) (OrchestratorConfig, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("ORCHESTRATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Register every key so Unmarshal also picks up environment values for
	// keys the config file does not set.
	def := Default()
	v.SetDefault("maxAgents", def.MaxAgents)
	v.SetDefault("maxTerminals", def.MaxTerminals)
	v.SetDefault("maxQueueSize", def.MaxQueueSize)
	v.SetDefault("maxExecutions", def.MaxExecutions)
	v.SetDefault("requireApproval", def.RequireApproval)
	v.SetDefault("approval.maxRequests", def.Approval.MaxRequests)
	v.SetDefault("approval.maxPerAgent", def.Approval.MaxPerAgent)
	v.SetDefault("approval.timeout", def.Approval.Timeout)
	v.SetDefault("approval.maxAuditEntries", def.Approval.MaxAuditEntries)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output_path", def.Logging.OutputPath)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
