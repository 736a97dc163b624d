package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Patterns PatternsConfig `yaml:"patterns" mapstructure:"patterns"`
	Workflow WorkflowConfig `yaml:"workflow" mapstructure:"workflow"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port       int    `yaml:"port" mapstructure:"port"`
	AdminToken string `yaml:"admin_token" mapstructure:"admin_token"`
}

// PatternsConfig configures pattern learning.
type PatternsConfig struct {
	PeerSampleSize       int      `yaml:"peer_sample_size" mapstructure:"peer_sample_size"`
	PlaceholderCompanies []string `yaml:"placeholder_companies" mapstructure:"placeholder_companies"`
}

// WorkflowConfig configures the enrichment and apply passes.
type WorkflowConfig struct {
	ApproveThreshold   float64 `yaml:"approve_threshold" mapstructure:"approve_threshold"`
	BatchSize          int     `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency        int     `yaml:"concurrency" mapstructure:"concurrency"`
	AuditRetentionDays int     `yaml:"audit_retention_days" mapstructure:"audit_retention_days"`
}

// AuditRetention returns the applied-audit retention window.
func (w WorkflowConfig) AuditRetention() time.Duration {
	return time.Duration(w.AuditRetentionDays) * 24 * time.Hour
}

// VerifyConfig configures deliverability verification.
type VerifyConfig struct {
	TimeoutSecs             int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Port                    int      `yaml:"port" mapstructure:"port"`
	HeloHost                string   `yaml:"helo_host" mapstructure:"helo_host"`
	MailFrom                string   `yaml:"mail_from" mapstructure:"mail_from"`
	MaxProbesPerDomain      int      `yaml:"max_probes_per_domain" mapstructure:"max_probes_per_domain"`
	Workers                 int      `yaml:"workers" mapstructure:"workers"`
	ProbeIntervalMs         int      `yaml:"probe_interval_ms" mapstructure:"probe_interval_ms"`
	RetryCooldownDays       int      `yaml:"retry_cooldown_days" mapstructure:"retry_cooldown_days"`
	BatchSize               int      `yaml:"batch_size" mapstructure:"batch_size"`
	DNSRetries              int      `yaml:"dns_retries" mapstructure:"dns_retries"`
	ProviderBlocklist       []string `yaml:"provider_blocklist" mapstructure:"provider_blocklist"`
	CircuitFailureThreshold int      `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
}

// Timeout returns the per-handshake time budget.
func (v VerifyConfig) Timeout() time.Duration {
	return time.Duration(v.TimeoutSecs) * time.Second
}

// RetryCooldown returns how long a previously-invalid address waits before re-verification.
func (v VerifyConfig) RetryCooldown() time.Duration {
	return time.Duration(v.RetryCooldownDays) * 24 * time.Hour
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADMAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("patterns.peer_sample_size", 10)
	v.SetDefault("patterns.placeholder_companies", []string{})
	v.SetDefault("workflow.approve_threshold", 0.8)
	v.SetDefault("workflow.batch_size", 100)
	v.SetDefault("workflow.concurrency", 5)
	v.SetDefault("workflow.audit_retention_days", 30)
	v.SetDefault("verify.timeout_secs", 5)
	v.SetDefault("verify.port", 25)
	v.SetDefault("verify.helo_host", "mail-check.local")
	v.SetDefault("verify.mail_from", "verify@mail-check.local")
	v.SetDefault("verify.max_probes_per_domain", 3)
	v.SetDefault("verify.workers", 4)
	v.SetDefault("verify.probe_interval_ms", 1000)
	v.SetDefault("verify.retry_cooldown_days", 7)
	v.SetDefault("verify.batch_size", 100)
	v.SetDefault("verify.dns_retries", 2)
	v.SetDefault("verify.circuit_failure_threshold", 3)
	v.SetDefault("verify.provider_blocklist", []string{
		"gmail.com", "googlemail.com", "yahoo.com", "hotmail.com", "outlook.com",
		"live.com", "aol.com", "icloud.com", "protonmail.com",
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
// Modes: "store", "enrich", "verify", "serve".
func (c *Config) Validate(mode string) error {
	var problems []string

	needStore := mode == "store" || mode == "enrich" || mode == "verify" || mode == "serve"
	if needStore {
		switch c.Store.Driver {
		case "postgres":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for postgres")
			}
		case "sqlite":
		default:
			problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
		}
	}

	switch mode {
	case "enrich":
		if c.Workflow.ApproveThreshold <= 0 || c.Workflow.ApproveThreshold > 1 {
			problems = append(problems, "workflow.approve_threshold must be within (0,1]; use --manual-approve to approve everything")
		}
		if c.Patterns.PeerSampleSize <= 0 {
			problems = append(problems, "patterns.peer_sample_size must be positive")
		}
	case "verify":
		if c.Verify.TimeoutSecs <= 0 {
			problems = append(problems, "verify.timeout_secs must be positive")
		}
		if c.Verify.MaxProbesPerDomain <= 0 {
			problems = append(problems, "verify.max_probes_per_domain must be positive")
		}
		if c.Verify.MailFrom == "" || !strings.Contains(c.Verify.MailFrom, "@") {
			problems = append(problems, "verify.mail_from must be an address")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
