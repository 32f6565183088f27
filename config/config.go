package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Shards-inc/AiPowerHouse/core"
	"github.com/Shards-inc/AiPowerHouse/governance"
)

// Default vendor endpoints.
const (
	DefaultOpenAIEndpoint    = "https://api.openai.com/v1"
	DefaultAnthropicEndpoint = "https://api.anthropic.com/v1"
	DefaultGoogleEndpoint    = "https://generativelanguage.googleapis.com/v1"
)

// Config is the complete runtime configuration.
type Config struct {
	Providers  Providers         `toml:"providers"`
	Governance governance.Config `toml:"governance"`
	Routing    Routing           `toml:"routing"`
	Logging    Logging           `toml:"logging"`
}

// Providers holds one configuration per backend family.
type Providers struct {
	OpenAI    core.ProviderConfig `toml:"openai"`
	Anthropic core.ProviderConfig `toml:"anthropic"`
	Google    core.ProviderConfig `toml:"google"`
}

// Routing holds dispatcher defaults.
type Routing struct {
	// DefaultTimeout applies to providers whose Timeout is zero.
	DefaultTimeout  time.Duration        `toml:"default_timeout"`
	DefaultStrategy core.RoutingStrategy `toml:"default_strategy"`
}

// Logging selects the log level and handler format.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Providers: Providers{
			OpenAI:    core.ProviderConfig{Endpoint: DefaultOpenAIEndpoint, Model: "gpt-4", MaxTokens: 2048},
			Anthropic: core.ProviderConfig{Endpoint: DefaultAnthropicEndpoint, Model: "claude-3-opus-20240229", MaxTokens: 4096},
			Google:    core.ProviderConfig{Endpoint: DefaultGoogleEndpoint, Model: "gemini-pro", MaxTokens: 2048},
		},
		Governance: governance.DefaultConfig(),
		Routing: Routing{
			DefaultTimeout:  core.DefaultProviderTimeout,
			DefaultStrategy: core.StrategyPrimary,
		},
		Logging: Logging{Level: "info", Format: "json"},
	}
}

// Load builds a configuration from defaults, the optional TOML file at path
// and environment overrides, then validates it. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes the file at path over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variables on top of cfg:
//
//   - OPENAI_*, ANTHROPIC_*, GOOGLE_* (API_KEY, ENDPOINT, MODEL, MAX_TOKENS)
//   - GOVERNANCE_PROMPT_FIREWALL, GOVERNANCE_HUMAN_REVIEW, GOVERNANCE_AUDIT_TRAIL
//   - GOVERNANCE_DATA_RESIDENCY, GOVERNANCE_COMPLIANCE_MODE
//   - PROVIDER_TIMEOUT_MS, LOG_LEVEL, LOG_FORMAT
func (c *Config) ApplyEnvOverrides() error {
	var errs []error

	for prefix, pc := range map[string]*core.ProviderConfig{
		"OPENAI":    &c.Providers.OpenAI,
		"ANTHROPIC": &c.Providers.Anthropic,
		"GOOGLE":    &c.Providers.Google,
	} {
		if v, ok := os.LookupEnv(prefix + "_API_KEY"); ok {
			pc.APIKey = v
		}
		if v := os.Getenv(prefix + "_ENDPOINT"); v != "" {
			pc.Endpoint = v
		}
		if v := os.Getenv(prefix + "_MODEL"); v != "" {
			pc.Model = v
		}
		if v := os.Getenv(prefix + "_MAX_TOKENS"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s_MAX_TOKENS: %w", prefix, err))
			} else {
				pc.MaxTokens = n
			}
		}
	}

	gov := &c.Governance
	if v, ok := os.LookupEnv("GOVERNANCE_PROMPT_FIREWALL"); ok {
		gov.PromptFirewall = isTrue(v)
	}
	if v, ok := os.LookupEnv("GOVERNANCE_HUMAN_REVIEW"); ok {
		gov.HumanReviewLoop = isTrue(v)
	}
	if v, ok := os.LookupEnv("GOVERNANCE_AUDIT_TRAIL"); ok {
		// Only an explicit "false" disables the trail.
		gov.AuditTrail = !strings.EqualFold(strings.TrimSpace(v), "false")
	}
	if v := os.Getenv("GOVERNANCE_DATA_RESIDENCY"); v != "" {
		gov.DataResidency = v
	}
	if v := os.Getenv("GOVERNANCE_COMPLIANCE_MODE"); v != "" {
		gov.ComplianceMode = governance.ComplianceMode(strings.ToLower(v))
	}

	if v := os.Getenv("PROVIDER_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("PROVIDER_TIMEOUT_MS: %w", err))
		} else {
			c.Routing.DefaultTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}

	return errors.Join(errs...)
}

func isTrue(v string) bool {
	v = strings.TrimSpace(v)
	return v == "1" || strings.EqualFold(v, "true")
}

// FieldError names the invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks value ranges and enumerations. API keys are not required
// here; a provider without one fails when it is first used.
func (c *Config) Validate() error {
	var errs []error

	for name, pc := range map[string]core.ProviderConfig{
		"providers.openai":    c.Providers.OpenAI,
		"providers.anthropic": c.Providers.Anthropic,
		"providers.google":    c.Providers.Google,
	} {
		if pc.Endpoint != "" {
			if u, err := url.Parse(pc.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{Field: name + ".endpoint", Message: fmt.Sprintf("invalid URL %q", pc.Endpoint)})
			}
		}
		if pc.MaxTokens < 0 {
			errs = append(errs, FieldError{Field: name + ".max_tokens", Message: "must not be negative"})
		}
		if pc.Temperature < 0 || pc.Temperature > 2 {
			errs = append(errs, FieldError{Field: name + ".temperature", Message: "must be between 0 and 2"})
		}
		if pc.RequestsPerSecond < 0 {
			errs = append(errs, FieldError{Field: name + ".requests_per_second", Message: "must not be negative"})
		}
	}

	if _, err := governance.ParseComplianceMode(string(c.Governance.ComplianceMode)); err != nil {
		errs = append(errs, FieldError{Field: "governance.compliance_mode", Message: err.Error()})
	}
	if _, err := core.ParseRoutingStrategy(string(c.Routing.DefaultStrategy)); err != nil {
		errs = append(errs, FieldError{Field: "routing.default_strategy", Message: err.Error()})
	}
	if c.Routing.DefaultTimeout < 0 {
		errs = append(errs, FieldError{Field: "routing.default_timeout", Message: "must not be negative"})
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{Field: "logging.level", Message: fmt.Sprintf("invalid level %q", c.Logging.Level)})
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{Field: "logging.format", Message: fmt.Sprintf("invalid format %q", c.Logging.Format)})
	}

	if len(errs) == 0 {
		return nil
	}
	return core.NewValidationError("invalid configuration: "+errors.Join(errs...).Error(), map[string]any{"errors": errs})
}

// ProviderConfig returns the configuration for kind with the routing default
// timeout applied.
func (c *Config) ProviderConfig(kind core.ProviderKind) (core.ProviderConfig, error) {
	var pc core.ProviderConfig
	switch kind {
	case core.ProviderChatGPT:
		pc = c.Providers.OpenAI
	case core.ProviderClaude:
		pc = c.Providers.Anthropic
	case core.ProviderGemini:
		pc = c.Providers.Google
	default:
		return core.ProviderConfig{}, core.NewValidationError("Unknown provider: "+string(kind), nil)
	}
	if pc.Timeout <= 0 {
		pc.Timeout = c.Routing.DefaultTimeout
	}
	return pc, nil
}

// GovernanceConfig returns the governance section.
func (c *Config) GovernanceConfig() governance.Config {
	return c.Governance
}
