// Package config loads clausecheck configuration from an optional YAML file
// with environment-variable overrides. The environment variable names match
// the deployment conventions of the surrounding Azure/ServiceNow tooling.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all clausecheck configuration.
type Config struct {
	// ReferencePath points at the static reference markdown document.
	ReferencePath string `yaml:"reference_path"`

	// OutputDir is where rendered reports land.
	OutputDir string `yaml:"output_dir"`

	Oracle     OracleConfig     `yaml:"oracle"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	ServiceNow ServiceNowConfig `yaml:"servicenow"`
	Server     ServerConfig     `yaml:"server"`
}

// OracleConfig configures the semantic-comparison endpoint.
type OracleConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	APIKey      string  `yaml:"api_key"`
	APIVersion  string  `yaml:"api_version"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     string  `yaml:"timeout"`
}

// AnalysisConfig configures the whole-contract analysis pass. The template
// files are deployment data, maintained next to the reference document.
type AnalysisConfig struct {
	PromptPath         string  `yaml:"prompt_path"`
	LegalTemplatePath  string  `yaml:"legal_template_path"`
	ResponseSchemaPath string  `yaml:"response_schema_path"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
}

// ServiceNowConfig configures the ticketing-system integration.
type ServiceNowConfig struct {
	Instance string `yaml:"instance"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads the YAML file at path (when non-empty), applies defaults and
// environment overrides, and returns the resulting configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ReferencePath: "fieldglass_service_description.md",
		Oracle: OracleConfig{
			Model: "gpt-4o",
		},
		Analysis: AnalysisConfig{
			PromptPath:         "prompt_template.txt",
			LegalTemplatePath:  "legal_template.txt",
			ResponseSchemaPath: "response_schema.json",
			Temperature:        0.3,
			MaxTokens:          4096,
		},
		Server: ServerConfig{
			Addr: ":5000",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv lets the environment override file values.
func (c *Config) applyEnv() {
	setIfPresent(&c.Oracle.Endpoint, "AZURE_OPENAI_ENDPOINT")
	setIfPresent(&c.Oracle.APIKey, "AZURE_OPENAI_API_KEY")
	setIfPresent(&c.Oracle.APIVersion, "AZURE_OPENAI_API_VERSION")
	setIfPresent(&c.Oracle.Model, "AZURE_OPENAI_MODEL")
	setIfPresent(&c.ServiceNow.Instance, "SERVICENOW_INSTANCE")
	setIfPresent(&c.ServiceNow.Username, "SERVICENOW_USER")
	setIfPresent(&c.ServiceNow.Password, "SERVICENOW_PASS")
	setIfPresent(&c.ReferencePath, "CLAUSECHECK_REFERENCE")
	setIfPresent(&c.OutputDir, "CLAUSECHECK_OUTPUT_DIR")
	setIfPresent(&c.Server.Addr, "CLAUSECHECK_ADDR")
}

func setIfPresent(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// ValidateOracle reports every missing oracle setting by name so deployment
// mistakes surface at startup, not on the first comparison call.
func (c *Config) ValidateOracle() error {
	var missing []string
	if c.Oracle.Endpoint == "" {
		missing = append(missing, "oracle.endpoint (AZURE_OPENAI_ENDPOINT)")
	}
	if c.Oracle.APIKey == "" {
		missing = append(missing, "oracle.api_key (AZURE_OPENAI_API_KEY)")
	}
	if c.Oracle.Model == "" {
		missing = append(missing, "oracle.model (AZURE_OPENAI_MODEL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing oracle configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateServiceNow reports every missing ServiceNow setting by name.
func (c *Config) ValidateServiceNow() error {
	var missing []string
	if c.ServiceNow.Instance == "" {
		missing = append(missing, "servicenow.instance (SERVICENOW_INSTANCE)")
	}
	if c.ServiceNow.Username == "" {
		missing = append(missing, "servicenow.username (SERVICENOW_USER)")
	}
	if c.ServiceNow.Password == "" {
		missing = append(missing, "servicenow.password (SERVICENOW_PASS)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing servicenow configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ServiceNowConfigured says whether the ticketing integration is usable.
func (c *Config) ServiceNowConfigured() bool {
	return c.ValidateServiceNow() == nil
}

// OracleTimeout parses the configured oracle timeout, zero when unset.
func (c *Config) OracleTimeout() (time.Duration, error) {
	if c.Oracle.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Oracle.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parsing oracle.timeout: %w", err)
	}
	return d, nil
}
