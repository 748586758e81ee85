package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. REVIEWLOOM_API_KEY.
const EnvPrefix = "REVIEWLOOM"

// Global configuration structure.
type Global struct {
	// Summary runtime
	SummaryProvider string  `mapstructure:"summary_provider" yaml:"summary_provider"`
	SummaryModel    string  `mapstructure:"summary_model" yaml:"summary_model"`
	APIKey          string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL         string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" yaml:"max_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Pipeline
	HeaderScanRows int    `mapstructure:"header_scan_rows" yaml:"header_scan_rows"`
	OntologyDir    string `mapstructure:"ontology_dir" yaml:"ontology_dir"`
	Workers        int    `mapstructure:"workers" yaml:"workers"`
	AnomalyDetails int    `mapstructure:"anomaly_details" yaml:"anomaly_details"`

	// Outputs and serving
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	UploadDir string `mapstructure:"upload_dir" yaml:"upload_dir"`
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Keys lists every settable key in file order.
var Keys = []string{
	"summary_provider", "summary_model", "api_key", "base_url", "temperature", "max_tokens",
	"http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms", "retry_max_delay_ms",
	"ollama_host", "header_scan_rows", "ontology_dir", "workers", "anomaly_details",
	"output_dir", "upload_dir", "serve_addr",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("summary_provider", "none")
	v.SetDefault("summary_model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 1024)
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	// Ollama defaults
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	// Pipeline defaults
	v.SetDefault("header_scan_rows", 10)
	v.SetDefault("ontology_dir", "")
	v.SetDefault("workers", 0)
	v.SetDefault("anomaly_details", 50)
	v.SetDefault("output_dir", "reviewloom-out")
	v.SetDefault("upload_dir", filepath.Join(os.TempDir(), "reviewloom-uploads"))
	v.SetDefault("serve_addr", ":8080")
}

// DefaultPath is ~/.reviewloom/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".reviewloom", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.reviewloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// The default file is optional.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.SummaryProvider = strings.ToLower(strings.TrimSpace(c.SummaryProvider))
	return &c, nil
}

// Set assigns one key from its string form, validating the type.
func Set(c *Global, key, value string) error {
	v := viper.New()
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(string(b))); err != nil {
		return fmt.Errorf("read current config: %w", err)
	}
	if !knownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	v.Set(key, value)
	var out Global
	if err := v.Unmarshal(&out); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*c = out
	return nil
}

func knownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Masked returns a copy safe to print: the API key keeps only its last four characters.
func (c Global) Masked() Global {
	if n := len(c.APIKey); n > 0 {
		if n <= 4 {
			c.APIKey = strings.Repeat("*", n)
		} else {
			c.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
		}
	}
	return c
}
