package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvDSN names the environment variable consulted when no DSN is configured.
const EnvDSN = "OWEDBOOK_DB_URL"

// Config holds all runtime configuration for an owedbook run.
type Config struct {
	DSN          string  `yaml:"dsn"`
	LogFormat    string  `yaml:"log_format"` // "text" or "json"
	LogLevel     string  `yaml:"log_level"`
	FixedFee     float64 `yaml:"fixed_fee"`
	ReportDir    string  `yaml:"report_dir"`
	InclusionDir string  `yaml:"inclusion_dir"`
	BaselineFile string  `yaml:"baseline_file"`
	AltRatesFile string  `yaml:"alt_rates_file"`
	PayerFile    string  `yaml:"payer_file"`
	ListenAddr   string  `yaml:"listen_addr"`
	FromEmail    string  `yaml:"from_email"`
}

// Default returns the configuration used when neither a file nor flags
// override a value.
func Default() Config {
	return Config{
		LogFormat:    "text",
		LogLevel:     "info",
		FixedFee:     10.64,
		ReportDir:    "ReimbursementReports",
		InclusionDir: "inclusion_lists",
		BaselineFile: "inclusion_AAClist.xlsx",
		AltRatesFile: "inclusion_WACMckFullLoad.csv",
		PayerFile:    "inclusion_PBMlist.xlsx",
		ListenAddr:   ":8080",
		FromEmail:    "Pharmacy Owedbook <noreply@example.com>",
	}
}

// LoadFromFile reads a YAML config file and merges its values into Config.
// Keys absent from the file keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ApplyEnv fills DSN from the environment when it is still empty.
func (c *Config) ApplyEnv() {
	if c.DSN == "" {
		c.DSN = os.Getenv(EnvDSN)
	}
}

// Validate checks option values that do not need a database.
func (c *Config) Validate() error {
	var errs []error
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be text or json, got %q", c.LogFormat))
	}
	if c.FixedFee < 0 {
		errs = append(errs, fmt.Errorf("fixed fee must not be negative, got %v", c.FixedFee))
	}
	if c.ReportDir == "" {
		errs = append(errs, errors.New("report dir is required"))
	}
	return errors.Join(errs...)
}

// ValidateWithDSN runs Validate and additionally requires a DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or %s is required", EnvDSN)
	}
	return nil
}

// RefFile resolves a reference file name against InclusionDir. Absolute
// names and the empty name are returned unchanged.
func (c *Config) RefFile(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.InclusionDir, name)
}
