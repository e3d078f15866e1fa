// Package config reads and writes the tally.yaml project file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file name.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Business     BusinessConfig `yaml:"business"`
	Ledger       LedgerConfig   `yaml:"ledger"`
	BankAccounts []BankAccount  `yaml:"bank_accounts,omitempty"`
}

// BusinessConfig identifies the entity the books belong to.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// LedgerConfig holds ledger-wide settings.
type LedgerConfig struct {
	// Currency is the ledger currency code, e.g. "USD".
	Currency string `yaml:"currency"`
	// Database is the ledger database path, relative to the project
	// root.
	Database string `yaml:"database"`
}

// BankAccount maps a bank statement feed to an account in the chart.
type BankAccount struct {
	Name        string `yaml:"name"`
	Format      string `yaml:"format"` // statement parser format, e.g. "chase"
	LastFour    string `yaml:"last_four,omitempty"`
	AccountCode string `yaml:"account_code"` // full code in the chart
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Ledger.Currency == "" {
		cfg.Ledger.Currency = "USD"
	}
	if cfg.Ledger.Database == "" {
		cfg.Ledger.Database = "ledger.db"
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, currency string) *Config {
	if currency == "" {
		currency = "USD"
	}
	return &Config{
		Business: BusinessConfig{Name: businessName},
		Ledger: LedgerConfig{
			Currency: currency,
			Database: "ledger.db",
		},
	}
}
