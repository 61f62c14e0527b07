// Package config loads the qrzsync configuration file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultDSN = "QSL"

// Config represents the complete tool configuration: QRZ.com credentials,
// the ODBC data source, and the statuses that block row updates.
type Config struct {
	Username          string   `json:"username"`
	Password          string   `json:"password"`
	Agent             string   `json:"agent"`
	DSN               string   `json:"dsn"`
	NonUpdateStatuses []string `json:"non_update_statuses"`
}

// Load loads configuration from a JSON file. Environment variables
// (optionally supplied through a .env file in the working directory)
// override the file values so credentials can stay out of the config.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DSN) == "" {
		c.DSN = defaultDSN
	}
	if len(c.NonUpdateStatuses) == 0 {
		c.NonUpdateStatuses = []string{"SK", "SILENT KEY"}
	}
}

func (c *Config) applyEnv() {
	_ = godotenv.Load()
	if v := os.Getenv("QRZ_USERNAME"); v != "" {
		c.Username = v
	}
	if v := os.Getenv("QRZ_PASSWORD"); v != "" {
		c.Password = v
	}
	if v := os.Getenv("QRZ_AGENT"); v != "" {
		c.Agent = v
	}
	if v := os.Getenv("QRZ_DSN"); v != "" {
		c.DSN = v
	}
}

// SuppressesUpdate reports whether a stored status value blocks writes to
// its row. Matching is exact, the way the statuses appear in the table.
func (c *Config) SuppressesUpdate(status string) bool {
	for _, s := range c.NonUpdateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Print displays the configuration without the password.
func (c *Config) Print() {
	fmt.Printf("QRZ user: %s (agent %s)\n", c.Username, c.Agent)
	fmt.Printf("ODBC DSN: %s\n", c.DSN)
	if len(c.NonUpdateStatuses) > 0 {
		fmt.Printf("Protected statuses: %s\n", strings.Join(c.NonUpdateStatuses, ", "))
	}
}
