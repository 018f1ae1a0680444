package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config controls how much synthetic legacy data the seeder generates and
// where it writes it.
type Config struct {
	PrimaryURL string `yaml:"primary_url"`
	ArchiveURL string `yaml:"archive_url"`
	Subjects   int    `yaml:"subjects"`
	Inquiries  int    `yaml:"inquiries"`
	// BaseID is the first generated inquiry id; ids are assigned
	// sequentially from it.
	BaseID int64 `yaml:"base_id"`
	// Seed fixes the random source for reproducible datasets. Zero picks a
	// random seed.
	Seed int64 `yaml:"seed"`
}

// Default returns the development defaults, matching the migrator's own.
func Default() *Config {
	return &Config{
		PrimaryURL: "postgres://localhost:5432/henvendelse?sslmode=disable",
		ArchiveURL: "postgres://localhost:5432/henvendelsearkiv?sslmode=disable",
		Subjects:   50,
		Inquiries:  500,
		BaseID:     1000,
	}
}

// Load reads a YAML config file, falling back to defaults for absent fields.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse seed config: %w", err)
	}
	return cfg, nil
}

// Sample renders the default config as YAML for bootstrapping a config file.
func Sample() (string, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshal seed config: %w", err)
	}
	return string(data), nil
}
