// Package config loads the calculator's configuration from a TOML file with
// environment overrides, replacing what used to be embedded constants.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"exporttax/internal/emission"
)

// Config is passed explicitly into the workflow; nothing reads globals.
type Config struct {
	API      APIConfig      `toml:"api"`
	Files    FilesConfig    `toml:"files"`
	Emission EmissionConfig `toml:"emission"`
}

// APIConfig locates and authenticates the vehicle data API.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// FilesConfig names the two workbook templates the workflow fills in.
type FilesConfig struct {
	KmWorkbook  string `toml:"km_workbook"`
	TaxWorkbook string `toml:"tax_workbook"`
}

// EmissionConfig holds the CO2 proxy derivation expression.
type EmissionConfig struct {
	DeriveExpression string `toml:"derive_expression"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://api.nrpla.de",
		},
		Files: FilesConfig{
			KmWorkbook:  "Kopi-af-Kopi-af-Km-beregning.xlsx",
			TaxWorkbook: "Kopi-af-Bilafgifter-2021-v2.1-kopi.xlsx",
		},
		Emission: EmissionConfig{
			DeriveExpression: emission.DefaultDeriveExpression,
		},
	}
}

// Load reads the configuration from path. An empty path falls back to
// EXPORTTAX_CONFIG and then to config.toml next to the executable; a missing
// file yields the defaults. EXPORTTAX_API_TOKEN overrides the token either
// way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("EXPORTTAX_CONFIG")
	}
	if path == "" {
		exeDir := "."
		if exe, err := os.Executable(); err == nil {
			exeDir = filepath.Dir(exe)
		}
		path = filepath.Join(exeDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file, run on defaults.
	case err != nil:
		return nil, fmt.Errorf("read config %q: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if token := os.Getenv("EXPORTTAX_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	return cfg, nil
}

// Save writes the configuration to path as TOML.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
