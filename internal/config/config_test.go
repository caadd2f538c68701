package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.nrpla.de", cfg.API.BaseURL)
	assert.Equal(t, "Kopi-af-Kopi-af-Km-beregning.xlsx", cfg.Files.KmWorkbook)
	assert.Equal(t, "Kopi-af-Bilafgifter-2021-v2.1-kopi.xlsx", cfg.Files.TaxWorkbook)
	assert.Equal(t, "efficiency * 0.1", cfg.Emission.DeriveExpression)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:8080"
token = "hemmelig"

[files]
km_workbook = "km.xlsx"
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, "hemmelig", cfg.API.Token)
	assert.Equal(t, "km.xlsx", cfg.Files.KmWorkbook)
	// Untouched sections keep their defaults.
	assert.Equal(t, "Kopi-af-Bilafgifter-2021-v2.1-kopi.xlsx", cfg.Files.TaxWorkbook)
	assert.Equal(t, "efficiency * 0.1", cfg.Emission.DeriveExpression)
}

func TestLoad_EnvTokenOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\ntoken = \"fra-filen\"\n"), 0644))
	t.Setenv("EXPORTTAX_API_TOKEN", "fra-miljøet")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fra-miljøet", cfg.API.Token)
}

func TestLoad_EnvConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "elsewhere.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api]\nbase_url = \"http://env-config\"\n"), 0644))
	t.Setenv("EXPORTTAX_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://env-config", cfg.API.BaseURL)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[api\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.API.Token = "gemt"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
