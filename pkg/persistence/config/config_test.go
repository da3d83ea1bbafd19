package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
)

func TestDefaultMatchesPublishedAnalysis(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8, cfg.Window)
	assert.Equal(t, 15, cfg.DateOffset)
	require.Len(t, cfg.Parameterizations, 3)
	assert.Equal(t, Parameterization{Suffix: ".np", Label: "Baseline"}, cfg.Parameterizations[0])
	assert.Equal(t, Parameterization{Suffix: "", IDF: true, Label: "Preprocessing + IDF"}, cfg.Parameterizations[2])

	require.Len(t, cfg.Searches, 6)
	assert.Equal(t, "all", cfg.Searches[5].Name)
	assert.True(t, cfg.Searches[5].Total())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persistence.yaml")
	data := `
tdm_dir: /data/tdm
window: 4
parameterizations:
  - suffix: .np
    label: Raw
searches:
  - name: rates
    terms: [federal funds rate]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/tdm", cfg.TDMDir)
	assert.Equal(t, 4, cfg.Window)
	assert.Equal(t, "output", cfg.OutputDir, "unset keys keep defaults")
	assert.Equal(t, []Parameterization{{Suffix: ".np", Label: "Raw"}}, cfg.Parameterizations)
	require.Len(t, cfg.Searches, 1)
	assert.Equal(t, []string{"federal funds rate"}, cfg.Searches[0].Terms)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "persistence_AM15.csv", cfg.Outputs.Persistence)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("/nonexistent/persistence.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: [not, a, number]"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"duplicate label", func(c *Config) { c.Parameterizations[1].Label = "Baseline" }},
		{"empty label", func(c *Config) { c.Parameterizations[0].Label = " " }},
		{"zero window", func(c *Config) { c.Window = 0 }},
		{"negative offset", func(c *Config) { c.DateOffset = -1 }},
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"no tdm dir", func(c *Config) { c.TDMDir = "" }},
		{"no statements dir", func(c *Config) { c.StatementsDir = "" }},
		{"duplicate search", func(c *Config) { c.Searches[1].Name = "piexp" }},
		{"unnamed search", func(c *Config) { c.Searches[0].Name = "" }},
		{"search with separator", func(c *Config) { c.Searches[0].Name = "a/b" }},
		{"negative precision", func(c *Config) { c.Outputs.Precision = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), internalerr.ErrInvalidConfig)
		})
	}
}
