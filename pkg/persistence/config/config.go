package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/persistence/pkg/persistence/internalerr"
	"github.com/cognicore/persistence/pkg/persistence/occurrence"
	"github.com/cognicore/persistence/pkg/persistence/series"
	"github.com/cognicore/persistence/pkg/persistence/tdm"
)

// Parameterization selects one term-document matrix and weighting.
type Parameterization struct {
	Suffix string `yaml:"suffix"` // tdm.sparse<suffix>.csv
	IDF    bool   `yaml:"idf"`
	Label  string `yaml:"label"` // column header in the output tables
}

// Outputs names the files written to OutputDir.
type Outputs struct {
	Persistence   string `yaml:"persistence"`
	MovingAverage string `yaml:"moving_average"`
	CountsPrefix  string `yaml:"counts_prefix"`
	Precision     int    `yaml:"precision"`
	Workbook      string `yaml:"workbook"` // optional .xlsx
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is everything one analysis run needs.
type Config struct {
	TDMDir        string `yaml:"tdm_dir"`
	StatementsDir string `yaml:"statements_dir"`
	OutputDir     string `yaml:"output_dir"`
	Database      string `yaml:"database"` // optional SQLite run history

	DateOffset int  `yaml:"date_offset"`
	Window     int  `yaml:"window"`
	LenientIDF bool `yaml:"lenient_idf"`
	Workers    int  `yaml:"workers"`

	Parameterizations []Parameterization  `yaml:"parameterizations"`
	Searches          []occurrence.Search `yaml:"searches"`

	Outputs Outputs `yaml:"outputs"`
	Logging Logging `yaml:"logging"`
}

// Default reproduces the published analysis: three levels of
// preprocessing, an eight-meeting moving average and the figure-1 searches.
func Default() Config {
	return Config{
		TDMDir:        "tdm",
		StatementsDir: "statements/statements.clean.np",
		OutputDir:     "output",
		DateOffset:    tdm.DefaultDateOffset,
		Window:        series.DefaultWindow,
		Parameterizations: []Parameterization{
			{Suffix: ".np", IDF: false, Label: "Baseline"},
			{Suffix: "", IDF: false, Label: "Preprocessing"},
			{Suffix: "", IDF: true, Label: "Preprocessing + IDF"},
		},
		Searches: []occurrence.Search{
			{Name: "piexp", Terms: []string{"inflation expectations", "inflationary expectations"}},
			{Name: "prod", Terms: []string{"productive", "productivity"}},
			{Name: "energy", Terms: []string{"energy", "commodity", "commodities", "oil"}},
			{Name: "foreign", Terms: []string{"foreign", "global", "abroad", "geopolitical"}},
			{Name: "weather", Terms: []string{"weather", "hurricane", "katrina", "winter"}},
			{Name: "all"},
		},
		Outputs: Outputs{
			Persistence:   "persistence_AM15.csv",
			MovingAverage: "persistenceMA_AM15.csv",
			CountsPrefix:  "counts_",
			Precision:     2,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file over the defaults. Keys absent from the file keep
// their default values; lists present in the file replace the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that would produce ambiguous or
// overwritten output.
func (c Config) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return internalerr.Config("output_dir is required")
	}
	if c.Window < 1 {
		return internalerr.Config("window must be positive, got %d", c.Window)
	}
	if c.DateOffset < 0 {
		return internalerr.Config("date_offset must not be negative, got %d", c.DateOffset)
	}
	if c.Outputs.Precision < 0 {
		return internalerr.Config("outputs.precision must not be negative, got %d", c.Outputs.Precision)
	}

	if len(c.Parameterizations) > 0 && strings.TrimSpace(c.TDMDir) == "" {
		return internalerr.Config("tdm_dir is required when parameterizations are set")
	}
	labels := make(map[string]struct{}, len(c.Parameterizations))
	for i, p := range c.Parameterizations {
		if strings.TrimSpace(p.Label) == "" {
			return internalerr.Config("parameterization %d has no label", i)
		}
		if _, ok := labels[p.Label]; ok {
			return internalerr.Config("duplicate parameterization label %q", p.Label)
		}
		labels[p.Label] = struct{}{}
	}

	if len(c.Searches) > 0 && strings.TrimSpace(c.StatementsDir) == "" {
		return internalerr.Config("statements_dir is required when searches are set")
	}
	names := make(map[string]struct{}, len(c.Searches))
	for i, s := range c.Searches {
		if strings.TrimSpace(s.Name) == "" {
			return internalerr.Config("search %d has no name", i)
		}
		if strings.ContainsAny(s.Name, `/\`) {
			return internalerr.Config("search name %q must not contain a path separator", s.Name)
		}
		if _, ok := names[s.Name]; ok {
			return internalerr.Config("duplicate search name %q", s.Name)
		}
		names[s.Name] = struct{}{}
	}
	return nil
}
