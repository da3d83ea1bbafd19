package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window: 4\noutput_dir: from-file\ntdm_dir: tdm-file\n"), 0o644))

	o, err := parseFlags([]string{"--config", path, "-o", "from-flag", "--xlsx", "out.xlsx", "--lenient-idf"})
	require.NoError(t, err)

	cfg, err := resolveConfig(o)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Window, "file value kept when flag unset")
	assert.Equal(t, "from-flag", cfg.OutputDir)
	assert.Equal(t, "tdm-file", cfg.TDMDir)
	assert.Equal(t, "out.xlsx", cfg.Outputs.Workbook)
	assert.True(t, cfg.LenientIDF)
}

func TestParseFlagsRejectsArgs(t *testing.T) {
	_, err := parseFlags([]string{"stray"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--window", "eight"})
	assert.Error(t, err)
}

func TestRunListRunsNeedsDB(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"--list-runs", "5"}, &out)
	assert.Error(t, err)
}

func TestRunWritesOutputs(t *testing.T) {
	root := t.TempDir()
	tdmDir := filepath.Join(root, "tdm")
	stmtDir := filepath.Join(root, "statements")
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(tdmDir, 0o755))
	require.NoError(t, os.MkdirAll(stmtDir, 0o755))

	docs := "statement.fomc.20010101\nstatement.fomc.20020202\n"
	for _, suffix := range []string{".np", ""} {
		require.NoError(t, os.WriteFile(filepath.Join(tdmDir, "tdm.sparse"+suffix+".csv"), []byte("0,0,1\n0,1,1\n1,0,1\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(tdmDir, "tdm.words"+suffix+".csv"), []byte("rate\ninflation\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(tdmDir, "tdm.docs"+suffix+".csv"), []byte(docs), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(stmtDir, "statement.fomc.20010101"), []byte("oil and energy"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(stmtDir, "statement.fomc.20020202"), []byte("rates held"), 0o644))

	dbPath := filepath.Join(root, "runs.db")
	args := []string{
		"--tdm-dir", tdmDir,
		"--statements-dir", stmtDir,
		"--out", outDir,
		"--db", dbPath,
		"--log-level", "error",
	}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), args, &out))

	var s summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &s))
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, 1, s.Rows)
	assert.Equal(t, []string{"Baseline", "Preprocessing", "Preprocessing + IDF"}, s.Series)
	assert.Len(t, s.Searches, 6)
	assert.FileExists(t, filepath.Join(outDir, "persistence_AM15.csv"))
	assert.FileExists(t, filepath.Join(outDir, "counts_energy.csv"))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"--db", dbPath, "--list-runs", "1", "--log-level", "error"}, &out))
	assert.Contains(t, out.String(), s.RunID)
}
