package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inputCSV = "ID,Date,Department,Category,Amount,Status\n" +
	"T1,2024-01-05,Vendas,Serviços,1500,APPROVED\n" +
	"T2,2024-01-06,TI,Hardware,250,pending\n"

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte(inputCSV), 0644))

	cfg := fmt.Sprintf(`input_file: %q
output_file: %q
logging:
  level: warn
  output: console
telemetry:
  metrics: false
`, input, filepath.Join(dir, "out", "processed.xlsx"))
	path := filepath.Join(dir, "etl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run(context.Background(), []string{"-config", writeConfig(t, dir)}))

	assert.FileExists(t, filepath.Join(dir, "out", "processed.xlsx"))
	assert.FileExists(t, filepath.Join(dir, "out", "processed.csv"))
}

func TestRunOutputOverride(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "custom", "result.xlsx")
	require.NoError(t, run(context.Background(), []string{"-config", writeConfig(t, dir), "-out", out}))

	assert.FileExists(t, out)
	assert.NoFileExists(t, filepath.Join(dir, "out", "processed.xlsx"))
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	err := run(context.Background(), []string{"-config", writeConfig(t, dir), "-in", filepath.Join(dir, "absent.csv")})
	assert.Error(t, err)
}

func TestRunBadConfigPath(t *testing.T) {
	err := run(context.Background(), []string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestRunBadFlag(t *testing.T) {
	assert.Error(t, run(context.Background(), []string{"-unknown"}))
}
