package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := fmt.Sprintf(`
database:
  path: %q
storage:
  upload_dir: %q
  report_dir: %q
log:
  level: error
seed_file: %q
`,
		filepath.Join(dir, "lookup.db"),
		filepath.Join(dir, "uploads"),
		filepath.Join(dir, "reports"),
		filepath.Join(dir, "missing-seed.yaml"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	src := filepath.Join(dir, "maker.csv")
	require.NoError(t, os.WriteFile(src, []byte(
		"TITLE,Maker,Pcs,Price,Total,Category,Origin,品番\n"+
			"Cup,NPG,2,400,800,雑貨,China,A1\n"+
			"Gel,NPG,1,1200,1200,雑貨,China,B1\n"), 0o644))
	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("foo,bar\n1,2\n"), 0o644))

	outDir := filepath.Join(dir, "out")
	out := execute(t, "--config", cfgPath, "run", "--out", outDir, "--format", "json", "--gross-ratio", "1.1", src, broken)

	var sum runSummary
	require.NoError(t, json.Unmarshal([]byte(out), &sum), out)
	assert.Equal(t, 2, sum.Records)
	assert.Equal(t, 1, sum.FilesOK)
	assert.Len(t, sum.FilesFailed, 1)
	assert.Equal(t, 1.1, sum.GrossRatio)
	assert.Equal(t, ".json", filepath.Ext(sum.Output))

	_, err := os.Stat(sum.Output)
	assert.NoError(t, err)
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "--config", writeTestConfig(t, dir), "migrate")
	assert.Contains(t, out, "schema version 1")
}

func TestCleanupMappingsCommand(t *testing.T) {
	dir := t.TempDir()
	out := execute(t, "--config", writeTestConfig(t, dir), "cleanup-mappings")
	assert.Contains(t, out, "deleted 0 empty product mappings")
}
