package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/finimport/internal/importlog"
)

func setupRepo(t *testing.T) string {
	t.Helper()
	repo := t.TempDir()
	importDir := filepath.Join(repo, "import")
	copyFixture(t, "extrato_nubank.csv", importDir, "extrato.csv")
	copyFixture(t, "statement.ofx", importDir, "statement.ofx")
	return repo
}

func TestScan_ImportsAndMoves(t *testing.T) {
	repo := setupRepo(t)

	out, err := runFinimport(t, "scan", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "extrato.csv (csv): 5 new, 0 duplicates, 2 rows skipped")
	assert.Contains(t, out, "statement.ofx (ofx): 3 new")
	assert.Contains(t, out, "8 imported, 0 duplicates, 2 rows skipped across 2 files")

	entries, err := importlog.Read(repo)
	require.NoError(t, err)
	require.Len(t, entries, 8)
	assert.Equal(t, "extrato.csv", entries[0].File)
	assert.Equal(t, "ext:a1b2c3d4-0001", entries[0].DedupKey)

	for _, name := range []string{"extrato.csv", "statement.ofx"} {
		_, err := os.Stat(filepath.Join(repo, "import", "processed", name))
		assert.NoError(t, err, "%s should be in processed/", name)
		_, err = os.Stat(filepath.Join(repo, "import", name))
		assert.True(t, os.IsNotExist(err), "%s should have left import/", name)
	}
}

func TestScan_SkipsDuplicatesFromLog(t *testing.T) {
	repo := setupRepo(t)
	_, err := runFinimport(t, "scan", "--repo", repo)
	require.NoError(t, err)

	copyFixture(t, "extrato_nubank.csv", filepath.Join(repo, "import"), "extrato-again.csv")
	out, err := runFinimport(t, "scan", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "0 imported, 5 duplicates")

	entries, err := importlog.Read(repo)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestScan_KeepsIdenticalRowsInOneFile(t *testing.T) {
	repo := t.TempDir()
	importDir := filepath.Join(repo, "import")
	require.NoError(t, os.MkdirAll(importDir, 0o755))
	csv := "Data,Valor,Descrição\n01/11/2025,-5.00,Cafe\n01/11/2025,-5.00,Cafe\n"
	require.NoError(t, os.WriteFile(filepath.Join(importDir, "cafe.csv"), []byte(csv), 0o644))

	out, err := runFinimport(t, "scan", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "cafe.csv (csv): 2 new, 0 duplicates")

	entries, err := importlog.Read(repo)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEqual(t, entries[0].DedupKey, entries[1].DedupKey)

	require.NoError(t, os.WriteFile(filepath.Join(importDir, "cafe-again.csv"), []byte(csv), 0o644))
	out, err = runFinimport(t, "scan", "--repo", repo)
	require.NoError(t, err)
	assert.Contains(t, out, "0 imported, 2 duplicates")
}

func TestScan_DryRun(t *testing.T) {
	repo := setupRepo(t)

	out, err := runFinimport(t, "scan", "--repo", repo, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "[dry run] 8 imported")

	entries, err := importlog.Read(repo)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = os.Stat(filepath.Join(repo, "import", "extrato.csv"))
	assert.NoError(t, err)
}

func TestScan_NoFiles(t *testing.T) {
	out, err := runFinimport(t, "scan", "--repo", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "no statement files")
}

func TestScan_FailedFileStaysInPlace(t *testing.T) {
	repo := setupRepo(t)
	bad := filepath.Join(repo, "import", "broken.csv")
	require.NoError(t, os.WriteFile(bad, []byte("foo;bar\n1;2\n"), 0o644))

	out, err := runFinimport(t, "scan", "--repo", repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")
	assert.Contains(t, out, "broken.csv: MISSING_REQUIRED_COLUMNS")

	_, err = os.Stat(bad)
	assert.NoError(t, err)
	entries, err := importlog.Read(repo)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestScan_Commit(t *testing.T) {
	repo := t.TempDir()
	_, err := runFinimport(t, "init", repo, "--git")
	require.NoError(t, err)
	copyFixture(t, "statement.ofx", filepath.Join(repo, "import"), "statement.ofx")

	out, err := runFinimport(t, "scan", "--repo", repo, "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "committed")

	assert.Contains(t, gitOutput(t, repo, "log", "--format=%s", "-1"), "import: 3 transactions from 1 files")
	files := gitOutput(t, repo, "ls-files")
	assert.Contains(t, files, "logs/import-log.csv")
	assert.Contains(t, files, "import/processed/statement.ofx")
}

func TestScan_CommitOutsideRepo(t *testing.T) {
	repo := setupRepo(t)
	out, err := runFinimport(t, "scan", "--repo", repo, "--commit")
	require.NoError(t, err)
	assert.Contains(t, out, "not a git repository")
}
