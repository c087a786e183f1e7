package db

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symdex/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "index.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testFile(path string) *models.File {
	return &models.File{Path: path, Language: "python", Size: 1024}
}

func TestOpenAppliesWALMode(t *testing.T) {
	store := newTestStore(t)

	var journalMode string
	err := store.DB().Raw("PRAGMA journal_mode").Scan(&journalMode).Error
	require.NoError(t, err)
	assert.Equal(t, "wal", journalMode)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	store, err := Open(path, false)
	require.NoError(t, err)
	_, err = store.UpsertFile(testFile("a.py"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Re-opening runs the DDL again; existing rows survive.
	store, err = Open(path, false)
	require.NoError(t, err)
	defer store.Close()

	files, err := store.ListFiles()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "index.db")
	store, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestUpsertFile(t *testing.T) {
	store := newTestStore(t)

	id, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	assert.Positive(t, id)

	retrieved, err := store.GetFileByPath("test.py")
	require.NoError(t, err)
	assert.Equal(t, "test.py", retrieved.Path)
	assert.Equal(t, "python", retrieved.Language)
	require.NotNil(t, retrieved.LastIndexed)
}

func TestUpsertFileConflictKeepsID(t *testing.T) {
	store := newTestStore(t)

	first, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	updated := testFile("test.py")
	updated.Size = 4096
	second, err := store.UpsertFile(updated)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	retrieved, err := store.GetFileByPath("test.py")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), retrieved.Size)

	files, err := store.ListFiles()
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestInsertSymbol(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	id, err := store.InsertSymbol(&models.Symbol{
		FileID:    fileID,
		Name:      "test_function",
		Kind:      models.KindFunction,
		LineStart: 10,
		LineEnd:   20,
	})
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestInsertSymbolConflictUpdates(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	first, err := store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: "process", Kind: models.KindFunction, LineStart: 10, LineEnd: 20,
	})
	require.NoError(t, err)

	// Same business key, different remaining fields.
	second, err := store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: "process", Kind: models.KindVariable, LineStart: 10, LineEnd: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	symbols, err := store.FindSymbolsByName("process")
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, models.KindVariable, symbols[0].Kind)
	assert.Equal(t, 12, symbols[0].LineEnd)
}

func TestDeleteFileSymbols(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.InsertSymbol(&models.Symbol{
			FileID: fileID, Name: "sym", Kind: models.KindFunction, LineStart: i, LineEnd: i,
		})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteFileSymbols(fileID))

	symbols, err := store.FindSymbolsByFilePath("test.py")
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestDeleteFileCascades(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	_, err = store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: "orphan_check", Kind: models.KindFunction, LineStart: 1, LineEnd: 2,
	})
	require.NoError(t, err)
	require.NoError(t, store.ReplaceFileDependencies(fileID, []models.Dependency{{ImportPath: "os"}}))

	require.NoError(t, store.DeleteFile(fileID))

	symbols, err := store.FindSymbolsByName("orphan_check")
	require.NoError(t, err)
	assert.Empty(t, symbols)

	var depCount int64
	require.NoError(t, store.DB().Raw("SELECT COUNT(*) FROM dependencies").Scan(&depCount).Error)
	assert.Zero(t, depCount)
}

func TestReplaceFileDependencies(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	line := 1
	require.NoError(t, store.ReplaceFileDependencies(fileID, []models.Dependency{
		{ImportPath: "os", LineNumber: &line},
		{ImportPath: "sys"},
	}))

	deps, err := store.ListDependenciesByFile("test.py")
	require.NoError(t, err)
	require.Len(t, deps, 2)

	// A second replace refreshes rather than accumulates.
	require.NoError(t, store.ReplaceFileDependencies(fileID, []models.Dependency{{ImportPath: "pathlib"}}))
	deps, err = store.ListDependenciesByFile("test.py")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	assert.Equal(t, "pathlib", deps[0].ImportPath)
}

func TestSetFileParseErrors(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("broken.py"))
	require.NoError(t, err)

	require.NoError(t, store.SetFileParseErrors(fileID, 3))

	retrieved, err := store.GetFileByPath("broken.py")
	require.NoError(t, err)
	assert.Equal(t, 3, retrieved.ParseErrors)
}

func TestOptimizeKeepsStoreQueryable(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	_, err = store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: "test_func", Kind: models.KindFunction, LineStart: 1, LineEnd: 10,
	})
	require.NoError(t, err)

	require.NoError(t, store.Optimize())
	require.NoError(t, store.UpdateStatistics())

	symbols, err := store.FindSymbolsByName("test_func")
	require.NoError(t, err)
	assert.Len(t, symbols, 1)
}

func TestAnalyzeQueryPlan(t *testing.T) {
	store := newTestStore(t)

	plan, err := store.AnalyzeQueryPlan("SELECT * FROM symbols WHERE name = 'test'")
	require.NoError(t, err)
	assert.True(t,
		strings.Contains(plan, "idx_symbols_name") || strings.Contains(plan, "SEARCH"),
		"plan should mention the name index or a search step: %q", plan)
}
