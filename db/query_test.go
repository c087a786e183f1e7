package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termfx/symdex/models"
)

func seedSymbol(t *testing.T, store *Store, fileID int64, name string, kind models.SymbolKind, lineStart, lineEnd int) {
	t.Helper()
	_, err := store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: name, Kind: kind, LineStart: lineStart, LineEnd: lineEnd,
	})
	require.NoError(t, err)
}

func TestFindSymbolsByName(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "my_function", models.KindFunction, 10, 20)

	found, err := store.FindSymbolsByName("my_function")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "my_function", found[0].Name)

	// Equality match is case-sensitive.
	missed, err := store.FindSymbolsByName("My_Function")
	require.NoError(t, err)
	assert.Empty(t, missed)
}

func TestFindSymbolsByKind(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "f", models.KindFunction, 1, 2)
	seedSymbol(t, store, fileID, "C", models.KindClass, 5, 9)

	classes, err := store.FindSymbolsByKind(models.KindClass)
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "C", classes[0].Name)
}

func TestFindSymbolsByNameAndKind(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "process", models.KindFunction, 10, 20)
	seedSymbol(t, store, fileID, "process", models.KindVariable, 5, 5)

	functions, err := store.FindSymbolsByNameAndKind("process", models.KindFunction)
	require.NoError(t, err)
	require.Len(t, functions, 1)
	assert.Equal(t, models.KindFunction, functions[0].Kind)

	variables, err := store.FindSymbolsByNameAndKind("process", models.KindVariable)
	require.NoError(t, err)
	require.Len(t, variables, 1)
	assert.Equal(t, models.KindVariable, variables[0].Kind)
}

func TestFindSymbolsByFilePathOrdersByLine(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	// Inserted out of document order on purpose.
	seedSymbol(t, store, fileID, "MyClass", models.KindClass, 25, 40)
	seedSymbol(t, store, fileID, "my_function", models.KindFunction, 10, 20)

	found, err := store.FindSymbolsByFilePath("test.py")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "my_function", found[0].Name)
	assert.Equal(t, "MyClass", found[1].Name)

	for i := 1; i < len(found); i++ {
		assert.GreaterOrEqual(t, found[i].LineStart, found[i-1].LineStart)
	}
}

func TestFindSymbolsByFilePathNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.FindSymbolsByFilePath("missing.py")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindSymbolsByFileAndKind(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "f", models.KindFunction, 3, 4)
	seedSymbol(t, store, fileID, "g", models.KindFunction, 1, 2)
	seedSymbol(t, store, fileID, "C", models.KindClass, 0, 9)

	functions, err := store.FindSymbolsByFileAndKind(fileID, models.KindFunction)
	require.NoError(t, err)
	require.Len(t, functions, 2)
	assert.Equal(t, "g", functions[0].Name)
	assert.Equal(t, "f", functions[1].Name)
}

func TestFindImportsByFile(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "os", models.KindImport, 1, 1)
	seedSymbol(t, store, fileID, "sys", models.KindImport, 2, 2)
	seedSymbol(t, store, fileID, "my_function", models.KindFunction, 10, 20)

	imports, err := store.FindImportsByFile("test.py")
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "os", imports[0].Name)
	assert.Equal(t, "sys", imports[1].Name)
}

func TestFindExportsByFileIsEmptyUntilExtracted(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.ts"))
	require.NoError(t, err)
	seedSymbol(t, store, fileID, "f", models.KindFunction, 1, 2)

	exports, err := store.FindExportsByFile("test.ts")
	require.NoError(t, err)
	assert.Empty(t, exports)

	_, err = store.FindExportsByFile("missing.ts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiles(t *testing.T) {
	store := newTestStore(t)
	_, err := store.UpsertFile(testFile("a.py"))
	require.NoError(t, err)
	_, err = store.UpsertFile(testFile("b.py"))
	require.NoError(t, err)

	files, err := store.ListFiles()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestLanguageStats(t *testing.T) {
	store := newTestStore(t)

	py1 := testFile("a.py")
	py2 := testFile("b.py")
	py2.Size = 2048
	rs := &models.File{Path: "c.rs", Language: "rust", Size: 512}

	for _, f := range []*models.File{py1, py2, rs} {
		_, err := store.UpsertFile(f)
		require.NoError(t, err)
	}

	stats, err := store.LanguageStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byLang := make(map[string]models.LanguageStat)
	for _, stat := range stats {
		byLang[stat.Language] = stat
	}
	assert.Equal(t, int64(2), byLang["python"].FileCount)
	assert.Equal(t, int64(3072), byLang["python"].TotalSize)
	assert.Equal(t, int64(1), byLang["rust"].FileCount)
	assert.Equal(t, int64(512), byLang["rust"].TotalSize)
}

func TestGetFilePathByID(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	path, err := store.GetFilePathByID(fileID)
	require.NoError(t, err)
	assert.Equal(t, "test.py", path)

	_, err = store.GetFilePathByID(99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKindFallbackOnRead(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	// Write a kind outside the closed set directly; reads soften it to
	// variable while preserving the record.
	err = store.DB().Exec(
		"INSERT INTO symbols (file_id, name, kind, line_start, line_end) VALUES (?, ?, ?, ?, ?)",
		fileID, "odd", "Widget", 1, 1,
	).Error
	require.NoError(t, err)

	found, err := store.FindSymbolsByName("odd")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.KindVariable, found[0].Kind)
}

func TestInsertedSymbolRoundTrips(t *testing.T) {
	store := newTestStore(t)
	fileID, err := store.UpsertFile(testFile("test.py"))
	require.NoError(t, err)

	scope := "Outer"
	_, err = store.InsertSymbol(&models.Symbol{
		FileID: fileID, Name: "inner", Kind: models.KindFunction,
		LineStart: 3, LineEnd: 8, Scope: &scope,
	})
	require.NoError(t, err)

	found, err := store.FindSymbolsByNameAndKind("inner", models.KindFunction)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, fileID, found[0].FileID)
	assert.Equal(t, 3, found[0].LineStart)
	assert.Equal(t, 8, found[0].LineEnd)
	require.NotNil(t, found[0].Scope)
	assert.Equal(t, "Outer", *found[0].Scope)
}
