// Package bridge is the embedding boundary: a handle object bound to a
// database path, synchronous query wrappers, and one asynchronous indexing
// entry point. Every failure crossing the boundary collapses into a single
// runtime-error kind that preserves the original context chain.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/termfx/symdex/core"
	"github.com/termfx/symdex/db"
	"github.com/termfx/symdex/models"
)

// Error is the single error kind visible to the host.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{msg: fmt.Sprintf("%s: %v", op, err)}
}

// Engine is the host-facing handle, bound to a database path. Each call
// opens its own store connection; the schema DDL is idempotent so any
// connection may run it.
type Engine struct {
	dbPath string
}

// NewEngine binds a handle to the index database at dbPath.
func NewEngine(dbPath string) *Engine {
	return &Engine{dbPath: dbPath}
}

func (e *Engine) String() string {
	return fmt.Sprintf("Engine(db_path=%q)", e.dbPath)
}

func (e *Engine) open() (*db.Store, error) {
	store, err := db.Open(e.dbPath, false)
	if err != nil {
		return nil, wrapErr("failed to open database", err)
	}
	return store, nil
}

// InitDatabase creates the schema. Idempotent.
func (e *Engine) InitDatabase() error {
	store, err := e.open()
	if err != nil {
		return err
	}
	return wrapErr("failed to initialize database", store.Close())
}

// DiscoverFiles returns the indexable paths under the config root.
func (e *Engine) DiscoverFiles(config core.IndexerConfig) ([]string, error) {
	paths, err := core.DiscoverFiles(config)
	if err != nil {
		return nil, wrapErr("file discovery failed", err)
	}
	return paths, nil
}

// IndexFuture resolves to the metadata list of an asynchronous indexing run.
type IndexFuture struct {
	done  chan struct{}
	files []models.File
	err   error
}

// Done closes once the run has finished.
func (f *IndexFuture) Done() <-chan struct{} { return f.done }

// Wait blocks until the run finishes and returns its result.
func (f *IndexFuture) Wait() ([]models.File, error) {
	<-f.done
	return f.files, f.err
}

// IndexFiles starts an asynchronous indexing run and returns its future.
// Blocking work (discovery, reads, parsing, store writes) happens off the
// caller's goroutine; the progress callback is invoked from that worker and
// must be safe to call there. Cancelling the context stops the run between
// phases; in-flight file units complete and are not rolled back.
func (e *Engine) IndexFiles(ctx context.Context, config core.IndexerConfig, progress core.ProgressFunc) *IndexFuture {
	future := &IndexFuture{done: make(chan struct{})}

	go func() {
		defer close(future.done)

		store, err := e.open()
		if err != nil {
			future.err = err
			return
		}
		defer store.Close()

		paths, err := core.DiscoverFiles(config)
		if err != nil {
			future.err = wrapErr("file discovery failed", err)
			return
		}
		if err := ctx.Err(); err != nil {
			future.err = wrapErr("indexing cancelled", err)
			return
		}

		indexer := core.NewIndexer(store)
		files := indexer.IndexFiles(paths, progress)
		if err := ctx.Err(); err != nil {
			future.err = wrapErr("indexing cancelled", err)
			return
		}
		if err := indexer.PersistIndex(files); err != nil {
			future.err = wrapErr("failed to persist index", err)
			return
		}
		future.files = files
	}()

	return future
}

// ListFiles returns every indexed file row.
func (e *Engine) ListFiles() ([]models.File, error) {
	store, err := e.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	files, err := store.ListFiles()
	return files, wrapErr("query failed", err)
}

// GetLanguageStats returns the per-language aggregate as a JSON string.
func (e *Engine) GetLanguageStats() (string, error) {
	store, err := e.open()
	if err != nil {
		return "", err
	}
	defer store.Close()

	stats, err := store.LanguageStats()
	if err != nil {
		return "", wrapErr("query failed", err)
	}
	if stats == nil {
		stats = []models.LanguageStat{}
	}
	encoded, err := json.Marshal(stats)
	if err != nil {
		return "", wrapErr("failed to encode stats", err)
	}
	return string(encoded), nil
}

// FindSymbols returns symbols matching a name.
func (e *Engine) FindSymbols(name string) ([]models.Symbol, error) {
	store, err := e.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	symbols, err := store.FindSymbolsByName(name)
	return symbols, wrapErr("query failed", err)
}

// ListSymbolsInFile returns a file's symbols ordered by line.
func (e *Engine) ListSymbolsInFile(path string) ([]models.Symbol, error) {
	store, err := e.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	symbols, err := store.FindSymbolsByFilePath(path)
	return symbols, wrapErr("query failed", err)
}

// FindImports returns a file's import symbols.
func (e *Engine) FindImports(path string) ([]models.Symbol, error) {
	store, err := e.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	symbols, err := store.FindImportsByFile(path)
	return symbols, wrapErr("query failed", err)
}

// FindExports returns a file's export symbols.
func (e *Engine) FindExports(path string) ([]models.Symbol, error) {
	store, err := e.open()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	symbols, err := store.FindExportsByFile(path)
	return symbols, wrapErr("query failed", err)
}

// GetFilePath resolves a file id to its canonical path.
func (e *Engine) GetFilePath(fileID int64) (string, error) {
	store, err := e.open()
	if err != nil {
		return "", err
	}
	defer store.Close()

	path, err := store.GetFilePathByID(fileID)
	return path, wrapErr("query failed", err)
}

// AnalyzeResult is the (currently empty) result of the standalone analyze
// entry point.
type AnalyzeResult struct {
	Symbols      []models.Symbol     `json:"symbols"`
	Dependencies []models.Dependency `json:"dependencies"`
}

// Analyze is a placeholder kept for interface stability; it returns an empty
// result.
func (e *Engine) Analyze(source string) AnalyzeResult {
	_ = source
	return AnalyzeResult{
		Symbols:      []models.Symbol{},
		Dependencies: []models.Dependency{},
	}
}

// Capabilities lists what this build of the engine can do.
func Capabilities() []string {
	caps := []string{"analyze", "python", "typescript", "javascript", "rust"}
	if deepModeAvailable {
		caps = append(caps, "deep-mode")
	}
	return caps
}

// CheckCompatibility reports whether a client version can drive this engine.
func CheckCompatibility(clientVersion string) bool {
	return strings.HasPrefix(clientVersion, "0.1.")
}
