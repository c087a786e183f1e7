package db

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/termfx/symdex/models"
)

// ErrNotFound reports a path or id that has no row in the index. Queries
// return it instead of an empty result so callers can distinguish "no such
// file" from "file with no symbols".
var ErrNotFound = errors.New("not found in index")

// Store owns the on-disk symbol index: schema creation, upserts, deletes,
// maintenance, and the read-side query surface in query.go.
type Store struct {
	db *gorm.DB
}

// pragmas tuned for a read-heavy index. Applied in order on every open,
// before any DDL; page_size only takes effect before tables exist.
var openPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA cache_size = -102400",
	"PRAGMA mmap_size = 268435456",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA auto_vacuum = INCREMENTAL",
	"PRAGMA page_size = 4096",
	"PRAGMA wal_autocheckpoint = 10000",
	"PRAGMA locking_mode = NORMAL",
	"PRAGMA foreign_keys = ON",
}

var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT UNIQUE NOT NULL,
		language TEXT NOT NULL,
		size INTEGER NOT NULL,
		last_indexed DATETIME,
		parse_errors INTEGER DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS symbols (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		scope TEXT,
		metadata TEXT,
		UNIQUE(file_id, name, line_start)
	)`,
	`CREATE TABLE IF NOT EXISTS dependencies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
		import_path TEXT NOT NULL,
		imported_symbols TEXT,
		line_number INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_id ON symbols(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)`,
	`CREATE INDEX IF NOT EXISTS idx_files_language ON files(language)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_kind ON symbols(file_id, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_name_kind ON symbols(name, kind)`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_file_line ON symbols(file_id, line_start)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_file_id ON dependencies(file_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dependencies_import_path ON dependencies(import_path)`,
}

// Open establishes a database connection, applies the pragma set, and runs
// the idempotent schema DDL. The DSN is either a filesystem path (directories
// are created as needed) or a libsql/http URL for a remote replica.
func Open(dsn string, debug bool) (*Store, error) {
	if !isURL(dsn) && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{PrepareStmt: true}
	if debug {
		config.Logger = logger.Default.LogMode(logger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)
		connector, err = libsql.NewConnector(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to create libsql connector: %w", err)
		}
		conn = sql.OpenDB(connector)
		dialector = sqlite.New(sqlite.Config{
			DriverName: "libsql",
			Conn:       conn,
			DSN:        dsn,
		})
	} else {
		dialector = sqlite.Open(dsn)
	}

	gdb, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	store := &Store{db: gdb}

	// Pragmas like synchronous and foreign_keys are per-connection; a single
	// pooled connection keeps them in force for every statement.
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := store.applyPragmas(); err != nil {
		store.Close()
		return nil, err
	}
	if err := store.initSchema(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// isURL checks if the DSN is a URL (for Turso) or file path
func isURL(dsn string) bool {
	return len(dsn) > 7 && (dsn[:7] == "http://" || dsn[:8] == "https://" || dsn[:6] == "libsql")
}

func (s *Store) applyPragmas() error {
	for _, pragma := range openPragmas {
		if err := s.db.Exec(pragma).Error; err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	for _, ddl := range schemaDDL {
		if err := s.db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("failed to create database schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying GORM handle for callers that compose their own
// queries (the CLI's plan command, tests).
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to resolve connection: %w", err)
	}
	return sqlDB.Close()
}

// UpsertFile inserts the file row or, on a path conflict, refreshes language,
// size and parse_errors and bumps last_indexed. Returns the id of the
// affected row.
func (s *Store) UpsertFile(file *models.File) (int64, error) {
	now := time.Now().UTC()
	file.LastIndexed = &now
	// Conflict resolution targets the path key, never a stale primary key.
	file.ID = 0

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.Assignments(map[string]any{
			"language":     file.Language,
			"size":         file.Size,
			"last_indexed": now,
			"parse_errors": file.ParseErrors,
		}),
	}).Create(file).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert file %s: %w", file.Path, err)
	}

	// The conflict path does not report the surviving row id; resolve it
	// through the path index.
	var id int64
	if err := s.db.Model(&models.File{}).Select("id").Where("path = ?", file.Path).Scan(&id).Error; err != nil {
		return 0, fmt.Errorf("failed to resolve file id for %s: %w", file.Path, err)
	}
	file.ID = id
	return id, nil
}

// InsertSymbol inserts the symbol or, on a (file_id, name, line_start)
// conflict, refreshes kind, line_end, scope and metadata. Returns the id of
// the affected row.
func (s *Store) InsertSymbol(sym *models.Symbol) (int64, error) {
	sym.ID = 0
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}, {Name: "name"}, {Name: "line_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"kind", "line_end", "scope", "metadata"}),
	}).Create(sym).Error
	if err != nil {
		return 0, fmt.Errorf("failed to insert symbol %s: %w", sym.Name, err)
	}

	var id int64
	err = s.db.Model(&models.Symbol{}).Select("id").
		Where("file_id = ? AND name = ? AND line_start = ?", sym.FileID, sym.Name, sym.LineStart).
		Scan(&id).Error
	if err != nil {
		return 0, fmt.Errorf("failed to resolve symbol id for %s: %w", sym.Name, err)
	}
	sym.ID = id
	return id, nil
}

// SetFileParseErrors records the parse-error count observed during the most
// recent extraction of the file.
func (s *Store) SetFileParseErrors(fileID int64, count int) error {
	err := s.db.Model(&models.File{}).Where("id = ?", fileID).
		Update("parse_errors", count).Error
	if err != nil {
		return fmt.Errorf("failed to update parse errors for file %d: %w", fileID, err)
	}
	return nil
}

// DeleteFileSymbols removes every symbol owned by the file. Used by re-index
// before re-insertion.
func (s *Store) DeleteFileSymbols(fileID int64) error {
	if err := s.db.Where("file_id = ?", fileID).Delete(&models.Symbol{}).Error; err != nil {
		return fmt.Errorf("failed to delete symbols for file %d: %w", fileID, err)
	}
	return nil
}

// ReplaceFileDependencies refreshes the dependency rows of a file alongside
// its symbols.
func (s *Store) ReplaceFileDependencies(fileID int64, deps []models.Dependency) error {
	if err := s.db.Where("file_id = ?", fileID).Delete(&models.Dependency{}).Error; err != nil {
		return fmt.Errorf("failed to delete dependencies for file %d: %w", fileID, err)
	}
	for i := range deps {
		deps[i].ID = 0
		deps[i].FileID = fileID
		if err := s.db.Create(&deps[i]).Error; err != nil {
			return fmt.Errorf("failed to insert dependency %s: %w", deps[i].ImportPath, err)
		}
	}
	return nil
}

// DeleteFile removes the file row; symbols and dependencies cascade away.
func (s *Store) DeleteFile(fileID int64) error {
	if err := s.db.Where("id = ?", fileID).Delete(&models.File{}).Error; err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}
	return nil
}

// GetFileByPath returns the file row for a canonical path, or ErrNotFound.
func (s *Store) GetFileByPath(path string) (*models.File, error) {
	var file models.File
	err := s.db.Where("path = ?", path).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("file %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file %s: %w", path, err)
	}
	return &file, nil
}

// Optimize runs VACUUM then ANALYZE. Safe at any time; the store remains
// queryable afterward.
func (s *Store) Optimize() error {
	if err := s.db.Exec("VACUUM").Error; err != nil {
		return fmt.Errorf("vacuum failed: %w", err)
	}
	if err := s.db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}
	return nil
}

// UpdateStatistics refreshes the query planner statistics.
func (s *Store) UpdateStatistics() error {
	if err := s.db.Exec("ANALYZE").Error; err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}
	return nil
}

// AnalyzeQueryPlan returns the engine's textual plan for a SQL statement,
// one step per line.
func (s *Store) AnalyzeQueryPlan(query string) (string, error) {
	rows, err := s.db.Raw("EXPLAIN QUERY PLAN " + query).Rows()
	if err != nil {
		return "", fmt.Errorf("failed to explain query: %w", err)
	}
	defer rows.Close()

	var plan string
	for rows.Next() {
		var id, parent, notUsed int
		var detail string
		if err := rows.Scan(&id, &parent, &notUsed, &detail); err != nil {
			return "", fmt.Errorf("failed to scan plan row: %w", err)
		}
		plan += detail + "\n"
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read plan rows: %w", err)
	}
	return plan, nil
}
