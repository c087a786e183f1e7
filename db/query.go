package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/termfx/symdex/models"
)

// normalizeKinds applies the soft kind fallback on read: a row holding an
// unrecognized kind string loads as variable instead of failing.
func normalizeKinds(symbols []models.Symbol) []models.Symbol {
	for i := range symbols {
		symbols[i].Kind = models.ParseSymbolKind(string(symbols[i].Kind))
	}
	return symbols
}

// FindSymbolsByName returns all symbols with the exact (case-sensitive) name.
func (s *Store) FindSymbolsByName(name string) ([]models.Symbol, error) {
	var symbols []models.Symbol
	if err := s.db.Where("name = ?", name).Find(&symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to query symbols by name %s: %w", name, err)
	}
	return normalizeKinds(symbols), nil
}

// FindSymbolsByKind returns all symbols of a kind.
func (s *Store) FindSymbolsByKind(kind models.SymbolKind) ([]models.Symbol, error) {
	var symbols []models.Symbol
	if err := s.db.Where("kind = ?", kind.String()).Find(&symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to query symbols by kind %s: %w", kind, err)
	}
	return normalizeKinds(symbols), nil
}

// FindSymbolsByNameAndKind narrows by both columns; the composite
// idx_symbols_name_kind index serves the lookup.
func (s *Store) FindSymbolsByNameAndKind(name string, kind models.SymbolKind) ([]models.Symbol, error) {
	var symbols []models.Symbol
	if err := s.db.Where("name = ? AND kind = ?", name, kind.String()).Find(&symbols).Error; err != nil {
		return nil, fmt.Errorf("failed to query symbols by name %s and kind %s: %w", name, kind, err)
	}
	return normalizeKinds(symbols), nil
}

// FindSymbolsByFilePath returns a file's symbols ordered by line_start.
// A path with no file row yields ErrNotFound.
func (s *Store) FindSymbolsByFilePath(path string) ([]models.Symbol, error) {
	file, err := s.GetFileByPath(path)
	if err != nil {
		return nil, err
	}

	var symbols []models.Symbol
	err = s.db.Where("file_id = ?", file.ID).Order("line_start").Find(&symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols for %s: %w", path, err)
	}
	return normalizeKinds(symbols), nil
}

// FindSymbolsByFileAndKind narrows a file's symbols by kind, ordered by
// line_start; served by the idx_symbols_file_kind composite index.
func (s *Store) FindSymbolsByFileAndKind(fileID int64, kind models.SymbolKind) ([]models.Symbol, error) {
	var symbols []models.Symbol
	err := s.db.Where("file_id = ? AND kind = ?", fileID, kind.String()).
		Order("line_start").Find(&symbols).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols for file %d kind %s: %w", fileID, kind, err)
	}
	return normalizeKinds(symbols), nil
}

// FindImportsByFile returns a file's import symbols ordered by line_start.
func (s *Store) FindImportsByFile(path string) ([]models.Symbol, error) {
	return s.findKindByFile(path, models.KindImport)
}

// FindExportsByFile returns a file's export symbols ordered by line_start.
// No extractor emits exports yet; the query is the stable interface for a
// future extractor and returns an empty list until then.
func (s *Store) FindExportsByFile(path string) ([]models.Symbol, error) {
	return s.findKindByFile(path, models.KindExport)
}

func (s *Store) findKindByFile(path string, kind models.SymbolKind) ([]models.Symbol, error) {
	file, err := s.GetFileByPath(path)
	if err != nil {
		return nil, err
	}
	return s.FindSymbolsByFileAndKind(file.ID, kind)
}

// ListFiles returns every file row in the index.
func (s *Store) ListFiles() ([]models.File, error) {
	var files []models.File
	if err := s.db.Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// ListDependenciesByFile returns a file's dependency rows.
func (s *Store) ListDependenciesByFile(path string) ([]models.Dependency, error) {
	file, err := s.GetFileByPath(path)
	if err != nil {
		return nil, err
	}
	var deps []models.Dependency
	if err := s.db.Where("file_id = ?", file.ID).Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("failed to list dependencies for %s: %w", path, err)
	}
	return deps, nil
}

// LanguageStats aggregates file count and total size per language.
func (s *Store) LanguageStats() ([]models.LanguageStat, error) {
	var stats []models.LanguageStat
	err := s.db.Raw(
		"SELECT language, COUNT(*) AS file_count, COALESCE(SUM(size), 0) AS total_size FROM files GROUP BY language",
	).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate language stats: %w", err)
	}
	return stats, nil
}

// GetFilePathByID resolves a file id back to its canonical path, or
// ErrNotFound.
func (s *Store) GetFilePathByID(fileID int64) (string, error) {
	var file models.File
	err := s.db.Select("path").Where("id = ?", fileID).First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("file id %d: %w", fileID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query file id %d: %w", fileID, err)
	}
	return file.Path, nil
}
