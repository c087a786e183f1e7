package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// SymbolKind classifies an extracted symbol. The set is closed; stores and
// queries exchange kinds as their lowercase string form.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindClass     SymbolKind = "class"
	KindVariable  SymbolKind = "variable"
	KindImport    SymbolKind = "import"
	KindExport    SymbolKind = "export"
	KindModule    SymbolKind = "module"
	KindStruct    SymbolKind = "struct"
	KindEnum      SymbolKind = "enum"
	KindTrait     SymbolKind = "trait"
	KindInterface SymbolKind = "interface"
	KindType      SymbolKind = "type"
)

// ParseSymbolKind maps a stored kind string back to a SymbolKind. Matching is
// case-insensitive; unrecognized values fall back to KindVariable so a row
// written by a newer schema still loads.
func ParseSymbolKind(s string) SymbolKind {
	switch strings.ToLower(s) {
	case "function":
		return KindFunction
	case "class":
		return KindClass
	case "variable":
		return KindVariable
	case "import":
		return KindImport
	case "export":
		return KindExport
	case "module":
		return KindModule
	case "struct":
		return KindStruct
	case "enum":
		return KindEnum
	case "trait":
		return KindTrait
	case "interface":
		return KindInterface
	case "type":
		return KindType
	default:
		return KindVariable
	}
}

func (k SymbolKind) String() string { return string(k) }

// Symbol is a named declarative entity extracted from source. The business
// key (file_id, name, line_start) is unique within the store; re-inserting at
// the same key refreshes the remaining columns.
type Symbol struct {
	ID     int64 `gorm:"primaryKey;autoIncrement"`
	FileID int64 `gorm:"not null;index:idx_symbols_file_id"`

	Name string     `gorm:"not null;index:idx_symbols_name"`
	Kind SymbolKind `gorm:"type:text;not null;index:idx_symbols_kind"`

	// 0-indexed line span; line_end is inclusive of the last line touched.
	LineStart int `gorm:"not null"`
	LineEnd   int `gorm:"not null"`

	// Scope is the innermost lexical parent's name at extraction time.
	// Advisory only; never joined on.
	Scope    *string        `gorm:"type:text"`
	Metadata datatypes.JSON `gorm:"type:text"`
}

// File is the identity and housekeeping row for each indexed file.
type File struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Path        string `gorm:"uniqueIndex:idx_files_path;not null"`
	Language    string `gorm:"not null;index:idx_files_language"`
	Size        int64  `gorm:"not null"`
	LastIndexed *time.Time
	ParseErrors int `gorm:"default:0"`
}

// Dependency records a raw import edge owned by a file.
type Dependency struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	FileID     int64  `gorm:"not null;index:idx_dependencies_file_id"`
	ImportPath string `gorm:"not null;index:idx_dependencies_import_path"`

	ImportedSymbols datatypes.JSON `gorm:"type:text"`
	LineNumber      *int
}

// LanguageStat is one row of the per-language aggregate.
type LanguageStat struct {
	Language  string `json:"language"`
	FileCount int64  `json:"file_count"`
	TotalSize int64  `json:"total_size"`
}

// TableName customizations for cleaner names
func (Symbol) TableName() string     { return "symbols" }
func (File) TableName() string       { return "files" }
func (Dependency) TableName() string { return "dependencies" }

func (s Symbol) String() string {
	return fmt.Sprintf("Symbol(name=%q, kind=%q, lines=%d-%d)", s.Name, s.Kind, s.LineStart, s.LineEnd)
}

// ToMap returns the host-facing dictionary form of the symbol.
func (s Symbol) ToMap() map[string]string {
	m := map[string]string{
		"file_id":    fmt.Sprintf("%d", s.FileID),
		"name":       s.Name,
		"kind":       s.Kind.String(),
		"line_start": fmt.Sprintf("%d", s.LineStart),
		"line_end":   fmt.Sprintf("%d", s.LineEnd),
	}
	if s.ID != 0 {
		m["id"] = fmt.Sprintf("%d", s.ID)
	}
	if s.Scope != nil {
		m["scope"] = *s.Scope
	}
	return m
}

func (f File) String() string {
	return fmt.Sprintf("File(path=%q, language=%q, size=%d)", f.Path, f.Language, f.Size)
}

// ToMap returns the host-facing dictionary form of the file row.
func (f File) ToMap() map[string]string {
	m := map[string]string{
		"path":         f.Path,
		"language":     f.Language,
		"size":         fmt.Sprintf("%d", f.Size),
		"parse_errors": fmt.Sprintf("%d", f.ParseErrors),
	}
	if f.LastIndexed != nil {
		m["last_indexed"] = f.LastIndexed.UTC().Format(time.RFC3339)
	}
	return m
}
