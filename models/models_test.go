package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSymbolKind(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected SymbolKind
	}{
		{name: "function", input: "function", expected: KindFunction},
		{name: "class", input: "class", expected: KindClass},
		{name: "variable", input: "variable", expected: KindVariable},
		{name: "import", input: "import", expected: KindImport},
		{name: "export", input: "export", expected: KindExport},
		{name: "module", input: "module", expected: KindModule},
		{name: "struct", input: "struct", expected: KindStruct},
		{name: "enum", input: "enum", expected: KindEnum},
		{name: "trait", input: "trait", expected: KindTrait},
		{name: "interface", input: "interface", expected: KindInterface},
		{name: "type", input: "type", expected: KindType},
		{name: "uppercase is accepted", input: "FUNCTION", expected: KindFunction},
		{name: "mixed case is accepted", input: "Class", expected: KindClass},
		{name: "unknown falls back to variable", input: "widget", expected: KindVariable},
		{name: "empty falls back to variable", input: "", expected: KindVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSymbolKind(tt.input))
		})
	}
}

func TestSymbolKindString(t *testing.T) {
	assert.Equal(t, "function", KindFunction.String())
	assert.Equal(t, "class", KindClass.String())
}

func TestSymbolToMap(t *testing.T) {
	scope := "MyClass"
	sym := Symbol{
		ID:        7,
		FileID:    3,
		Name:      "get_value",
		Kind:      KindFunction,
		LineStart: 4,
		LineEnd:   6,
		Scope:     &scope,
	}

	m := sym.ToMap()
	assert.Equal(t, "7", m["id"])
	assert.Equal(t, "3", m["file_id"])
	assert.Equal(t, "get_value", m["name"])
	assert.Equal(t, "function", m["kind"])
	assert.Equal(t, "4", m["line_start"])
	assert.Equal(t, "6", m["line_end"])
	assert.Equal(t, "MyClass", m["scope"])
}

func TestSymbolToMapOmitsUnsetFields(t *testing.T) {
	sym := Symbol{Name: "x", Kind: KindVariable}
	m := sym.ToMap()
	assert.NotContains(t, m, "id")
	assert.NotContains(t, m, "scope")
}

func TestFileToMap(t *testing.T) {
	indexed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	file := File{
		Path:        "src/app.py",
		Language:    "python",
		Size:        2048,
		LastIndexed: &indexed,
		ParseErrors: 1,
	}

	m := file.ToMap()
	assert.Equal(t, "src/app.py", m["path"])
	assert.Equal(t, "python", m["language"])
	assert.Equal(t, "2048", m["size"])
	assert.Equal(t, "1", m["parse_errors"])
	assert.Equal(t, "2025-06-01T12:00:00Z", m["last_indexed"])
}

func TestDebugReprs(t *testing.T) {
	sym := Symbol{Name: "hello", Kind: KindFunction, LineStart: 0, LineEnd: 1}
	assert.Equal(t, `Symbol(name="hello", kind="function", lines=0-1)`, sym.String())

	file := File{Path: "a.rs", Language: "rust", Size: 10}
	assert.Equal(t, `File(path="a.rs", language="rust", size=10)`, file.String())
}
