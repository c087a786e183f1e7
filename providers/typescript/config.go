package typescript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

// Config implements LanguageConfig for TypeScript
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "typescript"
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".ts", ".tsx"}
}

// GetLanguage returns tree-sitter language for TypeScript
func (c *Config) GetLanguage() *sitter.Language {
	return typescript.GetLanguage()
}

// Visit maps TypeScript AST nodes to symbols. Anonymous functions and
// classes carry no name field and are skipped; export statements emit no
// symbol of their own, the wrapped declaration is picked up by recursion.
func (c *Config) Visit(node *sitter.Node, source []byte, scope string) providers.Visit {
	switch node.Type() {
	case "function_declaration", "function", "arrow_function", "method_definition":
		sym := base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindFunction, scope)
		if sym == nil {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: sym, ChildScope: sym.Name, Descend: true}

	case "class_declaration", "class":
		sym := base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindClass, scope)
		if sym == nil {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: sym, ChildScope: sym.Name, Descend: true}

	case "interface_declaration", "type_alias_declaration":
		return providers.Visit{Symbol: base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindType, scope)}

	case "import_statement":
		return providers.Visit{Symbol: importSymbol(node, source, scope)}

	case "export_statement":
		return providers.Visit{Descend: true}

	case "lexical_declaration", "variable_declaration":
		if scope != "" {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: variableSymbol(node, source)}

	default:
		return providers.Visit{Descend: true}
	}
}

// importSymbol names the import after its source specifier, quotes stripped.
func importSymbol(node *sitter.Node, source []byte, scope string) *models.Symbol {
	specifier := node.ChildByFieldName("source")
	sym := base.NewSymbol(node, specifier, source, models.KindImport, scope)
	if sym == nil {
		return nil
	}
	sym.Name = strings.Trim(sym.Name, `"'`)
	return sym
}

// variableSymbol extracts the first declarator with an identifier name from
// a const/let/var statement.
func variableSymbol(node *sitter.Node, source []byte) *models.Symbol {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			continue
		}
		return base.NewSymbol(node, name, source, models.KindVariable, "")
	}
	return nil
}
