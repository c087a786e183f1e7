package javascript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

// Config implements LanguageConfig for JavaScript
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "javascript"
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".js", ".jsx"}
}

// GetLanguage returns tree-sitter language for JavaScript
func (c *Config) GetLanguage() *sitter.Language {
	return javascript.GetLanguage()
}

// Visit maps JavaScript AST nodes to symbols. The grammar shares its
// declaration shapes with TypeScript minus the type-level nodes.
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

	case "import_statement":
		specifier := node.ChildByFieldName("source")
		sym := base.NewSymbol(node, specifier, source, models.KindImport, scope)
		if sym != nil {
			sym.Name = strings.Trim(sym.Name, `"'`)
		}
		return providers.Visit{Symbol: sym}

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
