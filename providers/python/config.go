package python

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

// Config implements LanguageConfig for Python
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "python"
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".py", ".pyi"}
}

// GetLanguage returns tree-sitter language for Python
func (c *Config) GetLanguage() *sitter.Language {
	return python.GetLanguage()
}

// Visit maps Python AST nodes to symbols. Functions and classes push their
// name as the scope of their children; assignments only count at module
// level.
func (c *Config) Visit(node *sitter.Node, source []byte, scope string) providers.Visit {
	switch node.Type() {
	case "function_definition":
		sym := base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindFunction, scope)
		if sym == nil {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: sym, ChildScope: sym.Name, Descend: true}

	case "class_definition":
		sym := base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindClass, scope)
		if sym == nil {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: sym, ChildScope: sym.Name, Descend: true}

	case "import_statement":
		// import foo, import foo.bar
		name := node.ChildByFieldName("name")
		if name == nil {
			name = firstChildOfType(node, "dotted_name", "identifier")
		}
		return providers.Visit{Symbol: base.NewSymbol(node, name, source, models.KindImport, scope)}

	case "import_from_statement":
		// from foo import bar
		module := node.ChildByFieldName("module_name")
		return providers.Visit{Symbol: base.NewSymbol(node, module, source, models.KindImport, scope)}

	case "assignment":
		if scope != "" {
			return providers.Visit{}
		}
		left := node.ChildByFieldName("left")
		if left == nil || left.Type() != "identifier" {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: base.NewSymbol(node, left, source, models.KindVariable, "")}

	default:
		return providers.Visit{Descend: true}
	}
}

func firstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}
