package rust

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

// Config implements LanguageConfig for Rust
type Config struct{}

// Language identifier
func (c *Config) Language() string {
	return "rust"
}

// Extensions supported
func (c *Config) Extensions() []string {
	return []string{".rs"}
}

// GetLanguage returns tree-sitter language for Rust
func (c *Config) GetLanguage() *sitter.Language {
	return rust.GetLanguage()
}

// Visit maps Rust AST nodes to symbols. Structs map to the class kind;
// enums, traits and type aliases collapse into the type kind. An impl block
// emits nothing itself but pushes the implemented type's name as the scope
// of its items.
func (c *Config) Visit(node *sitter.Node, source []byte, scope string) providers.Visit {
	switch node.Type() {
	case "function_item":
		sym := base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindFunction, scope)
		if sym == nil {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: sym, ChildScope: sym.Name, Descend: true}

	case "struct_item":
		return providers.Visit{Symbol: base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindClass, scope)}

	case "enum_item", "trait_item", "type_item":
		return providers.Visit{Symbol: base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindType, scope)}

	case "impl_item":
		implType := node.ChildByFieldName("type")
		if implType == nil {
			return providers.Visit{}
		}
		return providers.Visit{ChildScope: implType.Content(source), Descend: true}

	case "use_declaration":
		// The argument preserves the full `::` path.
		arg := node.ChildByFieldName("argument")
		return providers.Visit{Symbol: base.NewSymbol(node, arg, source, models.KindImport, scope)}

	case "const_item", "static_item":
		if scope != "" {
			return providers.Visit{}
		}
		return providers.Visit{Symbol: base.NewSymbol(node, node.ChildByFieldName("name"), source, models.KindVariable, "")}

	default:
		return providers.Visit{Descend: true}
	}
}
