package base

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/symdex/models"
	"github.com/termfx/symdex/providers"
)

// Provider provides parse and extract plumbing shared by all language
// providers. The language-specific part lives entirely in the config's Visit
// hook.
type Provider struct {
	config providers.LanguageConfig
	parser *sitter.Parser
}

// New creates a base provider with language-specific config. Failure to load
// the grammar is a linkage fault and fatal at construction.
func New(config providers.LanguageConfig) *Provider {
	lang := config.GetLanguage()
	if lang == nil {
		panic(fmt.Sprintf("Failed to load %s language for tree-sitter", config.Language()))
	}
	parser := sitter.NewParser()
	parser.SetLanguage(lang)

	return &Provider{
		config: config,
		parser: parser,
	}
}

// Language returns the canonical language tag.
func (p *Provider) Language() string {
	return p.config.Language()
}

// Extensions returns supported file extensions.
func (p *Provider) Extensions() []string {
	return p.config.Extensions()
}

// Parse builds a fresh tree for the source. Syntactically invalid input
// still parses; the tree then carries error subtrees.
func (p *Provider) Parse(source []byte) (*sitter.Tree, error) {
	return p.ParseIncremental(source, nil)
}

// ParseIncremental reuses structure from a prior tree of the same file when
// one is supplied.
func (p *Provider) ParseIncremental(source []byte, old *sitter.Tree) (*sitter.Tree, error) {
	tree, err := p.parser.ParseCtx(context.Background(), old, source)
	if err != nil || tree == nil {
		return nil, fmt.Errorf("failed to construct %s parse tree: %v", p.config.Language(), err)
	}
	return tree, nil
}

// Extract walks the tree in pre-order and collects the symbols the config
// recognizes, so a class precedes its methods. FileID is left at 0 for the
// indexer to stamp.
func (p *Provider) Extract(tree *sitter.Tree, source []byte) []models.Symbol {
	var symbols []models.Symbol
	p.walk(tree.RootNode(), source, "", &symbols)
	return symbols
}

func (p *Provider) walk(node *sitter.Node, source []byte, scope string, out *[]models.Symbol) {
	visit := p.config.Visit(node, source, scope)
	if visit.Symbol != nil {
		*out = append(*out, *visit.Symbol)
	}
	if !visit.Descend {
		return
	}

	childScope := scope
	if visit.ChildScope != "" {
		childScope = visit.ChildScope
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		p.walk(node.Child(i), source, childScope, out)
	}
}

// ParseErrorCount reports how many ERROR subtrees the parse produced.
func (p *Provider) ParseErrorCount(tree *sitter.Tree) int {
	root := tree.RootNode()
	if !root.HasError() {
		return 0
	}
	return countErrors(root)
}

func countErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

// NewSymbol builds a symbol from a declaration node and its name node, with
// 0-indexed lines and the inclusive end line taken from the node span.
func NewSymbol(node, nameNode *sitter.Node, source []byte, kind models.SymbolKind, scope string) *models.Symbol {
	if nameNode == nil {
		return nil
	}
	return &models.Symbol{
		Name:      nameNode.Content(source),
		Kind:      kind,
		LineStart: int(node.StartPoint().Row),
		LineEnd:   int(node.EndPoint().Row),
		Scope:     ScopePtr(scope),
	}
}

// ScopePtr converts the walk's scope string to the nullable column form.
func ScopePtr(scope string) *string {
	if scope == "" {
		return nil
	}
	return &scope
}
