package providers

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/termfx/symdex/models"
)

// Visit is a language config's verdict on a single node: which symbol it
// declares (if any), whether the walk descends into its children, and the
// scope those children inherit.
type Visit struct {
	// Symbol declared by this node, nil when it declares nothing. The
	// extractor leaves FileID at 0; the indexer stamps it before persisting.
	Symbol *models.Symbol

	// ChildScope replaces the inherited scope for children when Descend is
	// set. Empty means children keep the current scope.
	ChildScope string

	// Descend walks the node's children.
	Descend bool
}

// LanguageConfig defines language-specific behavior that must be implemented
type LanguageConfig interface {
	// Metadata
	Language() string
	Extensions() []string
	GetLanguage() *sitter.Language

	// Visit inspects one node under the current lexical scope ("" at module
	// level). It must not panic on malformed subtrees: a node missing an
	// expected child yields an empty Visit and the node is skipped.
	Visit(node *sitter.Node, source []byte, scope string) Visit
}

// Provider is the per-language parse-and-extract surface consumed by the
// indexer. A single instance is not safe for concurrent use; workers obtain
// their own from the registry.
type Provider interface {
	Language() string
	Extensions() []string

	// Parse always returns a tree, even for syntactically invalid input; the
	// tree then carries error subtrees. An error means the parser runtime
	// itself failed to construct a tree.
	Parse(source []byte) (*sitter.Tree, error)

	// ParseIncremental reuses structure from a prior tree of the same file.
	// Identical source must yield a tree semantically equivalent to Parse.
	ParseIncremental(source []byte, old *sitter.Tree) (*sitter.Tree, error)

	// Extract walks the tree in document order and returns the symbol list,
	// classes and functions preceding their members.
	Extract(tree *sitter.Tree, source []byte) []models.Symbol

	// ParseErrorCount reports the number of ERROR subtrees in the tree.
	ParseErrorCount(tree *sitter.Tree) int
}

// DependenciesFromSymbols derives dependency rows from the import symbols of
// an extraction, preserving document order.
func DependenciesFromSymbols(symbols []models.Symbol) []models.Dependency {
	var deps []models.Dependency
	for _, sym := range symbols {
		if sym.Kind != models.KindImport {
			continue
		}
		line := sym.LineStart
		deps = append(deps, models.Dependency{
			FileID:     sym.FileID,
			ImportPath: sym.Name,
			LineNumber: &line,
		})
	}
	return deps
}
