package python

import (
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

// This package provides Python symbol extraction using the base provider.
// All the heavy lifting is done by the base provider with Python-specific
// configuration.

func init() {
	cfg := &Config{}
	providers.Register(cfg.Language(), cfg.Extensions(), func() providers.Provider {
		return base.New(cfg)
	})
}

// New creates a Python provider using base functionality with Python-specific
// AST mapping
func New() *base.Provider {
	return base.New(&Config{})
}
