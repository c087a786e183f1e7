package rust

import (
	"github.com/termfx/symdex/providers"
	"github.com/termfx/symdex/providers/base"
)

func init() {
	cfg := &Config{}
	providers.Register(cfg.Language(), cfg.Extensions(), func() providers.Provider {
		return base.New(cfg)
	})
}

// New creates a Rust provider using base functionality with Rust-specific
// AST mapping
func New() *base.Provider {
	return base.New(&Config{})
}
