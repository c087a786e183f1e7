package javascript

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

// New creates a JavaScript provider using base functionality with
// JavaScript-specific AST mapping
func New() *base.Provider {
	return base.New(&Config{})
}
