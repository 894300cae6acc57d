// Package gamectx carries the per-block processing context: chain
// parameters, the base map, the read-only game configuration, the block
// being processed and the random stream. It is built by the pipeline driver
// and threaded through every processor; nothing in it is a global.
package gamectx

import (
	"log"

	"github.com/hexfront/hexfront/internal/gamecfg"
	"github.com/hexfront/hexfront/internal/mapdata"
	"github.com/hexfront/hexfront/internal/params"
	"github.com/hexfront/hexfront/internal/rnd"
)

// Context is the immutable per-block processing environment. The random
// stream inside it is stateful: phases draw from it in their declared order
// and nowhere else.
type Context struct {
	Params    *params.Params
	Map       *mapdata.Map
	Cfg       *gamecfg.Config
	Height    uint64
	Timestamp int64
	Rnd       *rnd.Stream

	// DebugLog receives move-rejection and tracing output; nil silences it.
	DebugLog *log.Logger
}

// IsActive reports whether the fork is active for the block being
// processed.
func (c *Context) IsActive(f params.Fork) bool {
	return c.Params.IsActive(f, c.Height)
}

// Debugf logs a debug message if a debug logger is configured.
func (c *Context) Debugf(format string, args ...any) {
	if c.DebugLog != nil {
		c.DebugLog.Printf(format, args...)
	}
}
