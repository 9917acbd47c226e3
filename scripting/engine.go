package scripting

import (
	"context"
	"errors"
)

var ErrNotFunction = errors.New("global is not a function")

// Engine evaluates JavaScript data modules.
type Engine interface {
	// Execute runs a script and returns its completion value exported to Go
	// (nil for undefined).
	Execute(ctx context.Context, script string) (interface{}, error)

	// Call invokes a global function defined by an earlier Execute.
	Call(ctx context.Context, name string, args ...interface{}) (interface{}, error)
}
