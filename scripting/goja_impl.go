package scripting

import (
	"context"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/m-mizutani/goerr/v2"

	"github.com/nexgen-studio/growthkit/observability"
)

type GojaEngine struct {
	vm     *goja.Runtime
	logger observability.Logger
}

// NewEngine returns a goja runtime with a console object whose log/warn/error
// calls are forwarded to logger.
func NewEngine(logger observability.Logger) *GojaEngine {
	e := &GojaEngine{vm: goja.New(), logger: observability.OrNop(logger)}
	e.registerConsole()
	return e
}

func (e *GojaEngine) registerConsole() {
	console := e.vm.NewObject()
	emit := func(level func(string, ...observability.Field)) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, 0, len(call.Arguments))
			for _, a := range call.Arguments {
				parts = append(parts, a.String())
			}
			level("script console", observability.String("message", strings.Join(parts, " ")))
			return goja.Undefined()
		}
	}
	_ = console.Set("log", emit(e.logger.Debug))
	_ = console.Set("warn", emit(e.logger.Warn))
	_ = console.Set("error", emit(e.logger.Error))
	_ = e.vm.Set("console", console)
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	var val goja.Value
	err := e.guard(ctx, func() error {
		var err error
		val, err = e.vm.RunString(script)
		return err
	})
	if err != nil {
		return nil, err
	}
	return export(val), nil
}

func (e *GojaEngine) Call(ctx context.Context, name string, args ...interface{}) (interface{}, error) {
	fn, ok := goja.AssertFunction(e.vm.Get(name))
	if !ok {
		return nil, goerr.Wrap(ErrNotFunction, "cannot call", goerr.V("name", name))
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = e.vm.ToValue(a)
	}
	var val goja.Value
	err := e.guard(ctx, func() error {
		var err error
		val, err = fn(goja.Undefined(), jsArgs...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return export(val), nil
}

// guard runs fn and interrupts the VM when ctx is done.
func (e *GojaEngine) guard(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	watcher := make(chan struct{})
	go func() {
		defer close(watcher)
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()
	// The watcher must be gone before the interrupt is cleared, or a late
	// cancellation stays pending for the next call.
	defer func() {
		close(done)
		<-watcher
		e.vm.ClearInterrupt()
	}()

	err := fn()
	if err == nil {
		return nil
	}
	if interruptedErr, ok := err.(*goja.InterruptedError); ok {
		if cause := interruptedErr.Unwrap(); cause != nil {
			return cause
		}
		return context.Canceled
	}
	if ex, ok := err.(*goja.Exception); ok {
		return goerr.New(fmt.Sprintf("script error: %s", ex.Value().String()))
	}
	return goerr.Wrap(err, "script error")
}

func export(v goja.Value) interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
