package scripting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nexgen-studio/growthkit/observability"
)

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	_, err := engine.Execute(ctx, "while (true) {}")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	v, err := engine.Execute(context.Background(), "1 + 1")
	require.NoError(t, err, "engine should recover after cancellation")
	assert.EqualValues(t, 2, v)
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Execute(ctx, "42")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGojaEngine_CallGlobalFunction(t *testing.T) {
	engine := NewEngine(nil)
	v, err := engine.Execute(context.Background(), "function twice(x) { return [x, x]; }")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = engine.Call(context.Background(), "twice", "a")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "a"}, v)

	_, err = engine.Call(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFunction)
}

func TestGojaEngine_ScriptErrors(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Execute(context.Background(), "throw new Error('bad data')")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad data")
}

func TestGojaEngine_ConsoleGoesToLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	engine := NewEngine(observability.NewZapLogger(zap.New(core)))

	_, err := engine.Execute(context.Background(), "console.log('generated', 3, 'plans')")
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "generated 3 plans", logs.All()[0].ContextMap()["message"])
}

func TestGojaEngine_LateCancelDoesNotLeakIntoNextCall(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Execute(context.Background(), "function build() { return 7; }")
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		// Cancel as the work finishes, racing the watcher against cleanup.
		require.NoError(t, engine.guard(ctx, func() error {
			cancel()
			return nil
		}))

		v, err := engine.Call(context.Background(), "build")
		require.NoError(t, err, "iteration %d", i)
		assert.EqualValues(t, 7, v)
	}
}
