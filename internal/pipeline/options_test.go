package pipeline

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/file2text/internal/progress"
	"github.com/JakeFAU/file2text/internal/progress/consumers"
)

// TestParseMode accepts the documented modes and defaults to auto.
func TestParseMode(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Mode{"": ModeAuto, "auto": ModeAuto, "bar": ModeBar, "log": ModeLog, "none": ModeNone} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseMode("fancy")
	require.Error(t, err)
}

// TestConsumersSelection picks renderers from the options.
func TestConsumersSelection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tests := []struct {
		name string
		opts Options
		want []progress.Consumer
	}{
		{name: "silent", opts: Options{Writer: &buf}},
		{
			name: "auto off terminal logs",
			opts: Options{Progress: true, Mode: ModeAuto, Writer: &buf},
			want: []progress.Consumer{&consumers.ThrottledLogger{}},
		},
		{
			name: "forced bar",
			opts: Options{Progress: true, Mode: ModeBar, Writer: &buf},
			want: []progress.Consumer{&consumers.TerminalBar{}},
		},
		{name: "none", opts: Options{Progress: true, Mode: ModeNone, Writer: &buf}},
		{
			name: "verbose and callback",
			opts: Options{Verbose: true, ProgressCallback: func(int, int) {}, Writer: &buf},
			want: []progress.Consumer{&consumers.ThrottledLogger{}, &consumers.CallbackAdapter{}},
		},
		{
			name: "extras last",
			opts: Options{Progress: true, Mode: ModeLog, Extra: []progress.Consumer{consumers.NewSnapshot()}},
			want: []progress.Consumer{&consumers.ThrottledLogger{}, &consumers.Snapshot{}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Consumers(tc.opts)
			require.Len(t, got, len(tc.want))
			for i := range tc.want {
				require.IsType(t, tc.want[i], got[i])
			}
		})
	}
}

// TestNewRootWiresLogAndCallback reports through every attached consumer.
func TestNewRootWiresLogAndCallback(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	var calls int
	opts := DefaultOptions()
	opts.Progress = true
	opts.Mode = ModeLog
	opts.Verbose = true
	opts.Logger = zap.New(core)
	opts.ProgressCallback = func(int, int) { calls++ }

	root, err := NewRoot(progress.Of(2), "convert", opts)
	require.NoError(t, err)
	require.NoError(t, root.Update(1))
	require.NoError(t, root.Update(1))
	root.Complete()

	require.Equal(t, 4, calls)
	require.Equal(t, 2, logs.FilterMessage("convert: 1/2 (50.0%)").Len())
	require.Equal(t, 2, logs.FilterMessage("convert: completed 2/2").Len())
	require.Equal(t, 2, logs.FilterLevelExact(zapcore.DebugLevel).Len())
}

// TestNewRootRejectsBadThrottle surfaces emitter construction errors.
func TestNewRootRejectsBadThrottle(t *testing.T) {
	t.Parallel()

	_, err := NewRoot(progress.Of(1), "", Options{Throttle: -time.Second})
	require.ErrorIs(t, err, progress.ErrInvalidEmitterArgument)
}

// TestNewRootVerboseVisibleAtInfo still logs verbose progress when debug is disabled.
func TestNewRootVerboseVisibleAtInfo(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	opts := DefaultOptions()
	opts.Verbose = true
	opts.Throttle = 0
	opts.Logger = zap.New(core)

	root, err := NewRoot(progress.Of(3), "convert", opts)
	require.NoError(t, err)
	for range 3 {
		require.NoError(t, root.Update(1))
	}
	root.Complete()

	require.NotZero(t, logs.FilterLevelExact(zapcore.InfoLevel).Len())
	require.Equal(t, 1, logs.FilterMessage("convert: completed 3/3").Len())
}
