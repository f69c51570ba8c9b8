package stats

import (
	"context"

	"bird-detection/spectro"
)

// SpectrogramSource yields the detection boxes and spectrogram for one
// labelled recording. The persisted-read path and the live-generation path
// both satisfy it; the caller picks one at startup instead of branching on a
// flag at every call site.
type SpectrogramSource interface {
	Get(ctx context.Context, label string) (spectro.BoxTable, spectro.Spectrogram, error)
}

// GeneratorFunc adapts a live spectrogram generator to SpectrogramSource.
type GeneratorFunc func(ctx context.Context, label string) (spectro.BoxTable, spectro.Spectrogram, error)

// Get implements SpectrogramSource.
func (f GeneratorFunc) Get(ctx context.Context, label string) (spectro.BoxTable, spectro.Spectrogram, error) {
	return f(ctx, label)
}
