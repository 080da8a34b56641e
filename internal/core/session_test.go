package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/config"
)

func newSession(t *testing.T, mutate func(*config.Config)) *Session {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewSession(cfg, quietLogger())
	require.NoError(t, err)
	return s
}

type rawEncoder struct{ err error }

func (e rawEncoder) EncodePNG(buf *buffer.Buffer) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	return buf.Pix, nil
}

func TestSessionNoImageIsNoop(t *testing.T) {
	s := newSession(t, nil)
	renders := 0
	s.SetCallbacks(func(Frame) { renders++ }, nil)

	assert.NoError(t, s.ApplySelected())
	assert.NoError(t, s.RunPipeline(context.Background()))
	assert.NoError(t, s.SetOpacity(40))
	assert.NoError(t, s.SetSplit(10))
	assert.NoError(t, s.ClearPipeline())
	assert.Equal(t, 0, renders)
	assert.Nil(t, s.Frame().Blended)

	err := s.Export(&bytes.Buffer{}, rawEncoder{})
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestSessionLoadAppliesSelected(t *testing.T) {
	s := newSession(t, func(c *config.Config) { c.Defaults.Filter = "invert" })

	var last Frame
	s.SetCallbacks(func(f Frame) { last = f }, nil)

	src := noise(6, 5, 1)
	require.NoError(t, s.LoadImage(src, "photo.PNG"))

	want := algorithms.Apply("invert", src, algorithms.Options{})
	assert.True(t, buffer.Equal(want, last.Processed))
	assert.True(t, buffer.Equal(want, last.Blended), "opacity defaults to 100%")
	assert.Equal(t, "png", s.Image().Metadata().Format)
	assert.Equal(t, 30, last.OriginalHist.Total())
	assert.Contains(t, last.Metrics, "psnr")
}

func TestSessionLoadRejectsEmpty(t *testing.T) {
	s := newSession(t, nil)
	assert.Error(t, s.LoadImage(buffer.New(0, 0), "empty.png"))
	assert.False(t, s.Image().HasImage())
}

func TestSessionOpacity(t *testing.T) {
	s := newSession(t, func(c *config.Config) { c.Defaults.Filter = "invert" })
	src := noise(4, 4, 2)
	require.NoError(t, s.LoadImage(src, "a.png"))

	require.NoError(t, s.SetOpacity(0))
	f := s.Frame()
	assert.True(t, buffer.Equal(src, f.Blended))
	assert.True(t, buffer.Equal(src, f.Compare))

	require.NoError(t, s.SetOpacity(250))
	assert.Equal(t, 100.0, s.Opacity())
	assert.True(t, buffer.Equal(s.Frame().Processed, s.Frame().Blended))
}

func TestSessionSplitOnlyRecomposes(t *testing.T) {
	s := newSession(t, func(c *config.Config) { c.Defaults.Filter = "invert" })
	src := noise(10, 2, 3)
	require.NoError(t, s.LoadImage(src, "a.png"))

	blended := s.Frame().Blended
	require.NoError(t, s.SetSplit(100))
	f := s.Frame()
	assert.Same(t, blended, f.Blended)
	assert.True(t, buffer.Equal(blended, f.Compare))

	require.NoError(t, s.SetSplit(0))
	assert.True(t, buffer.Equal(src, s.Frame().Compare))
}

func TestSessionPipelineFlow(t *testing.T) {
	s := newSession(t, nil)
	src := noise(8, 8, 4)
	require.NoError(t, s.LoadImage(src, "a.png"))

	s.SetSelection(Selection{Filter: "sepia"})
	_, err := s.AddSelected()
	require.NoError(t, err)
	s.SetSelection(Selection{Filter: "threshold", Param: 100})
	_, err = s.AddSelected()
	require.NoError(t, err)

	require.NoError(t, s.RunPipeline(context.Background()))
	sepia := algorithms.Apply("sepia", src, algorithms.Options{})
	want := algorithms.Apply("threshold", sepia, algorithms.Options{Param: 100})
	assert.True(t, buffer.Equal(want, s.Frame().Processed))

	// swap and re-run happens automatically
	require.NoError(t, s.MoveStep(0, 1))
	thresh := algorithms.Apply("threshold", src, algorithms.Options{Param: 100})
	want = algorithms.Apply("sepia", thresh, algorithms.Options{})
	assert.True(t, buffer.Equal(want, s.Frame().Processed))

	// out-of-range move is a no-op
	require.NoError(t, s.MoveStep(1, 1))
	assert.True(t, buffer.Equal(want, s.Frame().Processed))

	require.NoError(t, s.RemoveStep(1))
	assert.True(t, buffer.Equal(thresh, s.Frame().Processed))
	assert.ErrorIs(t, s.RemoveStep(7), ErrStepIndex)
}

func TestSessionEditsByStepID(t *testing.T) {
	s := newSession(t, nil)
	src := noise(8, 8, 9)
	require.NoError(t, s.LoadImage(src, "a.png"))

	s.SetSelection(Selection{Filter: "invert"})
	invert, err := s.AddSelected()
	require.NoError(t, err)
	s.SetSelection(Selection{Filter: "sepia"})
	_, err = s.AddSelected()
	require.NoError(t, err)

	require.NoError(t, s.MoveStepID(invert.ID, 1))
	sepia := algorithms.Apply("sepia", src, algorithms.Options{})
	assert.True(t, buffer.Equal(algorithms.Apply("invert", sepia, algorithms.Options{}), s.Frame().Processed))

	require.NoError(t, s.RemoveStepID(invert.ID))
	assert.True(t, buffer.Equal(sepia, s.Frame().Processed))

	// a second click on the removed row does not touch another step
	assert.ErrorIs(t, s.RemoveStepID(invert.ID), ErrStepIndex)
	assert.Equal(t, 1, s.Pipeline().Len())
}

func TestSessionClearFallsBackToSelected(t *testing.T) {
	s := newSession(t, func(c *config.Config) {
		c.Pipeline = []config.StepSpec{{Type: "sepia"}}
	})
	src := noise(5, 5, 5)
	require.NoError(t, s.LoadImage(src, "a.png"))
	require.NoError(t, s.RunPipeline(context.Background()))
	assert.True(t, buffer.Equal(algorithms.Apply("sepia", src, algorithms.Options{}), s.Frame().Processed))

	s.SetSelection(Selection{Filter: "invert"})
	require.NoError(t, s.ClearPipeline())
	assert.True(t, buffer.Equal(algorithms.Apply("invert", src, algorithms.Options{}), s.Frame().Processed))
}

func TestSessionLoadStep(t *testing.T) {
	s := newSession(t, func(c *config.Config) {
		c.Pipeline = []config.StepSpec{
			{Type: "posterize", Param: 40},
			{Type: "custom", Kernel: [][]float64{{1, 0, 0}, {0, 0, 0}, {0, 0, 0}}},
		}
	})

	sel, err := s.LoadStep(0)
	require.NoError(t, err)
	assert.Equal(t, "posterize", sel.Filter)
	assert.Equal(t, 40.0, sel.Param)
	assert.Equal(t, algorithms.DefaultKernel().Flat(), sel.Kernel.Flat(), "tone steps keep the grid")

	sel, err = s.LoadStep(1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sel.Kernel.Values[0][0])
	assert.Equal(t, sel, s.Selection())

	_, err = s.LoadStep(3)
	assert.ErrorIs(t, err, ErrStepIndex)
}

func TestSessionRejectsBadConfigPipeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pipeline = []config.StepSpec{{Type: "mosaic"}}
	_, err := NewSession(cfg, quietLogger())
	assert.ErrorIs(t, err, ErrUnknownFilter)
}

func TestSessionExport(t *testing.T) {
	s := newSession(t, func(c *config.Config) { c.Defaults.Filter = "invert" })
	src := noise(2, 2, 6)
	require.NoError(t, s.LoadImage(src, "a.png"))

	var out bytes.Buffer
	require.NoError(t, s.Export(&out, rawEncoder{}))
	assert.Equal(t, s.Frame().Blended.Pix, out.Bytes())

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Export(&out, rawEncoder{err: boom}), boom)
}

func TestSessionRunCancelledReportsError(t *testing.T) {
	s := newSession(t, func(c *config.Config) {
		c.Pipeline = []config.StepSpec{{Type: "sepia"}}
	})
	require.NoError(t, s.LoadImage(noise(3, 3, 7), "a.png"))

	var got error
	s.SetCallbacks(nil, func(err error) { got = err })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.RunPipeline(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, got, context.Canceled)
}

func TestImageDataFormat(t *testing.T) {
	assert.Equal(t, "jpeg", getFormatFromSource("data:image/jpeg;base64,AAAA"))
	assert.Equal(t, "png", getFormatFromSource("/tmp/x.Png"))
	assert.Equal(t, "unknown", getFormatFromSource(""))
}
