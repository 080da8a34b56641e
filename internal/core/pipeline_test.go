package core

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-filter-sandbox/internal/algorithms"
	"image-filter-sandbox/internal/buffer"
	"image-filter-sandbox/internal/config"
)

func quietLogger() *logrus.Logger {
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func noise(w, h int, seed int64) *buffer.Buffer {
	r := rand.New(rand.NewSource(seed))
	b := buffer.New(w, h)
	r.Read(b.Pix)
	b.NormalizeAlpha()
	return b
}

func TestNewStep(t *testing.T) {
	edge := NewStep("edge", 50, nil)
	require.NotNil(t, edge.Options.Kernel)
	assert.Equal(t, []float64{-1, -1, -1, -1, 8, -1, -1, -1, -1}, edge.Options.Kernel.Flat())
	assert.Equal(t, "edge", edge.Label)
	assert.NotEmpty(t, edge.ID)

	post := NewStep("posterize", 128, nil)
	assert.Nil(t, post.Options.Kernel)
	assert.Equal(t, "Posterize (16 levels)", post.Label)

	custom := NewStep("custom", 0, algorithms.ParseKernel([]string{"0", "0", "0", "0", "2"}))
	assert.Equal(t, "Custom kernel", custom.Label)
	assert.Equal(t, 2.0, custom.Options.Kernel.Values[1][1])

	assert.NotEqual(t, edge.ID, NewStep("edge", 50, nil).ID)
}

func TestNewStepCopiesCustomKernel(t *testing.T) {
	k := algorithms.IdentityKernel()
	step := NewStep("custom", 0, k)
	k.Values[1][1] = 9
	assert.Equal(t, 1.0, step.Options.Kernel.Values[1][1])
}

func TestPipelineAddRejectsUnknown(t *testing.T) {
	p := NewPipeline(quietLogger())
	err := p.Add(NewStep("vignette", 0, nil))
	assert.ErrorIs(t, err, ErrUnknownFilter)
	assert.Equal(t, 0, p.Len())
}

func TestPipelineRunOrder(t *testing.T) {
	src := noise(8, 8, 1)
	p := NewPipeline(quietLogger())
	require.NoError(t, p.Add(NewStep("sepia", 0, nil)))
	require.NoError(t, p.Add(NewStep("posterize", 64, nil)))

	got, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	want := algorithms.Apply("posterize", algorithms.Apply("sepia", src, algorithms.Options{}), algorithms.Options{Param: 64})
	assert.True(t, buffer.Equal(want, got))

	// reordering changes the result
	require.True(t, p.Move(0, 1))
	swapped, err := p.Run(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, buffer.Equal(got, swapped))
}

func TestPipelineRunDoesNotTouchSource(t *testing.T) {
	src := noise(6, 6, 2)
	before := src.Clone()

	p := NewPipeline(quietLogger())
	require.NoError(t, p.Add(NewStep("invert", 0, nil)))
	_, err := p.Run(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(before, src))
}

func TestPipelineEmptyRunCopies(t *testing.T) {
	src := noise(3, 3, 3)
	p := NewPipeline(quietLogger())

	out, err := p.Run(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(src, out))
	assert.NotSame(t, src, out)
}

func TestPipelineRunCancelled(t *testing.T) {
	p := NewPipeline(quietLogger())
	require.NoError(t, p.Add(NewStep("invert", 0, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, noise(2, 2, 4))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineMoveRemoveClear(t *testing.T) {
	p := NewPipeline(quietLogger())
	for _, name := range []string{"invert", "sepia", "threshold"} {
		require.NoError(t, p.Add(NewStep(name, 128, nil)))
	}

	types := func() []string {
		var out []string
		for _, s := range p.Steps() {
			out = append(out, s.Type)
		}
		return out
	}

	assert.False(t, p.Move(0, -1))
	assert.False(t, p.Move(2, 1))
	assert.Equal(t, []string{"invert", "sepia", "threshold"}, types())

	assert.True(t, p.Move(2, -1))
	assert.Equal(t, []string{"invert", "threshold", "sepia"}, types())

	require.NoError(t, p.Remove(0))
	assert.Equal(t, []string{"threshold", "sepia"}, types())
	assert.ErrorIs(t, p.Remove(5), ErrStepIndex)

	_, err := p.Step(-1)
	assert.ErrorIs(t, err, ErrStepIndex)

	p.Clear()
	assert.Equal(t, 0, p.Len())
}

func TestPipelineEditsByID(t *testing.T) {
	p := NewPipeline(quietLogger())
	invert := NewStep("invert", 0, nil)
	sepia := NewStep("sepia", 0, nil)
	require.NoError(t, p.Add(invert))
	require.NoError(t, p.Add(sepia))

	// a row captured sepia at index 1; after the move it sits at 0
	require.True(t, p.Move(1, -1))
	assert.True(t, p.MoveByID(sepia.ID, 1))
	s, _ := p.Step(1)
	assert.Equal(t, sepia.ID, s.ID)

	assert.False(t, p.MoveByID(sepia.ID, 1))
	assert.False(t, p.MoveByID("missing", -1))

	require.NoError(t, p.RemoveByID(invert.ID))
	assert.ErrorIs(t, p.RemoveByID(invert.ID), ErrStepIndex)
	require.Equal(t, 1, p.Len())
	s, _ = p.Step(0)
	assert.Equal(t, "sepia", s.Type)
}

func TestPipelineStepsIsCopy(t *testing.T) {
	p := NewPipeline(quietLogger())
	require.NoError(t, p.Add(NewStep("invert", 0, nil)))

	steps := p.Steps()
	steps[0].Type = "sepia"

	s, err := p.Step(0)
	require.NoError(t, err)
	assert.Equal(t, "invert", s.Type)
}

func TestPipelineSpecsRoundTrip(t *testing.T) {
	p := NewPipeline(quietLogger())
	specs := []config.StepSpec{
		{Type: "threshold", Param: 90},
		{Type: "custom", Kernel: [][]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}},
		{Type: "gaussian"},
		{Type: "edge", Kernel: [][]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}},
	}
	require.NoError(t, p.LoadSpecs(specs))
	assert.Equal(t, specs, p.Specs())

	src := noise(6, 6, 11)
	want, err := p.Run(context.Background(), src)
	require.NoError(t, err)

	reloaded := NewPipeline(quietLogger())
	require.NoError(t, reloaded.LoadSpecs(p.Specs()))
	got, err := reloaded.Run(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, buffer.Equal(want, got), "reloaded pipeline keeps the kernel override")
}

func TestPipelineLoadSpecsAtomic(t *testing.T) {
	p := NewPipeline(quietLogger())
	require.NoError(t, p.Add(NewStep("invert", 0, nil)))

	err := p.LoadSpecs([]config.StepSpec{{Type: "sepia"}, {Type: "nope"}})
	assert.ErrorIs(t, err, ErrUnknownFilter)

	err = p.LoadSpecs([]config.StepSpec{{Type: "custom", Kernel: [][]float64{{1, 2}, {3, 4}}}})
	assert.ErrorIs(t, err, algorithms.ErrInvalidKernel)

	require.Equal(t, 1, p.Len())
	s, _ := p.Step(0)
	assert.Equal(t, "invert", s.Type)
}

func TestStepFromSpecKernelOverride(t *testing.T) {
	step, err := StepFromSpec(config.StepSpec{Type: "edge", Kernel: [][]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}})
	require.NoError(t, err)

	src := noise(5, 5, 5)
	assert.True(t, buffer.Equal(src, step.Apply(src)))
}
