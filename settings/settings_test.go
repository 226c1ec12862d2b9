package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tunable struct {
	SampleRate int
	Gain       float64
	Label      string
	hidden     int
}

func TestNewRejectsNonStructPointer(t *testing.T) {
	_, err := New(42)
	assert.Error(t, err)
	_, err = New(tunable{})
	assert.Error(t, err)
}

func TestSetStagesAndReportsUnrecognised(t *testing.T) {
	target := &tunable{}
	s, err := New(target)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"sample_rate", "gain", "label"}, s.Keys())

	unrecognised := s.Set(map[string]interface{}{
		"sample_rate": 48000,
		"gain":        0.5,
		"bogus":       true,
	})
	assert.Equal(t, map[string]interface{}{"bogus": true}, unrecognised)
	assert.True(t, s.Changed())

	// nothing applied yet
	assert.Equal(t, 0, target.SampleRate)

	result := s.ApplyStaged()
	assert.False(t, s.Changed())
	assert.Equal(t, 48000, target.SampleRate)
	assert.Equal(t, 0.5, target.Gain)
	assert.Len(t, result.Applied, 2)
	assert.Empty(t, result.Forward)
}

func TestSetReturnsNilWhenAllRecognised(t *testing.T) {
	s, err := New(&tunable{})
	require.NoError(t, err)
	assert.Nil(t, s.Set(map[string]interface{}{"label": "x"}))
}

func TestApplyStagedConverts(t *testing.T) {
	target := &tunable{}
	s, err := New(target)
	require.NoError(t, err)

	// int value onto float64 field converts; junk is dropped
	s.Set(map[string]interface{}{"gain": 2, "label": 13})
	result := s.ApplyStaged()
	assert.Equal(t, 2.0, target.Gain)
	assert.Contains(t, result.Applied, "gain")
	assert.NotContains(t, result.Applied, "label")
}

func TestAutoForward(t *testing.T) {
	target := &tunable{}
	s, err := New(target)
	require.NoError(t, err)

	s.AutoForward("sample_rate", "bogus")
	assert.ElementsMatch(t, []string{"sample_rate"}, s.AutoForwardParameters())

	s.Set(map[string]interface{}{"sample_rate": 96000, "gain": 1.0})
	result := s.ApplyStaged()
	assert.Equal(t, map[string]interface{}{"sample_rate": 96000}, result.Forward)
	assert.Len(t, result.Applied, 2)
}

func TestGet(t *testing.T) {
	target := &tunable{SampleRate: 44100, Gain: 0.7, Label: "a"}
	s, err := New(target)
	require.NoError(t, err)

	all := s.Get()
	assert.Equal(t, 44100, all["sample_rate"])
	assert.Equal(t, 0.7, all["gain"])

	some := s.Get("label", "bogus")
	assert.Equal(t, map[string]interface{}{"label": "a"}, some)
}

func TestCtxEqualityAndHash(t *testing.T) {
	now := time.Now()
	c1 := NewCtx(now, map[string]interface{}{"channel": "A"})
	c2 := NewCtx(now, map[string]interface{}{"channel": "A"})
	c3 := NewCtx(now, map[string]interface{}{"channel": "B"})

	assert.True(t, c1.Equal(c2))
	assert.Equal(t, c1.Hash(), c2.Hash())
	assert.False(t, c1.Equal(c3))
	assert.NotEqual(t, c1.Hash(), c3.Hash())

	var zero Ctx
	assert.False(t, zero.Equal(c1))
	assert.True(t, zero.Before(c1))
	assert.False(t, c1.Before(zero))
}

func TestStagedCtx(t *testing.T) {
	s, err := New(&tunable{})
	require.NoError(t, err)

	ctx := NewCtx(time.Unix(100, 0), nil)
	s.Set(map[string]interface{}{"gain": 1.0}, ctx)
	assert.True(t, s.StagedCtx().Equal(ctx))

	s.ApplyStaged()
	assert.True(t, s.StagedCtx().Equal(Ctx{}))
}
