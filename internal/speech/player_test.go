package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayDisplacesCurrentClip(t *testing.T) {
	p := NewPlayer()

	first := p.Play([]byte("one"), "audio/mpeg")
	second := p.Play([]byte("two"), "audio/mpeg")

	require.True(t, p.Playing())
	assert.Equal(t, second.ID, p.Current().ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStopReleasesSlot(t *testing.T) {
	p := NewPlayer()
	p.Play([]byte("one"), "audio/mpeg")

	p.Stop()
	assert.False(t, p.Playing())
	assert.Nil(t, p.Current())

	// Stop on an empty slot is safe.
	p.Stop()
	assert.False(t, p.Playing())
}

func TestCompleteIgnoresStaleClip(t *testing.T) {
	p := NewPlayer()

	first := p.Play([]byte("one"), "audio/mpeg")
	second := p.Play([]byte("two"), "audio/mpeg")

	// The displaced clip finishing must not stop the active one.
	p.Complete(first.ID)
	require.True(t, p.Playing())
	assert.Equal(t, second.ID, p.Current().ID)

	p.Complete(second.ID)
	assert.False(t, p.Playing())
}
