package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseDeterministicPerSeed(t *testing.T) {
	a := NewNoise(42)
	b := NewNoise(42)

	for i := 0; i < 50; i++ {
		x := float64(i)*0.37 + 0.11
		y := float64(i)*0.21 - 3.7
		assert.Equal(t, a.Noise2D(x, y), b.Noise2D(x, y), "один сид должен давать одинаковый шум")
	}
}

func TestNoiseRange(t *testing.T) {
	n := NewNoise(7)
	for x := -20.0; x < 20; x += 0.73 {
		for y := -20.0; y < 20; y += 0.91 {
			v := n.Noise2D(x, y)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestClamp01Open(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01Open(-0.2))
	assert.Equal(t, 0.5, Clamp01Open(0.5))
	assert.Less(t, Clamp01Open(1.3), 1.0)
	assert.Less(t, Clamp01Open(1.0), 1.0)
}
