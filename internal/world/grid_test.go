package world

import (
	"testing"

	"github.com/annel0/voxel-planets/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exampleParams() GenerateParams {
	return GenerateParams{MaxHeight: 16, WaterLevel: 4, NoiseScale: 20}
}

func TestGridGenerateDeterministic(t *testing.T) {
	a := NewGrid(4, 21, 4, 42)
	b := NewGrid(4, 21, 4, 42)

	a.Generate(exampleParams())
	b.Generate(exampleParams())

	assert.Equal(t, a.Blocks(), b.Blocks(), "одинаковый сид должен давать одинаковые блоки")
	assert.Equal(t, a.HeightMap(), b.HeightMap(), "одинаковый сид должен давать одинаковые высоты")
}

func TestGridExampleColumn(t *testing.T) {
	g := NewGrid(4, 21, 4, 42)
	g.Generate(exampleParams())

	h := g.GetSurfaceHeight(0, 0)
	require.GreaterOrEqual(t, h, 0)
	require.LessOrEqual(t, h, 15)

	if h < 4 {
		for y := h + 1; y <= 4; y++ {
			assert.Equal(t, block.WaterBlockID, g.GetBlock(0, y, 0), "y=%d должен быть водой", y)
		}
	}
}

func TestGridSurfaceHeightConsistency(t *testing.T) {
	params := exampleParams()
	g := NewGrid(16, 21, 16, 1234)
	g.Generate(params)

	for x := 0; x < g.Width(); x++ {
		for z := 0; z < g.Depth(); z++ {
			h := g.GetSurfaceHeight(x, z)
			assert.Equal(t, block.GrassBlockID, g.GetBlock(x, h, z), "верх столбца (%d,%d) - трава", x, z)

			for y := 0; y < h; y++ {
				assert.Equal(t, block.DirtBlockID, g.GetBlock(x, y, z))
			}
			for y := h + 1; y < g.Height(); y++ {
				id := g.GetBlock(x, y, z)
				assert.NotEqual(t, block.DirtBlockID, id, "над поверхностью нет земли")
				if y <= params.WaterLevel {
					assert.Equal(t, block.WaterBlockID, id)
				} else {
					assert.Equal(t, block.AirBlockID, id)
				}
			}
		}
	}
}

func TestGridBoundsSafety(t *testing.T) {
	g := NewGrid(3, 4, 5, 1)
	g.Generate(DefaultGenerateParams())
	before := g.Blocks()

	coords := []int{-100, -1, 0, 2, 3, 4, 5, 6, 1000}
	for _, x := range coords {
		for _, y := range coords {
			for _, z := range coords {
				if g.InBounds(x, y, z) {
					continue
				}
				assert.Equal(t, block.AirBlockID, g.GetBlock(x, y, z))
				assert.False(t, g.IsSolid(x, y, z))
				assert.NotPanics(t, func() {
					assert.False(t, g.SetBlock(x, y, z, block.DirtBlockID))
				})
			}
		}
	}

	assert.Equal(t, before, g.Blocks(), "запись вне сетки не должна ничего менять")
	assert.Equal(t, 0, g.GetSurfaceHeight(-1, 0))
	assert.Equal(t, 0, g.GetSurfaceHeight(0, 5))
}

func TestGridClampsDimensions(t *testing.T) {
	g := NewGrid(0, -3, 0, 9)
	assert.Equal(t, 1, g.Width())
	assert.Equal(t, 1, g.Height())
	assert.Equal(t, 1, g.Depth())

	assert.NotPanics(t, func() { g.Generate(exampleParams()) })
	assert.Equal(t, block.GrassBlockID, g.GetBlock(0, 0, 0))
}

func TestGridRandomSeed(t *testing.T) {
	g := NewGrid(2, 2, 2, RandomSeed)
	assert.GreaterOrEqual(t, g.Seed(), int32(0))
}

func TestGridNeverGeneratedIsAir(t *testing.T) {
	g := NewGrid(2, 3, 2, 5)
	assert.Equal(t, 2*3*2, g.CountBlocks(block.AirBlockID))
	assert.Equal(t, 0, g.GetSurfaceHeight(1, 1))
}

func TestGridGenerateClampsParams(t *testing.T) {
	g := NewGrid(8, 6, 8, 77)

	assert.NotPanics(t, func() {
		g.Generate(GenerateParams{MaxHeight: 1000, WaterLevel: -5, NoiseScale: 0})
		g.Generate(GenerateParams{MaxHeight: -4, WaterLevel: 1000, NoiseScale: -3})
	})

	for _, h := range g.HeightMap() {
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, g.Height())
	}
}

func TestGridRegenerateIsIdempotent(t *testing.T) {
	g := NewGrid(6, 21, 6, 42)
	g.Generate(exampleParams())
	fresh := g.Blocks()

	// Копаем и ставим блоки, затем генерируем заново
	g.SetBlock(1, 0, 1, block.AirBlockID)
	g.SetBlock(2, 20, 2, block.DirtBlockID)
	g.Generate(exampleParams())

	assert.Equal(t, fresh, g.Blocks())
}

func TestGridDifferentSeedsDiffer(t *testing.T) {
	a := NewGrid(16, 21, 16, 1)
	b := NewGrid(16, 21, 16, 2)
	a.Generate(exampleParams())
	b.Generate(exampleParams())

	assert.NotEqual(t, a.HeightMap(), b.HeightMap())
}
