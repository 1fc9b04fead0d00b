package world

import (
	"testing"

	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubQuery возвращает заранее заданное попадание и запоминает дальность
type stubQuery struct {
	hit         RaycastHit
	ok          bool
	lastMaxDist float64
}

func (s *stubQuery) Raycast(_ Ray, maxDistance float64) (RaycastHit, bool) {
	s.lastMaxDist = maxDistance
	return s.hit, s.ok
}

func TestPickerCellsDifferAlongNormal(t *testing.T) {
	cases := []struct {
		name      string
		hit       RaycastHit
		target    vec.Vec3
		placement vec.Vec3
	}{
		{"верх", RaycastHit{Point: vec.Vec3Float{X: 2, Y: 3.5, Z: 1}, Normal: vec.Vec3Float{Y: 1}}, vec.Vec3{X: 2, Y: 3, Z: 1}, vec.Vec3{X: 2, Y: 4, Z: 1}},
		{"низ", RaycastHit{Point: vec.Vec3Float{X: 2, Y: 2.5, Z: 1}, Normal: vec.Vec3Float{Y: -1}}, vec.Vec3{X: 2, Y: 3, Z: 1}, vec.Vec3{X: 2, Y: 2, Z: 1}},
		{"право", RaycastHit{Point: vec.Vec3Float{X: 2.5, Y: 3, Z: 1}, Normal: vec.Vec3Float{X: 1}}, vec.Vec3{X: 2, Y: 3, Z: 1}, vec.Vec3{X: 3, Y: 3, Z: 1}},
		{"лево у нуля", RaycastHit{Point: vec.Vec3Float{X: -0.5, Y: 0.2, Z: 0.3}, Normal: vec.Vec3Float{X: -1}}, vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: -1, Y: 0, Z: 0}},
		{"зад", RaycastHit{Point: vec.Vec3Float{X: 4.1, Y: 1.2, Z: 6.5}, Normal: vec.Vec3Float{Z: -1}}, vec.Vec3{X: 4, Y: 1, Z: 7}, vec.Vec3{X: 4, Y: 1, Z: 6}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			target := TargetCell(c.hit)
			placement := PlacementCell(c.hit)
			assert.Equal(t, c.target, target)
			assert.Equal(t, c.placement, placement)

			diff := placement.Sub(target)
			axis := c.hit.Normal.DominantAxis()
			components := [3]int{diff.X, diff.Y, diff.Z}
			for i, d := range components {
				if i == axis {
					assert.Equal(t, 1, abs(d), "разница в одну ячейку вдоль нормали")
				} else {
					assert.Equal(t, 0, d)
				}
			}
		})
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestPickerNoHit(t *testing.T) {
	g := NewGrid(2, 2, 2, 1)
	p := NewPicker(g, &stubQuery{ok: false})

	_, ok := p.BlockPosition(Ray{}, 0)
	assert.False(t, ok)
	_, ok = p.PlacementPosition(Ray{}, 0)
	assert.False(t, ok)
	_, ok = p.HitInfo(Ray{}, 0)
	assert.False(t, ok)

	// Без физического запроса пикер просто ничего не находит
	_, ok = NewPicker(g, nil).BlockType(Ray{}, 10)
	assert.False(t, ok)
}

func TestPickerDefaultDistance(t *testing.T) {
	q := &stubQuery{ok: true}
	p := NewPicker(NewGrid(1, 1, 1, 1), q)

	p.BlockPosition(Ray{}, 0)
	assert.Equal(t, DefaultPickDistance, q.lastMaxDist)

	p.BlockPosition(Ray{}, 12)
	assert.Equal(t, 12.0, q.lastMaxDist)
}

func TestPickerHitInfoOnGeneratedColumn(t *testing.T) {
	g := NewGrid(4, 21, 4, 42)
	g.Generate(exampleParams())
	h := g.GetSurfaceHeight(1, 2)

	hit := RaycastHit{Point: vec.Vec3Float{X: 1, Y: float64(h) + 0.5, Z: 2}, Normal: vec.Vec3Float{Y: 1}}
	p := NewPicker(g, &stubQuery{hit: hit, ok: true})

	info, ok := p.HitInfo(Ray{}, 0)
	require.True(t, ok)
	assert.Equal(t, vec.Vec3{X: 1, Y: h, Z: 2}, info.BlockPosition)
	assert.Equal(t, vec.Vec3{X: 1, Y: h + 1, Z: 2}, info.PlacementPosition)
	assert.Equal(t, block.GrassBlockID, info.BlockType)

	id, ok := p.BlockType(Ray{}, 0)
	require.True(t, ok)
	assert.Equal(t, block.GrassBlockID, id)
}
