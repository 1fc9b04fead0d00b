package world

import (
	"bytes"
	"strings"
	"testing"

	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMesherSingleCellEmitsSixFaces(t *testing.T) {
	g := NewGrid(3, 3, 3, 1)
	g.SetBlock(1, 1, 1, block.DirtBlockID)

	objects := NewMesher(g).Build()
	require.Len(t, objects, 1)

	obj := objects[0]
	assert.Equal(t, block.MaterialDirt, obj.Material)
	assert.Equal(t, "Dirt", obj.Name)
	assert.Equal(t, 6, obj.Render.FaceCount())
	assert.Equal(t, 24, obj.Render.VertexCount())
	assert.Equal(t, 12, obj.Render.TriangleCount())
	assert.Same(t, obj.Render, obj.Collision, "меш коллизий совпадает с мешем отрисовки")

	lo, hi := obj.Render.Bounds()
	assert.Equal(t, vec.Vec3Float{X: 0.5, Y: 0.5, Z: 0.5}, lo)
	assert.Equal(t, vec.Vec3Float{X: 1.5, Y: 1.5, Z: 1.5}, hi)
}

func TestMesherSingleCellAtGridEdge(t *testing.T) {
	g := NewGrid(1, 1, 1, 1)
	g.SetBlock(0, 0, 0, block.GrassBlockID)

	objects := NewMesher(g).Build()
	require.Len(t, objects, 1)
	assert.Equal(t, 6, objects[0].Render.FaceCount(), "за краем сетки воздух")
}

func TestMesherEmptyGrid(t *testing.T) {
	g := NewGrid(4, 4, 4, 1)
	assert.Empty(t, NewMesher(g).Build())
}

func TestMesherCullsSharedFaces(t *testing.T) {
	g := NewGrid(3, 3, 3, 1)
	g.SetBlock(0, 0, 0, block.DirtBlockID)
	g.SetBlock(1, 0, 0, block.GrassBlockID)

	meshes := NewMesher(g).BuildMeshes()
	assert.Equal(t, 5, meshes[block.MaterialDirt].FaceCount())
	assert.Equal(t, 5, meshes[block.MaterialGrass].FaceCount())
	assert.Equal(t, 0, meshes[block.MaterialWater].FaceCount())
}

func TestMesherWaterAlwaysEmitsTop(t *testing.T) {
	g := NewGrid(1, 3, 1, 1)
	g.SetBlock(0, 0, 0, block.WaterBlockID)
	g.SetBlock(0, 1, 0, block.WaterBlockID)
	g.SetBlock(0, 2, 0, block.GrassBlockID)

	meshes := NewMesher(g).BuildMeshes()
	assert.Equal(t, 2, meshes[block.MaterialWater].FaceCount(), "каждая ячейка воды даёт верхнюю грань")
	assert.Equal(t, 6, meshes[block.MaterialGrass].FaceCount(), "вода не закрывает грани травы")

	for _, n := range meshes[block.MaterialWater].Normals {
		assert.Equal(t, vec.Vec3Float{Y: 1}, n)
	}
}

func TestMesherFacesWoundOutward(t *testing.T) {
	g := NewGrid(1, 1, 1, 1)
	g.SetBlock(0, 0, 0, block.DirtBlockID)
	mesh := NewMesher(g).BuildMeshes()[block.MaterialDirt]

	for i := 0; i < len(mesh.Indices); i += 3 {
		v0 := mesh.Vertices[mesh.Indices[i]]
		v1 := mesh.Vertices[mesh.Indices[i+1]]
		v2 := mesh.Vertices[mesh.Indices[i+2]]
		e1, e2 := v1.Sub(v0), v2.Sub(v0)
		cross := vec.Vec3Float{
			X: e1.Y*e2.Z - e1.Z*e2.Y,
			Y: e1.Z*e2.X - e1.X*e2.Z,
			Z: e1.X*e2.Y - e1.Y*e2.X,
		}
		n := mesh.Normals[mesh.Indices[i]]
		dot := cross.X*n.X + cross.Y*n.Y + cross.Z*n.Z
		assert.Greater(t, dot, 0.0, "треугольник %d должен смотреть наружу", i/3)
	}
}

func TestMesherDeterministicLayout(t *testing.T) {
	build := func() [block.MaterialCount]*Mesh {
		g := NewGrid(12, 21, 12, 42)
		g.Generate(exampleParams())
		return NewMesher(g).BuildMeshes()
	}

	a, b := build(), build()
	for _, mat := range block.MeshMaterials {
		assert.Equal(t, a[mat].Vertices, b[mat].Vertices, "порядок вершин %s", mat)
		assert.Equal(t, a[mat].Indices, b[mat].Indices, "порядок индексов %s", mat)
	}
}

func TestMesherWideIndices(t *testing.T) {
	// Шахматная сетка: каждая твёрдая ячейка изолирована и отдаёт все 6 граней
	g := NewGrid(24, 24, 24, 1)
	for x := 0; x < 24; x++ {
		for y := 0; y < 24; y++ {
			for z := 0; z < 24; z++ {
				if (x+y+z)%2 == 0 {
					g.SetBlock(x, y, z, block.DirtBlockID)
				}
			}
		}
	}

	mesh := NewMesher(g).BuildMeshes()[block.MaterialDirt]
	require.Greater(t, mesh.VertexCount(), 65536)

	var maxIndex uint32
	for _, i := range mesh.Indices {
		maxIndex = max(maxIndex, i)
	}
	assert.Equal(t, uint32(mesh.VertexCount()-1), maxIndex)
}

func TestWriteOBJ(t *testing.T) {
	g := NewGrid(3, 3, 3, 1)
	g.SetBlock(1, 1, 1, block.DirtBlockID)

	var buf bytes.Buffer
	require.NoError(t, WriteOBJ(&buf, NewMesher(g).Build()))

	out := buf.String()
	assert.Contains(t, out, "g Dirt\n")
	assert.Equal(t, 24, strings.Count(out, "\nv "))
	assert.Equal(t, 12, strings.Count(out, "\nf "))
	assert.Contains(t, out, "f 1//1 2//2 3//3\n")
}
