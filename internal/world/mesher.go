package world

import (
	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// Mesher строит геометрию поверхности сетки: по одному мешу на класс материала.
//
// Это наивный кубический мешер с отсечением граней: грань твёрдого блока
// добавляется, только если сосед за ней не твёрдый. Вершины между гранями
// не объединяются, каждая грань - 4 вершины и 6 индексов.
type Mesher struct {
	grid *Grid
}

// NewMesher создаёт мешер для сетки
func NewMesher(grid *Grid) *Mesher {
	return &Mesher{grid: grid}
}

// BuildMeshes обходит сетку в порядке x, z, y и возвращает буферы по материалам.
// Порядок обхода фиксирован: одинаковые сетки дают одинаковый порядок вершин.
func (m *Mesher) BuildMeshes() [block.MaterialCount]*Mesh {
	var meshes [block.MaterialCount]*Mesh
	for _, mat := range block.MeshMaterials {
		meshes[mat] = &Mesh{}
	}

	g := m.grid
	for x := 0; x < g.Width(); x++ {
		for z := 0; z < g.Depth(); z++ {
			for y := 0; y < g.Height(); y++ {
				id := g.GetBlock(x, y, z)
				behavior, ok := block.Get(id)
				if !ok || behavior.Material == block.MaterialNone {
					continue
				}

				pos := vec.Vec3{X: x, Y: y, Z: z}
				mesh := meshes[behavior.Material]

				if behavior.SurfaceOnly {
					// Вода рисуется плоским слоем и всегда отдаёт верхнюю грань
					mesh.addFace(pos, FaceTop)
					continue
				}
				m.addVisibleFaces(mesh, pos)
			}
		}
	}

	return meshes
}

func (m *Mesher) addVisibleFaces(mesh *Mesh, pos vec.Vec3) {
	for f := Face(0); f < FaceCount; f++ {
		n := pos.Add(faceDefs[f].neighbor)
		if !m.grid.IsSolid(n.X, n.Y, n.Z) {
			mesh.addFace(pos, f)
		}
	}
}

// Build строит объекты мира. Классы без граней пропускаются,
// поэтому пустая сетка даёт пустой список.
func (m *Mesher) Build() []*MeshObject {
	meshes := m.BuildMeshes()

	objects := make([]*MeshObject, 0, len(block.MeshMaterials))
	for _, mat := range block.MeshMaterials {
		mesh := meshes[mat]
		if mesh.VertexCount() == 0 {
			continue
		}
		objects = append(objects, &MeshObject{
			Name:      mat.String(),
			Material:  mat,
			Render:    mesh,
			Collision: mesh,
		})
	}
	return objects
}
