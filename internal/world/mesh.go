package world

import (
	"math"

	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// Face - одна из шести осевых граней куба
type Face uint8

const (
	FaceTop Face = iota
	FaceBottom
	FaceFront // +Z
	FaceBack  // -Z
	FaceRight // +X
	FaceLeft  // -X

	FaceCount
)

// Количество вершин и индексов, которое добавляет одна грань
const (
	VerticesPerFace = 4
	IndicesPerFace  = 6
)

type faceDef struct {
	neighbor vec.Vec3      // Сосед, закрывающий грань
	normal   vec.Vec3Float // Внешняя нормаль
	corners  [4][3]float64 // Смещения углов от центра ячейки
}

// quadIndices - два треугольника на грань. Углы в faceDefs упорядочены так,
// что (v1-v0)×(v2-v0) смотрит наружу куба для каждой грани.
var quadIndices = [IndicesPerFace]uint32{0, 1, 2, 0, 2, 3}

var faceDefs = [FaceCount]faceDef{
	FaceTop: {
		neighbor: vec.Vec3{Y: 1},
		normal:   vec.Vec3Float{Y: 1},
		corners:  [4][3]float64{{-0.5, 0.5, -0.5}, {-0.5, 0.5, 0.5}, {0.5, 0.5, 0.5}, {0.5, 0.5, -0.5}},
	},
	FaceBottom: {
		neighbor: vec.Vec3{Y: -1},
		normal:   vec.Vec3Float{Y: -1},
		corners:  [4][3]float64{{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, -0.5, 0.5}, {-0.5, -0.5, 0.5}},
	},
	FaceFront: {
		neighbor: vec.Vec3{Z: 1},
		normal:   vec.Vec3Float{Z: 1},
		corners:  [4][3]float64{{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5}},
	},
	FaceBack: {
		neighbor: vec.Vec3{Z: -1},
		normal:   vec.Vec3Float{Z: -1},
		corners:  [4][3]float64{{-0.5, -0.5, -0.5}, {-0.5, 0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, -0.5, -0.5}},
	},
	FaceRight: {
		neighbor: vec.Vec3{X: 1},
		normal:   vec.Vec3Float{X: 1},
		corners:  [4][3]float64{{0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {0.5, 0.5, 0.5}, {0.5, -0.5, 0.5}},
	},
	FaceLeft: {
		neighbor: vec.Vec3{X: -1},
		normal:   vec.Vec3Float{X: -1},
		corners:  [4][3]float64{{-0.5, -0.5, -0.5}, {-0.5, -0.5, 0.5}, {-0.5, 0.5, 0.5}, {-0.5, 0.5, -0.5}},
	},
}

// Normal возвращает внешнюю нормаль грани
func (f Face) Normal() vec.Vec3Float {
	return faceDefs[f].normal
}

// Mesh - буферы вершин и индексов одного класса материала.
// Индексы 32-битные: миры больше 65k вершин не должны портить геометрию.
type Mesh struct {
	Vertices []vec.Vec3Float
	Normals  []vec.Vec3Float
	Indices  []uint32
}

// VertexCount возвращает количество вершин
func (m *Mesh) VertexCount() int { return len(m.Vertices) }

// TriangleCount возвращает количество треугольников
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// FaceCount возвращает количество граней (четырёхугольников)
func (m *Mesh) FaceCount() int { return len(m.Indices) / IndicesPerFace }

// Bounds возвращает ограничивающий параллелепипед вершин
func (m *Mesh) Bounds() (lo, hi vec.Vec3Float) {
	if len(m.Vertices) == 0 {
		return vec.Vec3Float{}, vec.Vec3Float{}
	}
	lo = vec.Vec3Float{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	hi = vec.Vec3Float{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for _, v := range m.Vertices {
		lo.X, hi.X = math.Min(lo.X, v.X), math.Max(hi.X, v.X)
		lo.Y, hi.Y = math.Min(lo.Y, v.Y), math.Max(hi.Y, v.Y)
		lo.Z, hi.Z = math.Min(lo.Z, v.Z), math.Max(hi.Z, v.Z)
	}
	return lo, hi
}

func (m *Mesh) addFace(center vec.Vec3, f Face) {
	def := &faceDefs[f]
	base := uint32(len(m.Vertices))
	c := center.ToFloat()

	for _, corner := range def.corners {
		m.Vertices = append(m.Vertices, vec.Vec3Float{X: c.X + corner[0], Y: c.Y + corner[1], Z: c.Z + corner[2]})
		m.Normals = append(m.Normals, def.normal)
	}
	for _, i := range quadIndices {
		m.Indices = append(m.Indices, base+i)
	}
}

// MeshObject - готовый объект мира: меш для отрисовки и совпадающий меш коллизий
type MeshObject struct {
	Name      string
	Material  block.Material
	Render    *Mesh
	Collision *Mesh // Та же геометрия, что и Render
}
