package block

// Material определяет класс меша, в который попадают грани блока
type Material uint8

const (
	MaterialNone Material = iota
	MaterialGrass
	MaterialDirt
	MaterialWater

	MaterialCount // всегда последний: количество классов
)

// MeshMaterials перечисляет классы мешей в порядке построения
var MeshMaterials = [...]Material{MaterialGrass, MaterialDirt, MaterialWater}

// String возвращает имя класса меша
func (m Material) String() string {
	switch m {
	case MaterialGrass:
		return "Grass"
	case MaterialDirt:
		return "Dirt"
	case MaterialWater:
		return "Water"
	default:
		return "None"
	}
}

// Behavior описывает статические свойства типа блока
type Behavior struct {
	Name     string
	Solid    bool     // Участвует в отсечении граней соседей
	Material Material // Класс меша

	// SurfaceOnly - блок рисуется только верхней плоскостью (вода)
	SurfaceOnly bool
}
