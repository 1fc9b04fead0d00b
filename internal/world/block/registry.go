package block

import "fmt"

var registry = map[BlockID]Behavior{
	AirBlockID:   {Name: "Air", Solid: false, Material: MaterialNone},
	GrassBlockID: {Name: "Grass", Solid: true, Material: MaterialGrass},
	DirtBlockID:  {Name: "Dirt", Solid: true, Material: MaterialDirt},
	WaterBlockID: {Name: "Water", Solid: false, Material: MaterialWater, SurfaceOnly: true},
}

// Get возвращает поведение для указанного ID
func Get(id BlockID) (Behavior, bool) {
	behavior, exists := registry[id]
	return behavior, exists
}

// IsValidBlockID проверяет, является ли ID допустимым идентификатором блока
func IsValidBlockID(id BlockID) bool {
	_, exists := registry[id]
	return exists
}

// BlockID представляет тип блока. Хранится в сетке по значению.
type BlockID uint8

// Константы ID блоков. Порядок совпадает с порядковыми номерами в сохранениях.
const (
	AirBlockID   BlockID = iota // 0
	GrassBlockID                // 1
	DirtBlockID                 // 2
	WaterBlockID                // 3
)

// IsSolid возвращает true, если блок не является ни воздухом, ни водой
func (id BlockID) IsSolid() bool {
	behavior, ok := registry[id]
	return ok && behavior.Solid
}

// String возвращает имя блока
func (id BlockID) String() string {
	if behavior, ok := registry[id]; ok {
		return behavior.Name
	}
	return fmt.Sprintf("Block(%d)", uint8(id))
}

// ParseBlockID находит блок по имени (без учёта регистра не поддерживается)
func ParseBlockID(name string) (BlockID, bool) {
	for id, behavior := range registry {
		if behavior.Name == name {
			return id, true
		}
	}
	return AirBlockID, false
}
