package placement

import (
	"fmt"

	"github.com/annel0/voxel-planets/internal/vec"
)

// Kind - вид размещённого объекта
type Kind uint8

const (
	KindOre Kind = iota
	KindSpawner
	KindTotem

	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindOre:
		return "ore"
	case KindSpawner:
		return "spawner"
	case KindTotem:
		return "totem"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// TotemType - тип тотема. Порядковые номера сохраняются в файлы.
type TotemType int

const (
	TotemSwift TotemType = iota
	TotemProduction
	TotemHarvest
	TotemExpansion
	TotemDuplication
	TotemStability

	TotemTypeCount
)

var totemNames = [TotemTypeCount]string{"Swift", "Production", "Harvest", "Expansion", "Duplication", "Stability"}

// Valid проверяет, что значение входит в перечисление
func (t TotemType) Valid() bool {
	return t >= 0 && t < TotemTypeCount
}

func (t TotemType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Totem(%d)", int(t))
	}
	return totemNames[t]
}

// ObjectID - стабильный идентификатор объекта в пределах загруженной планеты
type ObjectID uint64

// Object - размещённый объект: вид, подтип и трансформ.
// Subtype для руды - economy.ResourceKind, для тотема - TotemType, для спавнера не используется.
type Object struct {
	ID       ObjectID
	Kind     Kind
	Subtype  int
	Position vec.Vec3Float
	Rotation vec.Quat
}
