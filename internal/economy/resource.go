package economy

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ResourceKind - вид ресурса. Порядковые номера сохраняются в файлы планет,
// поэтому порядок констант менять нельзя.
type ResourceKind int

const (
	Coin ResourceKind = iota
	Soil
	Copper
	Silver
	Gold
	Metal
	Mithril

	ResourceCount
)

var resourceNames = [ResourceCount]string{
	Coin:    "Coin",
	Soil:    "Soil",
	Copper:  "Copper",
	Silver:  "Silver",
	Gold:    "Gold",
	Metal:   "Metal",
	Mithril: "Mithril",
}

// AllResources возвращает все виды ресурсов в порядке объявления
func AllResources() []ResourceKind {
	out := make([]ResourceKind, 0, ResourceCount)
	for k := Coin; k < ResourceCount; k++ {
		out = append(out, k)
	}
	return out
}

// OreKinds - ресурсы, которые могут быть типом рудного месторождения
var OreKinds = []ResourceKind{Copper, Silver, Gold, Metal, Mithril}

// Valid проверяет, что значение входит в перечисление
func (k ResourceKind) Valid() bool {
	return k >= Coin && k < ResourceCount
}

// IsOre сообщает, может ли ресурс быть типом руды
func (k ResourceKind) IsOre() bool {
	return k >= Copper && k <= Mithril
}

func (k ResourceKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Resource(%d)", int(k))
	}
	return resourceNames[k]
}

// ParseResourceKind разбирает имя ресурса без учёта регистра
func ParseResourceKind(name string) (ResourceKind, error) {
	name = strings.TrimSpace(name)
	for k := Coin; k < ResourceCount; k++ {
		if strings.EqualFold(resourceNames[k], name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("неизвестный ресурс: %q", name)
}

var idleUnits = []string{"K", "M", "B", "T", "Qa", "Qi", "Sx", "Sp", "Oc", "No"}

// FormatIdle форматирует количество в стиле idle-игр: 999, 1.2K, 3.4M.
// Дробная часть отсекается до одного знака, а не округляется.
func FormatIdle(value int64) string {
	if value < 0 {
		if value == math.MinInt64 {
			return "-" + FormatIdle(math.MaxInt64)
		}
		return "-" + FormatIdle(-value)
	}
	if value < 1000 {
		return strconv.FormatInt(value, 10)
	}

	v := float64(value)
	unit := -1
	for v >= 1000 && unit < len(idleUnits)-1 {
		v /= 1000
		unit++
	}

	rounded := math.Floor(v*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + idleUnits[unit]
}
