package util

import (
	"math"

	"github.com/aquilax/go-perlin"
)

const (
	perlinAlpha   = 2.0 // Сглаживание шума
	perlinBeta    = 2.0 // Частота шума
	perlinOctaves = 3   // Количество октав
)

// Noise - генератор когерентного 2D шума, привязанный к одному сиду.
// В отличие от глобального генератора каждая сетка владеет своим экземпляром,
// поэтому генерация двух миров с разными сидами не влияет друг на друга.
type Noise struct {
	seed   int64
	perlin *perlin.Perlin
}

// NewNoise создаёт генератор шума Перлина с указанным сидом
func NewNoise(seed int64) *Noise {
	return &Noise{
		seed:   seed,
		perlin: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
	}
}

// Seed возвращает сид генератора
func (n *Noise) Seed() int64 {
	return n.seed
}

// Noise2D возвращает значение шума в диапазоне [0, 1)
func (n *Noise) Noise2D(x, y float64) float64 {
	// Сумма октав может немного выходить за [-1, 1]
	v := (n.perlin.Noise2D(x, y) + 1.0) / 2.0
	return Clamp01Open(v)
}

// Clamp01Open ограничивает значение полуинтервалом [0, 1)
func Clamp01Open(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return maxBelowOne
	}
	return v
}

// maxBelowOne - наибольшее float64 меньше единицы
const maxBelowOne = 1 - 1.0/(1<<53)
