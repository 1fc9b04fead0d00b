package world

import (
	"math"
	"math/rand"

	"github.com/annel0/voxel-planets/internal/util"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// Параметры генерации по умолчанию
const (
	DefaultMaxHeight  = 16
	DefaultWaterLevel = 4
	DefaultNoiseScale = 20.0

	// Разброс случайного смещения шума по каждой оси
	noiseOffsetRange = 9999.0
	// Нижняя граница масштаба шума
	minNoiseScale = 0.0001
)

// GenerateParams задаёт форму ландшафта
type GenerateParams struct {
	MaxHeight  int     // Максимальная высота поверхности
	WaterLevel int     // Уровень воды: всё ниже заполняется водой
	NoiseScale float64 // Масштаб шума: больше - более пологий рельеф
}

// DefaultGenerateParams возвращает параметры по умолчанию
func DefaultGenerateParams() GenerateParams {
	return GenerateParams{
		MaxHeight:  DefaultMaxHeight,
		WaterLevel: DefaultWaterLevel,
		NoiseScale: DefaultNoiseScale,
	}
}

// Generate детерминированно заполняет всю сетку из сида.
//
// Для каждого столбца (x,z) высота h = floor(noise * maxHeight), где noise берётся
// из шума Перлина в точке ((x+offsetX)/scale, (z+offsetZ)/scale). Ячейки [0,h] - земля,
// верхняя из них трава; (h, waterLevel] - вода; остальное до потолка - воздух.
// Все входные параметры ограничиваются так, что запись за пределы сетки невозможна.
// Повторный вызов с теми же параметрами даёт ту же сетку.
func (g *Grid) Generate(params GenerateParams) {
	// Локальный генератор случайных чисел для детерминированности
	rng := rand.New(rand.NewSource(int64(g.seed)))
	offsetX := (rng.Float64()*2 - 1) * noiseOffsetRange
	offsetZ := (rng.Float64()*2 - 1) * noiseOffsetRange

	noise := util.NewNoise(int64(g.seed))

	maxY := g.height - 1
	clampedMaxHeight := clampInt(params.MaxHeight, 0, maxY)
	clampedWater := clampInt(params.WaterLevel, 0, maxY)
	scale := params.NoiseScale
	if !(scale > minNoiseScale) || math.IsInf(scale, 0) {
		scale = minNoiseScale
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for x := 0; x < g.width; x++ {
		for z := 0; z < g.depth; z++ {
			nx := (float64(x) + offsetX) / scale
			nz := (float64(z) + offsetZ) / scale

			h := int(math.Floor(noise.Noise2D(nx, nz) * float64(clampedMaxHeight)))
			h = clampInt(h, 0, maxY)

			g.surface[x*g.depth+z] = h
			g.fillColumn(x, z, h, clampedWater)
		}
	}
}

// fillColumn записывает столбец: земля, трава, вода, воздух. Вызывается под блокировкой.
func (g *Grid) fillColumn(x, z, h, water int) {
	for y := 0; y <= h; y++ {
		id := block.DirtBlockID
		if y == h {
			id = block.GrassBlockID
		}
		g.blocks[g.index(x, y, z)] = id
	}

	if water > h {
		for y := h + 1; y <= water; y++ {
			g.blocks[g.index(x, y, z)] = block.WaterBlockID
		}
	}

	// Остаток столбца очищаем от следов прошлой генерации
	for y := max(h+1, water+1); y < g.height; y++ {
		g.blocks[g.index(x, y, z)] = block.AirBlockID
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
