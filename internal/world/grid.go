package world

import (
	"math"
	"math/rand"
	"sync"

	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// RandomSeed - значение сида, при котором сетка выбирает случайный сид сама
const RandomSeed int32 = -1

// Grid - плотная трёхмерная сетка блоков фиксированного размера с кешем высот столбцов.
//
// Все обращения к ячейкам проходят проверку границ: чтение за пределами сетки
// возвращает воздух, запись за пределами игнорируется. Мешер опирается на это
// при проверке соседей на краях мира.
type Grid struct {
	width  int
	height int
	depth  int
	seed   int32

	blocks  []block.BlockID // [x][y][z], см. index
	surface []int           // [x][z], высота верхнего твёрдого блока столбца

	mu sync.RWMutex // Мьютекс для безопасного доступа
}

// NewGrid создаёт пустую сетку (все ячейки - воздух).
// Размеры меньше единицы поднимаются до единицы.
func NewGrid(width, height, depth int, seed int32) *Grid {
	width = max(1, width)
	height = max(1, height)
	depth = max(1, depth)

	if seed == RandomSeed {
		seed = rand.Int31n(math.MaxInt32)
	}

	return &Grid{
		width:   width,
		height:  height,
		depth:   depth,
		seed:    seed,
		blocks:  make([]block.BlockID, width*height*depth),
		surface: make([]int, width*depth),
	}
}

// Width возвращает размер сетки по X
func (g *Grid) Width() int { return g.width }

// Height возвращает размер сетки по Y
func (g *Grid) Height() int { return g.height }

// Depth возвращает размер сетки по Z
func (g *Grid) Depth() int { return g.depth }

// Seed возвращает сид генерации
func (g *Grid) Seed() int32 { return g.seed }

// Size возвращает размеры сетки
func (g *Grid) Size() vec.Vec3 {
	return vec.Vec3{X: g.width, Y: g.height, Z: g.depth}
}

// InBounds проверяет, что координаты лежат внутри сетки
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.width &&
		y >= 0 && y < g.height &&
		z >= 0 && z < g.depth
}

func (g *Grid) index(x, y, z int) int {
	return (x*g.height+y)*g.depth + z
}

// GetBlock возвращает блок в ячейке; вне сетки - воздух
func (g *Grid) GetBlock(x, y, z int) block.BlockID {
	if !g.InBounds(x, y, z) {
		return block.AirBlockID
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blocks[g.index(x, y, z)]
}

// GetBlockAt - то же, что GetBlock, для вектора
func (g *Grid) GetBlockAt(pos vec.Vec3) block.BlockID {
	return g.GetBlock(pos.X, pos.Y, pos.Z)
}

// SetBlock записывает блок в ячейку. Запись вне сетки молча игнорируется.
// Возвращает true, если запись выполнена.
func (g *Grid) SetBlock(x, y, z int, id block.BlockID) bool {
	if !g.InBounds(x, y, z) {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocks[g.index(x, y, z)] = id
	return true
}

// SetBlockAt - то же, что SetBlock, для вектора
func (g *Grid) SetBlockAt(pos vec.Vec3, id block.BlockID) bool {
	return g.SetBlock(pos.X, pos.Y, pos.Z, id)
}

// IsSolid возвращает true, если блок не воздух и не вода
func (g *Grid) IsSolid(x, y, z int) bool {
	return g.GetBlock(x, y, z).IsSolid()
}

// GetSurfaceHeight возвращает закешированную высоту столбца, 0 вне сетки
func (g *Grid) GetSurfaceHeight(x, z int) int {
	if x < 0 || x >= g.width || z < 0 || z >= g.depth {
		return 0
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.surface[x*g.depth+z]
}

// Blocks возвращает копию массива блоков в порядке [x][y][z]
func (g *Grid) Blocks() []block.BlockID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]block.BlockID, len(g.blocks))
	copy(out, g.blocks)
	return out
}

// HeightMap возвращает копию кеша высот в порядке [x][z]
func (g *Grid) HeightMap() []int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]int, len(g.surface))
	copy(out, g.surface)
	return out
}

// CountBlocks считает ячейки с указанным блоком
func (g *Grid) CountBlocks(id block.BlockID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	count := 0
	for _, b := range g.blocks {
		if b == id {
			count++
		}
	}
	return count
}

// Clear заполняет сетку воздухом и обнуляет кеш высот
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := range g.blocks {
		g.blocks[i] = block.AirBlockID
	}
	for i := range g.surface {
		g.surface[i] = 0
	}
}
