package world

import (
	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world/block"
)

const (
	// DefaultPickDistance - максимальная дальность луча по умолчанию
	DefaultPickDistance = 100.0
	// pickEpsilon - сдвиг точки попадания вдоль нормали перед округлением
	pickEpsilon = 0.1
)

// Ray - луч в мировом пространстве
type Ray struct {
	Origin    vec.Vec3Float
	Direction vec.Vec3Float
}

// RaycastHit - результат внешнего физического запроса
type RaycastHit struct {
	Point  vec.Vec3Float // Точка попадания на поверхности коллизии
	Normal vec.Vec3Float // Нормаль поверхности в точке попадания
}

// RayQuery - внешний физический запрос против мешей коллизий.
// Пикер сам луч не трассирует, он только переводит попадание в ячейки сетки.
type RayQuery interface {
	Raycast(ray Ray, maxDistance float64) (RaycastHit, bool)
}

// HitInfo - полная информация о попадании
type HitInfo struct {
	BlockPosition     vec.Vec3      // Ячейка блока, в который попал луч
	PlacementPosition vec.Vec3      // Пустая ячейка перед гранью
	BlockType         block.BlockID // Блок в BlockPosition
	Normal            vec.Vec3Float
	Point             vec.Vec3Float
}

// Picker переводит попадания луча в координаты ячеек сетки
type Picker struct {
	grid  *Grid
	query RayQuery
}

// NewPicker создаёт пикер. query может быть nil, если нужны только TargetCell/PlacementCell.
func NewPicker(grid *Grid, query RayQuery) *Picker {
	return &Picker{grid: grid, query: query}
}

// TargetCell возвращает ячейку за поверхностью попадания (твёрдый блок, в который попали)
func TargetCell(hit RaycastHit) vec.Vec3 {
	return hit.Point.Sub(hit.Normal.Mul(pickEpsilon)).RoundToCell()
}

// PlacementCell возвращает пустую ячейку перед поверхностью попадания
func PlacementCell(hit RaycastHit) vec.Vec3 {
	return hit.Point.Add(hit.Normal.Mul(pickEpsilon)).RoundToCell()
}

func (p *Picker) raycast(ray Ray, maxDistance float64) (RaycastHit, bool) {
	if p.query == nil {
		return RaycastHit{}, false
	}
	if maxDistance <= 0 {
		maxDistance = DefaultPickDistance
	}
	return p.query.Raycast(ray, maxDistance)
}

// BlockPosition возвращает ячейку блока под лучом
func (p *Picker) BlockPosition(ray Ray, maxDistance float64) (vec.Vec3, bool) {
	hit, ok := p.raycast(ray, maxDistance)
	if !ok {
		return vec.Vec3{}, false
	}
	return TargetCell(hit), true
}

// PlacementPosition возвращает ячейку для установки блока или объекта
func (p *Picker) PlacementPosition(ray Ray, maxDistance float64) (vec.Vec3, bool) {
	hit, ok := p.raycast(ray, maxDistance)
	if !ok {
		return vec.Vec3{}, false
	}
	return PlacementCell(hit), true
}

// BlockType возвращает тип блока под лучом
func (p *Picker) BlockType(ray Ray, maxDistance float64) (block.BlockID, bool) {
	pos, ok := p.BlockPosition(ray, maxDistance)
	if !ok {
		return block.AirBlockID, false
	}
	return p.grid.GetBlockAt(pos), true
}

// HitInfo возвращает обе ячейки и данные попадания за один запрос
func (p *Picker) HitInfo(ray Ray, maxDistance float64) (HitInfo, bool) {
	hit, ok := p.raycast(ray, maxDistance)
	if !ok {
		return HitInfo{}, false
	}
	return ResolveHit(p.grid, hit), true
}

// ResolveHit строит HitInfo из готового попадания
func ResolveHit(grid *Grid, hit RaycastHit) HitInfo {
	target := TargetCell(hit)
	return HitInfo{
		BlockPosition:     target,
		PlacementPosition: PlacementCell(hit),
		BlockType:         grid.GetBlockAt(target),
		Normal:            hit.Normal,
		Point:             hit.Point,
	}
}
