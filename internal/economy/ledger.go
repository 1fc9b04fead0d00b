package economy

import (
	"sync"

	"github.com/annel0/voxel-planets/internal/world/block"
)

// Ledger - счётчики ресурсов игрока. Реализации обязаны быть потокобезопасными:
// каждая мутация атомарна, последняя запись выигрывает.
type Ledger interface {
	Get(kind ResourceKind) int64
	Set(kind ResourceKind, value int64)
	Add(kind ResourceKind, amount int64)
	TrySpend(kind ResourceKind, amount int64) bool
}

// Balances - снимок всех счётчиков, индекс - ResourceKind
type Balances [ResourceCount]int64

// MemoryLedger - реализация Ledger в памяти
type MemoryLedger struct {
	mu       sync.RWMutex
	balances Balances
}

// NewMemoryLedger создаёт пустой кошелёк
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Get возвращает текущее количество; неизвестный вид ресурса даёт 0
func (l *MemoryLedger) Get(kind ResourceKind) int64 {
	if !kind.Valid() {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[kind]
}

// Set перезаписывает счётчик, отрицательные значения обрезаются до нуля
func (l *MemoryLedger) Set(kind ResourceKind, value int64) {
	if !kind.Valid() {
		return
	}
	l.mu.Lock()
	l.balances[kind] = max(0, value)
	l.mu.Unlock()
}

// Add прибавляет положительное количество, остальное игнорируется
func (l *MemoryLedger) Add(kind ResourceKind, amount int64) {
	if amount <= 0 || !kind.Valid() {
		return
	}
	l.mu.Lock()
	l.balances[kind] += amount
	l.mu.Unlock()
}

// CanSpend проверяет, хватит ли ресурса
func (l *MemoryLedger) CanSpend(kind ResourceKind, amount int64) bool {
	if amount <= 0 {
		return true
	}
	return l.Get(kind) >= amount
}

// TrySpend списывает ресурс, если его хватает. Нулевая трата всегда успешна.
func (l *MemoryLedger) TrySpend(kind ResourceKind, amount int64) bool {
	if amount <= 0 {
		return true
	}
	if !kind.Valid() {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[kind] < amount {
		return false
	}
	l.balances[kind] -= amount
	return true
}

// Snapshot возвращает копию всех счётчиков
func (l *MemoryLedger) Snapshot() Balances {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances
}

// Replace целиком заменяет счётчики (загрузка планеты перезаписывает, а не сливает)
func (l *MemoryLedger) Replace(b Balances) {
	for i := range b {
		b[i] = max(0, b[i])
	}
	l.mu.Lock()
	l.balances = b
	l.mu.Unlock()
}

// SnapshotOf читает все счётчики через интерфейс Ledger
func SnapshotOf(l Ledger) Balances {
	if ml, ok := l.(*MemoryLedger); ok {
		return ml.Snapshot()
	}
	var b Balances
	for k := Coin; k < ResourceCount; k++ {
		b[k] = l.Get(k)
	}
	return b
}

// ReplaceAll перезаписывает все счётчики через интерфейс Ledger
func ReplaceAll(l Ledger, b Balances) {
	if ml, ok := l.(*MemoryLedger); ok {
		ml.Replace(b)
		return
	}
	for k := Coin; k < ResourceCount; k++ {
		l.Set(k, b[k])
	}
}

// SoilYield - сколько почвы даёт добытый блок
type SoilYield map[block.BlockID]int64

// DefaultSoilYield - трава и земля дают по единице почвы
func DefaultSoilYield() SoilYield {
	return SoilYield{
		block.GrassBlockID: 1,
		block.DirtBlockID:  1,
	}
}

// CollectBlock начисляет почву за добытый блок и возвращает начисленное
func (y SoilYield) CollectBlock(l Ledger, id block.BlockID) int64 {
	amount := y[id]
	if amount <= 0 {
		return 0
	}
	l.Add(Soil, amount)
	return amount
}
