package placement

import (
	"sort"
	"sync"

	"github.com/annel0/voxel-planets/internal/vec"
)

// firstObjectID - первый выдаваемый идентификатор
const firstObjectID ObjectID = 1000

// Table - явная таблица размещённых объектов: id -> вид, подтип, трансформ.
// Таблица - единственный источник правды для сохранения; визуальные экземпляры
// создаются фабрикой и данных не хранят.
type Table struct {
	mu      sync.RWMutex
	objects map[ObjectID]*Object
	nextID  ObjectID
}

// NewTable создаёт пустую таблицу
func NewTable() *Table {
	return &Table{
		objects: make(map[ObjectID]*Object),
		nextID:  firstObjectID,
	}
}

// Place добавляет объект и возвращает его копию с присвоенным id.
// Нулевой кватернион заменяется единичным.
func (t *Table) Place(kind Kind, subtype int, pos vec.Vec3Float, rot vec.Quat) Object {
	t.mu.Lock()
	defer t.mu.Unlock()

	if rot.IsZero() {
		rot = vec.IdentityQuat()
	}
	obj := &Object{
		ID:       t.nextID,
		Kind:     kind,
		Subtype:  subtype,
		Position: pos,
		Rotation: rot,
	}
	t.objects[obj.ID] = obj
	t.nextID++
	return *obj
}

// Get возвращает объект по id
func (t *Table) Get(id ObjectID) (Object, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	obj, ok := t.objects[id]
	if !ok {
		return Object{}, false
	}
	return *obj, true
}

// Remove удаляет объект. Возвращает удалённый объект.
func (t *Table) Remove(id ObjectID) (Object, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	obj, ok := t.objects[id]
	if !ok {
		return Object{}, false
	}
	delete(t.objects, id)
	return *obj, true
}

// Clear удаляет все объекты. Счётчик id не сбрасывается.
func (t *Table) Clear() []Object {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := t.sortedLocked(nil)
	t.objects = make(map[ObjectID]*Object)
	return removed
}

// List возвращает объекты вида kind в порядке размещения
func (t *Table) List(kind Kind) []Object {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedLocked(&kind)
}

// All возвращает все объекты в порядке размещения
func (t *Table) All() []Object {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sortedLocked(nil)
}

// Count возвращает количество объектов вида kind
func (t *Table) Count(kind Kind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, obj := range t.objects {
		if obj.Kind == kind {
			n++
		}
	}
	return n
}

// Len возвращает общее количество объектов
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.objects)
}

func (t *Table) sortedLocked(kind *Kind) []Object {
	out := make([]Object, 0, len(t.objects))
	for _, obj := range t.objects {
		if kind != nil && obj.Kind != *kind {
			continue
		}
		out = append(out, *obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
