package planet

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/storage"
	"github.com/google/uuid"
)

// Имя документа реестра в метриках
const registryDocumentLabel = "registry"

// Registry - список планет с выбранной текущей.
//
// После Load реестр никогда не пуст: удаление последней планеты и повреждённый
// файл сразу создают планету по умолчанию. Каждая мутация сохраняется
// немедленно; ошибки записи логируются и не прерывают работу.
// Смена текущей планеты состояние не перезагружает - это делает вызывающий.
type Registry struct {
	mu      sync.Mutex
	store   storage.Store
	file    string
	planets []Record
	current int

	now     func() time.Time
	rng     *rand.Rand
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// RegistryOption настраивает Registry
type RegistryOption func(*Registry)

// WithRegistryFile задаёт имя документа реестра
func WithRegistryFile(name string) RegistryOption {
	return func(r *Registry) {
		if name != "" {
			r.file = name
		}
	}
}

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithRandSeed делает выбор сидов планет детерминированным
func WithRandSeed(seed int64) RegistryOption {
	return func(r *Registry) { r.rng = rand.New(rand.NewSource(seed)) }
}

// WithRegistryMetrics подключает метрики
func WithRegistryMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry создаёт реестр поверх хранилища. Документ читается в Load.
func NewRegistry(store storage.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:  store,
		file:   RegistryFile,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logging.GetPlanetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load читает реестр. Отсутствующий, повреждённый или пустой документ
// заменяется реестром из одной планеты "Planet 1".
func (r *Registry) Load() {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, reason := r.readLocked()
	if doc == nil || len(doc.Planets) == 0 {
		if reason == "" {
			reason = "empty"
		}
		r.metrics.LoadFellBack(registryDocumentLabel, reason)
		r.planets = nil
		r.current = 0
		r.createLocked("Planet 1")
		return
	}

	r.planets = doc.Planets
	r.current = clampIndex(doc.CurrentIndex, len(r.planets))
	r.metrics.Loaded(registryDocumentLabel)

	cur := r.planets[r.current]
	r.logger.Info("Реестр загружен: планет=%d текущая=%d (%s, seed=%d)",
		len(r.planets), r.current, cur.Name, cur.Seed)
}

func (r *Registry) readLocked() (*registryDocument, string) {
	data, err := r.store.Read(r.file)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "missing"
	}
	if err != nil {
		r.logger.Warn("Не удалось прочитать реестр %s: %v", r.file, err)
		return nil, "read_error"
	}

	doc, err := decodeRegistry(data)
	if err != nil {
		r.logger.Warn("Реестр %s повреждён, создаю заново: %v", r.file, err)
		return nil, "corrupt"
	}
	return doc, ""
}

// CreatePlanet добавляет планету со свежим id и сидом, делает её текущей и сохраняет.
// Пустое имя заменяется на "Planet N", где N - новое количество планет.
func (r *Registry) CreatePlanet(name string) Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(name)
}

func (r *Registry) createLocked(name string) Record {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Planet %d", len(r.planets)+1)
	}

	rec := Record{
		ID:              newPlanetID(),
		Name:            name,
		Seed:            r.rng.Int31n(math.MaxInt32-1) + 1,
		CreatedUtcTicks: TicksFromTime(r.now()),
	}
	r.planets = append(r.planets, rec)
	r.current = len(r.planets) - 1
	r.saveLocked()

	r.logger.Info("Создана планета idx=%d name=%s seed=%d", r.current, rec.Name, rec.Seed)
	return rec
}

// newPlanetID возвращает 32 шестнадцатеричных символа без дефисов
func newPlanetID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Next циклически выбирает следующую планету
func (r *Registry) Next() (Record, bool) {
	return r.step(1)
}

// Previous циклически выбирает предыдущую планету
func (r *Registry) Previous() (Record, bool) {
	return r.step(-1)
}

func (r *Registry) step(delta int) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.planets)
	if n == 0 {
		return Record{}, false
	}
	r.current = ((r.current+delta)%n + n) % n
	r.saveLocked()

	cur := r.planets[r.current]
	r.logger.Debug("Выбрана планета idx=%d name=%s seed=%d", r.current, cur.Name, cur.Seed)
	return cur, true
}

// DeleteCurrent удаляет текущую планету и возвращает удалённую запись.
// Если список опустел, сразу создаётся "Planet 1".
func (r *Registry) DeleteCurrent() (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.planets) == 0 {
		return Record{}, false
	}

	deleted := r.planets[r.current]
	r.planets = append(r.planets[:r.current:r.current], r.planets[r.current+1:]...)

	if len(r.planets) == 0 {
		r.current = 0
		r.createLocked("Planet 1")
	} else {
		r.current = clampIndex(r.current, len(r.planets))
		r.saveLocked()
	}

	r.logger.Info("Удалена планета %s, текущая idx=%d name=%s",
		deleted.Name, r.current, r.planets[r.current].Name)
	return deleted, true
}

// Rename переименовывает текущую планету. Пустое имя игнорируется.
func (r *Registry) Rename(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.planets) == 0 {
		return false
	}
	r.planets[r.current].Name = name
	r.saveLocked()
	return true
}

// CurrentPlanet возвращает текущую планету
func (r *Registry) CurrentPlanet() (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.planets) == 0 {
		return Record{}, false
	}
	return r.planets[r.current], true
}

// CurrentIndex возвращает индекс текущей планеты
func (r *Registry) CurrentIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Planets возвращает копию списка планет
func (r *Registry) Planets() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.planets))
	copy(out, r.planets)
	return out
}

// Len возвращает количество планет
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.planets)
}

// SaveNow сохраняет реестр. Ошибка логируется и возвращается.
func (r *Registry) SaveNow() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked()
}

func (r *Registry) saveLocked() error {
	doc := &registryDocument{CurrentIndex: r.current, Planets: r.planets}
	data, err := encodeRegistry(doc)
	if err == nil {
		err = r.store.Write(r.file, data)
	}
	if err != nil {
		r.metrics.SaveFailed(registryDocumentLabel)
		r.logger.Error("Не удалось сохранить реестр %s: %v", r.file, err)
		return err
	}
	r.metrics.SaveSucceeded(registryDocumentLabel)
	return nil
}

func clampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
