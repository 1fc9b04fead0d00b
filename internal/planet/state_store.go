package planet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/observability"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// Имя документа состояния в метриках
const stateDocumentLabel = "planet"

// RandomSeed просит мир выбрать сид самостоятельно (нет текущей планеты)
const RandomSeed int32 = -1

// Regenerator полностью перестраивает мир из сида
type Regenerator interface {
	Regenerate(seed int32)
}

// PlanetSource сообщает текущую планету
type PlanetSource interface {
	CurrentPlanet() (Record, bool)
}

// StateStoreConfig - зависимости StateStore
type StateStoreConfig struct {
	Store   storage.Store
	Planets PlanetSource
	World   Regenerator
	Ledger  economy.Ledger
	Objects *placement.Table
	Factory placement.Factory
	Units   placement.UnitController

	// BurstOnLoad - после загрузки очистить юнитов и сразу выпустить
	// BurstCount юнитов из каждого восстановленного спавнера
	BurstOnLoad bool
	BurstCount  int

	Metrics *metrics.Metrics
}

// LoadReport описывает результат LoadCurrentPlanet
type LoadReport struct {
	PlanetID  string
	File      string
	Seed      int32
	Ores      int
	Spawners  int
	Totems    int
	Created   bool  // Файла не было, записано пустое состояние
	Recovered bool  // Файл был повреждён и заменён пустым состоянием
	Err       error // Ошибка чтения или записи (уже залогирована)
}

// StateStore - сохранение и восстановление состояния текущей планеты:
// счётчики ресурсов и размещённые объекты. Файл выбирается по id текущей
// планеты в момент вызова.
type StateStore struct {
	mu sync.Mutex

	store       storage.Store
	planets     PlanetSource
	world       Regenerator
	ledger      economy.Ledger
	objects     *placement.Table
	factory     placement.Factory
	units       placement.UnitController
	burstOnLoad bool
	burstCount  int

	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewStateStore создаёт хранилище состояния планет
func NewStateStore(cfg StateStoreConfig) *StateStore {
	s := &StateStore{
		store:       cfg.Store,
		planets:     cfg.Planets,
		world:       cfg.World,
		ledger:      cfg.Ledger,
		objects:     cfg.Objects,
		factory:     cfg.Factory,
		units:       cfg.Units,
		burstOnLoad: cfg.BurstOnLoad,
		burstCount:  cfg.BurstCount,
		logger:      logging.GetPlanetLogger(),
		metrics:     cfg.Metrics,
	}
	if s.ledger == nil {
		s.ledger = economy.NewMemoryLedger()
	}
	if s.objects == nil {
		s.objects = placement.NewTable()
	}
	if s.factory == nil {
		s.factory = placement.NopFactory{}
	}
	if s.units == nil {
		s.units = placement.NopUnits{}
	}
	return s
}

// CurrentFile возвращает имя файла текущей планеты
func (s *StateStore) CurrentFile() string {
	return StateFile(s.currentID())
}

func (s *StateStore) current() (Record, bool) {
	if s.planets == nil {
		return Record{}, false
	}
	return s.planets.CurrentPlanet()
}

func (s *StateStore) currentID() string {
	rec, _ := s.current()
	return rec.ID
}

// LoadCurrentPlanet перестраивает мир из сида текущей планеты и восстанавливает
// её состояние: счётчики перезаписываются целиком, размещённые объекты
// уничтожаются и создаются заново по сохранённым записям.
// Отсутствующий или повреждённый файл заменяется пустым состоянием и сразу записывается.
func (s *StateStore) LoadCurrentPlanet() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.current()
	report := LoadReport{PlanetID: rec.ID, File: StateFile(rec.ID), Seed: RandomSeed}
	if ok {
		report.Seed = rec.Seed
	}

	span := observability.StartSpan("planet.load",
		attribute.String("planet.file", report.File),
		attribute.Int("planet.seed", int(report.Seed)))
	defer func() { observability.EndSpan(span, report.Err) }()

	// 1. Мир
	if s.world != nil {
		s.world.Regenerate(report.Seed)
	}

	// 2. Документ
	doc, err := s.readLocked(report.File)
	switch {
	case err == nil:
		s.metrics.Loaded(stateDocumentLabel)
	case errors.Is(err, storage.ErrNotFound):
		report.Created = true
		s.metrics.LoadFellBack(stateDocumentLabel, "missing")
	case errors.Is(err, ErrCorrupt):
		report.Recovered = true
		s.metrics.LoadFellBack(stateDocumentLabel, "corrupt")
		s.logger.Warn("Файл %s повреждён, начинаю с пустого состояния: %v", report.File, err)
	default:
		report.Recovered = true
		report.Err = err
		s.metrics.LoadFellBack(stateDocumentLabel, "read_error")
		s.logger.Error("Не удалось прочитать %s, начинаю с пустого состояния: %v", report.File, err)
	}
	if doc == nil {
		doc = EmptyState()
		if werr := s.writeLocked(report.File, doc); werr != nil && report.Err == nil {
			report.Err = werr
		}
	}

	// 3. Ресурсы
	economy.ReplaceAll(s.ledger, doc.Balances())

	// 4. Объекты
	s.restoreObjectsLocked(report.File, doc)
	report.Ores = s.objects.Count(placement.KindOre)
	report.Spawners = s.objects.Count(placement.KindSpawner)
	report.Totems = s.objects.Count(placement.KindTotem)

	// 5. Юниты
	if s.burstOnLoad {
		s.units.ClearUnits()
		for _, sp := range s.objects.List(placement.KindSpawner) {
			s.units.BurstSpawn(sp, s.burstCount)
		}
	}

	s.logger.Info("Планета загружена: file=%s seed=%d ores=%d spawners=%d totems=%d",
		report.File, report.Seed, report.Ores, report.Spawners, report.Totems)
	return report
}

func (s *StateStore) readLocked(file string) (*StateDocument, error) {
	data, err := s.store.Read(file)
	if err != nil {
		return nil, err
	}
	return DecodeState(data)
}

// restoreObjectsLocked пересоздаёт объекты из документа. Записи с неизвестным
// подтипом пропускаются и пропадут из файла при следующем сохранении.
func (s *StateStore) restoreObjectsLocked(file string, doc *StateDocument) {
	for _, obj := range s.objects.Clear() {
		s.factory.Despawn(obj)
	}

	for i, o := range doc.Ores {
		if !o.OreType.IsOre() {
			s.logger.Warn("%s: руда #%d пропущена, неизвестный тип %d", file, i, int(o.OreType))
			continue
		}
		s.factory.Spawn(s.objects.Place(placement.KindOre, int(o.OreType), o.Pos, o.Rot))
	}
	for _, sp := range doc.Spawners {
		s.factory.Spawn(s.objects.Place(placement.KindSpawner, 0, sp.Pos, sp.Rot))
	}
	for i, t := range doc.Totems {
		if !t.Type.Valid() {
			s.logger.Warn("%s: тотем #%d пропущен, неизвестный тип %d", file, i, int(t.Type))
			continue
		}
		s.factory.Spawn(s.objects.Place(placement.KindTotem, int(t.Type), t.Pos, t.Rot))
	}

	s.reportObjects()
}

func (s *StateStore) reportObjects() {
	for k := placement.Kind(0); k < placement.KindCount; k++ {
		s.metrics.SetPlacedObjects(k.String(), s.objects.Count(k))
	}
}

// Snapshot собирает полный документ из кошелька и таблицы объектов
func (s *StateStore) Snapshot() *StateDocument {
	doc := EmptyState()
	doc.SetBalances(economy.SnapshotOf(s.ledger))

	for _, obj := range s.objects.All() {
		switch obj.Kind {
		case placement.KindOre:
			doc.Ores = append(doc.Ores, OreRecord{
				OreType: economy.ResourceKind(obj.Subtype),
				Pos:     obj.Position,
				Rot:     obj.Rotation,
			})
		case placement.KindSpawner:
			doc.Spawners = append(doc.Spawners, SpawnerRecord{Pos: obj.Position, Rot: obj.Rotation})
		case placement.KindTotem:
			doc.Totems = append(doc.Totems, TotemRecord{
				Type: placement.TotemType(obj.Subtype),
				Pos:  obj.Position,
				Rot:  obj.Rotation,
			})
		}
	}
	return doc
}

// SaveNow перезаписывает файл текущей планеты полным снимком.
// При ошибке прежний файл остаётся, состояние в памяти не меняется.
func (s *StateStore) SaveNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.Snapshot()
	s.reportObjects()
	return s.writeLocked(s.CurrentFile(), doc)
}

func (s *StateStore) writeLocked(file string, doc *StateDocument) (err error) {
	span := observability.StartSpan("planet.write", attribute.String("planet.file", file))
	defer func() { observability.EndSpan(span, err) }()

	data, err := EncodeState(doc)
	if err == nil {
		err = s.store.Write(file, data)
	}
	if err != nil {
		s.metrics.SaveFailed(stateDocumentLabel)
		s.logger.Error("Не удалось сохранить %s: %v", file, err)
		return fmt.Errorf("сохранение %s: %w", file, err)
	}
	s.metrics.SaveSucceeded(stateDocumentLabel)
	s.logger.Debug("Сохранено %s: ores=%d spawners=%d totems=%d",
		file, len(doc.Ores), len(doc.Spawners), len(doc.Totems))
	return nil
}

// DeleteState удаляет файл состояния планеты (после удаления её из реестра)
func (s *StateStore) DeleteState(id string) error {
	if id == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(StateFile(id)); err != nil {
		s.logger.Warn("Не удалось удалить состояние планеты %s: %v", id, err)
		return err
	}
	return nil
}

// Ledger возвращает кошелёк
func (s *StateStore) Ledger() economy.Ledger { return s.ledger }

// Objects возвращает таблицу размещённых объектов
func (s *StateStore) Objects() *placement.Table { return s.objects }
