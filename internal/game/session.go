package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/eventbus"
	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/planet"
	"github.com/annel0/voxel-planets/internal/scheduler"
	"github.com/annel0/voxel-planets/internal/storage"
	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// Имена периодических задач
const (
	JobAutosave = "autosave"
	JobReset    = "reset"
	JobSpawn    = "spawn"
)

// Смещение спавнера над ячейкой установки
const spawnerLift = 0.5

// Источник событий и таймаут публикации
const (
	eventSource    = "voxel-planets"
	publishTimeout = 2 * time.Second
)

var (
	ErrNotStarted        = errors.New("сессия не запущена")
	ErrOutOfBounds       = errors.New("ячейка вне мира")
	ErrNotMinable        = errors.New("блок нельзя добыть")
	ErrOccupied          = errors.New("ячейка занята")
	ErrInsufficientFunds = errors.New("недостаточно монет")
	ErrInvalidSubtype    = errors.New("неизвестный подтип объекта")
	ErrUnknownObject     = errors.New("объект не найден")
)

// Deps - внешние зависимости сессии
type Deps struct {
	Store   storage.Store
	Query   world.RayQuery
	Factory placement.Factory
	Units   placement.UnitController
	Ledger  economy.Ledger
	Metrics *metrics.Metrics
	Events  eventbus.EventBus // nil - события не публикуются

	RegistryOptions []planet.RegistryOption
}

// Session связывает мир, реестр планет, хранилище состояния и планировщик.
// Все мутации, меняющие сохраняемое состояние, сразу записывают файл планеты.
type Session struct {
	mu sync.Mutex

	opts    Options
	world   *world.World
	planets *planet.Registry
	states  *planet.StateStore
	sched   *scheduler.Scheduler
	units   placement.UnitController
	factory placement.Factory
	events  eventbus.EventBus
	metrics *metrics.Metrics

	// Купленные дополнительные слоты по спавнерам; живут до смены планеты
	extraSpawns map[placement.ObjectID]int

	started bool
	logger  *logging.Logger
}

// Snapshot - согласованный срез текущей планеты
type Snapshot struct {
	Planet   planet.Record
	Index    int
	Balances economy.Balances
	Objects  [placement.KindCount]int
}

// NewSession собирает сессию. Ничего не читает до Start.
func NewSession(opts Options, deps Deps) *Session {
	factory := deps.Factory
	if factory == nil {
		factory = placement.NopFactory{}
	}
	units := deps.Units
	if units == nil {
		units = placement.NopUnits{}
	}

	w := world.NewWorld(opts.World, deps.Query, deps.Metrics)
	regOpts := append([]planet.RegistryOption{planet.WithRegistryMetrics(deps.Metrics)}, deps.RegistryOptions...)
	planets := planet.NewRegistry(deps.Store, regOpts...)

	states := planet.NewStateStore(planet.StateStoreConfig{
		Store:       deps.Store,
		Planets:     planets,
		World:       w,
		Ledger:      deps.Ledger,
		Factory:     factory,
		Units:       units,
		BurstOnLoad: opts.BurstOnLoad,
		BurstCount:  opts.BurstCount,
		Metrics:     deps.Metrics,
	})

	return &Session{
		opts:    opts,
		world:   w,
		planets: planets,
		states:  states,
		sched:   scheduler.New(deps.Metrics),
		units:   units,
		factory: factory,
		events:  deps.Events,
		metrics: deps.Metrics,

		extraSpawns: make(map[placement.ObjectID]int),
		logger:      logging.GetGameLogger(),
	}
}

// Start загружает реестр, текущую планету и регистрирует периодические задачи
func (s *Session) Start() planet.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.planets.Load()
	report := s.loadCurrentLocked()

	s.sched.Every(JobAutosave, s.opts.AutosaveInterval, s.autosave)
	if s.opts.ResetEnabled {
		s.sched.Every(JobReset, s.opts.ResetInterval, s.resetUnits)
	}
	if s.opts.SpawnInterval > 0 {
		s.sched.Every(JobSpawn, s.opts.SpawnInterval, s.spawnUnits)
	}
	s.started = true
	s.publishLoadLocked(report)

	s.logger.Info("Сессия запущена: планет=%d текущая=%s", s.planets.Len(), report.PlanetID)
	return report
}

// Tick продвигает периодические задачи
func (s *Session) Tick(dt time.Duration) []string {
	return s.sched.Tick(dt)
}

func (s *Session) autosave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	// Ошибка уже залогирована хранилищем
	_ = s.states.SaveNow()
}

func (s *Session) resetUnits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}

	s.units.ClearUnits()
	if !s.opts.BurstOnReset {
		return
	}
	spawners := s.states.Objects().List(placement.KindSpawner)
	for _, sp := range spawners {
		s.units.BurstSpawn(sp, s.opts.BurstCount)
	}
	s.logger.Debug("Сброс юнитов: спавнеров=%d", len(spawners))
}

// spawnUnits - каждый спавнер рождает по юниту, пока не достигнут его лимит
func (s *Session) spawnUnits() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	for _, sp := range s.states.Objects().List(placement.KindSpawner) {
		s.trySpawnLocked(sp)
	}
}

func (s *Session) trySpawnLocked(sp placement.Object) bool {
	if s.units.UnitCount() >= s.unitCapLocked(sp.ID) {
		return false
	}
	s.units.Spawn(sp)
	return true
}

// unitCapLocked - лимит юнитов для спавнера с учётом купленных слотов
func (s *Session) unitCapLocked(id placement.ObjectID) int {
	return s.opts.MaxUnits + s.extraSpawns[id]
}

// BuyExtraSpawn покупает спавнеру дополнительный слот и сразу пробует родить юнита.
// Возвращает списанную цену.
func (s *Session) BuyExtraSpawn(id placement.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}

	sp, ok := s.states.Objects().Get(id)
	if !ok || sp.Kind != placement.KindSpawner {
		return 0, ErrUnknownObject
	}
	cost := s.opts.Prices.ExtraSpawnPrice(s.extraSpawns[id])
	if err := s.spendLocked(cost); err != nil {
		return 0, err
	}
	s.extraSpawns[id]++
	s.trySpawnLocked(sp)
	_ = s.states.SaveNow()

	s.logger.Info("Спавнер #%d: куплен слот %d за %d", id, s.extraSpawns[id], cost)
	return cost, nil
}

// ExtraSpawns возвращает число купленных слотов спавнера
func (s *Session) ExtraSpawns(id placement.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extraSpawns[id]
}

// loadCurrentLocked загружает текущую планету; купленные слоты сбрасываются
// вместе с экземплярами спавнеров
func (s *Session) loadCurrentLocked() planet.LoadReport {
	report := s.states.LoadCurrentPlanet()
	clear(s.extraSpawns)
	s.sched.Reset(JobSpawn)
	return report
}

// Shutdown сохраняет состояние текущей планеты и реестр
func (s *Session) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil
	}
	s.started = false

	stateErr := s.states.SaveNow()
	regErr := s.planets.SaveNow()
	if stateErr == nil {
		s.publishCurrentLocked(eventbus.TypePlanetSaved)
	}
	return errors.Join(stateErr, regErr)
}

// SaveNow принудительно сохраняет текущую планету
func (s *Session) SaveNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	if err := s.states.SaveNow(); err != nil {
		return err
	}
	s.publishCurrentLocked(eventbus.TypePlanetSaved)
	return nil
}

// World возвращает мир
func (s *Session) World() *world.World { return s.world }

// Planets возвращает реестр планет
func (s *Session) Planets() *planet.Registry { return s.planets }

// Ledger возвращает кошелёк текущей планеты
func (s *Session) Ledger() economy.Ledger { return s.states.Ledger() }

// Objects возвращает таблицу размещённых объектов
func (s *Session) Objects() *placement.Table { return s.states.Objects() }

// CurrentSnapshot читает запись, кошелёк и счётчики объектов под одной блокировкой
func (s *Session) CurrentSnapshot() (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.planets.CurrentPlanet()
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		Planet:   rec,
		Index:    s.planets.CurrentIndex(),
		Balances: economy.SnapshotOf(s.states.Ledger()),
	}
	objects := s.states.Objects()
	for kind := placement.KindOre; kind < placement.KindCount; kind++ {
		snap.Objects[kind] = objects.Count(kind)
	}
	return snap, true
}

// Scheduler возвращает планировщик
func (s *Session) Scheduler() *scheduler.Scheduler { return s.sched }

// Pick переводит луч в попадание по сетке
func (s *Session) Pick(ray world.Ray) (world.HitInfo, bool) {
	picker := s.world.Picker()
	if picker == nil {
		return world.HitInfo{}, false
	}
	return picker.HitInfo(ray, world.DefaultPickDistance)
}

func (s *Session) gridLocked() (*world.Grid, error) {
	if !s.started {
		return nil, ErrNotStarted
	}
	grid := s.world.Grid()
	if grid == nil {
		return nil, ErrNotStarted
	}
	return grid, nil
}

// Mine убирает твёрдый блок и начисляет почву. Рельеф не сохраняется:
// после перезагрузки планеты он снова строится из сида.
func (s *Session) Mine(pos vec.Vec3) (block.BlockID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.gridLocked()
	if err != nil {
		return block.AirBlockID, err
	}
	if !grid.InBounds(pos.X, pos.Y, pos.Z) {
		return block.AirBlockID, ErrOutOfBounds
	}
	id := grid.GetBlockAt(pos)
	if !id.IsSolid() {
		return id, ErrNotMinable
	}

	grid.SetBlockAt(pos, block.AirBlockID)
	s.world.Remesh()
	gained := s.opts.SoilYield.CollectBlock(s.states.Ledger(), id)
	s.logger.Debug("Добыт %s в %v: почва +%d", id, pos, gained)
	return id, nil
}

// PlaceBlock ставит твёрдый блок в пустую ячейку
func (s *Session) PlaceBlock(pos vec.Vec3, id block.BlockID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !id.IsSolid() {
		return fmt.Errorf("%w: %s", ErrInvalidSubtype, id)
	}
	grid, err := s.freeCellLocked(pos)
	if err != nil {
		return err
	}
	grid.SetBlockAt(pos, id)
	s.world.Remesh()
	return nil
}

func (s *Session) freeCellLocked(pos vec.Vec3) (*world.Grid, error) {
	grid, err := s.gridLocked()
	if err != nil {
		return nil, err
	}
	if !grid.InBounds(pos.X, pos.Y, pos.Z) {
		return nil, ErrOutOfBounds
	}
	if grid.GetBlockAt(pos).IsSolid() {
		return nil, ErrOccupied
	}
	for _, obj := range s.states.Objects().All() {
		if objectCell(obj) == pos {
			return nil, fmt.Errorf("%w: %s #%d", ErrOccupied, obj.Kind, obj.ID)
		}
	}
	return grid, nil
}

// objectCell возвращает ячейку, в которую был поставлен объект
func objectCell(obj placement.Object) vec.Vec3 {
	at := obj.Position
	if obj.Kind == placement.KindSpawner {
		at = at.Sub(vec.Vec3Float{Y: spawnerLift})
	}
	return at.RoundToCell()
}

func (s *Session) spendLocked(cost int64) error {
	if !s.opts.EnableCost || cost <= 0 {
		return nil
	}
	if !s.states.Ledger().TrySpend(economy.Coin, cost) {
		return fmt.Errorf("%w: нужно %d, есть %d", ErrInsufficientFunds, cost, s.states.Ledger().Get(economy.Coin))
	}
	return nil
}

func (s *Session) placeLocked(kind placement.Kind, subtype int, pos vec.Vec3Float, rot vec.Quat) placement.Object {
	obj := s.states.Objects().Place(kind, subtype, pos, rot)
	s.factory.Spawn(obj)
	s.logger.Debug("Размещён %s #%d в (%.1f, %.1f, %.1f)", kind, obj.ID, pos.X, pos.Y, pos.Z)
	s.publishObjectLocked(eventbus.TypeObjectPlaced, obj)
	// Ошибка уже залогирована, объект остаётся в памяти до следующего сохранения
	_ = s.states.SaveNow()
	return obj
}

// PlaceOre покупает и ставит руду в пустую ячейку
func (s *Session) PlaceOre(pos vec.Vec3, kind economy.ResourceKind, rot vec.Quat) (placement.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !kind.IsOre() {
		return placement.Object{}, fmt.Errorf("%w: %s", ErrInvalidSubtype, kind)
	}
	if _, err := s.freeCellLocked(pos); err != nil {
		return placement.Object{}, err
	}
	if err := s.spendLocked(s.opts.Prices.OrePrice(kind)); err != nil {
		return placement.Object{}, err
	}
	return s.placeLocked(placement.KindOre, int(kind), pos.ToFloat(), rot), nil
}

// PlaceSpawner покупает спавнер; каждый следующий дороже предыдущего
func (s *Session) PlaceSpawner(pos vec.Vec3, rot vec.Quat) (placement.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.freeCellLocked(pos); err != nil {
		return placement.Object{}, err
	}
	existing := s.states.Objects().Count(placement.KindSpawner)
	if err := s.spendLocked(s.opts.Prices.SpawnerPrice(existing)); err != nil {
		return placement.Object{}, err
	}
	at := pos.ToFloat().Add(vec.Vec3Float{Y: spawnerLift})
	return s.placeLocked(placement.KindSpawner, 0, at, rot), nil
}

// PlaceTotem покупает и ставит тотем
func (s *Session) PlaceTotem(pos vec.Vec3, t placement.TotemType, rot vec.Quat) (placement.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.Valid() {
		return placement.Object{}, fmt.Errorf("%w: %s", ErrInvalidSubtype, t)
	}
	if _, err := s.freeCellLocked(pos); err != nil {
		return placement.Object{}, err
	}
	if err := s.spendLocked(s.opts.Prices.TotemCost); err != nil {
		return placement.Object{}, err
	}
	return s.placeLocked(placement.KindTotem, int(t), pos.ToFloat(), rot), nil
}

// RemoveObject убирает объект без возврата стоимости
func (s *Session) RemoveObject(id placement.ObjectID) (placement.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return placement.Object{}, ErrNotStarted
	}

	obj, ok := s.states.Objects().Remove(id)
	if !ok {
		return placement.Object{}, ErrUnknownObject
	}
	s.factory.Despawn(obj)
	delete(s.extraSpawns, obj.ID)
	s.publishObjectLocked(eventbus.TypeObjectRemoved, obj)
	_ = s.states.SaveNow()
	return obj, nil
}

// HarvestOre - юнит собрал руду: +1 ресурса её типа, сама руда уничтожается
func (s *Session) HarvestOre(id placement.ObjectID) (economy.ResourceKind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}

	obj, ok := s.states.Objects().Get(id)
	if !ok || obj.Kind != placement.KindOre {
		return 0, ErrUnknownObject
	}
	kind := economy.ResourceKind(obj.Subtype)
	s.states.Ledger().Add(kind, 1)
	s.states.Objects().Remove(id)
	s.factory.Despawn(obj)
	s.publishObjectLocked(eventbus.TypeObjectRemoved, obj)
	_ = s.states.SaveNow()
	return kind, nil
}

// HarvestGround - юнит собрал поверхность столбца; блок остаётся на месте
func (s *Session) HarvestGround(x, z int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.gridLocked()
	if err != nil {
		return 0, err
	}
	if !grid.InBounds(x, 0, z) {
		return 0, ErrOutOfBounds
	}
	id := grid.GetBlock(x, grid.GetSurfaceHeight(x, z), z)
	return s.opts.SoilYield.CollectBlock(s.states.Ledger(), id), nil
}

// SellAll продаёт весь запас ресурса за монеты
func (s *Session) SellAll(kind economy.ResourceKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return 0, ErrNotStarted
	}

	amount := s.states.Ledger().Get(kind)
	earned := s.opts.Prices.SellAll(s.states.Ledger(), kind)
	if earned > 0 {
		_ = s.states.SaveNow()
		s.publishLocked(eventbus.TypeResourceSold, eventbus.SaleEvent{Resource: kind.String(), Amount: amount, Earned: earned})
	}
	return earned, nil
}

// NextPlanet сохраняет текущую планету и переключается на следующую
func (s *Session) NextPlanet() (planet.LoadReport, error) {
	return s.switchPlanet(eventbus.TypePlanetSelected, func() (planet.Record, bool) { return s.planets.Next() })
}

// PreviousPlanet сохраняет текущую планету и переключается на предыдущую
func (s *Session) PreviousPlanet() (planet.LoadReport, error) {
	return s.switchPlanet(eventbus.TypePlanetSelected, func() (planet.Record, bool) { return s.planets.Previous() })
}

// CreatePlanet сохраняет текущую планету, создаёт новую и загружает её
func (s *Session) CreatePlanet(name string) (planet.LoadReport, error) {
	return s.switchPlanet(eventbus.TypePlanetCreated, func() (planet.Record, bool) { return s.planets.CreatePlanet(name), true })
}

// DeletePlanet удаляет текущую планету вместе с файлом состояния и загружает
// ту, что стала текущей. Последняя планета заменяется новой.
func (s *Session) DeletePlanet() (planet.LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return planet.LoadReport{}, ErrNotStarted
	}

	removed, ok := s.planets.DeleteCurrent()
	if !ok {
		return planet.LoadReport{}, ErrUnknownObject
	}
	_ = s.states.DeleteState(removed.ID)
	s.logger.Info("Планета удалена: %s (%s)", removed.Name, removed.ID)
	s.publishEnvelopeLocked(eventbus.TypePlanetDeleted, removed.ID, eventbus.PlanetEvent{ID: removed.ID, Name: removed.Name, Seed: removed.Seed, Index: -1})

	report := s.loadCurrentLocked()
	s.publishLoadLocked(report)
	return report, nil
}

func (s *Session) switchPlanet(eventType string, mutate func() (planet.Record, bool)) (planet.LoadReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return planet.LoadReport{}, ErrNotStarted
	}

	// Прогресс сохраняется до смены файла
	_ = s.states.SaveNow()
	if _, ok := mutate(); !ok {
		return planet.LoadReport{}, ErrUnknownObject
	}
	s.publishCurrentLocked(eventType)
	report := s.loadCurrentLocked()
	s.sched.Reset(JobAutosave)
	s.publishLoadLocked(report)
	return report, nil
}

// Rename переименовывает текущую планету
func (s *Session) Rename(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.planets.Rename(name) {
		return false
	}
	s.publishCurrentLocked(eventbus.TypePlanetRenamed)
	return true
}

func (s *Session) currentIDLocked() string {
	rec, ok := s.planets.CurrentPlanet()
	if !ok {
		return ""
	}
	return rec.ID
}

func (s *Session) publishCurrentLocked(eventType string) {
	rec, ok := s.planets.CurrentPlanet()
	if !ok {
		return
	}
	s.publishEnvelopeLocked(eventType, rec.ID, eventbus.PlanetEvent{
		ID:    rec.ID,
		Name:  rec.Name,
		Seed:  rec.Seed,
		Index: s.planets.CurrentIndex(),
	})
}

func (s *Session) publishLoadLocked(report planet.LoadReport) {
	ev := eventbus.LoadEvent{Ores: report.Ores, Spawners: report.Spawners, Totems: report.Totems}
	if report.Err != nil {
		ev.Error = report.Err.Error()
	}
	s.publishEnvelopeLocked(eventbus.TypePlanetLoaded, report.PlanetID, ev)
}

func (s *Session) publishObjectLocked(eventType string, obj placement.Object) {
	s.publishLocked(eventType, eventbus.ObjectEvent{
		ObjectID: uint64(obj.ID),
		Kind:     obj.Kind.String(),
		Subtype:  obj.Subtype,
		Position: [3]float64{obj.Position.X, obj.Position.Y, obj.Position.Z},
	})
}

func (s *Session) publishLocked(eventType string, payload any) {
	s.publishEnvelopeLocked(eventType, s.currentIDLocked(), payload)
}

// publishEnvelopeLocked публикует событие; ошибки шины только логируются
func (s *Session) publishEnvelopeLocked(eventType, planetID string, payload any) {
	if s.events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventSource, eventType, planetID, payload)
	if err != nil {
		s.logger.Warn("Событие %s не сериализовано: %v", eventType, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = s.events.Publish(ctx, ev)
	s.metrics.EventPublished(eventType, err == nil)
	if err != nil {
		s.logger.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}
