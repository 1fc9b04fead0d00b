package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-planets/internal/config"
	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/eventbus"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/planet"
	"github.com/annel0/voxel-planets/internal/storage"
	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/annel0/voxel-planets/internal/world"
	"github.com/annel0/voxel-planets/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingUnits struct {
	clears int
	alive  int
	bursts map[placement.ObjectID]int
	spawns map[placement.ObjectID]int
}

func (u *recordingUnits) ClearUnits() {
	u.clears++
	u.alive = 0
}

func (u *recordingUnits) BurstSpawn(sp placement.Object, count int) {
	if u.bursts == nil {
		u.bursts = make(map[placement.ObjectID]int)
	}
	u.bursts[sp.ID] += count
	u.alive += count
}

func (u *recordingUnits) Spawn(sp placement.Object) {
	if u.spawns == nil {
		u.spawns = make(map[placement.ObjectID]int)
	}
	u.spawns[sp.ID]++
	u.alive++
}

func (u *recordingUnits) UnitCount() int { return u.alive }

type countingFactory struct {
	spawned, despawned int
}

func (f *countingFactory) Spawn(placement.Object)   { f.spawned++ }
func (f *countingFactory) Despawn(placement.Object) { f.despawned++ }

func testOptions() Options {
	opts := DefaultOptions()
	opts.World = world.Settings{
		Width: 8,
		Depth: 8,
		Params: world.GenerateParams{
			MaxHeight:  4,
			WaterLevel: 1,
			NoiseScale: 20,
		},
	}
	// Таймер спавна включают только тесты спавна
	opts.SpawnInterval = 0
	return opts
}

func newTestSession(t *testing.T, store storage.Store, units placement.UnitController) *Session {
	t.Helper()
	return NewSession(testOptions(), Deps{
		Store:           store,
		Units:           units,
		RegistryOptions: []planet.RegistryOption{planet.WithRandSeed(11)},
	})
}

func newDirStore(t *testing.T, dir string) storage.Store {
	t.Helper()
	store, err := storage.NewDirStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// airAbove возвращает пустую ячейку над поверхностью столбца
func airAbove(s *Session, x, z int) vec.Vec3 {
	grid := s.World().Grid()
	return vec.Vec3{X: x, Y: grid.GetSurfaceHeight(x, z) + 1, Z: z}
}

func surface(s *Session, x, z int) vec.Vec3 {
	grid := s.World().Grid()
	return vec.Vec3{X: x, Y: grid.GetSurfaceHeight(x, z), Z: z}
}

func readState(t *testing.T, store storage.Store, id string) *planet.StateDocument {
	t.Helper()
	data, err := store.Read(planet.StateFile(id))
	require.NoError(t, err)
	doc, err := planet.DecodeState(data)
	require.NoError(t, err)
	return doc
}

func currentID(t *testing.T, s *Session) string {
	t.Helper()
	rec, ok := s.Planets().CurrentPlanet()
	require.True(t, ok)
	return rec.ID
}

func TestSessionStartBootstrapsPlanet(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	s := newTestSession(t, store, nil)

	report := s.Start()
	assert.True(t, report.Created)
	assert.Equal(t, 1, s.Planets().Len())
	assert.NotNil(t, s.World().Grid())
	assert.Equal(t, []string{JobAutosave, JobReset}, s.Scheduler().Names())

	rec, _ := s.Planets().CurrentPlanet()
	assert.Equal(t, "Planet 1", rec.Name)
	assert.Equal(t, rec.Seed, s.World().Grid().Seed())

	ok, err := store.Exists(planet.StateFile(rec.ID))
	require.NoError(t, err)
	assert.True(t, ok, "пустое состояние записано сразу")
}

func TestSessionRequiresStart(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)

	_, err := s.Mine(vec.Vec3{})
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.PlaceOre(vec.Vec3{}, economy.Copper, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrNotStarted)
	_, err = s.NextPlanet()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, s.SaveNow(), ErrNotStarted)
	assert.NoError(t, s.Shutdown())
}

func TestPlaceOreSpendsCoinAndPersists(t *testing.T) {
	dir := t.TempDir()
	store := newDirStore(t, dir)
	s := newTestSession(t, store, nil)
	s.Start()

	cell := airAbove(s, 2, 3)
	_, err := s.PlaceOre(cell, economy.Copper, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 0, s.Objects().Len())

	s.Ledger().Set(economy.Coin, 120)
	ore, err := s.PlaceOre(cell, economy.Copper, vec.QuatFromYaw(90))
	require.NoError(t, err)
	assert.Equal(t, placement.KindOre, ore.Kind)
	assert.Equal(t, int(economy.Copper), ore.Subtype)
	assert.Equal(t, cell.ToFloat(), ore.Position)
	assert.Equal(t, int64(70), s.Ledger().Get(economy.Coin))

	doc := readState(t, store, currentID(t, s))
	require.Len(t, doc.Ores, 1)
	assert.Equal(t, economy.Copper, doc.Ores[0].OreType)
	assert.Equal(t, int64(70), doc.Coin)

	// Новая сессия на тех же файлах видит ту же руду
	reloaded := newTestSession(t, newDirStore(t, dir), nil)
	report := reloaded.Start()
	assert.Equal(t, 1, report.Ores)
	assert.Equal(t, int64(70), reloaded.Ledger().Get(economy.Coin))
	restored := reloaded.Objects().List(placement.KindOre)
	require.Len(t, restored, 1)
	assert.Equal(t, ore.Position, restored[0].Position)
	assert.InDelta(t, ore.Rotation.Y, restored[0].Rotation.Y, 1e-12)
}

func TestPlacementValidation(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	s.Start()
	s.Ledger().Set(economy.Coin, 1_000_000)

	_, err := s.PlaceOre(surface(s, 1, 1), economy.Gold, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrOccupied)

	_, err = s.PlaceOre(vec.Vec3{X: -1, Y: 1, Z: 0}, economy.Gold, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = s.PlaceOre(airAbove(s, 1, 1), economy.Coin, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrInvalidSubtype)

	_, err = s.PlaceTotem(airAbove(s, 1, 1), placement.TotemType(42), vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrInvalidSubtype)

	assert.Equal(t, int64(1_000_000), s.Ledger().Get(economy.Coin), "отказ ничего не списывает")
	assert.Equal(t, 0, s.Objects().Len())
}

func TestSpawnerPriceGrows(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	s.Start()
	s.Ledger().Set(economy.Coin, 1500)

	cell := airAbove(s, 0, 0)
	first, err := s.PlaceSpawner(cell, vec.IdentityQuat())
	require.NoError(t, err)
	assert.Equal(t, float64(cell.Y)+0.5, first.Position.Y, "спавнер стоит на полблока выше ячейки")
	assert.Equal(t, int64(1500), s.Ledger().Get(economy.Coin), "первый спавнер бесплатный")

	_, err = s.PlaceSpawner(airAbove(s, 1, 0), vec.IdentityQuat())
	require.NoError(t, err)
	assert.Equal(t, int64(500), s.Ledger().Get(economy.Coin))

	_, err = s.PlaceSpawner(airAbove(s, 2, 0), vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 2, s.Objects().Count(placement.KindSpawner))
}

func TestPlaceTotemAndRemove(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	factory := &countingFactory{}
	s := NewSession(testOptions(), Deps{Store: store, Factory: factory})
	s.Start()
	s.Ledger().Set(economy.Coin, 2000)

	totem, err := s.PlaceTotem(airAbove(s, 4, 4), placement.TotemStability, vec.IdentityQuat())
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Ledger().Get(economy.Coin))
	assert.Equal(t, 1, factory.spawned)

	removed, err := s.RemoveObject(totem.ID)
	require.NoError(t, err)
	assert.Equal(t, totem, removed)
	assert.Equal(t, 1, factory.despawned)
	assert.Empty(t, readState(t, store, currentID(t, s)).Totems)

	_, err = s.RemoveObject(totem.ID)
	assert.ErrorIs(t, err, ErrUnknownObject)
}

func TestMineAndPlaceBlock(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	s.Start()

	cell := surface(s, 3, 3)
	id, err := s.Mine(cell)
	require.NoError(t, err)
	assert.Equal(t, block.GrassBlockID, id)
	assert.Equal(t, int64(1), s.Ledger().Get(economy.Soil))
	assert.Equal(t, block.AirBlockID, s.World().Grid().GetBlockAt(cell))

	_, err = s.Mine(cell)
	assert.ErrorIs(t, err, ErrNotMinable)
	_, err = s.Mine(vec.Vec3{X: 100})
	assert.ErrorIs(t, err, ErrOutOfBounds)

	require.NoError(t, s.PlaceBlock(cell, block.DirtBlockID))
	assert.Equal(t, block.DirtBlockID, s.World().Grid().GetBlockAt(cell))
	assert.ErrorIs(t, s.PlaceBlock(cell, block.DirtBlockID), ErrOccupied)
	assert.ErrorIs(t, s.PlaceBlock(airAbove(s, 0, 0), block.WaterBlockID), ErrInvalidSubtype)
}

func TestHarvestAndSell(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	s.Start()
	s.Ledger().Set(economy.Coin, 150)

	ore, err := s.PlaceOre(airAbove(s, 5, 5), economy.Silver, vec.IdentityQuat())
	require.NoError(t, err)

	kind, err := s.HarvestOre(ore.ID)
	require.NoError(t, err)
	assert.Equal(t, economy.Silver, kind)
	assert.Equal(t, int64(1), s.Ledger().Get(economy.Silver))
	assert.Equal(t, 0, s.Objects().Len(), "собранная руда исчезает")

	_, err = s.HarvestOre(ore.ID)
	assert.ErrorIs(t, err, ErrUnknownObject)

	gained, err := s.HarvestGround(2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gained)
	_, err = s.HarvestGround(-1, 2)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	earned, err := s.SellAll(economy.Silver)
	require.NoError(t, err)
	assert.Equal(t, int64(8), earned)
	assert.Equal(t, int64(8), s.Ledger().Get(economy.Coin))
	assert.Equal(t, int64(0), s.Ledger().Get(economy.Silver))
}

func TestPlanetSwitchingKeepsProgress(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	s := newTestSession(t, store, nil)
	s.Start()
	first := currentID(t, s)
	s.Ledger().Set(economy.Gold, 7)

	report, err := s.CreatePlanet("Mars")
	require.NoError(t, err)
	assert.True(t, report.Created)
	assert.Equal(t, 2, s.Planets().Len())
	assert.Equal(t, int64(0), s.Ledger().Get(economy.Gold), "новая планета начинает с нуля")

	rec, _ := s.Planets().CurrentPlanet()
	assert.Equal(t, "Mars", rec.Name)
	assert.Equal(t, rec.Seed, s.World().Grid().Seed())

	_, err = s.PreviousPlanet()
	require.NoError(t, err)
	assert.Equal(t, first, currentID(t, s))
	assert.Equal(t, int64(7), s.Ledger().Get(economy.Gold), "прогресс сохранён перед переключением")

	_, err = s.NextPlanet()
	require.NoError(t, err)
	assert.Equal(t, rec.ID, currentID(t, s))

	assert.True(t, s.Rename("Ares"))
	assert.False(t, s.Rename("  "))
	renamed, _ := s.Planets().CurrentPlanet()
	assert.Equal(t, "Ares", renamed.Name)
}

func TestDeletePlanetRemovesStateFile(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	s := newTestSession(t, store, nil)
	s.Start()
	only := currentID(t, s)

	report, err := s.DeletePlanet()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Planets().Len(), "реестр никогда не пуст")
	assert.NotEqual(t, only, report.PlanetID)

	ok, err := store.Exists(planet.StateFile(only))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTickRunsAutosaveAndReset(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	units := &recordingUnits{}
	s := newTestSession(t, store, units)
	s.Start()
	id := currentID(t, s)

	s.Ledger().Set(economy.Coin, 2000)
	sp, err := s.PlaceSpawner(airAbove(s, 0, 0), vec.IdentityQuat())
	require.NoError(t, err)

	// Изменение без записи подхватывает автосохранение
	s.Ledger().Set(economy.Mithril, 3)
	assert.Empty(t, s.Tick(4*time.Second))
	assert.Equal(t, int64(0), readState(t, store, id).Mithril)

	assert.Equal(t, []string{JobAutosave}, s.Tick(time.Second))
	assert.Equal(t, int64(3), readState(t, store, id).Mithril)

	fired := s.Tick(235 * time.Second)
	assert.Equal(t, []string{JobAutosave, JobReset}, fired)
	assert.Equal(t, 1, units.clears)
	assert.Equal(t, 3, units.bursts[sp.ID])
}

func TestTickSpawnsUpToUnitCap(t *testing.T) {
	opts := testOptions()
	opts.SpawnInterval = 2 * time.Second
	opts.MaxUnits = 3
	opts.ResetEnabled = false
	units := &recordingUnits{}
	s := NewSession(opts, Deps{
		Store:           newDirStore(t, t.TempDir()),
		Units:           units,
		RegistryOptions: []planet.RegistryOption{planet.WithRandSeed(11)},
	})
	s.Start()
	assert.Equal(t, []string{JobAutosave, JobSpawn}, s.Scheduler().Names())

	// Без спавнеров таймер никого не рождает
	assert.Equal(t, []string{JobSpawn}, s.Tick(2*time.Second))
	assert.Equal(t, 0, units.alive)

	s.Ledger().Set(economy.Coin, 5000)
	a, err := s.PlaceSpawner(airAbove(s, 0, 0), vec.IdentityQuat())
	require.NoError(t, err)
	b, err := s.PlaceSpawner(airAbove(s, 3, 3), vec.IdentityQuat())
	require.NoError(t, err)

	assert.Empty(t, s.Tick(time.Second))
	assert.Equal(t, 0, units.alive)
	s.Tick(time.Second)
	assert.Equal(t, 1, units.spawns[a.ID])
	assert.Equal(t, 1, units.spawns[b.ID])

	// Лимит общий по числу живых юнитов
	s.Tick(2 * time.Second)
	s.Tick(2 * time.Second)
	assert.Equal(t, 3, units.alive)
	assert.Equal(t, 2, units.spawns[a.ID])
	assert.Equal(t, 1, units.spawns[b.ID])

	units.ClearUnits()
	s.Tick(2 * time.Second)
	assert.Equal(t, 2, units.alive, "после сброса спавн продолжается")
}

func TestBuyExtraSpawnRaisesCap(t *testing.T) {
	opts := testOptions()
	opts.MaxUnits = 1
	units := &recordingUnits{}
	store := newDirStore(t, t.TempDir())
	s := NewSession(opts, Deps{
		Store:           store,
		Units:           units,
		RegistryOptions: []planet.RegistryOption{planet.WithRandSeed(11)},
	})

	_, err := s.BuyExtraSpawn(1000)
	assert.ErrorIs(t, err, ErrNotStarted)
	s.Start()

	s.Ledger().Set(economy.Coin, 600)
	sp, err := s.PlaceSpawner(airAbove(s, 0, 0), vec.IdentityQuat())
	require.NoError(t, err)
	ore, err := s.PlaceOre(airAbove(s, 1, 1), economy.Copper, vec.IdentityQuat())
	require.NoError(t, err)

	_, err = s.BuyExtraSpawn(ore.ID)
	assert.ErrorIs(t, err, ErrUnknownObject)

	units.Spawn(sp)
	// Первый слот бесплатный и сразу даёт юнита сверх базового лимита
	cost, err := s.BuyExtraSpawn(sp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cost)
	assert.Equal(t, 1, s.ExtraSpawns(sp.ID))
	assert.Equal(t, 2, units.alive)

	cost, err = s.BuyExtraSpawn(sp.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), cost)
	assert.Equal(t, int64(50), s.Ledger().Get(economy.Coin))
	assert.Equal(t, int64(50), readState(t, store, currentID(t, s)).Coin, "списание сразу записано")
	assert.Equal(t, 3, units.alive)

	_, err = s.BuyExtraSpawn(sp.ID)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 2, s.ExtraSpawns(sp.ID))

	// Слоты живут вместе с экземпляром спавнера
	_, err = s.CreatePlanet("Beta")
	require.NoError(t, err)
	assert.Equal(t, 0, s.ExtraSpawns(sp.ID))
}

func TestPlacementRejectsCellHeldByObject(t *testing.T) {
	opts := testOptions()
	opts.EnableCost = false
	s := NewSession(opts, Deps{
		Store:           newDirStore(t, t.TempDir()),
		RegistryOptions: []planet.RegistryOption{planet.WithRandSeed(11)},
	})
	s.Start()

	cell := airAbove(s, 2, 2)
	ore, err := s.PlaceOre(cell, economy.Gold, vec.IdentityQuat())
	require.NoError(t, err)
	_, err = s.PlaceOre(cell, economy.Copper, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrOccupied)
	_, err = s.PlaceTotem(cell, placement.TotemStability, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrOccupied)
	assert.ErrorIs(t, s.PlaceBlock(cell, block.DirtBlockID), ErrOccupied)

	// Спавнер висит над ячейкой, но занимает именно её
	spCell := airAbove(s, 5, 5)
	_, err = s.PlaceSpawner(spCell, vec.IdentityQuat())
	require.NoError(t, err)
	_, err = s.PlaceOre(spCell, economy.Silver, vec.IdentityQuat())
	assert.ErrorIs(t, err, ErrOccupied)
	_, err = s.PlaceOre(spCell.Add(vec.Vec3{Y: 1}), economy.Silver, vec.IdentityQuat())
	assert.NoError(t, err, "ячейка над спавнером свободна")

	_, err = s.RemoveObject(ore.ID)
	require.NoError(t, err)
	_, err = s.PlaceOre(cell, economy.Copper, vec.IdentityQuat())
	assert.NoError(t, err)
}

func TestCurrentSnapshot(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	s.Start()

	s.Ledger().Set(economy.Coin, 1000)
	s.Ledger().Set(economy.Gold, 4)
	_, err := s.PlaceOre(airAbove(s, 1, 1), economy.Copper, vec.IdentityQuat())
	require.NoError(t, err)

	snap, ok := s.CurrentSnapshot()
	require.True(t, ok)
	assert.Equal(t, currentID(t, s), snap.Planet.ID)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, int64(950), snap.Balances[economy.Coin])
	assert.Equal(t, int64(4), snap.Balances[economy.Gold])
	assert.Equal(t, 1, snap.Objects[placement.KindOre])
	assert.Equal(t, 0, snap.Objects[placement.KindSpawner])

	// Снимок после переключения целиком относится к новой планете
	_, err = s.CreatePlanet("Beta")
	require.NoError(t, err)
	snap, ok = s.CurrentSnapshot()
	require.True(t, ok)
	assert.Equal(t, "Beta", snap.Planet.Name)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, int64(0), snap.Balances[economy.Gold])
	assert.Equal(t, 0, snap.Objects[placement.KindOre])
}

func TestShutdownSavesAndStops(t *testing.T) {
	store := newDirStore(t, t.TempDir())
	s := newTestSession(t, store, nil)
	s.Start()
	id := currentID(t, s)

	s.Ledger().Set(economy.Metal, 9)
	require.NoError(t, s.Shutdown())
	assert.Equal(t, int64(9), readState(t, store, id).Metal)

	_, err := s.Mine(vec.Vec3{})
	assert.ErrorIs(t, err, ErrNotStarted)

	s.Ledger().Set(economy.Metal, 10)
	s.Tick(time.Hour)
	assert.Equal(t, int64(9), readState(t, store, id).Metal, "после остановки автосохранение не пишет")
}

func TestPickUsesWorldPicker(t *testing.T) {
	s := newTestSession(t, newDirStore(t, t.TempDir()), nil)
	_, ok := s.Pick(world.Ray{})
	assert.False(t, ok, "до загрузки пикера нет")

	s.Start()
	_, ok = s.Pick(world.Ray{})
	assert.False(t, ok, "без физического запроса попаданий нет")
}

func TestOptionsFromConfig(t *testing.T) {
	opts, err := OptionsFromConfig(config.Default())
	require.NoError(t, err)

	def := DefaultOptions()
	assert.Equal(t, def.World, opts.World)
	assert.Equal(t, def.Prices, opts.Prices)
	assert.Equal(t, def.SoilYield, opts.SoilYield)
	assert.Equal(t, def.AutosaveInterval, opts.AutosaveInterval)
	assert.Equal(t, def.ResetInterval, opts.ResetInterval)
	assert.Equal(t, def.SpawnInterval, opts.SpawnInterval)
	assert.Equal(t, def.MaxUnits, opts.MaxUnits)

	cfg := config.Default()
	cfg.Economy.OreCost["Adamant"] = 1
	_, err = OptionsFromConfig(cfg)
	assert.ErrorContains(t, err, "ore_cost")

	cfg = config.Default()
	cfg.Economy.SoilYield["Stone"] = 1
	_, err = OptionsFromConfig(cfg)
	assert.ErrorContains(t, err, "Stone")

	nilOpts, err := OptionsFromConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, def.BurstCount, nilOpts.BurstCount)
}

func TestOpenStoreSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	file, err := OpenStore(config.SaveConfig{Backend: config.BackendFile, Dir: dir})
	require.NoError(t, err)
	assert.IsType(t, &storage.DirStore{}, file)
	require.NoError(t, file.Close())

	bdb, err := OpenStore(config.SaveConfig{Backend: config.BackendBadger, Dir: dir, Compress: true})
	require.NoError(t, err)
	assert.IsType(t, &storage.BadgerStore{}, bdb)
	require.NoError(t, bdb.Close())

	t.Setenv("VOXEL_MYSQL_DSN", "")
	_, err = OpenStore(config.SaveConfig{Backend: config.BackendMySQL})
	assert.ErrorContains(t, err, "VOXEL_MYSQL_DSN")

	_, err = OpenStore(config.SaveConfig{Backend: "ftp"})
	assert.Error(t, err)
}

func TestSessionPublishesEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus(64)
	var (
		mu     sync.Mutex
		events []*eventbus.Envelope
	)
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	opts := testOptions()
	opts.EnableCost = false
	s := NewSession(opts, Deps{
		Store:           newDirStore(t, t.TempDir()),
		Events:          bus,
		RegistryOptions: []planet.RegistryOption{planet.WithRandSeed(11)},
	})
	s.Start()
	first := currentID(t, s)

	_, err = s.PlaceOre(airAbove(s, 1, 1), economy.Gold, vec.IdentityQuat())
	require.NoError(t, err)
	_, err = s.CreatePlanet("Beta")
	require.NoError(t, err)
	second := currentID(t, s)
	require.True(t, s.Rename("Gamma"))
	require.NoError(t, s.SaveNow())
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	types := make([]string, len(events))
	for i, ev := range events {
		types[i] = ev.EventType
	}
	assert.Equal(t, []string{
		eventbus.TypePlanetLoaded,
		eventbus.TypeObjectPlaced,
		eventbus.TypePlanetCreated,
		eventbus.TypePlanetLoaded,
		eventbus.TypePlanetRenamed,
		eventbus.TypePlanetSaved,
	}, types)

	assert.Equal(t, first, events[0].PlanetID)
	assert.Equal(t, first, events[1].PlanetID)
	assert.Equal(t, second, events[2].PlanetID)

	var placed eventbus.ObjectEvent
	require.NoError(t, events[1].Decode(&placed))
	assert.Equal(t, "ore", placed.Kind)
	assert.Equal(t, int(economy.Gold), placed.Subtype)

	var renamed eventbus.PlanetEvent
	require.NoError(t, events[4].Decode(&renamed))
	assert.Equal(t, "Gamma", renamed.Name)
	assert.Equal(t, 1, renamed.Index)
}
