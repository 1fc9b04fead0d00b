package game

import (
	"fmt"
	"time"

	"github.com/annel0/voxel-planets/internal/config"
	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/world"
	"github.com/annel0/voxel-planets/internal/world/block"
)

// Options - политика сессии: размеры мира, цены и таймеры
type Options struct {
	World     world.Settings
	Prices    economy.PriceList
	SoilYield economy.SoilYield

	AutosaveInterval time.Duration

	ResetEnabled  bool
	ResetInterval time.Duration
	BurstOnReset  bool
	BurstCount    int
	BurstOnLoad   bool

	// SpawnInterval - период спавна; неположительный отключает таймер
	SpawnInterval time.Duration
	MaxUnits      int

	// EnableCost - списывать монеты за постройки
	EnableCost bool
}

// DefaultOptions возвращает базовые настройки
func DefaultOptions() Options {
	return Options{
		World:            world.DefaultSettings(),
		Prices:           economy.DefaultPriceList(),
		SoilYield:        economy.DefaultSoilYield(),
		AutosaveInterval: 5 * time.Second,
		ResetEnabled:     true,
		ResetInterval:    240 * time.Second,
		BurstOnReset:     true,
		BurstCount:       3,
		SpawnInterval:    2 * time.Second,
		MaxUnits:         10,
		EnableCost:       true,
	}
}

// OptionsFromConfig переводит конфигурацию в настройки сессии
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := DefaultOptions()
	if cfg == nil {
		return opts, nil
	}

	opts.World = world.Settings{
		Width: cfg.World.Width,
		Depth: cfg.World.Depth,
		Params: world.GenerateParams{
			MaxHeight:  cfg.World.MaxHeight,
			WaterLevel: cfg.World.WaterLevel,
			NoiseScale: cfg.World.NoiseScale,
		},
	}
	opts.AutosaveInterval = cfg.Save.AutosaveInterval()
	opts.ResetEnabled = cfg.Reset.Enabled
	opts.ResetInterval = cfg.Reset.Interval()
	opts.BurstOnReset = cfg.Reset.Burst
	opts.BurstCount = cfg.Reset.BurstCount
	opts.BurstOnLoad = cfg.Reset.BurstOnLoad
	opts.SpawnInterval = cfg.Spawn.Interval()
	opts.MaxUnits = cfg.Spawn.MaxUnits

	yield := economy.SoilYield{}
	for name, amount := range cfg.Economy.SoilYield {
		id, ok := block.ParseBlockID(name)
		if !ok {
			return Options{}, fmt.Errorf("soil_yield: неизвестный блок %q", name)
		}
		yield[id] = amount
	}
	opts.SoilYield = yield

	oreCost, err := parseResourceMap("ore_cost", cfg.Economy.OreCost)
	if err != nil {
		return Options{}, err
	}
	sell, err := parseResourceMap("sell_prices", cfg.Economy.SellPrices)
	if err != nil {
		return Options{}, err
	}
	opts.Prices = economy.PriceList{
		OreCost:     oreCost,
		SpawnerBase: cfg.Economy.SpawnerBase,
		SpawnerStep: cfg.Economy.SpawnerStep,
		TotemCost:   cfg.Economy.TotemCost,
		SellPerUnit: sell,

		ExtraSpawnCosts: cfg.Economy.ExtraSpawnCosts,
	}

	return opts, nil
}

func parseResourceMap(section string, in map[string]int64) (map[economy.ResourceKind]int64, error) {
	out := make(map[economy.ResourceKind]int64, len(in))
	for name, v := range in {
		kind, err := economy.ParseResourceKind(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", section, err)
		}
		out[kind] = v
	}
	return out, nil
}
