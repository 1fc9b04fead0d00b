package economy

// PriceList - внешняя политика цен: стоимость построек в монетах и цены продажи.
// Ядро не зависит от конкретных чисел.
type PriceList struct {
	OreCost     map[ResourceKind]int64 // Стоимость месторождения по типу руды
	SpawnerBase int64                  // Стоимость первого спавнера
	SpawnerStep int64                  // Надбавка за каждый уже стоящий спавнер
	TotemCost   int64                  // Стоимость тотема
	SellPerUnit map[ResourceKind]int64 // Монет за единицу ресурса при продаже

	// Лестница цен дополнительных слотов спавнера
	ExtraSpawnCosts []int64
}

// DefaultPriceList возвращает базовый баланс
func DefaultPriceList() PriceList {
	return PriceList{
		OreCost: map[ResourceKind]int64{
			Copper:  50,
			Silver:  150,
			Gold:    400,
			Metal:   800,
			Mithril: 2000,
		},
		SpawnerBase: 0,
		SpawnerStep: 1000,
		TotemCost:   2000,
		SellPerUnit: map[ResourceKind]int64{
			Soil:    1,
			Copper:  3,
			Silver:  8,
			Gold:    20,
			Metal:   40,
			Mithril: 100,
		},
		ExtraSpawnCosts: []int64{0, 500, 5000, 50000, 500000},
	}
}

// OrePrice возвращает стоимость месторождения данного типа
func (p PriceList) OrePrice(kind ResourceKind) int64 {
	return max(0, p.OreCost[kind])
}

// SpawnerPrice возвращает стоимость следующего спавнера при existing уже стоящих
func (p PriceList) SpawnerPrice(existing int) int64 {
	return max(0, p.SpawnerBase+p.SpawnerStep*int64(existing))
}

// ExtraSpawnPrice возвращает цену следующего слота при purchased уже купленных.
// За концом лестницы цена не растёт.
func (p PriceList) ExtraSpawnPrice(purchased int) int64 {
	if len(p.ExtraSpawnCosts) == 0 {
		return 0
	}
	idx := min(max(purchased, 0), len(p.ExtraSpawnCosts)-1)
	return max(0, p.ExtraSpawnCosts[idx])
}

// SellAll продаёт весь запас ресурса за монеты и возвращает выручку.
// Монеты не продаются; ресурс без цены не трогается.
func (p PriceList) SellAll(l Ledger, kind ResourceKind) int64 {
	if kind == Coin {
		return 0
	}
	price := p.SellPerUnit[kind]
	if price <= 0 {
		return 0
	}
	have := l.Get(kind)
	if have <= 0 {
		return 0
	}

	gain := have * price
	l.Set(kind, 0)
	l.Add(Coin, gain)
	return gain
}

// SellEverything продаёт все ресурсы кроме монет
func (p PriceList) SellEverything(l Ledger) int64 {
	var total int64
	for _, kind := range AllResources() {
		total += p.SellAll(l, kind)
	}
	return total
}
