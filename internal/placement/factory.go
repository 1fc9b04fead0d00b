package placement

// Factory создаёт и уничтожает визуальные экземпляры объектов.
// Данные объекта живут в Table; фабрика о сохранении ничего не знает.
type Factory interface {
	Spawn(obj Object)
	Despawn(obj Object)
}

// NopFactory - фабрика без визуала (headless-сервер, тесты)
type NopFactory struct{}

func (NopFactory) Spawn(Object)   {}
func (NopFactory) Despawn(Object) {}

// UnitController управляет подвижными юнитами, которых порождают спавнеры.
// Юниты не сохраняются: после загрузки и периодического сброса их рождают заново.
type UnitController interface {
	ClearUnits()
	BurstSpawn(spawner Object, count int)
	// Spawn рождает одного юнита у спавнера
	Spawn(spawner Object)
	// UnitCount - число живых юнитов
	UnitCount() int
}

// NopUnits - контроллер юнитов, который ничего не делает
type NopUnits struct{}

func (NopUnits) ClearUnits()            {}
func (NopUnits) BurstSpawn(Object, int) {}
func (NopUnits) Spawn(Object)           {}
func (NopUnits) UnitCount() int         { return 0 }
