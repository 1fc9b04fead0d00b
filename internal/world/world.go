package world

import (
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/observability"
	"github.com/annel0/voxel-planets/internal/world/block"
	"go.opentelemetry.io/otel/attribute"
)

// Размеры мира по умолчанию (по горизонтали)
const (
	DefaultWidth = 50
	DefaultDepth = 50
)

// Settings - настройки мира
type Settings struct {
	Width  int
	Depth  int
	Params GenerateParams
}

// DefaultSettings возвращает мир 50x50 с параметрами генерации по умолчанию
func DefaultSettings() Settings {
	return Settings{
		Width:  DefaultWidth,
		Depth:  DefaultDepth,
		Params: DefaultGenerateParams(),
	}
}

// GridHeight возвращает высоту сетки: рельеф, вода и один слой воздуха сверху
func (s Settings) GridHeight() int {
	return s.Params.MaxHeight + s.Params.WaterLevel + 1
}

// World - корень мира: владеет сеткой, готовыми мешами и пикером.
// Перестроение не инкрементальное: старые меши выбрасываются целиком.
type World struct {
	settings Settings
	grid     *Grid
	objects  []*MeshObject
	picker   *Picker
	query    RayQuery

	metrics *metrics.Metrics
	logger  *logging.Logger
	mu      sync.RWMutex
}

// NewWorld создаёт пустой мир; сетка появляется после Regenerate
func NewWorld(settings Settings, query RayQuery, m *metrics.Metrics) *World {
	return &World{
		settings: settings,
		query:    query,
		metrics:  m,
		logger:   logging.GetWorldLogger(),
	}
}

// Regenerate строит новую сетку из сида, генерирует рельеф и пересобирает меши
func (w *World) Regenerate(seed int32) {
	start := time.Now()
	span := observability.StartSpan("world.regenerate", attribute.Int("world.seed", int(seed)))
	defer span.End()

	grid := NewGrid(w.settings.Width, w.settings.GridHeight(), w.settings.Depth, seed)
	grid.Generate(w.settings.Params)
	objects := NewMesher(grid).Build()

	w.mu.Lock()
	w.grid = grid
	w.objects = objects
	w.picker = NewPicker(grid, w.query)
	w.mu.Unlock()

	w.reportMeshes(objects)
	w.metrics.ObserveRegenerate(time.Since(start))
	w.logger.Info("Мир перестроен: seed=%d размер=%dx%dx%d объектов=%d",
		grid.Seed(), grid.Width(), grid.Height(), grid.Depth(), len(objects))
}

// Remesh пересобирает меши текущей сетки после изменения блоков
func (w *World) Remesh() {
	w.mu.RLock()
	grid := w.grid
	w.mu.RUnlock()
	if grid == nil {
		return
	}

	objects := NewMesher(grid).Build()

	w.mu.Lock()
	w.objects = objects
	w.mu.Unlock()

	w.reportMeshes(objects)
}

func (w *World) reportMeshes(objects []*MeshObject) {
	var faces [block.MaterialCount]int
	for _, obj := range objects {
		faces[obj.Material] = obj.Render.FaceCount()
	}
	for _, mat := range block.MeshMaterials {
		w.metrics.SetMeshFaces(mat.String(), faces[mat])
	}
}

// Grid возвращает текущую сетку (nil до первого Regenerate)
func (w *World) Grid() *Grid {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.grid
}

// Objects возвращает объекты мешей текущего мира
func (w *World) Objects() []*MeshObject {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*MeshObject, len(w.objects))
	copy(out, w.objects)
	return out
}

// Picker возвращает пикер текущей сетки
func (w *World) Picker() *Picker {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.picker
}

// Settings возвращает настройки мира
func (w *World) Settings() Settings {
	return w.settings
}
