package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voxel"

// Metrics инкапсулирует Prometheus-метрики генерации мира и сохранений.
// Все методы безопасны для nil-получателя: компоненты работают и без метрик.
type Metrics struct {
	registry *prometheus.Registry

	regenerations    prometheus.Counter
	regenerateTime   prometheus.Histogram
	meshFaces        *prometheus.GaugeVec
	saves            *prometheus.CounterVec
	saveFailures     *prometheus.CounterVec
	loads            *prometheus.CounterVec
	loadFallbacks    *prometheus.CounterVec
	placedObjects    *prometheus.GaugeVec
	schedulerFirings *prometheus.CounterVec
	events           *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInflight     prometheus.Gauge
}

// New создаёт метрики в собственном регистре (без глобального состояния)
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		regenerations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_regenerations_total",
			Help:      "Количество полных перестроений мира.",
		}),
		regenerateTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "world_regenerate_seconds",
			Help:      "Длительность генерации сетки и построения мешей.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		meshFaces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_faces",
			Help:      "Количество граней в меше по материалам.",
		}, []string{"material"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Успешные сохранения документов.",
		}, []string{"document"}),
		saveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "save_failures_total",
			Help:      "Неудачные сохранения документов.",
		}, []string{"document"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Загрузки документов.",
		}, []string{"document"}),
		loadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_fallbacks_total",
			Help:      "Загрузки, заменённые состоянием по умолчанию (нет файла или он повреждён).",
		}, []string{"document", "reason"}),
		placedObjects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "placed_objects",
			Help:      "Размещённые объекты текущей планеты по видам.",
		}, []string{"kind"}),
		schedulerFirings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_firings_total",
			Help:      "Срабатывания периодических задач.",
		}, []string{"job"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Опубликованные события по типам и результату.",
		}, []string{"type", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность запросов к API администрирования.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Запросы API, обрабатываемые в данный момент.",
		}),
	}

	m.registry.MustRegister(
		m.regenerations, m.regenerateTime, m.meshFaces,
		m.saves, m.saveFailures, m.loads, m.loadFallbacks,
		m.placedObjects, m.schedulerFirings,
		m.events, m.httpDuration, m.httpInflight,
	)
	return m
}

// Registry возвращает регистр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler возвращает HTTP-обработчик для /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRegenerate фиксирует одно перестроение мира
func (m *Metrics) ObserveRegenerate(d time.Duration) {
	if m == nil {
		return
	}
	m.regenerations.Inc()
	m.regenerateTime.Observe(d.Seconds())
}

// SetMeshFaces задаёт количество граней меша материала
func (m *Metrics) SetMeshFaces(material string, faces int) {
	if m == nil {
		return
	}
	m.meshFaces.WithLabelValues(material).Set(float64(faces))
}

// SaveSucceeded фиксирует успешное сохранение
func (m *Metrics) SaveSucceeded(document string) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(document).Inc()
}

// SaveFailed фиксирует неудачное сохранение
func (m *Metrics) SaveFailed(document string) {
	if m == nil {
		return
	}
	m.saveFailures.WithLabelValues(document).Inc()
}

// Loaded фиксирует загрузку документа
func (m *Metrics) Loaded(document string) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(document).Inc()
}

// LoadFellBack фиксирует откат загрузки к состоянию по умолчанию
func (m *Metrics) LoadFellBack(document, reason string) {
	if m == nil {
		return
	}
	m.loadFallbacks.WithLabelValues(document, reason).Inc()
}

// SetPlacedObjects задаёт количество размещённых объектов вида
func (m *Metrics) SetPlacedObjects(kind string, count int) {
	if m == nil {
		return
	}
	m.placedObjects.WithLabelValues(kind).Set(float64(count))
}

// JobFired фиксирует срабатывание периодической задачи
func (m *Metrics) JobFired(job string) {
	if m == nil {
		return
	}
	m.schedulerFirings.WithLabelValues(job).Inc()
}

// EventPublished фиксирует публикацию события; ok=false - шина вернула ошибку
func (m *Metrics) EventPublished(eventType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.events.WithLabelValues(eventType, result).Inc()
}

// ObserveHTTPRequest фиксирует завершённый запрос API
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// AddInflight меняет число выполняемых запросов API
func (m *Metrics) AddInflight(delta int) {
	if m == nil {
		return
	}
	m.httpInflight.Add(float64(delta))
}
