package scheduler

import (
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
)

// Job - периодическая задача с накопителем прошедшего времени
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func()

	acc time.Duration
}

// Scheduler - явный планировщик вместо опроса таймеров в каждом кадре.
// Tick получает прошедшее время и запускает задачи, чей накопитель
// достиг интервала. Накопитель после срабатывания обнуляется, поэтому
// задача срабатывает не больше одного раза за тик. Порядок срабатывания
// совпадает с порядком добавления.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []*Job
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// New создаёт пустой планировщик
func New(m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		logger:  logging.GetComponentLogger("scheduler"),
		metrics: m,
	}
}

// Every регистрирует задачу. Задача с тем же именем заменяется.
// Неположительный интервал отключает задачу.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{Name: name, Interval: interval, Fn: fn}
	for i, j := range s.jobs {
		if j.Name == name {
			s.jobs[i] = job
			return
		}
	}
	s.jobs = append(s.jobs, job)
}

// Remove удаляет задачу
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, j := range s.jobs {
		if j.Name == name {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return true
		}
	}
	return false
}

// Reset обнуляет накопитель задачи
func (s *Scheduler) Reset(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.Name == name {
			j.acc = 0
		}
	}
}

// Names возвращает имена задач в порядке срабатывания
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.Name
	}
	return names
}

// Tick продвигает время на dt и возвращает имена сработавших задач.
// Задачи вызываются вне блокировки: внутри можно регистрировать новые.
func (s *Scheduler) Tick(dt time.Duration) []string {
	if dt < 0 {
		dt = 0
	}

	s.mu.Lock()
	var due []*Job
	for _, j := range s.jobs {
		if j.Interval <= 0 {
			continue
		}
		j.acc += dt
		if j.acc >= j.Interval {
			j.acc = 0
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	fired := make([]string, 0, len(due))
	for _, j := range due {
		s.logger.Trace("Задача %s сработала", j.Name)
		s.metrics.JobFired(j.Name)
		if j.Fn != nil {
			j.Fn()
		}
		fired = append(fired, j.Name)
	}
	return fired
}
