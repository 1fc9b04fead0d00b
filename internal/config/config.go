package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Бэкенды хранения сохранений
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
	BackendMongo  = "mongo"
)

// Шины событий
const (
	EventsOff    = "off"
	EventsMemory = "memory"
	EventsNATS   = "nats"
)

// Config корневая структура конфигурации приложения
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Save      SaveConfig      `yaml:"save"`
	Reset     ResetConfig     `yaml:"reset"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Economy   EconomyConfig   `yaml:"economy"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Events    EventsConfig    `yaml:"events"`
	API       APIConfig       `yaml:"api"`
}

type WorldConfig struct {
	Width      int     `yaml:"width"`
	Depth      int     `yaml:"depth"`
	MaxHeight  int     `yaml:"max_height"`
	WaterLevel int     `yaml:"water_level"`
	NoiseScale float64 `yaml:"noise_scale"`
}

type SaveConfig struct {
	Dir             string  `yaml:"dir"`
	Backend         string  `yaml:"backend"`
	RegistryFile    string  `yaml:"registry_file"`
	AutosaveSeconds float64 `yaml:"autosave_seconds"`
	Compress        bool    `yaml:"compress"`

	Redis RedisConfig `yaml:"redis"`
	MySQL MySQLConfig `yaml:"mysql"`
	Mongo MongoConfig `yaml:"mongo"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MySQLConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type ResetConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	Burst           bool `yaml:"burst"`
	BurstCount      int  `yaml:"burst_count"`
	BurstOnLoad     bool `yaml:"burst_on_load"`
}

// SpawnConfig - таймер спавнеров и лимит юнитов
type SpawnConfig struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	MaxUnits        int     `yaml:"max_units"`
}

// EconomyConfig - политика цен; ключи карт - имена ресурсов и блоков
type EconomyConfig struct {
	SoilYield   map[string]int64 `yaml:"soil_yield"`
	OreCost     map[string]int64 `yaml:"ore_cost"`
	SpawnerBase int64            `yaml:"spawner_base"`
	SpawnerStep int64            `yaml:"spawner_step"`
	TotemCost   int64            `yaml:"totem_cost"`
	SellPrices  map[string]int64 `yaml:"sell_prices"`

	// Цены дополнительных слотов спавнера; после конца лестницы действует последняя
	ExtraSpawnCosts []int64 `yaml:"extra_spawn_costs"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
}

type ServerConfig struct {
	MetricsPort int `yaml:"metrics_port"`
	TickHz      int `yaml:"tick_hz"`
}

// TelemetryConfig - экспорт трассировок по OTLP (адрес берётся из OTEL_EXPORTER_OTLP_ENDPOINT)
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// EventsConfig - публикация событий планет
type EventsConfig struct {
	Backend        string `yaml:"backend"`
	NATSURL        string `yaml:"nats_url"`
	Stream         string `yaml:"stream"`
	RetentionHours int    `yaml:"retention_hours"`
	Buffer         int    `yaml:"buffer"`
	Log            bool   `yaml:"log"`
}

// APIConfig - HTTP API администрирования планет
type APIConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Port              int    `yaml:"port"`
	JWTSecret         string `yaml:"jwt_secret"`
	AdminUser         string `yaml:"admin_user"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
	TokenTTLMinutes   int    `yaml:"token_ttl_minutes"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Width:      50,
			Depth:      50,
			MaxHeight:  16,
			WaterLevel: 4,
			NoiseScale: 20,
		},
		Save: SaveConfig{
			Backend:         BackendFile,
			AutosaveSeconds: 5,
		},
		Reset: ResetConfig{
			Enabled:         true,
			IntervalSeconds: 240,
			Burst:           true,
			BurstCount:      3,
		},
		Spawn: SpawnConfig{
			IntervalSeconds: 2,
			MaxUnits:        10,
		},
		Economy: EconomyConfig{
			SoilYield:   map[string]int64{"Grass": 1, "Dirt": 1},
			OreCost:     map[string]int64{"Copper": 50, "Silver": 150, "Gold": 400, "Metal": 800, "Mithril": 2000},
			SpawnerBase: 0,
			SpawnerStep: 1000,
			TotemCost:   2000,
			SellPrices:  map[string]int64{"Soil": 1, "Copper": 3, "Silver": 8, "Gold": 20, "Metal": 40, "Mithril": 100},

			ExtraSpawnCosts: []int64{0, 500, 5000, 50000, 500000},
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
		},
		Events: EventsConfig{
			Backend:        EventsOff,
			RetentionHours: 24,
			Buffer:         256,
		},
		API: APIConfig{
			AdminUser:       "admin",
			TokenTTLMinutes: 60,
		},
	}
}

// Validate проверяет значения, которые нельзя молча исправить
func (c *Config) Validate() error {
	switch c.Save.Backend {
	case "", BackendFile, BackendBadger, BackendRedis, BackendMySQL, BackendMongo:
	default:
		return fmt.Errorf("неизвестный бэкенд сохранений: %q", c.Save.Backend)
	}
	switch c.Events.Backend {
	case "", EventsOff, EventsMemory, EventsNATS:
	default:
		return fmt.Errorf("неизвестная шина событий: %q", c.Events.Backend)
	}
	if c.World.Width <= 0 || c.World.Depth <= 0 {
		return fmt.Errorf("размеры мира должны быть положительными: %dx%d", c.World.Width, c.World.Depth)
	}
	if c.World.MaxHeight < 0 || c.World.WaterLevel < 0 {
		return fmt.Errorf("высоты не могут быть отрицательными")
	}
	if c.Spawn.MaxUnits < 0 {
		return fmt.Errorf("лимит юнитов не может быть отрицательным: %d", c.Spawn.MaxUnits)
	}
	return nil
}

// GetBackend возвращает бэкенд: config -> env VOXEL_SAVE_BACKEND -> file
func (s *SaveConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "VOXEL_SAVE_BACKEND", BackendFile)
}

// GetDir возвращает директорию сохранений: config -> env VOXEL_SAVE_DIR -> ./data
func (s *SaveConfig) GetDir() string {
	return getStringWithEnvFallback(s.Dir, "VOXEL_SAVE_DIR", "data")
}

// GetRedisAddr возвращает адрес Redis: config -> env VOXEL_REDIS_ADDR -> localhost:6379
func (s *SaveConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(s.Redis.Addr, "VOXEL_REDIS_ADDR", "localhost:6379")
}

// GetMySQLDSN возвращает строку подключения: config -> env VOXEL_MYSQL_DSN
func (s *SaveConfig) GetMySQLDSN() string {
	return getStringWithEnvFallback(s.MySQL.DSN, "VOXEL_MYSQL_DSN", "")
}

// GetMongoURI возвращает адрес MongoDB: config -> env VOXEL_MONGO_URI -> localhost
func (s *SaveConfig) GetMongoURI() string {
	return getStringWithEnvFallback(s.Mongo.URI, "VOXEL_MONGO_URI", "mongodb://localhost:27017")
}

// AutosaveInterval возвращает период автосохранения
func (s *SaveConfig) AutosaveInterval() time.Duration {
	return time.Duration(s.AutosaveSeconds * float64(time.Second))
}

// Interval возвращает период сброса
func (r *ResetConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// Interval возвращает период спавна
func (s *SpawnConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds * float64(time.Second))
}

// GetDir возвращает директорию логов: config -> env VOXEL_LOG_DIR -> без файлов
func (l *LoggingConfig) GetDir() string {
	return getStringWithEnvFallback(l.Dir, "VOXEL_LOG_DIR", "")
}

// GetMetricsPort возвращает порт Prometheus метрик с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// GetTickHz возвращает частоту игрового цикла
func (s *ServerConfig) GetTickHz() int {
	return getPortWithEnvFallback(s.TickHz, "VOXEL_TICK_HZ", 20)
}

// GetServiceName возвращает имя сервиса в трассировках
func (t *TelemetryConfig) GetServiceName() string {
	return getStringWithEnvFallback(t.ServiceName, "OTEL_SERVICE_NAME", "voxel-planets")
}

// GetBackend возвращает шину событий: config -> env VOXEL_EVENTS -> off
func (e *EventsConfig) GetBackend() string {
	return getStringWithEnvFallback(e.Backend, "VOXEL_EVENTS", EventsOff)
}

// GetNATSURL возвращает адрес NATS: config -> env NATS_URL -> nats://127.0.0.1:4222
func (e *EventsConfig) GetNATSURL() string {
	return getStringWithEnvFallback(e.NATSURL, "NATS_URL", "nats://127.0.0.1:4222")
}

// Retention возвращает срок хранения событий в стриме
func (e *EventsConfig) Retention() time.Duration {
	return time.Duration(e.RetentionHours) * time.Hour
}

// GetPort возвращает порт API
func (a *APIConfig) GetPort() int {
	return getPortWithEnvFallback(a.Port, "VOXEL_API_PORT", 8088)
}

// GetJWTSecret возвращает base64 секрет подписи токенов: config -> env JWT_SECRET
func (a *APIConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "JWT_SECRET", "")
}

// GetAdminPasswordHash возвращает bcrypt хеш пароля администратора
func (a *APIConfig) GetAdminPasswordHash() string {
	return getStringWithEnvFallback(a.AdminPasswordHash, "VOXEL_ADMIN_PASSWORD_HASH", "")
}

// TokenTTL возвращает срок жизни токена
func (a *APIConfig) TokenTTL() time.Duration {
	if a.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// getPortWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если значение задано в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", берётся ENV VOXEL_CONFIG; без него возвращаются значения по умолчанию.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
