package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-planets/internal/api"
	"github.com/annel0/voxel-planets/internal/auth"
	"github.com/annel0/voxel-planets/internal/config"
	"github.com/annel0/voxel-planets/internal/eventbus"
	"github.com/annel0/voxel-planets/internal/game"
	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/annel0/voxel-planets/internal/metrics"
	"github.com/annel0/voxel-planets/internal/observability"
	"github.com/annel0/voxel-planets/internal/planet"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе VOXEL_CONFIG)")
	flag.Parse()

	// .env необязателен: переменные окружения могут прийти от оркестратора
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	logging.SetLogDir(cfg.Logging.GetDir())
	if err := logging.InitDefaultLogger("server"); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logging.CloseDefaultLogger()

	if err := run(cfg); err != nil {
		logging.Error("Сервер остановлен с ошибкой: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logging.Info("Запуск сервера планет: backend=%s dir=%s", cfg.Save.GetBackend(), cfg.Save.GetDir())

	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(context.Background(), cfg.Telemetry.GetServiceName())
		if err != nil {
			logging.Warn("Трассировка отключена: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	opts, err := game.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	store, err := game.OpenStore(cfg.Save)
	if err != nil {
		return fmt.Errorf("хранилище сохранений: %w", err)
	}
	defer store.Close()

	bus, err := openEventBus(cfg.Events)
	if err != nil {
		return fmt.Errorf("шина событий: %w", err)
	}
	if bus != nil {
		defer bus.Close()
	}

	m := metrics.New()
	session := game.NewSession(opts, game.Deps{
		Store:           store,
		Metrics:         m,
		Events:          bus,
		RegistryOptions: []planet.RegistryOption{planet.WithRegistryFile(cfg.Save.RegistryFile)},
	})

	applyLogLevel(cfg.Logging.ConsoleLevel)
	report := session.Start()
	logging.Info("Текущая планета: id=%s seed=%d руд=%d спавнеров=%d тотемов=%d",
		report.PlanetID, report.Seed, report.Ores, report.Spawners, report.Totems)

	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           metricsMux(m),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logging.Info("Метрики: http://localhost%s/metrics", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка HTTP сервера метрик: %v", err)
		}
	}()

	var apiServer *api.RestServer
	if cfg.API.Enabled {
		apiServer, err = newAPIServer(cfg.API, session, m)
		if err != nil {
			return fmt.Errorf("API: %w", err)
		}
		go func() {
			if err := apiServer.Start(); err != nil {
				logging.Error("Ошибка API сервера: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tickLoop(ctx, session, cfg.Server.GetTickHz())

	logging.Info("Получен сигнал завершения, сохраняю состояние...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Ошибка остановки HTTP сервера метрик: %v", err)
	}
	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			logging.Warn("Ошибка остановки API сервера: %v", err)
		}
	}

	if err := session.Shutdown(); err != nil {
		return fmt.Errorf("сохранение при остановке: %w", err)
	}
	logging.Info("Сервер успешно остановлен")
	return nil
}

// tickLoop продвигает планировщик сессии с фиксированной частотой до отмены ctx
func tickLoop(ctx context.Context, session *game.Session, hz int) {
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			session.Tick(now.Sub(last))
			last = now
		}
	}
}

func metricsMux(m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func applyLogLevel(name string) {
	level := logging.ParseLevel(name)
	lm := logging.GetLoggerManager()
	for _, component := range lm.ListComponents() {
		_ = lm.SetLogLevel(component, level, logging.TRACE)
	}
}

// openEventBus возвращает nil, если публикация событий выключена
func openEventBus(cfg config.EventsConfig) (eventbus.EventBus, error) {
	var bus eventbus.EventBus
	switch backend := cfg.GetBackend(); backend {
	case config.EventsOff:
		return nil, nil
	case config.EventsMemory:
		bus = eventbus.NewMemoryBus(cfg.Buffer)
	case config.EventsNATS:
		js, err := eventbus.NewJetStreamBus(cfg.GetNATSURL(), cfg.Stream, cfg.Retention())
		if err != nil {
			return nil, err
		}
		bus = js
		logging.Info("События публикуются в NATS %s", cfg.GetNATSURL())
	default:
		return nil, fmt.Errorf("неизвестная шина событий: %q", backend)
	}

	if cfg.Log {
		if _, err := eventbus.StartLoggingListener(bus); err != nil {
			bus.Close()
			return nil, err
		}
	}
	return bus, nil
}

func newAPIServer(cfg config.APIConfig, session *game.Session, m *metrics.Metrics) (*api.RestServer, error) {
	secret := cfg.GetJWTSecret()
	if secret == "" {
		logging.Warn("JWT_SECRET не задан: токены API не переживут перезапуск")
	}
	tokens, err := auth.NewTokenIssuer(secret, cfg.TokenTTL())
	if err != nil {
		return nil, err
	}

	admin := auth.AdminCredentials{Username: cfg.AdminUser, PasswordHash: cfg.GetAdminPasswordHash()}
	if admin.PasswordHash == "" {
		logging.Warn("Пароль администратора не задан: вход в API выключен")
	}
	return api.NewRestServer(api.Config{
		Addr:    fmt.Sprintf(":%d", cfg.GetPort()),
		Session: session,
		Tokens:  tokens,
		Admin:   admin,
		Metrics: m,
	}), nil
}
