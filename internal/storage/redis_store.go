package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/go-redis/redis/v8"
)

// RedisStore хранит документы строковыми ключами Redis.
// SET атомарен, так что неудачная запись оставляет прежнее значение.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
}

// RedisOptions содержит настройки подключения к Redis
type RedisOptions struct {
	Addr      string        // Адрес Redis сервера
	Password  string        // Пароль (пустой если не требуется)
	DB        int           // Номер базы данных
	KeyPrefix string        // Префикс для ключей
	Timeout   time.Duration // Таймаут одной операции
}

// DefaultRedisOptions возвращает конфигурацию по умолчанию
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Addr:      "localhost:6379",
		KeyPrefix: "voxel:doc:",
		Timeout:   5 * time.Second,
	}
}

// NewRedisStore подключается к Redis и проверяет соединение
func NewRedisStore(o RedisOptions) (*RedisStore, error) {
	def := DefaultRedisOptions()
	if o.Addr == "" {
		o.Addr = def.Addr
	}
	if o.KeyPrefix == "" {
		o.KeyPrefix = def.KeyPrefix
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     o.Addr,
		Password: o.Password,
		DB:       o.DB,
	})

	s := &RedisStore{client: client, keyPrefix: o.KeyPrefix, timeout: o.Timeout}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("не удалось подключиться к Redis %s: %w", o.Addr, err)
	}

	logging.GetStorageLogger().Info("Подключение к Redis: addr=%s prefix=%s", o.Addr, o.KeyPrefix)
	return s, nil
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *RedisStore) key(name string) (string, error) {
	if s.closed {
		return "", ErrClosed
	}
	if err := checkName(name); err != nil {
		return "", err
	}
	return s.keyPrefix + name, nil
}

// Exists проверяет наличие документа
func (s *RedisStore) Exists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, err := s.key(name)
	if err != nil {
		return false, err
	}

	ctx, cancel := s.ctx()
	defer cancel()
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ошибка проверки документа %s: %w", name, err)
	}
	return n > 0, nil
}

// Read читает документ
func (s *RedisStore) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.ctx()
	defer cancel()
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения документа %s: %w", name, err)
	}
	return data, nil
}

// Write перезаписывает документ без срока жизни
func (s *RedisStore) Write(name string, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, err := s.key(name)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения документа %s: %w", name, err)
	}
	return nil
}

// Delete удаляет документ; отсутствие документа ошибкой не считается
func (s *RedisStore) Delete(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, err := s.key(name)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("ошибка удаления документа %s: %w", name, err)
	}
	return nil
}

// List обходит ключи с префиксом через SCAN и возвращает имена по возрастанию
func (s *RedisStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	ctx, cancel := s.ctx()
	defer cancel()

	var names []string
	iter := s.client.Scan(ctx, 0, s.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("ошибка получения списка документов: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close закрывает соединение с Redis
func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}
