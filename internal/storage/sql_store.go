package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/voxel-planets/internal/logging"
	_ "github.com/go-sql-driver/mysql"
)

// SQLStore хранит документы в таблице MariaDB/MySQL.
// Одна строка - один документ; запись идёт через upsert одной командой,
// поэтому неудачная запись не трогает прежнюю версию.
type SQLStore struct {
	db      *sql.DB
	table   string
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// SQLOptions - параметры SQLStore
type SQLOptions struct {
	DSN     string        // user:pass@tcp(host:port)/dbname
	Table   string        // По умолчанию planet_documents
	Timeout time.Duration // Таймаут одной операции
}

// NewSQLStore подключается к базе и создаёт таблицу, если её нет
func NewSQLStore(o SQLOptions) (*SQLStore, error) {
	if o.Table == "" {
		o.Table = "planet_documents"
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}

	db, err := sql.Open("mysql", o.DSN)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	s := &SQLStore{db: db, table: o.Table, timeout: o.Timeout}

	ctx, cancel := s.ctx()
	defer cancel()

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	if err := s.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logging.GetStorageLogger().Info("Подключение к MariaDB: table=%s", o.Table)
	return s, nil
}

func (s *SQLStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *SQLStore) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name       VARCHAR(255) PRIMARY KEY,
			data       LONGBLOB     NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP
		) ENGINE=InnoDB
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) ready(name string) error {
	if s.closed {
		return ErrClosed
	}
	return checkName(name)
}

// Exists проверяет наличие документа
func (s *SQLStore) Exists(name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(name); err != nil {
		return false, err
	}

	ctx, cancel := s.ctx()
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s WHERE name = ?", s.table), name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка проверки документа %s: %w", name, err)
	}
	return true, nil
}

// Read читает документ
func (s *SQLStore) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(name); err != nil {
		return nil, err
	}

	ctx, cancel := s.ctx()
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT data FROM %s WHERE name = ?", s.table), name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения документа %s: %w", name, err)
	}
	return data, nil
}

// Write перезаписывает документ
func (s *SQLStore) Write(name string, data []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(name); err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (name, data)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE
			data = VALUES(data),
			updated_at = CURRENT_TIMESTAMP
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query, name, data); err != nil {
		return fmt.Errorf("ошибка сохранения документа %s: %w", name, err)
	}
	return nil
}

// Delete удаляет документ; отсутствие документа ошибкой не считается
func (s *SQLStore) Delete(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.ready(name); err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE name = ?", s.table), name); err != nil {
		return fmt.Errorf("ошибка удаления документа %s: %w", name, err)
	}
	return nil
}

// List возвращает имена документов по возрастанию
func (s *SQLStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	ctx, cancel := s.ctx()
	defer cancel()

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT name FROM %s ORDER BY name", s.table))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка документов: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close закрывает соединение с базой данных
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
