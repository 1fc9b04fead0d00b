package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/voxel-planets/internal/logging"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

// Префикс ключей документов в BadgerDB
const docKeyPrefix = "doc:"

// BadgerStore хранит документы в BadgerDB, опционально сжимая их zstd
type BadgerStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *logging.Logger
}

// BadgerOptions - параметры BadgerStore
type BadgerOptions struct {
	Dir      string // Пустая строка - хранение в памяти
	Compress bool
}

// NewBadgerStore открывает хранилище на основе BadgerDB
func NewBadgerStore(o BadgerOptions) (*BadgerStore, error) {
	var opts badger.Options
	dbPath := ""
	if o.Dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbPath = filepath.Join(o.Dir, "planets")
		opts = badger.DefaultOptions(dbPath)
	}
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		logger:  logging.GetStorageLogger(),
	}

	// Декодер нужен всегда: хранилище могло быть записано со сжатием
	s.decoder, err = zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать zstd-декодер: %w", err)
	}
	if o.Compress {
		s.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			s.decoder.Close()
			db.Close()
			return nil, fmt.Errorf("не удалось создать zstd-кодировщик: %w", err)
		}
	}

	s.logger.Info("BadgerDB открыта: path=%q zstd=%v", dbPath, o.Compress)
	return s, nil
}

// Заголовок значения: 0 - без сжатия, 1 - zstd
const (
	valueRaw  byte = 0
	valueZstd byte = 1
)

func (s *BadgerStore) encode(data []byte) []byte {
	if s.encoder == nil {
		return append([]byte{valueRaw}, data...)
	}
	out := make([]byte, 1, len(data)/2+1)
	out[0] = valueZstd
	return s.encoder.EncodeAll(data, out)
}

func (s *BadgerStore) decode(val []byte) ([]byte, error) {
	if len(val) == 0 {
		return nil, fmt.Errorf("пустое значение")
	}
	switch val[0] {
	case valueRaw:
		return append([]byte{}, val[1:]...), nil
	case valueZstd:
		return s.decoder.DecodeAll(val[1:], nil)
	default:
		return nil, fmt.Errorf("неизвестный формат значения: %d", val[0])
	}
}

func docKey(name string) []byte {
	return []byte(docKeyPrefix + name)
}

// Exists проверяет наличие документа
func (s *BadgerStore) Exists(name string) (bool, error) {
	if err := checkName(name); err != nil {
		return false, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return false, ErrClosed
	}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return true, nil
}

// Read читает документ
func (s *BadgerStore) Read(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrClosed
	}

	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(name))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	data, err := s.decode(raw)
	if err != nil {
		s.logger.Error("Документ %s не распакован: %v", name, err)
		return nil, fmt.Errorf("ошибка распаковки %s: %w", name, err)
	}
	return data, nil
}

// Write перезаписывает документ в одной транзакции
func (s *BadgerStore) Write(name string, data []byte) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}

	val := s.encode(data)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(name), val)
	})
	if err != nil {
		s.logger.Error("Запись %s в BadgerDB не удалась: %v", name, err)
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// Delete удаляет документ
func (s *BadgerStore) Delete(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(docKey(name))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

// List возвращает имена документов в алфавитном порядке
func (s *BadgerStore) List() ([]string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if !s.isReady {
		return nil, ErrClosed
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(docKeyPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, strings.TrimPrefix(string(it.Item().Key()), docKeyPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close закрывает базу
func (s *BadgerStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isReady {
		return nil
	}
	s.isReady = false

	if s.encoder != nil {
		s.encoder.Close()
	}
	s.decoder.Close()
	return s.db.Close()
}
