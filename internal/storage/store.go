package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound возвращается при чтении отсутствующего документа
var ErrNotFound = errors.New("документ не найден")

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("хранилище закрыто")

// Store - хранилище текстовых документов по имени (файловая абстракция).
// Write перезаписывает документ целиком; неудачная запись оставляет прежнюю версию.
type Store interface {
	Exists(name string) (bool, error)
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Delete(name string) error
	List() ([]string, error)
	Close() error
}

// checkName отсекает пустые имена и имена с путями.
// Сетевые бэкенды проверяют имена так же, как DirStore.
func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("недопустимое имя документа: %q", name)
	}
	return nil
}
