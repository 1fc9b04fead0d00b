package eventbus

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrClosed возвращается при работе с закрытой шиной
var ErrClosed = errors.New("eventbus: closed")

// Типы событий планет
const (
	TypePlanetCreated  = "planet.created"
	TypePlanetSelected = "planet.selected"
	TypePlanetDeleted  = "planet.deleted"
	TypePlanetRenamed  = "planet.renamed"
	TypePlanetLoaded   = "planet.loaded"
	TypePlanetSaved    = "planet.saved"
	TypeObjectPlaced   = "object.placed"
	TypeObjectRemoved  = "object.removed"
	TypeResourceSold   = "resource.sold"
)

// Версия схемы полезной нагрузки
const payloadVersion = 1

// PlanetEvent - полезная нагрузка событий planet.*
type PlanetEvent struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seed  int32  `json:"seed"`
	Index int    `json:"index"`
}

// LoadEvent - итог загрузки состояния планеты
type LoadEvent struct {
	Ores     int    `json:"ores"`
	Spawners int    `json:"spawners"`
	Totems   int    `json:"totems"`
	Error    string `json:"error,omitempty"`
}

// ObjectEvent - поставленный или снятый объект
type ObjectEvent struct {
	ObjectID uint64     `json:"objectId"`
	Kind     string     `json:"kind"`
	Subtype  int        `json:"subtype"`
	Position [3]float64 `json:"position"`
}

// SaleEvent - продажа ресурса
type SaleEvent struct {
	Resource string `json:"resource"`
	Amount   int64  `json:"amount"`
	Earned   int64  `json:"earned"`
}

// NewEnvelope упаковывает payload в JSON-конверт с новым UUID
func NewEnvelope(source, eventType, planetID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   payloadVersion,
		PlanetID:  planetID,
		Payload:   data,
	}, nil
}

// Decode распаковывает полезную нагрузку конверта
func (e *Envelope) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}
