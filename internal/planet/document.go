package planet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/vec"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrCorrupt - документ не разбирается или не проходит схему
var ErrCorrupt = errors.New("документ повреждён")

const (
	// RegistryFile - имя документа реестра планет по умолчанию
	RegistryFile = "planet_save.json"

	// noPlanetID используется в имени файла, когда текущей планеты нет
	noPlanetID = "no_planet"

	// unixEpochTicks - 1970-01-01 в 100-наносекундных тиках от 0001-01-01
	unixEpochTicks int64 = 621355968000000000
)

// StateFile возвращает имя файла состояния планеты
func StateFile(id string) string {
	if id == "" {
		id = noPlanetID
	}
	return "planet_" + id + ".json"
}

// TicksFromTime переводит время в тики (100 нс с 0001-01-01 UTC)
func TicksFromTime(t time.Time) int64 {
	return t.UTC().UnixNano()/100 + unixEpochTicks
}

// TimeFromTicks обратное к TicksFromTime
func TimeFromTicks(ticks int64) time.Time {
	return time.Unix(0, (ticks-unixEpochTicks)*100).UTC()
}

// Record - запись о планете в реестре
type Record struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Seed            int32  `json:"seed"`
	CreatedUtcTicks int64  `json:"createdUtcTicks"`
}

// CreatedAt возвращает время создания планеты
func (r Record) CreatedAt() time.Time {
	return TimeFromTicks(r.CreatedUtcTicks)
}

type registryDocument struct {
	CurrentIndex int      `json:"currentIndex"`
	Planets      []Record `json:"planets"`
}

// OreRecord - сохранённое рудное месторождение
type OreRecord struct {
	OreType economy.ResourceKind `json:"oreType"`
	Pos     vec.Vec3Float        `json:"pos"`
	Rot     vec.Quat             `json:"rot"`
}

// SpawnerRecord - сохранённый спавнер
type SpawnerRecord struct {
	Pos vec.Vec3Float `json:"pos"`
	Rot vec.Quat      `json:"rot"`
}

// TotemRecord - сохранённый тотем
type TotemRecord struct {
	Type placement.TotemType `json:"type"`
	Pos  vec.Vec3Float       `json:"pos"`
	Rot  vec.Quat            `json:"rot"`
}

// StateDocument - полный снимок состояния планеты
type StateDocument struct {
	Coin    int64 `json:"coin"`
	Soil    int64 `json:"soil"`
	Copper  int64 `json:"copper"`
	Silver  int64 `json:"silver"`
	Gold    int64 `json:"gold"`
	Metal   int64 `json:"metal"`
	Mithril int64 `json:"mithril"`

	Ores     []OreRecord     `json:"ores"`
	Spawners []SpawnerRecord `json:"spawners"`
	Totems   []TotemRecord   `json:"totems"`
}

// EmptyState возвращает пустой документ со списками нулевой длины
func EmptyState() *StateDocument {
	return &StateDocument{
		Ores:     []OreRecord{},
		Spawners: []SpawnerRecord{},
		Totems:   []TotemRecord{},
	}
}

// Balances возвращает счётчики документа
func (d *StateDocument) Balances() economy.Balances {
	var b economy.Balances
	b[economy.Coin] = d.Coin
	b[economy.Soil] = d.Soil
	b[economy.Copper] = d.Copper
	b[economy.Silver] = d.Silver
	b[economy.Gold] = d.Gold
	b[economy.Metal] = d.Metal
	b[economy.Mithril] = d.Mithril
	return b
}

// SetBalances записывает счётчики в документ
func (d *StateDocument) SetBalances(b economy.Balances) {
	d.Coin = b[economy.Coin]
	d.Soil = b[economy.Soil]
	d.Copper = b[economy.Copper]
	d.Silver = b[economy.Silver]
	d.Gold = b[economy.Gold]
	d.Metal = b[economy.Metal]
	d.Mithril = b[economy.Mithril]
}

const vec3Schema = `{"type": "object", "properties": {
	"x": {"type": "number"}, "y": {"type": "number"}, "z": {"type": "number"}}}`

const quatSchema = `{"type": "object", "properties": {
	"x": {"type": "number"}, "y": {"type": "number"}, "z": {"type": "number"}, "w": {"type": "number"}}}`

var registrySchema = jsonschema.MustCompileString("planet_save.schema.json", `{
	"type": "object",
	"properties": {
		"currentIndex": {"type": "integer"},
		"planets": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"name": {"type": "string"},
					"seed": {"type": "integer", "minimum": -2147483648, "maximum": 2147483647},
					"createdUtcTicks": {"type": "integer"}
				}
			}
		}
	}
}`)

var stateSchema = jsonschema.MustCompileString("planet_state.schema.json", `{
	"type": "object",
	"properties": {
		"coin": {"type": "integer"},
		"soil": {"type": "integer"},
		"copper": {"type": "integer"},
		"silver": {"type": "integer"},
		"gold": {"type": "integer"},
		"metal": {"type": "integer"},
		"mithril": {"type": "integer"},
		"ores": {"type": "array", "items": {"type": "object", "properties": {
			"oreType": {"type": "integer"}, "pos": `+vec3Schema+`, "rot": `+quatSchema+`}}},
		"spawners": {"type": "array", "items": {"type": "object", "properties": {
			"pos": `+vec3Schema+`, "rot": `+quatSchema+`}}},
		"totems": {"type": "array", "items": {"type": "object", "properties": {
			"type": {"type": "integer"}, "pos": `+vec3Schema+`, "rot": `+quatSchema+`}}}
	}
}`)

// validate проверяет документ схемой до разбора в структуры
func validate(schema *jsonschema.Schema, data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

func decodeRegistry(data []byte) (*registryDocument, error) {
	if err := validate(registrySchema, data); err != nil {
		return nil, err
	}
	var doc registryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &doc, nil
}

func encodeRegistry(doc *registryDocument) ([]byte, error) {
	if doc.Planets == nil {
		doc.Planets = []Record{}
	}
	return json.MarshalIndent(doc, "", "    ")
}

// DecodeState разбирает документ состояния планеты. Отсутствующие списки
// заменяются пустыми.
func DecodeState(data []byte) (*StateDocument, error) {
	if err := validate(stateSchema, data); err != nil {
		return nil, err
	}
	doc := EmptyState()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Ores == nil {
		doc.Ores = []OreRecord{}
	}
	if doc.Spawners == nil {
		doc.Spawners = []SpawnerRecord{}
	}
	if doc.Totems == nil {
		doc.Totems = []TotemRecord{}
	}
	return doc, nil
}

// EncodeState сериализует документ в читаемый JSON
func EncodeState(doc *StateDocument) ([]byte, error) {
	out := *doc
	if out.Ores == nil {
		out.Ores = []OreRecord{}
	}
	if out.Spawners == nil {
		out.Spawners = []SpawnerRecord{}
	}
	if out.Totems == nil {
		out.Totems = []TotemRecord{}
	}
	return json.MarshalIndent(&out, "", "    ")
}
