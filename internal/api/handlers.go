package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/voxel-planets/internal/economy"
	"github.com/annel0/voxel-planets/internal/game"
	"github.com/annel0/voxel-planets/internal/placement"
	"github.com/annel0/voxel-planets/internal/planet"
	"github.com/annel0/voxel-planets/internal/world"
	"github.com/gin-gonic/gin"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"is_admin"`
}

// NameRequest - тело create и rename
type NameRequest struct {
	Name string `json:"name"`
}

// SellRequest - пустой ресурс означает продажу всего
type SellRequest struct {
	Resource string `json:"resource"`
}

// PlanetView - запись реестра в ответах API
type PlanetView struct {
	Index     int       `json:"index"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Seed      int32     `json:"seed"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

// CurrentView - текущая планета с кошельком и объектами
type CurrentView struct {
	Planet   PlanetView       `json:"planet"`
	Balances map[string]int64 `json:"balances"`
	Objects  map[string]int   `json:"objects"`
}

// LoadView - итог загрузки планеты после переключения
type LoadView struct {
	PlanetID  string `json:"planet_id"`
	Seed      int32  `json:"seed"`
	Ores      int    `json:"ores"`
	Spawners  int    `json:"spawners"`
	Totems    int    `json:"totems"`
	Created   bool   `json:"created"`
	Recovered bool   `json:"recovered"`
	Error     string `json:"error,omitempty"`
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "planets": rs.session.Planets().Len()})
}

func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if !rs.admin.Authenticate(req.Username, req.Password) {
		rs.logger.Warn("Неудачный вход: user=%s ip=%s", req.Username, c.ClientIP())
		abort(c, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	token, err := rs.tokens.Generate(req.Username, true)
	if err != nil {
		abort(c, http.StatusInternalServerError, "Ошибка генерации токена")
		return
	}
	ok(c, "Успешная авторизация", LoginResponse{Token: token, IsAdmin: true})
}

func (rs *RestServer) handleServerInfo(c *gin.Context) {
	ok(c, "Информация о сервере", rs.metrics.Snapshot())
}

func (rs *RestServer) handleListPlanets(c *gin.Context) {
	registry := rs.session.Planets()
	current := registry.CurrentIndex()
	records := registry.Planets()

	views := make([]PlanetView, len(records))
	for i, rec := range records {
		views[i] = planetView(rec, i, i == current)
	}
	ok(c, "Планеты", views)
}

func (rs *RestServer) handleCurrentPlanet(c *gin.Context) {
	view, found := rs.currentView()
	if !found {
		abort(c, http.StatusNotFound, "Планета не выбрана")
		return
	}
	ok(c, "Текущая планета", view)
}

func (rs *RestServer) handleExportOBJ(c *gin.Context) {
	objects := rs.session.World().Objects()
	if len(objects) == 0 {
		abort(c, http.StatusServiceUnavailable, "Мир не построен")
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if err := world.WriteOBJ(c.Writer, objects); err != nil {
		rs.logger.Error("Экспорт OBJ: %v", err)
	}
}

func (rs *RestServer) handleCreatePlanet(c *gin.Context) {
	var req NameRequest
	// тело необязательно: без имени планета получит имя по умолчанию
	_ = c.ShouldBindJSON(&req)
	rs.respondLoad(c, http.StatusCreated, "Планета создана")(rs.session.CreatePlanet(req.Name))
}

func (rs *RestServer) handleNextPlanet(c *gin.Context) {
	rs.respondLoad(c, http.StatusOK, "Следующая планета")(rs.session.NextPlanet())
}

func (rs *RestServer) handlePreviousPlanet(c *gin.Context) {
	rs.respondLoad(c, http.StatusOK, "Предыдущая планета")(rs.session.PreviousPlanet())
}

func (rs *RestServer) handleDeletePlanet(c *gin.Context) {
	rs.respondLoad(c, http.StatusOK, "Планета удалена")(rs.session.DeletePlanet())
}

func (rs *RestServer) handleRename(c *gin.Context) {
	var req NameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if !rs.session.Rename(req.Name) {
		abort(c, http.StatusBadRequest, "Имя не может быть пустым")
		return
	}
	rs.handleCurrentPlanet(c)
}

func (rs *RestServer) handleSell(c *gin.Context) {
	var req SellRequest
	_ = c.ShouldBindJSON(&req)

	kinds := append([]economy.ResourceKind{economy.Soil}, economy.OreKinds...)
	if req.Resource != "" {
		kind, err := economy.ParseResourceKind(req.Resource)
		if err != nil {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		kinds = []economy.ResourceKind{kind}
	}

	var earned int64
	for _, kind := range kinds {
		got, err := rs.session.SellAll(kind)
		if err != nil {
			rs.fail(c, err)
			return
		}
		earned += got
	}
	ok(c, "Продано", gin.H{"earned": earned, "coin": rs.session.Ledger().Get(economy.Coin)})
}

func (rs *RestServer) handleBuyExtraSpawn(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "Некорректный id спавнера")
		return
	}
	cost, err := rs.session.BuyExtraSpawn(placement.ObjectID(id))
	if err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, "Слот куплен", gin.H{
		"cost":  cost,
		"slots": rs.session.ExtraSpawns(placement.ObjectID(id)),
		"coin":  rs.session.Ledger().Get(economy.Coin),
	})
}

func (rs *RestServer) handleSave(c *gin.Context) {
	if err := rs.session.SaveNow(); err != nil {
		rs.fail(c, err)
		return
	}
	ok(c, "Сохранено", nil)
}

func (rs *RestServer) respondLoad(c *gin.Context, status int, message string) func(planet.LoadReport, error) {
	return func(report planet.LoadReport, err error) {
		if err != nil {
			rs.fail(c, err)
			return
		}
		view := LoadView{
			PlanetID:  report.PlanetID,
			Seed:      report.Seed,
			Ores:      report.Ores,
			Spawners:  report.Spawners,
			Totems:    report.Totems,
			Created:   report.Created,
			Recovered: report.Recovered,
		}
		if report.Err != nil {
			view.Error = report.Err.Error()
		}
		c.JSON(status, GenericResponse{Success: true, Message: message, Data: view})
	}
}

func (rs *RestServer) currentView() (CurrentView, bool) {
	snap, found := rs.session.CurrentSnapshot()
	if !found {
		return CurrentView{}, false
	}

	view := CurrentView{
		Planet:   planetView(snap.Planet, snap.Index, true),
		Balances: make(map[string]int64, len(snap.Balances)),
		Objects:  make(map[string]int, int(placement.KindCount)),
	}
	for _, kind := range economy.AllResources() {
		view.Balances[kind.String()] = snap.Balances[kind]
	}
	for kind := placement.KindOre; kind < placement.KindCount; kind++ {
		view.Objects[kind.String()] = snap.Objects[kind]
	}
	return view, true
}

// fail переводит ошибки сессии в HTTP статусы
func (rs *RestServer) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrNotStarted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, game.ErrUnknownObject):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, game.ErrInvalidSubtype), errors.Is(err, game.ErrOutOfBounds),
		errors.Is(err, game.ErrOccupied), errors.Is(err, game.ErrNotMinable):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		rs.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	abort(c, status, err.Error())
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

func planetView(rec planet.Record, index int, current bool) PlanetView {
	return PlanetView{
		Index:     index,
		ID:        rec.ID,
		Name:      rec.Name,
		Seed:      rec.Seed,
		CreatedAt: rec.CreatedAt(),
		Current:   current,
	}
}
