package game

import (
	"fmt"

	"github.com/annel0/voxel-planets/internal/config"
	"github.com/annel0/voxel-planets/internal/storage"
)

// OpenStore открывает хранилище сохранений, выбранное в конфигурации
func OpenStore(cfg config.SaveConfig) (storage.Store, error) {
	switch backend := cfg.GetBackend(); backend {
	case config.BackendFile:
		return storage.NewDirStore(cfg.GetDir())
	case config.BackendBadger:
		return storage.NewBadgerStore(storage.BadgerOptions{Dir: cfg.GetDir(), Compress: cfg.Compress})
	case config.BackendRedis:
		return storage.NewRedisStore(storage.RedisOptions{
			Addr:      cfg.GetRedisAddr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
	case config.BackendMySQL:
		dsn := cfg.GetMySQLDSN()
		if dsn == "" {
			return nil, fmt.Errorf("бэкенд %s требует save.mysql.dsn или VOXEL_MYSQL_DSN", backend)
		}
		return storage.NewSQLStore(storage.SQLOptions{DSN: dsn, Table: cfg.MySQL.Table})
	case config.BackendMongo:
		return storage.NewMongoStore(storage.MongoOptions{
			URI:        cfg.GetMongoURI(),
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		return nil, fmt.Errorf("неизвестный бэкенд сохранений: %q", backend)
	}
}
