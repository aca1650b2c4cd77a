package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Поддерживаемые драйверы базы данных.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver возвращается для неподдерживаемого драйвера.
var ErrUnknownDriver = errors.New("unknown database driver")

// Database владеет подключением к базе данных и выдаёт единицы работы.
type Database struct {
	db    *gorm.DB
	sqlDB *sql.DB
	pool  *pgxpool.Pool
}

// Open подключается к базе данных выбранным драйвером.
func Open(ctx context.Context, driver, dsn string) (*Database, error) {
	switch driver {
	case DriverPostgres, "":
		return OpenPostgres(ctx, dsn)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
}

// NewUnitOfWork создаёт единицу работы для одного запроса.
func (d *Database) NewUnitOfWork() *UnitOfWork {
	return NewUnitOfWork(d.db)
}

// Ping проверяет доступность базы данных.
func (d *Database) Ping(ctx context.Context) error {
	return d.sqlDB.PingContext(ctx)
}

// Close закрывает соединения с базой данных.
func (d *Database) Close() error {
	err := d.sqlDB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}
