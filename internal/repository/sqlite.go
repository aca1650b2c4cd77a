package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmeshcher/orchidshop/internal/model"
)

// OpenSQLite открывает базу SQLite, создаёт схему по моделям и заполняет
// справочник ролей. Используется для локального запуска и тестов.
func OpenSQLite(ctx context.Context, dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(withForeignKeys(dsn)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	// каждое соединение с :memory: получает собственную базу
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.WithContext(ctx).AutoMigrate(model.All()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	roles := []model.Role{{Name: model.RoleAdmin}, {Name: model.RoleUser}}
	err = db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&roles).Error
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	return &Database{db: db, sqlDB: sqlDB}, nil
}

// withForeignKeys включает проверку внешних ключей для каждого соединения.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}
