// Package repository содержит обобщённый доступ к данным поверх GORM:
// репозитории сущностей, единицу работы и постраничную выборку.
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository предоставляет операции над сущностями типа T. Чтения выполняются
// сразу, изменения ставятся в очередь единицы работы до вызова Save.
type Repository[T any] struct {
	uow *UnitOfWork
}

// Entities возвращает запрос по таблице сущности T для дальнейшей композиции.
// Внутри открытой транзакции запрос выполняется в ней.
func (r *Repository[T]) Entities(ctx context.Context) *gorm.DB {
	db, err := r.uow.conn(ctx)
	if err != nil {
		failed := r.uow.db.Session(&gorm.Session{NewDB: true, Context: ctx})
		_ = failed.AddError(err)
		return failed
	}
	return db.Model(new(T))
}

// GetByID возвращает сущность по первичному ключу или nil, если её нет.
func (r *Repository[T]) GetByID(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.Entities(ctx).First(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &entity, nil
}

// Find возвращает первую сущность, удовлетворяющую условию, или nil.
func (r *Repository[T]) Find(ctx context.Context, query any, args ...any) (*T, error) {
	var entity T
	err := r.Entities(ctx).Where(query, args...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	return &entity, nil
}

// Exists сообщает, есть ли хотя бы одна сущность, удовлетворяющая условию.
func (r *Repository[T]) Exists(ctx context.Context, query any, args ...any) (bool, error) {
	var n int64
	if err := r.Entities(ctx).Where(query, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

// All возвращает все сущности.
func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	if err := r.Entities(ctx).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("select all: %w", err)
	}
	return items, nil
}

// List выполняет подготовленный запрос и возвращает все найденные сущности.
func (r *Repository[T]) List(query *gorm.DB) ([]T, error) {
	items := make([]T, 0)
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("select list: %w", err)
	}
	return items, nil
}

// Insert ставит сущность в очередь на вставку. Связанные записи, заданные
// в полях-срезах, вставляются вместе с ней.
func (r *Repository[T]) Insert(entity *T) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
}

// InsertRange ставит несколько сущностей в очередь на вставку.
func (r *Repository[T]) InsertRange(entities []*T) {
	if len(entities) == 0 {
		return
	}
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Create(entities).Error
	})
}

// Update ставит сущность в очередь на обновление всех полей.
// Связанные записи не затрагиваются.
func (r *Repository[T]) Update(entity *T) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Save(entity).Error
	})
}

// Delete ставит сущность в очередь на удаление по первичному ключу.
func (r *Repository[T]) Delete(entity *T) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Delete(entity).Error
	})
}

// DeleteByID ставит в очередь удаление сущности с указанным первичным ключом.
func (r *Repository[T]) DeleteByID(id any) {
	r.uow.stage(func(tx *gorm.DB) error {
		return tx.Delete(new(T), id).Error
	})
}

// GetPage возвращает страницу результатов запроса query. Если query равен
// nil, выбираются все сущности. Номер и размер страницы нормализуются
// функцией NormalizePage.
func (r *Repository[T]) GetPage(ctx context.Context, query *gorm.DB, pageIndex, pageSize int) (*Page[T], error) {
	pageIndex, pageSize = NormalizePage(pageIndex, pageSize)
	if query == nil {
		query = r.Entities(ctx)
	}

	counter := query.Session(&gorm.Session{Context: ctx})
	counter.Statement.Preloads = nil

	var total int64
	if err := counter.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count page: %w", err)
	}

	items := make([]T, 0)
	offset := (pageIndex - 1) * pageSize
	if int64(offset) < total {
		err := query.Session(&gorm.Session{Context: ctx}).
			Offset(offset).
			Limit(pageSize).
			Find(&items).Error
		if err != nil {
			return nil, fmt.Errorf("select page: %w", err)
		}
	}

	return NewPage(items, pageIndex, pageSize, total), nil
}
