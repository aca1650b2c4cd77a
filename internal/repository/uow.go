package repository

import (
	"context"
	"fmt"
	"reflect"

	"gorm.io/gorm"
)

type operation func(tx *gorm.DB) error

// UnitOfWork группирует репозитории одного запроса вокруг общего соединения
// и общей транзакции. Изменения, поставленные репозиториями в очередь,
// применяются вызовом Save. Не предназначен для конкурентного использования.
type UnitOfWork struct {
	db      *gorm.DB
	tx      *gorm.DB
	pending []operation
	repos   map[reflect.Type]any
	closed  bool
}

// NewUnitOfWork создаёт единицу работы поверх пула соединений db.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:    db,
		repos: make(map[reflect.Type]any),
	}
}

// For возвращает репозиторий сущности T. Повторные вызовы для одного типа
// возвращают один и тот же экземпляр.
func For[T any](u *UnitOfWork) *Repository[T] {
	key := reflect.TypeFor[T]()
	if r, ok := u.repos[key].(*Repository[T]); ok {
		return r
	}

	r := &Repository[T]{uow: u}
	u.repos[key] = r
	return r
}

// conn возвращает открытую транзакцию, если она есть, иначе пул.
func (u *UnitOfWork) conn(ctx context.Context) (*gorm.DB, error) {
	if u.closed {
		return nil, ErrClosed
	}
	if u.tx != nil {
		return u.tx.WithContext(ctx), nil
	}
	return u.db.WithContext(ctx), nil
}

func (u *UnitOfWork) stage(op operation) {
	u.pending = append(u.pending, op)
}

// Pending возвращает число изменений, ожидающих сохранения.
func (u *UnitOfWork) Pending() int {
	return len(u.pending)
}

// HasTransaction сообщает, открыта ли транзакция.
func (u *UnitOfWork) HasTransaction() bool {
	return u.tx != nil
}

// Save применяет накопленные изменения. Внутри открытой транзакции изменения
// выполняются в ней, иначе в отдельной транзакции. Очередь очищается
// независимо от результата.
func (u *UnitOfWork) Save(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}

	ops := u.pending
	u.pending = nil
	if len(ops) == 0 {
		return nil
	}

	if u.tx != nil {
		return apply(u.tx.WithContext(ctx), ops)
	}

	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return apply(tx, ops)
	})
}

func apply(tx *gorm.DB, ops []operation) error {
	for _, op := range ops {
		if err := op(tx); err != nil {
			return translateError(err)
		}
	}
	return nil
}

// BeginTransaction открывает транзакцию. Вложенные транзакции не поддерживаются.
func (u *UnitOfWork) BeginTransaction(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}
	if u.tx != nil {
		return ErrTxActive
	}

	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin tx: %w", tx.Error)
	}

	u.tx = tx
	return nil
}

// CommitTransaction сохраняет накопленные изменения и фиксирует транзакцию.
// При ошибке сохранения транзакция откатывается.
func (u *UnitOfWork) CommitTransaction(ctx context.Context) error {
	if u.closed {
		return ErrClosed
	}
	if u.tx == nil {
		return ErrNoTx
	}

	if err := u.Save(ctx); err != nil {
		_ = u.RollbackTransaction()
		return err
	}

	tx := u.tx
	u.tx = nil
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit tx: %w", translateError(err))
	}

	return nil
}

// RollbackTransaction откатывает транзакцию и отбрасывает несохранённые изменения.
func (u *UnitOfWork) RollbackTransaction() error {
	if u.tx == nil {
		return ErrNoTx
	}

	tx := u.tx
	u.tx = nil
	u.pending = nil
	if err := tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback tx: %w", err)
	}

	return nil
}

// InTransaction выполняет fn в транзакции. Транзакция фиксируется, если fn
// вернула nil, и откатывается при ошибке или панике.
func (u *UnitOfWork) InTransaction(ctx context.Context, fn func() error) (err error) {
	if err := u.BeginTransaction(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = u.RollbackTransaction()
			panic(p)
		}
		if err != nil && u.tx != nil {
			_ = u.RollbackTransaction()
		}
	}()

	if err = fn(); err != nil {
		return err
	}

	return u.CommitTransaction(ctx)
}

// Close откатывает незавершённую транзакцию и освобождает единицу работы.
// Повторный вызов ничего не делает.
func (u *UnitOfWork) Close() error {
	if u.closed {
		return nil
	}

	u.pending = nil
	var err error
	if u.tx != nil {
		err = u.RollbackTransaction()
	}
	u.closed = true

	return err
}
