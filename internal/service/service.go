// Package service реализует бизнес-логику магазина орхидей.
package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mmeshcher/orchidshop/internal/auth"
	"github.com/mmeshcher/orchidshop/internal/repository"
)

// UnitOfWorkFactory выдаёт единицу работы на время одной операции.
type UnitOfWorkFactory interface {
	NewUnitOfWork() *repository.UnitOfWork
}

// TokenIssuer выпускает токены доступа.
type TokenIssuer interface {
	Issue(subject auth.Subject) (string, error)
}

// TokenRevoker отзывает токены доступа до истечения их срока.
type TokenRevoker interface {
	Revoke(ctx context.Context, id string, until time.Time) error
}

// Service объединяет сервисы предметной области.
type Service struct {
	Accounts   *AccountService
	Categories *CategoryService
	Orchids    *OrchidService
	Orders     *OrderService
}

// NewService создаёт сервисы поверх общей фабрики единиц работы.
func NewService(uow UnitOfWorkFactory, tokens TokenIssuer, revoker TokenRevoker) *Service {
	return &Service{
		Accounts:   NewAccountService(uow, tokens, revoker),
		Categories: NewCategoryService(uow),
		Orchids:    NewOrchidService(uow),
		Orders:     NewOrderService(uow),
	}
}

// today возвращает начало текущих суток в UTC.
func today(now func() time.Time) time.Time {
	return dayOf(now())
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
