package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
)

// CategoryService управляет категориями орхидей.
type CategoryService struct {
	uow UnitOfWorkFactory
}

// NewCategoryService создаёт сервис категорий.
func NewCategoryService(uow UnitOfWorkFactory) *CategoryService {
	return &CategoryService{uow: uow}
}

// ListCategories возвращает все категории вместе с орхидеями.
func (s *CategoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	categories := repository.For[model.Category](uow)
	return categories.List(categories.Entities(ctx).Preload("Orchids").Order("name"))
}

// GetCategory возвращает категорию вместе с орхидеями.
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var c model.Category
	err := repository.For[model.Category](uow).Entities(ctx).Preload("Orchids").Take(&c, id).Error
	if isNotFound(err) {
		return nil, errorf(ErrNotFound, "Category with ID %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// ListCategoriesPage возвращает страницу категорий, упорядоченных по имени.
func (s *CategoryService) ListCategoriesPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Category], error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	categories := repository.For[model.Category](uow)
	return categories.GetPage(ctx, categories.Entities(ctx).Order("name").Order("id"), pageNumber, pageSize)
}

// CreateCategory создаёт категорию с уникальным именем.
func (s *CategoryService) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorf(ErrValidation, "Category name is required")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	categories := repository.For[model.Category](uow)

	taken, err := categories.Exists(ctx, "name = ?", name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errorf(ErrConflict, "Category with name '%s' already exists", name)
	}

	c := &model.Category{Name: name}
	categories.Insert(c)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errorf(ErrConflict, "Category with name '%s' already exists", name)
		}
		return nil, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// UpdateCategory переименовывает категорию.
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errorf(ErrValidation, "Category name is required")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	categories := repository.For[model.Category](uow)

	c, err := categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errorf(ErrNotFound, "Category with ID %d not found", id)
	}

	taken, err := categories.Exists(ctx, "name = ? AND id <> ?", name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errorf(ErrConflict, "Category with name '%s' already exists", name)
	}

	c.Name = name
	categories.Update(c)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errorf(ErrConflict, "Category with name '%s' already exists", name)
		}
		return nil, fmt.Errorf("save category: %w", err)
	}
	return c, nil
}

// DeleteCategory удаляет категорию, если на неё не ссылается ни одна орхидея.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	categories := repository.For[model.Category](uow)

	c, err := categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return errorf(ErrNotFound, "Category with ID %d not found", id)
	}

	used, err := repository.For[model.Orchid](uow).Exists(ctx, "category_id = ?", id)
	if err != nil {
		return err
	}
	if used {
		return errorf(ErrConflict, "Cannot delete category that has orchids")
	}

	categories.Delete(c)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return errorf(ErrConflict, "Cannot delete category that has orchids")
		}
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
