package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/orchidshop/internal/model"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := OpenSQLite(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func seedCategory(t *testing.T, db *Database, name string) *model.Category {
	t.Helper()

	uow := db.NewUnitOfWork()
	defer uow.Close()

	c := &model.Category{Name: name}
	For[model.Category](uow).Insert(c)
	require.NoError(t, uow.Save(context.Background()))
	return c
}

func TestForReturnsSameRepository(t *testing.T) {
	db := newTestDatabase(t)
	uow := db.NewUnitOfWork()
	defer uow.Close()

	a := For[model.Category](uow)
	b := For[model.Category](uow)
	c := For[model.Orchid](uow)

	assert.Same(t, a, b)
	assert.NotSame(t, any(a), any(c))
}

func TestRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	uow := db.NewUnitOfWork()
	defer uow.Close()
	categories := For[model.Category](uow)

	c := &model.Category{Name: "Phalaenopsis"}
	categories.Insert(c)
	assert.Equal(t, 1, uow.Pending())

	got, err := categories.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "staged insert must not be visible before Save")

	require.NoError(t, uow.Save(ctx))
	assert.Equal(t, 0, uow.Pending())
	require.NotZero(t, c.ID)

	got, err = categories.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Phalaenopsis", got.Name)

	exists, err := categories.Exists(ctx, "name = ?", "Phalaenopsis")
	require.NoError(t, err)
	assert.True(t, exists)

	got.Name = "Cattleya"
	categories.Update(got)
	require.NoError(t, uow.Save(ctx))

	found, err := categories.Find(ctx, "name = ?", "Cattleya")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, c.ID, found.ID)

	categories.DeleteByID(c.ID)
	require.NoError(t, uow.Save(ctx))

	got, err = categories.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertRangeAndAll(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	uow := db.NewUnitOfWork()
	defer uow.Close()
	categories := For[model.Category](uow)

	categories.InsertRange([]*model.Category{{Name: "A"}, {Name: "B"}, {Name: "C"}})
	require.NoError(t, uow.Save(ctx))

	all, err := categories.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveTranslatesDuplicate(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	seedCategory(t, db, "Vanda")

	uow := db.NewUnitOfWork()
	defer uow.Close()

	For[model.Category](uow).Insert(&model.Category{Name: "Vanda"})
	err := uow.Save(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate), "got %v", err)
	assert.Equal(t, 0, uow.Pending(), "failed flush must drop pending changes")
}

func TestSaveTranslatesForeignKey(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	uow := db.NewUnitOfWork()
	defer uow.Close()

	For[model.Orchid](uow).Insert(&model.Orchid{Name: "Orphan", Price: decimal.NewFromInt(1), CategoryID: 999})
	err := uow.Save(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReferenced)
}

func TestSaveIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	seedCategory(t, db, "Dup")

	uow := db.NewUnitOfWork()
	defer uow.Close()
	categories := For[model.Category](uow)

	categories.Insert(&model.Category{Name: "Fresh"})
	categories.Insert(&model.Category{Name: "Dup"})
	require.ErrorIs(t, uow.Save(ctx), ErrDuplicate)

	exists, err := categories.Exists(ctx, "name = ?", "Fresh")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetPage(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)

	uow := db.NewUnitOfWork()
	defer uow.Close()
	categories := For[model.Category](uow)

	batch := make([]*model.Category, 0, 25)
	for i := 1; i <= 25; i++ {
		batch = append(batch, &model.Category{Name: fmt.Sprintf("Category %02d", i)})
	}
	categories.InsertRange(batch)
	require.NoError(t, uow.Save(ctx))

	tests := []struct {
		name      string
		index     int
		size      int
		wantIndex int
		wantSize  int
		wantItems int
		wantFirst string
		wantPrev  bool
		wantNext  bool
	}{
		{name: "second page", index: 2, size: 10, wantIndex: 2, wantSize: 10, wantItems: 10, wantFirst: "Category 11", wantPrev: true, wantNext: true},
		{name: "last partial page", index: 3, size: 10, wantIndex: 3, wantSize: 10, wantItems: 5, wantFirst: "Category 21", wantPrev: true},
		{name: "beyond range", index: 7, size: 10, wantIndex: 7, wantSize: 10, wantItems: 0, wantPrev: true},
		{name: "index below one", index: 0, size: 10, wantIndex: 1, wantSize: 10, wantItems: 10, wantFirst: "Category 01", wantNext: true},
		{name: "size below one", index: 1, size: 0, wantIndex: 1, wantSize: DefaultPageSize, wantItems: 10, wantFirst: "Category 01", wantNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := categories.GetPage(ctx, categories.Entities(ctx).Order("name"), tt.index, tt.size)
			require.NoError(t, err)

			assert.Equal(t, tt.wantIndex, page.PageIndex)
			assert.Equal(t, tt.wantSize, page.PageSize)
			assert.Equal(t, int64(25), page.TotalCount)
			assert.Equal(t, 3, page.TotalPages)
			assert.Len(t, page.Items, tt.wantItems)
			assert.Equal(t, tt.wantPrev, page.HasPreviousPage)
			assert.Equal(t, tt.wantNext, page.HasNextPage)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Items[0].Name)
			}
		})
	}
}

func TestGetPageWithPreload(t *testing.T) {
	ctx := context.Background()
	db := newTestDatabase(t)
	c := seedCategory(t, db, "Dendrobium")

	uow := db.NewUnitOfWork()
	defer uow.Close()
	orchids := For[model.Orchid](uow)
	for i := 0; i < 3; i++ {
		orchids.Insert(&model.Orchid{Name: fmt.Sprintf("D%d", i), Price: decimal.NewFromInt(int64(i + 1)), CategoryID: c.ID})
	}
	require.NoError(t, uow.Save(ctx))

	page, err := orchids.GetPage(ctx, orchids.Entities(ctx).Preload("Category").Order("name"), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[0].Category)
	assert.Equal(t, "Dendrobium", page.Items[0].Category.Name)
}
