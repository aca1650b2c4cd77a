package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
)

// UncategorizedName подставляется вместо имени отсутствующей категории.
const UncategorizedName = "Uncategorized"

const joinCategories = "LEFT JOIN categories ON categories.id = orchids.category_id"

// OrchidService управляет каталогом орхидей.
type OrchidService struct {
	uow UnitOfWorkFactory
}

// NewOrchidService создаёт сервис каталога.
func NewOrchidService(uow UnitOfWorkFactory) *OrchidService {
	return &OrchidService{uow: uow}
}

// OrchidInput содержит поля создаваемой или изменяемой орхидеи.
type OrchidInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	IsNatural   bool
	URL         string
	CategoryID  int64
}

// OrchidFilter описывает параметры поиска орхидей. Пустые поля не участвуют в фильтрации.
type OrchidFilter struct {
	SearchTerm string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	IsNatural  *bool
	CategoryID *int64
	SortBy     string
	Ascending  bool
	PageNumber int
	PageSize   int
}

// PriceBucket описывает интервал цен и число орхидей в нём.
type PriceBucket struct {
	LowerBound decimal.Decimal `json:"lowerBound"`
	UpperBound decimal.Decimal `json:"upperBound"`
	Count      int             `json:"count"`
}

// CategoryCount содержит число орхидей в категории.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (s *OrchidService) catalog(ctx context.Context, uow *repository.UnitOfWork) *gorm.DB {
	return repository.For[model.Orchid](uow).Entities(ctx).Preload("Category")
}

// ListOrchids возвращает все орхидеи с категориями.
func (s *OrchidService) ListOrchids(ctx context.Context) ([]model.Orchid, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	return repository.For[model.Orchid](uow).List(s.catalog(ctx, uow).Order("name").Order("id"))
}

// GetOrchid возвращает орхидею с категорией.
func (s *OrchidService) GetOrchid(ctx context.Context, id int64) (*model.Orchid, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var o model.Orchid
	err := s.catalog(ctx, uow).Take(&o, id).Error
	if isNotFound(err) {
		return nil, errorf(ErrNotFound, "Orchid with ID %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get orchid: %w", err)
	}
	return &o, nil
}

// ListOrchidsPage возвращает страницу каталога, упорядоченного по имени.
func (s *OrchidService) ListOrchidsPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Orchid], error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	return repository.For[model.Orchid](uow).GetPage(ctx, s.catalog(ctx, uow).Order("name").Order("id"), pageNumber, pageSize)
}

// OrchidsByCategory возвращает орхидеи категории.
func (s *OrchidService) OrchidsByCategory(ctx context.Context, categoryID int64) ([]model.Orchid, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := s.catalog(ctx, uow).Where("category_id = ?", categoryID).Order("name").Order("id")
	return repository.For[model.Orchid](uow).List(q)
}

// SearchOrchids ищет подстроку в имени и описании без учёта регистра.
func (s *OrchidService) SearchOrchids(ctx context.Context, term string) ([]model.Orchid, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := s.catalog(ctx, uow).Order("name").Order("id")
	if term = strings.TrimSpace(term); term != "" {
		pattern := likePattern(term)
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}
	return repository.For[model.Orchid](uow).List(q)
}

// OrchidsByPriceRange возвращает орхидеи с ценой в [lo, hi] по возрастанию цены.
func (s *OrchidService) OrchidsByPriceRange(ctx context.Context, lo, hi decimal.Decimal) ([]model.Orchid, error) {
	if lo.GreaterThan(hi) {
		return nil, errorf(ErrValidation, "Minimum price cannot be greater than maximum price")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := s.catalog(ctx, uow).Where("price >= ? AND price <= ?", lo, hi).Order("price").Order("id")
	return repository.For[model.Orchid](uow).List(q)
}

// OrchidsByType возвращает натуральные или искусственные орхидеи.
func (s *OrchidService) OrchidsByType(ctx context.Context, isNatural bool) ([]model.Orchid, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := s.catalog(ctx, uow).Where("is_natural = ?", isNatural).Order("name").Order("id")
	return repository.For[model.Orchid](uow).List(q)
}

// FilterOrchids применяет все заданные условия фильтра и возвращает страницу результатов.
func (s *OrchidService) FilterOrchids(ctx context.Context, f OrchidFilter) (*repository.Page[model.Orchid], error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, errorf(ErrValidation, "Minimum price cannot be greater than maximum price")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := s.catalog(ctx, uow).Joins(joinCategories)

	if term := strings.TrimSpace(f.SearchTerm); term != "" {
		pattern := likePattern(term)
		q = q.Where("(LOWER(orchids.name) LIKE ? OR LOWER(orchids.description) LIKE ? OR LOWER(categories.name) LIKE ?)",
			pattern, pattern, pattern)
	}
	if f.MinPrice != nil {
		q = q.Where("orchids.price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("orchids.price <= ?", *f.MaxPrice)
	}
	if f.IsNatural != nil {
		q = q.Where("orchids.is_natural = ?", *f.IsNatural)
	}
	if f.CategoryID != nil {
		q = q.Where("orchids.category_id = ?", *f.CategoryID)
	}

	q = sortOrchids(q, f.SortBy, f.Ascending)

	return repository.For[model.Orchid](uow).GetPage(ctx, q, f.PageNumber, f.PageSize)
}

// sortOrchids упорядочивает выборку по ключу sortBy. Неизвестный ключ
// сортирует по имени по возрастанию независимо от ascending.
func sortOrchids(q *gorm.DB, sortBy string, ascending bool) *gorm.DB {
	desc := !ascending
	byName := orderBy("orchids", "name", false)

	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "name":
		q = q.Order(orderBy("orchids", "name", desc))
	case "price":
		q = q.Order(orderBy("orchids", "price", desc)).Order(byName)
	case "category":
		q = q.Order(orderBy("categories", "name", desc)).Order(byName)
	case "natural":
		q = q.Order(orderBy("orchids", "is_natural", desc)).Order(byName)
	default:
		q = q.Order(byName)
	}
	return q.Order(orderBy("orchids", "id", false))
}

func orderBy(table, column string, desc bool) clause.OrderByColumn {
	return clause.OrderByColumn{
		Column: clause.Column{Table: table, Name: column},
		Desc:   desc,
	}
}

func likePattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}

// CountByCategory возвращает число орхидей по именам категорий.
func (s *OrchidService) CountByCategory(ctx context.Context) ([]CategoryCount, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	counts := make([]CategoryCount, 0)
	err := repository.For[model.Orchid](uow).Entities(ctx).
		Joins(joinCategories).
		Select("COALESCE(categories.name, ?) AS name, COUNT(*) AS count", UncategorizedName).
		Group("categories.name").
		Order("name").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	return counts, nil
}

// PriceDistribution делит диапазон цен каталога на n равных интервалов и
// считает орхидеи в каждом.
func (s *OrchidService) PriceDistribution(ctx context.Context, n int) ([]PriceBucket, error) {
	if n < 1 {
		return nil, errorf(ErrValidation, "Number of ranges must be at least 1")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var prices []decimal.Decimal
	if err := repository.For[model.Orchid](uow).Entities(ctx).Pluck("price", &prices).Error; err != nil {
		return nil, fmt.Errorf("select prices: %w", err)
	}

	return buildPriceDistribution(prices, n), nil
}

// buildPriceDistribution раскладывает цены по n интервалам [lo, hi),
// последний интервал включает максимум.
func buildPriceDistribution(prices []decimal.Decimal, n int) []PriceBucket {
	if len(prices) == 0 || n < 1 {
		return []PriceBucket{}
	}

	lowest, highest := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p.LessThan(lowest) {
			lowest = p
		}
		if p.GreaterThan(highest) {
			highest = p
		}
	}

	width := highest.Sub(lowest).Div(decimal.NewFromInt(int64(n)))
	buckets := make([]PriceBucket, n)
	for i := range buckets {
		lo := lowest.Add(width.Mul(decimal.NewFromInt(int64(i))))
		hi := lo.Add(width)
		if i == n-1 {
			hi = highest
		}
		buckets[i] = PriceBucket{LowerBound: lo, UpperBound: hi}
	}

	for _, p := range prices {
		idx := 0
		if !width.IsZero() {
			for i := n - 1; i > 0; i-- {
				if p.GreaterThanOrEqual(buckets[i].LowerBound) {
					idx = i
					break
				}
			}
		}
		buckets[idx].Count++
	}

	return buckets
}

// CreateOrchid добавляет орхидею в существующую категорию.
func (s *OrchidService) CreateOrchid(ctx context.Context, in OrchidInput) (*model.Orchid, error) {
	if err := validateOrchid(in); err != nil {
		return nil, err
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	if err := s.requireCategory(ctx, uow, in.CategoryID); err != nil {
		return nil, err
	}

	o := &model.Orchid{}
	applyOrchid(o, in)
	repository.For[model.Orchid](uow).Insert(o)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, errorf(ErrConflict, "Category with ID %d does not exist", in.CategoryID)
		}
		return nil, fmt.Errorf("save orchid: %w", err)
	}
	return o, nil
}

// UpdateOrchid изменяет орхидею.
func (s *OrchidService) UpdateOrchid(ctx context.Context, id int64, in OrchidInput) (*model.Orchid, error) {
	if err := validateOrchid(in); err != nil {
		return nil, err
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	orchids := repository.For[model.Orchid](uow)

	o, err := orchids.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, errorf(ErrNotFound, "Orchid with ID %d not found", id)
	}

	if err := s.requireCategory(ctx, uow, in.CategoryID); err != nil {
		return nil, err
	}

	applyOrchid(o, in)
	orchids.Update(o)
	if err := uow.Save(ctx); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, errorf(ErrConflict, "Category with ID %d does not exist", in.CategoryID)
		}
		return nil, fmt.Errorf("save orchid: %w", err)
	}
	return o, nil
}

// DeleteOrchid удаляет орхидею. Строки существующих заказов сохраняются
// без ссылки на удалённую орхидею.
func (s *OrchidService) DeleteOrchid(ctx context.Context, id int64) error {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	orchids := repository.For[model.Orchid](uow)

	o, err := orchids.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return errorf(ErrNotFound, "Orchid with ID %d not found", id)
	}

	orchids.Delete(o)
	if err := uow.Save(ctx); err != nil {
		return fmt.Errorf("delete orchid: %w", err)
	}
	return nil
}

func (s *OrchidService) requireCategory(ctx context.Context, uow *repository.UnitOfWork, id int64) error {
	c, err := repository.For[model.Category](uow).GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return errorf(ErrConflict, "Category with ID %d does not exist", id)
	}
	return nil
}

func validateOrchid(in OrchidInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return errorf(ErrValidation, "Orchid name is required")
	}
	if in.Price.IsNegative() {
		return errorf(ErrValidation, "Price must be non-negative")
	}
	return nil
}

func applyOrchid(o *model.Orchid, in OrchidInput) {
	o.Name = strings.TrimSpace(in.Name)
	o.Description = in.Description
	o.Price = in.Price
	o.IsNatural = in.IsNatural
	o.URL = in.URL
	o.CategoryID = in.CategoryID
}
