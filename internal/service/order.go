package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
)

// TopSellingCount задаёт число позиций в рейтинге продаж аналитики.
const TopSellingCount = 5

// OrderItem описывает запрошенную позицию заказа.
type OrderItem struct {
	OrchidID int64
	Quantity int
}

// TopSellingOrchid описывает позицию рейтинга продаж.
type TopSellingOrchid struct {
	OrchidID          int64           `json:"orchidId"`
	OrchidName        string          `json:"orchidName"`
	CategoryName      string          `json:"categoryName"`
	TotalQuantitySold int64           `json:"totalQuantitySold"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
}

// StatusCount содержит число заказов в статусе.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// Analytics содержит сводку по заказам за период.
type Analytics struct {
	StartDate         time.Time                  `json:"startDate"`
	EndDate           time.Time                  `json:"endDate"`
	TotalOrders       int                        `json:"totalOrders"`
	TotalRevenue      decimal.Decimal            `json:"totalRevenue"`
	AverageOrderValue decimal.Decimal            `json:"averageOrderValue"`
	OrdersByStatus    map[string]int             `json:"ordersByStatus"`
	RevenueByCategory map[string]decimal.Decimal `json:"revenueByCategory"`
	DailyRevenue      map[string]decimal.Decimal `json:"dailyRevenue"`
	TopSellingOrchids []TopSellingOrchid         `json:"topSellingOrchids"`
}

// OrderService оформляет заказы и считает аналитику продаж.
type OrderService struct {
	uow UnitOfWorkFactory
	now func() time.Time
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(uow UnitOfWorkFactory) *OrderService {
	return &OrderService{uow: uow, now: time.Now}
}

func (s *OrderService) orders(ctx context.Context, uow *repository.UnitOfWork) *gorm.DB {
	return repository.For[model.Order](uow).Entities(ctx).
		Preload("Account").
		Preload("Details.Orchid")
}

// CreateOrder оформляет заказ в статусе Pending. Цены позиций фиксируются
// на момент оформления, заказ и его позиции сохраняются в одной транзакции.
func (s *OrderService) CreateOrder(ctx context.Context, accountID int64, items []OrderItem) (*model.Order, error) {
	if len(items) == 0 {
		return nil, errorf(ErrValidation, "Order must contain at least one item")
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, errorf(ErrValidation, "Quantity must be at least 1")
		}
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var order *model.Order
	err := uow.InTransaction(ctx, func() error {
		orchids := repository.For[model.Orchid](uow)

		details := make([]model.OrderDetail, 0, len(items))
		total := decimal.Zero
		for _, it := range items {
			o, err := orchids.GetByID(ctx, it.OrchidID)
			if err != nil {
				return err
			}
			if o == nil {
				return errorf(ErrNotFound, "Orchid with ID %d not found", it.OrchidID)
			}

			id := o.ID
			d := model.OrderDetail{OrchidID: &id, Quantity: it.Quantity, Price: o.Price}
			details = append(details, d)
			total = total.Add(d.Subtotal())
		}

		order = &model.Order{
			AccountID:   accountID,
			OrderDate:   today(s.now),
			Status:      model.OrderStatusPending,
			TotalAmount: total,
			Details:     details,
		}
		repository.For[model.Order](uow).Insert(order)
		return uow.Save(ctx)
	})
	if err != nil {
		return nil, err
	}

	return s.loadOrder(ctx, uow, order.ID)
}

func (s *OrderService) loadOrder(ctx context.Context, uow *repository.UnitOfWork, id int64) (*model.Order, error) {
	var o model.Order
	err := s.orders(ctx, uow).Take(&o, id).Error
	if isNotFound(err) {
		return nil, errorf(ErrNotFound, "Order with ID %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// GetOrder возвращает заказ с покупателем и позициями.
func (s *OrderService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	return s.loadOrder(ctx, uow, id)
}

// ListOrders возвращает все заказы, новые первыми.
func (s *OrderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	return repository.For[model.Order](uow).List(newestFirst(s.orders(ctx, uow)))
}

// ListOrdersPage возвращает страницу заказов, новые первыми.
func (s *OrderService) ListOrdersPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Order], error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	return repository.For[model.Order](uow).GetPage(ctx, newestFirst(s.orders(ctx, uow)), pageNumber, pageSize)
}

// OrdersByAccount возвращает заказы пользователя, новые первыми.
func (s *OrderService) OrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := newestFirst(s.orders(ctx, uow).Where("account_id = ?", accountID))
	return repository.For[model.Order](uow).List(q)
}

// OrdersByStatus возвращает заказы в статусе status.
func (s *OrderService) OrdersByStatus(ctx context.Context, status string) ([]model.Order, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := newestFirst(s.orders(ctx, uow).Where("status = ?", strings.TrimSpace(status)))
	return repository.For[model.Order](uow).List(q)
}

// OrdersByDateRange возвращает заказы, оформленные в дни [start, end].
func (s *OrderService) OrdersByDateRange(ctx context.Context, start, end time.Time) ([]model.Order, error) {
	from, to, err := dayRange(start, end)
	if err != nil {
		return nil, err
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	q := newestFirst(s.orders(ctx, uow).Where("order_date >= ? AND order_date <= ?", from, to))
	return repository.For[model.Order](uow).List(q)
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("order_date DESC").Order("id DESC")
}

func dayRange(start, end time.Time) (time.Time, time.Time, error) {
	from, to := dayOf(start), dayOf(end)
	if from.After(to) {
		return time.Time{}, time.Time{}, errorf(ErrValidation, "Start date cannot be after end date")
	}
	return from, to, nil
}

// UpdateOrderStatus устанавливает статус заказа. Статус отменённого заказа не меняется.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, errorf(ErrValidation, "Status is required")
	}

	return s.transition(ctx, id, func(o *model.Order) error {
		if o.Status == model.OrderStatusCancelled {
			return errorf(ErrConflict, "Cannot update status of a cancelled order")
		}
		o.Status = status
		return nil
	})
}

// CancelOrder отменяет заказ в статусе Pending.
func (s *OrderService) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.transition(ctx, id, func(o *model.Order) error {
		if o.Status != model.OrderStatusPending {
			return errorf(ErrConflict, "Only pending orders can be cancelled")
		}
		o.Status = model.OrderStatusCancelled
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, id int64, apply func(o *model.Order) error) (*model.Order, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()
	orders := repository.For[model.Order](uow)

	err := uow.InTransaction(ctx, func() error {
		o, err := orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return errorf(ErrNotFound, "Order with ID %d not found", id)
		}
		if err := apply(o); err != nil {
			return err
		}
		orders.Update(o)
		return uow.Save(ctx)
	})
	if err != nil {
		return nil, err
	}

	return s.loadOrder(ctx, uow, id)
}

// GetAnalytics считает сводку по заказам, оформленным в дни [start, end].
func (s *OrderService) GetAnalytics(ctx context.Context, start, end time.Time) (*Analytics, error) {
	from, to, err := dayRange(start, end)
	if err != nil {
		return nil, err
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	orders := repository.For[model.Order](uow)
	q := orders.Entities(ctx).
		Preload("Details.Orchid.Category").
		Where("order_date >= ? AND order_date <= ?", from, to).
		Order("order_date").
		Order("id")
	list, err := orders.List(q)
	if err != nil {
		return nil, err
	}

	a := summarizeOrders(list, TopSellingCount)
	a.StartDate, a.EndDate = from, to
	return a, nil
}

// summarizeOrders сводит заказы в аналитику. Позиции удалённых орхидей
// учитываются в выручке категории Uncategorized, но не в рейтинге.
func summarizeOrders(orders []model.Order, top int) *Analytics {
	a := &Analytics{
		TotalOrders:       len(orders),
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		OrdersByStatus:    make(map[string]int),
		RevenueByCategory: make(map[string]decimal.Decimal),
		DailyRevenue:      make(map[string]decimal.Decimal),
		TopSellingOrchids: []TopSellingOrchid{},
	}

	sellers := make(map[int64]*TopSellingOrchid)
	for _, o := range orders {
		a.TotalRevenue = a.TotalRevenue.Add(o.TotalAmount)
		a.OrdersByStatus[o.Status]++

		day := o.OrderDate.UTC().Format(time.DateOnly)
		a.DailyRevenue[day] = a.DailyRevenue[day].Add(o.TotalAmount)

		for _, d := range o.Details {
			subtotal := d.Subtotal()

			category := UncategorizedName
			if d.Orchid != nil && d.Orchid.Category != nil {
				category = d.Orchid.Category.Name
			}
			a.RevenueByCategory[category] = a.RevenueByCategory[category].Add(subtotal)

			if d.Orchid == nil {
				continue
			}
			seller, ok := sellers[d.Orchid.ID]
			if !ok {
				seller = &TopSellingOrchid{
					OrchidID:     d.Orchid.ID,
					OrchidName:   d.Orchid.Name,
					CategoryName: category,
					TotalRevenue: decimal.Zero,
				}
				sellers[d.Orchid.ID] = seller
			}
			seller.TotalQuantitySold += int64(d.Quantity)
			seller.TotalRevenue = seller.TotalRevenue.Add(subtotal)
		}
	}

	if len(orders) > 0 {
		a.AverageOrderValue = a.TotalRevenue.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
	}

	for _, seller := range sellers {
		a.TopSellingOrchids = append(a.TopSellingOrchids, *seller)
	}
	sortSellers(a.TopSellingOrchids)
	if len(a.TopSellingOrchids) > top {
		a.TopSellingOrchids = a.TopSellingOrchids[:top]
	}

	return a
}

func sortSellers(sellers []TopSellingOrchid) {
	slices.SortFunc(sellers, func(a, b TopSellingOrchid) int {
		if c := b.TotalRevenue.Cmp(a.TotalRevenue); c != 0 {
			return c
		}
		return cmp.Compare(a.OrchidID, b.OrchidID)
	})
}

// TopSellingOrchids возвращает count самых продаваемых орхидей по выручке за всё время.
func (s *OrderService) TopSellingOrchids(ctx context.Context, count int) ([]TopSellingOrchid, error) {
	if count < 1 {
		return nil, errorf(ErrValidation, "Count must be at least 1")
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	rows := make([]TopSellingOrchid, 0, count)
	err := repository.For[model.OrderDetail](uow).Entities(ctx).
		Select(`orchids.id AS orchid_id, orchids.name AS orchid_name,
			COALESCE(categories.name, ?) AS category_name,
			SUM(order_details.quantity) AS total_quantity_sold,
			SUM(order_details.price * order_details.quantity) AS total_revenue`, UncategorizedName).
		Joins("JOIN orchids ON orchids.id = order_details.orchid_id").
		Joins(joinCategories).
		Group("orchids.id, orchids.name, categories.name").
		Order("total_revenue DESC").
		Order("orchids.id").
		Limit(count).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("top selling orchids: %w", err)
	}
	return rows, nil
}

// RevenueByPeriod возвращает суммарную выручку заказов за дни [start, end].
func (s *OrderService) RevenueByPeriod(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	from, to, err := dayRange(start, end)
	if err != nil {
		return decimal.Zero, err
	}

	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	var total decimal.Decimal
	row := repository.For[model.Order](uow).Entities(ctx).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("order_date >= ? AND order_date <= ?", from, to).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum revenue: %w", err)
	}
	return total, nil
}

// StatusDistribution возвращает число заказов по статусам.
func (s *OrderService) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	uow := s.uow.NewUnitOfWork()
	defer uow.Close()

	counts := make([]StatusCount, 0)
	err := repository.For[model.Order](uow).Entities(ctx).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("status distribution: %w", err)
	}
	return counts, nil
}
