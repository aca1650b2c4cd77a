// Package handler содержит HTTP-обработчики API магазина орхидей.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
	"github.com/mmeshcher/orchidshop/internal/response"
	"github.com/mmeshcher/orchidshop/internal/service"
	"github.com/mmeshcher/orchidshop/internal/validation"
)

const maxBodyBytes = 1 << 20

// AccountService определяет операции с учётными записями, используемые обработчиками.
type AccountService interface {
	Register(ctx context.Context, name, email, password string) (*model.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
	IsNameAvailable(ctx context.Context, name string) (bool, error)
	IsEmailAvailable(ctx context.Context, email string) (bool, error)
	ChangePassword(ctx context.Context, accountID int64, current, next string) error
	ResetPassword(ctx context.Context, email, next string) error
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// CategoryService определяет операции с категориями.
type CategoryService interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategoriesPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Category], error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// OrchidService определяет операции с каталогом орхидей.
type OrchidService interface {
	ListOrchids(ctx context.Context) ([]model.Orchid, error)
	GetOrchid(ctx context.Context, id int64) (*model.Orchid, error)
	ListOrchidsPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Orchid], error)
	OrchidsByCategory(ctx context.Context, categoryID int64) ([]model.Orchid, error)
	SearchOrchids(ctx context.Context, term string) ([]model.Orchid, error)
	OrchidsByPriceRange(ctx context.Context, lo, hi decimal.Decimal) ([]model.Orchid, error)
	OrchidsByType(ctx context.Context, isNatural bool) ([]model.Orchid, error)
	FilterOrchids(ctx context.Context, f service.OrchidFilter) (*repository.Page[model.Orchid], error)
	CountByCategory(ctx context.Context) ([]service.CategoryCount, error)
	PriceDistribution(ctx context.Context, n int) ([]service.PriceBucket, error)
	CreateOrchid(ctx context.Context, in service.OrchidInput) (*model.Orchid, error)
	UpdateOrchid(ctx context.Context, id int64, in service.OrchidInput) (*model.Orchid, error)
	DeleteOrchid(ctx context.Context, id int64) error
}

// OrderService определяет операции с заказами.
type OrderService interface {
	CreateOrder(ctx context.Context, accountID int64, items []service.OrderItem) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	ListOrdersPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Order], error)
	OrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error)
	OrdersByStatus(ctx context.Context, status string) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error)
	CancelOrder(ctx context.Context, id int64) (*model.Order, error)
	GetAnalytics(ctx context.Context, start, end time.Time) (*service.Analytics, error)
}

// Services объединяет сервисы, которые обслуживает Handler.
type Services struct {
	Accounts   AccountService
	Categories CategoryService
	Orchids    OrchidService
	Orders     OrderService
}

// Handler реализует HTTP-обработчики API магазина орхидей.
type Handler struct {
	accounts       AccountService
	categories     CategoryService
	orchids        OrchidService
	orders         OrderService
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	metrics        *middleware.Metrics
	now            func() time.Time
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Services, logger *zap.Logger, auth *middleware.AuthMiddleware, metrics *middleware.Metrics) *Handler {
	return &Handler{
		accounts:       s.Accounts,
		categories:     s.Categories,
		orchids:        s.Orchids,
		orders:         s.Orders,
		logger:         logger,
		authMiddleware: auth,
		metrics:        metrics,
		now:            time.Now,
	}
}

// decodeJSON читает тело запроса в dst и проверяет его теги validate.
// Ответ об ошибке уже отправлен, если результат false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := validation.Struct(dst); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			response.ValidationError(w, fields)
			return false
		}
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeError отправляет ответ для ошибки сервиса. Неизвестные ошибки журналируются
// и скрываются за общим сообщением.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string, fields ...zap.Field) {
	msg, _ := service.Message(err)

	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		response.Error(w, http.StatusBadRequest, msg)
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, http.StatusNotFound, msg)
	case errors.Is(err, service.ErrUnauthorized):
		response.Unauthorized(w, msg)
	default:
		h.logger.Error(op+" error", append(fields, zap.Error(err))...)
		response.InternalError(w)
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func pageParams(r *http.Request) (int, int, error) {
	number, err := queryInt(r, "pageNumber", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(r, "pageSize", repository.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return number, size, nil
}

func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &d, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", name)
	}
	return &b, nil
}

func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be a date in YYYY-MM-DD format", name)
}

func badRequest(w http.ResponseWriter, err error) {
	response.Error(w, http.StatusBadRequest, err.Error())
}
