package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/auth"
	"github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
	"github.com/mmeshcher/orchidshop/internal/service"
)

type stubAccounts struct {
	registerName string
	registerErr  error

	loginToken string
	loginErr   error

	changeAccountID int64
	changeErr       error

	resetErr error

	logoutID    string
	logoutUntil time.Time
}

func (s *stubAccounts) Register(ctx context.Context, name, email, password string) (*model.Account, error) {
	s.registerName = name
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &model.Account{ID: 1, Name: name, Email: email, PasswordHash: "hash"}, nil
}

func (s *stubAccounts) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginToken, s.loginErr
}

func (s *stubAccounts) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	return &model.Account{ID: id, Name: "alice"}, nil
}

func (s *stubAccounts) IsNameAvailable(ctx context.Context, name string) (bool, error) {
	return name != "taken", nil
}

func (s *stubAccounts) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	return true, nil
}

func (s *stubAccounts) ChangePassword(ctx context.Context, accountID int64, current, next string) error {
	s.changeAccountID = accountID
	return s.changeErr
}

func (s *stubAccounts) ResetPassword(ctx context.Context, email, next string) error {
	return s.resetErr
}

func (s *stubAccounts) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	s.logoutID, s.logoutUntil = tokenID, expiresAt
	return nil
}

type stubCategories struct {
	categories []model.Category
	err        error
	createName string
}

func (s *stubCategories) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categories, s.err
}

func (s *stubCategories) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Category{ID: id, Name: "Phalaenopsis"}, nil
}

func (s *stubCategories) ListCategoriesPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Category], error) {
	return repository.NewPage(s.categories, pageNumber, pageSize, int64(len(s.categories))), s.err
}

func (s *stubCategories) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	s.createName = name
	if s.err != nil {
		return nil, s.err
	}
	return &model.Category{ID: 9, Name: name}, nil
}

func (s *stubCategories) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Category{ID: id, Name: name}, nil
}

func (s *stubCategories) DeleteCategory(ctx context.Context, id int64) error {
	return s.err
}

type stubOrchids struct {
	filter       service.OrchidFilter
	distribution int
	created      service.OrchidInput
	err          error
}

func (s *stubOrchids) ListOrchids(ctx context.Context) ([]model.Orchid, error) {
	return []model.Orchid{{ID: 1, Name: "Cattleya"}}, s.err
}

func (s *stubOrchids) GetOrchid(ctx context.Context, id int64) (*model.Orchid, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Orchid{ID: id, Name: "Cattleya"}, nil
}

func (s *stubOrchids) ListOrchidsPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Orchid], error) {
	return repository.NewPage([]model.Orchid{}, pageNumber, pageSize, 0), s.err
}

func (s *stubOrchids) OrchidsByCategory(ctx context.Context, categoryID int64) ([]model.Orchid, error) {
	return nil, s.err
}

func (s *stubOrchids) SearchOrchids(ctx context.Context, term string) ([]model.Orchid, error) {
	return nil, s.err
}

func (s *stubOrchids) OrchidsByPriceRange(ctx context.Context, lo, hi decimal.Decimal) ([]model.Orchid, error) {
	return nil, s.err
}

func (s *stubOrchids) OrchidsByType(ctx context.Context, isNatural bool) ([]model.Orchid, error) {
	return nil, s.err
}

func (s *stubOrchids) FilterOrchids(ctx context.Context, f service.OrchidFilter) (*repository.Page[model.Orchid], error) {
	s.filter = f
	return repository.NewPage([]model.Orchid{}, f.PageNumber, f.PageSize, 0), s.err
}

func (s *stubOrchids) CountByCategory(ctx context.Context) ([]service.CategoryCount, error) {
	return []service.CategoryCount{{Name: "Phalaenopsis", Count: 2}}, s.err
}

func (s *stubOrchids) PriceDistribution(ctx context.Context, n int) ([]service.PriceBucket, error) {
	s.distribution = n
	return nil, s.err
}

func (s *stubOrchids) CreateOrchid(ctx context.Context, in service.OrchidInput) (*model.Orchid, error) {
	s.created = in
	if s.err != nil {
		return nil, s.err
	}
	return &model.Orchid{ID: 3, Name: in.Name, Price: in.Price, CategoryID: in.CategoryID}, nil
}

func (s *stubOrchids) UpdateOrchid(ctx context.Context, id int64, in service.OrchidInput) (*model.Orchid, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Orchid{ID: id, Name: in.Name}, nil
}

func (s *stubOrchids) DeleteOrchid(ctx context.Context, id int64) error {
	return s.err
}

type stubOrders struct {
	createAccountID int64
	createItems     []service.OrderItem
	accountID       int64
	start, end      time.Time
	err             error
}

func (s *stubOrders) CreateOrder(ctx context.Context, accountID int64, items []service.OrderItem) (*model.Order, error) {
	s.createAccountID, s.createItems = accountID, items
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{ID: 5, AccountID: accountID, Status: model.OrderStatusPending}, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{ID: id}, nil
}

func (s *stubOrders) ListOrders(ctx context.Context) ([]model.Order, error) {
	return nil, s.err
}

func (s *stubOrders) ListOrdersPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Order], error) {
	return repository.NewPage([]model.Order{}, pageNumber, pageSize, 0), s.err
}

func (s *stubOrders) OrdersByAccount(ctx context.Context, accountID int64) ([]model.Order, error) {
	s.accountID = accountID
	return []model.Order{}, s.err
}

func (s *stubOrders) OrdersByStatus(ctx context.Context, status string) ([]model.Order, error) {
	return nil, s.err
}

func (s *stubOrders) UpdateOrderStatus(ctx context.Context, id int64, status string) (*model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{ID: id, Status: status}, nil
}

func (s *stubOrders) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Order{ID: id, Status: model.OrderStatusCancelled}, nil
}

func (s *stubOrders) GetAnalytics(ctx context.Context, start, end time.Time) (*service.Analytics, error) {
	s.start, s.end = start, end
	if s.err != nil {
		return nil, s.err
	}
	return &service.Analytics{StartDate: start, EndDate: end}, nil
}

type testServer struct {
	handler    *Handler
	router     http.Handler
	tokens     *auth.Tokens
	accounts   *stubAccounts
	categories *stubCategories
	orchids    *stubOrchids
	orders     *stubOrders
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		tokens:     auth.NewTokens("test-secret", "orchidshop", "orchidshop-clients", time.Hour),
		accounts:   &stubAccounts{},
		categories: &stubCategories{},
		orchids:    &stubOrchids{},
		orders:     &stubOrders{},
	}

	authMiddleware := middleware.NewAuthMiddleware(ts.tokens, auth.NewMemoryRevoker(), zap.NewNop())
	ts.handler = NewHandler(Services{
		Accounts:   ts.accounts,
		Categories: ts.categories,
		Orchids:    ts.orchids,
		Orders:     ts.orders,
	}, zap.NewNop(), authMiddleware, middleware.NewMetrics())
	ts.router = ts.handler.SetupRouter()
	return ts
}

func (ts *testServer) token(t *testing.T, accountID int64) string {
	t.Helper()
	token, err := ts.tokens.Issue(auth.Subject{AccountID: accountID, Name: "alice", Email: "alice@example.com", Role: model.RoleUser})
	require.NoError(t, err)
	return token
}

type envelope struct {
	Data           json.RawMessage   `json:"data"`
	Message        string            `json:"message"`
	StatusCode     int               `json:"statusCode"`
	Code           string            `json:"code"`
	AdditionalData map[string]string `json:"additionalData"`
}

func (ts *testServer) do(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		err      error
		wantCode int
		wantEnv  string
	}{
		{name: "success", token: "jwt", wantCode: http.StatusOK, wantEnv: "SUCCESS"},
		{name: "bad credentials", err: service.NewError(service.ErrUnauthorized, "Invalid email or password"), wantCode: http.StatusBadRequest, wantEnv: "UNAUTHORIZED"},
		{name: "store failure", err: errors.New("db down"), wantCode: http.StatusInternalServerError, wantEnv: "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.accounts.loginToken = tt.token
			ts.accounts.loginErr = tt.err

			rec, env := ts.do(t, http.MethodPost, "/api/account/login",
				map[string]string{"email": "alice@example.com", "password": "secret1"}, "")

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantEnv, env.Code)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"token":"jwt"}`, string(env.Data))
			}
			if tt.wantCode == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "db down")
			}
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/account/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "secret1",
		"confirmPassword": "secret2",
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must match password", env.AdditionalData["confirmPassword"])
	assert.Empty(t, ts.accounts.registerName)
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	ts := newTestServer(t)
	long := strings.Repeat("a", 80)

	rec, env := ts.do(t, http.MethodPost, "/api/account/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        long,
		"confirmPassword": long,
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", env.Code)
	assert.Equal(t, "must be at most 72 characters", env.AdditionalData["password"])
	assert.Empty(t, ts.accounts.registerName)
}

func TestPasswordLengthErrorFromServiceIsBadRequest(t *testing.T) {
	ts := newTestServer(t)
	ts.accounts.registerErr = service.NewError(service.ErrValidation, "Password must be at most 72 bytes")
	wide := strings.Repeat("ж", 40)

	rec, env := ts.do(t, http.MethodPost, "/api/account/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        wide,
		"confirmPassword": wide,
	}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Password must be at most 72 bytes", env.Message)
}

func TestRegister(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/api/account/register", map[string]string{
		"username":        "alice",
		"email":           "alice@example.com",
		"password":        "secret1",
		"confirmPassword": "secret1",
	}, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", ts.accounts.registerName)
	assert.NotContains(t, string(env.Data), "hash")
}

func TestRejectsUnknownFields(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/api/account/login",
		map[string]string{"email": "alice@example.com", "password": "x", "role": "Admin"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangePasswordUsesTokenSubject(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{
		"currentPassword":    "secret1",
		"newPassword":        "secret2",
		"confirmNewPassword": "secret2",
	}

	rec, _ := ts.do(t, http.MethodPost, "/api/account/change-password", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/account/change-password", body, ts.token(t, 7))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), ts.accounts.changeAccountID)
}

func TestLogoutRevokesToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, 7)

	rec, _ := ts.do(t, http.MethodPost, "/api/account/logout", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	claims, err := ts.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ID, ts.accounts.logoutID)
	assert.True(t, claims.ExpiresAt.Time.Equal(ts.accounts.logoutUntil))
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/account/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := ts.do(t, http.MethodGet, "/api/account/me", nil, ts.token(t, 7))
	require.Equal(t, http.StatusOK, rec.Code)

	var account model.Account
	require.NoError(t, json.Unmarshal(env.Data, &account))
	assert.Equal(t, int64(7), account.ID)
	assert.NotContains(t, string(env.Data), "hash")
}

func TestAvailabilityChecks(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		wantCode int
		wantData string
	}{
		{name: "free username", path: "/api/account/check-username?username=bob", wantCode: http.StatusOK, wantData: `{"available":true}`},
		{name: "taken username", path: "/api/account/check-username?username=taken", wantCode: http.StatusOK, wantData: `{"available":false}`},
		{name: "missing username", path: "/api/account/check-username", wantCode: http.StatusBadRequest},
		{name: "free email", path: "/api/account/check-email?email=bob@example.com", wantCode: http.StatusOK, wantData: `{"available":true}`},
		{name: "missing email", path: "/api/account/check-email", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec, env := ts.do(t, http.MethodGet, tt.path, nil, "")
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantData != "" {
				assert.JSONEq(t, tt.wantData, string(env.Data))
			}
		})
	}
}

func TestCategoryRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, 1)

	rec, _ := ts.do(t, http.MethodPost, "/api/category", map[string]string{"name": "Vanda"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/api/category", map[string]string{"name": "Vanda"}, token)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "SUCCESS", env.Code)
	assert.Equal(t, "Vanda", ts.categories.createName)

	rec, _ = ts.do(t, http.MethodGet, "/api/category/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/api/category/paged?pageNumber=2&pageSize=5", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantEnv  string
		wantMsg  string
	}{
		{name: "not found", err: service.NewError(service.ErrNotFound, "Category not found"), wantCode: http.StatusNotFound, wantEnv: "NOT_FOUND", wantMsg: "Category not found"},
		{name: "conflict", err: service.NewError(service.ErrConflict, "Cannot delete category that has orchids"), wantCode: http.StatusBadRequest, wantEnv: "BAD_REQUEST", wantMsg: "Cannot delete category that has orchids"},
		{name: "internal", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantEnv: "INTERNAL_SERVER_ERROR", wantMsg: "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.categories.err = tt.err

			rec, env := ts.do(t, http.MethodDelete, "/api/category/3", nil, ts.token(t, 1))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantEnv, env.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
		})
	}
}

func TestFilterOrchidsParsesQuery(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet,
		"/api/orchid/filter?searchTerm=vanda&minPrice=5&maxPrice=20.5&isNatural=true&categoryId=2&sortBy=price&ascending=false&pageNumber=2&pageSize=5",
		nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	f := ts.orchids.filter
	assert.Equal(t, "vanda", f.SearchTerm)
	require.NotNil(t, f.MinPrice)
	require.NotNil(t, f.MaxPrice)
	assert.True(t, f.MinPrice.Equal(decimal.NewFromInt(5)))
	assert.True(t, f.MaxPrice.Equal(decimal.RequireFromString("20.5")))
	require.NotNil(t, f.IsNatural)
	assert.True(t, *f.IsNatural)
	require.NotNil(t, f.CategoryID)
	assert.Equal(t, int64(2), *f.CategoryID)
	assert.Equal(t, "price", f.SortBy)
	assert.False(t, f.Ascending)
	assert.Equal(t, 2, f.PageNumber)
	assert.Equal(t, 5, f.PageSize)
}

func TestFilterOrchidsDefaults(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/orchid/filter", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	f := ts.orchids.filter
	assert.True(t, f.Ascending)
	assert.Nil(t, f.MinPrice)
	assert.Nil(t, f.IsNatural)
	assert.Equal(t, 1, f.PageNumber)
	assert.Equal(t, repository.DefaultPageSize, f.PageSize)

	rec, _ = ts.do(t, http.MethodGet, "/api/orchid/filter?minPrice=cheap", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPriceDistributionDefault(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/orchid/price-distribution", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ts.orchids.distribution)

	rec, _ = ts.do(t, http.MethodGet, "/api/orchid/price-distribution?numberOfRanges=3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ts.orchids.distribution)
}

func TestCreateOrchid(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, 1)

	rec, env := ts.do(t, http.MethodPost, "/api/orchid", map[string]any{
		"name":       "Vanda coerulea",
		"price":      -1,
		"categoryId": 2,
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be non-negative", env.AdditionalData["price"])

	rec, _ = ts.do(t, http.MethodPost, "/api/orchid", map[string]any{
		"name":       "Vanda coerulea",
		"price":      "12.50",
		"isNatural":  true,
		"categoryId": 2,
	}, token)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, ts.orchids.created.Price.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, ts.orchids.created.IsNatural)
}

func TestOrderRoutesRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/order", "/api/order/1", "/api/order/paged", "/api/order/my-orders", "/api/order/statistics"} {
		rec, env := ts.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "UNAUTHORIZED", env.Code, path)
	}
}

func TestCreateOrder(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, 11)

	rec, _ := ts.do(t, http.MethodPost, "/api/order", map[string]any{"orderItems": []any{}}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = ts.do(t, http.MethodPost, "/api/order", map[string]any{
		"orderItems": []map[string]int{{"orchidId": 1, "quantity": 0}},
	}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := ts.do(t, http.MethodPost, "/api/order", map[string]any{
		"orderItems": []map[string]int{{"orchidId": 1, "quantity": 2}, {"orchidId": 2, "quantity": 1}},
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "SUCCESS", env.Code)
	assert.Equal(t, int64(11), ts.orders.createAccountID)
	assert.Equal(t, []service.OrderItem{{OrchidID: 1, Quantity: 2}, {OrchidID: 2, Quantity: 1}}, ts.orders.createItems)
}

func TestMyOrders(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/api/order/my-orders", nil, ts.token(t, 13))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(13), ts.orders.accountID)
}

func TestCancelOrderConflict(t *testing.T) {
	ts := newTestServer(t)
	ts.orders.err = service.NewError(service.ErrConflict, "Only pending orders can be cancelled")

	rec, env := ts.do(t, http.MethodPost, "/api/order/4/cancel", nil, ts.token(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Only pending orders can be cancelled", env.Message)
}

func TestStatisticsDates(t *testing.T) {
	ts := newTestServer(t)
	ts.handler.now = func() time.Time { return time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC) }
	token := ts.token(t, 1)

	rec, _ := ts.do(t, http.MethodGet, "/api/order/statistics", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-02", ts.orders.start.Format(time.DateOnly))
	assert.Equal(t, "2024-03-31", ts.orders.end.Format(time.DateOnly))

	rec, _ = ts.do(t, http.MethodGet, "/api/order/statistics?startDate=2024-01-01&endDate=2024-01-31", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-01-01", ts.orders.start.Format(time.DateOnly))
	assert.Equal(t, "2024-01-31", ts.orders.end.Format(time.DateOnly))

	rec, _ = ts.do(t, http.MethodGet, "/api/order/statistics?startDate=yesterday", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/api/nothing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
