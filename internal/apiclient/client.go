// Package apiclient предоставляет клиент HTTP API магазина орхидей для фронтенда.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/orchidshop/internal/model"
	"github.com/mmeshcher/orchidshop/internal/repository"
	"github.com/mmeshcher/orchidshop/internal/service"
)

// ErrNotAuthenticated возвращается, если для запроса нужен токен, а вход не выполнен.
var ErrNotAuthenticated = errors.New("not authenticated")

// Error описывает ответ API с кодом статуса не из диапазона 2xx.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Fields     map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api error: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

type envelope struct {
	Data           json.RawMessage `json:"data"`
	Message        string          `json:"message"`
	StatusCode     int             `json:"statusCode"`
	Code           string          `json:"code"`
	AdditionalData json.RawMessage `json:"additionalData"`
}

// Client инкапсулирует HTTP-взаимодействие с API магазина.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient создаёт клиент API по указанному адресу.
func NewClient(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Token возвращает текущий токен доступа.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken задаёт токен доступа для последующих запросов.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, authed bool) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &Error{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Code: env.Code, Message: env.Message}
		if len(env.AdditionalData) > 0 {
			_ = json.Unmarshal(env.AdditionalData, &apiErr.Fields)
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Login выполняет вход и запоминает полученный токен.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/account/login", nil, body, &out, false); err != nil {
		return "", err
	}
	c.SetToken(out.Token)
	return out.Token, nil
}

// Register регистрирует учётную запись.
func (c *Client) Register(ctx context.Context, username, email, password string) (*model.Account, error) {
	body := map[string]string{
		"username":        username,
		"email":           email,
		"password":        password,
		"confirmPassword": password,
	}
	var account model.Account
	if err := c.do(ctx, http.MethodPost, "/api/account/register", nil, body, &account, false); err != nil {
		return nil, err
	}
	return &account, nil
}

// ForgotPassword задаёт новый пароль по адресу почты.
func (c *Client) ForgotPassword(ctx context.Context, email, newPassword string) error {
	body := map[string]string{
		"email":              email,
		"newPassword":        newPassword,
		"confirmNewPassword": newPassword,
	}
	return c.do(ctx, http.MethodPost, "/api/account/forgot-password", nil, body, nil, false)
}

// ChangePassword меняет пароль текущего пользователя.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	body := map[string]string{
		"currentPassword":    current,
		"newPassword":        newPassword,
		"confirmNewPassword": newPassword,
	}
	return c.do(ctx, http.MethodPost, "/api/account/change-password", nil, body, nil, true)
}

// Logout отзывает текущий токен и забывает его.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/account/logout", nil, nil, nil, true); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Categories возвращает все категории.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.do(ctx, http.MethodGet, "/api/category", nil, nil, &out, false); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory создаёт категорию.
func (c *Client) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	var out model.Category
	if err := c.do(ctx, http.MethodPost, "/api/category", nil, map[string]string{"name": name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory переименовывает категорию.
func (c *Client) UpdateCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	var out model.Category
	path := "/api/category/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, http.MethodPut, path, nil, map[string]string{"name": name}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory удаляет категорию.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/category/"+strconv.FormatInt(id, 10), nil, nil, nil, true)
}

// Orchid возвращает орхидею по идентификатору.
func (c *Client) Orchid(ctx context.Context, id int64) (*model.Orchid, error) {
	var out model.Orchid
	if err := c.do(ctx, http.MethodGet, "/api/orchid/"+strconv.FormatInt(id, 10), nil, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrchidsPage возвращает страницу каталога.
func (c *Client) OrchidsPage(ctx context.Context, pageNumber, pageSize int) (*repository.Page[model.Orchid], error) {
	query := url.Values{}
	query.Set("pageNumber", strconv.Itoa(pageNumber))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var out repository.Page[model.Orchid]
	if err := c.do(ctx, http.MethodGet, "/api/orchid/paged", query, nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// FilterOrchids возвращает страницу орхидей по фильтру.
func (c *Client) FilterOrchids(ctx context.Context, f service.OrchidFilter) (*repository.Page[model.Orchid], error) {
	var out repository.Page[model.Orchid]
	if err := c.do(ctx, http.MethodGet, "/api/orchid/filter", filterQuery(f), nil, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func filterQuery(f service.OrchidFilter) url.Values {
	q := url.Values{}
	if f.SearchTerm != "" {
		q.Set("searchTerm", f.SearchTerm)
	}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	if f.IsNatural != nil {
		q.Set("isNatural", strconv.FormatBool(*f.IsNatural))
	}
	if f.CategoryID != nil {
		q.Set("categoryId", strconv.FormatInt(*f.CategoryID, 10))
	}
	if f.SortBy != "" {
		q.Set("sortBy", f.SortBy)
	}
	q.Set("ascending", strconv.FormatBool(f.Ascending))
	if f.PageNumber > 0 {
		q.Set("pageNumber", strconv.Itoa(f.PageNumber))
	}
	if f.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(f.PageSize))
	}
	return q
}

// OrchidRequest содержит поля создаваемой или изменяемой орхидеи.
type OrchidRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	IsNatural   bool            `json:"isNatural"`
	URL         string          `json:"url"`
	CategoryID  int64           `json:"categoryId"`
}

// CreateOrchid добавляет орхидею в каталог.
func (c *Client) CreateOrchid(ctx context.Context, req OrchidRequest) (*model.Orchid, error) {
	var out model.Orchid
	if err := c.do(ctx, http.MethodPost, "/api/orchid", nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrchid изменяет орхидею.
func (c *Client) UpdateOrchid(ctx context.Context, id int64, req OrchidRequest) (*model.Orchid, error) {
	var out model.Orchid
	if err := c.do(ctx, http.MethodPut, "/api/orchid/"+strconv.FormatInt(id, 10), nil, req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteOrchid удаляет орхидею.
func (c *Client) DeleteOrchid(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/orchid/"+strconv.FormatInt(id, 10), nil, nil, nil, true)
}

// CreateOrder оформляет заказ текущего пользователя.
func (c *Client) CreateOrder(ctx context.Context, items []service.OrderItem) (*model.Order, error) {
	type item struct {
		OrchidID int64 `json:"orchidId"`
		Quantity int   `json:"quantity"`
	}
	body := struct {
		OrderItems []item `json:"orderItems"`
	}{OrderItems: make([]item, 0, len(items))}
	for _, it := range items {
		body.OrderItems = append(body.OrderItems, item{OrchidID: it.OrchidID, Quantity: it.Quantity})
	}

	var out model.Order
	if err := c.do(ctx, http.MethodPost, "/api/order", nil, body, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyOrders возвращает заказы текущего пользователя.
func (c *Client) MyOrders(ctx context.Context) ([]model.Order, error) {
	var out []model.Order
	if err := c.do(ctx, http.MethodGet, "/api/order/my-orders", nil, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelOrder отменяет заказ.
func (c *Client) CancelOrder(ctx context.Context, id int64) (*model.Order, error) {
	var out model.Order
	path := "/api/order/" + strconv.FormatInt(id, 10) + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Statistics возвращает аналитику заказов. Нулевые даты не передаются,
// и сервер подставляет значения по умолчанию.
func (c *Client) Statistics(ctx context.Context, start, end time.Time) (*service.Analytics, error) {
	q := url.Values{}
	if !start.IsZero() {
		q.Set("startDate", start.Format(time.DateOnly))
	}
	if !end.IsZero() {
		q.Set("endDate", end.Format(time.DateOnly))
	}

	var out service.Analytics
	if err := c.do(ctx, http.MethodGet, "/api/order/statistics", q, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}
