package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/response"
	"github.com/mmeshcher/orchidshop/internal/service"
)

const defaultNumberOfRanges = 5

type orchidRequest struct {
	Name        string           `json:"name" validate:"required,max=100"`
	Description string           `json:"description" validate:"max=255"`
	Price       *decimal.Decimal `json:"price" validate:"required,nonnegative"`
	IsNatural   bool             `json:"isNatural"`
	URL         string           `json:"url" validate:"max=255"`
	CategoryID  int64            `json:"categoryId" validate:"required"`
}

func (req orchidRequest) input() service.OrchidInput {
	return service.OrchidInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		IsNatural:   req.IsNatural,
		URL:         req.URL,
		CategoryID:  req.CategoryID,
	}
}

// ListOrchids возвращает весь каталог.
func (h *Handler) ListOrchids(w http.ResponseWriter, r *http.Request) {
	orchids, err := h.orchids.ListOrchids(r.Context())
	if err != nil {
		h.writeError(w, err, "list orchids")
		return
	}
	response.OK(w, orchids, "")
}

// GetOrchid возвращает орхидею по идентификатору.
func (h *Handler) GetOrchid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	orchid, err := h.orchids.GetOrchid(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get orchid", zap.Int64("orchidID", id))
		return
	}
	response.OK(w, orchid, "")
}

// ListOrchidsPage возвращает страницу каталога.
func (h *Handler) ListOrchidsPage(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageParams(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	page, err := h.orchids.ListOrchidsPage(r.Context(), number, size)
	if err != nil {
		h.writeError(w, err, "list orchids page")
		return
	}
	response.OK(w, page, "")
}

// OrchidsByCategory возвращает орхидеи категории.
func (h *Handler) OrchidsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "categoryId")
	if err != nil {
		badRequest(w, err)
		return
	}

	orchids, err := h.orchids.OrchidsByCategory(r.Context(), categoryID)
	if err != nil {
		h.writeError(w, err, "orchids by category", zap.Int64("categoryID", categoryID))
		return
	}
	response.OK(w, orchids, "")
}

// SearchOrchids ищет орхидеи по подстроке в названии и описании.
func (h *Handler) SearchOrchids(w http.ResponseWriter, r *http.Request) {
	orchids, err := h.orchids.SearchOrchids(r.Context(), r.URL.Query().Get("searchTerm"))
	if err != nil {
		h.writeError(w, err, "search orchids")
		return
	}
	response.OK(w, orchids, "")
}

// FilterOrchids возвращает страницу орхидей с фильтрацией и сортировкой.
func (h *Handler) FilterOrchids(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	page, err := h.orchids.FilterOrchids(r.Context(), f)
	if err != nil {
		h.writeError(w, err, "filter orchids")
		return
	}
	response.OK(w, page, "")
}

func parseFilter(r *http.Request) (service.OrchidFilter, error) {
	q := r.URL.Query()
	f := service.OrchidFilter{
		SearchTerm: q.Get("searchTerm"),
		SortBy:     q.Get("sortBy"),
		Ascending:  true,
	}

	var err error
	if f.MinPrice, err = queryDecimal(r, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(r, "maxPrice"); err != nil {
		return f, err
	}
	if f.IsNatural, err = queryBool(r, "isNatural"); err != nil {
		return f, err
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errors.New("categoryId must be an integer")
		}
		f.CategoryID = &id
	}
	if asc, err := queryBool(r, "ascending"); err != nil {
		return f, err
	} else if asc != nil {
		f.Ascending = *asc
	}
	if f.PageNumber, f.PageSize, err = pageParams(r); err != nil {
		return f, err
	}
	return f, nil
}

// OrchidsByPriceRange возвращает орхидеи в диапазоне цен.
func (h *Handler) OrchidsByPriceRange(w http.ResponseWriter, r *http.Request) {
	lo, err := queryDecimal(r, "minPrice")
	if err != nil {
		badRequest(w, err)
		return
	}
	hi, err := queryDecimal(r, "maxPrice")
	if err != nil {
		badRequest(w, err)
		return
	}
	if lo == nil || hi == nil {
		response.Error(w, http.StatusBadRequest, "minPrice and maxPrice are required")
		return
	}

	orchids, err := h.orchids.OrchidsByPriceRange(r.Context(), *lo, *hi)
	if err != nil {
		h.writeError(w, err, "orchids by price range")
		return
	}
	response.OK(w, orchids, "")
}

// OrchidsByType возвращает натуральные или искусственные орхидеи.
func (h *Handler) OrchidsByType(w http.ResponseWriter, r *http.Request) {
	isNatural, err := strconv.ParseBool(chi.URLParam(r, "isNatural"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "isNatural must be true or false")
		return
	}

	orchids, err := h.orchids.OrchidsByType(r.Context(), isNatural)
	if err != nil {
		h.writeError(w, err, "orchids by type")
		return
	}
	response.OK(w, orchids, "")
}

// CategoryDistribution возвращает число орхидей по категориям.
func (h *Handler) CategoryDistribution(w http.ResponseWriter, r *http.Request) {
	counts, err := h.orchids.CountByCategory(r.Context())
	if err != nil {
		h.writeError(w, err, "category distribution")
		return
	}
	response.OK(w, counts, "")
}

// PriceDistribution возвращает распределение орхидей по ценовым интервалам.
func (h *Handler) PriceDistribution(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "numberOfRanges", defaultNumberOfRanges)
	if err != nil {
		badRequest(w, err)
		return
	}

	buckets, err := h.orchids.PriceDistribution(r.Context(), n)
	if err != nil {
		h.writeError(w, err, "price distribution")
		return
	}
	response.OK(w, buckets, "")
}

// CreateOrchid добавляет орхидею в каталог.
func (h *Handler) CreateOrchid(w http.ResponseWriter, r *http.Request) {
	var req orchidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	orchid, err := h.orchids.CreateOrchid(r.Context(), req.input())
	if err != nil {
		h.writeError(w, err, "create orchid")
		return
	}
	response.Created(w, orchid, "Orchid created successfully")
}

// UpdateOrchid изменяет орхидею.
func (h *Handler) UpdateOrchid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	var req orchidRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	orchid, err := h.orchids.UpdateOrchid(r.Context(), id, req.input())
	if err != nil {
		h.writeError(w, err, "update orchid", zap.Int64("orchidID", id))
		return
	}
	response.OK(w, orchid, "Orchid updated successfully")
}

// DeleteOrchid удаляет орхидею из каталога.
func (h *Handler) DeleteOrchid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	if err := h.orchids.DeleteOrchid(r.Context(), id); err != nil {
		h.writeError(w, err, "delete orchid", zap.Int64("orchidID", id))
		return
	}
	response.OK(w, nil, "Orchid deleted successfully")
}
