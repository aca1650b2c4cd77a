package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/response"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// ListCategories возвращает все категории.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err, "list categories")
		return
	}
	response.OK(w, categories, "")
}

// GetCategory возвращает категорию по идентификатору.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	category, err := h.categories.GetCategory(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get category", zap.Int64("categoryID", id))
		return
	}
	response.OK(w, category, "")
}

// ListCategoriesPage возвращает страницу категорий.
func (h *Handler) ListCategoriesPage(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageParams(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	page, err := h.categories.ListCategoriesPage(r.Context(), number, size)
	if err != nil {
		h.writeError(w, err, "list categories page")
		return
	}
	response.OK(w, page, "")
}

// CreateCategory создаёт категорию.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.categories.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err, "create category")
		return
	}
	response.Created(w, category, "Category created successfully")
}

// UpdateCategory переименовывает категорию.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.categories.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		h.writeError(w, err, "update category", zap.Int64("categoryID", id))
		return
	}
	response.OK(w, category, "Category updated successfully")
}

// DeleteCategory удаляет категорию без орхидей.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	if err := h.categories.DeleteCategory(r.Context(), id); err != nil {
		h.writeError(w, err, "delete category", zap.Int64("categoryID", id))
		return
	}
	response.OK(w, nil, "Category deleted successfully")
}
