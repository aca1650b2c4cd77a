package repository

// Параметры постраничной выборки по умолчанию.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page описывает одну страницу результатов.
type Page[T any] struct {
	Items           []T   `json:"items"`
	PageIndex       int   `json:"pageIndex"`
	PageSize        int   `json:"pageSize"`
	TotalCount      int64 `json:"totalCount"`
	TotalPages      int   `json:"totalPages"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	HasNextPage     bool  `json:"hasNextPage"`
}

// NewPage собирает страницу из уже выбранных элементов.
func NewPage[T any](items []T, pageIndex, pageSize int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}

	return &Page[T]{
		Items:           items,
		PageIndex:       pageIndex,
		PageSize:        pageSize,
		TotalCount:      total,
		TotalPages:      totalPages,
		HasPreviousPage: pageIndex > 1,
		HasNextPage:     pageIndex < totalPages,
	}
}

// NormalizePage приводит номер страницы к значению не меньше 1, а размер
// страницы к диапазону [1, MaxPageSize]. Неположительный размер заменяется
// на DefaultPageSize.
func NormalizePage(pageIndex, pageSize int) (int, int) {
	if pageIndex < 1 {
		pageIndex = 1
	}
	switch {
	case pageSize < 1:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return pageIndex, pageSize
}
