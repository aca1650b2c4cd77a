package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/response"
)

// SetupRouter настраивает HTTP-маршруты и middleware магазина орхидей.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(custommiddleware.Recoverer(h.logger))
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api/account", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Get("/check-username", h.CheckUsername)
		r.Get("/check-email", h.CheckEmail)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/me", h.Me)
			r.Post("/change-password", h.ChangePassword)
			r.Post("/logout", h.Logout)
		})
	})

	r.Route("/api/category", func(r chi.Router) {
		r.Get("/", h.ListCategories)
		r.Get("/paged", h.ListCategoriesPage)
		r.Get("/{id}", h.GetCategory)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})
	})

	r.Route("/api/orchid", func(r chi.Router) {
		r.Get("/", h.ListOrchids)
		r.Get("/paged", h.ListOrchidsPage)
		r.Get("/category/{categoryId}", h.OrchidsByCategory)
		r.Get("/search", h.SearchOrchids)
		r.Get("/filter", h.FilterOrchids)
		r.Get("/price-range", h.OrchidsByPriceRange)
		r.Get("/by-type/{isNatural}", h.OrchidsByType)
		r.Get("/category-distribution", h.CategoryDistribution)
		r.Get("/price-distribution", h.PriceDistribution)
		r.Get("/{id}", h.GetOrchid)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/", h.CreateOrchid)
			r.Put("/{id}", h.UpdateOrchid)
			r.Delete("/{id}", h.DeleteOrchid)
		})
	})

	r.Route("/api/order", func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Get("/", h.ListOrders)
		r.Get("/paged", h.ListOrdersPage)
		r.Get("/my-orders", h.MyOrders)
		r.Get("/status/{status}", h.OrdersByStatus)
		r.Get("/statistics", h.Statistics)
		r.Get("/{id}", h.GetOrder)
		r.Post("/", h.CreateOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Post("/{id}/cancel", h.CancelOrder)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
