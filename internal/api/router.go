package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/bloodbank/internal/model"
	"github.com/erazemk/bloodbank/internal/transfer"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string, transfers *transfer.Coordinator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	hospitalsHandler := &HospitalsHandler{DB: db, Transfers: transfers}
	donationsHandler := &DonationsHandler{Transfers: transfers}
	requestsHandler := &RequestsHandler{DB: db, Transfers: transfers}
	searchHandler := &SearchHandler{DB: db}
	transactionsHandler := &TransactionsHandler{DB: db}

	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "message": "pong"})
	})

	r.Route("/api", func(r chi.Router) {
		// Public: login.
		r.Post("/auth/login", authHandler.Login)

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtSecret, db))

			r.Post("/auth/logout", authHandler.Logout)
			r.Put("/auth/password", authHandler.ChangePassword)

			r.With(requireAdmin).Get("/users", usersHandler.List)
			r.With(requireAdmin).Post("/users", usersHandler.Create)

			r.Get("/hospitals", hospitalsHandler.List)
			r.With(requireAdmin).Post("/hospitals", hospitalsHandler.Create)
			r.Get("/hospitals/{id}", hospitalsHandler.Get)
			r.Get("/hospitals/{id}/inventory", hospitalsHandler.Inventory)
			r.Get("/hospitals/{id}/donations", hospitalsHandler.Donations)
			r.Get("/hospitals/{id}/requests/statistics", hospitalsHandler.RequestStatistics)

			r.Post("/donations", donationsHandler.Create)

			r.Get("/requests", requestsHandler.List)
			r.Post("/requests", requestsHandler.Create)
			r.Get("/requests/{id}", requestsHandler.Get)
			r.With(requireManager).Put("/requests/{id}/status", requestsHandler.UpdateStatus)

			r.Post("/search", searchHandler.Search)

			r.Get("/transactions", transactionsHandler.List)
			r.Get("/transactions/statistics", transactionsHandler.Statistics)
		})
	})

	return r
}
