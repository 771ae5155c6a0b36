package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rangkeep/rangs/internal/api/middlewares"
	"github.com/rangkeep/rangs/internal/config"
)

type CustomRouter struct {
	router *chi.Mux
	logger *slog.Logger
	cfg    *config.Config
}

func New(cfg *config.Config, log *slog.Logger) *CustomRouter {
	return &CustomRouter{
		router: chi.NewRouter(),
		logger: log,
		cfg:    cfg,
	}
}

type CompletionHandler interface {
	PostCompletion(w http.ResponseWriter, r *http.Request)
}

type RedemptionHandler interface {
	Redeem(w http.ResponseWriter, r *http.Request)
}

type BalanceHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	RebuildBalance(w http.ResponseWriter, r *http.Request)
	GetLedger(w http.ResponseWriter, r *http.Request)
	GetPurchases(w http.ResponseWriter, r *http.Request)
}

type HealthHandler interface {
	Ping(w http.ResponseWriter, r *http.Request)
}

type Handler interface {
	CompletionHandler
	RedemptionHandler
	BalanceHandler
	HealthHandler
}

func (cr *CustomRouter) SetRouter(h Handler) {
	authenticated := middlewares.Authentication([]byte(cr.cfg.SecretKey), cr.logger)

	cr.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.With(middleware.AllowContentType("application/json")).
				Post("/events/completion", h.PostCompletion)

			r.Route("/user", func(r chi.Router) {
				r.Route("/balance", func(r chi.Router) {
					r.Get("/", h.GetBalance)
					r.Post("/rebuild", h.RebuildBalance)
				})
				r.Get("/ledger", h.GetLedger)
				r.Get("/purchases", h.GetPurchases)
				r.With(middleware.AllowContentType("application/json")).
					Post("/redemptions", h.Redeem)
			})
		})
	})
	cr.router.Get("/ping", h.Ping)
	cr.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	cr.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w,
			http.StatusText(http.StatusMethodNotAllowed),
			http.StatusMethodNotAllowed)
	})
}

func (cr *CustomRouter) GetRouter() *chi.Mux {
	return cr.router
}
