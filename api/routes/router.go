package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushikeshnagarkar/balutedaar-app/api/controllers"
	"github.com/rushikeshnagarkar/balutedaar-app/api/middleware"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/inventory"
	"github.com/rushikeshnagarkar/balutedaar-app/internal/orders"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Redis      controllers.Pinger
	Webhook    *controllers.WebhookController
	Callback   *controllers.PaymentCallbackController
	OrdersRepo *orders.Repository
	InvRepo    *inventory.Repository
	Metrics    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.DB, deps.Redis))
	})

	r.Post("/webhook", deps.Webhook.Handle)
	r.Get("/payment/callback", deps.Callback.Handle)

	admin := controllers.NewAdminController(deps.Config.Admin, deps.OrdersRepo, deps.InvRepo, deps.Logger)
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Post("/login", admin.Login)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(deps.Config.Admin, deps.Logger))
			r.Get("/orders", admin.Orders)
			r.Get("/inventory", admin.Inventory)
			r.Put("/inventory", admin.UpsertInventory)
		})
	})

	if deps.Metrics != nil {
		r.Get("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}).ServeHTTP)
	}

	return r
}
