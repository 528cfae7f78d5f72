package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orbas1/fixnado-backend/api/controllers"
	"github.com/orbas1/fixnado-backend/api/middleware"
	"github.com/orbas1/fixnado-backend/internal/inventory"
	"github.com/orbas1/fixnado-backend/internal/rentals"
	"github.com/orbas1/fixnado-backend/pkg/config"
	"github.com/orbas1/fixnado-backend/pkg/db"
	"github.com/orbas1/fixnado-backend/pkg/logger"
	pkgredis "github.com/orbas1/fixnado-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *pkgredis.Client
	Rentals   rentals.Service
	Inventory inventory.Service
}

// NewRouter assembles the chi router with the standard middleware chain.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(deps.Config))
	r.Get("/health/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DB, deps.Redis))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Auth(deps.Config.JWT, deps.Logger))
		api.Use(middleware.Idempotency(deps.Redis, deps.Logger))

		api.Route("/rentals", func(rt chi.Router) {
			rt.Post("/", controllers.RentalCreate(deps.Rentals, deps.Logger))
			rt.Get("/", controllers.RentalList(deps.Rentals, deps.Logger))
			rt.Route("/{rentalId}", func(rt chi.Router) {
				rt.Get("/", controllers.RentalDetail(deps.Rentals, deps.Logger))
				rt.Post("/approve", controllers.RentalApprove(deps.Rentals, deps.Logger))
				rt.Post("/schedule-pickup", controllers.RentalSchedulePickup(deps.Rentals, deps.Logger))
				rt.Post("/checkout", controllers.RentalCheckout(deps.Rentals, deps.Logger))
				rt.Post("/return", controllers.RentalReturn(deps.Rentals, deps.Logger))
				rt.Post("/inspection", controllers.RentalInspection(deps.Rentals, deps.Logger))
				rt.Post("/cancel", controllers.RentalCancel(deps.Rentals, deps.Logger))
				rt.Post("/dispute", controllers.RentalDispute(deps.Rentals, deps.Logger))
				rt.Post("/deposit-status", controllers.RentalDepositStatus(deps.Rentals, deps.Logger))
			})
		})

		api.Route("/inventory", func(inv chi.Router) {
			inv.Post("/", controllers.InventoryCreate(deps.Inventory, deps.Logger))
			inv.Get("/", controllers.InventoryList(deps.Inventory, deps.Logger))
			inv.Route("/alerts", func(al chi.Router) {
				al.Get("/", controllers.InventoryAlertList(deps.Inventory, deps.Logger))
				al.Post("/{alertId}/acknowledge", controllers.InventoryAlertAcknowledge(deps.Inventory, deps.Logger))
				al.Post("/{alertId}/resolve", controllers.InventoryAlertResolve(deps.Inventory, deps.Logger))
			})
			inv.Route("/{itemId}", func(it chi.Router) {
				it.Get("/", controllers.InventoryDetail(deps.Inventory, deps.Logger))
				it.Get("/ledger", controllers.InventoryLedger(deps.Inventory, deps.Logger))
				it.Post("/adjustments", controllers.InventoryAdjust(deps.Inventory, deps.Logger))
			})
		})
	})

	return r
}
