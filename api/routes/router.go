package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rmoralesc/movilpos-backend/api/controllers"
	"github.com/rmoralesc/movilpos-backend/api/middleware"
	"github.com/rmoralesc/movilpos-backend/internal/catalog"
	"github.com/rmoralesc/movilpos-backend/internal/credit"
	"github.com/rmoralesc/movilpos-backend/internal/customers"
	"github.com/rmoralesc/movilpos-backend/internal/inventory"
	"github.com/rmoralesc/movilpos-backend/internal/sales"
	"github.com/rmoralesc/movilpos-backend/internal/swaps"
	"github.com/rmoralesc/movilpos-backend/pkg/config"
	"github.com/rmoralesc/movilpos-backend/pkg/db"
	"github.com/rmoralesc/movilpos-backend/pkg/logger"
	"github.com/rmoralesc/movilpos-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     redis.Pinger
	Catalog   *catalog.Service
	Customers *customers.Service
	Credit    *credit.Service
	Inventory inventory.Repository
	Sales     *sales.Committer
	Swaps     *swaps.Committer
	Guard     middleware.CommitGuardStore
	Metrics   http.Handler
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{id}/units", controllers.ListProductUnits(deps.Inventory, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCashier(logg))
				r.Post("/", controllers.CreateProduct(deps.Catalog, logg))
				r.Put("/{id}", controllers.UpdateProduct(deps.Catalog, logg))
				r.Delete("/{id}", controllers.DeactivateProduct(deps.Catalog, logg))
				r.Post("/{id}/units", controllers.IntakeUnit(deps.Catalog, deps.Inventory, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.ListCustomers(deps.Customers, logg))
			r.Get("/{id}/credit", controllers.CustomerCredit(deps.Credit, logg))
			r.With(middleware.RequireCashier(logg)).Post("/", controllers.CreateCustomer(deps.Customers, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.ListSales(deps.Sales, logg))
			r.Get("/{id}", controllers.GetSale(deps.Sales, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCashier(logg))
				r.With(middleware.CommitGuard(deps.Guard, "sale", logg)).
					Post("/", controllers.CreateSale(deps.Sales, deps.Catalog, deps.Inventory, logg))
				r.Put("/{id}", controllers.EditSale(deps.Sales, deps.Catalog, deps.Inventory, logg))
			})
		})

		r.Route("/swaps", func(r chi.Router) {
			r.Get("/", controllers.ListSwaps(deps.Swaps, logg))
			r.Get("/{id}", controllers.GetSwap(deps.Swaps, logg))
			r.With(
				middleware.RequireCashier(logg),
				middleware.CommitGuard(deps.Guard, "swap", logg),
			).Post("/", controllers.CreateSwap(deps.Swaps, logg))
		})
	})

	return r
}
