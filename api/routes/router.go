package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marais-jewelry/marais-backend/api/controllers"
	"github.com/marais-jewelry/marais-backend/api/middleware"
	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/catalog"
	"github.com/marais-jewelry/marais-backend/internal/checkout"
	"github.com/marais-jewelry/marais-backend/internal/orders"
	"github.com/marais-jewelry/marais-backend/internal/users"
	"github.com/marais-jewelry/marais-backend/pkg/config"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
	"github.com/marais-jewelry/marais-backend/pkg/redis"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Catalog  catalog.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Users    users.Service
}

// Deps are the infrastructure handles the router needs.
type Deps struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Gatherer    prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	identity := middleware.Identity(middleware.IdentityOptions{
		JWT:          cfg.JWT,
		CookieName:   cfg.Storefront.SessionCookie,
		SecureCookie: cfg.App.IsProd(),
	}, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identity)
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogList(svcs.Catalog, logg))
			r.Get("/products/{slug}", controllers.CatalogDetail(svcs.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(svcs.Cart, logg))
			r.Get("/count", controllers.CartCount(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Post("/items/{itemId}/increment", controllers.CartIncrement(svcs.Cart, logg))
			r.Post("/items/{itemId}/decrement", controllers.CartDecrement(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemove(svcs.Cart, logg))
			r.Post("/bonus", controllers.CartApplyBonus(svcs.Cart, logg))
			r.With(middleware.RequireUser(logg)).Post("/merge", controllers.CartMerge(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.OrdersDetail(svcs.Orders, logg))
		})

		r.With(middleware.RequireUser(logg)).Get("/me", controllers.Profile(svcs.Users, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(identity)
		r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(svcs.Catalog, logg))
			r.Get("/export", controllers.AdminExportProducts(svcs.Catalog, logg))
			r.Put("/{productId}", controllers.AdminUpdateProduct(svcs.Catalog, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminTransitionOrderStatus(svcs.Orders, logg))
		})
		r.Patch("/users/{userId}/discount", controllers.AdminSetUserDiscount(svcs.Users, logg))
	})

	return r
}
