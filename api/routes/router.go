package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dkwapong/storefront-backend/api/controllers"
	"github.com/dkwapong/storefront-backend/api/middleware"
	"github.com/dkwapong/storefront-backend/internal/accounts"
	"github.com/dkwapong/storefront-backend/internal/cart"
	"github.com/dkwapong/storefront-backend/internal/catalog"
	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/db"
	"github.com/dkwapong/storefront-backend/pkg/logger"
	"github.com/dkwapong/storefront-backend/pkg/metrics"
	"github.com/dkwapong/storefront-backend/pkg/redis"
	"github.com/dkwapong/storefront-backend/pkg/storage/images"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	imagesClient images.Pinger,
	httpMetrics *metrics.HTTPMetrics,
	accountsService accounts.Service,
	catalogService catalog.Service,
	cartService cart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
		r.Handle("/metrics", httpMetrics.Handler())
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, imagesClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(accountsService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(accountsService, logg))
		})

		r.Get("/products", controllers.ProductsList(catalogService, logg))
		r.Get("/products/available", controllers.ProductsListAvailable(catalogService, logg))
		r.Get("/products/search", controllers.ProductsSearch(catalogService, logg))
		r.Get("/products/{productId}", controllers.ProductsGet(catalogService, logg))
		r.Get("/categories", controllers.CategoriesList(catalogService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/ping", controllers.PrivatePing())
			r.Get("/users/me", controllers.UsersGetMe(accountsService, logg))
			r.Patch("/users/me", controllers.UsersUpdateMe(accountsService, logg))
			r.Post("/products", controllers.ProductsCreate(catalogService, logg))
			r.Post("/categories", controllers.CategoriesCreate(catalogService, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
			})
		})
	})

	return r
}
