package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailgenie/orchestrator/api/controllers"
	"github.com/retailgenie/orchestrator/api/middleware"
	"github.com/retailgenie/orchestrator/internal/accounts"
	"github.com/retailgenie/orchestrator/internal/chat"
	"github.com/retailgenie/orchestrator/internal/location"
	"github.com/retailgenie/orchestrator/internal/postpurchase"
	"github.com/retailgenie/orchestrator/pkg/config"
	"github.com/retailgenie/orchestrator/pkg/logger"
	redisclient "github.com/retailgenie/orchestrator/pkg/redis"
)

// RouterParams collects everything the HTTP surface depends on. Redis,
// Metrics, and the per-service fields may be nil; the affected routes then
// degrade or disappear.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          *redisclient.Client
	SessionChecker accounts.AccessSessionChecker
	ChatService    chat.Service
	AccountService accounts.Service
	PostPurchase   postpurchase.Service
	LocationEngine *location.Engine
	Metrics        prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

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
		var pinger redisclient.Pinger
		if params.Redis != nil {
			pinger = params.Redis
		}
		r.Get("/ready", controllers.HealthReady(cfg, pinger))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		if params.Redis != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, params.Redis, logg)).
				Post("/login", controllers.Login(params.AccountService, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, params.Redis, logg)).
				Post("/register", controllers.Register(params.AccountService, logg))
		} else {
			r.Post("/login", controllers.Login(params.AccountService, logg))
			r.Post("/register", controllers.Register(params.AccountService, logg))
		}
		r.Post("/refresh", controllers.AuthRefresh(params.AccountService, logg))
		r.Post("/logout", controllers.AuthLogout(params.AccountService, cfg.JWT, logg))
	})

	// Chat works for guests; a bearer token unlocks personalization.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, params.SessionChecker, logg))
		r.Post("/api/v1/message", controllers.Message(params.ChatService, logg))
		r.Get("/api/v1/session/{sessionID}", controllers.ChatSession(params.ChatService, logg))

		r.Route("/api/v1/location", func(r chi.Router) {
			r.Get("/stores", controllers.Stores(params.LocationEngine, logg))
			r.Get("/stores/{storeID}", controllers.StoreDetail(params.LocationEngine, logg))
			r.Get("/stores/{storeID}/products", controllers.StoreInventory(params.LocationEngine, logg))
			r.Get("/nearby", controllers.NearbyStores(params.LocationEngine, params.AccountService, logg))
			r.Get("/search", controllers.StoreSearch(params.LocationEngine, params.AccountService, logg))
			r.Get("/recommendations", controllers.LocationRecommendations(params.LocationEngine, params.AccountService, logg))
			r.Get("/products/{productID}/availability", controllers.ProductAvailability(params.LocationEngine, params.AccountService, logg))
		})
	})

	r.Get("/api/v1/offers", controllers.Offers())

	r.Route("/api/v1/me", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Get("/", controllers.Profile(params.AccountService, logg))
		r.Patch("/", controllers.ProfileUpdate(params.AccountService, logg))
		r.Route("/addresses", func(r chi.Router) {
			r.Post("/", controllers.AddressAdd(params.AccountService, logg))
			r.Put("/{addressID}", controllers.AddressUpdate(params.AccountService, logg))
			r.Delete("/{addressID}", controllers.AddressDelete(params.AccountService, logg))
			r.Post("/{addressID}/default", controllers.AddressSetDefault(params.AccountService, logg))
		})
		r.Put("/location", controllers.GPSUpdate(params.AccountService, logg))
		r.Post("/location/toggle", controllers.GPSToggle(params.AccountService, logg))
		r.Patch("/preferences", controllers.PreferencesUpdate(params.AccountService, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.SessionChecker, logg))
		r.Get("/", controllers.Orders(params.PostPurchase, logg))
		r.Get("/returnable", controllers.ReturnableOrders(params.PostPurchase, logg))
		r.Get("/{orderID}", controllers.OrderStatus(params.PostPurchase, logg))
		r.Get("/{orderID}/tracking", controllers.OrderTracking(params.PostPurchase, logg))
		r.Post("/{orderID}/return", controllers.OrderReturn(params.PostPurchase, logg))
		r.Post("/{orderID}/exchange", controllers.OrderExchange(params.PostPurchase, logg))
		r.Post("/{orderID}/feedback", controllers.OrderFeedback(params.PostPurchase, logg))
	})

	return r
}
