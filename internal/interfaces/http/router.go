package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/manorfm/identity-server/internal/application"
	"github.com/manorfm/identity-server/internal/domain"
	"github.com/manorfm/identity-server/internal/infrastructure/config"
	"github.com/manorfm/identity-server/internal/interfaces/http/handlers"
	"github.com/manorfm/identity-server/internal/interfaces/http/middleware/auth"
	"github.com/manorfm/identity-server/internal/interfaces/http/middleware/ratelimit"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Pinger reports whether a storage backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the stores the router builds its services on. Health
// lists what the readiness probe pings and may be empty.
type Dependencies struct {
	Entities     domain.EntityRepository
	Clients      domain.ClientRepository
	Tokens       domain.TokenRepository
	Codes        domain.CodeStore
	Transactions domain.TransactionStore
	Health       []Pinger
}

type Router struct {
	router  *chi.Mux
	limiter *ratelimit.RateLimiter
}

func NewRouter(
	deps Dependencies,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	credentials := application.NewCredentials(deps.Entities, deps.Clients, deps.Tokens, logger)
	grantService := application.NewGrantService(deps.Codes, deps.Tokens, credentials, application.GrantConfig{
		CodeLength:         cfg.AuthCodeLength,
		AccessTokenTTL:     cfg.AccessTokenTTL,
		RefreshTokenTTL:    cfg.RefreshTokenTTL,
		IssueRefreshTokens: cfg.IssueRefreshTokens,
	}, logger)
	authorizationService := application.NewAuthorizationService(deps.Clients, deps.Tokens, deps.Transactions, grantService,
		application.AuthorizationConfig{TransactionIDLength: cfg.TransactionIDLength}, logger)
	saltService := application.NewSaltService(deps.Entities, cfg.SaltSecret, logger)
	clientService := application.NewClientService(deps.Clients, deps.Tokens, logger)
	entityService := application.NewEntityService(deps.Entities, logger)

	authMiddleware := auth.NewAuthMiddleware(credentials, logger)

	// Initialize handlers
	authorizationHandler := handlers.NewAuthorizationHandler(authorizationService, logger)
	tokenHandler := handlers.NewTokenHandler(grantService, credentials, logger)
	saltHandler := handlers.NewSaltHandler(saltService, logger)
	resourceHandler := handlers.NewResourceHandler(logger)
	clientHandler := handlers.NewClientHandler(clientService, logger)
	entityHandler := handlers.NewEntityHandler(entityService, logger)

	// Create router with middleware
	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 3*time.Minute)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			for _, p := range deps.Health {
				if err := p.Ping(r.Context()); err != nil {
					logger.Error("Storage health check failed", zap.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte("Storage unavailable"))
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	// Swagger UI configuration
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
		httpSwagger.DeepLinking(true),
		httpSwagger.PersistAuthorization(true),
	))

	// Serve Swagger JSON with CORS headers
	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger.json")
	})

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/token", tokenHandler.TokenHandler)
			r.Get("/auth/salt", saltHandler.SaltHandler)
		})

		// Resource owner routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.ResourceOwner)
			r.Get("/auth/authorize", authorizationHandler.AuthorizeHandler)
			r.Post("/auth/decision", authorizationHandler.DecisionHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator)
			r.Get("/auth/random-number", resourceHandler.RandomNumberHandler)
			r.Get("/auth/me", resourceHandler.MeHandler)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticator, authMiddleware.RequireAdmin)
			r.Post("/clients", clientHandler.CreateClientHandler)
			r.Get("/clients", clientHandler.ListClientsHandler)
			r.Get("/clients/{id}", clientHandler.GetClientHandler)
			r.Put("/clients/{id}", clientHandler.UpdateClientHandler)
			r.Delete("/clients/{id}", clientHandler.DeleteClientHandler)
			r.Get("/clients/{id}/tokens", clientHandler.ListTokensHandler)
			r.Delete("/tokens/{id}", clientHandler.RevokeTokenHandler)
			r.Post("/entities", entityHandler.CreateEntityHandler)
			r.Get("/entities/{id}", entityHandler.GetEntityHandler)
		})
	})

	return &Router{router: router, limiter: rateLimiter}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// Close stops the background work started by NewRouter
func (r *Router) Close() {
	r.limiter.Stop()
}
