package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/hugh/go-pools/internal/api/handlers"
	"github.com/hugh/go-pools/internal/api/middleware"
	"github.com/hugh/go-pools/internal/auth"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
	limiters []*middleware.RateLimiter
	stopCSRF chan struct{}
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	AuthService    *auth.Service
	Boards         *boards.Service
	AsynqClient    *asynq.Client // nil when Redis is unreachable
	BaseURL        string        // public URL used in invite links
	SecureCookies  bool          // set Secure on session cookies
	AllowedOrigins []string      // CORS allowed origins
	RateLimitReqs  int           // Rate limit requests per window
	RateLimitSecs  int           // Rate limit window in seconds
	ClaimLimitReqs int           // Per-user limit on claims and picks
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()
	router := &Router{Router: r, stopCSRF: make(chan struct{})}

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitReqs, cfg.RateLimitSecs)
		router.limiters = append(router.limiters, limiter)
		r.Use(middleware.RateLimit(limiter, middleware.ByIP))
	}

	// CORS - restrict to configured origins, or allow all in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		// Default to localhost for development - configure in production
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	csrfStore := middleware.NewCSRFStore()
	go csrfStore.Run(5*time.Minute, router.stopCSRF)

	// Per-user limiter for the hot write paths
	claimLimiter := middleware.NewRateLimiter(cfg.ClaimLimitReqs, 60)
	router.limiters = append(router.limiters, claimLimiter)
	limitClaims := middleware.RateLimit(claimLimiter, middleware.ByUser)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger, cfg.SecureCookies)
	boardHandler := handlers.NewBoardHandler(cfg.Boards, cfg.Logger)
	squareHandler := handlers.NewSquareHandler(cfg.Boards, cfg.Logger)
	propHandler := handlers.NewPropHandler(cfg.Boards, cfg.Logger)
	memberHandler := handlers.NewMemberHandler(cfg.Boards, cfg.Logger, cfg.BaseURL)

	var queue handlers.Enqueuer
	if cfg.AsynqClient != nil {
		queue = cfg.AsynqClient
	}
	maintenanceHandler := handlers.NewMaintenanceHandler(queue, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CSRF(csrfStore))

		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.AuthService))

			r.Get("/me", authHandler.Me)
			r.Post("/invites/accept", memberHandler.AcceptInvite)

			r.Route("/boards", func(r chi.Router) {
				r.Get("/", boardHandler.List)
				r.Post("/", boardHandler.Create)

				r.Route("/{boardID}", func(r chi.Router) {
					r.Get("/", boardHandler.Get)
					r.Put("/", boardHandler.Update)
					r.Delete("/", boardHandler.Delete)

					r.Get("/squares", squareHandler.List)
					r.With(limitClaims).Post("/squares", squareHandler.Claim)
					r.With(limitClaims).Delete("/squares", squareHandler.Release)
					r.Post("/reset", squareHandler.Reset)
					r.Post("/numbers", squareHandler.AssignNumbers)
					r.Delete("/numbers", squareHandler.ClearNumbers)
					r.Get("/winner", squareHandler.Winner)

					r.Route("/props", func(r chi.Router) {
						r.Get("/", propHandler.List)
						r.Post("/", propHandler.Create)
						r.Put("/{propID}", propHandler.Update)
						r.Delete("/{propID}", propHandler.Delete)
						r.With(limitClaims).Put("/{propID}/pick", propHandler.Pick)
						r.With(limitClaims).Delete("/{propID}/pick", propHandler.ClearPick)
					})

					r.Get("/members", memberHandler.List)
					r.Put("/members/{userID}", memberHandler.ChangeRole)
					r.Delete("/members/{userID}", memberHandler.Remove)

					r.Get("/invites", memberHandler.ListInvites)
					r.Post("/invites", memberHandler.CreateInvite)
					r.Delete("/invites/{inviteID}", memberHandler.RevokeInvite)
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/boards", boardHandler.AdminList)
				r.Post("/cleanup", maintenanceHandler.TriggerCleanup)
			})
		})
	})

	return router
}

// Close stops the background goroutines owned by the router.
func (r *Router) Close() {
	for _, l := range r.limiters {
		l.Stop()
	}
	close(r.stopCSRF)
}
