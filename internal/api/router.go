package api

import (
	"net/http"
	"time"

	"crowdsolve/internal/api/handler"
	"crowdsolve/internal/app/service"
	"crowdsolve/internal/common/security"
	"crowdsolve/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func NewRouter(
	authService *service.AuthService,
	problemService *service.ProblemService,
	solutionService *service.SolutionService,
	voteService *service.VoteService,
	userService *service.UserService,
	statsService *service.StatsService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(metrics.HTTPMetricsMiddleware)

	// JWT Auth Middleware Setup
	// Verifies the token and puts claims in context. The token is looked up
	// in "Authorization: Bearer T" first, then in the auth cookie the
	// frontend relies on.
	r.Use(jwtauth.Verify(security.TokenAuth, jwtauth.TokenFromHeader, security.TokenFromCookie))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (register/login/logout public, /me authenticated)
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", authHandler.RegisterRoutes)

		// Problem routes (reads public, writes authenticated)
		problemHandler := handler.NewProblemHandler(problemService, solutionService)
		v1.Route("/problems", problemHandler.RegisterRoutes)

		// Solution routes (list public, votes and edits authenticated)
		solutionHandler := handler.NewSolutionHandler(solutionService, voteService)
		v1.Route("/solutions", solutionHandler.RegisterRoutes)

		// User profile routes
		userHandler := handler.NewUserHandler(userService)
		v1.Route("/users", userHandler.RegisterRoutes)

		// Standalone image upload (authenticated)
		uploadHandler := handler.NewUploadHandler(userService)
		v1.Route("/upload", uploadHandler.RegisterRoutes)

		// Site-wide stats (authenticated)
		statsHandler := handler.NewStatsHandler(statsService)
		v1.Route("/stats", statsHandler.RegisterRoutes)
	})

	// Spans are no-ops unless the tracing exporter is configured.
	return otelhttp.NewHandler(r, "crowdsolve")
}
