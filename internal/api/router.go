package api

import (
	"code_golf/internal/api/handler"
	"code_golf/internal/app/service"
	"code_golf/internal/common/security"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	challengeService *service.ChallengeService,
	solutionService *service.SolutionService,
	leaderboardService *service.LeaderboardService,
	invalidationService *service.InvalidationService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// JWT Auth Middleware Setup
	// Verifies a token from "Authorization: Bearer T" and puts claims in context.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		// Challenge routes (some public, some admin)
		challengeHandler := handler.NewChallengeHandler(challengeService)
		v1.Route("/challenges", challengeHandler.RegisterRoutes)
		v1.Route("/languages", challengeHandler.RegisterLanguageRoutes)

		// Solution routes (authenticated) + public leaderboard
		solutionHandler := handler.NewSolutionHandler(solutionService, leaderboardService, invalidationService)
		v1.Route("/solutions", solutionHandler.RegisterRoutes)
		v1.Route("/leaderboard", solutionHandler.RegisterPublicRoutes)
	})

	return r
}
