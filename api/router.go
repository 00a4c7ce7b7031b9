// Package api assembles the chi router: global middleware, the REST surface,
// and the static upload file server.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"cohort-roster-backend/pkg/access"
	"cohort-roster-backend/pkg/config"
	"cohort-roster-backend/pkg/database"
	"cohort-roster-backend/pkg/handlers"
	customMiddleware "cohort-roster-backend/pkg/middleware"
	"cohort-roster-backend/pkg/utils"
)

// JSON bodies are small; only uploads need more room.
const maxJSONBodySize = 1 << 20

// New builds the fully wired HTTP handler. All dependencies are passed in
// explicitly so tests can run the real router against the in-memory store.
func New(cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupRoutes(router, cfg, db, logger)

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *zap.Logger) {
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(customMiddleware.RequestLogger(logger))
	router.Use(customMiddleware.Recovery(logger))
	router.Use(customMiddleware.CORS(cfg))
	router.Use(chimiddleware.Timeout(30 * time.Second))
	router.Use(chimiddleware.Compress(5))

	if cfg.IsDevelopment() {
		router.Use(chimiddleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, db database.DatabaseInterface, logger *zap.Logger) {
	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	evaluator := access.NewEvaluator(db)

	authHandler := handlers.NewAuthHandler(cfg, db, jwtService, logger)
	cohortsHandler := handlers.NewCohortsHandler(db, evaluator, logger)
	studentsHandler := handlers.NewStudentsHandler(db, evaluator, logger)
	uploadHandler := handlers.NewUploadHandler(cfg, logger)

	authMW := customMiddleware.AuthMiddleware(jwtService, db)

	// Connection pool stats for local debugging.
	if cfg.IsDevelopment() {
		if pg, ok := db.(*database.PostgresDatabase); ok {
			router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
				utils.WriteSuccessResponse(w, pg.Stats())
			})
		}
	}

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", authHandler.HealthCheck)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.ContentTypeJSON)
				r.Use(customMiddleware.MaxBodySize(maxJSONBodySize))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.With(authMW).Get("/verify", authHandler.Verify)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Route("/cohorts", func(r chi.Router) {
				r.Use(customMiddleware.ContentTypeJSON)
				r.Use(customMiddleware.MaxBodySize(maxJSONBodySize))

				r.Get("/", cohortsHandler.List)
				r.Post("/", cohortsHandler.Create)
				r.Get("/{id}", cohortsHandler.Get)
				r.Put("/{id}", cohortsHandler.Update)
				r.Delete("/{id}", cohortsHandler.Delete)
				r.Post("/{id}/share", cohortsHandler.Share)
				r.Get("/{id}/access", cohortsHandler.ListAccess)
				r.Delete("/access/{accessId}", cohortsHandler.RemoveAccess)
			})

			r.Route("/students", func(r chi.Router) {
				r.Use(customMiddleware.ContentTypeJSON)
				r.Use(customMiddleware.MaxBodySize(maxJSONBodySize))

				r.Get("/cohort/{cohortId}", studentsHandler.ListByCohort)
				r.Get("/{id}", studentsHandler.Get)
				r.Post("/", studentsHandler.Create)
				r.Put("/{id}", studentsHandler.Update)
				r.Delete("/{id}", studentsHandler.Delete)
			})

			r.Post("/upload", uploadHandler.Upload)
		})
	})

	// Uploaded photos are served as plain static files.
	uploadsServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir)))
	router.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		uploadsServer.ServeHTTP(w, r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
