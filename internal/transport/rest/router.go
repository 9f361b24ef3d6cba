package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/attendance"
	"github.com/frahmantamala/opentna/internal/card"
	"github.com/frahmantamala/opentna/internal/role"
	"github.com/frahmantamala/opentna/internal/transport/middleware"
	"github.com/frahmantamala/opentna/internal/transport/swagger"
	"github.com/frahmantamala/opentna/internal/user"
)

// OpenAPIPath is where the API document is read from, relative to the
// working directory of the server.
var OpenAPIPath = "./api/openapi.yml"

// Handlers groups the resource handlers mounted under /api/v1. A nil handler
// leaves its routes unmounted.
type Handlers struct {
	Users      *user.Handler
	Roles      *role.Handler
	Cards      *card.Handler
	Attendance *attendance.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, handlers Handlers, cfg *internal.Config, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, cfg.Database.GetDriver())

	// Apply global middleware
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// OpenAPI document at root, outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, OpenAPIPath)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h := handlers.Users; h != nil {
			r.Route("/users", func(ur chi.Router) {
				ur.Post("/", h.CreateUser)
				ur.Get("/", h.ListUsers)
				ur.Get("/{id}", h.GetUser)
				ur.Patch("/{id}", h.UpdateUser)
				// GET resolves {id} as a username, PATCH as an identity.
				ur.Get("/{id}/profile", h.GetUserProfile)
				ur.Patch("/{id}/profile", h.UpdateProfile)
				ur.Patch("/{id}/change/username", h.ChangeUsername)
				ur.Patch("/{id}/change/password", h.ChangePassword)
				ur.Put("/{id}/roles", h.ReplaceRoles)
				ur.Put("/{id}/cards", h.ReplaceProximityCards)
				if a := handlers.Attendance; a != nil {
					ur.Get("/{id}/attendance", a.ListByUser)
				}
			})
		}

		if h := handlers.Roles; h != nil {
			r.Route("/roles", func(rr chi.Router) {
				rr.Post("/", h.CreateRole)
				rr.Get("/", h.ListRoles)
				rr.Get("/name/{name}", h.GetRoleByName)
				rr.Get("/{id}", h.GetRole)
				rr.Patch("/{id}", h.UpdateRole)
			})
		}

		if h := handlers.Cards; h != nil {
			r.Route("/cards", func(cr chi.Router) {
				cr.Post("/", h.CreateCard)
				cr.Get("/", h.ListCards)
				cr.Get("/serial/{serialNo}", h.GetCardBySerialNo)
				cr.Get("/{id}", h.GetCard)
				cr.Patch("/{id}", h.UpdateCard)
				if a := handlers.Attendance; a != nil {
					cr.Get("/{id}/attendance", a.ListByProximityCard)
				}
			})
		}

		if h := handlers.Attendance; h != nil {
			r.Route("/attendance", func(ar chi.Router) {
				ar.Post("/", h.CreateAttendance)
				ar.With(middleware.RateLimit(cfg.RateLimit, middleware.ClientIP, logger)).
					Post("/swipes", h.RecordSwipe)
				ar.Get("/{id}", h.GetAttendance)
				ar.Delete("/{id}/user", h.DetachUser)
			})
		}
	})
}
