package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/kanbanhq/board-management/internal/auth"
	"github.com/kanbanhq/board-management/internal/cache"
	"github.com/kanbanhq/board-management/internal/permission"
	"github.com/kanbanhq/board-management/internal/profile"
	"github.com/kanbanhq/board-management/internal/team"
	"github.com/kanbanhq/board-management/internal/transport/middleware"
	"github.com/kanbanhq/board-management/internal/transport/swagger"
	"github.com/kanbanhq/board-management/internal/user"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	c cache.Cache,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	profileHandler *profile.Handler,
	teamHandler *team.Handler,
	permissionHandler *permission.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, c)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware())

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", authHandler.Login)
			sr.Post("/refresh", authHandler.RefreshToken)
			sr.Post("/logout", authHandler.Logout)
		})

		// Everything below requires a verified token and a resolved
		// permission context.
		r.Group(func(pr chi.Router) {
			pr.Use(authHandler.AuthMiddleware)

			pr.Get("/users/me", userHandler.GetCurrentUser)

			pr.Route("/permissions", func(sr chi.Router) {
				sr.Use(middleware.RequirePermission(permission.ViewPermissionData))
				sr.Get("/", permissionHandler.ListPermissions)
				sr.Get("/data", permissionHandler.GetPermissionData)
			})

			pr.Route("/profiles", func(sr chi.Router) {
				sr.Use(middleware.RequirePermission(permission.ManageProfiles))
				sr.Get("/", profileHandler.ListProfiles)
				sr.Post("/", profileHandler.CreateProfile)
				sr.Get("/{id}", profileHandler.GetProfile)
				sr.Patch("/{id}", profileHandler.UpdateProfile)
				sr.Delete("/{id}", profileHandler.DeleteProfile)
				sr.Post("/{id}/permissions", profileHandler.AssignPermission)
				sr.Delete("/{id}/permissions/{permissionID}", profileHandler.RemovePermission)
			})

			pr.Route("/teams", func(sr chi.Router) {
				sr.Use(middleware.RequirePermission(permission.ManageTeams))
				sr.Get("/", teamHandler.ListTeams)
				sr.Post("/", teamHandler.CreateTeam)
				sr.Get("/{id}", teamHandler.GetTeam)
				sr.Patch("/{id}", teamHandler.UpdateTeam)
				sr.Delete("/{id}", teamHandler.DeleteTeam)
				sr.Get("/{id}/members", teamHandler.ListMembers)
				sr.Post("/{id}/members", teamHandler.AddMember)
				sr.Delete("/{id}/members/{userID}", teamHandler.RemoveMember)
				sr.Post("/{id}/profiles", teamHandler.AssignProfile)
				sr.Delete("/{id}/profiles/{profileID}", teamHandler.UnassignProfile)
			})

			pr.Route("/users", func(sr chi.Router) {
				sr.Use(middleware.RequirePermission(permission.ManageUsers))
				sr.Get("/", userHandler.ListUsers)
				sr.Post("/", userHandler.CreateUser)
				sr.Get("/{id}", userHandler.GetUser)
				sr.Patch("/{id}", userHandler.UpdateUser)
				sr.Delete("/{id}", userHandler.DeleteUser)
				sr.Patch("/{id}/profile", userHandler.AssignProfile)
				sr.Patch("/{id}/password", userHandler.ChangePassword)
				sr.Post("/{id}/deactivate", userHandler.DeactivateUser)
			})
		})
	})
}
