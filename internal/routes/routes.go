package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/handlers"
	"github.com/mahadigital/schooldesk/internal/middleware"
	"github.com/mahadigital/schooldesk/internal/models"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	schoolHandler *handlers.SchoolHandler,
	studentHandler *handlers.StudentHandler,
	certificateHandler *handlers.CertificateHandler,
	tokenManager *auth.TokenManager,
) {
	loginLimit := middleware.DefaultLoginRateLimit()
	forgotLimit := middleware.DefaultForgotPasswordRateLimit()

	// Public routes - no authentication required
	router.Post("/schools/register", schoolHandler.Register)
	router.With(middleware.RateLimitByIP(loginLimit)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(forgotLimit)).Post("/auth/forgot-password", authHandler.ForgotPassword)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Post("/auth/change-password", authHandler.ChangePassword)
		r.Post("/auth/change-password-temp", authHandler.ChangePasswordFromTempLogin)
		r.Get("/schools/info", schoolHandler.GetInfo)

		r.Post("/students", studentHandler.Register)
		r.Get("/students", studentHandler.List)
		r.Get("/students/search", studentHandler.Search)
		r.Get("/students/{id}", studentHandler.Get)

		r.Post("/certificates/request", certificateHandler.Request)
		r.Get("/certificates", certificateHandler.ListAll)
		r.Get("/certificates/{id}/download", certificateHandler.Download)

		// Principal-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RolePrincipal))
			r.Get("/certificates/pending", certificateHandler.ListPending)
			r.Post("/certificates/{id}/approve", certificateHandler.Approve)
			r.Post("/certificates/{id}/reject", certificateHandler.Reject)
		})
	})
}
