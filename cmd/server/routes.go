package main

import (
	"github.com/atelierhq/atelier/backend/internal/middleware"
	"github.com/atelierhq/atelier/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public auth endpoints
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.POST("/signup", svc.authHandler.Signup)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/refresh", svc.authHandler.Refresh)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Dashboard
			protected.GET("/dashboard/stats", svc.dashboardHandler.GetStats)

			// Clients
			protected.GET("/clients", svc.clientHandler.List)
			protected.GET("/clients/:id", svc.clientHandler.GetByID)
			protected.POST("/clients", svc.clientHandler.Create)
			protected.PUT("/clients/:id", svc.clientHandler.Update)
			protected.DELETE("/clients/:id", svc.clientHandler.Delete)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.GetByID)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.POST("/projects/:id/transition", svc.projectHandler.TransitionPhase)
			protected.DELETE("/projects/:id", svc.projectHandler.Delete)

			// Project members
			protected.GET("/projects/:id/members", svc.memberHandler.List)
			protected.POST("/projects/:id/members", svc.memberHandler.Upsert)
			protected.DELETE("/projects/:id/members/:userId", svc.memberHandler.Remove)

			// Project files
			protected.GET("/projects/:id/files", svc.fileHandler.List)
			protected.POST("/projects/:id/files", svc.fileHandler.Create)
			protected.DELETE("/files/:id", svc.fileHandler.Delete)

			// Tasks
			protected.GET("/projects/:id/tasks", svc.taskHandler.List)
			protected.GET("/tasks/:id", svc.taskHandler.GetByID)
			protected.POST("/tasks", svc.taskHandler.Create)
			protected.PUT("/tasks/:id", svc.taskHandler.Update)
			protected.PUT("/tasks/:id/status", svc.taskHandler.TransitionStatus)
			protected.POST("/tasks/bulk/status", svc.taskHandler.BulkTransitionStatus)
			protected.POST("/tasks/bulk/delete", svc.taskHandler.BulkDelete)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.PUT("/notifications/:id/read", svc.notificationHandler.MarkRead)

			// Activity ledger
			protected.GET("/activities", svc.activityHandler.List)

			// Users (directory for assignment pickers)
			protected.GET("/users", svc.userHandler.List)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.DELETE("/users/:id", svc.userHandler.Deactivate)
		}
	}
}
