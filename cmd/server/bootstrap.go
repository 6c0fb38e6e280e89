package main

import (
	"context"

	"github.com/atelierhq/atelier/backend/internal/config"
	"github.com/atelierhq/atelier/backend/internal/handlers"
	"github.com/atelierhq/atelier/backend/internal/models"
	"github.com/atelierhq/atelier/backend/internal/services"
	"github.com/atelierhq/atelier/backend/internal/utils"
	"github.com/atelierhq/atelier/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue           services.TaskQueue
	worker              *services.Worker
	activityService     *services.ActivityService
	notificationService *services.NotificationService

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	clientHandler       *handlers.ClientHandler
	projectHandler      *handlers.ProjectHandler
	taskHandler         *handlers.TaskHandler
	memberHandler       *handlers.MemberHandler
	fileHandler         *handlers.FileHandler
	notificationHandler *handlers.NotificationHandler
	activityHandler     *handlers.ActivityHandler
	dashboardHandler    *handlers.DashboardHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	db := models.GetDB()

	// Task queue first: the activity dispatcher rides on it
	taskQueue := services.InitTaskQueue(cfg)
	activityService := services.NewActivityService(db, taskQueue)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(func(ctx context.Context, t *services.DispatchTask) error {
			_, err := activityService.SweepOutbox(ctx)
			return err
		})
	}

	permService := services.NewPermissionService(db, activityService)
	notificationService := services.NewNotificationService(db)
	taskService := services.NewTaskService(db, permService, activityService, notificationService)
	projectService := services.NewProjectService(db, permService, activityService, notificationService)
	memberService := services.NewMemberService(db, permService, activityService)
	fileService := services.NewFileService(db, permService, activityService)
	clientService := services.NewClientService(db)
	userService := services.NewUserService(db, activityService)
	dashboardService := services.NewDashboardService(db)

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(func(ctx context.Context, t *services.DispatchTask) error {
				_, err := activityService.SweepOutbox(ctx)
				return err
			})
			worker.Start()
		}
	}

	// Schedulers: outbox sweep + ledger retention, due-soon scan
	services.StartRetentionScheduler(activityService, cfg.Scheduler.ActivityRetentionDays)
	notificationService.StartScheduler(cfg.Scheduler.DueSoonWindowDays)

	return &appServices{
		taskQueue:           taskQueue,
		worker:              worker,
		activityService:     activityService,
		notificationService: notificationService,

		authHandler:         handlers.NewAuthHandler(userService, &cfg.JWT),
		userHandler:         handlers.NewUserHandler(userService),
		clientHandler:       handlers.NewClientHandler(clientService),
		projectHandler:      handlers.NewProjectHandler(projectService, permService),
		taskHandler:         handlers.NewTaskHandler(taskService, permService),
		memberHandler:       handlers.NewMemberHandler(memberService, permService),
		fileHandler:         handlers.NewFileHandler(fileService, permService),
		notificationHandler: handlers.NewNotificationHandler(notificationService),
		activityHandler:     handlers.NewActivityHandler(activityService),
		dashboardHandler:    handlers.NewDashboardHandler(dashboardService),
		healthHandler:       handlers.NewHealthHandler(),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.notificationService.StopScheduler()
	services.StopRetentionScheduler()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
