package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/drivehub/dsm-api/api/swagger"
	"github.com/drivehub/dsm-api/internal/handler"
	"github.com/drivehub/dsm-api/internal/middleware"
	"github.com/drivehub/dsm-api/internal/models"
	"github.com/drivehub/dsm-api/internal/repository"
	"github.com/drivehub/dsm-api/internal/service"
	"github.com/drivehub/dsm-api/pkg/cache"
	"github.com/drivehub/dsm-api/pkg/config"
	"github.com/drivehub/dsm-api/pkg/database"
	"github.com/drivehub/dsm-api/pkg/logger"
	corsmiddleware "github.com/drivehub/dsm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/drivehub/dsm-api/pkg/middleware/requestid"
)

// @title Driving School Management API
// @version 1.0.0
// @description Enrollment, lesson booking, progress tracking and student profiles
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.MigrateOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
		cancel()
	}

	var redisClient *redis.Client
	if cfg.Profile.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, profile caching disabled", "error", err)
			redisClient = nil
		}
	}

	validate := validator.New()

	requestRepo := repository.NewEnrollmentRequestRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	examRepo := repository.NewExamRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	tokenService := service.NewTokenService(cfg.JWT, logr)
	metricsService := service.NewMetricsService()
	enrollmentService := service.NewEnrollmentService(requestRepo, studentRepo, validate, logr)
	lessonService := service.NewLessonService(lessonRepo, validate, logr)
	bookingService := service.NewBookingService(bookingRepo, lessonRepo, studentRepo, validate, logr)
	progressService := service.NewProgressService(statsRepo, validate, logr)
	verificationService := service.NewVerificationService(studentRepo, statsRepo, logr)
	profileService := service.NewProfileService(studentRepo, statsRepo, bookingRepo, examRepo, cacheRepo, cfg.Profile.CacheTTL, validate, logr)
	exportService := service.NewExportService(profileService, nil, nil, logr)

	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	lessonHandler := handler.NewLessonHandler(lessonService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	progressHandler := handler.NewProgressHandler(progressService)
	verificationHandler := handler.NewVerificationHandler(verificationService)
	profileHandler := handler.NewProfileHandler(profileService, exportService, cfg.Exports.Enabled)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(tokenService))

	enrollments := api.Group("/enrollments")
	{
		enrollments.POST("/requests", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin), enrollmentHandler.Request)
		enrollments.POST("/requests/:id/approve", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), enrollmentHandler.Approve)
		enrollments.POST("/requests/:id/reject", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), enrollmentHandler.Reject)
		enrollments.GET("/status", enrollmentHandler.Status)
	}

	lessons := api.Group("/lessons")
	{
		lessons.GET("", lessonHandler.List)
		lessons.GET("/:id", lessonHandler.Get)
		lessons.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor), lessonHandler.Create)
		lessons.PUT("/:id/status", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor), lessonHandler.UpdateStatus)
		lessons.POST("/:id/bookings", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleStaff), bookingHandler.Book)
	}

	bookings := api.Group("/bookings")
	{
		bookings.GET("/:id", bookingHandler.Get)
		bookings.DELETE("/:id", middleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleStaff), bookingHandler.Cancel)
		bookings.PUT("/:id/attendance", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor), bookingHandler.MarkAttendance)
		bookings.PUT("/:id/payment", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), profileHandler.MarkLessonPaid)
	}

	api.PUT("/exam-registrations/:id/payment", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), profileHandler.MarkExamPaid)

	progress := api.Group("/progress")
	{
		progress.POST("/completions", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RoleInstructor), progressHandler.RecordCompletion)
		progress.GET("/stats", progressHandler.Stats)
	}

	verification := api.Group("/verification")
	{
		verification.GET("/enrollment", verificationHandler.Enrollment)
		verification.GET("/exam-eligibility", verificationHandler.ExamEligibility)
	}

	students := api.Group("/students")
	{
		staffOrSelf := middleware.RBAC("ADMIN", "STAFF", "SELF")
		students.GET("/:id/profile", staffOrSelf, profileHandler.Profile)
		students.GET("/:id/lessons", staffOrSelf, profileHandler.Lessons)
		students.GET("/:id/exams", staffOrSelf, profileHandler.Exams)
		students.GET("/:id/financial-summary", staffOrSelf, profileHandler.FinancialSummary)
		students.GET("/:id/financial-summary/export", staffOrSelf, profileHandler.ExportFinancialSummary)
		students.GET("/:id/lessons/export", staffOrSelf, profileHandler.ExportLessons)
		students.PUT("/:id/notes", middleware.RequireRoles(models.RoleAdmin, models.RoleStaff), profileHandler.UpdateNotes)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
