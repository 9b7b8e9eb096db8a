package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campushq/college-fees-api/api/swagger"
	"github.com/campushq/college-fees-api/internal/handler"
	"github.com/campushq/college-fees-api/internal/middleware"
	"github.com/campushq/college-fees-api/internal/models"
	"github.com/campushq/college-fees-api/internal/repository"
	"github.com/campushq/college-fees-api/internal/service"
	"github.com/campushq/college-fees-api/pkg/cache"
	"github.com/campushq/college-fees-api/pkg/config"
	"github.com/campushq/college-fees-api/pkg/database"
	"github.com/campushq/college-fees-api/pkg/jobs"
	"github.com/campushq/college-fees-api/pkg/logger"
	corsmiddleware "github.com/campushq/college-fees-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushq/college-fees-api/pkg/middleware/requestid"
)

// @title College Fees API
// @version 1.0.0
// @description Fee template resolution, student fee ledgers and receipt workflow
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, catalog cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	workflow := service.NewReceiptWorkflow()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      "college-fees-api",
	})

	templateSvc := service.NewTemplateService(templateRepo, cacheRepo, metricsSvc, validate, logr, service.TemplateServiceConfig{
		CacheEnabled: cfg.Catalog.Enabled && redisClient != nil,
		CacheTTL:     cfg.Catalog.CacheTTL,
	})

	// The queue handler closes over the assignment service, which itself
	// enqueues onto the queue, so the service variable is bound after
	// construction.
	var assignmentSvc *service.AssignmentService
	bulkQueue := jobs.NewQueue(service.JobTypeBulkAssign, func(ctx context.Context, job jobs.Job) error {
		return assignmentSvc.HandleBulkAssignJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.BulkSync.Workers,
		MaxRetries: cfg.BulkSync.MaxRetries,
		RetryDelay: cfg.BulkSync.RetryDelay,
		Logger:     logr,
	})

	assignmentSvc = service.NewAssignmentService(studentRepo, ledgerRepo, templateSvc, workflow, bulkQueue, metricsSvc, logr, service.AssignmentServiceConfig{
		CurrentAcademicYear: cfg.Fees.CurrentAcademicYear,
	})

	chargeSvc := service.NewChargeService(studentRepo, ledgerRepo, receiptRepo, workflow, validate, logr, service.ChargeServiceConfig{
		CurrentAcademicYear:     cfg.Fees.CurrentAcademicYear,
		LockChargesAfterPayment: cfg.Fees.LockChargesAfterPayment,
	})

	paymentSvc := service.NewPaymentService(receiptRepo, ledgerRepo, studentRepo, templateRepo, workflow, metricsSvc, validate, logr, service.PaymentServiceConfig{
		CurrentAcademicYear: cfg.Fees.CurrentAcademicYear,
	})

	studentSvc := service.NewStudentService(studentRepo, logr)
	sectionSvc := service.NewSectionService(sectionRepo, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	feeHandler := handler.NewFeeHandler(assignmentSvc, chargeSvc, paymentSvc)
	receiptHandler := handler.NewReceiptHandler(paymentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	// Template catalog is admin-only end to end.
	templates := authed.Group("/fees/templates")
	templates.Use(middleware.RBAC(models.RoleAdmin))
	{
		templates.GET("", templateHandler.List)
		templates.POST("", templateHandler.Create)
		templates.GET("/:id", templateHandler.Get)
		templates.PUT("/:id", templateHandler.Update)
		templates.DELETE("/:id", templateHandler.Delete)
	}

	// Ledger mutations are admin-only; the services enforce the same policy
	// so internal callers cannot bypass it.
	feeAdmin := authed.Group("")
	feeAdmin.Use(middleware.RBAC(models.RoleAdmin))
	{
		feeAdmin.POST("/students/:id/fees/assign", feeHandler.Assign)
		feeAdmin.POST("/fees/assignments/bulk", feeHandler.BulkAssign)
		feeAdmin.POST("/students/:id/fees/charges", feeHandler.AddCharge)
		feeAdmin.DELETE("/students/:id/fees/charges/index/:index", feeHandler.RemoveChargeAt)
		feeAdmin.DELETE("/students/:id/fees/charges/:chargeId", feeHandler.RemoveCharge)
		feeAdmin.GET("/fees/defaulters", receiptHandler.Defaulters)
		feeAdmin.PUT("/students/:id/fee-profile", studentHandler.SetFeeProfile)
		feeAdmin.GET("/students", studentHandler.List)
		feeAdmin.GET("/students/:id", studentHandler.Get)
		feeAdmin.GET("/sections", sectionHandler.List)
		feeAdmin.GET("/sections/:id", sectionHandler.Get)
	}

	// Receipt routes and the breakdown view carry fine-grained rules (class
	// teacher, own student, linked parent) that depend on the target record,
	// so they are gated by the workflow predicates inside the services.
	{
		authed.GET("/students/:id/fees", feeHandler.Breakdown)
		authed.POST("/fees/ledgers/:id/receipts", receiptHandler.Record)
		authed.GET("/fees/receipts", receiptHandler.List)
		authed.PUT("/fees/receipts/:id", receiptHandler.Edit)
		authed.DELETE("/fees/receipts/:id", receiptHandler.Delete)
		authed.POST("/fees/receipts/:id/state", receiptHandler.SetState)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bulkQueue.Start(ctx)
	defer bulkQueue.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logr.Sugar().Warnw("failed to close redis client", "error", err)
		}
	}
}
