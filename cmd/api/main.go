package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"reportflow/internal/config"
	"reportflow/internal/database"
	"reportflow/internal/handler"
	"reportflow/internal/middleware"
	"reportflow/internal/notifier"
	"reportflow/internal/repository"
	"reportflow/internal/service"
	"reportflow/internal/storage"
	"reportflow/internal/websocket"
	"reportflow/internal/workflow"
	"reportflow/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Report Approval API
// @version         1.0
// @description     Report creation and two-tier approval workflow with audit trail and notifications.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		log.Fatalf("Logger setup failed: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(cfg.Database.DSN(), zapLogger)
	if err != nil {
		zapLogger.Fatal("database connection failed", zap.Error(err))
	}
	zapLogger.Info("connected to PostgreSQL")

	jwtSecret := []byte(cfg.JWT.Secret)
	middleware.Init(jwtSecret, db)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(zapLogger)
	go wsHub.Run()

	// Attachment storage
	store, err := storage.NewLocalAttachmentStore(cfg.Storage.AttachmentDir, zapLogger)
	if err != nil {
		zapLogger.Fatal("attachment store setup failed", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	reportRepo := repository.NewReportRepository(db)
	signatureRepo := repository.NewSignatureRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	roleRepo := repository.NewRoleRepository(db)

	// Notification channels and dispatcher
	var channels []notifier.Channel
	if cfg.Email.Enabled {
		channels = append(channels, notifier.NewEmailChannel(notifier.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			From:     cfg.Email.From,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
		}, zapLogger))
	}
	if cfg.SMS.Enabled {
		channels = append(channels, notifier.NewSMSChannel(notifier.SMSConfig{
			GatewayURL: cfg.SMS.GatewayURL,
			APIKey:     cfg.SMS.APIKey,
			Sender:     cfg.SMS.Sender,
		}, zapLogger))
	}
	if len(cfg.Webhook.URLs) > 0 {
		channels = append(channels, notifier.NewWebhookChannel(notifier.WebhookConfig{
			URLs: cfg.Webhook.URLs,
		}, zapLogger))
	}
	channels = append(channels, notifier.NewPushChannel(wsHub))

	dispatcher := notifier.NewDispatcher(userRepo, notificationRepo, channels, zapLogger)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Workflow engine
	engine := workflow.NewEngine(db, dispatcher, zapLogger)

	// Services
	userService := service.NewUserService(userRepo, db, jwtSecret)
	reportService := service.NewReportService(db, engine, reportRepo, signatureRepo, attachmentRepo)
	attachmentService := service.NewAttachmentService(db, attachmentRepo, store)
	auditService := service.NewAuditService(auditRepo)
	roleService := service.NewRoleService(roleRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	statisticsService := service.NewStatisticsService(db)

	if err := roleService.SeedDefaults(context.Background()); err != nil {
		zapLogger.Warn("failed to seed default roles", zap.Error(err))
	}

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	reportHandler := handler.NewReportHandler(reportService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	auditHandler := handler.NewAuditHandler(auditService)
	roleHandler := handler.NewRoleHandler(roleService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, jwtSecret)
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	attachmentHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	roleHandler.RegisterRoutes(router.Group(""))
	notificationHandler.RegisterRoutes(router.Group(""))
	statisticsHandler.RegisterRoutes(router.Group(""))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	zapLogger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
}
