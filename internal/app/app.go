package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hanneswrnr/glasschadenmelden/database"
	"github.com/hanneswrnr/glasschadenmelden/internal/config"
	"github.com/hanneswrnr/glasschadenmelden/internal/handlers"
	"github.com/hanneswrnr/glasschadenmelden/internal/logger"
	"github.com/hanneswrnr/glasschadenmelden/internal/middleware"
	"github.com/hanneswrnr/glasschadenmelden/internal/realtime"
	"github.com/hanneswrnr/glasschadenmelden/internal/repositories"
	chatRepo "github.com/hanneswrnr/glasschadenmelden/internal/repositories/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/routes"
	chatService "github.com/hanneswrnr/glasschadenmelden/internal/services/chat"
	"github.com/hanneswrnr/glasschadenmelden/internal/storage"
	"github.com/hanneswrnr/glasschadenmelden/internal/validator"
	"github.com/hanneswrnr/glasschadenmelden/internal/workers"
	"github.com/hanneswrnr/glasschadenmelden/ws"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	ginRouter, worker := SetupRouter(cfg, gormDB)

	if err := worker.Start(); err != nil {
		logger.Fatal("Failed to start retention worker", "error", err)
	}
	defer worker.Stop()

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *workers.RetentionWorker) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	feed := newFeed(cfg)

	userRepo := repositories.NewUserRepository(gormDB)
	claimRepo := repositories.NewClaimRepository(gormDB)
	messageRepo := chatRepo.NewMessageRepository(gormDB)
	attachmentRepo := chatRepo.NewMessageAttachmentRepository(gormDB)

	wsManager := ws.NewManager()

	attachmentService := chatService.NewAttachmentService(attachmentRepo, storageInstance)
	chatSvc := chatService.NewService(
		claimRepo,
		messageRepo,
		userRepo,
		attachmentService,
		feed,
		wsManager,
		cfg.Chat.RetentionDays,
	)

	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	appHandlers := &handlers.AppHandlers{
		ChatHandler: handlers.NewChatHandler(baseHandler, chatSvc),
		FileHandler: handlers.NewFileHandler(baseHandler, storageInstance),
	}

	wsHandler := ws.NewHandler(wsManager, chatSvc)

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())

	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	worker := workers.NewRetentionWorker(
		claimRepo, messageRepo, attachmentRepo, storageInstance, cfg.Chat.RetentionDays)

	return ginRouter, worker
}

func newFeed(cfg *config.Config) realtime.Feed {
	if cfg.Realtime.Driver == "redis" {
		feed, err := realtime.NewRedisFeed(cfg.Realtime.RedisAddr, cfg.Realtime.RedisDB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err, "addr", cfg.Realtime.RedisAddr)
		}
		logger.Info("Realtime feed: redis", "addr", cfg.Realtime.RedisAddr)
		return feed
	}
	logger.Info("Realtime feed: in-memory")
	return realtime.NewHub()
}
