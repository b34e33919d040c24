package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flower_shop/cache"
	"flower_shop/config"
	"flower_shop/database"
	"flower_shop/events"
	"flower_shop/handlers"
	"flower_shop/logger"
	"flower_shop/middleware"
	"flower_shop/pricing"
	"flower_shop/routes"
	"flower_shop/services"
	"flower_shop/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.Init(cfg.LogDir, cfg.LogDebug); err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// database
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN, cfg.LogDebug)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// cache: Redis when configured, otherwise process memory
	var (
		store cache.Store
		rdb   *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		store = cache.NewRedis(rdb)
	} else {
		memory := cache.NewMemory(time.Minute)
		defer memory.Close()
		store = memory
	}

	// catalog events
	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	// image storage
	var objects storage.ObjectStore
	uploadDir := ""
	switch cfg.StorageDriver {
	case "minio":
		objects, err = storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		objects, err = storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL)
		uploadDir = cfg.UploadDir
	}
	if err != nil {
		log.Fatalf("Failed to initialise image storage: %v", err)
	}

	// services
	resolver := pricing.NewResolver(cfg.Location, logger.ErrorLogger)
	catalogService := services.NewCatalogService(db, resolver, store, publisher, cfg.DiscountCacheTTL)
	productService := services.NewProductService(db, catalogService)
	promotionService := services.NewPromotionService(db, resolver, catalogService)
	categoryService := services.NewCategoryService(db, catalogService)
	imageService := services.NewImageService(db, objects, catalogService)
	userService := services.NewUserService(db, cfg.JWTSecret, cfg.JWTTTL)
	dashboardService := services.NewDashboardService(db, resolver)

	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed administrator: %v", err)
	}

	// other instances' writes invalidate this instance's cache
	if len(cfg.KafkaBrokers) > 0 {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)
		defer consumer.Close()
		go consumer.Run(ctx, catalogService.HandleEvent)
	}

	// router
	opts := routes.Options{
		Tokens:      userService,
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   uploadDir,
	}
	if rdb != nil {
		opts.LoginLimiter = middleware.RedisRateLimit(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow)
	}
	r := gin.New()
	routes.Setup(r, routes.Handlers{
		Products:   handlers.NewProductHandler(productService, catalogService),
		Promotions: handlers.NewPromotionHandler(promotionService),
		Categories: handlers.NewCategoryHandler(categoryService),
		Images:     handlers.NewImageHandler(imageService),
		Users:      handlers.NewUserHandler(userService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
	}, opts)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.LogInfo("listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.LogInfo("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError("server shutdown: %v", err)
	}
}
