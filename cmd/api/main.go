package main

import (
	"context"
	"log"
	"time"

	"bookline-inbox/internal/config"
	"bookline-inbox/internal/handler"
	"bookline-inbox/internal/inbox"
	appredis "bookline-inbox/internal/redis"
	"bookline-inbox/internal/repository"
	"bookline-inbox/internal/server"
	"bookline-inbox/internal/services"
	"bookline-inbox/internal/storage"
	"bookline-inbox/internal/websocket"
	"bookline-inbox/pkg/database"
	"bookline-inbox/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		l.Errorf("Failed to connect to database: %v", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	appredis.Initialize(appredis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	redisClient := appredis.GetClient()

	inbox.InitStoreLimiter(cfg.Inbox.StoreConcurrency)

	threads := repository.NewThreadRepository(pool)
	messages := repository.NewMessageRepository(pool)
	users := repository.NewUserRepository(pool)

	var attachments services.AttachmentURLResolver
	if cfg.S3.Bucket != "" {
		s3Client, err := storage.NewClient(ctx, storage.S3Config{
			Region:     cfg.S3.Region,
			Bucket:     cfg.S3.Bucket,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Endpoint:   cfg.S3.Endpoint,
			PresignTTL: cfg.S3.PresignTTL,
		})
		if err != nil {
			l.Errorf("Failed to initialize object storage: %v", err)
			log.Fatalf("Failed to initialize object storage: %v", err)
		}
		attachments = s3Client
	} else {
		l.Infof("Object storage not configured, attachment URLs disabled")
	}

	cache := appredis.NewPreviewCache(redisClient, appredis.CacheConfig{
		Enabled:        cfg.Cache.Enabled,
		TTL:            cfg.Cache.TTL,
		JitterFraction: cfg.Cache.JitterFraction,
	})
	notifier := services.NewNotifier(appredis.NewPublisher(redisClient))

	composer := services.NewComposer(threads, messages, users, attachments, l)
	inboxSvc := services.NewInboxService(composer, messages, cache, inbox.StoreLimiter(), l)
	messageSvc := services.NewMessageService(threads, messages, notifier, l)

	srv := server.New(cfg, l, pool)
	srv.SetupRoutes(&server.Handlers{
		Inbox:   handler.NewInboxHandler(inboxSvc, cfg.Inbox),
		Stream:  handler.NewStreamHandler(inboxSvc, cfg.Inbox, l),
		Message: handler.NewMessageHandler(messageSvc),
		WS:      websocket.NewHandler(inboxSvc, cfg.Inbox, l),
	})

	if err := srv.Start(); err != nil {
		l.Errorf("Server terminated with error: %v", err)
	}
}
