// Package bootstrap connects the stores and builds the components shared by
// the api and worker commands.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/fathima-sithara/files-service/internal/config"
	"github.com/fathima-sithara/files-service/internal/database"
	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/notification"
	"github.com/fathima-sithara/files-service/internal/queue"
	"github.com/fathima-sithara/files-service/internal/repository"
	"github.com/fathima-sithara/files-service/internal/session"
	"github.com/fathima-sithara/files-service/internal/storage"
	"github.com/fathima-sithara/files-service/internal/thumbnail"
	"github.com/fathima-sithara/files-service/internal/utils"
	"github.com/fathima-sithara/files-service/internal/worker"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type AppContext struct {
	Config  *config.Config
	Logger  *zap.Logger
	Mongo   *mongo.Client
	Redis   *redis.Client
	Metrics *metrics.Metrics

	Files    repository.FileStore
	Users    repository.UserRepository
	Blobs    storage.BlobStore
	Sessions *session.Store

	ThumbnailQueue queue.Queue
	WelcomeQueue   queue.Queue
}

type CleanupFn func(context.Context)

func Init(ctx context.Context, configPath string) (*AppContext, CleanupFn, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.App.Env, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	app := &AppContext{Config: cfg, Logger: logger, Metrics: metrics.New()}
	logger.Info("starting files-manager", zap.String("env", cfg.App.Env))

	db, mongoClient, err := database.ConnectMongo(cfg.Mongo.URI, cfg.Mongo.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	app.Mongo = mongoClient

	rdb, err := database.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, nil, err
	}
	app.Redis = rdb

	cleanup := func(ctx context.Context) {
		if app.ThumbnailQueue != nil {
			_ = app.ThumbnailQueue.Close()
		}
		if app.WelcomeQueue != nil {
			_ = app.WelcomeQueue.Close()
		}
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close", zap.Error(err))
		}
		if err := mongoClient.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect", zap.Error(err))
		}
		_ = logger.Sync()
	}

	if app.Files, err = repository.NewMongoFileStore(ctx, db, cfg.Mongo.FilesCollection); err != nil {
		cleanup(ctx)
		return nil, nil, err
	}
	if app.Users, err = repository.NewMongoUserRepo(ctx, db, cfg.Mongo.UsersCollection); err != nil {
		cleanup(ctx)
		return nil, nil, err
	}
	app.Sessions = session.NewStore(session.NewRedisKV(rdb), cfg.SessionTTL)

	switch cfg.Storage.Driver {
	case "s3":
		s3, err := storage.NewS3Store(ctx, cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint, cfg.AWS.Prefix)
		if err != nil {
			cleanup(ctx)
			return nil, nil, fmt.Errorf("s3 init: %w", err)
		}
		app.Blobs = s3
	default:
		app.Blobs = storage.NewLocalStore(cfg.Storage.FolderPath)
	}

	app.ThumbnailQueue = app.newQueue(cfg.Queue.ThumbnailQueue)
	app.WelcomeQueue = app.newQueue(cfg.Queue.WelcomeQueue)
	logger.Info("queues ready", zap.String("driver", cfg.Queue.Driver))

	return app, cleanup, nil
}

func (a *AppContext) policy() queue.Policy {
	q := a.Config.Queue
	return queue.Policy{
		MaxAttempts:    q.MaxAttempts,
		InitialBackoff: time.Duration(q.RetryBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(q.MaxBackoffMs) * time.Millisecond,
	}
}

func (a *AppContext) newQueue(name string) queue.Queue {
	q := a.Config.Queue
	switch q.Driver {
	case "kafka":
		k := a.Config.Kafka
		return queue.NewKafkaQueue(queue.KafkaOptions{
			Brokers:  k.Brokers,
			Topic:    name,
			GroupID:  k.GroupID,
			DLQTopic: k.DLQTopic,
			Policy:   a.policy(),
		})
	case "memory":
		return queue.NewMemoryQueue(a.policy())
	default:
		return queue.NewRedisQueue(a.Redis, name, queue.RedisOptions{
			Policy:       a.policy(),
			PollInterval: time.Duration(q.PollIntervalMs) * time.Millisecond,
			Visibility:   time.Duration(q.VisibilitySecond) * time.Second,
		})
	}
}

// PingRedis and PingMongo back the status endpoint.
func (a *AppContext) PingRedis(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }

func (a *AppContext) PingMongo(ctx context.Context) error {
	return a.Mongo.Ping(ctx, readpref.Primary())
}

func (a *AppContext) notifier() notification.Notifier {
	e := a.Config.Email
	if e.BrevoAPIKey == "" {
		return notification.NewLogNotifier(a.Logger)
	}
	return notification.NewEmailNotifier(notification.EmailConfig{
		APIKey:      e.BrevoAPIKey,
		SenderEmail: e.SenderEmail,
		SenderName:  e.SenderName,
	}, a.Logger)
}

// Workers returns one runner per queue with its pipeline registered.
func (a *AppContext) Workers() []*worker.Runner {
	n := a.Config.Worker.Concurrency

	thumbs := worker.NewRunner(a.ThumbnailQueue, n, a.Logger.Named("thumbnail"), a.Metrics)
	thumbs.Register(queue.KindThumbnail, thumbnail.NewPipeline(
		a.Files, a.Blobs, thumbnail.ImagingRenderer{}, a.Config.Files.ThumbnailWidths, a.Logger, a.Metrics,
	))

	welcome := worker.NewRunner(a.WelcomeQueue, n, a.Logger.Named("welcome"), a.Metrics)
	welcome.Register(queue.KindWelcome, notification.NewPipeline(a.Users, a.notifier()))

	return []*worker.Runner{thumbs, welcome}
}
