package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/smallbiznis/valora/biz/dal/model"
	"github.com/smallbiznis/valora/biz/handler"
	"github.com/smallbiznis/valora/biz/middleware"
	"github.com/smallbiznis/valora/biz/router"
	"github.com/smallbiznis/valora/biz/service"
	"github.com/smallbiznis/valora/pkg/cache"
	"github.com/smallbiznis/valora/pkg/config"
	"github.com/smallbiznis/valora/pkg/database"
	"github.com/smallbiznis/valora/pkg/lock"
	"github.com/smallbiznis/valora/pkg/redis"
	"github.com/smallbiznis/valora/pkg/storage"
)

const configFile = "config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&model.TenantTemplate{},
		&model.Attachment{},
		&model.ObjectDefinition{},
		&model.ObjectField{},
		&model.ObjectRecord{},
		&model.ObjectRecordAttribute{},
	); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		middleware.InitWriteLock(lock.New(redisClient, "valora:write_lock", 30*time.Second, 5*time.Second))
		hlog.Info("distributed write lock enabled")
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	opts := []service.Option{service.WithStorage(store)}
	if cfg.Cache.Enabled {
		schemaCache, err := cache.New(cfg.Cache.MaxCostBytes, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("init cache: %w", err)
		}
		defer schemaCache.Close()
		opts = append(opts, service.WithCache(schemaCache))
	}
	svc := service.NewService(db, opts...)

	if err := svc.EnsureTenant(context.Background(), cfg.Seed); err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	h := server.Default(server.WithHostPorts(cfg.Server.Address))
	h.Use(
		middleware.Recovery(),
		middleware.Logging(),
		middleware.CORS(&cfg.CORS),
		middleware.Tenant(),
	)
	router.Register(h, router.Handlers{
		Platform:    handler.NewPlatformHandler(svc),
		Studio:      handler.NewStudioHandler(svc),
		Data:        handler.NewDataHandler(svc),
		Calculation: handler.NewCalculationHandler(svc),
		Attachment:  handler.NewAttachmentHandler(svc),
	})

	hlog.Infof("listening on %s", cfg.Server.Address)
	h.Spin()
	return nil
}
