package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/pkg/database"
)

type Infra struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Infra, error) {
	db, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("host", cfg.Database.Host), zap.String("name", cfg.Database.Name))

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = database.Close(db)
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	log.Info("redis ready", zap.String("addr", cfg.Redis.Addr))

	return &Infra{DB: db, Redis: rdb}, nil
}

func (i *Infra) Close() error {
	var firstErr error
	if err := i.Redis.Close(); err != nil {
		firstErr = fmt.Errorf("closing redis: %w", err)
	}
	if err := database.Close(i.DB); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	return firstErr
}
