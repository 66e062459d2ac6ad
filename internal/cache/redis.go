package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"go_sitebuilder/internal/config"
)

// Open 创建共享 redis 客户端（会话、登录计数、ACME challenge 共用）
// ping 失败时关闭客户端并返回错误
func Open(ctx context.Context, cfg config.RedisConfig, log *logrus.Entry) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	if log != nil {
		log.WithFields(logrus.Fields{"addr": cfg.Addr, "db": cfg.DB}).Info("redis connected")
	}
	return client, nil
}
