/**
 * 基础设施:Redis连接工厂
 * @author: linkc
 * @date: 2025.12.03
 * @description: 建立go-redis客户端,承载会话存储与权限缓存
 * @func: NewRedisConnection
 */
package database

import (
	"context"
	"fmt"
	"time"

	"openmaas/internal/config"

	"github.com/go-redis/redis/v8"
)

// redisPingTimeout 建连后的连通性检查超时
const redisPingTimeout = 5 * time.Second

// NewRedisConnection 建立Redis连接
// 会话存储与权限缓存共用该客户端,建立后立即Ping确认可用
func NewRedisConnection(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.Database,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeout),
		ReadTimeout:  time.Duration(cfg.ReadTimeout),
		WriteTimeout: time.Duration(cfg.WriteTimeout),
		PoolTimeout:  time.Duration(cfg.PoolTimeout),
		IdleTimeout:  time.Duration(cfg.IdleTimeout),
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis连通性检查失败: %w", err)
	}

	return client, nil
}
