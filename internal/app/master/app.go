/**
 * 应用程序装配
 * @author: linkc
 * @date: 2025.12.03
 * @description: 装配配置、日志、数据库连接与路由，对外提供App实例
 * @func: NewApp / GetConfig / GetRouter / Close
 */
package master

import (
	"fmt"

	"openmaas/internal/app/master/router"
	"openmaas/internal/config"
	"openmaas/internal/pkg/database"
	"openmaas/internal/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App 应用程序结构体
type App struct {
	config      *config.Config
	db          *gorm.DB
	redisClient *redis.Client
	router      *router.Router
}

// NewApp 创建新的应用程序实例
// 按顺序完成:配置加载 -> 日志初始化 -> MySQL/Redis连接 -> 路由装配
func NewApp() (*App, error) {
	// 加载配置（路径与环境从环境变量推导，均有默认值）
	cfg, err := config.LoadConfig("", "")
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 初始化日志
	if _, err := logger.InitLogger(&cfg.Log); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 连接MySQL
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		return nil, fmt.Errorf("MySQL连接失败: %w", err)
	}

	// 连接Redis
	redisClient, err := database.NewRedisConnection(&cfg.Database.Redis)
	if err != nil {
		return nil, fmt.Errorf("Redis连接失败: %w", err)
	}

	// 装配路由
	r, err := router.NewRouter(db, redisClient, cfg)
	if err != nil {
		return nil, fmt.Errorf("路由装配失败: %w", err)
	}
	r.SetupRoutes()

	// 监听配置文件变化,热更新失败不阻塞启动
	if err := config.StartConfigWatcher("", cfg.App.Environment,
		config.LogConfigReloadCallback,
		config.CacheConfigReloadCallback,
	); err != nil {
		logger.LogSystemEvent("config", "watcher_start_failed", "启动配置监听失败", logrus.WarnLevel, map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.LogSystemEvent("app", "startup", "应用初始化完成", logrus.InfoLevel, map[string]interface{}{
		"app_name":    cfg.App.Name,
		"app_version": cfg.App.Version,
		"environment": cfg.App.Environment,
		"timestamp":   logger.NowFormatted(),
	})

	return &App{
		config:      cfg,
		db:          db,
		redisClient: redisClient,
		router:      r,
	}, nil
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetRouter 获取路由器实例
func (a *App) GetRouter() *router.Router {
	return a.router
}

// Close 释放应用持有的连接资源
func (a *App) Close() error {
	var firstErr error

	if err := config.StopConfigWatcher(); err != nil {
		firstErr = fmt.Errorf("停止配置监听失败: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("关闭Redis连接失败: %w", err)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("关闭MySQL连接失败: %w", err)
			}
		}
	}

	logger.LogSystemEvent("app", "shutdown", "应用资源已释放", logrus.InfoLevel, map[string]interface{}{
		"timestamp": logger.NowFormatted(),
	})

	return firstErr
}
