/**
 * 基础设施:MySQL连接工厂
 * @author: linkc
 * @date: 2025.12.03
 * @description: 按配置建立GORM MySQL连接并配置连接池
 * @func: NewMySQLConnection
 */
package database

import (
	"fmt"
	"time"

	"openmaas/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogLevels 配置项到GORM日志级别的映射,未知值回落到Info
var gormLogLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
}

// buildMySQLDSN 拼接GORM MySQL驱动的DSN
func buildMySQLDSN(cfg *config.MySQLConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		cfg.Username, cfg.Password,
		cfg.Host, cfg.Port, cfg.Database,
		cfg.Charset, cfg.ParseTime, cfg.Loc,
	)
}

// NewMySQLConnection 建立MySQL连接
// 连接池参数取自配置,建立后立即Ping确认可用
func NewMySQLConnection(cfg *config.MySQLConfig) (*gorm.DB, error) {
	logLevel, ok := gormLogLevels[cfg.LogLevel]
	if !ok {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(buildMySQLDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层sql.DB失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime))
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime))

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("MySQL连通性检查失败: %w", err)
	}

	return db, nil
}
