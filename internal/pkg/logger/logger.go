/**
 * 基础设施:日志管理器
 * @author: linkc
 * @date: 2025.12.03
 * @description: logrus实例装配,按配置设置级别/格式,输出交由FileHook分流
 * @func: InitLogger / GetLogger / WithFields
 */
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"openmaas/internal/config"

	"github.com/sirupsen/logrus"
)

// logTimestampFormat 毫秒精度时间戳,日期与时间以空格分隔
const logTimestampFormat = "2006-01-02 15:04:05.000"

// LoggerManager 日志管理器,持有装配好的logrus实例
type LoggerManager struct {
	logger *logrus.Logger
	config *config.LogConfig
}

// LoggerInstance 全局日志实例,由 InitLogger 设置
// 各Log*辅助函数在实例为空时静默跳过,测试无需初始化
var LoggerInstance *LoggerManager

// InitLogger 按配置初始化日志管理器并设置全局实例
func InitLogger(cfg *config.LogConfig) (*LoggerManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("日志配置不能为空")
	}

	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		l.Warnf("无法识别的日志级别 %q,回落到 info", cfg.Level)
	}
	l.SetLevel(level)

	if err := applyFormatter(l, cfg); err != nil {
		return nil, err
	}

	// 实际落盘由FileHook按日志类型分流;debug级别额外镜像到控制台
	if level == logrus.DebugLevel {
		l.SetOutput(io.MultiWriter(os.Stdout, io.Discard))
	} else {
		l.SetOutput(io.Discard)
	}
	l.AddHook(NewFileHook(cfg))
	l.SetReportCaller(cfg.Caller)

	LoggerInstance = &LoggerManager{logger: l, config: cfg}
	return LoggerInstance, nil
}

// applyFormatter 按配置设置格式化器,json用于生产,text用于控制台调试
func applyFormatter(l *logrus.Logger, cfg *config.LogConfig) error {
	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: logTimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: logTimestampFormat,
			FullTimestamp:   true,
			ForceColors:     true,
		})
	default:
		return fmt.Errorf("不支持的日志格式: %s", cfg.Format)
	}
	return nil
}

// GetLogger 获取logrus实例
func (lm *LoggerManager) GetLogger() *logrus.Logger {
	return lm.logger
}

// WithFields 在全局实例上附加结构化字段
// 全局实例未初始化时回落到logrus标准实例,保证调用方不判空
func WithFields(fields logrus.Fields) *logrus.Entry {
	if LoggerInstance != nil {
		return LoggerInstance.logger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
