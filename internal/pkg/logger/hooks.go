/**
 * 基础设施:日志文件分流Hook
 * @author: linkc
 * @date: 2025.12.03
 * @description: 按entry.Data["type"]将日志写入对应文件,lumberjack负责滚动
 * @func: NewFileHook
 */
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"openmaas/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// knownLogFiles 已知日志类型到文件名的映射,未知类型落入主日志
var knownLogFiles = map[string]string{
	string(AccessLog):   "access.log",
	string(BusinessLog): "business.log",
	string(ErrorLog):    "error.log",
	string(SystemLog):   "system.log",
	string(AuditLog):    "audit.log",
	string(DebugLog):    "debug.log",
}

// FileHook 将日志按类型分流到不同文件,writer按需懒创建
type FileHook struct {
	cfg       *config.LogConfig
	writers   map[string]io.Writer
	formatter logrus.Formatter
	mu        sync.Mutex
}

// NewFileHook 创建文件分流Hook,输出为file时预建主日志writer
func NewFileHook(cfg *config.LogConfig) *FileHook {
	hook := &FileHook{
		cfg:     cfg,
		writers: make(map[string]io.Writer),
		formatter: &logrus.JSONFormatter{
			TimestampFormat: logTimestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
				logrus.FieldKeyFunc:  "function",
				logrus.FieldKeyFile:  "file",
			},
		},
	}
	if cfg.Output == "file" && cfg.FilePath != "" {
		hook.writers["default"] = hook.newRollingWriter(cfg.FilePath)
	}
	return hook
}

// Levels 所有级别都交给Hook处理,级别过滤由logger本身完成
func (hook *FileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire 格式化并写入entry对应类型的日志文件
func (hook *FileHook) Fire(entry *logrus.Entry) error {
	logType := "default"
	switch t := entry.Data["type"].(type) {
	case LogType:
		logType = string(t)
	case string:
		logType = t
	}

	writer := hook.getWriter(logType)
	if writer == nil {
		return nil
	}

	formatted, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}

	hook.mu.Lock()
	defer hook.mu.Unlock()
	_, err = writer.Write(formatted)
	return err
}

// getWriter 获取指定类型的writer,首次访问时创建
func (hook *FileHook) getWriter(logType string) io.Writer {
	hook.mu.Lock()
	defer hook.mu.Unlock()

	if writer, exists := hook.writers[logType]; exists {
		return writer
	}

	name, known := knownLogFiles[logType]
	if !known {
		return hook.writers["default"]
	}

	writer := hook.newRollingWriter(filepath.Join(filepath.Dir(hook.cfg.FilePath), name))
	hook.writers[logType] = writer
	return writer
}

// newRollingWriter 创建带滚动策略的文件writer并确保目录存在
func (hook *FileHook) newRollingWriter(filename string) io.Writer {
	_ = os.MkdirAll(filepath.Dir(filename), 0755)
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    hook.cfg.MaxSize,
		MaxBackups: hook.cfg.MaxBackups,
		MaxAge:     hook.cfg.MaxAge,
		Compress:   hook.cfg.Compress,
	}
}
