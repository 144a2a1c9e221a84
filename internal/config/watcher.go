/**
 * 配置:文件变更监听
 * @author: linkc
 * @date: 2025.12.03
 * @description: 基于fsnotify监听配置目录,变更防抖后重载配置并通知回调
 * @func: StartConfigWatcher / StopConfigWatcher / AddConfigReloadCallback
 */
package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// 编辑器保存往往触发多次写事件,合并为一次重载
const reloadDebounce = 500 * time.Millisecond

// ReloadCallback 配置重载回调,按注册顺序依次执行
type ReloadCallback func(oldConfig, newConfig *Config) error

// ConfigWatcher 配置文件监听器
type ConfigWatcher struct {
	watcher    *fsnotify.Watcher
	configPath string
	env        string
	callbacks  []ReloadCallback
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConfigWatcher 创建配置文件监听器
func NewConfigWatcher(configPath, env string) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConfigWatcher{
		watcher:    watcher,
		configPath: configPath,
		env:        env,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}, nil
}

// Start 开始监听配置目录
func (cw *ConfigWatcher) Start() error {
	if cw.configPath == "" {
		cw.configPath = getDefaultConfigPath()
	}
	if err := cw.watcher.Add(cw.configPath); err != nil {
		return fmt.Errorf("failed to add config path to watcher: %w", err)
	}

	go cw.watchLoop()
	log.Printf("Config watcher started, watching path: %s", cw.configPath)
	return nil
}

// Stop 停止监听并等待监听协程退出
func (cw *ConfigWatcher) Stop() error {
	cw.cancel()
	select {
	case <-cw.done:
	case <-time.After(5 * time.Second):
		log.Println("Config watcher stop timeout")
	}
	return cw.watcher.Close()
}

// AddCallback 注册配置重载回调
func (cw *ConfigWatcher) AddCallback(callback ReloadCallback) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.callbacks = append(cw.callbacks, callback)
}

func (cw *ConfigWatcher) watchLoop() {
	defer close(cw.done)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-cw.ctx.Done():
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && isConfigFile(event.Name) {
				log.Printf("Config file changed: %s", event.Name)
				debounce.Reset(reloadDebounce)
			}

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Config watcher error: %v", err)

		case <-debounce.C:
			if err := cw.reloadConfig(); err != nil {
				log.Printf("Failed to reload config: %v", err)
			}
		}
	}
}

// isConfigFile 只响应 config[.<env>].yaml/yml 的变化
func isConfigFile(filename string) bool {
	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return strings.HasPrefix(baseName, "config.")
}

// reloadConfig 重新加载配置并通知所有回调
// 单个回调失败只记录,不中断其余回调
func (cw *ConfigWatcher) reloadConfig() error {
	oldConfig := GlobalConfig

	newConfig, err := LoadConfig(cw.configPath, cw.env)
	if err != nil {
		return fmt.Errorf("failed to load new config: %w", err)
	}

	cw.mu.RLock()
	callbacks := make([]ReloadCallback, len(cw.callbacks))
	copy(callbacks, cw.callbacks)
	cw.mu.RUnlock()

	for _, callback := range callbacks {
		if err := callback(oldConfig, newConfig); err != nil {
			log.Printf("Config reload callback error: %v", err)
		}
	}

	log.Println("Config reloaded successfully")
	return nil
}

var (
	globalWatcher *ConfigWatcher
	watcherMu     sync.Mutex
)

// StartConfigWatcher 启动全局配置文件监听器
func StartConfigWatcher(configPath, env string, callbacks ...ReloadCallback) error {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if globalWatcher != nil {
		return fmt.Errorf("config watcher is already running")
	}

	watcher, err := NewConfigWatcher(configPath, env)
	if err != nil {
		return err
	}
	for _, cb := range callbacks {
		watcher.AddCallback(cb)
	}

	if err := watcher.Start(); err != nil {
		return err
	}
	globalWatcher = watcher
	return nil
}

// StopConfigWatcher 停止全局配置文件监听器,未启动时为空操作
func StopConfigWatcher() error {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if globalWatcher == nil {
		return nil
	}
	err := globalWatcher.Stop()
	globalWatcher = nil
	return err
}

// AddConfigReloadCallback 向运行中的全局监听器追加回调
func AddConfigReloadCallback(callback ReloadCallback) error {
	watcherMu.Lock()
	defer watcherMu.Unlock()

	if globalWatcher == nil {
		return fmt.Errorf("config watcher is not running")
	}
	globalWatcher.AddCallback(callback)
	return nil
}

// LogConfigReloadCallback 日志配置变化时记录,重初始化由运维重启完成
func LogConfigReloadCallback(oldConfig, newConfig *Config) error {
	if oldConfig == nil {
		return nil
	}
	if oldConfig.Log.Level != newConfig.Log.Level ||
		oldConfig.Log.Format != newConfig.Log.Format ||
		oldConfig.Log.Output != newConfig.Log.Output {
		log.Printf("Log configuration changed, old level: %s, new level: %s",
			oldConfig.Log.Level, newConfig.Log.Level)
	}
	return nil
}

// CacheConfigReloadCallback 权限缓存配置变化时记录
// 已有缓存按旧TTL自然过期,新写入使用新TTL
func CacheConfigReloadCallback(oldConfig, newConfig *Config) error {
	if oldConfig == nil {
		return nil
	}
	if oldConfig.Cache.Permission.TTL != newConfig.Cache.Permission.TTL ||
		oldConfig.Cache.Permission.Enabled != newConfig.Cache.Permission.Enabled {
		log.Printf("Permission cache configuration changed, old ttl: %s, new ttl: %s",
			oldConfig.Cache.Permission.TTL, newConfig.Cache.Permission.TTL)
	}
	return nil
}
