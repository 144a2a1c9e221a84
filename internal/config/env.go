/**
 * 配置:环境变量读取
 * @author: linkc
 * @date: 2025.12.03
 * @description: 带前缀的环境变量类型化读取,以及.env文件加载
 * @func: NewEnvManager / LoadEnvFile
 */
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvManager 按前缀读取环境变量,键名自动拼接为 <PREFIX>_<KEY大写>
type EnvManager struct {
	prefix string
}

// DefaultEnvManager 全局实例,配置加载器用它取环境标识和配置路径
var DefaultEnvManager = NewEnvManager("OPENMAAS")

// NewEnvManager 创建环境变量管理器,前缀为空时使用OPENMAAS
func NewEnvManager(prefix string) *EnvManager {
	if prefix == "" {
		prefix = "OPENMAAS"
	}
	return &EnvManager{prefix: prefix}
}

// GetString 读取字符串,未设置时返回默认值
func (em *EnvManager) GetString(key, defaultValue string) string {
	if value := os.Getenv(em.buildEnvKey(key)); value != "" {
		return value
	}
	return defaultValue
}

// GetInt 读取整数,未设置或解析失败时返回默认值
func (em *EnvManager) GetInt(key string, defaultValue int) int {
	value := os.Getenv(em.buildEnvKey(key))
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// GetBool 读取布尔值,未设置或解析失败时返回默认值
func (em *EnvManager) GetBool(key string, defaultValue bool) bool {
	value := os.Getenv(em.buildEnvKey(key))
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// GetDuration 读取时间间隔,格式遵循time.ParseDuration
func (em *EnvManager) GetDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(em.buildEnvKey(key))
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// GetStringSlice 读取逗号分隔的字符串列表,空元素被剔除
func (em *EnvManager) GetStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(em.buildEnvKey(key))
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

// Exists 检查带前缀的环境变量是否被设置
func (em *EnvManager) Exists(key string) bool {
	_, exists := os.LookupEnv(em.buildEnvKey(key))
	return exists
}

func (em *EnvManager) buildEnvKey(key string) string {
	return fmt.Sprintf("%s_%s", em.prefix, strings.ToUpper(key))
}

// LoadEnvFile 从.env文件加载环境变量到进程环境
// 文件不存在时静默跳过,便于生产环境只用真实环境变量
func LoadEnvFile(filename string) error {
	if filename == "" {
		filename = ".env"
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read env file %s: %w", filename, err)
	}

	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid env line %d in file %s: %s", i+1, filename, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
				(strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'")) {
				value = value[1 : len(value)-1]
			}
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env variable %s: %w", key, err)
		}
	}
	return nil
}
