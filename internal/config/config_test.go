package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testConfigYAML = `
server:
  host: "localhost"
  port: 8080
  mode: "test"
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 60s
  max_header_bytes: 1048576

database:
  mysql:
    host: "localhost"
    port: 3306
    username: "test_user"
    password: "test_password"
    database: "test_db"
    charset: "utf8mb4"
    parse_time: true
    loc: "Local"
    max_idle_conns: 10
    max_open_conns: 100
    conn_max_lifetime: 3600s
    conn_max_idle_time: 1800s
    log_level: "info"
  redis:
    host: "localhost"
    port: 6379
    password: ""
    database: 0
    pool_size: 10
    min_idle_conns: 5
    dial_timeout: 5s
    read_timeout: 3s
    write_timeout: 3s
    pool_timeout: 4s
    idle_timeout: 300s

log:
  level: "info"
  format: "json"
  output: "stdout"
  file_path: "logs/app.log"
  max_size: 100
  max_backups: 5
  max_age: 30
  compress: true
  caller: true
  stack_trace: true

security:
  jwt:
    secret: "test_jwt_secret_key_at_least_32_chars"
    issuer: "openmaas-test"
    access_token_expire: 24h
    refresh_token_expire: 168h
    algorithm: "HS256"
  cors:
    enabled: true
    allow_origins: ["*"]
    allow_methods: ["GET", "POST", "PUT", "DELETE", "OPTIONS"]
    allow_headers: ["*"]
    expose_headers: ["Content-Length"]
    allow_credentials: true
    max_age: 12h
  rate_limit:
    enabled: true
    requests_per_second: 100
    burst_size: 200

session:
  store: "memory"
  key: "openmaas_session"
  max_age: 86400
  secure: false
  http_only: true
  same_site: "lax"

cache:
  permission:
    enabled: true
    ttl: 5m
    key_prefix: "perm:user:"

app:
  name: "openMaas Admin Test"
  version: "1.0.0"
  environment: "test"
  debug: true
  timezone: "Asia/Shanghai"
  language: "zh-CN"
  features:
    user_registration: true
    menu_export: true
    menu_import: true
    audit_log: true
`

// writeTestConfig 写出临时配置文件并返回其目录
func writeTestConfig(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(testConfigYAML), 0644)
	assert.NoError(t, err)
	return tempDir
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig(writeTestConfig(t), "test")
	assert.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "test_db", config.Database.MySQL.Database)
	assert.Equal(t, "test_jwt_secret_key_at_least_32_chars", config.Security.JWT.Secret)
	assert.Equal(t, 5*time.Minute, config.Cache.Permission.TTL)
	assert.Equal(t, "test", config.App.Environment)
	assert.True(t, config.App.Features.MenuExport)
}

func TestLoadConfigWithEnvVars(t *testing.T) {
	t.Setenv("OPENMAAS_SERVER_PORT", "9090")
	t.Setenv("OPENMAAS_MYSQL_HOST", "env_mysql_host")
	t.Setenv("OPENMAAS_JWT_SECRET", "env_jwt_secret_key_at_least_32_chars")

	config, err := LoadConfig(writeTestConfig(t), "test")
	assert.NoError(t, err)

	// 环境变量覆盖配置文件
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "env_mysql_host", config.Database.MySQL.Host)
	assert.Equal(t, "env_jwt_secret_key_at_least_32_chars", config.Security.JWT.Secret)
}

func TestConfigValidation(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Host: "localhost", Port: 8080, Mode: "debug"},
			Database: DatabaseConfig{
				MySQL: MySQLConfig{Host: "localhost", Database: "test_db"},
				Redis: RedisConfig{Host: "localhost"},
			},
			Security: SecurityConfig{
				JWT: JWTConfig{Secret: "test_jwt_secret_key_at_least_32_chars"},
			},
			Log:     LogConfig{Level: "info", Format: "json", Output: "stdout"},
			Session: SessionConfig{Store: "memory", SameSite: "lax"},
		}
	}

	assert.NoError(t, validateConfig(valid()))

	badPort := valid()
	badPort.Server.Port = -1
	err := validateConfig(badPort)
	assert.ErrorContains(t, err, "invalid server port")

	shortSecret := valid()
	shortSecret.Security.JWT.Secret = "short"
	err = validateConfig(shortSecret)
	assert.ErrorContains(t, err, "jwt secret must be at least 32 characters long")

	badCacheTTL := valid()
	badCacheTTL.Cache.Permission = PermissionCacheConfig{Enabled: true, TTL: 0}
	err = validateConfig(badCacheTTL)
	assert.ErrorContains(t, err, "permission cache ttl must be positive")
}

func TestEnvManager(t *testing.T) {
	em := NewEnvManager("OMTEST")

	t.Setenv("OMTEST_STRING_VAL", "test_value")
	t.Setenv("OMTEST_INT_VAL", "42")
	t.Setenv("OMTEST_BOOL_VAL", "true")
	t.Setenv("OMTEST_DURATION_VAL", "5m")
	t.Setenv("OMTEST_SLICE_VAL", "a, b ,c")

	assert.Equal(t, "test_value", em.GetString("string_val", "default"))
	assert.Equal(t, 42, em.GetInt("int_val", 0))
	assert.True(t, em.GetBool("bool_val", false))
	assert.Equal(t, 5*time.Minute, em.GetDuration("duration_val", 0))
	assert.Equal(t, []string{"a", "b", "c"}, em.GetStringSlice("slice_val", nil))

	// 未设置时返回默认值
	assert.Equal(t, "default", em.GetString("non_existent", "default"))
	assert.Equal(t, 7, em.GetInt("non_existent", 7))

	// 解析失败时同样回落默认值
	t.Setenv("OMTEST_BAD_INT", "not-a-number")
	assert.Equal(t, 7, em.GetInt("bad_int", 7))

	assert.True(t, em.Exists("string_val"))
	assert.False(t, em.Exists("non_existent"))
}

func TestLoadEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment line\nOMTEST_FROM_FILE=plain\nOMTEST_QUOTED=\"with space\"\n"
	assert.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	t.Setenv("OMTEST_FROM_FILE", "")
	t.Setenv("OMTEST_QUOTED", "")
	assert.NoError(t, LoadEnvFile(envFile))

	assert.Equal(t, "plain", os.Getenv("OMTEST_FROM_FILE"))
	assert.Equal(t, "with space", os.Getenv("OMTEST_QUOTED"))

	// 文件不存在时静默跳过
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestConfigHelperMethods(t *testing.T) {
	config := &Config{
		Server: ServerConfig{Host: "localhost", Port: 8080},
		App:    AppConfig{Environment: "development"},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Host: "localhost", Port: 3306,
				Username: "user", Password: "pass", Database: "test",
				Charset: "utf8mb4", ParseTime: true, Loc: "Local",
			},
			Redis: RedisConfig{Host: "localhost", Port: 6379},
		},
	}

	assert.Equal(t, "localhost:8080", config.Server.GetAddress())
	assert.True(t, config.App.IsDevelopment())
	assert.False(t, config.App.IsProduction())
	assert.Equal(t,
		"user:pass@tcp(localhost:3306)/test?charset=utf8mb4&parseTime=true&loc=Local",
		config.Database.MySQL.GetMySQLDSN())
	assert.Equal(t, "localhost:6379", config.Database.Redis.GetRedisAddress())
}

func TestApplyDefaultCacheConfig(t *testing.T) {
	config := &Config{}
	applyDefaultCacheConfig(config)

	assert.Equal(t, 10*time.Minute, config.Cache.Permission.TTL)
	assert.Equal(t, "perm:user:", config.Cache.Permission.KeyPrefix)
}
