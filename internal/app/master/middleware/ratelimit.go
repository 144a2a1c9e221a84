/**
 * 中间件:限流器中间件
 * @author: linkc
 * @date: 2025.12.03
 * @description: 令牌桶限流,全局按IP限流,认证接口与已登录用户有独立配额
 * @func:
 *   - GinRateLimitMiddleware 全局限流器中间件[根据客户端IP进行限流,参数取自security.rate_limit配置]
 *   - GinAuthRateLimitMiddleware 认证接口限流器[登录注册等接口的严格限流,key为IP+路径]
 *   - GinUserBasedRateLimitMiddleware 用户个性化限流器[已认证用户按用户ID限流]
 */
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(key string) bool
	Reset(key string)
}

// TokenBucketLimiter 令牌桶限流器,每个key一个独立的桶
type TokenBucketLimiter struct {
	buckets map[string]*TokenBucket
	mutex   sync.RWMutex
	rate    int           // 每秒生成的令牌数
	burst   int           // 桶的容量
	cleanup time.Duration // 空闲桶回收窗口
}

// TokenBucket 令牌桶
type TokenBucket struct {
	tokens   int
	capacity int
	rate     int
	lastTime time.Time
	mutex    sync.Mutex
}

// NewTokenBucketLimiter 创建令牌桶限流器并启动空闲桶回收协程
func NewTokenBucketLimiter(rate, burst int, cleanup time.Duration) *TokenBucketLimiter {
	limiter := &TokenBucketLimiter{
		buckets: make(map[string]*TokenBucket),
		rate:    rate,
		burst:   burst,
		cleanup: cleanup,
	}
	go limiter.cleanupExpiredBuckets()
	return limiter
}

// Allow 检查key对应的桶是否还有令牌,新key初始拥有burst个令牌
func (tbl *TokenBucketLimiter) Allow(key string) bool {
	tbl.mutex.Lock()
	bucket, exists := tbl.buckets[key]
	if !exists {
		bucket = &TokenBucket{
			tokens:   tbl.burst,
			capacity: tbl.burst,
			rate:     tbl.rate,
			lastTime: time.Now(),
		}
		tbl.buckets[key] = bucket
	}
	tbl.mutex.Unlock()

	return bucket.consume()
}

// Reset 重置指定key的限流状态
func (tbl *TokenBucketLimiter) Reset(key string) {
	tbl.mutex.Lock()
	delete(tbl.buckets, key)
	tbl.mutex.Unlock()
}

// consume 按流逝时间补充令牌后尝试消费一个
func (tb *TokenBucket) consume() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastTime).Seconds()

	tb.tokens += int(elapsed * float64(tb.rate))
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastTime = now

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// cleanupExpiredBuckets 周期性回收超过回收窗口未使用的桶
func (tbl *TokenBucketLimiter) cleanupExpiredBuckets() {
	ticker := time.NewTicker(tbl.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		tbl.mutex.Lock()
		now := time.Now()
		for key, bucket := range tbl.buckets {
			bucket.mutex.Lock()
			if now.Sub(bucket.lastTime) > tbl.cleanup {
				delete(tbl.buckets, key)
			}
			bucket.mutex.Unlock()
		}
		tbl.mutex.Unlock()
	}
}

// rateLimitKeyFunc 从请求上下文计算限流key
type rateLimitKeyFunc func(c *gin.Context) string

// limitRequest 共享的限流判定,超限时记录日志并以429(或指定状态码)拒绝
// 返回false表示请求已被拒绝,调用方应直接返回
func limitRequest(c *gin.Context, limiter RateLimiter, keyFn rateLimitKeyFunc, scope string, statusCode int, message string) bool {
	key := keyFn(c)
	if limiter.Allow(key) {
		return true
	}

	clientIP := utils.GetClientIP(c)
	logger.LogWarn("Rate limit exceeded", "", 0, clientIP, c.Request.URL.Path, c.Request.Method, map[string]interface{}{
		"operation": "rate_limit_exceeded",
		"option":    "block_request",
		"func_name": "middleware.ratelimit." + scope,
		"key":       key,
	})

	if statusCode == 0 {
		statusCode = http.StatusTooManyRequests
	}
	c.JSON(statusCode, gin.H{
		"error":   "Rate limit exceeded",
		"message": message,
		"code":    "RATE_LIMIT_EXCEEDED",
	})
	c.Abort()
	return false
}

// GinRateLimitMiddleware 全局限流中间件
// 按客户端IP限流,限流参数与豁免名单取自security.rate_limit配置
func (m *MiddlewareManager) GinRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := &m.securityConfig.RateLimit
		if !cfg.Enabled || m.shouldSkipRateLimit(c) {
			c.Next()
			return
		}

		if !limitRequest(c, m.getRateLimiter(), utils.GetClientIP,
			"GinRateLimitMiddleware", cfg.StatusCode, cfg.Message) {
			return
		}
		c.Next()
	}
}

// shouldSkipRateLimit 命中豁免路径或豁免IP时跳过限流
func (m *MiddlewareManager) shouldSkipRateLimit(c *gin.Context) bool {
	path := c.Request.URL.Path
	for _, skipPath := range m.securityConfig.RateLimit.SkipPaths {
		if path == skipPath {
			return true
		}
	}

	clientIP := utils.GetClientIP(c)
	for _, skipIP := range m.securityConfig.RateLimit.SkipIPs {
		if clientIP == skipIP {
			return true
		}
	}
	return false
}

// getRateLimiter 根据配置获取限流器
// 限流器在首次请求时按配置创建一次,后续请求复用同一实例
func (m *MiddlewareManager) getRateLimiter() RateLimiter {
	m.rateLimiterOnce.Do(func() {
		cfg := &m.securityConfig.RateLimit

		windowSize, err := time.ParseDuration(cfg.WindowSize)
		if err != nil {
			windowSize = 15 * time.Minute
		}

		// 目前仅实现令牌桶策略,未知策略回落到令牌桶
		m.rateLimiter = NewTokenBucketLimiter(
			cfg.RequestsPerSecond,
			cfg.BurstSize,
			windowSize,
		)
	})
	return m.rateLimiter
}

// GinAuthRateLimitMiddleware 认证接口限流中间件
// 登录、注册等接口按IP+路径限流,配额收紧到每秒2个突发5个
func (m *MiddlewareManager) GinAuthRateLimitMiddleware() gin.HandlerFunc {
	limiter := NewTokenBucketLimiter(2, 5, 10*time.Minute)
	keyFn := func(c *gin.Context) string {
		return fmt.Sprintf("%s:%s", utils.GetClientIP(c), c.Request.URL.Path)
	}

	return func(c *gin.Context) {
		if !limitRequest(c, limiter, keyFn, "GinAuthRateLimitMiddleware",
			http.StatusTooManyRequests, "Too many authentication attempts, please try again later") {
			return
		}
		c.Next()
	}
}

// GinUserBasedRateLimitMiddleware 基于用户的限流中间件
// 已认证用户按用户ID限流,退化场景按IP限流
func (m *MiddlewareManager) GinUserBasedRateLimitMiddleware() gin.HandlerFunc {
	limiter := NewTokenBucketLimiter(30, 50, 15*time.Minute)
	keyFn := func(c *gin.Context) string {
		if userID, exists := c.Get("user_id"); exists && userID != nil {
			return fmt.Sprintf("user:%v", userID)
		}
		return fmt.Sprintf("ip:%s", utils.GetClientIP(c))
	}

	return func(c *gin.Context) {
		if !limitRequest(c, limiter, keyFn, "GinUserBasedRateLimitMiddleware",
			http.StatusTooManyRequests, "Too many requests from this user, please try again later") {
			return
		}
		c.Next()
	}
}
