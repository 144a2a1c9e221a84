package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketLimiterBurst(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 3, time.Minute)

	// 突发容量内的请求全部放行
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))

	// 令牌耗尽后拒绝
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestTokenBucketLimiterPerKey(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 1, time.Minute)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// 不同key互不影响
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestTokenBucketLimiterReset(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, 1, time.Minute)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	limiter.Reset("10.0.0.1")
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestTokenBucketLimiterRefill(t *testing.T) {
	limiter := NewTokenBucketLimiter(10, 1, time.Minute)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	// 等待令牌补充
	time.Sleep(150 * time.Millisecond)
	assert.True(t, limiter.Allow("10.0.0.1"))
}
