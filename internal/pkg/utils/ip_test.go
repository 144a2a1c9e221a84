package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeIP(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"空输入", "", ""},
		{"纯IPv4", "192.168.1.10", "192.168.1.10"},
		{"带端口IPv4", "192.168.1.10:8080", "192.168.1.10"},
		{"XFF列表取第一个", "203.0.113.5, 10.0.0.1, 10.0.0.2", "203.0.113.5"},
		{"IPv4映射IPv6", "::ffff:192.0.2.1", "192.0.2.1"},
		{"纯IPv6", "2001:db8::1", "2001:db8::1"},
		{"带端口IPv6", "[2001:db8::1]:443", "2001:db8::1"},
		{"非IP原样返回", "localhost", "localhost"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeIP(tc.input))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newCtx := func() *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/", nil)
		c.Request.RemoteAddr = "10.1.2.3:51234"
		return c
	}

	// X-Forwarded-For 优先
	c := newCtx()
	c.Request.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	c.Request.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "203.0.113.5", GetClientIP(c))

	// 无XFF时取 X-Real-IP
	c = newCtx()
	c.Request.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", GetClientIP(c))

	// 两个头都缺失时回退连接地址
	c = newCtx()
	assert.Equal(t, "10.1.2.3", GetClientIP(c))
}
