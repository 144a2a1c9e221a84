/**
 * 中间件:安全中间件
 * @author: linkc
 * @date: 2025.12.03
 * @description: 定义安全中间件
 * @func:
 *   - GinCORSMiddleware CORS跨域资源共享中间件,头部取自security.cors配置
 *   - GinSecurityHeadersMiddleware 安全头部中间件,设置防护头防止常见的安全漏洞
 *   - GinNoIndexMiddleware 禁用索引中间件,防止搜索引擎索引管理后台
 *   - GinRequestIDMiddleware 请求ID中间件,为每个请求添加唯一的请求ID,方便日志跟踪
 */
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"openmaas/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CORS配置缺省值,配置文件未填写时使用
var (
	defaultAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	defaultAllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
		"X-CSRF-Token", "Authorization", "Accept", "Cache-Control", "X-Requested-With",
	}
	defaultExposeHeaders = []string{"Content-Length", "Content-Type", "X-Request-ID"}
)

// GinCORSMiddleware CORS跨域资源共享中间件
// 允许来源取自security.cors.allow_origins,未配置时回显请求Origin
func (m *MiddlewareManager) GinCORSMiddleware() gin.HandlerFunc {
	cors := &m.securityConfig.CORS

	allowMethods := cors.AllowMethods
	if len(allowMethods) == 0 {
		allowMethods = defaultAllowMethods
	}
	allowHeaders := cors.AllowHeaders
	if len(allowHeaders) == 0 {
		allowHeaders = defaultAllowHeaders
	}
	exposeHeaders := cors.ExposeHeaders
	if len(exposeHeaders) == 0 {
		exposeHeaders = defaultExposeHeaders
	}
	maxAge := "86400"
	if cors.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cors.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		c.Header("Access-Control-Allow-Origin", m.resolveAllowOrigin(origin))
		c.Header("Access-Control-Allow-Methods", strings.Join(allowMethods, ", "))
		c.Header("Access-Control-Allow-Headers", strings.Join(allowHeaders, ", "))
		c.Header("Access-Control-Expose-Headers", strings.Join(exposeHeaders, ", "))
		c.Header("Access-Control-Max-Age", maxAge)
		if cors.AllowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		// 预检请求直接应答
		if c.Request.Method == http.MethodOptions {
			logrus.WithFields(logrus.Fields{
				"path":      c.Request.URL.Path,
				"operation": "cors_preflight",
				"func_name": "middleware.security.GinCORSMiddleware",
				"origin":    origin,
			}).Debug("Handling CORS preflight request")

			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// resolveAllowOrigin 根据配置决定Access-Control-Allow-Origin的取值
func (m *MiddlewareManager) resolveAllowOrigin(origin string) string {
	cors := &m.securityConfig.CORS

	if cors.AllowAllOrigins || len(cors.AllowOrigins) == 0 {
		if origin != "" {
			return origin
		}
		return "*"
	}
	for _, allowed := range cors.AllowOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	// 不在白名单内,返回首个配置项使浏览器拒绝该跨域请求
	return cors.AllowOrigins[0]
}

// GinSecurityHeadersMiddleware 安全头中间件
// 添加各种安全相关的HTTP头部,提高应用安全性
func (m *MiddlewareManager) GinSecurityHeadersMiddleware() gin.HandlerFunc {
	// 管理后台为前后端分离接口,CSP限制到自身来源即可
	const csp = "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: https:; " +
		"font-src 'self' data:; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none';"

	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", csp)
		c.Header("Permissions-Policy",
			"camera=(), microphone=(), geolocation=(), payment=(), usb=(), magnetometer=(), gyroscope=()")
		c.Header("Server", "OpenMaas")

		// 仅HTTPS环境下启用HSTS
		if c.Request.TLS != nil || c.Request.Header.Get("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}

		c.Next()
	}
}

// GinNoIndexMiddleware 防止搜索引擎索引中间件
func (m *MiddlewareManager) GinNoIndexMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", "noindex, nofollow, nosnippet, noarchive")
		c.Next()
	}
}

// GinRequestIDMiddleware 请求ID中间件
// 尊重代理已生成的X-Request-ID,缺失时生成UUID
func (m *MiddlewareManager) GinRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID, _ = utils.GenerateUUID()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}
