/**
 * 中间件:日志相关中间件
 * @author: linkc
 * @date: 2025.12.03
 * @description: 定义日志中间件
 * @func:
 *   - GinLoggingMiddleware Gin日志中间件[同时把客户端IP存储到Gin上下文和标准上下文,供后续使用]
 */
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

// GinLoggingMiddleware Gin日志中间件
// 记录所有HTTP请求的访问日志和错误日志
// 使用方式: router.Use(middlewareManager.GinLoggingMiddleware())
func (m *MiddlewareManager) GinLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// 提取并格式化客户端IP
		clientIP := utils.GetClientIP(c)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = c.GetString("request_id")
		}
		userAgent := c.GetHeader("User-Agent")

		// 存储到Gin上下文，handler层通过c.GetString("client_ip")获取
		c.Set("client_ip", clientIP)

		// 存储到标准上下文
		// c.Request.Context()返回标准context.Context，service层以统一键
		// utils.ContextKeyClientIP 读取，见 utils.GetClientIPFromContext
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyClientIP, clientIP)
		c.Request = c.Request.WithContext(ctx)

		// 处理请求
		c.Next()

		// 记录访问日志
		duration := time.Since(start)
		statusCode := c.Writer.Status()

		// 获取用户信息（如果已认证）
		userID := currentGinUserID(c)
		username := c.GetString("username")

		logger.LogBusinessOperation("http_request", userID, username, clientIP, requestID, "success", "API Request", map[string]interface{}{
			"operation":     "http_request",
			"method":        c.Request.Method,
			"url":           c.Request.URL.String(),
			"status_code":   statusCode,
			"duration":      duration.Milliseconds(),
			"client_ip":     clientIP,
			"username":      username,
			"user_agent":    userAgent,
			"X-Request-ID":  requestID,
			"referer":       c.Request.Referer(),
			"request_size":  c.Request.ContentLength,
			"response_size": int64(c.Writer.Size()),
			"timestamp":     logger.NowFormatted(),
		})

		// 如果是错误状态码，记录错误日志
		if statusCode >= 400 {
			errorMsg := ""
			if errs := c.Errors; len(errs) > 0 {
				errorMsg = errs.String()
			} else {
				errorMsg = http.StatusText(statusCode)
			}

			logger.LogError(fmt.Errorf("HTTP %d: %s", statusCode, errorMsg), requestID, userID, clientIP, "http_request", c.Request.Method, map[string]interface{}{
				"operation":    "http_request",
				"method":       c.Request.Method,
				"url":          c.Request.URL.String(),
				"status_code":  statusCode,
				"username":     username,
				"client_ip":    clientIP,
				"user_agent":   userAgent,
				"X-Request-ID": requestID,
				"timestamp":    logger.NowFormatted(),
			})
		}
	}
}
