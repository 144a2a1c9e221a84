/**
 * 中间件:认证与权限中间件
 * @author: linkc
 * @date: 2025.12.03
 * @description: 定义JWT认证和角色校验中间件
 * @func:
 *   - GinJWTAuthMiddleware JWT认证中间件[验证访问令牌并将用户信息写入上下文]
 *   - GinUserActiveMiddleware 用户激活状态中间件[依赖JWT中间件先执行]
 *   - GinAdminRoleMiddleware 管理员权限中间件[IsAdmin标志或super_admin/admin角色]
 *   - GinRequireAnyRole 任一角色校验中间件
 *   - GinRequirePermission 权限校验中间件[检查当前用户是否持有指定权限]
 */
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// GinJWTAuthMiddleware JWT认证中间件
// 验证请求头中的访问令牌，验证通过后将用户信息写入Gin上下文和标准上下文
// 使用方式: router.Use(middlewareManager.GinJWTAuthMiddleware())
func (m *MiddlewareManager) GinJWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := utils.GetClientIP(c)
		requestID := c.GetString("request_id")

		// 提取访问令牌
		token, err := extractTokenFromGinHeader(c)
		if err != nil {
			logger.LogBusinessError(err, requestID, 0, clientIP, "jwt_auth", c.Request.Method, map[string]interface{}{
				"operation": "jwt_auth",
				"path":      c.Request.URL.Path,
				"timestamp": logger.NowFormatted(),
			})
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "未携带有效的访问令牌",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}

		// 验证会话（JWT签名、吊销状态、用户状态）
		user, err := m.sessionService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			logger.LogBusinessError(err, requestID, 0, clientIP, "jwt_auth", c.Request.Method, map[string]interface{}{
				"operation": "validate_session",
				"path":      c.Request.URL.Path,
				"timestamp": logger.NowFormatted(),
			})
			status := http.StatusUnauthorized
			message := "访问令牌无效或已过期"
			if errors.Is(err, model.ErrUserDisabled) {
				status = http.StatusForbidden
				message = "用户已被禁用"
			}
			c.JSON(status, model.APIResponse{
				Code:    status,
				Status:  "error",
				Message: message,
				Error:   err.Error(),
			})
			c.Abort()
			return
		}

		// 密码版本校验:修改密码后旧令牌立即失效
		// Redis不可用时降级为仅JWT校验,保证核心认证链路可用
		valid, err := m.jwtService.ValidatePasswordVersion(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.DeadlineExceeded) {
				logger.LogSystemEvent("middleware", "password_version_degraded",
					"密码版本缓存不可用,降级为JWT校验", logrus.WarnLevel, map[string]interface{}{
						"user_id":   user.ID,
						"client_ip": clientIP,
						"error":     err.Error(),
						"timestamp": logger.NowFormatted(),
					})
			} else {
				logger.LogError(err, requestID, user.ID, clientIP, "jwt_auth", c.Request.Method, map[string]interface{}{
					"operation": "validate_password_version",
					"timestamp": logger.NowFormatted(),
				})
				c.JSON(http.StatusUnauthorized, model.APIResponse{
					Code:    http.StatusUnauthorized,
					Status:  "error",
					Message: "令牌校验失败",
					Error:   err.Error(),
				})
				c.Abort()
				return
			}
		} else if !valid {
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "密码已修改,请重新登录",
			})
			c.Abort()
			return
		}

		// 写入Gin上下文，handler层通过c.Get("user_id")获取
		c.Set("user_id", user.ID)
		c.Set("username", user.Username)
		c.Set("is_admin", user.IsAdmin)

		// 写入标准上下文，service层通过utils.GetUserIDFromContext获取
		ctx := context.WithValue(c.Request.Context(), utils.ContextKeyUserID, user.ID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GinUserActiveMiddleware 用户激活状态中间件
// 必须在GinJWTAuthMiddleware之后使用
func (m *MiddlewareManager) GinUserActiveMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentGinUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "未登录或会话已失效",
			})
			c.Abort()
			return
		}

		active, err := m.rbacService.IsUserActive(c.Request.Context(), userID)
		if err != nil {
			logger.LogError(err, c.GetString("request_id"), userID, utils.GetClientIP(c), "user_active", c.Request.Method, map[string]interface{}{
				"operation": "check_user_active",
				"timestamp": logger.NowFormatted(),
			})
			c.JSON(http.StatusInternalServerError, model.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "error",
				Message: "用户状态检查失败",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}
		if !active {
			c.JSON(http.StatusForbidden, model.APIResponse{
				Code:    http.StatusForbidden,
				Status:  "error",
				Message: "用户已被禁用",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GinAdminRoleMiddleware 管理员权限中间件
// IsAdmin标志位或持有super_admin/admin角色视为管理员
// 必须在GinJWTAuthMiddleware之后使用
func (m *MiddlewareManager) GinAdminRoleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentGinUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "未登录或会话已失效",
			})
			c.Abort()
			return
		}

		isAdmin, err := m.rbacService.IsAdminUser(c.Request.Context(), userID)
		if err != nil {
			logger.LogError(err, c.GetString("request_id"), userID, utils.GetClientIP(c), "admin_role", c.Request.Method, map[string]interface{}{
				"operation": "check_admin_role",
				"timestamp": logger.NowFormatted(),
			})
			c.JSON(http.StatusInternalServerError, model.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "error",
				Message: "权限检查失败",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}
		if !isAdmin {
			logger.LogAuditOperation(userID, c.GetString("username"), "admin_access_denied", c.Request.URL.Path, "denied",
				utils.GetClientIP(c), c.GetHeader("User-Agent"), c.GetString("request_id"), map[string]interface{}{
					"timestamp": logger.NowFormatted(),
				})
			c.JSON(http.StatusForbidden, model.APIResponse{
				Code:    http.StatusForbidden,
				Status:  "error",
				Message: "需要管理员权限",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GinRequireAnyRole 任一角色校验中间件
// 用户持有roleNames中任意一个启用角色即放行
func (m *MiddlewareManager) GinRequireAnyRole(roleNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentGinUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "未登录或会话已失效",
			})
			c.Abort()
			return
		}

		ok, err := m.rbacService.HasAnyRole(c.Request.Context(), userID, roleNames)
		if err != nil {
			c.JSON(http.StatusInternalServerError, model.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "error",
				Message: "权限检查失败",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}
		if !ok {
			c.JSON(http.StatusForbidden, model.APIResponse{
				Code:    http.StatusForbidden,
				Status:  "error",
				Message: "角色权限不足",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GinRequirePermission 权限校验中间件
// 校验当前用户的有效权限集合是否包含指定权限(管理员直接放行)
func (m *MiddlewareManager) GinRequirePermission(permissionName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentGinUserID(c)
		if userID == 0 {
			c.JSON(http.StatusUnauthorized, model.APIResponse{
				Code:    http.StatusUnauthorized,
				Status:  "error",
				Message: "未登录或会话已失效",
			})
			c.Abort()
			return
		}

		ok, err := m.rbacService.HasPermission(c.Request.Context(), userID, permissionName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, model.APIResponse{
				Code:    http.StatusInternalServerError,
				Status:  "error",
				Message: "权限检查失败",
				Error:   err.Error(),
			})
			c.Abort()
			return
		}
		if !ok {
			logger.LogAuditOperation(userID, c.GetString("username"), "permission_denied", permissionName, "denied",
				utils.GetClientIP(c), c.GetHeader("User-Agent"), c.GetString("request_id"), map[string]interface{}{
					"path":      c.Request.URL.Path,
					"timestamp": logger.NowFormatted(),
				})
			c.JSON(http.StatusForbidden, model.APIResponse{
				Code:    http.StatusForbidden,
				Status:  "error",
				Message: "权限不足",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// currentGinUserID 从Gin上下文提取已认证用户ID，不存在返回0
func currentGinUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint); ok2 {
			return id
		}
	}
	return 0
}

// extractTokenFromGinHeader 从Authorization头提取Bearer令牌
func extractTokenFromGinHeader(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", &model.ValidationError{Field: "Authorization", Message: "缺少Authorization请求头"}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &model.ValidationError{Field: "Authorization", Message: "Authorization格式无效,应为Bearer <token>"}
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", &model.ValidationError{Field: "Authorization", Message: "访问令牌为空"}
	}

	return token, nil
}
