/**
 * 路由:公共路由
 * @author: linkc
 * @date: 2025.12.03
 * @description: 公共路由，包含注册、登录等不需要认证的路由
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupPublicRoutes 设置公共路由
func (r *Router) setupPublicRoutes(v1 *gin.RouterGroup) {
	// 认证相关公共路由,单独套一层更严格的限流防止暴力破解
	auth := v1.Group("/auth")
	auth.Use(r.middlewareManager.GinAuthRateLimitMiddleware())
	{
		// 检查配置文件用户注册功能开关
		if r.config.App.Features.UserRegistration {
			// 用户注册(默认角色为普通用户)
			auth.POST("/register", r.registerHandler.Register)
		}
		// 用户登录
		auth.POST("/login", r.loginHandler.Login)
		// 刷新令牌(从body中传递refresh_token)
		auth.POST("/refresh", r.refreshHandler.RefreshToken)
	}
}
