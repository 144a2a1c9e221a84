/**
 * 路由:用户路由
 * @author: linkc
 * @date: 2025.12.03
 * @description: 包含需要JWT认证的用户相关路由
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupUserRoutes 设置用户认证路由
func (r *Router) setupUserRoutes(v1 *gin.RouterGroup) {
	// 认证相关路由（需要JWT认证和用户激活状态检查）
	auth := v1.Group("/auth")
	auth.Use(r.middlewareManager.GinJWTAuthMiddleware())
	auth.Use(r.middlewareManager.GinUserActiveMiddleware())
	{
		// 用户登出(吊销当前访问令牌并清理会话)
		auth.POST("/logout", r.logoutHandler.Logout)
	}

	// 用户相关路由（需要JWT认证和用户激活状态检查）
	user := v1.Group("/user")
	user.Use(r.middlewareManager.GinJWTAuthMiddleware())
	user.Use(r.middlewareManager.GinUserActiveMiddleware())
	user.Use(r.middlewareManager.GinUserBasedRateLimitMiddleware())
	{
		// 获取当前用户全量信息(包含权限和角色信息)
		user.GET("/profile", r.profileHandler.GetProfile)
		// 修改用户密码
		user.POST("/change-password", r.profileHandler.ChangePassword)
		// 获取当前用户可见菜单树(按有效权限过滤)
		user.GET("/menus", r.menuHandler.GetVisibleMenuTree)
	}
}
