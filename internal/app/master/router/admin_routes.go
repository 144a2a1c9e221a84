/**
 * 路由:管理员路由
 * @author: linkc
 * @date: 2025.12.03
 * @description: 定义管理员路由，覆盖用户、角色、权限、菜单、会话管理
 * @func:
 */
package router

import (
	"github.com/gin-gonic/gin"
)

// setupAdminRoutes 设置管理员路由
func (r *Router) setupAdminRoutes(v1 *gin.RouterGroup) {
	// 管理员路由（需要JWT认证、用户激活状态检查和管理员权限检查）
	admin := v1.Group("/admin")
	admin.Use(r.middlewareManager.GinJWTAuthMiddleware())    // JWT认证中间件
	admin.Use(r.middlewareManager.GinUserActiveMiddleware()) // 用户激活状态检查中间件
	admin.Use(r.middlewareManager.GinAdminRoleMiddleware())  // 管理员权限检查中间件
	admin.Use(r.middlewareManager.GinNoIndexMiddleware())    // 管理接口禁止搜索引擎索引
	{
		// 用户管理
		users := admin.Group("/users")
		{
			users.GET("/list", r.userHandler.GetUsers)                   // 获取用户列表
			users.POST("/create", r.userHandler.CreateUser)              // 创建用户(包含角色分配)
			users.GET("/:id", r.userHandler.GetUser)                     // 获取用户详情(包含角色和权限信息)
			users.POST("/:id", r.userHandler.UpdateUser)                 // 更新用户信息
			users.DELETE("/:id", r.userHandler.DeleteUser)               // 删除用户(同时删除用户角色关系)
			users.GET("/:id/roles", r.userHandler.GetUserRoles)          // 获取用户角色
			users.GET("/:id/permissions", r.userHandler.GetUserPermissions) // 获取用户有效权限集合
			users.POST("/:id/roles", r.userHandler.AssignUserRoles)      // 分配/移除用户角色
			users.POST("/batch/roles", r.userHandler.BatchUserRoles)     // 批量用户角色操作(部分失败语义)
			if r.config.App.Features.PasswordReset {                     // 检查配置文件密码重置功能开关
				users.POST("/:id/reset-password", r.profileHandler.ResetPassword) // 重置用户密码
			}
		}

		// 角色管理
		roles := admin.Group("/roles")
		{
			roles.GET("/list", r.roleHandler.GetRoles)                       // 获取角色列表
			roles.POST("/create", r.roleHandler.CreateRole)                  // 创建角色(包含权限分配)
			roles.GET("/:id", r.roleHandler.GetRole)                         // 获取角色详情(包含关联权限)
			roles.POST("/:id", r.roleHandler.UpdateRole)                     // 更新角色(乐观锁版本校验)
			roles.DELETE("/:id", r.roleHandler.DeleteRole)                   // 删除角色(有用户引用时拒绝)
			roles.POST("/batch/delete", r.roleHandler.BatchDeleteRoles)      // 批量删除角色(部分失败语义)
			roles.GET("/:id/permissions", r.roleHandler.GetRolePermissions)  // 获取角色权限
			roles.POST("/:id/permissions", r.roleHandler.ReplaceRolePermissions) // 全量替换角色权限
			roles.POST("/:id/activate", r.roleHandler.ActivateRole)          // 激活角色
			roles.POST("/:id/deactivate", r.roleHandler.DeactivateRole)      // 禁用角色
		}

		// 权限管理
		permissions := admin.Group("/permissions")
		{
			permissions.GET("/list", r.permissionHandler.GetPermissions)              // 获取权限列表
			permissions.GET("/tree", r.permissionHandler.GetPermissionTree)           // 获取按资源分组的权限树(支持?q=过滤)
			permissions.POST("/create", r.permissionHandler.CreatePermission)         // 创建权限(权限状态默认为启用)
			permissions.GET("/:id", r.permissionHandler.GetPermission)                // 获取权限详情
			permissions.POST("/:id", r.permissionHandler.UpdatePermission)            // 更新权限(乐观锁版本校验)
			permissions.DELETE("/:id", r.permissionHandler.DeletePermission)          // 删除权限(有角色或子权限引用时拒绝)
			permissions.POST("/batch/delete", r.permissionHandler.BatchDeletePermissions) // 批量删除权限(部分失败语义)
			permissions.GET("/:id/roles", r.permissionHandler.GetPermissionRoles)     // 获取引用该权限的角色
			permissions.GET("/:id/children", r.permissionHandler.GetPermissionChildren) // 获取子权限列表
		}

		// 菜单配置管理
		menus := admin.Group("/menus")
		{
			menus.GET("/list", r.menuHandler.GetMenuConfigs)            // 获取菜单配置列表(分页)
			menus.GET("/tree", r.menuHandler.GetMenuTree)               // 获取完整菜单树(不做可见性过滤)
			menus.POST("/create", r.menuHandler.CreateMenuConfig) // 创建菜单节点
			if r.config.App.Features.MenuExport {                 // 检查配置文件菜单导出功能开关
				menus.GET("/export", r.menuHandler.ExportMenuConfigs) // 导出全量菜单配置
			}
			if r.config.App.Features.MenuImport { // 检查配置文件菜单导入功能开关
				menus.POST("/import", r.menuHandler.ImportMenuConfigs) // 导入菜单配置(replace/merge)
			}
			menus.POST("/preview", r.menuHandler.PreviewMenuPermissions)       // 全树可见性预览
			menus.GET("/:key", r.menuHandler.GetMenuConfig)             // 按节点键获取菜单配置
			menus.POST("/:key", r.menuHandler.UpdateMenuConfig)         // 更新菜单节点(乐观锁版本校验)
			menus.DELETE("/:key", r.menuHandler.DeleteMenuConfig)       // 删除菜单节点(存在子节点时拒绝)
			menus.POST("/:key/preview", r.menuHandler.PreviewMenuPermissions) // 指定子树可见性预览
		}

		// 会话管理
		sessions := admin.Group("/sessions")
		{
			sessions.GET("/:id", r.sessionHandler.GetUserSessions)       // 查询用户的会话列表
			sessions.DELETE("/:id", r.sessionHandler.RevokeUserSessions) // 吊销用户所有会话
		}
	}
}
