/**
 * 初始化
 * @author: linkc
 * @date: 2025.12.03
 * @description: 包含master程序初始化相关的类型定义
 * @func: setup 层仅负责依赖装配（Handler → Service → Repository），不侵入业务逻辑
 */
package setup

import (
	authHandler "openmaas/internal/handler/auth"
	systemHandler "openmaas/internal/handler/system"
	redisRepo "openmaas/internal/repo/redis"
	authService "openmaas/internal/service/auth"
	menuService "openmaas/internal/service/menu"
)

// AuthModule 是认证模块的聚合输出
// 将认证相关的 Handler 与 Service 作为一个整体进行初始化与对外暴露，
// 便于 router_manager 进行路由与中间件装配
type AuthModule struct {
	// Handlers（认证相关处理器）
	LoginHandler    *authHandler.LoginHandler
	LogoutHandler   *authHandler.LogoutHandler
	RefreshHandler  *authHandler.RefreshHandler
	RegisterHandler *authHandler.RegisterHandler
	ProfileHandler  *authHandler.ProfileHandler

	// Services（对外暴露以供 router_manager 及其他模块使用）
	SessionService  *authService.SessionService
	JWTService      *authService.JWTService
	PasswordService *authService.PasswordService
	UserService     *authService.UserService
	RBACService     *authService.RBACService

	// 共享基础设施（其他模块装配时复用）
	PermissionCache *redisRepo.PermissionCacheRepository
}

// SystemRBACModule 是系统层面的 RBAC 管理模块聚合输出
// 覆盖用户、角色、权限、会话的管理接口，与认证模块（AuthModule）分割
type SystemRBACModule struct {
	// Handlers（系统RBAC相关处理器）
	UserHandler       *systemHandler.UserHandler
	RoleHandler       *systemHandler.RoleHandler
	PermissionHandler *systemHandler.PermissionHandler
	SessionHandler    *systemHandler.SessionHandler

	// Services（对外暴露以供 router_manager 或其他模块复用）
	RoleService       *authService.RoleService
	PermissionService *authService.PermissionService
}

// MenuModule 是菜单配置与可见性模块的聚合输出
type MenuModule struct {
	// Handlers
	MenuHandler *systemHandler.MenuHandler

	// Services
	MenuService       *menuService.MenuService
	VisibilityService *menuService.VisibilityService
}
