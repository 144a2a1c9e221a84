package setup

import (
	systemHandler "openmaas/internal/handler/system"
	"openmaas/internal/pkg/logger"
	systemRepo "openmaas/internal/repo/mysql/system"
	authService "openmaas/internal/service/auth"

	"gorm.io/gorm"
)

// BuildSystemRBACModule 构建系统RBAC模块（用户、角色、权限、会话管理）
// 责任边界：
// - 初始化系统角色与权限相关的仓库与服务（RoleService、PermissionService）
// - 初始化对应路由处理器（User/Role/Permission/Session Handler）
// - 复用认证模块输出的 UserService/RBACService/SessionService 与权限缓存，
//   保证角色或权限变更后用户有效权限缓存的失效链路一致
//
// 参数说明：
// - db：MySQL连接（gorm.DB），用于构建系统角色与权限仓库
// - authModule：认证模块输出，提供共享服务与权限缓存
func BuildSystemRBACModule(db *gorm.DB, authModule *AuthModule) *SystemRBACModule {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.rbac.BuildSystemRBACModule",
		"operation": "setup",
		"option":    "setup.rbac.begin",
		"func_name": "setup.rbac.BuildSystemRBACModule",
	}).Info("开始构建系统RBAC模块")

	// 1) 初始化仓库
	roleRepo := systemRepo.NewRoleRepository(db)
	permissionRepo := systemRepo.NewPermissionRepository(db)

	// 2) 初始化服务（权限缓存与认证模块共用同一实例）
	roleService := authService.NewRoleService(roleRepo, permissionRepo, authModule.PermissionCache)
	permissionService := authService.NewPermissionService(permissionRepo, authModule.PermissionCache)

	// 3) 初始化处理器
	userHandler := systemHandler.NewUserHandler(authModule.UserService, authModule.RBACService)
	roleHandler := systemHandler.NewRoleHandler(roleService)
	permissionHandler := systemHandler.NewPermissionHandler(permissionService)
	sessionHandler := systemHandler.NewSessionHandler(authModule.SessionService)

	// 4) 聚合输出
	module := &SystemRBACModule{
		UserHandler:       userHandler,
		RoleHandler:       roleHandler,
		PermissionHandler: permissionHandler,
		SessionHandler:    sessionHandler,
		RoleService:       roleService,
		PermissionService: permissionService,
	}

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.rbac.BuildSystemRBACModule",
		"operation": "setup",
		"option":    "setup.rbac.done",
		"func_name": "setup.rbac.BuildSystemRBACModule",
	}).Info("系统RBAC模块构建完成")

	return module
}
