package setup

import (
	systemHandler "openmaas/internal/handler/system"
	"openmaas/internal/pkg/logger"
	systemRepo "openmaas/internal/repo/mysql/system"
	authService "openmaas/internal/service/auth"
	menuService "openmaas/internal/service/menu"

	"gorm.io/gorm"
)

// BuildMenuModule 构建菜单配置与可见性模块
// 责任边界：
// - 初始化菜单配置仓库与服务（MenuService、VisibilityService）
// - 初始化菜单路由处理器（MenuHandler）
// - 可见性计算依赖认证模块的 RBACService 获取用户有效权限集合
func BuildMenuModule(db *gorm.DB, rbacService *authService.RBACService) *MenuModule {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.menu.BuildMenuModule",
		"operation": "setup",
		"option":    "setup.menu.begin",
		"func_name": "setup.menu.BuildMenuModule",
	}).Info("开始构建菜单模块")

	// 1) 初始化仓库
	menuRepo := systemRepo.NewMenuConfigRepository(db)

	// 2) 初始化服务
	menuSvc := menuService.NewMenuService(menuRepo)
	visibilitySvc := menuService.NewVisibilityService(menuSvc, rbacService)

	// 3) 初始化处理器
	menuHandler := systemHandler.NewMenuHandler(menuSvc, visibilitySvc)

	// 4) 聚合输出
	module := &MenuModule{
		MenuHandler:       menuHandler,
		MenuService:       menuSvc,
		VisibilityService: visibilitySvc,
	}

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.menu.BuildMenuModule",
		"operation": "setup",
		"option":    "setup.menu.done",
		"func_name": "setup.menu.BuildMenuModule",
	}).Info("菜单模块构建完成")

	return module
}
