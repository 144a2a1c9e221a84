/**
 * 路由:路由管理器
 * @author: linkc
 * @date: 2025.12.03
 * @description: 路由管理器，包含Router结构体、NewRouter函数和SetupRoutes主函数
 * @func:
 */
package router

import (
	"openmaas/internal/app/master/middleware"
	"openmaas/internal/app/master/setup"
	"openmaas/internal/config"
	authHandler "openmaas/internal/handler/auth"
	systemHandler "openmaas/internal/handler/system"
	"openmaas/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Router 路由管理器
type Router struct {
	config            *config.Config
	engine            *gin.Engine
	middlewareManager *middleware.MiddlewareManager
	loginHandler      *authHandler.LoginHandler
	logoutHandler     *authHandler.LogoutHandler
	refreshHandler    *authHandler.RefreshHandler
	registerHandler   *authHandler.RegisterHandler
	profileHandler    *authHandler.ProfileHandler
	userHandler       *systemHandler.UserHandler
	roleHandler       *systemHandler.RoleHandler
	permissionHandler *systemHandler.PermissionHandler
	menuHandler       *systemHandler.MenuHandler
	sessionHandler    *systemHandler.SessionHandler
}

// NewRouter 创建路由管理器实例
// 依赖装配交给 setup 层的各模块构建函数，这里只负责聚合与路由注册
func NewRouter(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) (*Router, error) {
	// 认证模块（JWT、密码、会话、RBAC运行时鉴权）
	authModule, err := setup.BuildAuthModule(db, redisClient, cfg)
	if err != nil {
		return nil, err
	}

	// 系统RBAC管理模块（用户、角色、权限、会话管理）
	rbacModule := setup.BuildSystemRBACModule(db, authModule)

	// 菜单配置与可见性模块
	menuModule := setup.BuildMenuModule(db, authModule.RBACService)

	// 初始化中间件管理器（传入jwtService用于密码版本验证）
	middlewareManager := middleware.NewMiddlewareManager(
		authModule.SessionService,
		authModule.RBACService,
		authModule.JWTService,
		&cfg.Security,
	)

	// 创建Gin引擎
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	return &Router{
		config:            cfg,
		engine:            engine,
		middlewareManager: middlewareManager,
		loginHandler:      authModule.LoginHandler,
		logoutHandler:     authModule.LogoutHandler,
		refreshHandler:    authModule.RefreshHandler,
		registerHandler:   authModule.RegisterHandler,
		profileHandler:    authModule.ProfileHandler,
		userHandler:       rbacModule.UserHandler,
		roleHandler:       rbacModule.RoleHandler,
		permissionHandler: rbacModule.PermissionHandler,
		menuHandler:       menuModule.MenuHandler,
		sessionHandler:    rbacModule.SessionHandler,
	}, nil
}

// SetupRoutes 设置全局中间件和路由
// 在这里配置调用各个路由模块
func (r *Router) SetupRoutes() {
	// 1) 全局中间件注册
	r.registerGlobalMiddleware()

	// 2) 路由注册
	r.registerRoutes()
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// registerGlobalMiddleware 注册全局中间件
// 将全局中间件的挂载集中在一个方法中，便于统一管理与测试
func (r *Router) registerGlobalMiddleware() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("开始注册全局中间件")

	// 系统恢复中间件，防止 panic 直接导致进程崩溃
	r.engine.Use(gin.Recovery())

	if r.middlewareManager != nil {
		// 请求ID中间件
		r.engine.Use(r.middlewareManager.GinRequestIDMiddleware())
		// CORS 中间件
		r.engine.Use(r.middlewareManager.GinCORSMiddleware())
		// 安全响应头中间件
		r.engine.Use(r.middlewareManager.GinSecurityHeadersMiddleware())
		// 统一日志中间件
		r.engine.Use(r.middlewareManager.GinLoggingMiddleware())
		// 限流中间件
		r.engine.Use(r.middlewareManager.GinRateLimitMiddleware())
	}

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerGlobalMiddleware",
		"operation": "register_global_middleware",
		"option":    "middlewareManager.attach.done",
		"func_name": "router.registerGlobalMiddleware",
	}).Info("全局中间件注册完成")
}

// registerRoutes 注册路由
// 将"中间件注册"和"各模块路由注册"的步骤分离，提升可维护性与可测试性
func (r *Router) registerRoutes() {
	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"option":    "routes.attach.begin",
		"func_name": "router.registerRoutes",
	}).Info("开始注册路由")

	// API 版本路由组：/api/v1
	api := r.engine.Group("/api")
	v1 := api.Group("/v1")

	// 公共路由（不需要认证）
	r.setupPublicRoutes(v1)
	// 用户路由（需要 JWT 认证）
	r.setupUserRoutes(v1)
	// 管理员路由（需要管理员权限）
	r.setupAdminRoutes(v1)
	// 健康检查路由
	r.setupHealthRoutes(api)

	logger.WithFields(map[string]interface{}{
		"path":      "router_manager.registerRoutes",
		"operation": "register_routes",
		"option":    "routes.attach.done",
		"func_name": "router.registerRoutes",
	}).Info("路由注册完成")
}
