package setup

import (
	"time"

	"openmaas/internal/config"
	authHandler "openmaas/internal/handler/auth"
	authPkg "openmaas/internal/pkg/auth"
	pkgDatabase "openmaas/internal/pkg/database"
	"openmaas/internal/pkg/logger"
	systemRepo "openmaas/internal/repo/mysql/system"
	redisRepo "openmaas/internal/repo/redis"
	authService "openmaas/internal/service/auth"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// BuildAuthModule 构建认证模块（Auth）
// 责任边界：
// - 初始化认证相关的工具、仓库与服务（JWT、Password、Session、权限缓存等）
// - 初始化认证相关的处理器（Login/Logout/Refresh/Register/Profile）
// - 仅聚合"认证域"的组件，并将其作为模块输出，供 router_manager 进行路由与中间件装配
//
// 参数说明：
// - db：MySQL连接（gorm.DB），用于构建系统用户与角色仓库
// - redisClient：Redis 客户端；如为 nil，则按配置 cfg.Database.Redis 自动建立连接
// - cfg：全局配置；用于初始化 JWT、权限缓存与安全相关参数
func BuildAuthModule(
	db *gorm.DB,
	redisClient *redis.Client,
	cfg *config.Config,
) (*AuthModule, error) {
	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.auth.BuildAuthModule",
		"operation": "setup",
		"option":    "setup.auth.begin",
		"func_name": "setup.auth.BuildAuthModule",
	}).Info("开始构建认证模块")

	// 1) 初始化工具：JWTManager 与 PasswordManager（从配置读取TTL）
	jwtCfg := cfg.Security.JWT
	accessExpire := jwtCfg.AccessTokenExpire
	if accessExpire <= 0 {
		accessExpire = time.Hour
	}
	refreshExpire := jwtCfg.RefreshTokenExpire
	if refreshExpire <= 0 {
		refreshExpire = 24 * time.Hour
	}
	jwtManager := authPkg.NewJWTManager(jwtCfg.Secret, jwtCfg.Issuer, accessExpire, refreshExpire)

	// PasswordManager 的参数目前未配置化，沿用项目内既有初始化常量
	passwordConfig := &authPkg.PasswordConfig{
		Memory:      64 * 1024, // 64MB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  32,
		KeyLength:   32,
	}
	passwordManager := authPkg.NewPasswordManager(passwordConfig)

	// 2) 初始化Redis仓库（会话存储与用户有效权限缓存）
	redisCli := redisClient
	if redisCli == nil {
		// 按配置建立Redis连接（兜底）
		cli, err := pkgDatabase.NewRedisConnection(&cfg.Database.Redis)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"path":      "internal.app.master.setup.auth.BuildAuthModule",
				"operation": "setup",
				"option":    "setup.auth.repo.session.redis.connect_error",
				"func_name": "setup.auth.BuildAuthModule",
				"error":     err.Error(),
			}).Error("Redis连接失败")
			return nil, err
		}
		redisCli = cli
	}
	sessionRepo := redisRepo.NewSessionRepository(redisCli)

	permCacheCfg := cfg.Cache.Permission
	permCacheTTL := permCacheCfg.TTL
	if permCacheTTL <= 0 {
		permCacheTTL = time.Hour
	}
	permCache := redisRepo.NewPermissionCacheRepository(redisCli, permCacheCfg.KeyPrefix, permCacheTTL)

	// 3) 初始化系统仓库与用户服务
	userRepo := systemRepo.NewUserRepository(db)
	roleRepo := systemRepo.NewRoleRepository(db)
	userService := authService.NewUserService(userRepo, roleRepo, sessionRepo, permCache, passwordManager, jwtManager)

	// 4) 初始化RBAC服务 (运行时鉴权使用,并非系统RBAC管理使用)
	rbacService := authService.NewRBACService(userRepo, permCache)

	// 5) 初始化JWT与会话服务
	jwtService := authService.NewJWTService(jwtManager, userRepo)
	sessionService := authService.NewSessionService(userService, passwordManager, jwtService, rbacService, sessionRepo)

	// 6) 初始化密码服务
	passwordService := authService.NewPasswordService(userService, sessionService, passwordManager, time.Hour*24)

	// 7) 初始化处理器（认证相关）
	loginHandler := authHandler.NewLoginHandler(sessionService)
	logoutHandler := authHandler.NewLogoutHandler(sessionService)
	refreshHandler := authHandler.NewRefreshHandler(sessionService)
	registerHandler := authHandler.NewRegisterHandler(userService)
	profileHandler := authHandler.NewProfileHandler(userService, passwordService)

	// 8) 聚合输出
	module := &AuthModule{
		LoginHandler:    loginHandler,
		LogoutHandler:   logoutHandler,
		RefreshHandler:  refreshHandler,
		RegisterHandler: registerHandler,
		ProfileHandler:  profileHandler,
		SessionService:  sessionService,
		JWTService:      jwtService,
		PasswordService: passwordService,
		UserService:     userService,
		RBACService:     rbacService,
		PermissionCache: permCache,
	}

	logger.WithFields(map[string]interface{}{
		"path":      "internal.app.master.setup.auth.BuildAuthModule",
		"operation": "setup",
		"option":    "setup.auth.done",
		"func_name": "setup.auth.BuildAuthModule",
	}).Info("认证模块构建完成")

	return module, nil
}
