package menu

import (
	"testing"

	"openmaas/internal/model"
	systemrepo "openmaas/internal/repo/mysql/system"
	authservice "openmaas/internal/service/auth"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// newTestDB 打开内存sqlite并迁移菜单与RBAC相关表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.MenuConfig{},
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.UserRole{},
		&model.RolePermission{},
	); err != nil {
		t.Fatalf("迁移测试表结构失败: %v", err)
	}
	return db
}

// newTestMenuService 装配菜单配置服务
func newTestMenuService(t *testing.T) (*MenuService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewMenuService(systemrepo.NewMenuConfigRepository(db)), db
}

// newTestVisibilityService 装配菜单可见性服务(RBAC无缓存)
func newTestVisibilityService(t *testing.T) (*VisibilityService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	menuSvc := NewMenuService(systemrepo.NewMenuConfigRepository(db))
	rbacSvc := authservice.NewRBACService(systemrepo.NewUserRepository(db), nil)
	return NewVisibilityService(menuSvc, rbacSvc), db
}

// mustCreateNode 直接落库一条菜单配置
func mustCreateNode(t *testing.T, db *gorm.DB, cfg *model.MenuConfig) *model.MenuConfig {
	t.Helper()
	if cfg.PermissionLogic == "" {
		cfg.PermissionLogic = model.PermissionLogicAND
	}
	if cfg.RequiredPermissions == nil {
		cfg.RequiredPermissions = model.StringList{}
	}
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	cfg.IsVisible = true
	if err := db.Create(cfg).Error; err != nil {
		t.Fatalf("创建测试菜单节点失败: %v", err)
	}
	return cfg
}
