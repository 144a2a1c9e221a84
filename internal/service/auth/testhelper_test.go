package auth

import (
	"testing"

	"openmaas/internal/model"
	systemrepo "openmaas/internal/repo/mysql/system"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// newTestDB 创建内存数据库并迁移授权目录相关表
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开内存数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.UserRole{},
		&model.RolePermission{},
	); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

// newTestRoleService 装配角色服务(无权限缓存)
func newTestRoleService(t *testing.T) (*RoleService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	roleRepo := systemrepo.NewRoleRepository(db)
	permissionRepo := systemrepo.NewPermissionRepository(db)
	return NewRoleService(roleRepo, permissionRepo, nil), db
}

// newTestPermissionService 装配权限服务(无权限缓存)
func newTestPermissionService(t *testing.T) (*PermissionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	permissionRepo := systemrepo.NewPermissionRepository(db)
	return NewPermissionService(permissionRepo, nil), db
}

// mustCreatePermission 直接落库一条权限记录
func mustCreatePermission(t *testing.T, db *gorm.DB, p *model.Permission) *model.Permission {
	t.Helper()
	if p.Status == 0 {
		p.Status = model.PermissionStatusEnabled
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("创建测试权限失败: %v", err)
	}
	return p
}

// mustCreateRole 直接落库一条角色记录
func mustCreateRole(t *testing.T, db *gorm.DB, r *model.Role) *model.Role {
	t.Helper()
	if r.Status == 0 {
		r.Status = model.RoleStatusEnabled
	}
	if r.RoleType == "" {
		r.RoleType = model.RoleTypeCustom
	}
	if r.Version == 0 {
		r.Version = 1
	}
	if err := db.Create(r).Error; err != nil {
		t.Fatalf("创建测试角色失败: %v", err)
	}
	return r
}

// mustCreateUser 直接落库一条用户记录
func mustCreateUser(t *testing.T, db *gorm.DB, u *model.User) *model.User {
	t.Helper()
	if u.Password == "" {
		u.Password = "$argon2id$test"
	}
	if u.Status == 0 {
		u.Status = model.UserStatusEnabled
	}
	if u.PasswordV == 0 {
		u.PasswordV = 1
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return u
}
