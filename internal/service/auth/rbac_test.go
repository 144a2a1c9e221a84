package auth

import (
	"context"
	"testing"
	"time"

	"openmaas/internal/model"
	systemrepo "openmaas/internal/repo/mysql/system"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// newTestRBACService 装配RBAC服务(无权限缓存,每次检查回源数据库)
func newTestRBACService(t *testing.T) (*RBACService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	userRepo := systemrepo.NewUserRepository(db)
	return NewRBACService(userRepo, nil), db
}

// grantRole 建立用户角色关联
func grantRole(t *testing.T, db *gorm.DB, userID, roleID uint) {
	t.Helper()
	if err := db.Create(&model.UserRole{UserID: userID, RoleID: roleID, AssignedAt: time.Now()}).Error; err != nil {
		t.Fatalf("分配测试角色失败: %v", err)
	}
}

// grantPermission 建立角色权限关联
func grantPermission(t *testing.T, db *gorm.DB, roleID, permissionID uint) {
	t.Helper()
	if err := db.Create(&model.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error; err != nil {
		t.Fatalf("分配测试权限失败: %v", err)
	}
}

func TestGetEffectivePermissions(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "worker", Email: "worker@example.com"})
	r1 := mustCreateRole(t, db, &model.Role{Name: "reader"})
	r2 := mustCreateRole(t, db, &model.Role{Name: "writer"})
	pView := mustCreatePermission(t, db, &model.Permission{Name: "doc.view", Module: "doc"})
	pEdit := mustCreatePermission(t, db, &model.Permission{Name: "doc.edit", Module: "doc"})

	grantRole(t, db, user.ID, r1.ID)
	grantRole(t, db, user.ID, r2.ID)
	grantPermission(t, db, r1.ID, pView.ID)
	grantPermission(t, db, r2.ID, pView.ID) // 两个角色重复授予同一权限
	grantPermission(t, db, r2.ID, pEdit.ID)

	// 多角色权限取并集,重复权限去重
	perms, err := svc.GetEffectivePermissions(ctx, user.ID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"doc.view", "doc.edit"}, perms)
}

func TestEffectivePermissionsSkipDisabled(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "limited", Email: "limited@example.com"})
	activeRole := mustCreateRole(t, db, &model.Role{Name: "active_role"})
	disabledRole := mustCreateRole(t, db, &model.Role{Name: "disabled_role"})
	assert.NoError(t, db.Model(disabledRole).Update("status", model.RoleStatusDisabled).Error)

	pKeep := mustCreatePermission(t, db, &model.Permission{Name: "keep.view", Module: "keep"})
	pLost := mustCreatePermission(t, db, &model.Permission{Name: "lost.view", Module: "lost"})
	pOff := mustCreatePermission(t, db, &model.Permission{Name: "off.view", Module: "off"})
	assert.NoError(t, db.Model(pOff).Update("status", model.PermissionStatusDisabled).Error)

	grantRole(t, db, user.ID, activeRole.ID)
	grantRole(t, db, user.ID, disabledRole.ID)
	grantPermission(t, db, activeRole.ID, pKeep.ID)
	grantPermission(t, db, activeRole.ID, pOff.ID)   // 禁用权限不参与
	grantPermission(t, db, disabledRole.ID, pLost.ID) // 禁用角色整体不参与

	perms, err := svc.GetEffectivePermissions(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, []string{"keep.view"}, perms)
}

func TestHasPermission(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "checker", Email: "checker@example.com"})
	role := mustCreateRole(t, db, &model.Role{Name: "doc_reader"})
	perm := mustCreatePermission(t, db, &model.Permission{Name: "doc.view", Module: "doc"})
	grantRole(t, db, user.ID, role.ID)
	grantPermission(t, db, role.ID, perm.ID)

	ok, err := svc.HasPermission(ctx, user.ID, "doc.view")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasPermission(ctx, user.ID, "doc.delete")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionAdminBypass(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	admin := mustCreateUser(t, db, &model.User{Username: "root", Email: "root@example.com", IsAdmin: true})

	// 管理员标记直接放行,无需任何角色或权限
	ok, err := svc.HasPermission(ctx, admin.ID, "anything.at.all")
	assert.NoError(t, err)
	assert.True(t, ok)

	isAdmin, err := svc.IsAdminUser(ctx, admin.ID)
	assert.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestIsAdminUserBySystemRole(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "opsadmin", Email: "opsadmin@example.com"})
	adminRole := mustCreateRole(t, db, &model.Role{Name: "admin", RoleType: model.RoleTypeSystem, IsSystem: true})
	grantRole(t, db, user.ID, adminRole.ID)

	// 持有系统内置 admin 角色视为管理员
	isAdmin, err := svc.IsAdminUser(ctx, user.ID)
	assert.NoError(t, err)
	assert.True(t, isAdmin)
}

func TestHasAnyRoleAndHasRole(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "roleuser", Email: "roleuser@example.com"})
	role := mustCreateRole(t, db, &model.Role{Name: "auditor"})
	grantRole(t, db, user.ID, role.ID)

	ok, err := svc.HasRole(ctx, user.ID, "auditor")
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAnyRole(ctx, user.ID, []string{"missing", "auditor"})
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAnyRole(ctx, user.ID, []string{"missing"})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestIsUserActive(t *testing.T) {
	svc, db := newTestRBACService(t)
	ctx := context.Background()

	active := mustCreateUser(t, db, &model.User{Username: "active", Email: "active@example.com"})
	disabled := mustCreateUser(t, db, &model.User{Username: "frozen", Email: "frozen@example.com"})
	assert.NoError(t, db.Model(disabled).Update("status", model.UserStatusDisabled).Error)

	ok, err := svc.IsUserActive(ctx, active.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsUserActive(ctx, disabled.ID)
	assert.NoError(t, err)
	assert.False(t, ok)
}
