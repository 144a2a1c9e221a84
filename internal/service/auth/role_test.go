package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestValidateRoleName(t *testing.T) {
	valid := []string{"admin", "Ops_viewer", "role2", "a"}
	for _, name := range valid {
		assert.NoError(t, ValidateRoleName(name), "应接受角色名 %s", name)
	}

	invalid := []string{"", "123invalid", "_lead", "has space", "名字", "a-b"}
	for _, name := range invalid {
		assert.Error(t, ValidateRoleName(name), "应拒绝角色名 %s", name)
	}

	err := ValidateRoleName("123invalid")
	assert.EqualError(t, err, "角色名称只能包含字母、数字和下划线，且必须以字母开头")
}

func TestCreateRole(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	p1 := mustCreatePermission(t, db, &model.Permission{Name: "user.view", Module: "user", Resource: "user", Action: "view"})
	p2 := mustCreatePermission(t, db, &model.Permission{Name: "user.create", Module: "user", Resource: "user", Action: "create"})

	role, err := svc.CreateRole(ctx, &model.CreateRoleRequest{
		Name:          "auditor",
		DisplayName:   "审计员",
		PermissionIDs: []uint{p1.ID, p2.ID},
	})
	assert.NoError(t, err)
	assert.NotZero(t, role.ID)
	assert.Equal(t, model.RoleTypeCustom, role.RoleType)
	assert.Equal(t, model.RoleStatusEnabled, role.Status)

	got, err := svc.GetRoleWithPermissions(ctx, role.ID)
	assert.NoError(t, err)
	assert.Len(t, got.Permissions, 2)

	// 名称重复
	_, err = svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "auditor"})
	assert.EqualError(t, err, "角色名称已存在")

	// 名称格式非法
	_, err = svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "123invalid"})
	assert.EqualError(t, err, "角色名称只能包含字母、数字和下划线，且必须以字母开头")

	// 不存在的权限ID
	_, err = svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "broken", PermissionIDs: []uint{9999}})
	assert.ErrorContains(t, err, "权限不存在")
}

func TestUpdateRoleVersionConflict(t *testing.T) {
	svc, _ := newTestRoleService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "editor"})
	assert.NoError(t, err)

	role, err := svc.GetRoleByID(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), role.Version)

	// 携带正确版本号更新,版本号递增
	updated, err := svc.UpdateRoleByID(ctx, role.ID, &model.UpdateRoleRequest{
		DisplayName: "编辑",
		Version:     1,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	// 携带过期版本号更新,返回冲突
	_, err = svc.UpdateRoleByID(ctx, role.ID, &model.UpdateRoleRequest{
		DisplayName: "过期写入",
		Version:     1,
	})
	assert.True(t, errors.Is(err, ErrVersionConflict))

	// 版本号为0时放弃冲突检测
	updated, err = svc.UpdateRoleByID(ctx, role.ID, &model.UpdateRoleRequest{
		Description: "最后写入生效",
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
}

func TestUpdateRoleNoChangeShortCircuit(t *testing.T) {
	svc, _ := newTestRoleService(t)
	ctx := context.Background()

	created, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "viewer", DisplayName: "只读"})
	assert.NoError(t, err)
	role, err := svc.GetRoleByID(ctx, created.ID)
	assert.NoError(t, err)

	// 所有字段与现状相同,不应递增版本号
	same, err := svc.UpdateRoleByID(ctx, role.ID, &model.UpdateRoleRequest{DisplayName: "只读"})
	assert.NoError(t, err)
	assert.Equal(t, role.Version, same.Version)
}

func TestUpdateRoleSystemProtection(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	system := mustCreateRole(t, db, &model.Role{Name: "super_admin", RoleType: model.RoleTypeSystem, IsSystem: true})

	_, err := svc.UpdateRoleByID(ctx, system.ID, &model.UpdateRoleRequest{DisplayName: "改名"})
	assert.EqualError(t, err, "系统角色不能被修改")

	err = svc.DeleteRole(ctx, system.ID)
	assert.EqualError(t, err, "系统角色不能被删除")
}

func TestDeleteRoleHeldByUsers(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "operator"})
	assert.NoError(t, err)

	user := mustCreateUser(t, db, &model.User{Username: "holder", Email: "holder@example.com"})
	assert.NoError(t, db.Create(&model.UserRole{UserID: user.ID, RoleID: role.ID, AssignedAt: time.Now()}).Error)

	// 仍有用户持有,拒绝删除并报告准确数量
	err = svc.DeleteRole(ctx, role.ID)
	assert.EqualError(t, err, "角色删除失败: 仍有 1 个用户持有该角色")

	// 解除持有后允许删除
	assert.NoError(t, db.Where("user_id = ? AND role_id = ?", user.ID, role.ID).Delete(&model.UserRole{}).Error)
	assert.NoError(t, svc.DeleteRole(ctx, role.ID))

	_, err = svc.GetRoleByID(ctx, role.ID)
	assert.EqualError(t, err, "角色不存在")
}

func TestBatchDeleteRolesPartialFailure(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	deletable, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "temp_role"})
	assert.NoError(t, err)
	system := mustCreateRole(t, db, &model.Role{Name: "builtin", RoleType: model.RoleTypeSystem, IsSystem: true})

	result, err := svc.BatchDeleteRoles(ctx, []uint{deletable.ID, system.ID, 9999})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailedCount)
	assert.Equal(t, []uint{deletable.ID}, result.SuccessIDs)
	assert.Equal(t, "系统角色不能被删除", result.FailedReason[system.ID])
	assert.Equal(t, "角色不存在", result.FailedReason[9999])
}

func TestRoleStatusTransitions(t *testing.T) {
	svc, _ := newTestRoleService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "toggler"})
	assert.NoError(t, err)

	assert.NoError(t, svc.DeactivateRole(ctx, role.ID))
	got, err := svc.GetRoleByID(ctx, role.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleStatusDisabled, got.Status)

	assert.NoError(t, svc.ActivateRole(ctx, role.ID))
	got, err = svc.GetRoleByID(ctx, role.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.RoleStatusEnabled, got.Status)
}

func TestReplaceRolePermissions(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	p1 := mustCreatePermission(t, db, &model.Permission{Name: "role.view", Module: "role", Resource: "role", Action: "view"})
	p2 := mustCreatePermission(t, db, &model.Permission{Name: "role.update", Module: "role", Resource: "role", Action: "update"})

	role, err := svc.CreateRole(ctx, &model.CreateRoleRequest{Name: "granter", PermissionIDs: []uint{p1.ID}})
	assert.NoError(t, err)

	// 整体替换为另一集合
	assert.NoError(t, svc.ReplaceRolePermissions(ctx, role.ID, []uint{p2.ID}))
	perms, err := svc.GetRolePermissions(ctx, role.ID)
	assert.NoError(t, err)
	assert.Len(t, perms, 1)
	assert.Equal(t, "role.update", perms[0].Name)

	// 替换为空集合即清空
	assert.NoError(t, svc.ReplaceRolePermissions(ctx, role.ID, []uint{}))
	perms, err = svc.GetRolePermissions(ctx, role.ID)
	assert.NoError(t, err)
	assert.Empty(t, perms)
}

func TestGetRoleList(t *testing.T) {
	svc, db := newTestRoleService(t)
	ctx := context.Background()

	mustCreateRole(t, db, &model.Role{Name: "role_a"})
	mustCreateRole(t, db, &model.Role{Name: "role_b"})
	mustCreateRole(t, db, &model.Role{Name: "role_c"})

	roles, total, err := svc.GetRoleList(ctx, 0, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, roles, 2)
}
