package auth

import (
	"context"
	"testing"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCreatePermission(t *testing.T) {
	svc, _ := newTestPermissionService(t)
	ctx := context.Background()

	perm, err := svc.CreatePermission(ctx, &model.CreatePermissionRequest{
		Name:        "user.view",
		DisplayName: "查看用户",
		Module:      "user",
		Resource:    "user",
		Action:      "view",
	})
	assert.NoError(t, err)
	assert.NotZero(t, perm.ID)

	// 名称重复
	_, err = svc.CreatePermission(ctx, &model.CreatePermissionRequest{Name: "user.view"})
	assert.EqualError(t, err, "权限名称已存在")

	// 点分格式校验
	_, err = svc.CreatePermission(ctx, &model.CreatePermissionRequest{Name: "1bad.name"})
	assert.EqualError(t, err, "权限名称只能包含字母、数字、下划线和点，且每段必须以字母开头")

	// 父权限必须存在
	missing := uint(9999)
	_, err = svc.CreatePermission(ctx, &model.CreatePermissionRequest{Name: "user.orphan", ParentID: &missing})
	assert.Error(t, err)
}

func TestDeletePermissionWithChildren(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	parent := mustCreatePermission(t, db, &model.Permission{Name: "model", Module: "model", Resource: "model"})
	mustCreatePermission(t, db, &model.Permission{Name: "model.view", Module: "model", Resource: "model", Action: "view", ParentID: &parent.ID})

	// 存在1个子权限,拒绝删除并报告准确数量
	err := svc.DeletePermission(ctx, parent.ID)
	assert.EqualError(t, err, "权限删除失败: 存在 1 个子权限")
}

func TestDeletePermissionSystemProtection(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	system := mustCreatePermission(t, db, &model.Permission{Name: "system.admin", Module: "system", IsSystem: true})

	err := svc.DeletePermission(ctx, system.ID)
	assert.EqualError(t, err, "系统权限不能被删除")
}

func TestDeletePermissionRemovesRoleLinks(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	perm := mustCreatePermission(t, db, &model.Permission{Name: "doomed.view", Module: "doomed"})
	role := mustCreateRole(t, db, &model.Role{Name: "link_holder"})
	assert.NoError(t, db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error)

	assert.NoError(t, svc.DeletePermission(ctx, perm.ID))

	var linkCount int64
	assert.NoError(t, db.Model(&model.RolePermission{}).Where("permission_id = ?", perm.ID).Count(&linkCount).Error)
	assert.Zero(t, linkCount)
}

func TestBatchDeletePermissionsPartialFailure(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	deletable := mustCreatePermission(t, db, &model.Permission{Name: "temp.view", Module: "temp"})
	parent := mustCreatePermission(t, db, &model.Permission{Name: "guarded", Module: "guarded"})
	mustCreatePermission(t, db, &model.Permission{Name: "guarded.view", Module: "guarded", ParentID: &parent.ID})

	result, err := svc.BatchDeletePermissions(ctx, []uint{deletable.ID, parent.ID})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []uint{deletable.ID}, result.SuccessIDs)
	assert.Equal(t, "权限删除失败: 存在 1 个子权限", result.FailedReason[parent.ID])
}

func TestUpdatePermissionVersionConflict(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	perm := mustCreatePermission(t, db, &model.Permission{Name: "order.view", Module: "order"})

	updated, err := svc.UpdatePermissionByID(ctx, perm.ID, &model.UpdatePermissionRequest{
		DisplayName: "查看订单",
		Version:     1,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	_, err = svc.UpdatePermissionByID(ctx, perm.ID, &model.UpdatePermissionRequest{
		DisplayName: "过期写入",
		Version:     1,
	})
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestGetPermissionChildren(t *testing.T) {
	svc, db := newTestPermissionService(t)
	ctx := context.Background()

	parent := mustCreatePermission(t, db, &model.Permission{Name: "report", Module: "report"})
	mustCreatePermission(t, db, &model.Permission{Name: "report.view", Module: "report", ParentID: &parent.ID})
	mustCreatePermission(t, db, &model.Permission{Name: "report.export", Module: "report", ParentID: &parent.ID})

	children, err := svc.GetPermissionChildren(ctx, parent.ID)
	assert.NoError(t, err)
	assert.Len(t, children, 2)
}
