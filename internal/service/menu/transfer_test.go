package menu

import (
	"context"
	"testing"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestExportImportReplaceRoundTrip(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "dashboard", NodeType: model.NodeTypeMenu, MenuPath: "/dashboard", SortOrder: 1})
	mustCreateNode(t, db, &model.MenuConfig{
		Key: "system", NodeType: model.NodeTypeModule, SortOrder: 2,
		RequiredPermissions: model.StringList{"user.view"},
	})
	mustCreateNode(t, db, &model.MenuConfig{
		Key: "system_users", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/users",
		RequiredPermissions: model.StringList{"user.view"}, PermissionLogic: model.PermissionLogicOR,
	})

	export, err := svc.ExportMenuConfigs(ctx)
	assert.NoError(t, err)
	assert.Len(t, export.Nodes, 3)
	assert.False(t, export.ExportedAt.IsZero())

	// 导出文档replace导入后还原等价目录
	result, err := svc.ImportMenuConfigs(ctx, &model.ImportMenuConfigRequest{
		MergeStrategy: "replace",
		Nodes:         export.Nodes,
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 3, result.Removed)

	restored, err := svc.GetMenuConfigByKey(ctx, "system_users")
	assert.NoError(t, err)
	assert.Equal(t, "system", restored.ParentKey)
	assert.Equal(t, model.PermissionLogicOR, restored.PermissionLogic)
	assert.Equal(t, []string{"user.view"}, []string(restored.RequiredPermissions))
	assert.Equal(t, int64(1), restored.Version)
}

func TestImportReplaceDiscardsExisting(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "old_root", NodeType: model.NodeTypeModule})

	result, err := svc.ImportMenuConfigs(ctx, &model.ImportMenuConfigRequest{
		MergeStrategy: "replace",
		Nodes: []model.MenuConfigNode{
			{Key: "new_root", NodeType: model.NodeTypeModule, IsVisible: true},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Removed)

	_, err = svc.GetMenuConfigByKey(ctx, "old_root")
	assert.ErrorIs(t, err, model.ErrMenuConfigNotFound)
}

func TestImportMerge(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "dashboard", DisplayName: "工作台", NodeType: model.NodeTypeMenu, MenuPath: "/dashboard"})

	result, err := svc.ImportMenuConfigs(ctx, &model.ImportMenuConfigRequest{
		MergeStrategy: "merge",
		Nodes: []model.MenuConfigNode{
			{Key: "dashboard", DisplayName: "控制台", NodeType: model.NodeTypeMenu, MenuPath: "/dashboard", IsVisible: true},
			{Key: "reports", DisplayName: "报表", NodeType: model.NodeTypeMenu, MenuPath: "/reports", IsVisible: true},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Removed)

	// 已有节点按键更新并提升版本
	updated, err := svc.GetMenuConfigByKey(ctx, "dashboard")
	assert.NoError(t, err)
	assert.Equal(t, "控制台", updated.DisplayName)
	assert.Equal(t, int64(2), updated.Version)

	created, err := svc.GetMenuConfigByKey(ctx, "reports")
	assert.NoError(t, err)
	assert.Equal(t, "报表", created.DisplayName)
}

func TestImportValidationRejectsWholeDocument(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "keep", NodeType: model.NodeTypeModule})

	cases := []struct {
		name  string
		req   *model.ImportMenuConfigRequest
		error string
	}{
		{
			name:  "无效合并策略",
			req:   &model.ImportMenuConfigRequest{MergeStrategy: "append", Nodes: []model.MenuConfigNode{{Key: "x", NodeType: model.NodeTypeModule}}},
			error: "合并策略无效,必须为replace或merge",
		},
		{
			name:  "空节点列表",
			req:   &model.ImportMenuConfigRequest{MergeStrategy: "replace"},
			error: "导入节点列表不能为空",
		},
		{
			name: "文档内键重复",
			req: &model.ImportMenuConfigRequest{MergeStrategy: "replace", Nodes: []model.MenuConfigNode{
				{Key: "dup", NodeType: model.NodeTypeModule},
				{Key: "dup", NodeType: model.NodeTypeModule},
			}},
			error: "导入文档中节点键重复: dup",
		},
		{
			name: "menu类型缺失路径",
			req: &model.ImportMenuConfigRequest{MergeStrategy: "replace", Nodes: []model.MenuConfigNode{
				{Key: "pathless", NodeType: model.NodeTypeMenu},
			}},
			error: "节点 pathless 为menu类型,必须提供菜单路径",
		},
		{
			name: "无效节点类型",
			req: &model.ImportMenuConfigRequest{MergeStrategy: "replace", Nodes: []model.MenuConfigNode{
				{Key: "typo", NodeType: model.NodeType("panel")},
			}},
			error: "节点 typo 类型无效: panel",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ImportMenuConfigs(ctx, tc.req)
			assert.EqualError(t, err, tc.error)
		})
	}

	// 校验失败时现有配置原样保留
	kept, err := svc.GetMenuConfigByKey(ctx, "keep")
	assert.NoError(t, err)
	assert.Equal(t, "keep", kept.Key)
}
