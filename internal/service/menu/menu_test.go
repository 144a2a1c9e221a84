package menu

import (
	"context"
	"testing"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestValidateMenuKey(t *testing.T) {
	valid := []string{"dashboard", "system_users", "model-deploy", "a1"}
	for _, key := range valid {
		assert.NoError(t, ValidateMenuKey(key), "key=%s", key)
	}

	invalid := []string{"", "1dashboard", "_hidden", "sys.users", "系统"}
	for _, key := range invalid {
		assert.Error(t, ValidateMenuKey(key), "key=%s", key)
	}

	assert.EqualError(t, ValidateMenuKey("9node"),
		"节点键只能包含字母、数字、下划线和连字符，且必须以字母开头")
}

func TestCreateMenuConfig(t *testing.T) {
	svc, _ := newTestMenuService(t)
	ctx := context.Background()

	root, err := svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:         "system",
		DisplayName: "系统管理",
		NodeType:    model.NodeTypeModule,
	})
	assert.NoError(t, err)
	assert.True(t, root.IsVisible)
	assert.Equal(t, model.PermissionLogicAND, root.PermissionLogic)
	assert.Equal(t, int64(1), root.Version)

	child, err := svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:                 "system_users",
		DisplayName:         "用户管理",
		NodeType:            model.NodeTypeMenu,
		ParentKey:           "system",
		MenuPath:            "/system/users",
		RequiredPermissions: []string{"user.view"},
		PermissionLogic:     model.PermissionLogicOR,
	})
	assert.NoError(t, err)
	assert.Equal(t, model.PermissionLogicOR, child.PermissionLogic)

	// menu类型必须提供菜单路径
	_, err = svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:      "orphan_menu",
		NodeType: model.NodeTypeMenu,
	})
	assert.EqualError(t, err, "menu类型节点必须提供菜单路径")

	// 父节点必须已存在
	_, err = svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:       "lost_child",
		NodeType:  model.NodeTypeButton,
		ParentKey: "nowhere",
	})
	assert.EqualError(t, err, "父节点不存在: nowhere")

	// 键唯一
	_, err = svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:      "system",
		NodeType: model.NodeTypeModule,
	})
	assert.EqualError(t, err, "节点键已存在: system")

	// 键格式
	_, err = svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:      "1bad",
		NodeType: model.NodeTypeModule,
	})
	assert.EqualError(t, err, "节点键只能包含字母、数字、下划线和连字符，且必须以字母开头")

	// 节点类型枚举
	_, err = svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:      "typo",
		NodeType: model.NodeType("panel"),
	})
	assert.EqualError(t, err, "节点类型无效: panel")
}

func TestUpdateMenuConfigVersionConflict(t *testing.T) {
	svc, _ := newTestMenuService(t)
	ctx := context.Background()

	_, err := svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:         "dashboard",
		DisplayName: "工作台",
		NodeType:    model.NodeTypeMenu,
		MenuPath:    "/dashboard",
	})
	assert.NoError(t, err)

	// 版本匹配,更新成功且版本自增
	updated, err := svc.UpdateMenuConfigByKey(ctx, "dashboard", &model.UpdateMenuConfigRequest{
		DisplayName: "控制台",
		Version:     1,
	})
	assert.NoError(t, err)
	assert.Equal(t, "控制台", updated.DisplayName)
	assert.Equal(t, int64(2), updated.Version)

	// 过期版本号触发冲突
	_, err = svc.UpdateMenuConfigByKey(ctx, "dashboard", &model.UpdateMenuConfigRequest{
		DisplayName: "旧控制台",
		Version:     1,
	})
	assert.ErrorIs(t, err, ErrMenuVersionConflict)

	// 版本号0回退到当前版本,不参与冲突检测
	updated, err = svc.UpdateMenuConfigByKey(ctx, "dashboard", &model.UpdateMenuConfigRequest{
		DisplayName: "总览",
		Version:     0,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), updated.Version)
}

func TestUpdateMenuConfigNoChangeShortCircuit(t *testing.T) {
	svc, _ := newTestMenuService(t)
	ctx := context.Background()

	created, err := svc.CreateMenuConfig(ctx, &model.CreateMenuConfigRequest{
		Key:         "reports",
		DisplayName: "报表",
		NodeType:    model.NodeTypeMenu,
		MenuPath:    "/reports",
	})
	assert.NoError(t, err)

	// 字段值与现状一致,不落库也不提升版本
	same, err := svc.UpdateMenuConfigByKey(ctx, "reports", &model.UpdateMenuConfigRequest{
		DisplayName: "报表",
		MenuPath:    "/reports",
	})
	assert.NoError(t, err)
	assert.Equal(t, created.Version, same.Version)
}

func TestUpdateMenuConfigNotFound(t *testing.T) {
	svc, _ := newTestMenuService(t)
	ctx := context.Background()

	_, err := svc.UpdateMenuConfigByKey(ctx, "ghost", &model.UpdateMenuConfigRequest{DisplayName: "x"})
	assert.ErrorIs(t, err, model.ErrMenuConfigNotFound)
}

func TestDeleteMenuConfigWithChildren(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "system", NodeType: model.NodeTypeModule})
	mustCreateNode(t, db, &model.MenuConfig{Key: "system_users", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/users"})

	err := svc.DeleteMenuConfig(ctx, "system")
	assert.EqualError(t, err, "菜单节点删除失败: 存在 1 个子节点")

	// 先删子节点后即可删除父节点
	assert.NoError(t, svc.DeleteMenuConfig(ctx, "system_users"))
	assert.NoError(t, svc.DeleteMenuConfig(ctx, "system"))

	_, err = svc.GetMenuConfigByKey(ctx, "system")
	assert.ErrorIs(t, err, model.ErrMenuConfigNotFound)
}

func TestBuildMenuTree(t *testing.T) {
	configs := []*model.MenuConfig{
		{Key: "system", NodeType: model.NodeTypeModule, SortOrder: 2, IsVisible: true},
		{Key: "dashboard", NodeType: model.NodeTypeMenu, MenuPath: "/dashboard", SortOrder: 1, IsVisible: true},
		{Key: "system_roles", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/roles", SortOrder: 2, IsVisible: true},
		{Key: "system_users", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/users", SortOrder: 1, IsVisible: true},
		// 悬挂父键提升为根节点
		{Key: "orphan", NodeType: model.NodeTypeMenu, ParentKey: "missing", MenuPath: "/orphan", SortOrder: 3, IsVisible: true},
	}

	tree := BuildMenuTree(configs)
	assert.Len(t, tree, 3)
	assert.Equal(t, "dashboard", tree[0].Key)
	assert.Equal(t, "system", tree[1].Key)
	assert.Equal(t, "orphan", tree[2].Key)

	// 同级按 sort_order 升序
	assert.Len(t, tree[1].Children, 2)
	assert.Equal(t, "system_users", tree[1].Children[0].Key)
	assert.Equal(t, "system_roles", tree[1].Children[1].Key)
}

func TestBuildMenuTreeCyclicParents(t *testing.T) {
	configs := []*model.MenuConfig{
		{Key: "a", NodeType: model.NodeTypeModule, ParentKey: "b", IsVisible: true},
		{Key: "b", NodeType: model.NodeTypeModule, ParentKey: "a", IsVisible: true},
		{Key: "solo", NodeType: model.NodeTypeMenu, MenuPath: "/solo", IsVisible: true},
	}

	// 环状父链的节点全部提升为根节点,配置不丢失
	tree := BuildMenuTree(configs)
	assert.Len(t, tree, 3)
}

func TestGetMenuConfigList(t *testing.T) {
	svc, db := newTestMenuService(t)
	ctx := context.Background()

	mustCreateNode(t, db, &model.MenuConfig{Key: "n1", NodeType: model.NodeTypeMenu, MenuPath: "/n1"})
	mustCreateNode(t, db, &model.MenuConfig{Key: "n2", NodeType: model.NodeTypeMenu, MenuPath: "/n2"})
	mustCreateNode(t, db, &model.MenuConfig{Key: "n3", NodeType: model.NodeTypeMenu, MenuPath: "/n3"})

	list, total, err := svc.GetMenuConfigList(ctx, 0, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)
}
