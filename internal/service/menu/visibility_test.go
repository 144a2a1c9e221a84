package menu

import (
	"context"
	"testing"
	"time"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNodeSatisfies(t *testing.T) {
	effective := map[string]bool{"user.view": true, "role.view": true}

	// 空权限要求恒可见
	assert.True(t, NodeSatisfies(&model.MenuTreeNode{Key: "open"}, effective))

	// AND要求全部满足
	andNode := &model.MenuTreeNode{
		Key:                 "and_node",
		RequiredPermissions: []string{"user.view", "role.view"},
		PermissionLogic:     model.PermissionLogicAND,
	}
	assert.True(t, NodeSatisfies(andNode, effective))
	andNode.RequiredPermissions = []string{"user.view", "user.delete"}
	assert.False(t, NodeSatisfies(andNode, effective))

	// OR任一满足即可
	orNode := &model.MenuTreeNode{
		Key:                 "or_node",
		RequiredPermissions: []string{"user.delete", "role.view"},
		PermissionLogic:     model.PermissionLogicOR,
	}
	assert.True(t, NodeSatisfies(orNode, effective))
	orNode.RequiredPermissions = []string{"user.delete", "role.delete"}
	assert.False(t, NodeSatisfies(orNode, effective))

	// 组合规则缺省按AND处理
	defaultNode := &model.MenuTreeNode{
		Key:                 "default_node",
		RequiredPermissions: []string{"user.view", "user.delete"},
	}
	assert.False(t, NodeSatisfies(defaultNode, effective))

	assert.False(t, NodeSatisfies(nil, effective))
}

// sampleTree 根节点system(需user.view) -> users(需user.view) / roles(需role.view),
// 外加无权限要求的dashboard与配置级隐藏的legacy
func sampleTree() []*model.MenuTreeNode {
	return []*model.MenuTreeNode{
		{
			Key:       "dashboard",
			NodeType:  model.NodeTypeMenu,
			MenuPath:  "/dashboard",
			IsVisible: true,
			SortOrder: 1,
		},
		{
			Key:                 "system",
			NodeType:            model.NodeTypeModule,
			RequiredPermissions: []string{"user.view"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           2,
			Children: []*model.MenuTreeNode{
				{
					Key:                 "system_users",
					NodeType:            model.NodeTypeMenu,
					MenuPath:            "/system/users",
					RequiredPermissions: []string{"user.view"},
					PermissionLogic:     model.PermissionLogicAND,
					IsVisible:           true,
					SortOrder:           1,
				},
				{
					Key:                 "system_roles",
					NodeType:            model.NodeTypeMenu,
					MenuPath:            "/system/roles",
					RequiredPermissions: []string{"role.view"},
					PermissionLogic:     model.PermissionLogicAND,
					IsVisible:           true,
					SortOrder:           2,
				},
			},
		},
		{
			Key:       "legacy",
			NodeType:  model.NodeTypeMenu,
			MenuPath:  "/legacy",
			IsVisible: false,
			SortOrder: 3,
		},
	}
}

func TestEvaluateMenuTree(t *testing.T) {
	effective := map[string]bool{"user.view": true}

	visible := EvaluateMenuTree(sampleTree(), effective)
	assert.Len(t, visible, 2)
	assert.Equal(t, "dashboard", visible[0].Key)
	assert.Equal(t, "system", visible[1].Key)

	// system下仅users满足,roles被剪除
	assert.Len(t, visible[1].Children, 1)
	assert.Equal(t, "system_users", visible[1].Children[0].Key)
}

func TestEvaluateMenuTreeParentHidesDescendants(t *testing.T) {
	// 只有role.view:system根节点不满足,其满足条件的后代也一并隐藏
	effective := map[string]bool{"role.view": true}

	visible := EvaluateMenuTree(sampleTree(), effective)
	assert.Len(t, visible, 1)
	assert.Equal(t, "dashboard", visible[0].Key)
}

func TestPreviewMenuVisibility(t *testing.T) {
	effective := map[string]bool{"user.view": true}

	preview := PreviewMenuVisibility(sampleTree(), effective)
	assert.ElementsMatch(t, []string{"dashboard", "system", "system_users"}, preview.VisibleKeys)
	assert.ElementsMatch(t, []string{"system_roles", "legacy"}, preview.HiddenKeys)
}

func TestPreviewMenuVisibilityParentHidden(t *testing.T) {
	// 无任何权限:system整棵子树进入隐藏列表
	preview := PreviewMenuVisibility(sampleTree(), map[string]bool{})
	assert.Equal(t, []string{"dashboard"}, preview.VisibleKeys)
	assert.ElementsMatch(t, []string{"system", "system_users", "system_roles", "legacy"}, preview.HiddenKeys)
}

// seedVisibilityFixtures 落库示例菜单与一个仅持有user.view的普通用户
func seedVisibilityFixtures(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	mustCreateNode(t, db, &model.MenuConfig{Key: "dashboard", NodeType: model.NodeTypeMenu, MenuPath: "/dashboard", SortOrder: 1})
	mustCreateNode(t, db, &model.MenuConfig{
		Key: "system", NodeType: model.NodeTypeModule, SortOrder: 2,
		RequiredPermissions: model.StringList{"user.view"},
	})
	mustCreateNode(t, db, &model.MenuConfig{
		Key: "system_users", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/users", SortOrder: 1,
		RequiredPermissions: model.StringList{"user.view"},
	})
	mustCreateNode(t, db, &model.MenuConfig{
		Key: "system_roles", NodeType: model.NodeTypeMenu, ParentKey: "system", MenuPath: "/system/roles", SortOrder: 2,
		RequiredPermissions: model.StringList{"role.view"},
	})
	hidden := mustCreateNode(t, db, &model.MenuConfig{Key: "legacy", NodeType: model.NodeTypeMenu, MenuPath: "/legacy", SortOrder: 3})
	if err := db.Model(hidden).Update("is_visible", false).Error; err != nil {
		t.Fatalf("设置隐藏节点失败: %v", err)
	}

	user := &model.User{
		Username: "viewer", Email: "viewer@example.com",
		Password: "$argon2id$test", PasswordV: 1,
		Status: model.UserStatusEnabled,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	role := &model.Role{Name: "viewer_role", RoleType: model.RoleTypeCustom, Status: model.RoleStatusEnabled, Version: 1}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("创建测试角色失败: %v", err)
	}
	perm := &model.Permission{Name: "user.view", Module: "user", Status: model.PermissionStatusEnabled, Version: 1}
	if err := db.Create(perm).Error; err != nil {
		t.Fatalf("创建测试权限失败: %v", err)
	}
	if err := db.Create(&model.UserRole{UserID: user.ID, RoleID: role.ID, AssignedAt: time.Now()}).Error; err != nil {
		t.Fatalf("分配测试角色失败: %v", err)
	}
	if err := db.Create(&model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error; err != nil {
		t.Fatalf("分配测试权限失败: %v", err)
	}
	return user
}

func TestGetVisibleMenuTreeForUser(t *testing.T) {
	svc, db := newTestVisibilityService(t)
	ctx := context.Background()

	user := seedVisibilityFixtures(t, db)

	tree, err := svc.GetVisibleMenuTreeForUser(ctx, user.ID)
	assert.NoError(t, err)
	assert.Len(t, tree, 2)
	assert.Equal(t, "dashboard", tree[0].Key)
	assert.Equal(t, "system", tree[1].Key)
	assert.Len(t, tree[1].Children, 1)
	assert.Equal(t, "system_users", tree[1].Children[0].Key)
}

func TestGetVisibleMenuTreeForAdmin(t *testing.T) {
	svc, db := newTestVisibilityService(t)
	ctx := context.Background()

	seedVisibilityFixtures(t, db)
	admin := &model.User{
		Username: "root", Email: "root@example.com",
		Password: "$argon2id$test", PasswordV: 1,
		Status: model.UserStatusEnabled, IsAdmin: true,
	}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("创建管理员失败: %v", err)
	}

	// 管理员绕过权限判定,但配置级隐藏的legacy仍然不可见
	tree, err := svc.GetVisibleMenuTreeForUser(ctx, admin.ID)
	assert.NoError(t, err)
	assert.Len(t, tree, 2)
	assert.Equal(t, "system", tree[1].Key)
	assert.Len(t, tree[1].Children, 2)
	for _, node := range tree {
		assert.NotEqual(t, "legacy", node.Key)
	}
}

func TestPreviewMenuPermissions(t *testing.T) {
	svc, db := newTestVisibilityService(t)
	ctx := context.Background()

	seedVisibilityFixtures(t, db)

	// 指定子树预览
	preview, err := svc.PreviewMenuPermissions(ctx, "system", []string{"role.view", "user.view"})
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"system", "system_users", "system_roles"}, preview.VisibleKeys)
	assert.Empty(t, preview.HiddenKeys)

	// 整树预览
	preview, err = svc.PreviewMenuPermissions(ctx, "", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"dashboard"}, preview.VisibleKeys)

	_, err = svc.PreviewMenuPermissions(ctx, "nowhere", nil)
	assert.ErrorIs(t, err, model.ErrMenuConfigNotFound)
}
