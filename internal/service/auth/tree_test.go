package auth

import (
	"testing"

	"openmaas/internal/model"

	"github.com/stretchr/testify/assert"
)

func buildSamplePermissions() []*model.Permission {
	return []*model.Permission{
		{ID: 1, Name: "user.view", DisplayName: "查看用户", Module: "user", Resource: "user", Action: "view"},
		{ID: 2, Name: "user.create", DisplayName: "创建用户", Module: "user", Resource: "user", Action: "create"},
		{ID: 3, Name: "model.provider.view", DisplayName: "查看供应商", Module: "model", Resource: "provider", Action: "view"},
		{ID: 4, Name: "model.deploy.create", DisplayName: "创建部署", Module: "model", Resource: "deploy", Action: "create"},
		{ID: 5, Name: "misc", DisplayName: "未分类权限"},
	}
}

func TestBuildPermissionTree(t *testing.T) {
	perms := buildSamplePermissions()
	tree := BuildPermissionTree(perms)

	// 模块按输入首见顺序分组,未填写模块的权限分到名为原始字符串(空串)的合成节点
	assert.Len(t, tree, 3)
	assert.Equal(t, "user", tree[0].Key)
	assert.Equal(t, "model", tree[1].Key)
	assert.Equal(t, "", tree[2].Key)
	assert.Equal(t, model.NodeTypeModule, tree[0].NodeType)

	// model 模块下有 provider 和 deploy 两个资源分组
	assert.Len(t, tree[1].Children, 2)
	assert.Equal(t, "provider", tree[1].Children[0].Key)
	assert.Equal(t, "deploy", tree[1].Children[1].Key)

	// 资源同样取原始字符串,未填写时资源分组名为空串
	assert.Equal(t, "", tree[2].Children[0].Key)
	assert.Equal(t, model.NodeTypeResource, tree[2].Children[0].NodeType)
	assert.Equal(t, uint(5), tree[2].Children[0].Children[0].ID)

	// 权限叶子节点总数等于输入权限数
	ids := CollectPermissionIDs(tree)
	assert.Len(t, ids, len(perms))
	assert.ElementsMatch(t, []uint{1, 2, 3, 4, 5}, ids)
}

func TestCollectPermissionIDsExcludesSyntheticNodes(t *testing.T) {
	tree := BuildPermissionTree(buildSamplePermissions())

	// 合成的模块/资源节点ID恒为0,不应出现在收集结果中
	for _, id := range CollectPermissionIDs(tree) {
		assert.NotZero(t, id)
	}
}

func TestBuildPermissionHierarchy(t *testing.T) {
	parentID := uint(1)
	danglingID := uint(99)
	perms := []*model.Permission{
		{ID: 1, Name: "user"},
		{ID: 2, Name: "user.view", ParentID: &parentID},
		{ID: 3, Name: "orphan.view", ParentID: &danglingID},
	}

	roots := BuildPermissionHierarchy(perms)

	// 悬挂引用提升为根节点,不丢失
	assert.Len(t, roots, 2)
	assert.Equal(t, "user", roots[0].Name)
	assert.Len(t, roots[0].Children, 1)
	assert.Equal(t, "user.view", roots[0].Children[0].Name)
	assert.Equal(t, "orphan.view", roots[1].Name)
}

func TestBuildPermissionHierarchyCycle(t *testing.T) {
	idA := uint(1)
	idB := uint(2)
	perms := []*model.Permission{
		{ID: 1, Name: "a", ParentID: &idB},
		{ID: 2, Name: "b", ParentID: &idA},
		{ID: 3, Name: "standalone"},
	}

	// 父链成环时断开环路,环上节点提升为根,构建必然终止
	roots := BuildPermissionHierarchy(perms)
	assert.Len(t, roots, 3)
}

func TestMatchesFilter(t *testing.T) {
	node := &model.TreeNode{Name: "user.view", DisplayName: "查看用户", Description: "User listing"}

	// 空查询恒命中
	assert.True(t, MatchesFilter("", node))
	// 大小写不敏感,名称/显示名/描述三个域均参与匹配
	assert.True(t, MatchesFilter("USER", node))
	assert.True(t, MatchesFilter("查看", node))
	assert.True(t, MatchesFilter("listing", node))
	assert.False(t, MatchesFilter("order", node))
	assert.False(t, MatchesFilter("x", nil))
}

func TestFilterPermissionTree(t *testing.T) {
	tree := BuildPermissionTree(buildSamplePermissions())

	// 叶子命中时保留其祖先链
	filtered := FilterPermissionTree("provider", tree)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "model", filtered[0].Key)
	assert.Len(t, filtered[0].Children, 1)
	assert.Equal(t, "provider", filtered[0].Children[0].Key)

	// 模块自身命中时保留完整子树
	filtered = FilterPermissionTree("user", tree)
	assert.Len(t, filtered, 1)
	assert.Equal(t, "user", filtered[0].Key)
	assert.Len(t, filtered[0].Children[0].Children, 2)

	// 无命中返回空
	assert.Empty(t, FilterPermissionTree("nonexistent", tree))
}
