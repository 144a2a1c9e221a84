/**
 * 服务:权限展示树构建
 * @author: linkc
 * @date: 2025.12.03
 * @description: 权限展示树构建与过滤(模块→资源→权限三级分组树,父子层级树)
 * @func:
 * 1.BuildPermissionTree - 扁平权限列表构建三级分组展示树
 * 2.BuildPermissionHierarchy - 按 parent_id 构建父子层级树(带环路保护)
 * 3.CollectPermissionIDs - 收集树中权限叶子节点的ID集合
 * 4.MatchesFilter / FilterPermissionTree - 大小写不敏感的子串过滤
 */

package auth

import (
	"strings"

	"openmaas/internal/model"
)

// BuildPermissionTree 将扁平权限列表构建为模块→资源→权限的三级展示树
// 分组顺序按输入中模块/资源首次出现的顺序;每个输入权限恰好落入一条分组链,
// 树中权限类型叶子节点总数等于输入权限数
// 模块/资源取原始字符串作为合成节点,未填写时合成节点名即为空串
func BuildPermissionTree(permissions []*model.Permission) []*model.TreeNode {
	tree := make([]*model.TreeNode, 0)
	moduleIndex := make(map[string]*model.TreeNode)
	resourceIndex := make(map[string]*model.TreeNode) // key: module + "\x00" + resource

	for _, p := range permissions {
		if p == nil {
			continue
		}

		moduleKey := p.Module
		resourceKey := p.Resource

		// 模块节点,首次出现时创建[合成节点ID为0]
		moduleNode, ok := moduleIndex[moduleKey]
		if !ok {
			moduleNode = &model.TreeNode{
				Key:         moduleKey,
				Name:        moduleKey,
				DisplayName: moduleKey,
				NodeType:    model.NodeTypeModule,
				Children:    make([]*model.TreeNode, 0),
			}
			moduleIndex[moduleKey] = moduleNode
			tree = append(tree, moduleNode)
		}

		// 资源节点,按模块限定首次出现时创建[合成节点ID为0]
		resourceFullKey := moduleKey + "\x00" + resourceKey
		resourceNode, ok := resourceIndex[resourceFullKey]
		if !ok {
			resourceNode = &model.TreeNode{
				Key:         resourceKey,
				Name:        resourceKey,
				DisplayName: resourceKey,
				NodeType:    model.NodeTypeResource,
				Children:    make([]*model.TreeNode, 0),
			}
			resourceIndex[resourceFullKey] = resourceNode
			moduleNode.Children = append(moduleNode.Children, resourceNode)
		}

		// 权限叶子节点,携带真实权限ID
		leaf := &model.TreeNode{
			ID:          p.ID,
			Key:         p.Name,
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Description: p.Description,
			NodeType:    model.NodeTypePermission,
		}
		resourceNode.Children = append(resourceNode.Children, leaf)
	}

	return tree
}

// BuildPermissionHierarchy 按 parent_id 构建权限父子层级树
// 父节点不在输入集合中的权限视为根节点;父链成环时断开环路,把环上节点提升为根,
// 保证构建过程必然终止且不丢节点
func BuildPermissionHierarchy(permissions []*model.Permission) []*model.TreeNode {
	nodes := make(map[uint]*model.TreeNode, len(permissions))
	for _, p := range permissions {
		if p == nil {
			continue
		}
		nodes[p.ID] = &model.TreeNode{
			ID:          p.ID,
			Key:         p.Name,
			Name:        p.Name,
			DisplayName: p.DisplayName,
			Description: p.Description,
			NodeType:    model.NodeTypePermission,
		}
	}

	// 环路检测:沿父链走访,遇到已在当前路径上的节点判定为环
	isCyclic := func(p *model.Permission) bool {
		onPath := map[uint]bool{p.ID: true}
		byID := make(map[uint]*model.Permission, len(permissions))
		for _, q := range permissions {
			if q != nil {
				byID[q.ID] = q
			}
		}
		cur := p
		for cur.ParentID != nil {
			parent, ok := byID[*cur.ParentID]
			if !ok {
				return false
			}
			if onPath[parent.ID] {
				return true
			}
			onPath[parent.ID] = true
			cur = parent
		}
		return false
	}

	roots := make([]*model.TreeNode, 0)
	for _, p := range permissions {
		if p == nil {
			continue
		}
		node := nodes[p.ID]
		if p.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*p.ParentID]
		if !ok || isCyclic(p) {
			// 父节点缺失或父链成环,提升为根节点
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots
}

// CollectPermissionIDs 收集树中全部权限类型叶子节点的ID
// 模块/资源等合成节点的ID(恒为0)不参与收集
func CollectPermissionIDs(tree []*model.TreeNode) []uint {
	ids := make([]uint, 0)
	var walk func(nodes []*model.TreeNode)
	walk = func(nodes []*model.TreeNode) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			if node.NodeType == model.NodeTypePermission {
				ids = append(ids, node.ID)
			}
			walk(node.Children)
		}
	}
	walk(tree)
	return ids
}

// MatchesFilter 判断节点是否命中过滤条件
// 大小写不敏感子串匹配,匹配域为名称、显示名称、描述;空查询恒为命中
func MatchesFilter(query string, node *model.TreeNode) bool {
	if query == "" {
		return true
	}
	if node == nil {
		return false
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(node.Name), q) ||
		strings.Contains(strings.ToLower(node.DisplayName), q) ||
		strings.Contains(strings.ToLower(node.Description), q)
}

// FilterPermissionTree 过滤展示树
// 节点自身命中或存在命中的后代时保留;命中的分支保留其完整子树以便展开查看
func FilterPermissionTree(query string, tree []*model.TreeNode) []*model.TreeNode {
	if query == "" {
		return tree
	}

	filtered := make([]*model.TreeNode, 0)
	for _, node := range tree {
		if node == nil {
			continue
		}
		if MatchesFilter(query, node) {
			// 自身命中,保留完整子树
			filtered = append(filtered, node)
			continue
		}
		children := FilterPermissionTree(query, node.Children)
		if len(children) > 0 {
			clone := *node
			clone.Children = children
			filtered = append(filtered, &clone)
		}
	}
	return filtered
}
