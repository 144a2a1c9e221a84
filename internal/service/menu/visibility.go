/**
 * 服务:菜单可见性求值
 * @author: linkc
 * @date: 2025.12.03
 * @description: 菜单树可见性求值(纯函数)与用户视角菜单过滤
 * @func:
 * 1.节点可见性判定(AND全部满足/OR任一满足/空列表恒可见)
 * 2.菜单树过滤(父节点隐藏时其全部后代一并隐藏)
 * 3.可见性预览(visible_menus/hidden_menus)
 */
package menu

import (
	"context"
	"errors"
	"fmt"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"
)

// VisibilityService 菜单可见性服务
// 组合菜单配置与用户有效权限集,输出该用户视角下的可见菜单树
type VisibilityService struct {
	menuService *MenuService
	rbacService *authservice.RBACService
}

// NewVisibilityService 创建菜单可见性服务实例
func NewVisibilityService(menuService *MenuService, rbacService *authservice.RBACService) *VisibilityService {
	return &VisibilityService{
		menuService: menuService,
		rbacService: rbacService,
	}
}

// NodeSatisfies 判定单个节点的权限要求是否被满足
// 空 required_permissions 恒满足;AND要求全部在集合中,OR要求至少一个
func NodeSatisfies(node *model.MenuTreeNode, effective map[string]bool) bool {
	if node == nil {
		return false
	}
	if len(node.RequiredPermissions) == 0 {
		return true
	}

	if node.PermissionLogic == model.PermissionLogicOR {
		for _, perm := range node.RequiredPermissions {
			if effective[perm] {
				return true
			}
		}
		return false
	}

	// 默认AND语义
	for _, perm := range node.RequiredPermissions {
		if !effective[perm] {
			return false
		}
	}
	return true
}

// EvaluateMenuTree 按有效权限集过滤菜单树
// 节点隐藏(配置级不可见或权限不满足)时,其全部后代一并剪除,
// 后代自身的求值结果不再参与判定(父隐子隐策略)
func EvaluateMenuTree(tree []*model.MenuTreeNode, effective map[string]bool) []*model.MenuTreeNode {
	visible := make([]*model.MenuTreeNode, 0, len(tree))
	for _, node := range tree {
		if node == nil {
			continue
		}
		if !node.IsVisible || !NodeSatisfies(node, effective) {
			continue
		}
		kept := &model.MenuTreeNode{
			Key:                 node.Key,
			DisplayName:         node.DisplayName,
			NodeType:            node.NodeType,
			MenuPath:            node.MenuPath,
			RequiredPermissions: node.RequiredPermissions,
			PermissionLogic:     node.PermissionLogic,
			IsVisible:           node.IsVisible,
			SortOrder:           node.SortOrder,
			Children:            EvaluateMenuTree(node.Children, effective),
		}
		visible = append(visible, kept)
	}
	return visible
}

// PreviewMenuVisibility 对菜单树做可见性预览
// 返回可见与隐藏两个键列表;隐藏的父节点强制其全部后代进入隐藏列表
func PreviewMenuVisibility(tree []*model.MenuTreeNode, effective map[string]bool) *model.MenuPreviewResponse {
	result := &model.MenuPreviewResponse{
		VisibleKeys: make([]string, 0),
		HiddenKeys:  make([]string, 0),
	}
	previewWalk(tree, effective, false, result)
	return result
}

// previewWalk 深度优先遍历,parentHidden 为真时整棵子树进入隐藏列表
func previewWalk(nodes []*model.MenuTreeNode, effective map[string]bool, parentHidden bool, out *model.MenuPreviewResponse) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		hidden := parentHidden || !node.IsVisible || !NodeSatisfies(node, effective)
		if hidden {
			out.HiddenKeys = append(out.HiddenKeys, node.Key)
		} else {
			out.VisibleKeys = append(out.VisibleKeys, node.Key)
		}
		previewWalk(node.Children, effective, hidden, out)
	}
}

// GetVisibleMenuTreeForUser 获取指定用户视角下的可见菜单树
// 管理员账户绕过权限判定,但配置级 is_visible=false 的节点仍然隐藏
func (s *VisibilityService) GetVisibleMenuTreeForUser(ctx context.Context, userID uint) ([]*model.MenuTreeNode, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	tree, err := s.menuService.GetMenuTree(ctx)
	if err != nil {
		return nil, err
	}

	effective, err := s.effectiveSetForUser(ctx, userID, tree)
	if err != nil {
		return nil, err
	}

	return EvaluateMenuTree(tree, effective), nil
}

// PreviewMenuPermissions 预览指定节点子树在给定权限集下的可见性
// key 为空时预览整棵菜单树
func (s *VisibilityService) PreviewMenuPermissions(ctx context.Context, key string, permissions []string) (*model.MenuPreviewResponse, error) {
	tree, err := s.menuService.GetMenuTree(ctx)
	if err != nil {
		return nil, err
	}

	if key != "" {
		subtree := findMenuNode(tree, key)
		if subtree == nil {
			return nil, model.ErrMenuConfigNotFound
		}
		tree = []*model.MenuTreeNode{subtree}
	}

	effective := make(map[string]bool, len(permissions))
	for _, perm := range permissions {
		effective[perm] = true
	}

	return PreviewMenuVisibility(tree, effective), nil
}

// effectiveSetForUser 计算用户的有效权限集合
// 管理员账户将树中引用的全部权限视为满足(权限判定全通过)
func (s *VisibilityService) effectiveSetForUser(ctx context.Context, userID uint, tree []*model.MenuTreeNode) (map[string]bool, error) {
	admin, err := s.rbacService.IsAdminUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if admin {
		effective := make(map[string]bool)
		collectRequiredPermissions(tree, effective)
		return effective, nil
	}

	permissions, err := s.rbacService.GetEffectivePermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户有效权限失败: %w", err)
	}

	effective := make(map[string]bool, len(permissions))
	for _, perm := range permissions {
		effective[perm] = true
	}
	return effective, nil
}

// collectRequiredPermissions 收集树中引用到的全部权限名称
func collectRequiredPermissions(nodes []*model.MenuTreeNode, out map[string]bool) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		for _, perm := range node.RequiredPermissions {
			out[perm] = true
		}
		collectRequiredPermissions(node.Children, out)
	}
}

// findMenuNode 在菜单树中按键查找节点
func findMenuNode(nodes []*model.MenuTreeNode, key string) *model.MenuTreeNode {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		if node.Key == key {
			return node
		}
		if found := findMenuNode(node.Children, key); found != nil {
			return found
		}
	}
	return nil
}
