/**
 * 服务:菜单配置导入导出
 * @author: linkc
 * @date: 2025.12.03
 * @description: 菜单配置全量导出与导入(replace/merge两种合并策略)
 * @func:
 * 1.导出全量菜单配置为JSON文档
 * 2.replace策略:清空现有配置后整体写入,导出再导入可还原等价目录
 * 3.merge策略:按键更新已有节点,新增缺失节点,不删除
 */
package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"
)

// ExportMenuConfigs 导出全量菜单配置
func (s *MenuService) ExportMenuConfigs(ctx context.Context) (*model.MenuConfigExport, error) {
	configs, err := s.menuRepo.GetAllMenuConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取菜单配置失败: %w", err)
	}

	nodes := make([]model.MenuConfigNode, 0, len(configs))
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		nodes = append(nodes, model.MenuConfigNode{
			Key:                 cfg.Key,
			DisplayName:         cfg.DisplayName,
			NodeType:            cfg.NodeType,
			ParentKey:           cfg.ParentKey,
			MenuPath:            cfg.MenuPath,
			RequiredPermissions: []string(cfg.RequiredPermissions),
			PermissionLogic:     cfg.PermissionLogic,
			IsVisible:           cfg.IsVisible,
			SortOrder:           cfg.SortOrder,
		})
	}

	return &model.MenuConfigExport{
		ExportedAt: time.Now(),
		Nodes:      nodes,
	}, nil
}

// ImportMenuConfigs 导入菜单配置
// merge_strategy 为 replace 时清空现有配置后整体写入;
// 为 merge 时按键更新已有节点并新增缺失节点,不删除任何现有节点
func (s *MenuService) ImportMenuConfigs(ctx context.Context, req *model.ImportMenuConfigRequest) (*model.ImportMenuConfigResponse, error) {
	clientIP := utils.GetClientIPFromContext(ctx)
	if req == nil {
		return nil, errors.New("导入请求不能为空")
	}
	if req.MergeStrategy != "replace" && req.MergeStrategy != "merge" {
		return nil, errors.New("合并策略无效,必须为replace或merge")
	}
	if len(req.Nodes) == 0 {
		return nil, errors.New("导入节点列表不能为空")
	}

	// 参数验证层:整体校验后再落库,避免部分写入
	seen := make(map[string]bool, len(req.Nodes))
	for _, node := range req.Nodes {
		if err := ValidateMenuKey(node.Key); err != nil {
			return nil, fmt.Errorf("节点 %s 校验失败: %w", node.Key, err)
		}
		if !node.NodeType.Valid() {
			return nil, fmt.Errorf("节点 %s 类型无效: %s", node.Key, node.NodeType)
		}
		if node.NodeType == model.NodeTypeMenu && node.MenuPath == "" {
			return nil, fmt.Errorf("节点 %s 为menu类型,必须提供菜单路径", node.Key)
		}
		if node.PermissionLogic != "" &&
			node.PermissionLogic != model.PermissionLogicAND &&
			node.PermissionLogic != model.PermissionLogicOR {
			return nil, fmt.Errorf("节点 %s 权限组合规则无效: %s", node.Key, node.PermissionLogic)
		}
		if seen[node.Key] {
			return nil, fmt.Errorf("导入文档中节点键重复: %s", node.Key)
		}
		seen[node.Key] = true
	}

	var result *model.ImportMenuConfigResponse
	var err error
	if req.MergeStrategy == "replace" {
		result, err = s.importReplace(ctx, req.Nodes)
	} else {
		result, err = s.importMerge(ctx, req.Nodes)
	}
	if err != nil {
		logger.LogError(err, "", 0, clientIP, "menu_import", "POST", map[string]interface{}{
			"operation": "import_menu_configs",
			"strategy":  req.MergeStrategy,
			"nodes":     len(req.Nodes),
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}

	logger.LogBusinessOperation("import_menu_configs", 0, "", clientIP, "", "success", "菜单配置导入成功", map[string]interface{}{
		"strategy":  req.MergeStrategy,
		"created":   result.Created,
		"updated":   result.Updated,
		"removed":   result.Removed,
		"timestamp": logger.NowFormatted(),
	})

	return result, nil
}

// importReplace replace策略:单事务内清空现有配置并整体写入
func (s *MenuService) importReplace(ctx context.Context, nodes []model.MenuConfigNode) (*model.ImportMenuConfigResponse, error) {
	existing, err := s.menuRepo.GetAllMenuConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取现有菜单配置失败: %w", err)
	}

	tx := s.menuRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return nil, errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.menuRepo.DeleteAllMenuConfigsWithTx(ctx, tx); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("清空现有菜单配置失败: %w", err)
	}

	for i := range nodes {
		menu := menuConfigFromNode(&nodes[i])
		if err := s.menuRepo.CreateMenuConfigWithTx(ctx, tx, menu); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("写入节点 %s 失败: %w", nodes[i].Key, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	return &model.ImportMenuConfigResponse{
		Created: len(nodes),
		Removed: len(existing),
	}, nil
}

// importMerge merge策略:按键更新已有节点,新增缺失节点
func (s *MenuService) importMerge(ctx context.Context, nodes []model.MenuConfigNode) (*model.ImportMenuConfigResponse, error) {
	existing, err := s.menuRepo.GetAllMenuConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取现有菜单配置失败: %w", err)
	}
	byKey := make(map[string]*model.MenuConfig, len(existing))
	for _, cfg := range existing {
		byKey[cfg.Key] = cfg
	}

	tx := s.menuRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return nil, errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := &model.ImportMenuConfigResponse{}
	for i := range nodes {
		node := &nodes[i]
		current, ok := byKey[node.Key]
		if !ok {
			menu := menuConfigFromNode(node)
			if err := s.menuRepo.CreateMenuConfigWithTx(ctx, tx, menu); err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("写入节点 %s 失败: %w", node.Key, err)
			}
			result.Created++
			continue
		}

		current.DisplayName = node.DisplayName
		current.NodeType = node.NodeType
		current.ParentKey = node.ParentKey
		current.MenuPath = node.MenuPath
		current.RequiredPermissions = model.StringList(node.RequiredPermissions)
		if current.RequiredPermissions == nil {
			current.RequiredPermissions = model.StringList{}
		}
		current.PermissionLogic = node.PermissionLogic
		if current.PermissionLogic == "" {
			current.PermissionLogic = model.PermissionLogicAND
		}
		current.IsVisible = node.IsVisible
		current.SortOrder = node.SortOrder
		current.Version = current.Version + 1
		if err := s.menuRepo.UpdateMenuConfigWithTx(ctx, tx, current); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("更新节点 %s 失败: %w", node.Key, err)
		}
		result.Updated++
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	return result, nil
}

// menuConfigFromNode 导入节点转为菜单配置模型
func menuConfigFromNode(node *model.MenuConfigNode) *model.MenuConfig {
	logic := node.PermissionLogic
	if logic == "" {
		logic = model.PermissionLogicAND
	}
	perms := model.StringList(node.RequiredPermissions)
	if perms == nil {
		perms = model.StringList{}
	}
	return &model.MenuConfig{
		Key:                 node.Key,
		DisplayName:         node.DisplayName,
		NodeType:            node.NodeType,
		ParentKey:           node.ParentKey,
		MenuPath:            node.MenuPath,
		RequiredPermissions: perms,
		PermissionLogic:     logic,
		IsVisible:           node.IsVisible,
		SortOrder:           node.SortOrder,
		Version:             1,
	}
}
