/**
 * 服务:菜单配置业务逻辑
 * @author: linkc
 * @date: 2025.12.03
 * @description: 菜单/路由可见性配置的增删改查与菜单树组装
 * @func:
 * 1.创建菜单节点(键格式/父节点存在性/menu类型路径校验)
 * 2.更新菜单节点(乐观锁版本校验)
 * 3.删除菜单节点(存在子节点时拒绝)
 * 4.菜单树组装
 */
package menu

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"
	systemrepo "openmaas/internal/repo/mysql/system"
)

// menuKeyPattern 节点键格式:字母开头,仅限字母数字下划线连字符
var menuKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ErrMenuVersionConflict 菜单配置乐观锁冲突
var ErrMenuVersionConflict = errors.New("菜单配置已被其他操作修改，请刷新后重试")

// MenuService 菜单配置服务
type MenuService struct {
	menuRepo *systemrepo.MenuConfigRepository
}

// NewMenuService 创建菜单配置服务实例
func NewMenuService(menuRepo *systemrepo.MenuConfigRepository) *MenuService {
	return &MenuService{
		menuRepo: menuRepo,
	}
}

// ValidateMenuKey 校验节点键格式
func ValidateMenuKey(key string) error {
	if key == "" {
		return errors.New("节点键不能为空")
	}
	if !menuKeyPattern.MatchString(key) {
		return errors.New("节点键只能包含字母、数字、下划线和连字符，且必须以字母开头")
	}
	return nil
}

// CreateMenuConfig 创建菜单配置节点
// 校验顺序:键格式 -> 节点类型 -> menu类型路径 -> 父节点存在性 -> 键唯一性
func (s *MenuService) CreateMenuConfig(ctx context.Context, req *model.CreateMenuConfigRequest) (*model.MenuConfig, error) {
	clientIP := utils.GetClientIPFromContext(ctx)
	if req == nil {
		return nil, errors.New("创建菜单配置请求不能为空")
	}

	// 参数验证层
	if err := ValidateMenuKey(req.Key); err != nil {
		return nil, err
	}
	if !req.NodeType.Valid() {
		return nil, fmt.Errorf("节点类型无效: %s", req.NodeType)
	}
	if req.NodeType == model.NodeTypeMenu && req.MenuPath == "" {
		return nil, errors.New("menu类型节点必须提供菜单路径")
	}
	logic := req.PermissionLogic
	if logic == "" {
		logic = model.PermissionLogicAND
	}
	if logic != model.PermissionLogicAND && logic != model.PermissionLogicOR {
		return nil, errors.New("权限组合规则无效,必须为AND或OR")
	}

	// 业务规则验证层:父节点必须已存在
	if req.ParentKey != "" {
		parentExists, err := s.menuRepo.MenuKeyExists(ctx, req.ParentKey)
		if err != nil {
			return nil, fmt.Errorf("检查父节点失败: %w", err)
		}
		if !parentExists {
			return nil, fmt.Errorf("父节点不存在: %s", req.ParentKey)
		}
	}

	// 键唯一性
	exists, err := s.menuRepo.MenuKeyExists(ctx, req.Key)
	if err != nil {
		return nil, fmt.Errorf("检查节点键失败: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("节点键已存在: %s", req.Key)
	}

	menu := &model.MenuConfig{
		Key:                 req.Key,
		DisplayName:         req.DisplayName,
		NodeType:            req.NodeType,
		ParentKey:           req.ParentKey,
		MenuPath:            req.MenuPath,
		RequiredPermissions: model.StringList(req.RequiredPermissions),
		PermissionLogic:     logic,
		IsVisible:           true,
		SortOrder:           req.SortOrder,
		Version:             1,
	}
	if menu.RequiredPermissions == nil {
		menu.RequiredPermissions = model.StringList{}
	}

	if err := s.menuRepo.CreateMenuConfig(ctx, menu); err != nil {
		logger.LogError(err, "", 0, clientIP, "menu_create", "POST", map[string]interface{}{
			"operation": "create_menu_config",
			"key":       req.Key,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("创建菜单配置失败: %w", err)
	}

	logger.LogBusinessOperation("create_menu_config", 0, "", clientIP, "", "success", "菜单配置创建成功", map[string]interface{}{
		"key":       menu.Key,
		"type":      menu.NodeType,
		"parent":    menu.ParentKey,
		"timestamp": logger.NowFormatted(),
	})

	return menu, nil
}

// GetMenuConfigByKey 根据节点键获取菜单配置
func (s *MenuService) GetMenuConfigByKey(ctx context.Context, key string) (*model.MenuConfig, error) {
	if key == "" {
		return nil, errors.New("节点键不能为空")
	}

	menu, err := s.menuRepo.GetMenuConfigByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("获取菜单配置失败: %w", err)
	}
	if menu == nil {
		return nil, model.ErrMenuConfigNotFound
	}

	return menu, nil
}

// GetMenuConfigList 获取菜单配置列表(分页)
func (s *MenuService) GetMenuConfigList(ctx context.Context, offset, limit int) ([]*model.MenuConfig, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	return s.menuRepo.GetMenuConfigList(ctx, offset, limit)
}

// GetAllMenuConfigs 获取全部菜单配置
func (s *MenuService) GetAllMenuConfigs(ctx context.Context) ([]*model.MenuConfig, error) {
	return s.menuRepo.GetAllMenuConfigs(ctx)
}

// GetMenuTree 获取组装后的菜单树
func (s *MenuService) GetMenuTree(ctx context.Context) ([]*model.MenuTreeNode, error) {
	configs, err := s.menuRepo.GetAllMenuConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取菜单配置失败: %w", err)
	}
	return BuildMenuTree(configs), nil
}

// UpdateMenuConfigByKey 更新菜单配置
// 乐观锁:请求版本号非0时参与冲突校验,冲突返回 ErrMenuVersionConflict
func (s *MenuService) UpdateMenuConfigByKey(ctx context.Context, key string, req *model.UpdateMenuConfigRequest) (*model.MenuConfig, error) {
	clientIP := utils.GetClientIPFromContext(ctx)
	if key == "" {
		return nil, errors.New("节点键不能为空")
	}
	if req == nil {
		return nil, errors.New("更新菜单配置请求不能为空")
	}

	menu, err := s.menuRepo.GetMenuConfigByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("获取菜单配置失败: %w", err)
	}
	if menu == nil {
		return nil, model.ErrMenuConfigNotFound
	}

	// menu类型节点不允许清空菜单路径
	if req.PermissionLogic != nil {
		if *req.PermissionLogic != model.PermissionLogicAND && *req.PermissionLogic != model.PermissionLogicOR {
			return nil, errors.New("权限组合规则无效,必须为AND或OR")
		}
	}

	// 构建字段更新集合
	fields := make(map[string]interface{})
	if req.DisplayName != "" && req.DisplayName != menu.DisplayName {
		fields["display_name"] = req.DisplayName
	}
	if req.MenuPath != "" && req.MenuPath != menu.MenuPath {
		fields["menu_path"] = req.MenuPath
	}
	if req.RequiredPermissions != nil {
		perms := model.StringList(*req.RequiredPermissions)
		if perms == nil {
			perms = model.StringList{}
		}
		fields["required_permissions"] = perms
	}
	if req.PermissionLogic != nil && *req.PermissionLogic != menu.PermissionLogic {
		fields["permission_logic"] = *req.PermissionLogic
	}
	if req.IsVisible != nil && *req.IsVisible != menu.IsVisible {
		fields["is_visible"] = *req.IsVisible
	}
	if req.SortOrder != nil && *req.SortOrder != menu.SortOrder {
		fields["sort_order"] = *req.SortOrder
	}

	// 无变更短路
	if len(fields) == 0 {
		return menu, nil
	}
	fields["updated_at"] = time.Now()

	// 版本号为0时回退到当前数据库版本(不参与冲突检测)
	expectedVersion := req.Version
	if expectedVersion == 0 {
		expectedVersion = menu.Version
	}

	rows, err := s.menuRepo.UpdateMenuConfigVersioned(ctx, menu.ID, expectedVersion, fields)
	if err != nil {
		logger.LogError(err, "", 0, clientIP, "menu_update", "PUT", map[string]interface{}{
			"operation": "update_menu_config",
			"key":       key,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("更新菜单配置失败: %w", err)
	}
	if rows == 0 {
		return nil, ErrMenuVersionConflict
	}

	logger.LogBusinessOperation("update_menu_config", 0, "", clientIP, "", "success", "菜单配置更新成功", map[string]interface{}{
		"key":       key,
		"fields":    len(fields),
		"timestamp": logger.NowFormatted(),
	})

	return s.menuRepo.GetMenuConfigByKey(ctx, key)
}

// DeleteMenuConfig 删除菜单配置节点
// 存在子节点时拒绝删除,错误信息报告准确的子节点数量
func (s *MenuService) DeleteMenuConfig(ctx context.Context, key string) error {
	clientIP := utils.GetClientIPFromContext(ctx)
	if key == "" {
		return errors.New("节点键不能为空")
	}

	menu, err := s.menuRepo.GetMenuConfigByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("获取菜单配置失败: %w", err)
	}
	if menu == nil {
		return model.ErrMenuConfigNotFound
	}

	childCount, err := s.menuRepo.CountChildrenByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("检查子节点失败: %w", err)
	}
	if childCount > 0 {
		return fmt.Errorf("菜单节点删除失败: 存在 %d 个子节点", childCount)
	}

	if err := s.menuRepo.DeleteMenuConfig(ctx, menu.ID); err != nil {
		logger.LogError(err, "", 0, clientIP, "menu_delete", "DELETE", map[string]interface{}{
			"operation": "delete_menu_config",
			"key":       key,
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("删除菜单配置失败: %w", err)
	}

	logger.LogBusinessOperation("delete_menu_config", 0, "", clientIP, "", "success", "菜单配置删除成功", map[string]interface{}{
		"key":       key,
		"timestamp": logger.NowFormatted(),
	})

	return nil
}

// BuildMenuTree 将扁平菜单配置组装为菜单树
// parent_key 引用不存在节点的配置提升为根节点;同级按 sort_order 升序,相同时按键名升序
func BuildMenuTree(configs []*model.MenuConfig) []*model.MenuTreeNode {
	nodes := make(map[string]*model.MenuTreeNode, len(configs))
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		nodes[cfg.Key] = &model.MenuTreeNode{
			Key:                 cfg.Key,
			DisplayName:         cfg.DisplayName,
			NodeType:            cfg.NodeType,
			MenuPath:            cfg.MenuPath,
			RequiredPermissions: []string(cfg.RequiredPermissions),
			PermissionLogic:     cfg.PermissionLogic,
			IsVisible:           cfg.IsVisible,
			SortOrder:           cfg.SortOrder,
		}
	}

	parentKeys := make(map[string]string, len(configs))
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		parentKeys[cfg.Key] = cfg.ParentKey
	}

	roots := make([]*model.MenuTreeNode, 0)
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		node := nodes[cfg.Key]
		parent, ok := nodes[cfg.ParentKey]
		// 空父键、悬挂引用或环状父链的节点提升为根节点,不丢失配置
		if cfg.ParentKey == "" || !ok || menuChainCyclic(cfg.Key, parentKeys) {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	sortMenuLevel(roots)
	for _, node := range nodes {
		sortMenuLevel(node.Children)
	}

	return roots
}

// menuChainCyclic 检测节点的父链是否构成环
func menuChainCyclic(key string, parentKeys map[string]string) bool {
	onPath := map[string]bool{key: true}
	current := parentKeys[key]
	for current != "" {
		if onPath[current] {
			return true
		}
		onPath[current] = true
		next, ok := parentKeys[current]
		if !ok {
			return false
		}
		current = next
	}
	return false
}

// sortMenuLevel 同级节点稳定排序
func sortMenuLevel(level []*model.MenuTreeNode) {
	sort.SliceStable(level, func(i, j int) bool {
		if level[i].SortOrder != level[j].SortOrder {
			return level[i].SortOrder < level[j].SortOrder
		}
		return level[i].Key < level[j].Key
	})
}
