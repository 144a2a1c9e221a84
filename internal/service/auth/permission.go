/**
 * 服务:权限业务逻辑
 * @author: linkc
 * @date: 2025.12.03
 * @description: 权限业务逻辑(权限自身的增删改查与树形约束维护)
 * @func:
 * 1.创建权限(点分名称格式校验、父权限校验)
 * 2.更新权限(系统权限不可重命名、乐观锁校验)
 * 3.删除权限(子权限存在时拒绝,报告准确子权限数)
 * 4.批量删除(部分失败语义)
 */

package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"
	systemrepo "openmaas/internal/repo/mysql/system"
	redisrepo "openmaas/internal/repo/redis"
)

// permissionNamePattern 权限名称格式,点分层级,每段字母开头仅限字母数字下划线
// 如 user.view / model.provider.create
var permissionNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*(\.[a-zA-Z][a-zA-Z0-9_]*)*$`)

// PermissionService 权限服务
// 负责权限相关的业务逻辑，包括权限创建、树形约束维护、删除保护等
type PermissionService struct {
	permissionRepo *systemrepo.PermissionRepository     // 权限数据仓库
	permCache      *redisrepo.PermissionCacheRepository // 用户有效权限缓存(变更后失效)
}

// NewPermissionService 创建新的权限服务实例
// permCache 可为 nil,此时跳过缓存失效(测试场景)
func NewPermissionService(permissionRepo *systemrepo.PermissionRepository, permCache *redisrepo.PermissionCacheRepository) *PermissionService {
	return &PermissionService{
		permissionRepo: permissionRepo,
		permCache:      permCache,
	}
}

// ValidatePermissionName 校验权限名称格式
// 格式要求:点分层级,每段字母开头,仅限字母、数字、下划线
func ValidatePermissionName(name string) error {
	if name == "" {
		return errors.New("权限名称不能为空")
	}
	if !permissionNamePattern.MatchString(name) {
		return errors.New("权限名称只能包含字母、数字、下划线和点，且每段必须以字母开头")
	}
	return nil
}

// CreatePermission 创建权限
// 处理权限创建的完整流程，包括名称格式校验、重复检查、父权限有效性校验
func (s *PermissionService) CreatePermission(ctx context.Context, req *model.CreatePermissionRequest) (*model.Permission, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 参数验证
	if req == nil {
		return nil, errors.New("创建权限请求不能为空")
	}

	// 名称格式校验
	if err := ValidatePermissionName(req.Name); err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "permission_create", "POST", map[string]interface{}{
			"operation": "create_permission",
			"name":      req.Name,
			"error":     "invalid_permission_name",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}

	// 检查权限名是否已存在[大小写敏感精确匹配]
	existing, err := s.permissionRepo.GetPermissionByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("检查权限名称失败: %w", err)
	}
	if existing != nil {
		logger.LogBusinessError(errors.New("permission name already exists"), "", 0, clientIP, "permission_create", "POST", map[string]interface{}{
			"operation":              "create_permission",
			"name":                   req.Name,
			"existing_permission_id": existing.ID,
			"timestamp":              logger.NowFormatted(),
		})
		return nil, errors.New("权限名称已存在")
	}

	// 父权限有效性校验
	if req.ParentID != nil && *req.ParentID != 0 {
		parent, err := s.permissionRepo.GetPermissionByID(ctx, *req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("校验父权限失败: %w", err)
		}
		if parent == nil {
			return nil, fmt.Errorf("父权限不存在: %d", *req.ParentID)
		}
	}

	// 创建权限模型
	permission := &model.Permission{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Module:      req.Module,
		Resource:    req.Resource,
		Action:      req.Action,
		ParentID:    req.ParentID,
		Status:      model.PermissionStatusEnabled, // 默认启用状态
	}

	// 存储到数据库
	if err := s.permissionRepo.CreatePermission(ctx, permission); err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "permission_create", "POST", map[string]interface{}{
			"operation": "create_permission_db",
			"name":      req.Name,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("创建权限失败: %w", err)
	}

	// 记录成功创建权限的业务日志
	logger.LogBusinessOperation("create_permission", 0, "system", clientIP, "", "success", "权限创建成功", map[string]interface{}{
		"name":          permission.Name,
		"permission_id": permission.ID,
		"module":        permission.Module,
		"timestamp":     logger.NowFormatted(),
	})

	return permission, nil
}

// GetPermissionByID 根据权限ID获取权限
func (s *PermissionService) GetPermissionByID(ctx context.Context, permissionID uint) (*model.Permission, error) {
	if permissionID == 0 {
		return nil, errors.New("权限ID不能为0")
	}

	permission, err := s.permissionRepo.GetPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, fmt.Errorf("获取权限信息失败: %w", err)
	}
	if permission == nil {
		return nil, errors.New("权限不存在")
	}

	return permission, nil
}

// GetPermissionByName 根据权限名获取权限
func (s *PermissionService) GetPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	if name == "" {
		return nil, errors.New("权限名称不能为空")
	}

	permission, err := s.permissionRepo.GetPermissionByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if permission == nil {
		return nil, errors.New("权限不存在")
	}

	return permission, nil
}

// GetPermissionList 获取权限列表
// 提供分页查询功能，分页参数自动修正
func (s *PermissionService) GetPermissionList(ctx context.Context, offset, limit int) ([]*model.Permission, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	// 上下文检查：确保请求未被取消
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("request cancelled: %w", ctx.Err())
	default:
	}

	permissions, total, err := s.permissionRepo.GetPermissionList(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get permission list from repo: %w", err)
	}
	if permissions == nil {
		permissions = make([]*model.Permission, 0)
	}

	return permissions, total, nil
}

// GetAllPermissions 获取全部权限
// 树构建与菜单可见性评估使用,按ID升序保证分组顺序稳定
func (s *PermissionService) GetAllPermissions(ctx context.Context) ([]*model.Permission, error) {
	permissions, err := s.permissionRepo.GetAllPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取权限列表失败: %w", err)
	}
	if permissions == nil {
		permissions = make([]*model.Permission, 0)
	}
	return permissions, nil
}

// GetPermissionTree 获取权限展示树
// 模块→资源→权限的三级分组树,分组顺序按输入首次出现顺序
func (s *PermissionService) GetPermissionTree(ctx context.Context) ([]*model.TreeNode, error) {
	permissions, err := s.GetAllPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return BuildPermissionTree(permissions), nil
}

// UpdatePermissionByID 更新权限信息
// 系统权限不可重命名;名称冲突校验排除自身;乐观锁版本校验
func (s *PermissionService) UpdatePermissionByID(ctx context.Context, permissionID uint, req *model.UpdatePermissionRequest) (*model.Permission, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if permissionID == 0 {
		return nil, errors.New("权限ID不能为0")
	}
	if req == nil {
		return nil, errors.New("更新权限请求不能为空")
	}

	// 检查权限是否存在
	permission, err := s.permissionRepo.GetPermissionByID(ctx, permissionID)
	if err != nil {
		return nil, fmt.Errorf("获取权限信息失败: %w", err)
	}
	if permission == nil {
		return nil, errors.New("权限不存在")
	}

	// 状态值校验
	if req.Status != nil {
		if *req.Status != model.PermissionStatusDisabled && *req.Status != model.PermissionStatusEnabled {
			return nil, errors.New("权限状态值无效,必须为0(禁用)或1(启用)")
		}
	}

	// 名称变更校验
	if req.Name != "" && req.Name != permission.Name {
		// 业务规则：系统权限不可重命名
		if permission.IsSystem {
			logger.LogBusinessError(errors.New("system permission cannot be renamed"), "", 0, clientIP, "update_permission", "SERVICE", map[string]interface{}{
				"operation":     "business_rule_check",
				"permission_id": permissionID,
				"name":          permission.Name,
				"error":         "system_permission_rename_forbidden",
				"timestamp":     logger.NowFormatted(),
			})
			return nil, errors.New("系统权限不能重命名")
		}

		if err := ValidatePermissionName(req.Name); err != nil {
			return nil, err
		}

		// 名称冲突校验[排除自身]
		conflict, err := s.permissionRepo.GetPermissionByName(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("检查权限名称失败: %w", err)
		}
		if conflict != nil && conflict.ID != permissionID {
			return nil, errors.New("权限名称已存在")
		}
	}

	// 构建字段更新集合
	fields := make(map[string]interface{})
	if req.Name != "" && req.Name != permission.Name {
		fields["name"] = req.Name
	}
	if req.DisplayName != "" && req.DisplayName != permission.DisplayName {
		fields["display_name"] = req.DisplayName
	}
	if req.Description != "" && req.Description != permission.Description {
		fields["description"] = req.Description
	}
	if req.Module != "" && req.Module != permission.Module {
		fields["module"] = req.Module
	}
	if req.Resource != "" && req.Resource != permission.Resource {
		fields["resource"] = req.Resource
	}
	if req.Action != "" && req.Action != permission.Action {
		fields["action"] = req.Action
	}
	if req.Status != nil && *req.Status != permission.Status {
		fields["status"] = *req.Status
	}

	// 无任何变更时直接返回,避免无意义的版本号递增
	if len(fields) == 0 {
		return permission, nil
	}

	// 乐观锁版本校验
	expectedVersion := req.Version
	if expectedVersion == 0 {
		// 请求未携带版本号时放弃冲突检测,以当前库内版本为准
		expectedVersion = permission.Version
	}
	fields["updated_at"] = time.Now()

	rows, err := s.permissionRepo.UpdatePermissionVersioned(ctx, permissionID, expectedVersion, fields)
	if err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "update_permission", "SERVICE", map[string]interface{}{
			"operation":     "database_update",
			"permission_id": permissionID,
			"error":         "update_permission_failed",
			"timestamp":     logger.NowFormatted(),
		})
		return nil, fmt.Errorf("更新权限失败: %w", err)
	}
	if rows == 0 {
		logger.LogBusinessError(ErrVersionConflict, "", 0, clientIP, "update_permission", "SERVICE", map[string]interface{}{
			"operation":        "optimistic_lock_check",
			"permission_id":    permissionID,
			"expected_version": expectedVersion,
			"error":            "version_conflict",
			"timestamp":        logger.NowFormatted(),
		})
		return nil, ErrVersionConflict
	}

	// 权限定义变更影响所有引用该权限的评估结果,全量失效权限缓存
	s.invalidateAll(ctx)

	logger.LogBusinessOperation("update_permission", 0, "", clientIP, "", "success", "权限更新成功", map[string]interface{}{
		"operation":     "permission_update_success",
		"permission_id": permissionID,
		"name":          permission.Name,
		"timestamp":     logger.NowFormatted(),
	})

	return s.permissionRepo.GetPermissionByID(ctx, permissionID)
}

// DeletePermission 删除权限
// 系统权限保护;存在子权限时拒绝并报告准确子权限数;级联清理角色关联
func (s *PermissionService) DeletePermission(ctx context.Context, permissionID uint) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if permissionID == 0 {
		return errors.New("权限ID不能为0")
	}

	// 检查权限是否存在
	permission, err := s.permissionRepo.GetPermissionByID(ctx, permissionID)
	if err != nil {
		return fmt.Errorf("获取权限信息失败: %w", err)
	}
	if permission == nil {
		return errors.New("权限不存在")
	}

	// 业务规则：系统权限不能删除
	if permission.IsSystem {
		logger.LogBusinessError(errors.New("system permission cannot be deleted"), "", 0, clientIP, "delete_permission", "SERVICE", map[string]interface{}{
			"operation":     "business_rule_check",
			"permission_id": permissionID,
			"name":          permission.Name,
			"error":         "system_permission_delete_forbidden",
			"timestamp":     logger.NowFormatted(),
		})
		return errors.New("系统权限不能被删除")
	}

	// 业务规则：存在子权限时拒绝删除,错误信息报告准确子权限数
	childCount, err := s.permissionRepo.CountChildren(ctx, permissionID)
	if err != nil {
		return fmt.Errorf("统计子权限失败: %w", err)
	}
	if childCount > 0 {
		logger.LogBusinessError(errors.New("permission has children"), "", 0, clientIP, "delete_permission", "SERVICE", map[string]interface{}{
			"operation":     "business_rule_check",
			"permission_id": permissionID,
			"name":          permission.Name,
			"child_count":   childCount,
			"error":         "permission_has_children",
			"timestamp":     logger.NowFormatted(),
		})
		return fmt.Errorf("权限删除失败: 存在 %d 个子权限", childCount)
	}

	// 事务：删除角色关联后删除权限
	tx := s.permissionRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.LogBusinessError(fmt.Errorf("panic during permission deletion: %v", r), "", 0, clientIP, "delete_permission", "SERVICE", map[string]interface{}{
				"operation":     "panic_recovery",
				"permission_id": permissionID,
				"panic":         r,
				"timestamp":     logger.NowFormatted(),
			})
		}
	}()

	// 1. 删除角色权限关联[硬删除]
	if err := s.permissionRepo.DeleteRolePermissionsByPermissionID(ctx, tx, permissionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除角色权限关联失败: %w", err)
	}

	// 2. 删除权限
	if err := s.permissionRepo.DeletePermissionWithTx(ctx, tx, permissionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除权限失败: %w", err)
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 权限从角色中移除,全量失效权限缓存
	s.invalidateAll(ctx)

	// 记录成功删除日志
	logger.LogBusinessOperation("delete_permission", 0, "", clientIP, "", "success", "权限删除成功", map[string]interface{}{
		"operation":     "permission_deletion_success",
		"permission_id": permissionID,
		"name":          permission.Name,
		"timestamp":     logger.NowFormatted(),
	})

	return nil
}

// BatchDeletePermissions 批量删除权限
// 部分失败语义:逐项应用删除保护,成功项提交,失败项记录原因,不整体回滚
func (s *PermissionService) BatchDeletePermissions(ctx context.Context, permissionIDs []uint) (*model.BatchOperationResponse, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if len(permissionIDs) == 0 {
		return nil, errors.New("权限ID列表不能为空")
	}

	result := &model.BatchOperationResponse{
		SuccessIDs:   make([]uint, 0, len(permissionIDs)),
		FailedIDs:    make([]uint, 0),
		FailedReason: make(map[uint]string),
	}

	for _, permissionID := range permissionIDs {
		if err := s.DeletePermission(ctx, permissionID); err != nil {
			result.FailedIDs = append(result.FailedIDs, permissionID)
			result.FailedReason[permissionID] = err.Error()
			continue
		}
		result.SuccessIDs = append(result.SuccessIDs, permissionID)
	}
	result.SuccessCount = len(result.SuccessIDs)
	result.FailedCount = len(result.FailedIDs)

	logger.LogBusinessOperation("batch_delete_permissions", 0, "", clientIP, "", "success", "批量删除权限完成", map[string]interface{}{
		"operation":     "batch_delete_permissions",
		"total":         len(permissionIDs),
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
		"timestamp":     logger.NowFormatted(),
	})

	return result, nil
}

// GetPermissionRoles 获取引用指定权限的角色列表
func (s *PermissionService) GetPermissionRoles(ctx context.Context, permissionID uint) ([]*model.Role, error) {
	if permissionID == 0 {
		return nil, errors.New("权限ID不能为0")
	}

	return s.permissionRepo.GetPermissionRoles(ctx, permissionID)
}

// GetPermissionChildren 获取指定权限的直接子权限
func (s *PermissionService) GetPermissionChildren(ctx context.Context, permissionID uint) ([]*model.Permission, error) {
	if permissionID == 0 {
		return nil, errors.New("权限ID不能为0")
	}

	return s.permissionRepo.GetChildren(ctx, permissionID)
}

// invalidateAll 全量失效用户权限缓存
// 权限定义层面的变更无法定位受影响用户集合,直接清空
func (s *PermissionService) invalidateAll(ctx context.Context) {
	if s.permCache == nil {
		return
	}
	if err := s.permCache.InvalidateAllPermissions(ctx); err != nil {
		logger.LogError(err, "", 0, "", "permission_cache_invalidate", "SERVICE", map[string]interface{}{
			"operation": "invalidate_all_permissions",
			"timestamp": logger.NowFormatted(),
		})
	}
}
