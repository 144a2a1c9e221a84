/**
 * 服务:角色业务逻辑
 * @author: linkc
 * @date: 2025.12.03
 * @description: 角色业务逻辑(角色自身的增删改查与权限关联维护)
 * @func:
 * 1.创建角色(含权限分配)
 * 2.更新角色(乐观锁校验)
 * 3.删除角色(用户持有保护)
 * 4.角色状态变更
 * 5.角色权限整体替换
 */

//  角色管理:
//  	CreateRole - 创建角色（包含权限分配）
//  	GetRoleByID - 根据ID获取角色
//  	GetRoleByName - 根据角色名获取角色
//  	GetRoleList - 分页获取角色列表
//  	UpdateRoleByID - 更新角色信息（乐观锁版本校验）
//  	DeleteRole - 删除角色（包含级联删除,用户持有时拒绝）
//  	BatchDeleteRoles - 批量删除角色（部分失败语义）
//  状态管理:
//  	UpdateRoleStatus - 通用状态更新函数
//  	ActivateRole - 激活角色
//  	DeactivateRole - 禁用角色
//  权限管理:
//  	GetRoleWithPermissions - 获取角色及其权限
//  	GetRolePermissions - 获取角色权限
//  	ReplaceRolePermissions - 整体替换角色权限集合
//  	AssignPermissionToRole - 为角色分配单个权限
//  	RemovePermissionFromRole - 移除角色单个权限

package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	"openmaas/internal/pkg/utils"
	systemrepo "openmaas/internal/repo/mysql/system"
	redisrepo "openmaas/internal/repo/redis"
)

// roleNamePattern 角色名称格式,字母开头,仅限字母数字下划线
var roleNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ErrVersionConflict 乐观锁版本冲突
var ErrVersionConflict = errors.New("记录已被其他操作修改，请刷新后重试")

// RoleService 角色服务
// 负责角色相关的业务逻辑，包括角色创建、角色权限维护、删除保护等
type RoleService struct {
	roleRepo       *systemrepo.RoleRepository       // 角色数据仓库
	permissionRepo *systemrepo.PermissionRepository // 权限数据仓库(权限ID有效性校验)
	permCache      *redisrepo.PermissionCacheRepository // 用户有效权限缓存(变更后失效)
}

// NewRoleService 创建新的角色服务实例
// permCache 可为 nil,此时跳过缓存失效(测试场景)
func NewRoleService(roleRepo *systemrepo.RoleRepository, permissionRepo *systemrepo.PermissionRepository, permCache *redisrepo.PermissionCacheRepository) *RoleService {
	return &RoleService{
		roleRepo:       roleRepo,
		permissionRepo: permissionRepo,
		permCache:      permCache,
	}
}

// ValidateRoleName 校验角色名称格式
// 格式要求:字母开头,仅限字母、数字、下划线
func ValidateRoleName(name string) error {
	if name == "" {
		return errors.New("角色名称不能为空")
	}
	if !roleNamePattern.MatchString(name) {
		return errors.New("角色名称只能包含字母、数字和下划线，且必须以字母开头")
	}
	return nil
}

// CreateRole 创建角色
// 处理角色创建的完整流程，包括名称格式校验、重复检查、权限有效性校验、权限分配
func (s *RoleService) CreateRole(ctx context.Context, req *model.CreateRoleRequest) (*model.Role, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 参数验证
	if req == nil {
		logger.LogBusinessError(errors.New("request is nil"), "", 0, clientIP, "role_create", "POST", map[string]interface{}{
			"operation": "create_role",
			"error":     "request is nil",
			"timestamp": logger.NowFormatted(),
		})
		return nil, errors.New("创建角色请求不能为空")
	}

	// 名称格式校验
	if err := ValidateRoleName(req.Name); err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "role_create", "POST", map[string]interface{}{
			"operation": "create_role",
			"name":      req.Name,
			"error":     "invalid_role_name",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}

	// 检查角色名是否已存在[大小写敏感精确匹配]
	existingRole, err := s.roleRepo.GetRoleByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("检查角色名称失败: %w", err)
	}
	if existingRole != nil {
		logger.LogBusinessError(errors.New("role name already exists"), "", 0, clientIP, "role_create", "POST", map[string]interface{}{
			"operation":        "create_role",
			"name":             req.Name,
			"existing_role_id": existingRole.ID,
			"timestamp":        logger.NowFormatted(),
		})
		return nil, errors.New("角色名称已存在")
	}

	// 权限ID有效性校验
	if len(req.PermissionIDs) > 0 {
		if err := s.checkPermissionIDs(ctx, req.PermissionIDs); err != nil {
			return nil, err
		}
	}

	// 创建角色模型
	role := &model.Role{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		RoleType:    model.RoleTypeCustom,
		Status:      model.RoleStatusEnabled, // 默认启用状态
	}

	// 事务：创建角色并分配权限
	tx := s.roleRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return nil, errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(role).Error; err != nil {
		tx.Rollback()
		logger.LogBusinessError(err, "", 0, clientIP, "role_create", "POST", map[string]interface{}{
			"operation": "create_role_db",
			"name":      req.Name,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("创建角色失败: %w", err)
	}

	if len(req.PermissionIDs) > 0 {
		if err := s.roleRepo.ReplaceRolePermissionsWithTx(ctx, tx, role.ID, req.PermissionIDs); err != nil {
			tx.Rollback()
			logger.LogBusinessError(err, "", 0, clientIP, "role_create", "POST", map[string]interface{}{
				"operation": "assign_permissions_to_role",
				"role_id":   role.ID,
				"timestamp": logger.NowFormatted(),
			})
			return nil, fmt.Errorf("角色权限分配失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 记录成功创建角色的业务日志
	logger.LogBusinessOperation("create_role", 0, "system", clientIP, "", "success", "角色创建成功", map[string]interface{}{
		"name":             role.Name,
		"role_id":          role.ID,
		"display_name":     role.DisplayName,
		"status":           role.Status,
		"permission_count": len(req.PermissionIDs),
		"timestamp":        logger.NowFormatted(),
	})

	return role, nil
}

// checkPermissionIDs 校验权限ID列表均存在
func (s *RoleService) checkPermissionIDs(ctx context.Context, permissionIDs []uint) error {
	permissions, err := s.permissionRepo.GetPermissionsByIDs(ctx, permissionIDs)
	if err != nil {
		return fmt.Errorf("校验权限失败: %w", err)
	}
	found := make(map[uint]bool, len(permissions))
	for _, p := range permissions {
		found[p.ID] = true
	}
	for _, id := range permissionIDs {
		if !found[id] {
			return fmt.Errorf("权限不存在: %d", id)
		}
	}
	return nil
}

// GetRoleByID 根据角色ID获取角色
func (s *RoleService) GetRoleByID(ctx context.Context, roleID uint) (*model.Role, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 参数验证：角色ID必须有效
	if roleID == 0 {
		return nil, errors.New("角色ID不能为0")
	}

	// 检查上下文是否已取消
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// 从数据库获取角色信息
	role, err := s.roleRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		// 记录数据库查询失败日志
		logger.LogBusinessError(err, "", roleID, clientIP, "get_role_by_id", "SERVICE", map[string]interface{}{
			"operation": "database_query",
			"role_id":   roleID,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("获取角色信息失败: %w", err)
	}

	// 检查角色是否存在
	if role == nil {
		return nil, errors.New("角色不存在")
	}

	return role, nil
}

// GetRoleByName 根据角色名获取角色
func (s *RoleService) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	if name == "" {
		return nil, errors.New("角色名称不能为空")
	}

	role, err := s.roleRepo.GetRoleByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, errors.New("角色不存在")
	}

	return role, nil
}

// GetRoleList 获取角色列表
// 提供分页查询功能，包含完整的参数验证和错误处理
func (s *RoleService) GetRoleList(ctx context.Context, offset, limit int) ([]*model.Role, int64, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 保存原始参数值用于日志记录
	originalOffset := offset
	originalLimit := limit

	// 参数验证：偏移量不能为负数
	if offset < 0 {
		offset = 0 // 自动修正为0
	}

	// 参数验证：限制每页数量的合理范围
	if limit <= 0 {
		limit = 20 // 默认每页20条
	} else if limit > 100 {
		limit = 100 // 最大每页100条，防止查询过大数据集
	}

	// 记录参数修正日志（如果发生了修正）
	if originalLimit != limit || originalOffset != offset {
		logger.LogBusinessOperation("get_role_list", 0, "system", clientIP, "", "parameter_corrected", "分页参数已自动修正", map[string]interface{}{
			"operation":        "get_role_list",
			"original_offset":  originalOffset,
			"original_limit":   originalLimit,
			"corrected_offset": offset,
			"corrected_limit":  limit,
			"timestamp":        logger.NowFormatted(),
		})
	}

	// 上下文检查：确保请求未被取消
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("request cancelled: %w", ctx.Err())
	default:
		// 继续执行
	}

	// 调用repo层获取数据
	roles, total, err := s.roleRepo.GetRoleList(ctx, offset, limit)
	if err != nil {
		// 记录数据库查询错误
		logger.LogBusinessError(err, "", 0, clientIP, "get_role_list", "SERVICE", map[string]interface{}{
			"operation": "get_role_list",
			"offset":    offset,
			"limit":     limit,
			"timestamp": logger.NowFormatted(),
		})
		return nil, 0, fmt.Errorf("failed to get role list from repo: %w", err)
	}

	// 数据完整性检查
	if roles == nil {
		roles = make([]*model.Role, 0) // 确保返回空切片而不是nil
	}

	// 持有用户数实时统计,保证列表展示的 user_count 不依赖冗余字段
	for _, role := range roles {
		count, err := s.roleRepo.CountUsersByRoleID(ctx, role.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("统计角色用户数失败: %w", err)
		}
		role.UserCount = count
	}

	return roles, total, nil
}

// UpdateRoleByID 更新角色信息
// 处理角色更新的完整流程，包括系统角色保护、名称冲突检查、乐观锁校验、权限替换
func (s *RoleService) UpdateRoleByID(ctx context.Context, roleID uint, req *model.UpdateRoleRequest) (*model.Role, error) {
	// 第一层：参数验证层
	if err := s.validateUpdateRoleParams(ctx, roleID, req); err != nil {
		return nil, err
	}

	// 第二层：业务规则验证层
	role, err := s.validateRoleForUpdate(ctx, roleID, req)
	if err != nil {
		// 角色是否存在
		// 系统角色不可更新
		// 角色名称格式与冲突校验
		// 权限id的有效性校验
		return nil, err
	}

	// 第三层：事务处理层
	return s.executeRoleUpdate(ctx, role, req)
}

// validateUpdateRoleParams 验证更新角色的参数
func (s *RoleService) validateUpdateRoleParams(ctx context.Context, roleID uint, req *model.UpdateRoleRequest) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)

	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}

	if req == nil {
		return errors.New("更新角色请求不能为空")
	}

	// 验证状态值
	if req.Status != nil {
		if *req.Status != model.RoleStatusDisabled && *req.Status != model.RoleStatusEnabled {
			logger.LogBusinessError(errors.New("invalid status value"), "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
				"operation": "parameter_validation",
				"role_id":   roleID,
				"status":    *req.Status,
				"error":     "invalid_status_value",
				"timestamp": logger.NowFormatted(),
			})
			return errors.New("角色状态值无效,必须为0(禁用)或1(启用)")
		}
	}

	// 名称变更时校验格式
	if req.Name != "" {
		if err := ValidateRoleName(req.Name); err != nil {
			return err
		}
	}

	return nil
}

// validateRoleForUpdate 验证角色是否可以更新
func (s *RoleService) validateRoleForUpdate(ctx context.Context, roleID uint, req *model.UpdateRoleRequest) (*model.Role, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)

	// 检查角色是否存在[需要角色及其权限关联信息]
	role, err := s.roleRepo.GetRoleWithPermissions(ctx, roleID)
	if err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
			"operation": "role_existence_check",
			"role_id":   roleID,
			"error":     "database_query_failed",
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("获取角色信息失败: %w", err)
	}

	if role == nil {
		return nil, errors.New("角色不存在")
	}

	// 业务规则：系统角色保护,系统内置角色不能被修改
	if role.IsSystem {
		logger.LogBusinessError(errors.New("system role cannot be updated"), "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
			"operation": "business_rule_check",
			"role_id":   roleID,
			"role_name": role.Name,
			"error":     "system_role_update_forbidden",
			"timestamp": logger.NowFormatted(),
		})
		return nil, errors.New("系统角色不能被修改")
	}

	// 角色名冲突校验[排除自身]
	if req.Name != "" && req.Name != role.Name {
		roleNameConflict, err := s.roleRepo.GetRoleByName(ctx, req.Name)
		if err != nil {
			return nil, fmt.Errorf("检查角色名称失败: %w", err)
		}
		if roleNameConflict != nil && roleNameConflict.ID != roleID {
			logger.LogBusinessError(errors.New("role name already exists"), "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
				"operation": "role_name_conflict_check",
				"role_id":   roleID,
				"name":      req.Name,
				"error":     "role_name_conflict",
				"timestamp": logger.NowFormatted(),
			})
			return nil, errors.New("角色名称已存在")
		}
	}

	// 权限id的有效性校验
	if req.PermissionIDs != nil {
		if err := s.checkPermissionIDs(ctx, req.PermissionIDs); err != nil {
			return nil, err
		}
	}

	return role, nil
}

// executeRoleUpdate 执行角色更新操作（包含事务处理与乐观锁校验）
func (s *RoleService) executeRoleUpdate(ctx context.Context, role *model.Role, req *model.UpdateRoleRequest) (*model.Role, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)

	// 构建字段更新集合
	fields := make(map[string]interface{})
	if req.Name != "" && req.Name != role.Name {
		fields["name"] = req.Name
	}
	if req.DisplayName != "" && req.DisplayName != role.DisplayName {
		fields["display_name"] = req.DisplayName
	}
	if req.Description != "" && req.Description != role.Description {
		fields["description"] = req.Description
	}
	if req.Status != nil && *req.Status != role.Status {
		fields["status"] = *req.Status
	}

	permissionsChanged := req.PermissionIDs != nil

	// 无任何变更时直接返回,避免无意义的版本号递增
	if len(fields) == 0 && !permissionsChanged {
		return role, nil
	}

	// 开始事务
	tx := s.roleRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return nil, errors.New("开始事务失败")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.LogBusinessError(fmt.Errorf("panic during role update: %v", r), "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
				"operation": "panic_recovery",
				"role_id":   role.ID,
				"panic":     r,
				"timestamp": logger.NowFormatted(),
			})
		}
	}()

	// 权限整体替换（删除旧关联后批量插入新关联）
	if permissionsChanged {
		if err := s.roleRepo.ReplaceRolePermissionsWithTx(ctx, tx, role.ID, req.PermissionIDs); err != nil {
			tx.Rollback()
			logger.LogBusinessError(err, "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
				"operation": "replace_role_permissions",
				"role_id":   role.ID,
				"error":     "replace_permissions_failed",
				"timestamp": logger.NowFormatted(),
			})
			return nil, fmt.Errorf("替换角色权限失败: %w", err)
		}
	}

	// 字段更新（权限替换也要递增版本号,无字段变更时传空集合）
	expectedVersion := req.Version
	if expectedVersion == 0 {
		// 请求未携带版本号时放弃冲突检测,以当前库内版本为准
		expectedVersion = role.Version
	}
	fields["updated_at"] = time.Now()

	rows, err := s.roleRepo.UpdateRoleVersionedWithTx(ctx, tx, role.ID, expectedVersion, fields)
	if err != nil {
		tx.Rollback()
		logger.LogBusinessError(err, "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
			"operation": "database_update",
			"role_id":   role.ID,
			"error":     "update_role_failed",
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("更新角色失败: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		logger.LogBusinessError(ErrVersionConflict, "", 0, clientIP, "update_role", "SERVICE", map[string]interface{}{
			"operation":        "optimistic_lock_check",
			"role_id":          role.ID,
			"expected_version": expectedVersion,
			"error":            "version_conflict",
			"timestamp":        logger.NowFormatted(),
		})
		return nil, ErrVersionConflict
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 权限变更后失效持有该角色用户的权限缓存
	if permissionsChanged {
		s.invalidateRoleUsers(ctx, role.ID)
	}

	// 记录成功更新日志
	logger.LogBusinessOperation("update_role", 0, "", clientIP, "", "success", "角色更新成功", map[string]interface{}{
		"operation":           "role_update_success",
		"role_id":             role.ID,
		"role_name":           role.Name,
		"permissions_changed": permissionsChanged,
		"timestamp":           logger.NowFormatted(),
	})

	// 返回更新后的角色
	return s.roleRepo.GetRoleWithPermissions(ctx, role.ID)
}

// invalidateRoleUsers 失效持有指定角色的所有用户的权限缓存
func (s *RoleService) invalidateRoleUsers(ctx context.Context, roleID uint) {
	if s.permCache == nil {
		return
	}
	userIDs, err := s.roleRepo.GetUserIDsByRoleID(ctx, roleID)
	if err != nil {
		logger.LogSystemEvent("permission_cache", "invalidate_skip", "获取角色用户列表失败,跳过缓存失效", logrus.WarnLevel, map[string]interface{}{
			"role_id": roleID,
			"error":   err.Error(),
		})
		return
	}
	if err := s.permCache.InvalidateUsersPermissions(ctx, userIDs); err != nil {
		logger.LogSystemEvent("permission_cache", "invalidate_failed", "权限缓存失效失败", logrus.WarnLevel, map[string]interface{}{
			"role_id": roleID,
			"error":   err.Error(),
		})
	}
}

// DeleteRole 删除角色
// 完整的业务逻辑包括：参数验证、系统角色保护、用户持有保护、级联删除、事务处理
func (s *RoleService) DeleteRole(ctx context.Context, roleID uint) error {
	// 第一层：参数验证层
	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}

	// 第二层：业务规则验证层
	role, err := s.validateRoleForDeletion(ctx, roleID)
	if err != nil {
		// 检查角色是否存在
		// 系统角色不能删除
		// 仍有用户持有的角色不能删除
		return err
	}

	// 第三层：事务处理层
	return s.executeRoleDeletion(ctx, role)
}

// validateRoleForDeletion 验证角色是否可以删除
func (s *RoleService) validateRoleForDeletion(ctx context.Context, roleID uint) (*model.Role, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 检查角色是否存在
	role, err := s.roleRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		logger.LogBusinessError(err, "", 0, clientIP, "delete_role", "SERVICE", map[string]interface{}{
			"operation": "role_existence_check",
			"role_id":   roleID,
			"error":     "database_query_failed",
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("获取角色失败: %w", err)
	}

	if role == nil {
		return nil, errors.New("角色不存在")
	}

	// 业务规则：系统内置角色不能被删除
	if role.IsSystem {
		logger.LogBusinessError(errors.New("system role cannot be deleted"), "", 0, clientIP, "delete_role", "SERVICE", map[string]interface{}{
			"operation": "business_rule_check",
			"role_id":   roleID,
			"role_name": role.Name,
			"error":     "system_role_delete_forbidden",
			"timestamp": logger.NowFormatted(),
		})
		return nil, errors.New("系统角色不能被删除")
	}

	// 业务规则：仍有用户持有的角色不能删除[实时统计]
	userCount, err := s.roleRepo.CountUsersByRoleID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("统计角色用户数失败: %w", err)
	}
	if userCount > 0 {
		logger.LogBusinessError(errors.New("role still held by users"), "", 0, clientIP, "delete_role", "SERVICE", map[string]interface{}{
			"operation":  "business_rule_check",
			"role_id":    roleID,
			"role_name":  role.Name,
			"user_count": userCount,
			"error":      "role_in_use",
			"timestamp":  logger.NowFormatted(),
		})
		return nil, fmt.Errorf("角色删除失败: 仍有 %d 个用户持有该角色", userCount)
	}

	return role, nil
}

// executeRoleDeletion 执行角色删除操作（包含事务处理）
func (s *RoleService) executeRoleDeletion(ctx context.Context, role *model.Role) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 开始事务
	tx := s.roleRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return errors.New("开始事务失败")
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.LogBusinessError(fmt.Errorf("panic during role deletion: %v", r), "", 0, clientIP, "delete_role", "SERVICE", map[string]interface{}{
				"operation": "panic_recovery",
				"role_id":   role.ID,
				"panic":     r,
				"timestamp": logger.NowFormatted(),
			})
		}
	}()

	// 1. 删除角色权限关联[硬删除]
	if err := s.roleRepo.DeleteRolePermissionsByRoleID(ctx, tx, role.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除角色权限关联失败: %w", err)
	}

	// 2. 删除残留的用户角色关联[删除保护已确认无用户持有,此处兜底清理]
	if err := s.roleRepo.DeleteUserRolesByRoleID(ctx, tx, role.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除用户角色关联失败: %w", err)
	}

	// 3. 删除角色
	if err := s.roleRepo.DeleteRoleWithTx(ctx, tx, role.ID); err != nil {
		tx.Rollback()
		logger.LogBusinessError(err, "", 0, clientIP, "delete_role", "SERVICE", map[string]interface{}{
			"operation": "delete_role",
			"role_id":   role.ID,
			"error":     "delete_role_failed",
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("删除角色失败: %w", err)
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 记录成功删除日志
	logger.LogBusinessOperation("delete_role", 0, "", clientIP, "", "success", "角色删除成功", map[string]interface{}{
		"operation": "role_deletion_success",
		"role_id":   role.ID,
		"role_name": role.Name,
		"timestamp": logger.NowFormatted(),
	})

	return nil
}

// BatchDeleteRoles 批量删除角色
// 部分失败语义:逐项应用删除保护,成功项提交,失败项记录原因,不整体回滚
func (s *RoleService) BatchDeleteRoles(ctx context.Context, roleIDs []uint) (*model.BatchOperationResponse, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if len(roleIDs) == 0 {
		return nil, errors.New("角色ID列表不能为空")
	}

	result := &model.BatchOperationResponse{
		SuccessIDs:   make([]uint, 0, len(roleIDs)),
		FailedIDs:    make([]uint, 0),
		FailedReason: make(map[uint]string),
	}

	for _, roleID := range roleIDs {
		if err := s.DeleteRole(ctx, roleID); err != nil {
			result.FailedIDs = append(result.FailedIDs, roleID)
			result.FailedReason[roleID] = err.Error()
			continue
		}
		result.SuccessIDs = append(result.SuccessIDs, roleID)
	}
	result.SuccessCount = len(result.SuccessIDs)
	result.FailedCount = len(result.FailedIDs)

	logger.LogBusinessOperation("batch_delete_roles", 0, "", clientIP, "", "success", "批量删除角色完成", map[string]interface{}{
		"operation":     "batch_delete_roles",
		"total":         len(roleIDs),
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
		"timestamp":     logger.NowFormatted(),
	})

	return result, nil
}

// UpdateRoleStatus 更新角色状态 - 通用状态管理函数
func (s *RoleService) UpdateRoleStatus(ctx context.Context, roleID uint, status model.RoleStatus) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 参数验证层 - 消除特殊情况
	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}

	// 验证状态值有效性 - 严格的参数检查
	if status != model.RoleStatusEnabled && status != model.RoleStatusDisabled {
		return errors.New("角色状态值无效,必须为0(禁用)或1(启用)")
	}

	// 业务规则验证层 - 检查角色是否存在
	role, err := s.roleRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("获取角色信息失败: %w", err)
	}

	if role == nil {
		return errors.New("角色不存在")
	}

	// 幂等性检查 - 避免无意义操作
	if role.Status == status {
		return nil
	}

	// 数据操作层 - 执行状态更新
	updateFields := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	err = s.roleRepo.UpdateRoleFields(ctx, roleID, updateFields)
	if err != nil {
		logger.LogBusinessError(err, "", roleID, clientIP, "update_role_status", "SERVICE", map[string]interface{}{
			"operation": "update_role_status",
			"role_id":   roleID,
			"name":      role.Name,
			"status":    int(status),
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("更新角色状态失败: %w", err)
	}

	// 状态变更影响有效权限集合(禁用角色的权限不再生效),失效相关用户缓存
	s.invalidateRoleUsers(ctx, roleID)

	// 审计日志层 - 记录成功操作
	statusText := "禁用"
	if status == model.RoleStatusEnabled {
		statusText = "启用"
	}

	logger.LogBusinessOperation("update_role_status", 0, "", clientIP, "", "success",
		fmt.Sprintf("角色%s成功", statusText), map[string]interface{}{
			"operation":     "update_role_status",
			"role_id":       roleID,
			"role_name":     role.Name,
			"target_status": int(status),
			"timestamp":     logger.NowFormatted(),
		})

	return nil
}

// ActivateRole 激活角色 - 语义化包装函数
func (s *RoleService) ActivateRole(ctx context.Context, roleID uint) error {
	return s.UpdateRoleStatus(ctx, roleID, model.RoleStatusEnabled)
}

// DeactivateRole 禁用角色 - 语义化包装函数
func (s *RoleService) DeactivateRole(ctx context.Context, roleID uint) error {
	// 系统角色禁止禁用
	role, err := s.roleRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("获取角色信息失败: %w", err)
	}
	if role == nil {
		return errors.New("角色不存在")
	}
	if role.IsSystem {
		return errors.New("系统角色禁止禁用")
	}

	return s.UpdateRoleStatus(ctx, roleID, model.RoleStatusDisabled)
}

// GetRoleWithPermissions 获取角色及其权限
func (s *RoleService) GetRoleWithPermissions(ctx context.Context, roleID uint) (*model.Role, error) {
	if roleID == 0 {
		return nil, errors.New("角色ID不能为0")
	}

	role, err := s.roleRepo.GetRoleWithPermissions(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("获取角色信息失败: %w", err)
	}

	if role == nil {
		return nil, errors.New("角色不存在")
	}

	return role, nil
}

// GetRolePermissions 获取角色权限
func (s *RoleService) GetRolePermissions(ctx context.Context, roleID uint) ([]*model.Permission, error) {
	if roleID == 0 {
		return nil, errors.New("角色ID不能为0")
	}

	return s.roleRepo.GetRolePermissions(ctx, roleID)
}

// ReplaceRolePermissions 整体替换角色权限集合
func (s *RoleService) ReplaceRolePermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}

	role, err := s.roleRepo.GetRoleByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("获取角色信息失败: %w", err)
	}
	if role == nil {
		return errors.New("角色不存在")
	}
	if role.IsSystem {
		return errors.New("系统角色不能被修改")
	}

	if len(permissionIDs) > 0 {
		if err := s.checkPermissionIDs(ctx, permissionIDs); err != nil {
			return err
		}
	}

	tx := s.roleRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.roleRepo.ReplaceRolePermissionsWithTx(ctx, tx, roleID, permissionIDs); err != nil {
		tx.Rollback()
		return fmt.Errorf("替换角色权限失败: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 失效缓存
	s.invalidateRoleUsers(ctx, roleID)

	logger.LogBusinessOperation("replace_role_permissions", 0, "", clientIP, "", "success", "角色权限替换成功", map[string]interface{}{
		"operation":        "replace_role_permissions",
		"role_id":          roleID,
		"role_name":        role.Name,
		"permission_count": len(permissionIDs),
		"timestamp":        logger.NowFormatted(),
	})

	return nil
}

// AssignPermissionToRole 为角色分配权限
func (s *RoleService) AssignPermissionToRole(ctx context.Context, roleID, permissionID uint) error {
	// 参数验证
	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}
	if permissionID == 0 {
		return errors.New("权限ID不能为0")
	}

	// 调用数据访问层分配权限
	if err := s.roleRepo.AssignPermissionToRole(ctx, roleID, permissionID); err != nil {
		return err
	}

	s.invalidateRoleUsers(ctx, roleID)
	return nil
}

// RemovePermissionFromRole 移除角色权限
func (s *RoleService) RemovePermissionFromRole(ctx context.Context, roleID, permissionID uint) error {
	// 参数验证
	if roleID == 0 {
		return errors.New("角色ID不能为0")
	}
	if permissionID == 0 {
		return errors.New("权限ID不能为0")
	}

	// 调用数据访问层移除权限
	if err := s.roleRepo.RemovePermissionFromRole(ctx, roleID, permissionID); err != nil {
		return err
	}

	s.invalidateRoleUsers(ctx, roleID)
	return nil
}
