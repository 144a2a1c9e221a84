/**
 * 服务:授权检查
 * @author: linkc
 * @date: 2025.12.03
 * @description: 基于角色的授权检查(有效权限集合为启用角色的权限并集,管理员直接放行)
 * @func:
 * 1.GetEffectivePermissions - 计算/缓存用户有效权限集合
 * 2.HasPermission / HasAnyPermission / HasAllPermissions - 权限检查
 * 3.HasRole - 角色检查(精确匹配)
 * 4.InvalidateUserPermissions - 用户角色变更后失效缓存
 */

package auth

import (
	"context"
	"errors"
	"fmt"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"
	systemrepo "openmaas/internal/repo/mysql/system"
	redisrepo "openmaas/internal/repo/redis"
)

// RBACService 基于角色的访问控制服务
// 有效权限集合 = 用户全部启用角色的启用权限名称并集;管理员账户绕过全部检查
type RBACService struct {
	userRepo  *systemrepo.UserRepository           // 用户数据仓库(角色权限关联预加载)
	permCache *redisrepo.PermissionCacheRepository // 有效权限集合缓存,读穿透写失效
}

// NewRBACService 创建RBAC服务实例
// permCache 可为 nil,此时每次检查都回源数据库(测试场景)
func NewRBACService(userRepo *systemrepo.UserRepository, permCache *redisrepo.PermissionCacheRepository) *RBACService {
	return &RBACService{
		userRepo:  userRepo,
		permCache: permCache,
	}
}

// GetEffectivePermissions 获取用户的有效权限名称集合
// 先查缓存,未命中时回源数据库计算并集并回填缓存
// 并集范围:启用角色的启用权限;禁用角色/禁用权限不参与
func (s *RBACService) GetEffectivePermissions(ctx context.Context, userID uint) ([]string, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	// 缓存读取
	if s.permCache != nil {
		cached, err := s.permCache.GetUserPermissions(ctx, userID)
		if err != nil {
			// 缓存故障不阻断检查,降级回源数据库
			logger.LogError(err, "", userID, "", "permission_cache_read", "SERVICE", map[string]interface{}{
				"operation": "get_effective_permissions",
				"user_id":   userID,
				"timestamp": logger.NowFormatted(),
			})
		} else if cached != nil {
			return cached, nil
		}
	}

	// 回源数据库计算并集
	permissions, err := s.computeEffectivePermissions(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 回填缓存
	if s.permCache != nil {
		if err := s.permCache.SetUserPermissions(ctx, userID, permissions); err != nil {
			logger.LogError(err, "", userID, "", "permission_cache_write", "SERVICE", map[string]interface{}{
				"operation": "get_effective_permissions",
				"user_id":   userID,
				"timestamp": logger.NowFormatted(),
			})
		}
	}

	return permissions, nil
}

// computeEffectivePermissions 从数据库计算用户有效权限并集
func (s *RBACService) computeEffectivePermissions(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.userRepo.GetUserWithRolesAndPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户角色权限失败: %w", err)
	}
	if user == nil {
		return nil, errors.New("用户不存在")
	}

	seen := make(map[string]bool)
	permissions := make([]string, 0)
	for _, role := range user.Roles {
		if role == nil || !role.IsActive() {
			continue
		}
		for i := range role.Permissions {
			p := &role.Permissions[i]
			if !p.IsActive() || seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			permissions = append(permissions, p.Name)
		}
	}

	return permissions, nil
}

// HasPermission 检查用户是否具有指定权限
// 管理员账户直接放行;否则检查权限名是否出现在有效权限并集中
func (s *RBACService) HasPermission(ctx context.Context, userID uint, permissionName string) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}
	if permissionName == "" {
		return false, errors.New("权限名称不能为空")
	}

	// 管理员绕过
	isAdmin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	permissions, err := s.GetEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, name := range permissions {
		if name == permissionName {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyPermission 检查用户是否具有任意一个指定权限
func (s *RBACService) HasAnyPermission(ctx context.Context, userID uint, permissionNames []string) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}
	if len(permissionNames) == 0 {
		return false, errors.New("权限名称列表不能为空")
	}

	// 管理员绕过
	isAdmin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	permissions, err := s.GetEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	held := make(map[string]bool, len(permissions))
	for _, name := range permissions {
		held[name] = true
	}
	for _, name := range permissionNames {
		if held[name] {
			return true, nil
		}
	}
	return false, nil
}

// HasAllPermissions 检查用户是否具有全部指定权限
// 空列表认为满足条件
func (s *RBACService) HasAllPermissions(ctx context.Context, userID uint, permissionNames []string) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}
	if len(permissionNames) == 0 {
		return true, nil
	}

	// 管理员绕过
	isAdmin, err := s.isAdmin(ctx, userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	permissions, err := s.GetEffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}

	held := make(map[string]bool, len(permissions))
	for _, name := range permissions {
		held[name] = true
	}
	for _, name := range permissionNames {
		if !held[name] {
			return false, nil
		}
	}
	return true, nil
}

// HasRole 检查用户是否具有指定角色（精确匹配角色名,非前缀匹配）
func (s *RBACService) HasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}
	if roleName == "" {
		return false, errors.New("角色名称不能为空")
	}

	roles, err := s.userRepo.GetUserRoles(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("获取用户角色失败: %w", err)
	}

	for _, role := range roles {
		if role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole 检查用户是否具有任意一个指定角色
func (s *RBACService) HasAnyRole(ctx context.Context, userID uint, roleNames []string) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}
	if len(roleNames) == 0 {
		return false, errors.New("角色名称列表不能为空")
	}

	userRoles, err := s.userRepo.GetUserRoles(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("获取用户角色失败: %w", err)
	}

	roleMap := make(map[string]bool, len(roleNames))
	for _, name := range roleNames {
		roleMap[name] = true
	}
	for _, role := range userRoles {
		if roleMap[role.Name] {
			return true, nil
		}
	}
	return false, nil
}

// GetUserRoles 获取用户的所有角色
func (s *RBACService) GetUserRoles(ctx context.Context, userID uint) ([]*model.Role, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	return s.userRepo.GetUserRoles(ctx, userID)
}

// IsUserActive 检查用户是否处于活跃状态
func (s *RBACService) IsUserActive(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, errors.New("用户ID不能为0")
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return false, errors.New("用户不存在")
	}

	return user.IsActive(), nil
}

// ValidatePermissionAccess 验证用户对指定权限的访问
// 检查用户活跃状态后执行权限检查,失败返回带权限名的拒绝错误
func (s *RBACService) ValidatePermissionAccess(ctx context.Context, userID uint, permissionName string) error {
	// 检查用户是否活跃
	isActive, err := s.IsUserActive(ctx, userID)
	if err != nil {
		return err
	}
	if !isActive {
		return errors.New("用户已被禁用")
	}

	// 检查权限
	hasPermission, err := s.HasPermission(ctx, userID, permissionName)
	if err != nil {
		return err
	}
	if !hasPermission {
		return fmt.Errorf("权限不足: 缺少权限 %s", permissionName)
	}

	return nil
}

// InvalidateUserPermissions 失效用户的有效权限缓存
// 用户角色发生分配/移除后调用,下次检查时重新计算并集
func (s *RBACService) InvalidateUserPermissions(ctx context.Context, userID uint) error {
	if s.permCache == nil {
		return nil
	}
	return s.permCache.InvalidateUserPermissions(ctx, userID)
}

// IsAdminUser 检查用户是否为管理员账户
// 管理员在权限检查与菜单可见性求值中全量放行
func (s *RBACService) IsAdminUser(ctx context.Context, userID uint) (bool, error) {
	return s.isAdmin(ctx, userID)
}

// isAdmin 检查用户是否为管理员账户
// 管理员标记或持有系统内置的 admin / super_admin 角色均视为管理员
func (s *RBACService) isAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return false, errors.New("用户不存在")
	}
	if user.IsAdmin {
		return true, nil
	}

	return s.HasAnyRole(ctx, userID, []string{"super_admin", "admin"})
}
