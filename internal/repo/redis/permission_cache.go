/**
 * 权限缓存仓库层:用户有效权限缓存
 * @author: linkc
 * @date: 2025.12.03
 * @description: 用户有效权限集合的Redis缓存(读侧加速,写侧失效)
 * @func:单纯缓存访问,不应该包含权限计算逻辑
 * @note: 角色/权限变更后由服务层调用Invalidate使缓存失效,不做主动刷新
 */
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// PermissionCacheRepository 用户有效权限缓存存储库
type PermissionCacheRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewPermissionCacheRepository 创建权限缓存存储库实例
// keyPrefix为空时使用默认前缀 "perm:user:"
func NewPermissionCacheRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *PermissionCacheRepository {
	if keyPrefix == "" {
		keyPrefix = "perm:user:"
	}
	return &PermissionCacheRepository{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// SetUserPermissions 缓存用户有效权限集合
func (r *PermissionCacheRepository) SetUserPermissions(ctx context.Context, userID uint, permissions []string) error {
	// 空集合也要缓存,避免无权限用户每次请求都穿透到数据库
	if permissions == nil {
		permissions = []string{}
	}

	data, err := json.Marshal(permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	key := r.getUserPermissionKey(userID)
	err = r.client.Set(ctx, key, data, r.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache user permissions: %w", err)
	}

	return nil
}

// GetUserPermissions 获取缓存的用户有效权限集合
// 缓存未命中时返回 (nil, nil),由服务层回源数据库
func (r *PermissionCacheRepository) GetUserPermissions(ctx context.Context, userID uint) ([]string, error) {
	key := r.getUserPermissionKey(userID)

	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached permissions: %w", err)
	}

	var permissions []string
	err = json.Unmarshal([]byte(data), &permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached permissions: %w", err)
	}

	return permissions, nil
}

// InvalidateUserPermissions 使单个用户的权限缓存失效
func (r *PermissionCacheRepository) InvalidateUserPermissions(ctx context.Context, userID uint) error {
	key := r.getUserPermissionKey(userID)

	err := r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate user permissions: %w", err)
	}

	return nil
}

// InvalidateUsersPermissions 批量使多个用户的权限缓存失效
// 角色权限变更时由服务层传入该角色下的全部用户ID
func (r *PermissionCacheRepository) InvalidateUsersPermissions(ctx context.Context, userIDs []uint) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, r.getUserPermissionKey(userID))
	}

	err := r.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate users permissions: %w", err)
	}

	return nil
}

// InvalidateAllPermissions 使所有用户的权限缓存失效
// 权限定义本身发生增删改时使用
func (r *PermissionCacheRepository) InvalidateAllPermissions(ctx context.Context) error {
	pattern := r.keyPrefix + "*"

	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to list permission cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	err = r.client.Del(ctx, keys...).Err()
	if err != nil {
		return fmt.Errorf("failed to invalidate all permissions: %w", err)
	}

	return nil
}

// getUserPermissionKey 生成用户权限缓存键[KEY:{prefix}{userID}]
func (r *PermissionCacheRepository) getUserPermissionKey(userID uint) string {
	return fmt.Sprintf("%s%d", r.keyPrefix, userID)
}
