/*
 * 权限仓库层:权限数据访问
 * @author: linkc
 * @date: 2025.12.03
 * @description: 单纯数据访问,不应该包含业务逻辑
 * @func:
 * 1.创建权限
 * 2.更新权限
 * 3.删除权限
 * 4.权限层级查询
 */

package system

import (
	"context"
	"fmt"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/logger"

	"gorm.io/gorm"
)

// PermissionRepository 权限仓库结构体
// 负责处理权限相关的数据访问，不包含业务逻辑
type PermissionRepository struct {
	db *gorm.DB // 数据库连接
}

// NewPermissionRepository 创建权限仓库实例
// 注入数据库连接，专注于数据访问操作
func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// CreatePermission 创建权限（纯数据访问）
// 直接将权限数据插入数据库，不包含业务逻辑验证
func (r *PermissionRepository) CreatePermission(ctx context.Context, permission *model.Permission) error {
	result := r.db.WithContext(ctx).Create(permission)
	return result.Error
}

// GetPermissionByID 根据ID获取权限
func (r *PermissionRepository) GetPermissionByID(ctx context.Context, id uint) (*model.Permission, error) {
	var permission model.Permission
	err := r.db.WithContext(ctx).First(&permission, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.LogError(fmt.Errorf("permission not found"), "", id, "", "permission_get", "GET", map[string]interface{}{
				"operation": "get_permission_by_id",
				"timestamp": logger.NowFormatted(),
			})
			return nil, nil
		}
		logger.LogError(err, "", id, "", "permission_get", "GET", map[string]interface{}{
			"operation": "get_permission_by_id",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return &permission, nil
}

// GetPermissionByName 根据名称获取权限
func (r *PermissionRepository) GetPermissionByName(ctx context.Context, name string) (*model.Permission, error) {
	var permission model.Permission
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&permission).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogError(err, "", 0, "", "permission_get", "GET", map[string]interface{}{
			"operation": "get_permission_by_name",
			"name":      name,
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return &permission, nil
}

// GetPermissionsByIDs 按ID批量获取权限
func (r *PermissionRepository) GetPermissionsByIDs(ctx context.Context, ids []uint) ([]*model.Permission, error) {
	if len(ids) == 0 {
		return []*model.Permission{}, nil
	}
	var permissions []*model.Permission
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&permissions).Error
	if err != nil {
		logger.LogError(err, "", 0, "", "permission_get", "GET", map[string]interface{}{
			"operation":      "get_permissions_by_ids",
			"permission_ids": ids,
			"timestamp":      logger.NowFormatted(),
		})
		return nil, err
	}
	return permissions, nil
}

// GetPermissionsByNames 按名称批量获取权限
func (r *PermissionRepository) GetPermissionsByNames(ctx context.Context, names []string) ([]*model.Permission, error) {
	if len(names) == 0 {
		return []*model.Permission{}, nil
	}
	var permissions []*model.Permission
	err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// GetAllPermissions 获取全部权限
// 按主键升序返回，展示树构建依赖稳定的输入顺序
func (r *PermissionRepository) GetAllPermissions(ctx context.Context) ([]*model.Permission, error) {
	var permissions []*model.Permission
	err := r.db.WithContext(ctx).Order("id ASC").Find(&permissions).Error
	if err != nil {
		logger.LogError(err, "", 0, "", "permission_get", "GET", map[string]interface{}{
			"operation": "get_all_permissions",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return permissions, nil
}

// UpdatePermission 更新权限信息
func (r *PermissionRepository) UpdatePermission(ctx context.Context, permission *model.Permission) error {
	permission.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(permission).Error; err != nil {
		logger.LogError(err, "", permission.ID, "", "permission_update", "PUT", map[string]interface{}{
			"operation": "update_permission",
			"name":      permission.Name,
			"timestamp": logger.NowFormatted(),
		})
		return err
	}
	return nil
}

// UpdatePermissionVersioned 带版本号的乐观锁更新
// 只有当数据库中的版本与期望版本一致时才更新，返回实际更新的行数
func (r *PermissionRepository) UpdatePermissionVersioned(ctx context.Context, permissionID uint, expectedVersion int64, fields map[string]interface{}) (int64, error) {
	fields["version"] = expectedVersion + 1
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Permission{}).
		Where("id = ? AND version = ?", permissionID, expectedVersion).
		Updates(fields)
	if result.Error != nil {
		logger.LogError(result.Error, "", permissionID, "", "permission_update", "PUT", map[string]interface{}{
			"operation":     "update_permission_versioned",
			"permission_id": permissionID,
			"version":       expectedVersion,
			"timestamp":     logger.NowFormatted(),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdatePermissionFields 使用 map 更新权限特定字段
func (r *PermissionRepository) UpdatePermissionFields(ctx context.Context, permissionID uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Permission{}).Where("id = ?", permissionID).Updates(fields).Error
}

// DeletePermission 删除权限
func (r *PermissionRepository) DeletePermission(ctx context.Context, permissionID uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Permission{}, permissionID)
	if result.Error != nil {
		logger.LogError(result.Error, "", permissionID, "", "permission_delete", "DELETE", map[string]interface{}{
			"operation": "delete_permission",
			"timestamp": logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}

// GetPermissionList 获取权限列表
func (r *PermissionRepository) GetPermissionList(ctx context.Context, offset, limit int) ([]*model.Permission, int64, error) {
	var permissions []*model.Permission
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.Permission{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("id ASC").Find(&permissions).Error; err != nil {
		return nil, 0, err
	}
	return permissions, total, nil
}

// PermissionExists 检查权限是否存在
func (r *PermissionRepository) PermissionExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Permission{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountChildren 统计权限的直接子节点数
// 删除保护判断依赖准确的子节点计数
func (r *PermissionRepository) CountChildren(ctx context.Context, permissionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Permission{}).Where("parent_id = ?", permissionID).Count(&count).Error
	if err != nil {
		logger.LogError(err, "", permissionID, "", "permission_count_children", "GET", map[string]interface{}{
			"operation":     "count_permission_children",
			"permission_id": permissionID,
			"timestamp":     logger.NowFormatted(),
		})
		return 0, err
	}
	return count, nil
}

// GetChildren 获取权限的直接子节点
func (r *PermissionRepository) GetChildren(ctx context.Context, permissionID uint) ([]*model.Permission, error) {
	var permissions []*model.Permission
	err := r.db.WithContext(ctx).Where("parent_id = ?", permissionID).Order("id ASC").Find(&permissions).Error
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// BeginTx 开始事务
func (r *PermissionRepository) BeginTx(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Begin()
}

// DeleteRolePermissionsByPermissionID 删除与指定权限关联的角色关系（事务版）
func (r *PermissionRepository) DeleteRolePermissionsByPermissionID(ctx context.Context, tx *gorm.DB, permissionID uint) error {
	result := tx.WithContext(ctx).Where("permission_id = ?", permissionID).Delete(&model.RolePermission{})
	if result.Error != nil {
		logger.LogError(result.Error, "", permissionID, "", "delete_role_permissions_by_permission", "DELETE", map[string]interface{}{
			"operation":     "delete_role_permissions_by_permission_id",
			"permission_id": permissionID,
			"timestamp":     logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}

// DeletePermissionWithTx 使用事务删除权限
func (r *PermissionRepository) DeletePermissionWithTx(ctx context.Context, tx *gorm.DB, permissionID uint) error {
	result := tx.WithContext(ctx).Delete(&model.Permission{}, permissionID)
	if result.Error != nil {
		logger.LogError(result.Error, "", permissionID, "", "delete_permission_with_tx", "DELETE", map[string]interface{}{
			"operation":     "delete_permission_with_transaction",
			"permission_id": permissionID,
			"timestamp":     logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}

// GetPermissionWithRoles 获取权限及其关联角色
func (r *PermissionRepository) GetPermissionWithRoles(ctx context.Context, permissionID uint) (*model.Permission, error) {
	var permission model.Permission
	if err := r.db.WithContext(ctx).Preload("Roles").First(&permission, permissionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &permission, nil
}

// GetPermissionRoles 获取权限关联的角色
func (r *PermissionRepository) GetPermissionRoles(ctx context.Context, permissionID uint) ([]*model.Role, error) {
	var permission model.Permission
	if err := r.db.WithContext(ctx).Preload("Roles").First(&permission, permissionID).Error; err != nil {
		return nil, err
	}
	roles := make([]*model.Role, len(permission.Roles))
	for i := range permission.Roles {
		roles[i] = &permission.Roles[i]
	}
	return roles, nil
}
