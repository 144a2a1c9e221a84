/*
 * 菜单配置仓库层:菜单可见性配置数据访问
 * @author: linkc
 * @date: 2025.12.03
 * @description: 单纯数据访问,不应该包含业务逻辑
 * @func:
 * 1.创建菜单配置
 * 2.更新菜单配置
 * 3.删除菜单配置
 * 4.菜单树查询与导入导出支持
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

// MenuConfigRepository 菜单配置仓库结构体
// 负责处理菜单可见性配置相关的数据访问，不包含业务逻辑
type MenuConfigRepository struct {
	db *gorm.DB // 数据库连接
}

// NewMenuConfigRepository 创建菜单配置仓库实例
func NewMenuConfigRepository(db *gorm.DB) *MenuConfigRepository {
	return &MenuConfigRepository{db: db}
}

// CreateMenuConfig 创建菜单配置（纯数据访问）
func (r *MenuConfigRepository) CreateMenuConfig(ctx context.Context, menu *model.MenuConfig) error {
	result := r.db.WithContext(ctx).Create(menu)
	return result.Error
}

// GetMenuConfigByID 根据ID获取菜单配置
func (r *MenuConfigRepository) GetMenuConfigByID(ctx context.Context, id uint) (*model.MenuConfig, error) {
	var menu model.MenuConfig
	err := r.db.WithContext(ctx).First(&menu, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.LogError(fmt.Errorf("menu config not found"), "", id, "", "menu_get", "GET", map[string]interface{}{
				"operation": "get_menu_config_by_id",
				"timestamp": logger.NowFormatted(),
			})
			return nil, nil
		}
		logger.LogError(err, "", id, "", "menu_get", "GET", map[string]interface{}{
			"operation": "get_menu_config_by_id",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return &menu, nil
}

// GetMenuConfigByKey 根据节点键获取菜单配置
func (r *MenuConfigRepository) GetMenuConfigByKey(ctx context.Context, key string) (*model.MenuConfig, error) {
	var menu model.MenuConfig
	err := r.db.WithContext(ctx).Where("node_key = ?", key).First(&menu).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.LogError(err, "", 0, "", "menu_get", "GET", map[string]interface{}{
			"operation": "get_menu_config_by_key",
			"node_key":  key,
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return &menu, nil
}

// GetAllMenuConfigs 获取全部菜单配置
// 按同级排序序号和主键升序返回，可见性评估与导出依赖稳定顺序
func (r *MenuConfigRepository) GetAllMenuConfigs(ctx context.Context) ([]*model.MenuConfig, error) {
	var menus []*model.MenuConfig
	err := r.db.WithContext(ctx).Order("sort_order ASC, id ASC").Find(&menus).Error
	if err != nil {
		logger.LogError(err, "", 0, "", "menu_get", "GET", map[string]interface{}{
			"operation": "get_all_menu_configs",
			"timestamp": logger.NowFormatted(),
		})
		return nil, err
	}
	return menus, nil
}

// GetMenuConfigList 分页获取菜单配置列表
func (r *MenuConfigRepository) GetMenuConfigList(ctx context.Context, offset, limit int) ([]*model.MenuConfig, int64, error) {
	var menus []*model.MenuConfig
	var total int64

	if err := r.db.WithContext(ctx).Model(&model.MenuConfig{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).Offset(offset).Limit(limit).Order("sort_order ASC, id ASC").Find(&menus).Error
	return menus, total, err
}

// UpdateMenuConfig 更新菜单配置
func (r *MenuConfigRepository) UpdateMenuConfig(ctx context.Context, menu *model.MenuConfig) error {
	menu.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(menu).Error; err != nil {
		logger.LogError(err, "", menu.ID, "", "menu_update", "PUT", map[string]interface{}{
			"operation": "update_menu_config",
			"node_key":  menu.Key,
			"timestamp": logger.NowFormatted(),
		})
		return err
	}
	return nil
}

// UpdateMenuConfigVersioned 带版本号的乐观锁更新
// 只有当数据库中的版本与期望版本一致时才更新，返回实际更新的行数
func (r *MenuConfigRepository) UpdateMenuConfigVersioned(ctx context.Context, menuID uint, expectedVersion int64, fields map[string]interface{}) (int64, error) {
	fields["version"] = expectedVersion + 1
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.MenuConfig{}).
		Where("id = ? AND version = ?", menuID, expectedVersion).
		Updates(fields)
	if result.Error != nil {
		logger.LogError(result.Error, "", menuID, "", "menu_update", "PUT", map[string]interface{}{
			"operation": "update_menu_config_versioned",
			"menu_id":   menuID,
			"version":   expectedVersion,
			"timestamp": logger.NowFormatted(),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateMenuConfigFields 使用 map 更新菜单配置特定字段
func (r *MenuConfigRepository) UpdateMenuConfigFields(ctx context.Context, menuID uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.MenuConfig{}).Where("id = ?", menuID).Updates(fields).Error
}

// DeleteMenuConfig 删除菜单配置
func (r *MenuConfigRepository) DeleteMenuConfig(ctx context.Context, menuID uint) error {
	result := r.db.WithContext(ctx).Delete(&model.MenuConfig{}, menuID)
	if result.Error != nil {
		logger.LogError(result.Error, "", menuID, "", "menu_delete", "DELETE", map[string]interface{}{
			"operation": "delete_menu_config",
			"timestamp": logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}

// MenuKeyExists 检查节点键是否存在
func (r *MenuConfigRepository) MenuKeyExists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MenuConfig{}).Where("node_key = ?", key).Count(&count).Error
	return count > 0, err
}

// CountChildrenByKey 统计指定节点键的直接子节点数
// 删除保护判断依赖准确的子节点计数
func (r *MenuConfigRepository) CountChildrenByKey(ctx context.Context, key string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MenuConfig{}).Where("parent_key = ?", key).Count(&count).Error
	if err != nil {
		logger.LogError(err, "", 0, "", "menu_count_children", "GET", map[string]interface{}{
			"operation": "count_menu_children",
			"node_key":  key,
			"timestamp": logger.NowFormatted(),
		})
		return 0, err
	}
	return count, nil
}

// BeginTx 开始事务
func (r *MenuConfigRepository) BeginTx(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Begin()
}

// CreateMenuConfigWithTx 事务内创建菜单配置
func (r *MenuConfigRepository) CreateMenuConfigWithTx(ctx context.Context, tx *gorm.DB, menu *model.MenuConfig) error {
	return tx.WithContext(ctx).Create(menu).Error
}

// UpdateMenuConfigWithTx 事务内更新菜单配置
func (r *MenuConfigRepository) UpdateMenuConfigWithTx(ctx context.Context, tx *gorm.DB, menu *model.MenuConfig) error {
	menu.UpdatedAt = time.Now()
	return tx.WithContext(ctx).Save(menu).Error
}

// DeleteMenuConfigWithTx 事务内删除菜单配置
func (r *MenuConfigRepository) DeleteMenuConfigWithTx(ctx context.Context, tx *gorm.DB, menuID uint) error {
	result := tx.WithContext(ctx).Delete(&model.MenuConfig{}, menuID)
	if result.Error != nil {
		logger.LogError(result.Error, "", menuID, "", "delete_menu_with_tx", "DELETE", map[string]interface{}{
			"operation": "delete_menu_config_with_transaction",
			"menu_id":   menuID,
			"timestamp": logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}

// DeleteAllMenuConfigsWithTx 事务内清空全部菜单配置
// replace策略导入时先清空再写入
func (r *MenuConfigRepository) DeleteAllMenuConfigsWithTx(ctx context.Context, tx *gorm.DB) error {
	result := tx.WithContext(ctx).Where("1 = 1").Delete(&model.MenuConfig{})
	if result.Error != nil {
		logger.LogError(result.Error, "", 0, "", "delete_all_menus", "DELETE", map[string]interface{}{
			"operation": "delete_all_menu_configs",
			"timestamp": logger.NowFormatted(),
		})
		return result.Error
	}
	return nil
}
