/**
 * 模型:权限模型
 * @author: linkc
 * @date: 2025.12.03
 * @description: 权限数据模型，包含权限基本信息、资源操作定义、父子树形关系和角色关联
 * @func: Permission 结构体及相关方法
 */
package model

import (
	"time"
)

// Permission 权限模型
// 权限名称采用点分格式（如 user.view、model.provider.create），全局唯一
type Permission struct {
	ID          uint             `json:"id" gorm:"primaryKey;autoIncrement"`                            // 权限唯一标识ID，主键自增
	Name        string           `json:"name" gorm:"uniqueIndex;not null;size:100" validate:"required"` // 权限名称，点分格式，唯一索引
	DisplayName string           `json:"display_name" gorm:"size:100;comment:权限显示名称"`                   // 权限显示名称，用于前端展示
	Description string           `json:"description" gorm:"size:255;comment:权限描述信息"`                    // 权限描述信息，最大255字符
	Module      string           `json:"module" gorm:"size:50;comment:所属功能模块"`                          // 功能模块标识，如user、role、provider等
	Resource    string           `json:"resource" gorm:"size:100;comment:资源标识"`                         // 资源标识，如user、role、model等
	Action      string           `json:"action" gorm:"size:50;comment:操作标识"`                            // 操作标识，如view、create、update、delete等
	ParentID    *uint            `json:"parent_id" gorm:"index;comment:父权限ID"`                          // 父权限ID，可为空，构成权限树
	IsSystem    bool             `json:"is_system" gorm:"default:false;comment:是否系统权限"`                 // 系统权限不可删除、不可重命名
	Status      PermissionStatus `json:"status" gorm:"default:1;comment:状态1启用0禁用"`                      // 状态，默认1启用，0禁用
	Version     int64            `json:"version" gorm:"default:1;comment:乐观锁版本号"`                       // 乐观锁版本号，更新时校验并自增
	CreatedAt   time.Time        `json:"created_at"`                                                    // 创建时间，自动管理
	UpdatedAt   time.Time        `json:"updated_at"`                                                    // 更新时间，自动管理

	// 关联关系
	Roles []Role `json:"-" gorm:"many2many:role_permissions;"` // 拥有此权限的角色，多对多关系
}

// PermissionStatus 权限状态枚举
type PermissionStatus int

const (
	PermissionStatusDisabled PermissionStatus = 0 // 禁用状态
	PermissionStatusEnabled  PermissionStatus = 1 // 启用状态
)

// TableName 指定权限表名
func (Permission) TableName() string {
	return "permissions"
}

// GetFullName 获取权限的完整名称（资源:操作）
func (p *Permission) GetFullName() string {
	if p.Resource != "" && p.Action != "" {
		return p.Resource + ":" + p.Action
	}
	return p.Name
}

// IsActive 检查权限是否处于启用状态
func (p *Permission) IsActive() bool {
	return p.Status == PermissionStatusEnabled
}
