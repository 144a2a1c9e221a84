/**
 * 模型:菜单配置模型
 * @author: linkc
 * @date: 2025.12.03
 * @description: 菜单/路由可见性配置模型，树形节点，每个节点声明所需权限列表与组合规则
 * @func: MenuConfig 结构体及相关方法
 */
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// NodeType 树节点类型枚举（封闭集合，避免裸字符串分发）
type NodeType string

const (
	NodeTypeModule     NodeType = "module"     // 功能模块节点
	NodeTypeResource   NodeType = "resource"   // 资源节点
	NodeTypeMenu       NodeType = "menu"       // 菜单节点，必须携带菜单路径
	NodeTypeButton     NodeType = "button"     // 按钮节点
	NodeTypeTab        NodeType = "tab"        // 标签页节点
	NodeTypeSection    NodeType = "section"    // 区块节点
	NodeTypePermission NodeType = "permission" // 权限叶子节点（权限树展示用）
)

// Valid 检查节点类型是否为已知类型
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeModule, NodeTypeResource, NodeTypeMenu, NodeTypeButton, NodeTypeTab, NodeTypeSection, NodeTypePermission:
		return true
	}
	return false
}

// PermissionLogic 权限组合规则枚举
type PermissionLogic string

const (
	PermissionLogicAND PermissionLogic = "AND" // 要求所需权限全部满足
	PermissionLogicOR  PermissionLogic = "OR"  // 要求所需权限至少满足一个
)

// StringList 字符串列表，以JSON形式存储在单列中
type StringList []string

// Value 实现 driver.Valuer，序列化为JSON字节
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner，从JSON字节反序列化
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for StringList")
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(data, l)
}

// MenuConfig 菜单配置模型
// parent_key 必须引用已存在节点或为空；menu 类型节点要求非空 menu_path
type MenuConfig struct {
	ID                  uint            `json:"id" gorm:"primaryKey;autoIncrement"`                        // 节点唯一标识ID，主键自增
	Key                 string          `json:"key" gorm:"uniqueIndex;not null;size:100;column:node_key"`  // 节点键，字母开头，字母数字下划线连字符
	DisplayName         string          `json:"display_name" gorm:"size:100"`                              // 节点显示名称
	NodeType            NodeType        `json:"type" gorm:"size:20;not null;comment:节点类型"`                 // 节点类型枚举
	ParentKey           string          `json:"parent_key" gorm:"size:100;index;comment:父节点键,空为根节点"`       // 父节点键，构成菜单树
	MenuPath            string          `json:"menu_path" gorm:"size:255;comment:前端路由路径,menu类型必填"`         // 菜单路由路径
	RequiredPermissions StringList      `json:"required_permissions" gorm:"type:text;comment:所需权限名称列表"`    // 所需权限名称列表（JSON存储）
	PermissionLogic     PermissionLogic `json:"permission_logic" gorm:"size:10;default:AND;comment:组合规则"`  // AND要求全部满足，OR要求任一满足
	IsVisible           bool            `json:"is_visible" gorm:"default:true;comment:是否参与展示"`             // 配置级可见开关，false时节点直接隐藏
	SortOrder           int             `json:"sort_order" gorm:"default:0;comment:同级排序序号"`                // 同级排序，升序
	Version             int64           `json:"version" gorm:"default:1;comment:乐观锁版本号"`                   // 乐观锁版本号，更新时校验并自增
	CreatedAt           time.Time       `json:"created_at"`                                                // 创建时间，自动管理
	UpdatedAt           time.Time       `json:"updated_at"`                                                // 更新时间，自动管理
}

// TableName 指定菜单配置表名
func (MenuConfig) TableName() string {
	return "menu_configs"
}

// IsRoot 检查是否为根节点
func (m *MenuConfig) IsRoot() bool {
	return m.ParentKey == ""
}

// RequiresMenuPath 检查该节点类型是否要求菜单路径
func (m *MenuConfig) RequiresMenuPath() bool {
	return m.NodeType == NodeTypeMenu
}
