/**
 * 模型:响应模型
 * @author: linkc
 * @date: 2025.12.03
 * @description: API响应数据模型，包含各种业务操作的响应结构体
 * @func: 各种Response结构体定义
 */
package model

import (
	"time"
)

// LoginResponse 登录响应结构
type LoginResponse struct {
	User         *User  `json:"user"`          // 用户信息
	AccessToken  string `json:"access_token"`  // 访问令牌
	RefreshToken string `json:"refresh_token"` // 刷新令牌
	ExpiresIn    int64  `json:"expires_in"`    // 令牌过期时间（秒）
}

// RefreshTokenResponse 刷新令牌响应结构
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`  // 新的访问令牌
	RefreshToken string `json:"refresh_token"` // 新的刷新令牌
	ExpiresIn    int64  `json:"expires_in"`    // 令牌过期时间（秒）
	TokenType    string `json:"token_type"`    // 令牌类型，通常为"Bearer"
}

// RegisterResponse 用户注册响应结构
type RegisterResponse struct {
	User    *UserInfo `json:"user"`    // 用户信息
	Message string    `json:"message"` // 注册成功消息
}

// UserInfo 用户信息响应结构
type UserInfo struct {
	ID          uint       `json:"id"`            // 用户ID
	Username    string     `json:"username"`      // 用户名
	Email       string     `json:"email"`         // 邮箱地址
	Nickname    string     `json:"nickname"`      // 用户昵称
	Avatar      string     `json:"avatar"`        // 用户头像URL
	Phone       string     `json:"phone"`         // 手机号码
	IsAdmin     bool       `json:"is_admin"`      // 管理员标记
	Status      UserStatus `json:"status"`        // 用户状态
	LastLoginAt *time.Time `json:"last_login_at"` // 最后登录时间
	CreatedAt   time.Time  `json:"created_at"`    // 创建时间
	Roles       []string   `json:"roles"`         // 用户角色名称列表
	Permissions []string   `json:"permissions"`   // 用户有效权限名称列表
	Remark      string     `json:"remark"`        // 备注
}

// APIResponse 通用API响应结构
type APIResponse struct {
	Code    int         `json:"code,omitempty"`  // 响应状态码，可选
	Status  string      `json:"status"`          // 响应状态："success" 或 "error"
	Message string      `json:"message"`         // 响应消息
	Data    interface{} `json:"data,omitempty"`  // 响应数据，可选
	Error   string      `json:"error,omitempty"` // 错误信息，可选
}

// PaginationResponse 分页响应结构
type PaginationResponse struct {
	Total       int64 `json:"total"`        // 总记录数
	Page        int   `json:"page"`         // 当前页码
	PageSize    int   `json:"page_size"`    // 每页大小
	TotalPages  int   `json:"total_pages"`  // 总页数
	HasNext     bool  `json:"has_next"`     // 是否有下一页
	HasPrevious bool  `json:"has_previous"` // 是否有上一页
}

// UserListResponse 用户列表响应结构
type UserListResponse struct {
	Users      []UserInfo          `json:"users"`                // 用户列表
	Pagination *PaginationResponse `json:"pagination,omitempty"` // 分页信息，可选
}

// RoleListResponse 角色列表响应结构
type RoleListResponse struct {
	Roles      []Role              `json:"roles"`                // 角色列表
	Pagination *PaginationResponse `json:"pagination,omitempty"` // 分页信息，可选
}

// PermissionListResponse 权限列表响应结构
type PermissionListResponse struct {
	Permissions []Permission        `json:"permissions"`          // 权限列表
	Pagination  *PaginationResponse `json:"pagination,omitempty"` // 分页信息，可选
}

// BatchOperationResponse 批量操作响应结构
// 部分失败语义：成功子集提交，失败项逐个列出原因
type BatchOperationResponse struct {
	SuccessIDs   []uint            `json:"success_ids"`   // 成功处理的ID列表
	FailedIDs    []uint            `json:"failed_ids"`    // 处理失败的ID列表
	FailedReason map[uint]string   `json:"failed_reason"` // 失败原因明细，键为失败ID
	SuccessCount int               `json:"success_count"` // 成功数量
	FailedCount  int               `json:"failed_count"`  // 失败数量
}

// TreeNode 展示树节点结构
// 权限目录的三级展示树（模块→资源→权限）与菜单树共用
type TreeNode struct {
	ID          uint        `json:"id,omitempty"`           // 节点ID，合成节点为0
	Key         string      `json:"key"`                    // 节点键，合成节点使用分组键
	Name        string      `json:"name"`                   // 节点名称
	DisplayName string      `json:"display_name,omitempty"` // 节点显示名称
	Description string      `json:"description,omitempty"`  // 节点描述
	NodeType    NodeType    `json:"type"`                   // 节点类型
	Children    []*TreeNode `json:"children,omitempty"`     // 子节点列表，保持输入首见顺序
}

// MenuTreeNode 菜单树节点结构
// 由扁平菜单配置按 parent_key 组装,同级按 sort_order 升序排列
type MenuTreeNode struct {
	Key                 string          `json:"key"`                            // 节点键
	DisplayName         string          `json:"display_name,omitempty"`         // 节点显示名称
	NodeType            NodeType        `json:"type"`                           // 节点类型
	MenuPath            string          `json:"menu_path,omitempty"`            // 菜单路径
	RequiredPermissions []string        `json:"required_permissions,omitempty"` // 所需权限名称列表
	PermissionLogic     PermissionLogic `json:"permission_logic"`               // 组合规则
	IsVisible           bool            `json:"is_visible"`                     // 配置级可见开关
	SortOrder           int             `json:"sort_order"`                     // 同级排序序号
	Children            []*MenuTreeNode `json:"children,omitempty"`             // 子节点列表
}

// MenuConfigNode 菜单配置导入导出节点结构
type MenuConfigNode struct {
	Key                 string          `json:"key"`                  // 节点键
	DisplayName         string          `json:"display_name"`         // 节点显示名称
	NodeType            NodeType        `json:"type"`                 // 节点类型
	ParentKey           string          `json:"parent_key"`           // 父节点键
	MenuPath            string          `json:"menu_path"`            // 菜单路径
	RequiredPermissions []string        `json:"required_permissions"` // 所需权限名称列表
	PermissionLogic     PermissionLogic `json:"permission_logic"`     // 组合规则
	IsVisible           bool            `json:"is_visible"`           // 可见开关
	SortOrder           int             `json:"sort_order"`           // 同级排序序号
}

// MenuConfigExport 菜单配置导出文档结构
type MenuConfigExport struct {
	ExportedAt time.Time        `json:"exported_at"` // 导出时间
	Nodes      []MenuConfigNode `json:"nodes"`       // 全量节点列表
}

// MenuPreviewResponse 菜单可见性预览响应结构
// 隐藏的父节点会强制其全部后代隐藏（父隐子隐策略）
type MenuPreviewResponse struct {
	VisibleKeys []string `json:"visible_menus"` // 可见节点键列表
	HiddenKeys  []string `json:"hidden_menus"`  // 隐藏节点键列表
}

// ImportMenuConfigResponse 菜单配置导入响应结构
type ImportMenuConfigResponse struct {
	Created int `json:"created"` // 新建节点数
	Updated int `json:"updated"` // 更新节点数
	Removed int `json:"removed"` // 删除节点数（replace策略）
}
