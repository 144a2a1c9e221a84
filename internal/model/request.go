/**
 * 模型:请求模型
 * @author: linkc
 * @date: 2025.12.03
 * @description: API请求数据模型，包含各种业务操作的请求结构体
 * @func: 各种Request结构体定义
 */
package model

// LoginRequest 登录请求结构
type LoginRequest struct {
	Username string `json:"username" validate:"required"` // 用户名，必填
	Password string `json:"password" validate:"required"` // 密码，必填
}

// RefreshTokenRequest 刷新令牌请求结构
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"` // 刷新令牌，必填
}

// RegisterRequest 用户注册请求结构
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"` // 用户名，必填，3-50字符
	Email    string `json:"email" validate:"required,email"`           // 邮箱地址，必填
	Password string `json:"password" validate:"required,min=6"`        // 密码，必填，最少6字符
	Nickname string `json:"nickname"`                                  // 用户昵称，可选
	Phone    string `json:"phone"`                                     // 手机号码，可选
}

// CreateUserRequest 创建用户请求结构
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"` // 用户名，必填，3-50字符
	Email    string `json:"email" validate:"required,email"`           // 邮箱地址，必填
	Password string `json:"password" validate:"required,min=6"`        // 密码，必填，最少6字符
	Nickname string `json:"nickname"`                                  // 用户昵称，可选
	Phone    string `json:"phone"`                                     // 手机号码，可选
	RoleIDs  []uint `json:"role_ids"`                                  // 角色ID列表，可选
	Remark   string `json:"remark"`                                    // 用户备注，可选
}

// UpdateUserRequest 更新用户请求结构 【userID 不许修改，其他字段可选】
type UpdateUserRequest struct {
	Username string      `json:"username" validate:"omitempty,min=3,max=50"` // 用户名，可选
	Nickname string      `json:"nickname"`                                   // 用户昵称，可选
	Email    string      `json:"email" validate:"omitempty,email"`           // 邮箱地址，可选
	Phone    string      `json:"phone"`                                      // 手机号码，可选
	Password string      `json:"password" validate:"omitempty,min=6"`        // 密码，可选
	Status   *UserStatus `json:"status"`                                     // 用户状态，可选，指针区分零值和未设置
	Avatar   string      `json:"avatar"`                                     // 用户头像，可选
	RoleIDs  []uint      `json:"role_ids"`                                   // 角色ID列表，可选(角色修改单独处理)
	Remark   string      `json:"remark"`                                     // 用户备注，可选
}

// ChangePasswordRequest 修改密码请求结构
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`       // 旧密码，必填
	NewPassword string `json:"new_password" validate:"required,min=6"` // 新密码，必填，最少6字符
}

// CreateRoleRequest 创建角色请求结构
type CreateRoleRequest struct {
	Name          string `json:"name" validate:"required"` // 角色名称，必填，字母开头仅限字母数字下划线
	DisplayName   string `json:"display_name"`             // 角色显示名称，可选
	Description   string `json:"description"`              // 角色描述，可选
	PermissionIDs []uint `json:"permission_ids"`           // 权限ID列表，可选
}

// UpdateRoleRequest 更新角色请求结构
type UpdateRoleRequest struct {
	Name          string      `json:"name"`           // 角色名称，可选
	DisplayName   string      `json:"display_name"`   // 角色显示名称，可选
	Description   string      `json:"description"`    // 角色描述，可选
	Status        *RoleStatus `json:"status"`         // 角色状态，可选，指针区分零值和未设置
	PermissionIDs []uint      `json:"permission_ids"` // 权限ID列表，可选
	Version       int64       `json:"version"`        // 乐观锁版本号，非0时参与冲突校验
}

// CreatePermissionRequest 创建权限请求结构
type CreatePermissionRequest struct {
	Name        string `json:"name" validate:"required"` // 权限名称，必填，点分格式
	DisplayName string `json:"display_name"`             // 权限显示名称，可选
	Description string `json:"description"`              // 权限描述，可选
	Module      string `json:"module"`                   // 功能模块标识，可选
	Resource    string `json:"resource"`                 // 资源标识，可选
	Action      string `json:"action"`                   // 操作标识，可选
	ParentID    *uint  `json:"parent_id"`                // 父权限ID，可选
}

// UpdatePermissionRequest 更新权限请求结构
type UpdatePermissionRequest struct {
	Name        string            `json:"name"`         // 权限名称，可选（系统权限不可重命名）
	DisplayName string            `json:"display_name"` // 权限显示名称，可选
	Description string            `json:"description"`  // 权限描述，可选
	Module      string            `json:"module"`       // 功能模块标识，可选
	Resource    string            `json:"resource"`     // 资源标识，可选
	Action      string            `json:"action"`       // 操作标识，可选
	Status      *PermissionStatus `json:"status"`       // 权限状态，可选
	Version     int64             `json:"version"`      // 乐观锁版本号，非0时参与冲突校验
}

// AssignUserRolesRequest 用户角色分配请求结构
// operation 取值 assign / unassign
type AssignUserRolesRequest struct {
	RoleIDs   []uint `json:"role_ids" validate:"required"`                         // 角色ID列表，必填
	Operation string `json:"operation" validate:"required,oneof=assign unassign"` // 操作类型
}

// BatchUserRolesRequest 批量用户角色分配请求结构
type BatchUserRolesRequest struct {
	UserIDs   []uint `json:"user_ids" validate:"required"`                         // 用户ID列表，必填
	RoleIDs   []uint `json:"role_ids" validate:"required"`                         // 角色ID列表，必填
	Operation string `json:"operation" validate:"required,oneof=assign unassign"` // 操作类型
}

// BatchDeleteRequest 批量删除请求结构
type BatchDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required"` // 待删除ID列表，必填
}

// CreateMenuConfigRequest 创建菜单配置请求结构
type CreateMenuConfigRequest struct {
	Key                 string          `json:"key" validate:"required"`  // 节点键，必填
	DisplayName         string          `json:"display_name"`             // 节点显示名称，可选
	NodeType            NodeType        `json:"type" validate:"required"` // 节点类型，必填
	ParentKey           string          `json:"parent_key"`               // 父节点键，可选，空为根节点
	MenuPath            string          `json:"menu_path"`                // 菜单路径，menu类型必填
	RequiredPermissions []string        `json:"required_permissions"`     // 所需权限名称列表，可选
	PermissionLogic     PermissionLogic `json:"permission_logic"`         // 组合规则，默认AND
	SortOrder           int             `json:"sort_order"`               // 同级排序序号，可选
}

// UpdateMenuConfigRequest 更新菜单配置请求结构
type UpdateMenuConfigRequest struct {
	DisplayName         string           `json:"display_name"`         // 节点显示名称，可选
	MenuPath            string           `json:"menu_path"`            // 菜单路径，可选
	RequiredPermissions *[]string        `json:"required_permissions"` // 所需权限名称列表，指针区分未设置
	PermissionLogic     *PermissionLogic `json:"permission_logic"`     // 组合规则，可选
	IsVisible           *bool            `json:"is_visible"`           // 可见开关，可选
	SortOrder           *int             `json:"sort_order"`           // 同级排序序号，可选
	Version             int64            `json:"version"`              // 乐观锁版本号，非0时参与冲突校验
}

// ImportMenuConfigRequest 菜单配置导入请求结构
// merge_strategy 取值 replace / merge
type ImportMenuConfigRequest struct {
	MergeStrategy string           `json:"merge_strategy" validate:"required,oneof=replace merge"` // 合并策略
	Nodes         []MenuConfigNode `json:"nodes" validate:"required"`                              // 导入节点列表
}
