/**
 * 处理器:用户管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 用户管理接口(增删改查/角色分配/批量角色操作/权限查询)
 * @func:
 * 1.CreateUser / GetUsers / GetUser / UpdateUser / DeleteUser
 * 2.GetUserRoles / GetUserPermissions
 * 3.AssignUserRoles(幂等,无变更短路)
 * 4.BatchUserRoles(部分失败语义)
 */
package system

import (
	"errors"
	"net/http"
	"strings"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理处理器
type UserHandler struct {
	userService *authservice.UserService
	rbacService *authservice.RBACService
}

// NewUserHandler 创建用户管理处理器
func NewUserHandler(userService *authservice.UserService, rbacService *authservice.RBACService) *UserHandler {
	return &UserHandler{
		userService: userService,
		rbacService: rbacService,
	}
}

// userErrorStatusCode 根据错误内容映射HTTP状态码
func userErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUserAlreadyExists),
		errors.Is(err, model.ErrUsernameAlreadyExists),
		errors.Is(err, model.ErrEmailAlreadyExists):
		return http.StatusConflict
	case strings.Contains(err.Error(), "不能"),
		strings.Contains(err.Error(), "无效"),
		strings.Contains(err.Error(), "不存在"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateUser 创建用户
// @Summary 创建用户
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param request body model.CreateUserRequest true "创建用户请求"
// @Success 201 {object} model.APIResponse{data=model.User} "创建成功"
// @Router /api/v1/admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req model.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), &req)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "创建用户失败", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "用户创建成功", user)
}

// GetUsers 获取用户列表
// @Summary 用户列表
// @Tags 用户管理
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Success 200 {object} model.APIResponse{data=model.UserListResponse} "查询成功"
// @Router /api/v1/admin/users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	page, pageSize, offset := parsePaginationParams(c)

	users, total, err := h.userService.GetUserList(c.Request.Context(), offset, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取用户列表失败", err)
		return
	}

	list := make([]model.UserInfo, 0, len(users))
	for _, user := range users {
		if user == nil {
			continue
		}
		list = append(list, model.UserInfo{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			Nickname:    user.Nickname,
			Avatar:      user.Avatar,
			Phone:       user.Phone,
			IsAdmin:     user.IsAdmin,
			Status:      user.Status,
			LastLoginAt: user.LastLoginAt,
			CreatedAt:   user.CreatedAt,
			Remark:      user.Remark,
		})
	}

	respondSuccess(c, http.StatusOK, "查询成功", model.UserListResponse{
		Users:      list,
		Pagination: buildPagination(total, page, pageSize),
	})
}

// GetUser 获取单个用户(含角色与权限)
// @Summary 用户详情
// @Tags 用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse{data=model.User} "查询成功"
// @Router /api/v1/admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUserWithRolesAndPermissions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "获取用户失败", err)
		return
	}
	if user == nil {
		respondError(c, http.StatusNotFound, "用户不存在", nil)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", user)
}

// UpdateUser 更新用户
// @Summary 更新用户
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body model.UpdateUserRequest true "更新用户请求"
// @Success 200 {object} model.APIResponse{data=model.User} "更新成功"
// @Router /api/v1/admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "更新用户失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "用户更新成功", user)
}

// DeleteUser 删除用户
// @Summary 删除用户
// @Tags 用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse "删除成功"
// @Router /api/v1/admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, userErrorStatusCode(err), "删除用户失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "用户删除成功", nil)
}

// GetUserRoles 获取用户的角色列表
// @Summary 用户角色列表
// @Tags 用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse{data=[]model.Role} "查询成功"
// @Router /api/v1/admin/users/{id}/roles [get]
func (h *UserHandler) GetUserRoles(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roles, err := h.userService.GetUserRoles(c.Request.Context(), userID)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "获取用户角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", roles)
}

// GetUserPermissions 获取用户的有效权限名称列表
// 启用角色下启用权限的并集,管理员账户全量放行
// @Summary 用户有效权限
// @Tags 用户管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse{data=[]string} "查询成功"
// @Router /api/v1/admin/users/{id}/permissions [get]
func (h *UserHandler) GetUserPermissions(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permissions, err := h.rbacService.GetEffectivePermissions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "获取用户权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", permissions)
}

// AssignUserRoles 用户角色分配/移除
// 幂等操作:已持有/未持有的角色被静默跳过,计算后的变更集为空时不触发写入
// @Summary 分配用户角色
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param id path int true "用户ID"
// @Param request body model.AssignUserRolesRequest true "角色分配请求"
// @Success 200 {object} model.APIResponse "操作成功"
// @Router /api/v1/admin/users/{id}/roles [post]
func (h *UserHandler) AssignUserRoles(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.AssignUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	if err := h.userService.AssignUserRoles(c.Request.Context(), userID, req.RoleIDs, req.Operation); err != nil {
		respondError(c, userErrorStatusCode(err), "用户角色操作失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "用户角色操作成功", nil)
}

// BatchUserRoles 批量用户角色分配/移除
// 部分失败语义:逐用户应用,成功子集提交,失败项逐个返回原因
// @Summary 批量用户角色操作
// @Tags 用户管理
// @Accept json
// @Produce json
// @Param request body model.BatchUserRolesRequest true "批量角色操作请求"
// @Success 200 {object} model.APIResponse{data=model.BatchOperationResponse} "批量操作完成"
// @Router /api/v1/admin/users/batch/roles [post]
func (h *UserHandler) BatchUserRoles(c *gin.Context) {
	var req model.BatchUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	result, err := h.userService.BatchUserRoles(c.Request.Context(), req.UserIDs, req.RoleIDs, req.Operation)
	if err != nil {
		respondError(c, userErrorStatusCode(err), "批量用户角色操作失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "批量操作完成", result)
}
