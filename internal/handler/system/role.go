/**
 * 处理器:角色管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 角色管理接口(增删改查/状态切换/权限绑定/批量删除)
 * @func:
 * 1.CreateRole / GetRoles / GetRole / UpdateRole / DeleteRole
 * 2.BatchDeleteRoles
 * 3.GetRolePermissions / ReplaceRolePermissions
 * 4.ActivateRole / DeactivateRole
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

// RoleHandler 角色管理处理器
type RoleHandler struct {
	roleService *authservice.RoleService
}

// NewRoleHandler 创建角色管理处理器
func NewRoleHandler(roleService *authservice.RoleService) *RoleHandler {
	return &RoleHandler{
		roleService: roleService,
	}
}

// roleErrorStatusCode 根据错误内容映射HTTP状态码
func roleErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrRoleNotFound):
		return http.StatusNotFound
	case errors.Is(err, authservice.ErrVersionConflict):
		return http.StatusConflict
	case strings.Contains(err.Error(), "已存在"):
		return http.StatusConflict
	case strings.Contains(err.Error(), "系统角色"):
		return http.StatusForbidden
	case strings.Contains(err.Error(), "不能"),
		strings.Contains(err.Error(), "无效"),
		strings.Contains(err.Error(), "只能包含"),
		strings.Contains(err.Error(), "不存在"),
		strings.Contains(err.Error(), "删除失败"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateRole 创建角色
// @Summary 创建角色
// @Tags 角色管理
// @Accept json
// @Produce json
// @Param request body model.CreateRoleRequest true "创建角色请求"
// @Success 201 {object} model.APIResponse{data=model.Role} "创建成功"
// @Router /api/v1/admin/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req model.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), &req)
	if err != nil {
		respondError(c, roleErrorStatusCode(err), "创建角色失败", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "角色创建成功", role)
}

// GetRoles 获取角色列表
// @Summary 角色列表
// @Tags 角色管理
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Success 200 {object} model.APIResponse{data=model.RoleListResponse} "查询成功"
// @Router /api/v1/admin/roles [get]
func (h *RoleHandler) GetRoles(c *gin.Context) {
	page, pageSize, offset := parsePaginationParams(c)

	roles, total, err := h.roleService.GetRoleList(c.Request.Context(), offset, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取角色列表失败", err)
		return
	}

	list := make([]model.Role, 0, len(roles))
	for _, role := range roles {
		if role != nil {
			list = append(list, *role)
		}
	}

	respondSuccess(c, http.StatusOK, "查询成功", model.RoleListResponse{
		Roles:      list,
		Pagination: buildPagination(total, page, pageSize),
	})
}

// GetRole 获取单个角色(含权限)
// @Summary 角色详情
// @Tags 角色管理
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse{data=model.Role} "查询成功"
// @Router /api/v1/admin/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	role, err := h.roleService.GetRoleWithPermissions(c.Request.Context(), roleID)
	if err != nil {
		respondError(c, roleErrorStatusCode(err), "获取角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", role)
}

// UpdateRole 更新角色
// @Summary 更新角色
// @Tags 角色管理
// @Accept json
// @Produce json
// @Param id path int true "角色ID"
// @Param request body model.UpdateRoleRequest true "更新角色请求"
// @Success 200 {object} model.APIResponse{data=model.Role} "更新成功"
// @Router /api/v1/admin/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	role, err := h.roleService.UpdateRoleByID(c.Request.Context(), roleID, &req)
	if err != nil {
		respondError(c, roleErrorStatusCode(err), "更新角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "角色更新成功", role)
}

// DeleteRole 删除角色
// @Summary 删除角色
// @Tags 角色管理
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse "删除成功"
// @Router /api/v1/admin/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), roleID); err != nil {
		respondError(c, roleErrorStatusCode(err), "删除角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "角色删除成功", nil)
}

// BatchDeleteRoles 批量删除角色
// 部分失败语义:成功子集提交,失败项逐个返回原因
// @Summary 批量删除角色
// @Tags 角色管理
// @Accept json
// @Produce json
// @Param request body model.BatchDeleteRequest true "批量删除请求"
// @Success 200 {object} model.APIResponse{data=model.BatchOperationResponse} "批量删除完成"
// @Router /api/v1/admin/roles/batch/delete [post]
func (h *RoleHandler) BatchDeleteRoles(c *gin.Context) {
	var req model.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "待删除ID列表不能为空", nil)
		return
	}

	result, err := h.roleService.BatchDeleteRoles(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "批量删除角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "批量删除完成", result)
}

// GetRolePermissions 获取角色的权限列表
// @Summary 角色权限列表
// @Tags 角色管理
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse{data=[]model.Permission} "查询成功"
// @Router /api/v1/admin/roles/{id}/permissions [get]
func (h *RoleHandler) GetRolePermissions(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permissions, err := h.roleService.GetRolePermissions(c.Request.Context(), roleID)
	if err != nil {
		respondError(c, roleErrorStatusCode(err), "获取角色权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", permissions)
}

// ReplaceRolePermissions 整体替换角色的权限集合
// @Summary 替换角色权限
// @Tags 角色管理
// @Accept json
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse "替换成功"
// @Router /api/v1/admin/roles/{id}/permissions [put]
func (h *RoleHandler) ReplaceRolePermissions(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PermissionIDs []uint `json:"permission_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	if err := h.roleService.ReplaceRolePermissions(c.Request.Context(), roleID, req.PermissionIDs); err != nil {
		respondError(c, roleErrorStatusCode(err), "替换角色权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "角色权限替换成功", nil)
}

// ActivateRole 启用角色
// @Summary 启用角色
// @Tags 角色管理
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse "启用成功"
// @Router /api/v1/admin/roles/{id}/activate [post]
func (h *RoleHandler) ActivateRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.ActivateRole(c.Request.Context(), roleID); err != nil {
		respondError(c, roleErrorStatusCode(err), "启用角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "角色已启用", nil)
}

// DeactivateRole 禁用角色
// @Summary 禁用角色
// @Tags 角色管理
// @Produce json
// @Param id path int true "角色ID"
// @Success 200 {object} model.APIResponse "禁用成功"
// @Router /api/v1/admin/roles/{id}/deactivate [post]
func (h *RoleHandler) DeactivateRole(c *gin.Context) {
	roleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.roleService.DeactivateRole(c.Request.Context(), roleID); err != nil {
		respondError(c, roleErrorStatusCode(err), "禁用角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "角色已禁用", nil)
}
