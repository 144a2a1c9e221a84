/**
 * 处理器:权限管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 权限管理接口(增删改查/权限树/批量删除/关联查询)
 * @func:
 * 1.CreatePermission / GetPermissions / GetPermission / UpdatePermission / DeletePermission
 * 2.GetPermissionTree(支持q查询参数过滤)
 * 3.BatchDeletePermissions
 * 4.GetPermissionRoles / GetPermissionChildren
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

// PermissionHandler 权限管理处理器
type PermissionHandler struct {
	permissionService *authservice.PermissionService
}

// NewPermissionHandler 创建权限管理处理器
func NewPermissionHandler(permissionService *authservice.PermissionService) *PermissionHandler {
	return &PermissionHandler{
		permissionService: permissionService,
	}
}

// permissionErrorStatusCode 根据错误内容映射HTTP状态码
func permissionErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrPermissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, authservice.ErrVersionConflict):
		return http.StatusConflict
	case strings.Contains(err.Error(), "已存在"):
		return http.StatusConflict
	case strings.Contains(err.Error(), "系统权限"):
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

// CreatePermission 创建权限
// @Summary 创建权限
// @Tags 权限管理
// @Accept json
// @Produce json
// @Param request body model.CreatePermissionRequest true "创建权限请求"
// @Success 201 {object} model.APIResponse{data=model.Permission} "创建成功"
// @Router /api/v1/admin/permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req model.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	permission, err := h.permissionService.CreatePermission(c.Request.Context(), &req)
	if err != nil {
		respondError(c, permissionErrorStatusCode(err), "创建权限失败", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "权限创建成功", permission)
}

// GetPermissions 获取权限列表
// @Summary 权限列表
// @Tags 权限管理
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Success 200 {object} model.APIResponse{data=model.PermissionListResponse} "查询成功"
// @Router /api/v1/admin/permissions [get]
func (h *PermissionHandler) GetPermissions(c *gin.Context) {
	page, pageSize, offset := parsePaginationParams(c)

	permissions, total, err := h.permissionService.GetPermissionList(c.Request.Context(), offset, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取权限列表失败", err)
		return
	}

	list := make([]model.Permission, 0, len(permissions))
	for _, p := range permissions {
		if p != nil {
			list = append(list, *p)
		}
	}

	respondSuccess(c, http.StatusOK, "查询成功", model.PermissionListResponse{
		Permissions: list,
		Pagination:  buildPagination(total, page, pageSize),
	})
}

// GetPermissionTree 获取权限展示树(模块→资源→权限)
// q 查询参数非空时做大小写不敏感子串过滤
// @Summary 权限树
// @Tags 权限管理
// @Produce json
// @Param q query string false "过滤关键字"
// @Success 200 {object} model.APIResponse{data=[]model.TreeNode} "查询成功"
// @Router /api/v1/admin/permissions/tree [get]
func (h *PermissionHandler) GetPermissionTree(c *gin.Context) {
	tree, err := h.permissionService.GetPermissionTree(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取权限树失败", err)
		return
	}

	if query := c.Query("q"); query != "" {
		tree = authservice.FilterPermissionTree(query, tree)
	}

	respondSuccess(c, http.StatusOK, "查询成功", tree)
}

// GetPermission 获取单个权限
// @Summary 权限详情
// @Tags 权限管理
// @Produce json
// @Param id path int true "权限ID"
// @Success 200 {object} model.APIResponse{data=model.Permission} "查询成功"
// @Router /api/v1/admin/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	permissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	permission, err := h.permissionService.GetPermissionByID(c.Request.Context(), permissionID)
	if err != nil {
		respondError(c, permissionErrorStatusCode(err), "获取权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", permission)
}

// UpdatePermission 更新权限
// @Summary 更新权限
// @Tags 权限管理
// @Accept json
// @Produce json
// @Param id path int true "权限ID"
// @Param request body model.UpdatePermissionRequest true "更新权限请求"
// @Success 200 {object} model.APIResponse{data=model.Permission} "更新成功"
// @Router /api/v1/admin/permissions/{id} [put]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	permissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	permission, err := h.permissionService.UpdatePermissionByID(c.Request.Context(), permissionID, &req)
	if err != nil {
		respondError(c, permissionErrorStatusCode(err), "更新权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "权限更新成功", permission)
}

// DeletePermission 删除权限
// 存在子权限时拒绝,错误信息报告准确的子权限数量
// @Summary 删除权限
// @Tags 权限管理
// @Produce json
// @Param id path int true "权限ID"
// @Success 200 {object} model.APIResponse "删除成功"
// @Router /api/v1/admin/permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	permissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.permissionService.DeletePermission(c.Request.Context(), permissionID); err != nil {
		respondError(c, permissionErrorStatusCode(err), "删除权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "权限删除成功", nil)
}

// BatchDeletePermissions 批量删除权限
// @Summary 批量删除权限
// @Tags 权限管理
// @Accept json
// @Produce json
// @Param request body model.BatchDeleteRequest true "批量删除请求"
// @Success 200 {object} model.APIResponse{data=model.BatchOperationResponse} "批量删除完成"
// @Router /api/v1/admin/permissions/batch/delete [post]
func (h *PermissionHandler) BatchDeletePermissions(c *gin.Context) {
	var req model.BatchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}
	if len(req.IDs) == 0 {
		respondError(c, http.StatusBadRequest, "待删除ID列表不能为空", nil)
		return
	}

	result, err := h.permissionService.BatchDeletePermissions(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "批量删除权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "批量删除完成", result)
}

// GetPermissionRoles 获取引用该权限的角色列表
// @Summary 权限关联角色
// @Tags 权限管理
// @Produce json
// @Param id path int true "权限ID"
// @Success 200 {object} model.APIResponse{data=[]model.Role} "查询成功"
// @Router /api/v1/admin/permissions/{id}/roles [get]
func (h *PermissionHandler) GetPermissionRoles(c *gin.Context) {
	permissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	roles, err := h.permissionService.GetPermissionRoles(c.Request.Context(), permissionID)
	if err != nil {
		respondError(c, permissionErrorStatusCode(err), "获取权限关联角色失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", roles)
}

// GetPermissionChildren 获取权限的直接子权限
// @Summary 子权限列表
// @Tags 权限管理
// @Produce json
// @Param id path int true "权限ID"
// @Success 200 {object} model.APIResponse{data=[]model.Permission} "查询成功"
// @Router /api/v1/admin/permissions/{id}/children [get]
func (h *PermissionHandler) GetPermissionChildren(c *gin.Context) {
	permissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	children, err := h.permissionService.GetPermissionChildren(c.Request.Context(), permissionID)
	if err != nil {
		respondError(c, permissionErrorStatusCode(err), "获取子权限失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", children)
}
