/**
 * 处理器:菜单配置管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 菜单配置接口(增删改查/菜单树/可见性预览/导入导出)
 * @func:
 * 1.CreateMenuConfig / GetMenuConfigs / GetMenuConfig / UpdateMenuConfig / DeleteMenuConfig
 * 2.GetMenuTree / GetVisibleMenuTree(当前用户视角)
 * 3.PreviewMenuPermissions
 * 4.ExportMenuConfigs / ImportMenuConfigs
 */
package system

import (
	"errors"
	"net/http"
	"strings"

	"openmaas/internal/model"
	menuservice "openmaas/internal/service/menu"

	"github.com/gin-gonic/gin"
)

// MenuHandler 菜单配置处理器
type MenuHandler struct {
	menuService       *menuservice.MenuService
	visibilityService *menuservice.VisibilityService
}

// NewMenuHandler 创建菜单配置处理器
func NewMenuHandler(menuService *menuservice.MenuService, visibilityService *menuservice.VisibilityService) *MenuHandler {
	return &MenuHandler{
		menuService:       menuService,
		visibilityService: visibilityService,
	}
}

// menuErrorStatusCode 根据错误内容映射HTTP状态码
func menuErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrMenuConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, menuservice.ErrMenuVersionConflict):
		return http.StatusConflict
	case strings.Contains(err.Error(), "已存在"),
		strings.Contains(err.Error(), "重复"):
		return http.StatusConflict
	case strings.Contains(err.Error(), "不能"),
		strings.Contains(err.Error(), "无效"),
		strings.Contains(err.Error(), "只能包含"),
		strings.Contains(err.Error(), "不存在"),
		strings.Contains(err.Error(), "必须"),
		strings.Contains(err.Error(), "删除失败"),
		strings.Contains(err.Error(), "校验失败"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CreateMenuConfig 创建菜单配置节点
// @Summary 创建菜单节点
// @Tags 菜单管理
// @Accept json
// @Produce json
// @Param request body model.CreateMenuConfigRequest true "创建菜单节点请求"
// @Success 201 {object} model.APIResponse{data=model.MenuConfig} "创建成功"
// @Router /api/v1/admin/menus [post]
func (h *MenuHandler) CreateMenuConfig(c *gin.Context) {
	var req model.CreateMenuConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	menu, err := h.menuService.CreateMenuConfig(c.Request.Context(), &req)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "创建菜单节点失败", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "菜单节点创建成功", menu)
}

// GetMenuConfigs 获取菜单配置列表
// @Summary 菜单配置列表
// @Tags 菜单管理
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页大小"
// @Success 200 {object} model.APIResponse "查询成功"
// @Router /api/v1/admin/menus [get]
func (h *MenuHandler) GetMenuConfigs(c *gin.Context) {
	page, pageSize, offset := parsePaginationParams(c)

	menus, total, err := h.menuService.GetMenuConfigList(c.Request.Context(), offset, pageSize)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取菜单配置列表失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", gin.H{
		"menus":      menus,
		"pagination": buildPagination(total, page, pageSize),
	})
}

// GetMenuTree 获取完整菜单树(管理视角,不做可见性过滤)
// @Summary 菜单树
// @Tags 菜单管理
// @Produce json
// @Success 200 {object} model.APIResponse{data=[]model.MenuTreeNode} "查询成功"
// @Router /api/v1/admin/menus/tree [get]
func (h *MenuHandler) GetMenuTree(c *gin.Context) {
	tree, err := h.menuService.GetMenuTree(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取菜单树失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", tree)
}

// GetVisibleMenuTree 获取当前用户视角下的可见菜单树
// @Summary 可见菜单树
// @Tags 菜单管理
// @Produce json
// @Success 200 {object} model.APIResponse{data=[]model.MenuTreeNode} "查询成功"
// @Router /api/v1/admin/menus/visible [get]
func (h *MenuHandler) GetVisibleMenuTree(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "未登录或会话已失效", nil)
		return
	}

	tree, err := h.visibilityService.GetVisibleMenuTreeForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "获取可见菜单树失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", tree)
}

// GetMenuConfig 获取单个菜单配置
// @Summary 菜单节点详情
// @Tags 菜单管理
// @Produce json
// @Param key path string true "节点键"
// @Success 200 {object} model.APIResponse{data=model.MenuConfig} "查询成功"
// @Router /api/v1/admin/menus/{key} [get]
func (h *MenuHandler) GetMenuConfig(c *gin.Context) {
	key := c.Param("key")

	menu, err := h.menuService.GetMenuConfigByKey(c.Request.Context(), key)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "获取菜单节点失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", menu)
}

// UpdateMenuConfig 更新菜单配置
// @Summary 更新菜单节点
// @Tags 菜单管理
// @Accept json
// @Produce json
// @Param key path string true "节点键"
// @Param request body model.UpdateMenuConfigRequest true "更新菜单节点请求"
// @Success 200 {object} model.APIResponse{data=model.MenuConfig} "更新成功"
// @Router /api/v1/admin/menus/{key} [put]
func (h *MenuHandler) UpdateMenuConfig(c *gin.Context) {
	key := c.Param("key")

	var req model.UpdateMenuConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	menu, err := h.menuService.UpdateMenuConfigByKey(c.Request.Context(), key, &req)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "更新菜单节点失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "菜单节点更新成功", menu)
}

// DeleteMenuConfig 删除菜单配置节点
// @Summary 删除菜单节点
// @Tags 菜单管理
// @Produce json
// @Param key path string true "节点键"
// @Success 200 {object} model.APIResponse "删除成功"
// @Router /api/v1/admin/menus/{key} [delete]
func (h *MenuHandler) DeleteMenuConfig(c *gin.Context) {
	key := c.Param("key")

	if err := h.menuService.DeleteMenuConfig(c.Request.Context(), key); err != nil {
		respondError(c, menuErrorStatusCode(err), "删除菜单节点失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "菜单节点删除成功", nil)
}

// PreviewMenuPermissions 预览指定节点子树在给定权限集下的可见性
// 请求体携带权限名称列表,返回 visible_menus / hidden_menus;
// 隐藏的父节点强制其全部后代隐藏
// @Summary 菜单可见性预览
// @Tags 菜单管理
// @Accept json
// @Produce json
// @Param key path string true "节点键"
// @Success 200 {object} model.APIResponse{data=model.MenuPreviewResponse} "预览成功"
// @Router /api/v1/admin/menus/{key}/preview [post]
func (h *MenuHandler) PreviewMenuPermissions(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Permissions []string `json:"permissions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	preview, err := h.visibilityService.PreviewMenuPermissions(c.Request.Context(), key, req.Permissions)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "菜单可见性预览失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "预览成功", preview)
}

// ExportMenuConfigs 导出全量菜单配置
// @Summary 导出菜单配置
// @Tags 菜单管理
// @Produce json
// @Success 200 {object} model.APIResponse{data=model.MenuConfigExport} "导出成功"
// @Router /api/v1/admin/menus/export [get]
func (h *MenuHandler) ExportMenuConfigs(c *gin.Context) {
	export, err := h.menuService.ExportMenuConfigs(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "导出菜单配置失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "导出成功", export)
}

// ImportMenuConfigs 导入菜单配置
// merge_strategy 取值 replace(清空后整体写入) / merge(按键更新并新增)
// @Summary 导入菜单配置
// @Tags 菜单管理
// @Accept json
// @Produce json
// @Param request body model.ImportMenuConfigRequest true "导入请求"
// @Success 200 {object} model.APIResponse{data=model.ImportMenuConfigResponse} "导入成功"
// @Router /api/v1/admin/menus/import [post]
func (h *MenuHandler) ImportMenuConfigs(c *gin.Context) {
	var req model.ImportMenuConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "请求体格式错误", err)
		return
	}

	result, err := h.menuService.ImportMenuConfigs(c.Request.Context(), &req)
	if err != nil {
		respondError(c, menuErrorStatusCode(err), "导入菜单配置失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "导入成功", result)
}
