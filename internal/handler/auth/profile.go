/**
 * 处理器:当前用户信息与密码管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 当前用户信息查询、密码修改与管理员密码重置接口
 * @func: GetProfile / ChangePassword / ResetPassword
 */
package auth

import (
	"net/http"
	"strconv"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// ProfileHandler 当前用户信息处理器
type ProfileHandler struct {
	userService     *authservice.UserService
	passwordService *authservice.PasswordService
}

// NewProfileHandler 创建当前用户信息处理器实例
func NewProfileHandler(userService *authservice.UserService, passwordService *authservice.PasswordService) *ProfileHandler {
	return &ProfileHandler{
		userService:     userService,
		passwordService: passwordService,
	}
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Description 返回当前登录用户的详细信息，包含角色和有效权限
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.APIResponse{data=model.UserInfo} "获取成功"
// @Failure 401 {object} model.APIResponse "未认证"
// @Router /api/v1/user/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	token := extractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, model.APIResponse{
			Code:    http.StatusUnauthorized,
			Status:  "error",
			Message: "未携带有效的访问令牌",
		})
		return
	}

	info, err := h.userService.GetCurrentUserInfo(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "error",
			Message: "获取用户信息失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "获取成功",
		Data:    info,
	})
}

// ChangePassword 修改当前用户密码
// @Summary 修改密码
// @Description 修改当前用户密码，成功后所有会话失效需重新登录
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.ChangePasswordRequest true "修改密码请求"
// @Success 200 {object} model.APIResponse "修改成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Failure 401 {object} model.APIResponse "未认证"
// @Router /api/v1/user/change-password [post]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID := currentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, model.APIResponse{
			Code:    http.StatusUnauthorized,
			Status:  "error",
			Message: "未登录或会话已失效",
		})
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "请求体格式错误",
			Error:   err.Error(),
		})
		return
	}

	if err := h.passwordService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "密码修改失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "密码修改成功,请重新登录",
	})
}

// ResetPassword 管理员重置用户密码
// @Summary 重置用户密码
// @Description 管理员重置指定用户的密码，该用户所有会话失效
// @Tags 管理员
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse "重置成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Router /api/v1/admin/users/{id}/reset-password [post]
func (h *ProfileHandler) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "ID参数无效",
		})
		return
	}

	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "请求体格式错误",
			Error:   err.Error(),
		})
		return
	}

	if err := h.passwordService.ResetPassword(c.Request.Context(), uint(id), req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "密码重置失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "密码重置成功",
	})
}

// currentUserID 从Gin上下文提取已认证用户ID
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint); ok2 {
			return id
		}
	}
	return 0
}
