/**
 * 处理器:令牌刷新
 * @author: linkc
 * @date: 2025.12.03
 * @description: 刷新接口,以有效刷新令牌换取新令牌对
 * @func: RefreshToken
 */
package auth

import (
	"net/http"
	"strings"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// RefreshHandler 令牌刷新接口处理器
type RefreshHandler struct {
	sessionService *authservice.SessionService
}

// NewRefreshHandler 创建令牌刷新处理器实例
func NewRefreshHandler(sessionService *authservice.SessionService) *RefreshHandler {
	return &RefreshHandler{
		sessionService: sessionService,
	}
}

// validateRefreshRequest 验证刷新令牌请求参数
func (h *RefreshHandler) validateRefreshRequest(req *model.RefreshTokenRequest) error {
	if req.RefreshToken == "" {
		return &model.ValidationError{Field: "refresh_token", Message: "刷新令牌不能为空"}
	}

	if len(req.RefreshToken) < 10 {
		return &model.ValidationError{Field: "refresh_token", Message: "刷新令牌格式无效"}
	}

	return nil
}

// getErrorStatusCode 根据错误类型获取HTTP状态码
func (h *RefreshHandler) getErrorStatusCode(err error) int {
	errorMsg := err.Error()
	switch {
	case strings.Contains(errorMsg, "invalid refresh token"):
		return http.StatusUnauthorized
	case strings.Contains(errorMsg, "token is expired"):
		return http.StatusUnauthorized
	case strings.Contains(errorMsg, "用户已被禁用"):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// RefreshToken 刷新访问令牌接口
// @Summary 刷新令牌
// @Description 使用刷新令牌换取新的访问令牌和刷新令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body model.RefreshTokenRequest true "刷新令牌请求"
// @Success 200 {object} model.APIResponse{data=model.RefreshTokenResponse} "刷新成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Failure 401 {object} model.APIResponse "刷新令牌无效或已过期"
// @Router /api/v1/auth/refresh [post]
func (h *RefreshHandler) RefreshToken(c *gin.Context) {
	// 解析请求体
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "请求体格式错误",
			Error:   err.Error(),
		})
		return
	}

	// 验证请求参数
	if err := h.validateRefreshRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "参数验证失败",
			Error:   err.Error(),
		})
		return
	}

	// 执行令牌刷新
	resp, err := h.sessionService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		statusCode := h.getErrorStatusCode(err)
		c.JSON(statusCode, model.APIResponse{
			Code:    statusCode,
			Status:  "error",
			Message: "令牌刷新失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "令牌刷新成功",
		Data:    resp,
	})
}
