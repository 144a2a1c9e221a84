/**
 * 处理器:用户登出
 * @author: linkc
 * @date: 2025.12.03
 * @description: 登出接口,吊销访问令牌并清理会话
 * @func: Logout
 */
package auth

import (
	"net/http"
	"strings"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// LogoutHandler 登出接口处理器
type LogoutHandler struct {
	sessionService *authservice.SessionService
}

// NewLogoutHandler 创建登出处理器实例
func NewLogoutHandler(sessionService *authservice.SessionService) *LogoutHandler {
	return &LogoutHandler{
		sessionService: sessionService,
	}
}

// extractBearerToken 从 Authorization 头提取Bearer令牌
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Logout 用户登出接口
// @Summary 用户登出
// @Description 吊销当前访问令牌并清理会话
// @Tags 认证
// @Produce json
// @Success 200 {object} model.APIResponse "登出成功"
// @Failure 401 {object} model.APIResponse "未携带有效令牌"
// @Failure 500 {object} model.APIResponse "服务器内部错误"
// @Router /api/v1/auth/logout [post]
func (h *LogoutHandler) Logout(c *gin.Context) {
	token := extractBearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, model.APIResponse{
			Code:    http.StatusUnauthorized,
			Status:  "error",
			Message: "未携带有效的访问令牌",
		})
		return
	}

	if err := h.sessionService.Logout(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, model.APIResponse{
			Code:    http.StatusInternalServerError,
			Status:  "error",
			Message: "登出失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "登出成功",
	})
}
