/**
 * 处理器:会话管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 会话管理接口(查询用户会话/强制下线)
 * @func:
 * 1.GetUserSessions
 * 2.RevokeUserSessions
 */
package system

import (
	"net/http"

	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// SessionHandler 会话管理处理器
type SessionHandler struct {
	sessionService *authservice.SessionService
}

// NewSessionHandler 创建会话管理处理器
func NewSessionHandler(sessionService *authservice.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// GetUserSessions 查询指定用户的会话
// @Summary 用户会话列表
// @Tags 会话管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse{data=[]model.SessionData} "查询成功"
// @Router /api/v1/admin/sessions/{id} [get]
func (h *SessionHandler) GetUserSessions(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.sessionService.GetUserSessions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取用户会话失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "查询成功", sessions)
}

// RevokeUserSessions 吊销指定用户的全部会话(强制下线)
// @Summary 强制用户下线
// @Tags 会话管理
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} model.APIResponse "吊销成功"
// @Router /api/v1/admin/sessions/{id} [delete]
func (h *SessionHandler) RevokeUserSessions(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.sessionService.RevokeUserSessions(c.Request.Context(), userID); err != nil {
		respondError(c, http.StatusInternalServerError, "吊销用户会话失败", err)
		return
	}

	respondSuccess(c, http.StatusOK, "用户会话已吊销", nil)
}
