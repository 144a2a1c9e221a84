/**
 * 处理器:用户登录
 * @author: linkc
 * @date: 2025.12.03
 * @description: 登录接口,校验凭据并签发令牌对
 * @func: Login
 */
package auth

import (
	"errors"
	"net/http"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// LoginHandler 登录接口处理器
type LoginHandler struct {
	sessionService *authservice.SessionService
}

// NewLoginHandler 创建登录处理器实例
func NewLoginHandler(sessionService *authservice.SessionService) *LoginHandler {
	return &LoginHandler{
		sessionService: sessionService,
	}
}

// validateLoginRequest 验证登录请求参数
func (h *LoginHandler) validateLoginRequest(req *model.LoginRequest) error {
	if req.Username == "" {
		return &model.ValidationError{Field: "username", Message: "用户名不能为空"}
	}

	if req.Password == "" {
		return &model.ValidationError{Field: "password", Message: "密码不能为空"}
	}

	if len(req.Username) < 3 {
		return &model.ValidationError{Field: "username", Message: "用户名长度至少为3个字符"}
	}

	if len(req.Password) < 6 {
		return &model.ValidationError{Field: "password", Message: "密码长度至少为6个字符"}
	}

	return nil
}

// getErrorStatusCode 根据错误类型获取HTTP状态码
func (h *LoginHandler) getErrorStatusCode(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrUserDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Login 用户登录接口
// @Summary 用户登录
// @Description 用户通过用户名/邮箱和密码进行登录认证
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "登录请求"
// @Success 200 {object} model.APIResponse{data=model.LoginResponse} "登录成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Failure 401 {object} model.APIResponse "认证失败"
// @Failure 500 {object} model.APIResponse "服务器内部错误"
// @Router /api/v1/auth/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	// 解析请求体
	var req model.LoginRequest
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
	if err := h.validateLoginRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "参数验证失败",
			Error:   err.Error(),
		})
		return
	}

	// 执行登录
	resp, err := h.sessionService.Login(c.Request.Context(), &req)
	if err != nil {
		statusCode := h.getErrorStatusCode(err)
		c.JSON(statusCode, model.APIResponse{
			Code:    statusCode,
			Status:  "error",
			Message: "登录失败",
			Error:   err.Error(),
		})
		return
	}

	// 返回成功响应
	c.JSON(http.StatusOK, model.APIResponse{
		Code:    http.StatusOK,
		Status:  "success",
		Message: "登录成功",
		Data:    resp,
	})
}
