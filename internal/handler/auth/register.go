/**
 * 处理器:用户注册
 * @author: linkc
 * @date: 2025.12.03
 * @description: 注册接口,创建新用户账户
 * @func: Register
 */
package auth

import (
	"errors"
	"net/http"
	"strings"

	"openmaas/internal/model"
	authservice "openmaas/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// RegisterHandler 注册接口处理器
type RegisterHandler struct {
	userService *authservice.UserService
}

// NewRegisterHandler 创建注册处理器实例
func NewRegisterHandler(userService *authservice.UserService) *RegisterHandler {
	return &RegisterHandler{
		userService: userService,
	}
}

// validateRegisterRequest 验证注册请求参数
func (h *RegisterHandler) validateRegisterRequest(req *model.RegisterRequest) error {
	if req.Username == "" {
		return &model.ValidationError{Field: "username", Message: "用户名不能为空"}
	}
	if len(req.Username) < 3 || len(req.Username) > 50 {
		return &model.ValidationError{Field: "username", Message: "用户名长度必须在3到50个字符之间"}
	}
	if req.Email == "" {
		return &model.ValidationError{Field: "email", Message: "邮箱不能为空"}
	}
	if !strings.Contains(req.Email, "@") {
		return &model.ValidationError{Field: "email", Message: "邮箱格式无效"}
	}
	if req.Password == "" {
		return &model.ValidationError{Field: "password", Message: "密码不能为空"}
	}
	if len(req.Password) < 6 {
		return &model.ValidationError{Field: "password", Message: "密码长度至少为6个字符"}
	}

	return nil
}

// Register 用户注册接口
// @Summary 用户注册
// @Description 创建新用户账户
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "注册请求"
// @Success 201 {object} model.APIResponse{data=model.RegisterResponse} "注册成功"
// @Failure 400 {object} model.APIResponse "请求参数错误"
// @Failure 409 {object} model.APIResponse "用户已存在"
// @Router /api/v1/auth/register [post]
func (h *RegisterHandler) Register(c *gin.Context) {
	// 解析请求体
	var req model.RegisterRequest
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
	if err := h.validateRegisterRequest(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.APIResponse{
			Code:    http.StatusBadRequest,
			Status:  "error",
			Message: "参数验证失败",
			Error:   err.Error(),
		})
		return
	}

	// 执行注册
	resp, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		statusCode := http.StatusInternalServerError
		if errors.Is(err, model.ErrUserAlreadyExists) {
			statusCode = http.StatusConflict
		}
		c.JSON(statusCode, model.APIResponse{
			Code:    statusCode,
			Status:  "error",
			Message: "注册失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, model.APIResponse{
		Code:    http.StatusCreated,
		Status:  "success",
		Message: "注册成功",
		Data:    resp,
	})
}
