/**
 * 处理器:系统管理公共工具
 * @author: linkc
 * @date: 2025.12.03
 * @description: 系统管理接口共用的分页解析与响应封装
 * @func: parsePaginationParams / parseIDParam / respondSuccess / respondError
 */
package system

import (
	"net/http"
	"strconv"

	"openmaas/internal/model"

	"github.com/gin-gonic/gin"
)

// parsePaginationParams 解析并修正分页参数
// page 从1开始,page_size 默认20,上限100
func parsePaginationParams(c *gin.Context) (page, pageSize, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}

	offset = (page - 1) * pageSize
	return page, pageSize, offset
}

// buildPagination 构造分页响应
func buildPagination(total int64, page, pageSize int) *model.PaginationResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &model.PaginationResponse{
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}

// currentUserID 读取JWT中间件写入Gin上下文的当前用户ID
func currentUserID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok2 := v.(uint); ok2 {
			return id
		}
	}
	return 0
}

// parseIDParam 解析路径中的数字ID参数
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "ID参数无效", nil)
		return 0, false
	}
	return uint(id), true
}

// respondSuccess 写入成功响应
func respondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, model.APIResponse{
		Code:    statusCode,
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// respondError 写入错误响应
func respondError(c *gin.Context, statusCode int, message string, err error) {
	resp := model.APIResponse{
		Code:    statusCode,
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(statusCode, resp)
}
