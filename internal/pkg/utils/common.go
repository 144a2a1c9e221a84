/*
 * @author: linkc
 * @date: 2025.12.03
 * @description: 通用的工具包
 * @func:
 */

package utils

import (
	"context"
)

// ContextKey 类型用于标准上下文键的定义，避免使用裸字符串造成键冲突
type ContextKey string

// ContextKeyClientIP 标准上下文中存储客户端IP的统一键
const ContextKeyClientIP ContextKey = "client_ip"

// ContextKeyUserID 标准上下文中存储当前用户ID的统一键
const ContextKeyUserID ContextKey = "user_id"

// GetClientIPFromContext 从标准上下文读取客户端IP（统一键）
// 用于从标准上下文提取当前用户IP，如果不存在则返回0，轻校验
// 适用范围：service 层以下获取当前 clientIP 使用
// 来源：clientIPKey(定义常量名) 最初是logging中间件写入标准上下文 GinLoggingMiddleware() 中
// 用法示例：ip := utils.GetClientIPFromContext(ctx)
// 说明：
// - 使用 ContextKeyClientIP 作为唯一键，保证读写一致，跨包可用
// - 如果不存在或类型不匹配，返回空字符串
func GetClientIPFromContext(ctx context.Context) string {
	v := ctx.Value(ContextKeyClientIP)
	if ip, ok := v.(string); ok {
		return ip
	}
	return ""
}

// GetUserIDFromContext 从标准上下文读取当前操作者用户ID（统一键）
// 适用范围：service 层以下获取当前 userID 使用
// 来源：user_id 最初是JWT中间件写入标准上下文 GinJWTAuthMiddleware() 中
// 如果不存在或类型不匹配，返回0
func GetUserIDFromContext(ctx context.Context) uint {
	v := ctx.Value(ContextKeyUserID)
	if id, ok := v.(uint); ok {
		return id
	}
	return 0
}
