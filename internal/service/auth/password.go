/**
 * 服务:密码管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 密码修改、重置与密码版本缓存同步
 * @func:
 * 1.修改密码(校验旧密码,递增密码版本,清理会话)
 * 2.重置密码(管理员操作)
 * 3.密码版本缓存同步
 * 4.密码强度校验
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/auth"
	"openmaas/internal/pkg/logger"
)

// PasswordService 密码服务
// 负责密码相关的业务逻辑，包括密码修改、重置、验证等
type PasswordService struct {
	userService     *UserService          // 用户业务服务
	sessionService  *SessionService       // 会话服务
	passwordManager *auth.PasswordManager // 密码管理器
	cacheExpiry     time.Duration
}

// NewPasswordService 创建密码管理服务实例
func NewPasswordService(
	userService *UserService,
	sessionService *SessionService,
	passwordManager *auth.PasswordManager,
	cacheExpiry time.Duration,
) *PasswordService {
	return &PasswordService{
		userService:     userService,
		sessionService:  sessionService,
		passwordManager: passwordManager,
		cacheExpiry:     cacheExpiry,
	}
}

// ChangePassword 修改用户密码并更新密码版本
// 包含完整的参数验证、旧密码验证、密码版本递增和会话清理逻辑
func (s *PasswordService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	// 参数验证
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	if oldPassword == "" {
		return errors.New("原密码不能为空")
	}

	if newPassword == "" {
		return errors.New("新密码不能为空")
	}

	// 验证新密码强度
	if err := s.ValidatePasswordStrength(newPassword); err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation":       "change_password",
			"password_length": len(newPassword),
			"timestamp":       logger.NowFormatted(),
		})
		return err
	}

	// 获取用户信息
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("获取用户失败: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	// 验证旧密码
	isValid, err := s.passwordManager.VerifyPassword(oldPassword, user.Password)
	if err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("密码验证失败: %w", err)
	}

	if !isValid {
		logger.LogBusinessError(errors.New("原密码错误"), "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return errors.New("原密码错误")
	}

	// 生成新密码哈希
	newPasswordHash, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("新密码哈希失败: %w", err)
	}

	// 更新密码和版本号（原子操作，确保旧token失效）
	if err := s.userService.UpdatePasswordWithVersionHashed(ctx, userID, newPasswordHash); err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("更新密码失败: %w", err)
	}

	// 获取新的密码版本
	newPasswordV, err := s.userService.GetUserPasswordVersion(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取新密码版本失败: %w", err)
	}

	// 更新缓存中的密码版本,失败只记录不阻断
	if err := s.sessionService.StorePasswordVersion(ctx, userID, newPasswordV, s.cacheExpiry); err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"step":      "update_cache",
			"timestamp": logger.NowFormatted(),
		})
	}

	// 删除用户所有会话（强制重新登录）,失败只记录不阻断
	if err := s.sessionService.DeleteAllUserSessions(ctx, userID); err != nil {
		logger.LogError(err, "", userID, "", "password_change", "PUT", map[string]interface{}{
			"operation": "change_password",
			"step":      "delete_sessions",
			"timestamp": logger.NowFormatted(),
		})
	}

	// 记录成功修改密码的业务日志
	logger.LogBusinessOperation("password_change", userID, user.Username, "", "", "success", "用户修改密码成功", map[string]interface{}{
		"old_password_version": newPasswordV - 1,
		"new_password_version": newPasswordV,
		"timestamp":            logger.NowFormatted(),
	})

	return nil
}

// ResetPassword 重置用户密码（管理员操作）
// 不校验旧密码,递增密码版本并强制用户重新登录
func (s *PasswordService) ResetPassword(ctx context.Context, userID uint, newPassword string) error {
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	if err := s.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}

	// 获取用户信息
	user, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取用户失败: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	// 生成新密码哈希
	newPasswordHash, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("新密码哈希失败: %w", err)
	}

	// 更新密码和版本号（原子操作）
	if err := s.userService.UpdatePasswordWithVersionHashed(ctx, userID, newPasswordHash); err != nil {
		return fmt.Errorf("重置密码失败: %w", err)
	}

	// 获取更新后的密码版本号
	newPasswordV, err := s.userService.GetUserPasswordVersion(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取新密码版本失败: %w", err)
	}

	// 更新缓存中的密码版本,失败只记录不阻断
	if err := s.sessionService.StorePasswordVersion(ctx, userID, newPasswordV, s.cacheExpiry); err != nil {
		logger.LogError(err, "", userID, "", "password_reset", "PUT", map[string]interface{}{
			"operation": "reset_password",
			"step":      "update_cache",
			"timestamp": logger.NowFormatted(),
		})
	}

	// 删除用户所有会话（强制重新登录）,失败只记录不阻断
	if err := s.sessionService.DeleteAllUserSessions(ctx, userID); err != nil {
		logger.LogError(err, "", userID, "", "password_reset", "PUT", map[string]interface{}{
			"operation": "reset_password",
			"step":      "delete_sessions",
			"timestamp": logger.NowFormatted(),
		})
	}

	logger.LogBusinessOperation("password_reset", userID, user.Username, "", "", "success", "管理员重置密码成功", map[string]interface{}{
		"new_password_version": newPasswordV,
		"timestamp":            logger.NowFormatted(),
	})

	return nil
}

// SyncPasswordVersionToCache 同步密码版本到缓存
func (s *PasswordService) SyncPasswordVersionToCache(ctx context.Context, userID uint) error {
	// 从数据库获取密码版本
	passwordV, err := s.userService.GetUserPasswordVersion(ctx, userID)
	if err != nil {
		return fmt.Errorf("从数据库获取密码版本失败: %w", err)
	}

	// 存储到缓存
	if err := s.sessionService.StorePasswordVersion(ctx, userID, passwordV, s.cacheExpiry); err != nil {
		return fmt.Errorf("密码版本写入缓存失败: %w", err)
	}

	return nil
}

// ValidatePasswordStrength 验证密码强度
func (s *PasswordService) ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return errors.New("新密码长度至少为8位")
	}

	if len(password) > 128 {
		return errors.New("新密码长度不能超过128位")
	}

	return nil
}
