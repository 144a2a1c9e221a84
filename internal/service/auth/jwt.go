/**
 * 服务:JWT令牌业务逻辑
 * @author: linkc
 * @date: 2025.12.03
 * @description: JWT令牌的生成、验证、刷新与密码版本校验
 * @func:
 * 1.生成令牌对(携带角色与密码版本)
 * 2.验证访问令牌/刷新令牌
 * 3.令牌刷新
 * 4.密码版本一致性校验
 */
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"openmaas/internal/model"
	"openmaas/internal/pkg/auth"
	systemrepo "openmaas/internal/repo/mysql/system"

	"github.com/golang-jwt/jwt/v5"
)

// JWTService JWT认证服务
type JWTService struct {
	jwtManager *auth.JWTManager
	userRepo   *systemrepo.UserRepository
}

// NewJWTService 创建JWT服务实例
func NewJWTService(jwtManager *auth.JWTManager, userRepo *systemrepo.UserRepository) *JWTService {
	return &JWTService{
		jwtManager: jwtManager,
		userRepo:   userRepo,
	}
}

// GenerateTokens 生成访问令牌和刷新令牌
// 令牌携带启用角色名称列表与当前密码版本号
func (s *JWTService) GenerateTokens(ctx context.Context, user *model.User) (*auth.TokenPair, error) {
	if user == nil {
		return nil, errors.New("user cannot be nil")
	}

	// 获取用户角色和权限
	userWithPerms, err := s.userRepo.GetUserWithRolesAndPermissions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}
	if userWithPerms == nil {
		return nil, model.ErrUserNotFound
	}

	// 构建角色列表(仅启用角色)
	roles := make([]string, 0, len(userWithPerms.Roles))
	for _, role := range userWithPerms.Roles {
		if role == nil || !role.IsActive() {
			continue
		}
		roles = append(roles, role.Name)
	}

	// 生成令牌对
	tokenPair, err := s.jwtManager.GenerateTokenPair(
		userWithPerms.ID,
		userWithPerms.Username,
		userWithPerms.Email,
		userWithPerms.IsAdmin,
		userWithPerms.PasswordV, // 密码版本号,密码变更后旧令牌失效
		roles,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token pair: %w", err)
	}

	return tokenPair, nil
}

// ValidateAccessToken 验证访问令牌
func (s *JWTService) ValidateAccessToken(tokenString string) (*auth.JWTClaims, error) {
	claims, err := s.jwtManager.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	return claims, nil
}

// ValidateRefreshToken 验证刷新令牌
func (s *JWTService) ValidateRefreshToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	return claims, nil
}

// RefreshTokens 刷新令牌
// 校验刷新令牌有效，且对应用户存在且处于启用状态，再签发新令牌对
func (s *JWTService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	// 验证刷新令牌
	_, err := s.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// 从Subject中获取用户ID
	userID, err := s.jwtManager.GetUserIDFromToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID from token: %w", err)
	}

	// 获取用户信息
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		return nil, model.ErrUserNotFound
	}

	if !user.IsActive() {
		return nil, model.ErrUserDisabled
	}

	// 生成新的令牌对
	return s.GenerateTokens(ctx, user)
}

// GetUserFromToken 从令牌中获取用户信息
func (s *JWTService) GetUserFromToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user == nil {
		return nil, model.ErrUserNotFound
	}

	return user, nil
}

// CheckTokenExpiry 检查令牌是否即将过期
func (s *JWTService) CheckTokenExpiry(tokenString string, threshold time.Duration) (bool, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return false, err
	}

	// 检查是否在阈值时间内过期
	if claims.ExpiresAt == nil {
		return false, errors.New("token has no expiry time")
	}
	expiryTime := claims.ExpiresAt.Time
	return time.Until(expiryTime) <= threshold, nil
}

// GetTokenClaims 获取令牌声明信息
func (s *JWTService) GetTokenClaims(tokenString string) (*auth.JWTClaims, error) {
	return s.ValidateAccessToken(tokenString)
}

// IsTokenValid 检查令牌是否有效
func (s *JWTService) IsTokenValid(tokenString string) bool {
	_, err := s.ValidateAccessToken(tokenString)
	return err == nil
}

// GetTokenRemainingTime 获取令牌剩余有效时间
func (s *JWTService) GetTokenRemainingTime(tokenString string) (time.Duration, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return 0, err
	}

	if claims.ExpiresAt == nil {
		return 0, errors.New("token has no expiry time")
	}
	expiryTime := claims.ExpiresAt.Time
	remaining := time.Until(expiryTime)

	if remaining < 0 {
		return 0, model.ErrTokenExpired
	}

	return remaining, nil
}

// ValidatePasswordVersion 验证令牌中的密码版本是否与用户当前密码版本匹配
// 不匹配说明密码在令牌签发后被修改过，令牌视为失效
func (s *JWTService) ValidatePasswordVersion(ctx context.Context, tokenString string) (bool, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return false, err
	}

	currentPasswordV, err := s.userRepo.GetUserPasswordVersion(ctx, claims.UserID)
	if err != nil {
		return false, fmt.Errorf("failed to get user password version: %w", err)
	}

	// 检查密码版本是否匹配
	return claims.PasswordV == currentPasswordV, nil
}
