/**
 * 服务:会话管理
 * @author: linkc
 * @date: 2025.12.03
 * @description: 会话管理服务(登录/注销/刷新/会话状态)
 * @func:
 * 1.登录(签发令牌+写入Redis会话)
 * 2.注销(令牌吊销+会话清理)
 * 3.刷新令牌
 * 4.会话校验与权限检查
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
	"openmaas/internal/pkg/utils"
	redisrepo "openmaas/internal/repo/redis"
)

// SessionService 会话管理服务
type SessionService struct {
	userService     *UserService
	passwordManager *auth.PasswordManager
	jwtService      *JWTService
	rbacService     *RBACService
	sessionRepo     *redisrepo.SessionRepository
}

// NewSessionService 创建会话服务实例
func NewSessionService(
	userService *UserService,
	passwordManager *auth.PasswordManager,
	jwtService *JWTService,
	rbacService *RBACService,
	sessionRepo *redisrepo.SessionRepository,
) *SessionService {
	return &SessionService{
		userService:     userService,
		passwordManager: passwordManager,
		jwtService:      jwtService,
		rbacService:     rbacService,
		sessionRepo:     sessionRepo,
	}
}

// Login 用户登录
// 支持用户名或邮箱登录;失败原因统一对外表述为"用户名或密码错误"
func (s *SessionService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	clientIP := utils.GetClientIPFromContext(ctx)
	if req == nil {
		return nil, errors.New("登录请求不能为空")
	}

	if req.Username == "" {
		return nil, errors.New("用户名不能为空")
	}

	if req.Password == "" {
		return nil, errors.New("密码不能为空")
	}

	// 根据用户名或邮箱查找用户
	var user *model.User
	var err error

	// 尝试通过用户名查找
	user, err = s.userService.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		logger.LogError(err, "", 0, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  req.Username,
			"error":     "database_error_username",
			"timestamp": logger.NowFormatted(),
		})
		return nil, model.ErrInvalidCredentials
	}

	// 如果通过用户名没找到，尝试通过邮箱查找
	if user == nil {
		user, err = s.userService.userRepo.GetUserByEmail(ctx, req.Username)
		if err != nil {
			logger.LogError(err, "", 0, clientIP, "user_login", "POST", map[string]interface{}{
				"operation": "login",
				"username":  req.Username,
				"error":     "database_error_email",
				"timestamp": logger.NowFormatted(),
			})
			return nil, model.ErrInvalidCredentials
		}
	}

	// 如果用户不存在（两种方式都没找到）
	if user == nil {
		logger.LogBusinessError(model.ErrUserNotFound, "", 0, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  req.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, model.ErrInvalidCredentials
	}

	// 检查用户是否激活
	if !user.IsActive() {
		logger.LogBusinessError(model.ErrUserDisabled, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  user.Username,
			"status":    user.Status,
			"timestamp": logger.NowFormatted(),
		})
		return nil, model.ErrUserDisabled
	}

	// 验证密码
	isValid, err := s.passwordManager.VerifyPassword(req.Password, user.Password)
	if err != nil {
		logger.LogError(err, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("密码验证失败: %w", err)
	}
	if !isValid {
		logger.LogBusinessError(model.ErrInvalidCredentials, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, model.ErrInvalidCredentials
	}

	// 生成令牌
	tokenPair, err := s.jwtService.GenerateTokens(ctx, user)
	if err != nil {
		logger.LogError(err, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}

	// 更新最后登录时间,失败不影响登录流程
	if err := s.userService.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.LogError(err, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "update_last_login",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
	}

	// 获取用户角色和权限信息
	userWithPerms, err := s.userService.GetUserWithRolesAndPermissions(ctx, user.ID)
	if err != nil {
		logger.LogError(err, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "login",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("获取用户权限失败: %w", err)
	}

	// 构建角色与有效权限列表(仅启用角色/启用权限,点分权限名去重)
	roles := make([]string, 0, len(userWithPerms.Roles))
	permSeen := make(map[string]bool)
	permissions := make([]string, 0)
	for _, role := range userWithPerms.Roles {
		if role == nil {
			continue
		}
		roles = append(roles, role.Name)
		if !role.IsActive() {
			continue
		}
		for i := range role.Permissions {
			p := &role.Permissions[i]
			if !p.IsActive() || permSeen[p.Name] {
				continue
			}
			permSeen[p.Name] = true
			permissions = append(permissions, p.Name)
		}
	}

	// 存储会话信息到Redis
	sessionData := &model.SessionData{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		Roles:       roles,
		Permissions: permissions,
		LoginTime:   time.Now(),
		LastActive:  time.Now(),
		ClientIP:    clientIP,
	}

	// 会话过期时间与访问令牌过期时间一致
	sessionExpiration := time.Duration(tokenPair.ExpiresIn) * time.Second
	if err := s.sessionRepo.StoreSession(ctx, user.ID, sessionData, sessionExpiration); err != nil {
		// 会话存储失败不影响登录，但记录错误
		logger.LogError(err, "", user.ID, clientIP, "user_login", "POST", map[string]interface{}{
			"operation": "store_session",
			"username":  user.Username,
			"timestamp": logger.NowFormatted(),
		})
	}

	// 记录成功登录的业务日志
	logger.LogBusinessOperation("user_login", user.ID, user.Username, clientIP, "", "success", "用户登录成功", map[string]interface{}{
		"email":       user.Email,
		"roles":       roles,
		"permissions": permissions,
		"session_id":  tokenPrefix(tokenPair.AccessToken),
		"timestamp":   logger.NowFormatted(),
	})

	return &model.LoginResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		User: &model.User{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			Nickname:    user.Nickname,
			Avatar:      user.Avatar,
			Phone:       user.Phone,
			IsAdmin:     user.IsAdmin,
			Status:      user.Status,
			LastLoginAt: user.LastLoginAt,
			CreatedAt:   user.CreatedAt,
			UpdatedAt:   user.UpdatedAt,
			Roles:       userWithPerms.Roles,
		},
	}, nil
}

// Logout 用户登出
// 吊销访问令牌(黑名单至令牌自然过期)并清理Redis会话
func (s *SessionService) Logout(ctx context.Context, accessToken string) error {
	clientIP := utils.GetClientIPFromContext(ctx)
	if accessToken == "" {
		return errors.New("访问令牌不能为空")
	}

	// 获取用户信息用于日志记录
	user, err := s.jwtService.GetUserFromToken(ctx, accessToken)
	if err != nil {
		logger.LogError(err, "", 0, clientIP, "user_logout", "POST", map[string]interface{}{
			"operation":    "logout",
			"token_prefix": tokenPrefix(accessToken),
			"timestamp":    logger.NowFormatted(),
		})
		// 继续执行吊销操作，即使获取用户信息失败
	}

	// 吊销令牌，黑名单保留至令牌自然过期
	revokeTTL, err := s.jwtService.GetTokenRemainingTime(accessToken)
	if err != nil || revokeTTL <= 0 {
		revokeTTL = time.Minute
	}
	if err := s.sessionRepo.RevokeToken(ctx, accessToken, revokeTTL); err != nil {
		logger.LogError(err, "", 0, clientIP, "user_logout", "POST", map[string]interface{}{
			"operation":    "revoke_token",
			"token_prefix": tokenPrefix(accessToken),
			"timestamp":    logger.NowFormatted(),
		})
		return fmt.Errorf("令牌吊销失败: %w", err)
	}

	// 清理会话
	logData := map[string]interface{}{
		"token_prefix": tokenPrefix(accessToken),
		"timestamp":    logger.NowFormatted(),
	}
	var userID uint
	var username string
	if user != nil {
		userID = user.ID
		username = user.Username
		logData["user_id"] = user.ID
		logData["username"] = user.Username
		if err := s.sessionRepo.DeleteSession(ctx, user.ID); err != nil {
			logger.LogError(err, "", user.ID, clientIP, "user_logout", "POST", map[string]interface{}{
				"operation": "delete_session",
				"user_id":   user.ID,
				"timestamp": logger.NowFormatted(),
			})
		}
	}

	logger.LogBusinessOperation("user_logout", userID, username, clientIP, "", "success", "用户登出成功", logData)

	return nil
}

// RefreshToken 刷新令牌
func (s *SessionService) RefreshToken(ctx context.Context, req *model.RefreshTokenRequest) (*model.RefreshTokenResponse, error) {
	if req == nil {
		return nil, errors.New("刷新令牌请求不能为空")
	}

	if req.RefreshToken == "" {
		return nil, errors.New("刷新令牌不能为空")
	}

	// 刷新令牌
	tokenPair, err := s.jwtService.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("刷新令牌失败: %w", err)
	}

	return &model.RefreshTokenResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
		TokenType:    "Bearer",
	}, nil
}

// ValidateSession 验证会话
// 令牌有效、未被吊销、用户仍处于启用状态时返回用户
func (s *SessionService) ValidateSession(ctx context.Context, accessToken string) (*model.User, error) {
	if accessToken == "" {
		return nil, errors.New("访问令牌不能为空")
	}

	// 检查令牌是否在吊销黑名单中
	revoked, err := s.sessionRepo.IsTokenRevoked(ctx, accessToken)
	if err != nil {
		// Redis不可用时降级为仅JWT校验
		logger.LogError(err, "", 0, "", "validate_session", "SERVICE", map[string]interface{}{
			"operation": "check_token_revoked",
			"timestamp": logger.NowFormatted(),
		})
	} else if revoked {
		return nil, model.ErrTokenInvalid
	}

	// 验证令牌并获取用户信息
	user, err := s.jwtService.GetUserFromToken(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("会话无效: %w", err)
	}

	// 检查用户是否仍然活跃
	if !user.IsActive() {
		return nil, model.ErrUserDisabled
	}

	return user, nil
}

// GetSession 获取用户会话信息
func (s *SessionService) GetSession(ctx context.Context, userID uint) (*model.SessionData, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}
	return s.sessionRepo.GetSession(ctx, userID)
}

// GetUserSessions 获取用户的全部会话
func (s *SessionService) GetUserSessions(ctx context.Context, userID uint) ([]*model.SessionData, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}
	return s.sessionRepo.GetUserSessions(ctx, userID)
}

// RevokeUserSessions 吊销用户的全部会话(强制下线)
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID uint) error {
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	if err := s.sessionRepo.DeleteAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("吊销用户会话失败: %w", err)
	}

	logger.LogBusinessOperation("revoke_user_sessions", userID, "", "", "", "success", "用户会话已全部吊销", map[string]interface{}{
		"user_id":   userID,
		"timestamp": logger.NowFormatted(),
	})

	return nil
}

// StorePasswordVersion 将密码版本写入缓存
func (s *SessionService) StorePasswordVersion(ctx context.Context, userID uint, passwordV int64, expiration time.Duration) error {
	return s.sessionRepo.StorePasswordVersion(ctx, userID, passwordV, expiration)
}

// DeleteAllUserSessions 删除用户的全部会话
func (s *SessionService) DeleteAllUserSessions(ctx context.Context, userID uint) error {
	return s.sessionRepo.DeleteAllUserSessions(ctx, userID)
}

// CheckPermission 检查用户是否具有指定权限(点分权限名)
func (s *SessionService) CheckPermission(ctx context.Context, userID uint, permission string) (bool, error) {
	return s.rbacService.HasPermission(ctx, userID, permission)
}

// CheckRole 检查用户角色
func (s *SessionService) CheckRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	return s.rbacService.HasRole(ctx, userID, roleName)
}

// IsTokenExpiringSoon 检查令牌是否即将过期
func (s *SessionService) IsTokenExpiringSoon(accessToken string, threshold time.Duration) (bool, error) {
	return s.jwtService.CheckTokenExpiry(accessToken, threshold)
}

// GetTokenRemainingTime 获取令牌剩余时间
func (s *SessionService) GetTokenRemainingTime(accessToken string) (time.Duration, error) {
	return s.jwtService.GetTokenRemainingTime(accessToken)
}

// tokenPrefix 仅记录令牌前缀,避免完整令牌进入日志
func tokenPrefix(token string) string {
	if len(token) <= 10 {
		return token
	}
	return token[:10] + "..."
}
