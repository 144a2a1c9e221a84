/**
 * 服务:用户业务逻辑
 * @author: linkc
 * @date: 2025.12.03
 * @description: 用户业务逻辑(用户增删改查与用户角色分配)
 * @func:
 * 1.注册/创建用户
 * 2.更新/删除用户
 * 3.用户角色分配与移除(幂等,无变更短路)
 * 4.批量用户角色操作(部分失败语义)
 * 5.密码版本管理
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
	systemrepo "openmaas/internal/repo/mysql/system"
	redisrepo "openmaas/internal/repo/redis"
)

// UserService 用户服务
// 负责用户相关的业务逻辑，包括用户注册、角色分配、密码版本管理等
type UserService struct {
	userRepo        *systemrepo.UserRepository           // 用户数据仓库
	roleRepo        *systemrepo.RoleRepository           // 角色数据仓库(角色ID有效性校验)
	sessionRepo     *redisrepo.SessionRepository         // Redis会话仓库
	permCache       *redisrepo.PermissionCacheRepository // 用户有效权限缓存
	passwordManager *auth.PasswordManager                // 密码管理器
	jwtManager      *auth.JWTManager                     // JWT管理器
}

// NewUserService 创建新的用户服务实例
func NewUserService(
	userRepo *systemrepo.UserRepository,
	roleRepo *systemrepo.RoleRepository,
	sessionRepo *redisrepo.SessionRepository,
	permCache *redisrepo.PermissionCacheRepository,
	passwordManager *auth.PasswordManager,
	jwtManager *auth.JWTManager,
) *UserService {
	return &UserService{
		userRepo:        userRepo,
		roleRepo:        roleRepo,
		sessionRepo:     sessionRepo,
		permCache:       permCache,
		passwordManager: passwordManager,
		jwtManager:      jwtManager,
	}
}

// Register 用户注册
// 处理用户注册请求，包括参数验证、用户名/邮箱唯一性检查、密码哈希等
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.RegisterResponse, error) {
	// 参数验证
	if req == nil {
		return nil, errors.New("注册请求不能为空")
	}

	if req.Username == "" {
		return nil, errors.New("用户名不能为空")
	}

	if req.Email == "" {
		return nil, errors.New("邮箱不能为空")
	}

	if req.Password == "" {
		return nil, errors.New("密码不能为空")
	}

	// 检查用户名和邮箱是否已存在
	exists, err := s.userRepo.UserExists(ctx, req.Username, req.Email)
	if err != nil {
		logger.LogError(err, "", 0, "", "user_register", "POST", map[string]interface{}{
			"operation": "register",
			"username":  req.Username,
			"email":     req.Email,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("检查用户是否存在失败: %w", err)
	}

	if exists {
		logger.LogBusinessError(model.ErrUserAlreadyExists, "", 0, "", "user_register", "POST", map[string]interface{}{
			"operation": "register",
			"username":  req.Username,
			"email":     req.Email,
			"timestamp": logger.NowFormatted(),
		})
		return nil, model.ErrUserAlreadyExists
	}

	// 哈希密码
	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		logger.LogError(err, "", 0, "", "user_register", "POST", map[string]interface{}{
			"operation": "hash_password",
			"username":  req.Username,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	// 创建用户对象
	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Nickname:  req.Nickname,
		Phone:     req.Phone,
		Password:  hashedPassword, // 使用哈希后的密码
		Status:    model.UserStatusEnabled,
		PasswordV: 1, // 设置密码版本
	}

	// 创建用户
	err = s.userRepo.CreateUser(ctx, user)
	if err != nil {
		logger.LogError(err, "", 0, "", "user_register", "POST", map[string]interface{}{
			"operation": "register",
			"username":  req.Username,
			"email":     req.Email,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	// 记录成功注册的业务日志
	logger.LogBusinessOperation("user_register", user.ID, user.Username, "", "", "success", "用户注册成功", map[string]interface{}{
		"user_id":   user.ID,
		"username":  user.Username,
		"email":     user.Email,
		"nickname":  user.Nickname,
		"timestamp": logger.NowFormatted(),
	})

	// 构造用户信息
	userInfo := &model.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Nickname:    user.Nickname,
		Avatar:      user.Avatar,
		Phone:       user.Phone,
		IsAdmin:     user.IsAdmin,
		Status:      user.Status,
		CreatedAt:   user.CreatedAt,
		Roles:       []string{}, // 新注册用户暂无角色
		Permissions: []string{}, // 新注册用户暂无权限
		Remark:      user.Remark,
	}

	// 构造响应
	response := &model.RegisterResponse{
		User:    userInfo,
		Message: "注册成功",
	}

	return response, nil
}

// CreateUser 创建用户
// 处理用户创建的完整流程，包括参数验证、重复检查、密码哈希、初始角色分配
func (s *UserService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	// 参数验证
	if req == nil {
		return nil, errors.New("创建用户请求不能为空")
	}

	if req.Username == "" {
		return nil, errors.New("用户名不能为空")
	}

	if req.Email == "" {
		return nil, errors.New("邮箱不能为空")
	}

	if req.Password == "" {
		return nil, errors.New("密码不能为空")
	}

	// 检查用户名是否已存在
	existingUser, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("检查用户名失败: %w", err)
	}
	if existingUser != nil {
		logger.LogBusinessError(model.ErrUsernameAlreadyExists, "", 0, clientIP, "user_create", "POST", map[string]interface{}{
			"operation":        "create_user",
			"username":         req.Username,
			"existing_user_id": existingUser.ID,
			"timestamp":        logger.NowFormatted(),
		})
		return nil, model.ErrUsernameAlreadyExists
	}

	// 检查邮箱是否已存在
	existingUser, err = s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("检查邮箱失败: %w", err)
	}
	if existingUser != nil {
		logger.LogBusinessError(model.ErrEmailAlreadyExists, "", 0, clientIP, "user_create", "POST", map[string]interface{}{
			"operation":        "create_user",
			"email":            req.Email,
			"existing_user_id": existingUser.ID,
			"timestamp":        logger.NowFormatted(),
		})
		return nil, model.ErrEmailAlreadyExists
	}

	// 角色ID有效性校验
	if len(req.RoleIDs) > 0 {
		if err := s.checkRoleIDs(ctx, req.RoleIDs); err != nil {
			return nil, err
		}
	}

	// 哈希密码（业务逻辑处理）
	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	// 创建用户模型
	user := &model.User{
		Username:  req.Username,
		Email:     req.Email,
		Nickname:  req.Nickname,
		Phone:     req.Phone,
		Remark:    req.Remark,
		Password:  hashedPassword, // 使用哈希后的密码
		Status:    model.UserStatusEnabled,
		PasswordV: 1, // 设置密码版本
	}

	// 事务：创建用户并分配初始角色
	tx := s.userRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return nil, errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(user).Error; err != nil {
		tx.Rollback()
		logger.LogError(err, "", 0, clientIP, "user_create", "POST", map[string]interface{}{
			"operation": "create_user_db",
			"username":  req.Username,
			"email":     req.Email,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	if len(req.RoleIDs) > 0 {
		operatorID := utils.GetUserIDFromContext(ctx)
		if err := s.userRepo.AssignRolesToUserWithTx(ctx, tx, user.ID, req.RoleIDs, operatorID); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("初始角色分配失败: %w", err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	// 记录成功创建用户的业务日志
	logger.LogBusinessOperation("create_user", user.ID, user.Username, clientIP, "", "success", "用户创建成功", map[string]interface{}{
		"email":      user.Email,
		"status":     user.Status,
		"role_count": len(req.RoleIDs),
		"timestamp":  logger.NowFormatted(),
	})

	return user, nil
}

// checkRoleIDs 校验角色ID列表均存在
func (s *UserService) checkRoleIDs(ctx context.Context, roleIDs []uint) error {
	roles, err := s.roleRepo.GetRolesByIDs(ctx, roleIDs)
	if err != nil {
		return fmt.Errorf("校验角色失败: %w", err)
	}
	found := make(map[uint]bool, len(roles))
	for _, r := range roles {
		found[r.ID] = true
	}
	for _, id := range roleIDs {
		if !found[id] {
			return fmt.Errorf("角色不存在: %d", id)
		}
	}
	return nil
}

// GetUserIDFromToken 从JWT令牌中获取用户ID
// 通过解析JWT访问令牌获取用户ID，用于身份验证
func (s *UserService) GetUserIDFromToken(ctx context.Context, accessToken string) (uint, error) {
	// 检查上下文是否已取消
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if accessToken == "" {
		return 0, errors.New("访问令牌不能为空")
	}

	claims, err := s.jwtManager.ValidateAccessToken(accessToken)
	if err != nil {
		return 0, fmt.Errorf("令牌验证失败: %w", err)
	}

	return claims.UserID, nil
}

// GetCurrentUserInfo 获取当前用户信息（从访问令牌获取用户ID）
// 返回包含角色名称列表与有效权限名称列表的用户信息
func (s *UserService) GetCurrentUserInfo(ctx context.Context, accessToken string) (*model.UserInfo, error) {
	userID, err := s.GetUserIDFromToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserWithRolesAndPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	// 角色名称列表与有效权限并集
	roleNames := make([]string, 0, len(user.Roles))
	permSeen := make(map[string]bool)
	permissions := make([]string, 0)
	for _, role := range user.Roles {
		if role == nil {
			continue
		}
		roleNames = append(roleNames, role.Name)
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

	return &model.UserInfo{
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
		Roles:       roleNames,
		Permissions: permissions,
		Remark:      user.Remark,
	}, nil
}

// UpdateUser 更新用户信息
// 用户名/邮箱冲突校验排除自身;密码变更走密码版本递增路径
func (s *UserService) UpdateUser(ctx context.Context, userID uint, req *model.UpdateUserRequest) (*model.User, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}
	if req == nil {
		return nil, errors.New("更新用户请求不能为空")
	}

	// 检查用户是否存在
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	// 状态值校验
	if req.Status != nil {
		if *req.Status != model.UserStatusDisabled && *req.Status != model.UserStatusEnabled {
			return nil, errors.New("用户状态值无效,必须为0(禁用)或1(启用)")
		}
	}

	// 用户名冲突校验[排除自身]
	if req.Username != "" && req.Username != user.Username {
		conflict, err := s.userRepo.GetUserByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("检查用户名失败: %w", err)
		}
		if conflict != nil && conflict.ID != userID {
			return nil, model.ErrUsernameAlreadyExists
		}
	}

	// 邮箱冲突校验[排除自身]
	if req.Email != "" && req.Email != user.Email {
		conflict, err := s.userRepo.GetUserByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("检查邮箱失败: %w", err)
		}
		if conflict != nil && conflict.ID != userID {
			return nil, model.ErrEmailAlreadyExists
		}
	}

	// 构建字段更新集合
	fields := make(map[string]interface{})
	if req.Username != "" && req.Username != user.Username {
		fields["username"] = req.Username
	}
	if req.Nickname != "" && req.Nickname != user.Nickname {
		fields["nickname"] = req.Nickname
	}
	if req.Email != "" && req.Email != user.Email {
		fields["email"] = req.Email
	}
	if req.Phone != "" && req.Phone != user.Phone {
		fields["phone"] = req.Phone
	}
	if req.Avatar != "" && req.Avatar != user.Avatar {
		fields["avatar"] = req.Avatar
	}
	if req.Remark != "" && req.Remark != user.Remark {
		fields["remark"] = req.Remark
	}
	if req.Status != nil && *req.Status != user.Status {
		fields["status"] = *req.Status
	}

	// 密码变更：哈希后递增密码版本,旧token随之失效
	if req.Password != "" {
		hashedPassword, err := s.passwordManager.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("密码哈希失败: %w", err)
		}
		fields["password"] = hashedPassword
		fields["password_v"] = user.PasswordV + 1
	}

	if len(fields) == 0 {
		return user, nil
	}
	fields["updated_at"] = time.Now()

	if err := s.userRepo.UpdateUserFields(ctx, userID, fields); err != nil {
		logger.LogError(err, "", userID, clientIP, "user_update", "PUT", map[string]interface{}{
			"operation": "update_user",
			"user_id":   userID,
			"timestamp": logger.NowFormatted(),
		})
		return nil, fmt.Errorf("更新用户失败: %w", err)
	}

	// 密码版本变更后刷新缓存的密码版本
	if req.Password != "" && s.sessionRepo != nil {
		if err := s.sessionRepo.DeletePasswordVersion(ctx, userID); err != nil {
			logger.LogError(err, "", userID, clientIP, "user_update", "PUT", map[string]interface{}{
				"operation": "delete_password_version_cache",
				"user_id":   userID,
				"timestamp": logger.NowFormatted(),
			})
		}
	}

	logger.LogBusinessOperation("update_user", userID, user.Username, clientIP, "", "success", "用户更新成功", map[string]interface{}{
		"operation": "user_update_success",
		"user_id":   userID,
		"timestamp": logger.NowFormatted(),
	})

	return s.userRepo.GetUserByID(ctx, userID)
}

// DeleteUser 删除用户
// 级联清理用户角色关联与会话,失效权限缓存
func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	// 事务：删除用户角色关联后删除用户
	tx := s.userRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := s.userRepo.DeleteUserRolesByUserID(ctx, tx, userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除用户角色关联失败: %w", err)
	}

	if err := s.userRepo.DeleteUserWithTx(ctx, tx, userID); err != nil {
		tx.Rollback()
		return fmt.Errorf("删除用户失败: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 清理会话与权限缓存
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteSession(ctx, userID); err != nil {
			logger.LogError(err, "", userID, clientIP, "user_delete", "DELETE", map[string]interface{}{
				"operation": "delete_user_session",
				"user_id":   userID,
				"timestamp": logger.NowFormatted(),
			})
		}
	}
	s.invalidateUser(ctx, userID)

	logger.LogBusinessOperation("delete_user", userID, user.Username, clientIP, "", "success", "用户删除成功", map[string]interface{}{
		"operation": "user_deletion_success",
		"user_id":   userID,
		"timestamp": logger.NowFormatted(),
	})

	return nil
}

// GetUserByID 根据用户ID获取用户
func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	// 检查上下文是否已取消
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	return user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, errors.New("用户名不能为空")
	}

	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	return user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, errors.New("邮箱不能为空")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}

	return user, nil
}

// GetUserList 获取用户列表
// 提供分页查询功能，分页参数自动修正
func (s *UserService) GetUserList(ctx context.Context, offset, limit int) ([]*model.User, int64, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}

	// 上下文检查：确保请求未被取消
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("request cancelled: %w", ctx.Err())
	default:
	}

	users, total, err := s.userRepo.GetUserList(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user list from repo: %w", err)
	}
	if users == nil {
		users = make([]*model.User, 0)
	}

	return users, total, nil
}

// GetUserPermissions 获取用户权限
func (s *UserService) GetUserPermissions(ctx context.Context, userID uint) ([]*model.Permission, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	return s.userRepo.GetUserPermissions(ctx, userID)
}

// GetUserRoles 获取用户角色
func (s *UserService) GetUserRoles(ctx context.Context, userID uint) ([]*model.Role, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	return s.userRepo.GetUserRoles(ctx, userID)
}

// GetUserWithRolesAndPermissions 获取用户及其角色和权限
func (s *UserService) GetUserWithRolesAndPermissions(ctx context.Context, userID uint) (*model.User, error) {
	if userID == 0 {
		return nil, errors.New("用户ID不能为0")
	}

	return s.userRepo.GetUserWithRolesAndPermissions(ctx, userID)
}

// AssignUserRoles 用户角色分配/移除
// operation 取值 assign / unassign;两个方向都幂等:
// assign 跳过已持有的角色,unassign 跳过未持有的角色;
// 计算后的变更集为空时直接短路返回,不触发数据库写入
func (s *UserService) AssignUserRoles(ctx context.Context, userID uint, roleIDs []uint, operation string) error {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}
	if len(roleIDs) == 0 {
		return errors.New("角色ID列表不能为空")
	}
	if operation != "assign" && operation != "unassign" {
		return errors.New("操作类型无效,必须为assign或unassign")
	}

	// 用户存在性校验
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	// 角色ID有效性校验
	if err := s.checkRoleIDs(ctx, roleIDs); err != nil {
		return err
	}

	// 当前持有角色集合
	heldIDs, err := s.userRepo.GetUserRoleIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取用户角色失败: %w", err)
	}
	held := make(map[uint]bool, len(heldIDs))
	for _, id := range heldIDs {
		held[id] = true
	}

	// 计算实际变更集,幂等跳过无效项
	changes := make([]uint, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		if operation == "assign" && !held[roleID] {
			changes = append(changes, roleID)
		}
		if operation == "unassign" && held[roleID] {
			changes = append(changes, roleID)
		}
	}

	// 无变更短路,不触发数据库写入
	if len(changes) == 0 {
		logger.LogBusinessOperation("assign_user_roles", userID, user.Username, clientIP, "", "success", "用户角色无变更", map[string]interface{}{
			"operation":  operation,
			"user_id":    userID,
			"role_ids":   roleIDs,
			"no_changes": true,
			"timestamp":  logger.NowFormatted(),
		})
		return nil
	}

	// 事务执行变更
	tx := s.userRepo.BeginTx(ctx)
	if tx == nil || tx.Error != nil {
		return errors.New("开始事务失败")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	operatorID := utils.GetUserIDFromContext(ctx)
	if operation == "assign" {
		err = s.userRepo.AssignRolesToUserWithTx(ctx, tx, userID, changes, operatorID)
	} else {
		err = s.userRepo.RemoveRolesFromUserWithTx(ctx, tx, userID, changes)
	}
	if err != nil {
		tx.Rollback()
		logger.LogError(err, "", userID, clientIP, "assign_user_roles", "POST", map[string]interface{}{
			"operation": operation,
			"user_id":   userID,
			"role_ids":  changes,
			"timestamp": logger.NowFormatted(),
		})
		return fmt.Errorf("用户角色%s失败: %w", operationText(operation), err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}

	// 角色变更后失效有效权限缓存
	s.invalidateUser(ctx, userID)

	// 审计日志
	logger.LogAuditOperation(operatorID, "", "assign_user_roles", fmt.Sprintf("user:%d", userID), "success", clientIP, "", "", map[string]interface{}{
		"operation":    operation,
		"target_user":  userID,
		"changed_ids":  changes,
		"change_count": len(changes),
		"timestamp":    logger.NowFormatted(),
	})

	logger.LogBusinessOperation("assign_user_roles", userID, user.Username, clientIP, "", "success",
		fmt.Sprintf("用户角色%s成功", operationText(operation)), map[string]interface{}{
			"operation":    operation,
			"user_id":      userID,
			"changed_ids":  changes,
			"change_count": len(changes),
			"timestamp":    logger.NowFormatted(),
		})

	return nil
}

// operationText 操作类型中文描述
func operationText(operation string) string {
	if operation == "assign" {
		return "分配"
	}
	return "移除"
}

// BatchUserRoles 批量用户角色分配/移除
// 部分失败语义:逐用户应用变更,成功项提交,失败项记录原因,不整体回滚
func (s *UserService) BatchUserRoles(ctx context.Context, userIDs, roleIDs []uint, operation string) (*model.BatchOperationResponse, error) {
	// 从标准上下文中 context 获取必要的信息[已在中间件中做过标准化处理]
	clientIP := utils.GetClientIPFromContext(ctx)
	if len(userIDs) == 0 {
		return nil, errors.New("用户ID列表不能为空")
	}
	if len(roleIDs) == 0 {
		return nil, errors.New("角色ID列表不能为空")
	}
	if operation != "assign" && operation != "unassign" {
		return nil, errors.New("操作类型无效,必须为assign或unassign")
	}

	result := &model.BatchOperationResponse{
		SuccessIDs:   make([]uint, 0, len(userIDs)),
		FailedIDs:    make([]uint, 0),
		FailedReason: make(map[uint]string),
	}

	for _, userID := range userIDs {
		if err := s.AssignUserRoles(ctx, userID, roleIDs, operation); err != nil {
			result.FailedIDs = append(result.FailedIDs, userID)
			result.FailedReason[userID] = err.Error()
			continue
		}
		result.SuccessIDs = append(result.SuccessIDs, userID)
	}
	result.SuccessCount = len(result.SuccessIDs)
	result.FailedCount = len(result.FailedIDs)

	logger.LogBusinessOperation("batch_user_roles", 0, "", clientIP, "", "success", "批量用户角色操作完成", map[string]interface{}{
		"operation":     operation,
		"total":         len(userIDs),
		"success_count": result.SuccessCount,
		"failed_count":  result.FailedCount,
		"timestamp":     logger.NowFormatted(),
	})

	return result, nil
}

// UpdatePasswordWithVersion 更新用户密码并递增密码版本号
// 密码版本递增后,携带旧版本号的访问令牌全部失效
func (s *UserService) UpdatePasswordWithVersion(ctx context.Context, userID uint, newPassword string) error {
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}
	if newPassword == "" {
		return errors.New("新密码不能为空")
	}

	// 哈希新密码
	hashedPassword, err := s.passwordManager.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("密码哈希失败: %w", err)
	}

	return s.UpdatePasswordWithVersionHashed(ctx, userID, hashedPassword)
}

// UpdatePasswordWithVersionHashed 使用已哈希的密码更新用户密码并递增密码版本号
func (s *UserService) UpdatePasswordWithVersionHashed(ctx context.Context, userID uint, passwordHash string) error {
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("获取用户信息失败: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	fields := map[string]interface{}{
		"password":   passwordHash,
		"password_v": user.PasswordV + 1,
		"updated_at": time.Now(),
	}
	if err := s.userRepo.UpdateUserFields(ctx, userID, fields); err != nil {
		return fmt.Errorf("更新密码失败: %w", err)
	}

	// 清理缓存的密码版本,下次校验时回源数据库
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeletePasswordVersion(ctx, userID); err != nil {
			logger.LogError(err, "", userID, "", "update_password", "PUT", map[string]interface{}{
				"operation": "delete_password_version_cache",
				"user_id":   userID,
				"timestamp": logger.NowFormatted(),
			})
		}
	}

	logger.LogBusinessOperation("update_password", userID, user.Username, "", "", "success", "密码更新成功", map[string]interface{}{
		"operation":        "update_password_with_version",
		"user_id":          userID,
		"password_version": user.PasswordV + 1,
		"timestamp":        logger.NowFormatted(),
	})

	return nil
}

// GetUserPasswordVersion 获取用户密码版本号
func (s *UserService) GetUserPasswordVersion(ctx context.Context, userID uint) (int64, error) {
	if userID == 0 {
		return 0, errors.New("用户ID不能为0")
	}

	return s.userRepo.GetUserPasswordVersion(ctx, userID)
}

// UpdateLastLogin 更新用户最后登录时间与IP
func (s *UserService) UpdateLastLogin(ctx context.Context, userID uint) error {
	if userID == 0 {
		return errors.New("用户ID不能为0")
	}

	clientIP := utils.GetClientIPFromContext(ctx)
	return s.userRepo.UpdateLastLogin(ctx, userID, clientIP)
}

// invalidateUser 失效单个用户的有效权限缓存
func (s *UserService) invalidateUser(ctx context.Context, userID uint) {
	if s.permCache == nil {
		return
	}
	if err := s.permCache.InvalidateUserPermissions(ctx, userID); err != nil {
		logger.LogError(err, "", userID, "", "permission_cache_invalidate", "SERVICE", map[string]interface{}{
			"operation": "invalidate_user_permissions",
			"user_id":   userID,
			"timestamp": logger.NowFormatted(),
		})
	}
}
