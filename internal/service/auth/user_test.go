package auth

import (
	"context"
	"testing"
	"time"

	"openmaas/internal/model"
	pkgauth "openmaas/internal/pkg/auth"
	systemrepo "openmaas/internal/repo/mysql/system"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// newTestUserService 装配用户服务(无Redis依赖)
func newTestUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	userRepo := systemrepo.NewUserRepository(db)
	roleRepo := systemrepo.NewRoleRepository(db)
	passwordManager := pkgauth.NewPasswordManager(nil)
	jwtManager := pkgauth.NewJWTManager("test-secret", "openmaas-test", time.Hour, 24*time.Hour)
	return NewUserService(userRepo, roleRepo, nil, nil, passwordManager, jwtManager), db
}

func TestCreateUser(t *testing.T) {
	svc, db := newTestUserService(t)
	ctx := context.Background()

	role := mustCreateRole(t, db, &model.Role{Name: "member"})

	user, err := svc.CreateUser(ctx, &model.CreateUserRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
		RoleIDs:  []uint{role.ID},
	})
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "secret123", user.Password, "密码必须哈希存储")

	roles, err := svc.GetUserRoles(ctx, user.ID)
	assert.NoError(t, err)
	assert.Len(t, roles, 1)
	assert.Equal(t, "member", roles[0].Name)

	// 用户名重复
	_, err = svc.CreateUser(ctx, &model.CreateUserRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, model.ErrUsernameAlreadyExists)

	// 邮箱重复
	_, err = svc.CreateUser(ctx, &model.CreateUserRequest{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(t, err, model.ErrEmailAlreadyExists)

	// 不存在的角色ID
	_, err = svc.CreateUser(ctx, &model.CreateUserRequest{
		Username: "carol",
		Email:    "carol@example.com",
		Password: "secret123",
		RoleIDs:  []uint{9999},
	})
	assert.ErrorContains(t, err, "角色不存在")
}

func TestAssignUserRolesIdempotent(t *testing.T) {
	svc, db := newTestUserService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "dave", Email: "dave@example.com"})
	role := mustCreateRole(t, db, &model.Role{Name: "analyst"})

	assert.NoError(t, svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "assign"))

	// 重复分配幂等,不产生重复关联
	assert.NoError(t, svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "assign"))

	var linkCount int64
	assert.NoError(t, db.Model(&model.UserRole{}).Where("user_id = ?", user.ID).Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)

	// 移除后再次移除同样幂等
	assert.NoError(t, svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "unassign"))
	assert.NoError(t, svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "unassign"))

	assert.NoError(t, db.Model(&model.UserRole{}).Where("user_id = ?", user.ID).Count(&linkCount).Error)
	assert.Zero(t, linkCount)

	// 非法操作类型
	err := svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "toggle")
	assert.EqualError(t, err, "操作类型无效,必须为assign或unassign")
}

func TestBatchUserRolesPartialFailure(t *testing.T) {
	svc, db := newTestUserService(t)
	ctx := context.Background()

	u1 := mustCreateUser(t, db, &model.User{Username: "eve", Email: "eve@example.com"})
	role := mustCreateRole(t, db, &model.Role{Name: "tester"})

	// 第二个用户不存在,成功1个失败1个
	result, err := svc.BatchUserRoles(ctx, []uint{u1.ID, 9999}, []uint{role.ID}, "assign")
	assert.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []uint{u1.ID}, result.SuccessIDs)
	assert.Equal(t, model.ErrUserNotFound.Error(), result.FailedReason[9999])
}

func TestUpdatePasswordWithVersion(t *testing.T) {
	svc, db := newTestUserService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "frank", Email: "frank@example.com"})

	before, err := svc.GetUserPasswordVersion(ctx, user.ID)
	assert.NoError(t, err)

	assert.NoError(t, svc.UpdatePasswordWithVersion(ctx, user.ID, "newsecret123"))

	// 密码版本递增,携带旧版本号的令牌随之失效
	after, err := svc.GetUserPasswordVersion(ctx, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, before+1, after)

	// 新密码生效
	got, err := svc.GetUserByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.NotEqual(t, user.Password, got.Password)
}

func TestDeleteUserCleansRoleLinks(t *testing.T) {
	svc, db := newTestUserService(t)
	ctx := context.Background()

	user := mustCreateUser(t, db, &model.User{Username: "grace", Email: "grace@example.com"})
	role := mustCreateRole(t, db, &model.Role{Name: "cleanup_target"})
	assert.NoError(t, svc.AssignUserRoles(ctx, user.ID, []uint{role.ID}, "assign"))

	assert.NoError(t, svc.DeleteUser(ctx, user.ID))

	var linkCount int64
	assert.NoError(t, db.Model(&model.UserRole{}).Where("user_id = ?", user.ID).Count(&linkCount).Error)
	assert.Zero(t, linkCount)

	_, err := svc.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestRegister(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &model.RegisterRequest{
		Username: "newcomer",
		Email:    "newcomer@example.com",
		Password: "welcome123",
	})
	assert.NoError(t, err)
	assert.NotNil(t, resp.User)
	assert.NotZero(t, resp.User.ID)

	// 注册后的用户处于启用状态
	user, err := svc.GetUserByUsername(ctx, "newcomer")
	assert.NoError(t, err)
	assert.Equal(t, model.UserStatusEnabled, user.Status)
}
