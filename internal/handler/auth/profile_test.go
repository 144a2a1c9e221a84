package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"openmaas/internal/model"
	pkgauth "openmaas/internal/pkg/auth"
	systemrepo "openmaas/internal/repo/mysql/system"
	authservice "openmaas/internal/service/auth"

	"github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// newProfileTestRouter 装配当前用户信息路由,返回路由与已登录用户的访问令牌
func newProfileTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.UserRole{},
		&model.RolePermission{},
	); err != nil {
		t.Fatalf("迁移测试表结构失败: %v", err)
	}

	passwordManager := pkgauth.NewPasswordManager(nil)
	jwtManager := pkgauth.NewJWTManager("test-secret", "openmaas-test", time.Hour, 24*time.Hour)
	userService := authservice.NewUserService(
		systemrepo.NewUserRepository(db),
		systemrepo.NewRoleRepository(db),
		nil,
		nil,
		passwordManager,
		jwtManager,
	)
	handler := NewProfileHandler(userService, nil)

	user := &model.User{
		Username:  "profile_user",
		Email:     "profile@example.com",
		Password:  "$argon2id$test",
		PasswordV: 1,
		Status:    model.UserStatusEnabled,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}

	token, err := jwtManager.GenerateAccessToken(user.ID, user.Username, user.Email, false, 1, nil)
	if err != nil {
		t.Fatalf("生成访问令牌失败: %v", err)
	}

	r := gin.New()
	r.GET("/api/v1/user/profile", handler.GetProfile)
	return r, token
}

// getProfile 请求当前用户信息接口并解析响应信封
func getProfile(t *testing.T, r *gin.Engine, authHeader string) (int, *model.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user/profile", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp model.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应信封失败: %v (body=%s)", err, w.Body.String())
	}
	return w.Code, &resp
}

func TestGetProfileEndpoint(t *testing.T) {
	r, token := newProfileTestRouter(t)

	status, resp := getProfile(t, r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "获取成功", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "profile_user", data["username"])
	assert.Equal(t, "profile@example.com", data["email"])
}

func TestGetProfileEndpointMissingToken(t *testing.T) {
	r, _ := newProfileTestRouter(t)

	status, resp := getProfile(t, r, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "未携带有效的访问令牌", resp.Message)
}

func TestGetProfileEndpointMalformedHeader(t *testing.T) {
	r, _ := newProfileTestRouter(t)

	// 缺少Bearer前缀的令牌视同未携带
	status, resp := getProfile(t, r, "some-raw-token")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "error", resp.Status)
}

func TestGetProfileEndpointInvalidToken(t *testing.T) {
	r, _ := newProfileTestRouter(t)

	status, resp := getProfile(t, r, "Bearer not.a.valid.token")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "获取用户信息失败", resp.Message)
}
