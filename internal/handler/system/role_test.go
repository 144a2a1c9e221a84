package system

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"openmaas/internal/model"
	systemrepo "openmaas/internal/repo/mysql/system"
	authservice "openmaas/internal/service/auth"

	"github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// newRoleTestRouter 装配角色管理路由(内存数据库,无权限缓存)
func newRoleTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
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

	roleService := authservice.NewRoleService(
		systemrepo.NewRoleRepository(db),
		systemrepo.NewPermissionRepository(db),
		nil,
	)
	handler := NewRoleHandler(roleService)

	r := gin.New()
	admin := r.Group("/api/v1/admin")
	admin.POST("/roles", handler.CreateRole)
	admin.GET("/roles", handler.GetRoles)
	admin.GET("/roles/:id", handler.GetRole)
	admin.DELETE("/roles/:id", handler.DeleteRole)
	return r, db
}

// doJSON 发送JSON请求并解析响应信封
func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (int, *model.APIResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("编码请求体失败: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp model.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应信封失败: %v (body=%s)", err, w.Body.String())
	}
	return w.Code, &resp
}

func TestCreateRoleEndpoint(t *testing.T) {
	r, _ := newRoleTestRouter(t)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/admin/roles", &model.CreateRoleRequest{
		Name:        "auditor",
		DisplayName: "审计员",
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "角色创建成功", resp.Message)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, "auditor", data["name"])
}

func TestCreateRoleEndpointInvalidName(t *testing.T) {
	r, _ := newRoleTestRouter(t)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/admin/roles", &model.CreateRoleRequest{
		Name: "123invalid",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "角色名称只能包含字母、数字和下划线，且必须以字母开头", resp.Error)
}

func TestCreateRoleEndpointDuplicateName(t *testing.T) {
	r, _ := newRoleTestRouter(t)

	status, _ := doJSON(t, r, http.MethodPost, "/api/v1/admin/roles", &model.CreateRoleRequest{Name: "ops"})
	assert.Equal(t, http.StatusCreated, status)

	status, resp := doJSON(t, r, http.MethodPost, "/api/v1/admin/roles", &model.CreateRoleRequest{Name: "ops"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "角色名称已存在", resp.Error)
}

func TestDeleteRoleEndpointSystemProtection(t *testing.T) {
	r, db := newRoleTestRouter(t)

	role := &model.Role{
		Name: "super_admin", RoleType: model.RoleTypeSystem, IsSystem: true,
		Status: model.RoleStatusEnabled, Version: 1,
	}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("创建系统角色失败: %v", err)
	}

	status, resp := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/roles/%d", role.ID), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "系统角色不能被删除", resp.Error)
}

func TestDeleteRoleEndpointNotFound(t *testing.T) {
	r, _ := newRoleTestRouter(t)

	status, resp := doJSON(t, r, http.MethodDelete, "/api/v1/admin/roles/9999", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "角色不存在", resp.Error)
}

func TestGetRolesEndpointPagination(t *testing.T) {
	r, db := newRoleTestRouter(t)

	for i := 1; i <= 3; i++ {
		role := &model.Role{
			Name: fmt.Sprintf("role_%d", i), RoleType: model.RoleTypeCustom,
			Status: model.RoleStatusEnabled, Version: 1,
		}
		if err := db.Create(role).Error; err != nil {
			t.Fatalf("创建测试角色失败: %v", err)
		}
	}

	status, resp := doJSON(t, r, http.MethodGet, "/api/v1/admin/roles?page=1&page_size=2", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	assert.True(t, ok)
	roles, ok := data["roles"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, roles, 2)

	pagination, ok := data["pagination"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["total_pages"])
	assert.Equal(t, true, pagination["has_next"])
}
