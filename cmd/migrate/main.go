/*
*
  - 数据库迁移工具
  - @author: linkc
  - @date: 2025.12.03
  - @description: 数据库模型迁移和系统数据初始化工具
  - @usage: go run main.go -env=test -seed=true -drop=true
    -drop
    是否先删除表（危险操作）
    -env string
    环境标识 (test, dev, prod) (default "test")
    -seed
    是否填充系统初始数据 (default true)
    -verbose
    是否显示详细日志

示例:
main.exe -env=test -seed=true    # 测试环境迁移并填充系统数据
main.exe -env=prod -seed=false   # 生产环境仅迁移表结构
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"openmaas/internal/config"
	"openmaas/internal/model"
	"openmaas/internal/pkg/auth"
	"openmaas/internal/pkg/database"
	"openmaas/internal/pkg/logger"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MigrateOptions 迁移选项配置
type MigrateOptions struct {
	Environment string // 环境标识: test, dev, prod
	SeedData    bool   // 是否填充系统初始数据
	DropFirst   bool   // 是否先删除表（危险操作）
	Verbose     bool   // 是否显示详细日志
}

// DataSeeder 系统数据填充器
// 全部采用 FirstOrCreate，重复执行不会产生脏数据
type DataSeeder struct {
	db  *gorm.DB
	env string
	log *logger.LoggerManager
}

func main() {
	// 解析命令行参数
	opts := parseFlags()

	// 加载配置
	cfg, err := config.LoadConfig("", opts.Environment)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	// 初始化日志管理器
	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":        "cmd/migrate/main.go",
		"operation":   "database_migration",
		"option":      "migrate.start",
		"func_name":   "main",
		"environment": opts.Environment,
		"seed_data":   opts.SeedData,
		"drop_first":  opts.DropFirst,
	}).Info("开始数据库迁移")

	// 初始化数据库连接
	db, err := database.NewMySQLConnection(&cfg.Database.MySQL)
	if err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_connection",
			"option":    "database.NewMySQLConnection",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库连接失败")
	}

	// 执行迁移
	if err := performMigration(db, opts, logManager); err != nil {
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "database_migration",
			"option":    "performMigration",
			"func_name": "main",
			"error":     err.Error(),
		}).Fatal("数据库迁移失败")
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "database_migration",
		"option":    "migrate.complete",
		"func_name": "main",
	}).Info("数据库迁移完成")
}

// parseFlags 解析命令行参数
func parseFlags() *MigrateOptions {
	opts := &MigrateOptions{}

	flag.StringVar(&opts.Environment, "env", "test", "环境标识 (test, dev, prod)")
	flag.BoolVar(&opts.SeedData, "seed", true, "是否填充系统初始数据")
	flag.BoolVar(&opts.DropFirst, "drop", false, "是否先删除表（危险操作）")
	flag.BoolVar(&opts.Verbose, "verbose", false, "是否显示详细日志")
	flag.Parse()

	// 生产环境禁止删表
	if opts.Environment == "prod" && opts.DropFirst {
		fmt.Println("错误: 生产环境不允许删除表操作")
		os.Exit(1)
	}

	return opts
}

// performMigration 执行数据库迁移
func performMigration(db *gorm.DB, opts *MigrateOptions, logManager *logger.LoggerManager) error {
	// 危险操作：先删除表
	if opts.DropFirst {
		if err := dropTables(db, logManager); err != nil {
			return fmt.Errorf("删除表失败: %w", err)
		}
	}

	// 迁移表结构
	if err := migrateModels(db, logManager); err != nil {
		return fmt.Errorf("迁移表结构失败: %w", err)
	}

	// 填充系统数据
	if opts.SeedData {
		seeder := &DataSeeder{db: db, env: opts.Environment, log: logManager}
		if err := seeder.SeedAll(); err != nil {
			return fmt.Errorf("填充系统数据失败: %w", err)
		}
	}

	return nil
}

// dropTables 删除所有业务表（按依赖关系逆序）
func dropTables(db *gorm.DB, logManager *logger.LoggerManager) error {
	tables := []interface{}{
		&model.UserRole{},
		&model.RolePermission{},
		&model.MenuConfig{},
		&model.Permission{},
		&model.Role{},
		&model.User{},
	}

	for _, table := range tables {
		if err := db.Migrator().DropTable(table); err != nil {
			return err
		}
	}

	logManager.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "drop_tables",
		"option":    "db.Migrator().DropTable",
		"func_name": "dropTables",
		"count":     len(tables),
	}).Warn("已删除全部业务表")

	return nil
}

// migrateModels 迁移所有数据模型
func migrateModels(db *gorm.DB, logManager *logger.LoggerManager) error {
	models := []interface{}{
		&model.User{},
		&model.Role{},
		&model.Permission{},
		&model.UserRole{},
		&model.RolePermission{},
		&model.MenuConfig{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("迁移模型 %T 失败: %w", m, err)
		}
		logManager.GetLogger().WithFields(logrus.Fields{
			"path":      "cmd/migrate/main.go",
			"operation": "migrate_model",
			"option":    "db.AutoMigrate",
			"func_name": "migrateModels",
			"model":     fmt.Sprintf("%T", m),
		}).Info("模型迁移成功")
	}

	return nil
}

// SeedAll 填充全部系统初始数据
// 顺序：权限 -> 角色 -> 角色权限 -> 管理员用户 -> 菜单
func (s *DataSeeder) SeedAll() error {
	permissions, err := s.seedPermissions()
	if err != nil {
		return fmt.Errorf("填充权限失败: %w", err)
	}

	roles, err := s.seedRoles()
	if err != nil {
		return fmt.Errorf("填充角色失败: %w", err)
	}

	if err := s.seedRolePermissions(roles, permissions); err != nil {
		return fmt.Errorf("填充角色权限关联失败: %w", err)
	}

	if err := s.seedAdminUser(roles); err != nil {
		return fmt.Errorf("填充管理员用户失败: %w", err)
	}

	if err := s.seedMenuTree(); err != nil {
		return fmt.Errorf("填充菜单配置失败: %w", err)
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_data",
		"option":    "seeder.SeedAll",
		"func_name": "SeedAll",
		"env":       s.env,
	}).Info("系统初始数据填充完成")

	return nil
}

// permissionSeed 权限种子定义
type permissionSeed struct {
	Name        string
	DisplayName string
	Module      string
	Resource    string
	Action      string
	Parent      string // 父权限名称，空为根
}

// seedPermissions 填充系统权限
// 权限名称采用点分格式，父节点为模块级权限
func (s *DataSeeder) seedPermissions() (map[string]*model.Permission, error) {
	seeds := []permissionSeed{
		// 用户管理
		{Name: "user", DisplayName: "用户管理", Module: "user", Resource: "user", Action: ""},
		{Name: "user.view", DisplayName: "查看用户", Module: "user", Resource: "user", Action: "view", Parent: "user"},
		{Name: "user.create", DisplayName: "创建用户", Module: "user", Resource: "user", Action: "create", Parent: "user"},
		{Name: "user.update", DisplayName: "更新用户", Module: "user", Resource: "user", Action: "update", Parent: "user"},
		{Name: "user.delete", DisplayName: "删除用户", Module: "user", Resource: "user", Action: "delete", Parent: "user"},
		{Name: "user.assign_role", DisplayName: "分配用户角色", Module: "user", Resource: "user", Action: "assign_role", Parent: "user"},
		// 角色管理
		{Name: "role", DisplayName: "角色管理", Module: "role", Resource: "role", Action: ""},
		{Name: "role.view", DisplayName: "查看角色", Module: "role", Resource: "role", Action: "view", Parent: "role"},
		{Name: "role.create", DisplayName: "创建角色", Module: "role", Resource: "role", Action: "create", Parent: "role"},
		{Name: "role.update", DisplayName: "更新角色", Module: "role", Resource: "role", Action: "update", Parent: "role"},
		{Name: "role.delete", DisplayName: "删除角色", Module: "role", Resource: "role", Action: "delete", Parent: "role"},
		{Name: "role.assign_permission", DisplayName: "分配角色权限", Module: "role", Resource: "role", Action: "assign_permission", Parent: "role"},
		// 权限管理
		{Name: "permission", DisplayName: "权限管理", Module: "permission", Resource: "permission", Action: ""},
		{Name: "permission.view", DisplayName: "查看权限", Module: "permission", Resource: "permission", Action: "view", Parent: "permission"},
		{Name: "permission.create", DisplayName: "创建权限", Module: "permission", Resource: "permission", Action: "create", Parent: "permission"},
		{Name: "permission.update", DisplayName: "更新权限", Module: "permission", Resource: "permission", Action: "update", Parent: "permission"},
		{Name: "permission.delete", DisplayName: "删除权限", Module: "permission", Resource: "permission", Action: "delete", Parent: "permission"},
		// 菜单管理
		{Name: "menu", DisplayName: "菜单管理", Module: "menu", Resource: "menu", Action: ""},
		{Name: "menu.view", DisplayName: "查看菜单配置", Module: "menu", Resource: "menu", Action: "view", Parent: "menu"},
		{Name: "menu.manage", DisplayName: "管理菜单配置", Module: "menu", Resource: "menu", Action: "manage", Parent: "menu"},
	}

	created := make(map[string]*model.Permission, len(seeds))
	for _, seed := range seeds {
		perm := &model.Permission{
			Name:        seed.Name,
			DisplayName: seed.DisplayName,
			Module:      seed.Module,
			Resource:    seed.Resource,
			Action:      seed.Action,
			IsSystem:    true,
			Status:      model.PermissionStatusEnabled,
			Version:     1,
		}
		if seed.Parent != "" {
			parent, ok := created[seed.Parent]
			if !ok {
				return nil, fmt.Errorf("权限 %s 的父权限 %s 尚未创建", seed.Name, seed.Parent)
			}
			perm.ParentID = &parent.ID
		}
		if err := s.db.Where("name = ?", seed.Name).FirstOrCreate(perm).Error; err != nil {
			return nil, err
		}
		created[seed.Name] = perm
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_permissions",
		"option":    "db.FirstOrCreate",
		"func_name": "seedPermissions",
		"count":     len(created),
	}).Info("系统权限填充完成")

	return created, nil
}

// seedRoles 填充系统角色
func (s *DataSeeder) seedRoles() (map[string]*model.Role, error) {
	seeds := []*model.Role{
		{
			Name:        "super_admin",
			DisplayName: "超级管理员",
			Description: "平台超级管理员，拥有全部权限",
			RoleType:    model.RoleTypeSystem,
			IsSystem:    true,
			Status:      model.RoleStatusEnabled,
			Version:     1,
		},
		{
			Name:        "admin",
			DisplayName: "管理员",
			Description: "平台管理员，负责用户与权限管理",
			RoleType:    model.RoleTypeSystem,
			IsSystem:    true,
			Status:      model.RoleStatusEnabled,
			Version:     1,
		},
		{
			Name:        "user",
			DisplayName: "普通用户",
			Description: "平台普通用户",
			RoleType:    model.RoleTypeSystem,
			IsSystem:    true,
			Status:      model.RoleStatusEnabled,
			Version:     1,
		},
	}

	created := make(map[string]*model.Role, len(seeds))
	for _, role := range seeds {
		if err := s.db.Where("name = ?", role.Name).FirstOrCreate(role).Error; err != nil {
			return nil, err
		}
		created[role.Name] = role
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_roles",
		"option":    "db.FirstOrCreate",
		"func_name": "seedRoles",
		"count":     len(created),
	}).Info("系统角色填充完成")

	return created, nil
}

// seedRolePermissions 填充角色权限关联
// super_admin 与 admin 获得全部权限，user 仅获得查看类权限
func (s *DataSeeder) seedRolePermissions(roles map[string]*model.Role, permissions map[string]*model.Permission) error {
	grants := map[string][]string{
		"super_admin": allPermissionNames(permissions),
		"admin":       allPermissionNames(permissions),
		"user":        {"user.view", "menu.view"},
	}

	for roleName, permNames := range grants {
		role, ok := roles[roleName]
		if !ok {
			continue
		}
		for _, permName := range permNames {
			perm, ok := permissions[permName]
			if !ok {
				return fmt.Errorf("角色 %s 引用了不存在的权限 %s", roleName, permName)
			}
			link := &model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}
			if err := s.db.Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).
				FirstOrCreate(link).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// allPermissionNames 收集全部权限名称
func allPermissionNames(permissions map[string]*model.Permission) []string {
	names := make([]string, 0, len(permissions))
	for name := range permissions {
		names = append(names, name)
	}
	return names
}

// seedAdminUser 填充初始管理员用户并绑定 super_admin 角色
func (s *DataSeeder) seedAdminUser(roles map[string]*model.Role) error {
	passwordManager := auth.NewPasswordManager(nil)
	hashed, err := passwordManager.HashPassword("admin@123")
	if err != nil {
		return fmt.Errorf("管理员密码哈希失败: %w", err)
	}

	admin := &model.User{
		Username:  "admin",
		Email:     "admin@openmaas.local",
		Password:  hashed,
		PasswordV: 1,
		Nickname:  "系统管理员",
		IsAdmin:   true,
		Status:    model.UserStatusEnabled,
	}
	if err := s.db.Where("username = ?", admin.Username).FirstOrCreate(admin).Error; err != nil {
		return err
	}

	if superAdmin, ok := roles["super_admin"]; ok {
		link := &model.UserRole{
			UserID:     admin.ID,
			RoleID:     superAdmin.ID,
			AssignedAt: time.Now(),
			AssignedBy: admin.ID,
		}
		if err := s.db.Where("user_id = ? AND role_id = ?", admin.ID, superAdmin.ID).
			FirstOrCreate(link).Error; err != nil {
			return err
		}

		// 维护角色的派生用户计数
		if err := s.db.Model(&model.Role{}).Where("id = ? AND user_count = 0", superAdmin.ID).
			Update("user_count", 1).Error; err != nil {
			return err
		}
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_admin_user",
		"option":    "db.FirstOrCreate",
		"func_name": "seedAdminUser",
		"username":  admin.Username,
	}).Info("初始管理员用户填充完成")

	return nil
}

// seedMenuTree 填充默认菜单树
// 仪表盘对所有登录用户可见，系统管理各页面按权限控制
func (s *DataSeeder) seedMenuTree() error {
	nodes := []*model.MenuConfig{
		{
			Key:                 "dashboard",
			DisplayName:         "仪表盘",
			NodeType:            model.NodeTypeMenu,
			MenuPath:            "/dashboard",
			RequiredPermissions: model.StringList{},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           0,
			Version:             1,
		},
		{
			Key:                 "system",
			DisplayName:         "系统管理",
			NodeType:            model.NodeTypeModule,
			RequiredPermissions: model.StringList{"user.view", "role.view", "permission.view", "menu.view"},
			PermissionLogic:     model.PermissionLogicOR,
			IsVisible:           true,
			SortOrder:           100,
			Version:             1,
		},
		{
			Key:                 "system_users",
			DisplayName:         "用户管理",
			NodeType:            model.NodeTypeMenu,
			ParentKey:           "system",
			MenuPath:            "/system/users",
			RequiredPermissions: model.StringList{"user.view"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           10,
			Version:             1,
		},
		{
			Key:                 "system_roles",
			DisplayName:         "角色管理",
			NodeType:            model.NodeTypeMenu,
			ParentKey:           "system",
			MenuPath:            "/system/roles",
			RequiredPermissions: model.StringList{"role.view"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           20,
			Version:             1,
		},
		{
			Key:                 "system_permissions",
			DisplayName:         "权限管理",
			NodeType:            model.NodeTypeMenu,
			ParentKey:           "system",
			MenuPath:            "/system/permissions",
			RequiredPermissions: model.StringList{"permission.view"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           30,
			Version:             1,
		},
		{
			Key:                 "system_menus",
			DisplayName:         "菜单配置",
			NodeType:            model.NodeTypeMenu,
			ParentKey:           "system",
			MenuPath:            "/system/menus",
			RequiredPermissions: model.StringList{"menu.view"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           40,
			Version:             1,
		},
		{
			Key:                 "system_users_create_btn",
			DisplayName:         "创建用户按钮",
			NodeType:            model.NodeTypeButton,
			ParentKey:           "system_users",
			RequiredPermissions: model.StringList{"user.create"},
			PermissionLogic:     model.PermissionLogicAND,
			IsVisible:           true,
			SortOrder:           0,
			Version:             1,
		},
	}

	for _, node := range nodes {
		if err := s.db.Where("node_key = ?", node.Key).FirstOrCreate(node).Error; err != nil {
			return err
		}
	}

	s.log.GetLogger().WithFields(logrus.Fields{
		"path":      "cmd/migrate/main.go",
		"operation": "seed_menu_tree",
		"option":    "db.FirstOrCreate",
		"func_name": "seedMenuTree",
		"count":     len(nodes),
	}).Info("默认菜单树填充完成")

	return nil
}
