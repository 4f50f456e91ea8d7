package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: test-secret-0123456789\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Catalog.HeaderRow != 5 || cfg.Catalog.BatchSize != 300 {
		t.Errorf("导入默认值不符: %+v", cfg.Catalog)
	}
	if cfg.Personal.Semester != "1141" || cfg.Personal.ClassGroup != "A0" {
		t.Errorf("个人课表默认值不符: %+v", cfg.Personal)
	}
	if diff := cmp.Diff(DefaultRequiredRules(), cfg.Personal.RequiredRules); diff != "" {
		t.Errorf("必修规则默认值不符 (-want +got):\n%s", diff)
	}
	if cfg.Catalog.Buildings["F"] == "" {
		t.Errorf("教室首字母应为大写键: %v", cfg.Catalog.Buildings)
	}
	if len(cfg.Demo.Accounts) != 2 {
		t.Errorf("应补齐两个演示账号，实际 %d", len(cfg.Demo.Accounts))
	}
}

func TestLoad_RequiredRulesFromFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: test-secret-0123456789
personal:
  required_rules:
    - keyword: 資料庫
      department_code: "22140"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	want := []RequiredRule{{Keyword: "資料庫", DepartmentCode: "22140"}}
	if diff := cmp.Diff(want, cfg.Personal.RequiredRules); diff != "" {
		t.Errorf("必修规则不符 (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: test-secret-0123456789\n")
	t.Setenv("COURSE_SERVER_PORT", "9090")
	t.Setenv("COURSE_SESSION_DRIVER", "memory")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("环境变量应覆盖端口，实际 %d", cfg.Server.Port)
	}
	if cfg.Session.Driver != "memory" {
		t.Errorf("环境变量应覆盖会话驱动，实际 %q", cfg.Session.Driver)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("缺少 jwt_secret 应报错，实际 %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Auth:     AuthConfig{JWTSecret: "test-secret-0123456789"},
			Session:  SessionConfig{Driver: "redis"},
			Catalog:  CatalogConfig{HeaderRow: 5, BatchSize: 300},
			Personal: PersonalConfig{SemesterStart: "2025-09-08", RequiredRules: DefaultRequiredRules()},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"合法", func(c *Config) {}, ""},
		{"密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"未知会话驱动", func(c *Config) { c.Session.Driver = "file" }, "session.driver"},
		{"空白关键字", func(c *Config) { c.Personal.RequiredRules = []RequiredRule{{Keyword: " "}} }, "keyword"},
		{"学期起始日格式", func(c *Config) { c.Personal.SemesterStart = "2025/09/08" }, "semester_start"},
		{"批量大小", func(c *Config) { c.Catalog.BatchSize = 0 }, "batch_size"},
		{"表头列", func(c *Config) { c.Catalog.HeaderRow = 0 }, "header_row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("不应报错: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望错误包含 %q，实际 %v", tt.wantErr, err)
			}
		})
	}
}
