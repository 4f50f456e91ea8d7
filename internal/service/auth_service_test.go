package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/session"
	"course-catalog/pkg/jwt"
	"course-catalog/pkg/redis"
)

type authFixture struct {
	svc      AuthService
	repos    *testRepos
	jwtMgr   *jwt.Manager
	sessions session.Store
	rdb      *redis.Client
	cfg      *config.Config
}

func setupTestAuthService(t *testing.T, demo config.DemoConfig) *authFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}), testLogger())

	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret-key-1234567890", AccessTokenTTL: time.Hour},
		Demo: demo,
	}
	repos := newTestRepos()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	sessions := session.NewMemoryStore(time.Hour)
	seeder := NewAccountSeeder(&cfg.Demo, repos.repo, testLogger())

	return &authFixture{
		svc:      NewAuthService(cfg, repos.repo, jwtMgr, sessions, rdb, seeder, testLogger()),
		repos:    repos,
		jwtMgr:   jwtMgr,
		sessions: sessions,
		rdb:      rdb,
		cfg:      cfg,
	}
}

// addUser 建立带 bcrypt 密码的账号
func (f *authFixture) addUser(t *testing.T, username, password, role string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt 失败: %v", err)
	}
	u := &model.User{Username: username, PasswordHash: string(hash), Role: role, IsActive: true}
	if err := f.repos.users.Create(context.Background(), u); err != nil {
		t.Fatalf("建立账号失败: %v", err)
	}
	return u
}

func TestLogin_Success(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	ctx := context.Background()
	f.addUser(t, "ben", "secret", model.RoleStudent)

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ben", Password: "secret", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}

	claims, err := f.jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("Token 无法解析: %v", err)
	}
	if claims.Role != model.RoleStudent || claims.UserID != "user-ben" {
		t.Errorf("Token 声明不符: %+v", claims)
	}
	if _, err := f.sessions.Load(ctx, claims.SessionID); err != nil {
		t.Errorf("登录后应建立会话: %v", err)
	}
	// 以学生身分登录会补齐学生资料
	if !resp.User.IsStudent || resp.User.RoleName != RoleNameStudent {
		t.Errorf("登录者资讯不符: %+v", resp.User)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d", resp.ExpiresIn)
	}
}

func TestLogin_NewSessionEachTime(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	f.addUser(t, "ben", "secret", model.RoleStudent)
	req := &dto.LoginRequest{Username: "ben", Password: "secret", Role: model.RoleStudent}

	a, err := f.svc.Login(context.Background(), req)
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	b, err := f.svc.Login(context.Background(), req)
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	ca, _ := f.jwtMgr.ParseToken(a.AccessToken)
	cb, _ := f.jwtMgr.ParseToken(b.AccessToken)
	if ca.SessionID == cb.SessionID {
		t.Error("每次登录应建立新会话")
	}
}

func TestLogin_Failures(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	f.addUser(t, "ben", "secret", model.RoleStudent)
	disabled := f.addUser(t, "old", "secret", model.RoleStudent)
	disabled.IsActive = false

	tests := []struct {
		name string
		req  dto.LoginRequest
		want error
	}{
		{"账号不存在", dto.LoginRequest{Username: "nobody", Password: "x", Role: "student"}, ErrInvalidCredentials},
		{"密码错误", dto.LoginRequest{Username: "ben", Password: "wrong", Role: "student"}, ErrInvalidCredentials},
		{"账号停用", dto.LoginRequest{Username: "old", Password: "secret", Role: "student"}, ErrUserDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Login(context.Background(), &tt.req); !errors.Is(err, tt.want) {
				t.Errorf("预期 %v，实际 %v", tt.want, err)
			}
		})
	}
}

func TestLogin_AsTeacherCreatesProfile(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	u := f.addUser(t, "dora", "pw", model.RoleTeacher)
	u.DisplayName = "中岳"

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "dora", Password: "pw", Role: model.RoleTeacher})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	if !resp.User.IsTeacher || resp.User.RoleName != RoleNameTeacher || resp.User.DisplayName != "中岳" {
		t.Errorf("登录者资讯不符: %+v", resp.User)
	}
}

func TestLogout_BlacklistsAndDeletesSession(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	ctx := context.Background()
	f.addUser(t, "ben", "secret", model.RoleStudent)

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ben", Password: "secret", Role: model.RoleStudent})
	if err != nil {
		t.Fatalf("登录失败: %v", err)
	}
	claims, _ := f.jwtMgr.ParseToken(resp.AccessToken)

	if err := f.svc.Logout(ctx, claims); err != nil {
		t.Fatalf("登出失败: %v", err)
	}
	if black, err := f.rdb.IsBlacklisted(ctx, claims.ID); err != nil || !black {
		t.Errorf("Token 应进入黑名单: black=%v err=%v", black, err)
	}
	if _, err := f.sessions.Load(ctx, claims.SessionID); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("会话应已删除，实际 %v", err)
	}
}

func TestDemoLogin(t *testing.T) {
	demo := config.DemoConfig{
		AutoLogin:       true,
		StudentUsername: "ben",
		TeacherUsername: "dora",
		Accounts: []config.DemoAccount{
			{Role: "teacher", Username: "dora", Password: "a", DisplayName: "中岳"},
			{Role: "student", Username: "ben", Password: "a", DisplayName: "童國原", StudentID: "122214132"},
		},
	}
	f := setupTestAuthService(t, demo)

	resp, err := f.svc.DemoLogin(context.Background(), model.RoleTeacher)
	if err != nil {
		t.Fatalf("演示登录失败: %v", err)
	}
	claims, _ := f.jwtMgr.ParseToken(resp.AccessToken)
	if claims.Role != model.RoleTeacher || resp.User.Username != "dora" {
		t.Errorf("应以老师身分登录: role=%s user=%s", claims.Role, resp.User.Username)
	}

	resp, err = f.svc.DemoLogin(context.Background(), "")
	if err != nil {
		t.Fatalf("演示登录失败: %v", err)
	}
	if resp.User.Username != "ben" || !resp.User.IsStudent {
		t.Errorf("默认应以学生身分登录: %+v", resp.User)
	}
}

func TestDemoLogin_Disabled(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	if _, err := f.svc.DemoLogin(context.Background(), "student"); !errors.Is(err, ErrDemoDisabled) {
		t.Errorf("预期 ErrDemoDisabled，实际 %v", err)
	}
}

func TestMe_UserWithoutProfile(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	f.addUser(t, "plain", "pw", model.RoleStudent)

	me, err := f.svc.Me(context.Background(), "user-plain")
	if err != nil {
		t.Fatalf("Me 失败: %v", err)
	}
	if me.RoleName != RoleNameUser || me.DisplayName != "plain" || me.IsStudent || me.IsTeacher {
		t.Errorf("无身分资料时资讯不符: %+v", me)
	}

	if _, err := f.svc.Me(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("预期 ErrUserNotFound，实际 %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	f := setupTestAuthService(t, config.DemoConfig{})
	ctx := context.Background()
	f.addUser(t, "ben", "old", model.RoleStudent)

	if err := f.svc.ChangePassword(ctx, "user-ben", &dto.ChangePasswordRequest{}); !errors.Is(err, ErrPasswordEmpty) {
		t.Errorf("预期 ErrPasswordEmpty，实际 %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "user-ben", &dto.ChangePasswordRequest{NewPassword: "a", ConfirmPassword: "b"}); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("预期 ErrPasswordMismatch，实际 %v", err)
	}
	if err := f.svc.ChangePassword(ctx, "user-ben", &dto.ChangePasswordRequest{NewPassword: "new", ConfirmPassword: "new"}); err != nil {
		t.Fatalf("修改密码失败: %v", err)
	}

	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ben", Password: "new", Role: "student"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}
