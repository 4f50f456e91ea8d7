package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
	"course-catalog/internal/session"
	"course-catalog/pkg/jwt"
	"course-catalog/pkg/redis"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials = errors.New("帳號或密碼錯誤")
	ErrUserNotFound       = errors.New("使用者不存在")
	ErrUserDisabled       = errors.New("帳號已停用")
	ErrDemoDisabled       = errors.New("未開啟 DEMO 一鍵登入")
	ErrDemoAccountMissing = errors.New("找不到 DEMO 帳號，請確認已開啟帳號補齊")
	ErrPasswordEmpty      = errors.New("新密碼不能為空白。")
	ErrPasswordMismatch   = errors.New("新密碼與確認密碼不一致。")
)

// 显示用角色名称
const (
	RoleNameTeacher = "老師"
	RoleNameStudent = "學生"
	RoleNameUser    = "使用者"
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	DemoLogin(ctx context.Context, as string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*dto.MeResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg      *config.Config
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	sessions session.Store
	rdb      *redis.Client // 可为 nil：不写黑名单
	seeder   *AccountSeeder
	logger   *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	sessions session.Store,
	rdb *redis.Client,
	seeder *AccountSeeder,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:      cfg,
		repo:     repo,
		jwtMgr:   jwtMgr,
		sessions: sessions,
		rdb:      rdb,
		seeder:   seeder,
		logger:   logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	if err := s.seeder.EnsureDefaults(ctx); err != nil {
		s.logger.Warn("演示账号补齐失败，继续登录流程", zap.Error(err))
	}

	// 1. 查询账号
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	// 3. 按登录身分补齐教师/学生资料
	if err := s.ensureRoleProfile(ctx, user, req.Role); err != nil {
		return nil, err
	}

	return s.issue(ctx, user, req.Role)
}

// ────────────────────── DemoLogin ──────────────────────

func (s *authService) DemoLogin(ctx context.Context, as string) (*dto.TokenResponse, error) {
	if !s.cfg.Demo.AutoLogin {
		return nil, ErrDemoDisabled
	}
	if err := s.seeder.EnsureDefaults(ctx); err != nil {
		return nil, err
	}

	username, role := s.cfg.Demo.StudentUsername, model.RoleStudent
	if as == model.RoleTeacher {
		username, role = s.cfg.Demo.TeacherUsername, model.RoleTeacher
	}

	user, err := s.repo.User.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDemoAccountMissing
		}
		s.logger.Error("查询演示账号失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	if err := s.ensureRoleProfile(ctx, user, role); err != nil {
		return nil, err
	}
	return s.issue(ctx, user, role)
}

// issue 建立新会话并签发绑定会话的 Token
func (s *authService) issue(ctx context.Context, user *model.User, role string) (*dto.TokenResponse, error) {
	sid := uuid.New().String()
	sess := session.New(sid, user.UserID, time.Now().Add(s.sessions.TTL()))
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error("建立会话失败", zap.Error(err))
		return nil, err
	}

	token, err := s.jwtMgr.GenerateAccessToken(user.UserID, role, sid)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	me, err := s.Me(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录", zap.String("user_id", user.UserID), zap.String("role", role))
	return &dto.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:        *me,
	}, nil
}

// ensureRoleProfile 以某身分登录时，缺少对应资料则自动建立
func (s *authService) ensureRoleProfile(ctx context.Context, user *model.User, role string) error {
	switch role {
	case model.RoleStudent:
		if user.Student != nil {
			return nil
		}
		ok, err := s.repo.Student.ExistsByUserID(ctx, user.UserID)
		if err != nil || ok {
			return err
		}
		studentNo := firstNonBlank(user.Username, "demo")
		if st, err := s.repo.Student.GetByStudentNo(ctx, studentNo); err == nil {
			if st.UserID == nil {
				st.UserID = &user.UserID
				return s.repo.Student.Update(ctx, st)
			}
			// 学号已被其他账号使用，以 user_id 生成唯一学号
			studentNo = "u-" + user.UserID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.repo.Student.Create(ctx, &model.Student{
			UserID:    &user.UserID,
			StudentNo: studentNo,
			Name:      firstNonBlank(user.DisplayName, user.Username),
			IsActive:  true,
		})

	case model.RoleTeacher:
		if user.Teacher != nil {
			return nil
		}
		ok, err := s.repo.Teacher.ExistsByUserID(ctx, user.UserID)
		if err != nil || ok {
			return err
		}
		return s.repo.Teacher.Create(ctx, &model.Teacher{
			UserID: &user.UserID,
			NameCh: firstNonBlank(user.DisplayName, user.Username, RoleNameTeacher),
		})
	}
	return nil
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if s.rdb != nil && claims.ID != "" {
		if err := s.rdb.BlacklistToken(ctx, claims.ID, claims.RemainingTTL(time.Now())); err != nil {
			s.logger.Error("写入 Token 黑名单失败", zap.Error(err))
			return err
		}
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		s.logger.Error("删除会话失败", zap.String("session_id", claims.SessionID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Me ──────────────────────

// Me 角色名与显示名：教师资料优先，其次学生资料，最后账号本身
func (s *authService) Me(ctx context.Context, userID string) (*dto.MeResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := &dto.MeResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      user.Role,
		IsTeacher: user.Teacher != nil,
		IsStudent: user.Student != nil && user.Student.IsActive,
	}
	switch {
	case user.Teacher != nil:
		resp.RoleName = RoleNameTeacher
		resp.DisplayName = firstNonBlank(user.Teacher.NameCh, user.DisplayName, user.Username)
	case user.Student != nil:
		resp.RoleName = RoleNameStudent
		resp.DisplayName = firstNonBlank(user.Student.Name, user.DisplayName, user.Username)
	default:
		resp.RoleName = RoleNameUser
		resp.DisplayName = firstNonBlank(user.DisplayName, user.Username)
	}
	return resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	if req.NewPassword == "" {
		return ErrPasswordEmpty
	}
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.User.UpdatePassword(ctx, userID, string(hash)); err != nil {
		s.logger.Error("更新密码失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}
