package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
)

// AccountSeeder 演示账号补齐；成功一次后进程内不再执行，失败可重试
type AccountSeeder struct {
	cfg    config.DemoConfig
	repo   *repository.Repository
	logger *zap.Logger

	mu   sync.Mutex
	done bool
}

// NewAccountSeeder 创建 AccountSeeder
func NewAccountSeeder(cfg *config.DemoConfig, repo *repository.Repository, logger *zap.Logger) *AccountSeeder {
	return &AccountSeeder{cfg: *cfg, repo: repo, logger: logger}
}

// EnsureDefaults 建立或修正演示账号（密码、显示名、教师/学生资料绑定）
func (s *AccountSeeder) EnsureDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done || !s.cfg.Enabled() {
		return nil
	}

	for _, acc := range s.cfg.Accounts {
		if strings.TrimSpace(acc.Username) == "" {
			continue
		}
		if err := s.ensureAccount(ctx, acc); err != nil {
			s.logger.Error("补齐演示账号失败", zap.String("username", acc.Username), zap.Error(err))
			return err
		}
	}

	s.done = true
	s.logger.Info("演示账号已就绪", zap.Int("count", len(s.cfg.Accounts)))
	return nil
}

func (s *AccountSeeder) ensureAccount(ctx context.Context, acc config.DemoAccount) error {
	user, err := s.repo.User.GetByUsername(ctx, acc.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	displayName := firstNonBlank(acc.DisplayName, acc.Username)

	if user == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user = &model.User{
			Username:     acc.Username,
			PasswordHash: string(hash),
			Role:         acc.Role,
			DisplayName:  displayName,
			IsActive:     true,
		}
		if err := s.repo.User.Create(ctx, user); err != nil {
			return err
		}
	} else {
		changed := false
		// 已存在也确保密码与配置一致
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(acc.Password)) != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(acc.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
			changed = true
		}
		if user.DisplayName == "" {
			user.DisplayName = displayName
			changed = true
		}
		if acc.Role == model.RoleTeacher && user.Role != model.RoleTeacher {
			user.Role = model.RoleTeacher
			changed = true
		}
		if changed {
			if err := s.repo.User.Update(ctx, user); err != nil {
				return err
			}
		}
	}

	switch acc.Role {
	case model.RoleTeacher:
		return s.bindTeacher(ctx, user, displayName)
	case model.RoleStudent:
		return s.bindStudent(ctx, user, firstNonBlank(acc.StudentID, acc.Username), displayName)
	}
	return nil
}

// bindTeacher 优先绑定同名且未绑定的教师资料，否则取用或新建，最后同步姓名
func (s *AccountSeeder) bindTeacher(ctx context.Context, user *model.User, name string) error {
	t, err := s.repo.Teacher.GetByUserID(ctx, user.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if t == nil {
		t, err = s.repo.Teacher.FindUnboundByName(ctx, name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}
	if t == nil {
		return s.repo.Teacher.Create(ctx, &model.Teacher{UserID: &user.UserID, NameCh: name})
	}
	if t.UserID != nil && *t.UserID == user.UserID && t.NameCh == name {
		return nil
	}
	t.UserID = &user.UserID
	t.NameCh = name
	return s.repo.Teacher.Update(ctx, t)
}

// bindStudent 学号已存在且未绑定则绑定，否则为账号建立学生资料
func (s *AccountSeeder) bindStudent(ctx context.Context, user *model.User, studentNo, name string) error {
	st, err := s.repo.Student.GetByStudentNo(ctx, studentNo)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if st != nil {
		if st.UserID == nil {
			st.UserID = &user.UserID
			return s.repo.Student.Update(ctx, st)
		}
		return nil
	}

	if _, err := s.repo.Student.GetByUserID(ctx, user.UserID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.repo.Student.Create(ctx, &model.Student{
		UserID:    &user.UserID,
		StudentNo: studentNo,
		Name:      name,
		IsActive:  true,
	})
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
