package service

import (
	"context"

	"go.uber.org/zap"

	"course-catalog/internal/repository"
	"course-catalog/internal/session"
)

// PersonalCourseIDsKey 个人课表在会话中的键
const PersonalCourseIDsKey = "personal_course_ids"

// Caller 当前请求的登录者
type Caller struct {
	UserID string
	Role   string
}

// PersonalStore 个人课表存取接口（存于会话）
type PersonalStore interface {
	GetIDs(sess *session.Session) CourseIDList
	SetIDs(sess *session.Session, ids CourseIDList)
	IsStudent(ctx context.Context, caller *Caller) (bool, error)
	EnsureRequired(ctx context.Context, sess *session.Session, caller *Caller) (CourseIDList, error)
}

type personalStore struct {
	repo     *repository.Repository
	resolver RequiredCourseResolver
	logger   *zap.Logger
}

// NewPersonalStore 创建 PersonalStore 实例
func NewPersonalStore(repo *repository.Repository, resolver RequiredCourseResolver, logger *zap.Logger) PersonalStore {
	return &personalStore{repo: repo, resolver: resolver, logger: logger}
}

func (s *personalStore) GetIDs(sess *session.Session) CourseIDList {
	if sess == nil {
		return CourseIDList{}
	}
	raw, ok := sess.Get(PersonalCourseIDsKey)
	if !ok {
		return CourseIDList{}
	}
	ids, dropped := DecodeCourseIDs(raw)
	if dropped > 0 {
		s.logger.Debug("个人课表含无法解析的 id，已略过",
			zap.String("session_id", sess.ID), zap.Int("dropped", dropped))
	}
	return ids
}

func (s *personalStore) SetIDs(sess *session.Session, ids CourseIDList) {
	sess.Set(PersonalCourseIDsKey, ids.Int64s())
}

// IsStudent 登录且拥有有效学生资料
func (s *personalStore) IsStudent(ctx context.Context, caller *Caller) (bool, error) {
	if caller == nil || caller.UserID == "" {
		return false, nil
	}
	ok, err := s.repo.Student.ExistsByUserID(ctx, caller.UserID)
	if err != nil {
		s.logger.Error("查询学生资料失败", zap.String("user_id", caller.UserID), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// EnsureRequired 非学生直接返回现有列表；学生则按规则表顺序补齐缺少的必修课程
func (s *personalStore) EnsureRequired(ctx context.Context, sess *session.Session, caller *Caller) (CourseIDList, error) {
	ids := s.GetIDs(sess)
	student, err := s.IsStudent(ctx, caller)
	if err != nil || !student {
		return ids, err
	}

	required, err := s.resolver.Resolve(ctx)
	if err != nil {
		return ids, err
	}
	return s.ensureWith(sess, ids, required), nil
}

// ensureWith 以已解析的必修结果补齐；有变化才写回会话
func (s *personalStore) ensureWith(sess *session.Session, ids CourseIDList, required RequiredCourses) CourseIDList {
	merged := ids.Append(required.IDs()...)
	if len(merged) != len(ids) {
		s.SetIDs(sess, merged)
	}
	return merged
}
