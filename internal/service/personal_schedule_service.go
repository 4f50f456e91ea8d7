package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
	"course-catalog/internal/session"
)

// ── 个人课表模块业务错误 ──

var (
	ErrPersonalNotStudent     = errors.New("請先以學生身分登入。")
	ErrPersonalCourseNotFound = errors.New("找不到課程。")
)

// ConflictError 加入的课程与个人课表冲堂（未强制加入）
type ConflictError struct {
	Slots     []Slot
	CourseIDs CourseIDList
}

func (e *ConflictError) Error() string {
	return "此課程與你的個人課表衝堂：" + FormatConflicts(e.Slots)
}

// RequiredCourseError 尝试移除必修课程
type RequiredCourseError struct {
	CourseID  int64
	Keyword   string
	Message   string
	CourseIDs CourseIDList
}

func (e *RequiredCourseError) Error() string {
	return e.Message
}

// Outcome 个人课表操作结果类别
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeConflict          Outcome = "conflict"
	OutcomeRequiredProtected Outcome = "required_protected"
	OutcomeNotFound          Outcome = "not_found"
	OutcomeUnauthorized      Outcome = "unauthorized"
	OutcomeError             Outcome = "error"
)

// OutcomeOf 将错误归类为结果类别；nil 为 ok
func OutcomeOf(err error) Outcome {
	var conflictErr *ConflictError
	var requiredErr *RequiredCourseError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrPersonalNotStudent):
		return OutcomeUnauthorized
	case errors.Is(err, ErrPersonalCourseNotFound):
		return OutcomeNotFound
	case errors.As(err, &conflictErr):
		return OutcomeConflict
	case errors.As(err, &requiredErr):
		return OutcomeRequiredProtected
	default:
		return OutcomeError
	}
}

// PersonalScheduleService 个人课表业务接口
//
// 每次操作读取整份列表、计算后整份写回；同一会话的并发请求以最后写入者为准。
type PersonalScheduleService interface {
	Add(ctx context.Context, sess *session.Session, caller *Caller, courseID int64, force bool) (*dto.PersonalActionResponse, error)
	Remove(ctx context.Context, sess *session.Session, caller *Caller, courseID int64) (*dto.PersonalActionResponse, error)
	View(ctx context.Context, sess *session.Session, caller *Caller) (*dto.PersonalScheduleResponse, error)
	Courses(ctx context.Context, sess *session.Session, caller *Caller) ([]model.Course, error)
}

type personalScheduleService struct {
	cfg      config.PersonalConfig
	repo     *repository.Repository
	store    PersonalStore
	resolver RequiredCourseResolver
	view     *CourseView
	logger   *zap.Logger
}

// NewPersonalScheduleService 创建 PersonalScheduleService 实例
func NewPersonalScheduleService(
	cfg *config.PersonalConfig,
	repo *repository.Repository,
	store PersonalStore,
	resolver RequiredCourseResolver,
	view *CourseView,
	logger *zap.Logger,
) PersonalScheduleService {
	return &personalScheduleService{
		cfg:      *cfg,
		repo:     repo,
		store:    store,
		resolver: resolver,
		view:     view,
		logger:   logger,
	}
}

// actionState 一次操作的前置结果
type actionState struct {
	course   *model.Course
	ids      CourseIDList // 已补齐必修
	required RequiredCourses
	changed  bool // 补齐必修后与会话中的列表不同
}

// prepare 依序检查身分、课程存在，再补齐必修（仅计算，不写回）
func (s *personalScheduleService) prepare(ctx context.Context, sess *session.Session, caller *Caller, courseID int64) (*actionState, error) {
	student, err := s.store.IsStudent(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !student || sess == nil {
		return nil, ErrPersonalNotStudent
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonalCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, err
	}

	required, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	current := s.store.GetIDs(sess)
	ids := current.Append(required.IDs()...)
	return &actionState{
		course:   course,
		ids:      ids,
		required: required,
		changed:  len(ids) != len(current),
	}, nil
}

// commitEnsured 仅补齐必修的结果也需写回
func (s *personalScheduleService) commitEnsured(sess *session.Session, st *actionState) {
	if st.changed {
		s.store.SetIDs(sess, st.ids)
	}
}

// ────────────────────── Add ──────────────────────

func (s *personalScheduleService) Add(ctx context.Context, sess *session.Session, caller *Caller, courseID int64, force bool) (*dto.PersonalActionResponse, error) {
	st, err := s.prepare(ctx, sess, caller, courseID)
	if err != nil {
		return nil, err
	}

	if st.ids.Contains(courseID) {
		s.commitEnsured(sess, st)
		return actionResponse("此課程已在個人課表中。", st.ids, nil), nil
	}

	existing, err := s.loadCourses(ctx, st.ids)
	if err != nil {
		return nil, err
	}
	conflicts := ConflictSlots(existing, *st.course)

	if len(conflicts) > 0 && !force {
		s.commitEnsured(sess, st)
		return nil, &ConflictError{Slots: conflicts, CourseIDs: st.ids}
	}

	ids := st.ids.Append(courseID)
	s.store.SetIDs(sess, ids)

	resp := actionResponse("已新增到個人課表。", ids, conflicts)
	if len(conflicts) > 0 {
		s.logger.Info("强制加入冲堂课程",
			zap.String("session_id", sess.ID),
			zap.Int64("course_id", courseID),
			zap.String("conflicts", FormatConflicts(conflicts)),
		)
	}
	return resp, nil
}

// ────────────────────── Remove ──────────────────────

func (s *personalScheduleService) Remove(ctx context.Context, sess *session.Session, caller *Caller, courseID int64) (*dto.PersonalActionResponse, error) {
	st, err := s.prepare(ctx, sess, caller, courseID)
	if err != nil {
		return nil, err
	}

	if st.required.Contains(courseID) {
		s.commitEnsured(sess, st)
		keyword, _ := st.required.KeywordFor(courseID)
		return nil, &RequiredCourseError{
			CourseID:  courseID,
			Keyword:   keyword,
			Message:   st.required.RemovalMessage(courseID),
			CourseIDs: st.ids,
		}
	}

	ids := st.ids
	if ids.Contains(courseID) {
		ids = ids.Without(courseID)
		s.store.SetIDs(sess, ids)
	} else {
		s.commitEnsured(sess, st)
	}

	return actionResponse("已從個人課表移除。", ids, nil), nil
}

// ────────────────────── View / Courses ──────────────────────

func (s *personalScheduleService) View(ctx context.Context, sess *session.Session, caller *Caller) (*dto.PersonalScheduleResponse, error) {
	courses, ids, err := s.coursesWithIDs(ctx, sess, caller)
	if err != nil {
		return nil, err
	}

	resp := &dto.PersonalScheduleResponse{
		CourseIDs: ids.Int64s(),
		Courses:   s.view.Courses(courses),
		Timetable: s.view.Timetable("我的個人課表", courses),
	}
	if len(ids) == 0 {
		resp.Notice = fmt.Sprintf("找不到 %s 的必修課程資料。", s.cfg.ClassGroup)
	}
	return resp, nil
}

func (s *personalScheduleService) Courses(ctx context.Context, sess *session.Session, caller *Caller) ([]model.Course, error) {
	courses, _, err := s.coursesWithIDs(ctx, sess, caller)
	return courses, err
}

func (s *personalScheduleService) coursesWithIDs(ctx context.Context, sess *session.Session, caller *Caller) ([]model.Course, CourseIDList, error) {
	student, err := s.store.IsStudent(ctx, caller)
	if err != nil {
		return nil, nil, err
	}
	if !student || sess == nil {
		return nil, nil, ErrPersonalNotStudent
	}

	ids, err := s.store.EnsureRequired(ctx, sess, caller)
	if err != nil {
		return nil, nil, err
	}
	courses, err := s.loadCourses(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return courses, ids, nil
}

// loadCourses 按 ids 顺序取回课程，已不存在的 id 直接略过
func (s *personalScheduleService) loadCourses(ctx context.Context, ids CourseIDList) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}
	rows, err := s.repo.Course.ListByIDs(ctx, ids.Int64s())
	if err != nil {
		s.logger.Error("查询个人课表课程失败", zap.Error(err))
		return nil, err
	}

	byID := make(map[int64]model.Course, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}
	out := make([]model.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	if missing := len(ids) - len(out); missing > 0 {
		s.logger.Debug("个人课表含已不存在的课程，已略过", zap.Int("missing", missing))
	}
	return out, nil
}

func actionResponse(message string, ids CourseIDList, conflicts []Slot) *dto.PersonalActionResponse {
	return &dto.PersonalActionResponse{
		Kind:      string(OutcomeOK),
		Message:   message,
		Warning:   len(conflicts) > 0,
		Conflicts: ConflictSlotsDTO(conflicts),
		CourseIDs: ids.Int64s(),
	}
}

// ConflictSlotsDTO 时段转为响应结构
func ConflictSlotsDTO(slots []Slot) []dto.ConflictSlot {
	out := make([]dto.ConflictSlot, 0, len(slots))
	for _, sl := range slots {
		out = append(out, dto.ConflictSlot{Day: sl.Day, Period: sl.Period, Label: sl.Label()})
	}
	return out
}
