package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-catalog/config"
	"course-catalog/internal/model"
	"course-catalog/internal/repository"
	"course-catalog/internal/session"
)

var errMockDB = errors.New("mock db down")

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[int64]*model.Course
	nextID  int64
	failErr error // 非 nil 时查询类方法返回该错误
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[int64]*model.Course), nextID: 1}
}

// add 直接放入一门课程，返回分配的 id
func (m *mockCourseRepo) add(c model.Course) int64 {
	if c.ID == 0 {
		c.ID = m.nextID
	}
	if c.ID >= m.nextID {
		m.nextID = c.ID + 1
	}
	m.courses[c.ID] = &c
	return c.ID
}

func (m *mockCourseRepo) sorted() []model.Course {
	out := make([]model.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	if c, ok := m.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListByIDs(_ context.Context, ids []int64) ([]model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Course
	for _, id := range ids {
		if c, ok := m.courses[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) FindFirstRequired(_ context.Context, f repository.RequiredCourseFilter) (*model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var hits []model.Course
	for _, c := range m.sorted() {
		if c.Semester != f.Semester || !strings.Contains(c.ClassGroup, f.ClassGroupLike) ||
			!strings.Contains(c.CourseName, f.NameKeyword) {
			continue
		}
		if f.DepartmentCode != "" && c.DepartmentCode != f.DepartmentCode {
			continue
		}
		hits = append(hits, c)
	}
	if len(hits) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.CourseName < b.CourseName
	})
	return &hits[0], nil
}

func (m *mockCourseRepo) Search(_ context.Context, f *repository.CourseFilter) ([]model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Course
	for _, c := range m.sorted() {
		if f.Semester != "" && c.Semester != f.Semester {
			continue
		}
		if f.Grade != "" && c.Grade != f.Grade {
			continue
		}
		if f.DepartmentCode != "" && c.DepartmentCode != f.DepartmentCode {
			continue
		}
		if !strings.Contains(c.Teacher, f.Teacher) || !strings.Contains(c.CourseName, f.CourseName) ||
			!strings.Contains(c.CourseCode, f.CourseCode) || !strings.Contains(c.Division, f.Division) {
			continue
		}
		if len(f.Days) > 0 && !containsString(f.Days, c.Day) {
			continue
		}
		if len(f.SystemKeywords) > 0 || len(f.SystemDeptCodes) > 0 {
			hit := containsString(f.SystemDeptCodes, c.DepartmentCode)
			for _, kw := range f.SystemKeywords {
				if strings.Contains(c.System, kw) || strings.Contains(c.ClassGroup, kw) {
					hit = true
				}
			}
			if !hit {
				continue
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCourseRepo) ListDivisions(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range m.courses {
		if c.Division != "" && !seen[c.Division] {
			seen[c.Division] = true
			out = append(out, c.Division)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockCourseRepo) ListByTeacher(_ context.Context, teacherName, semester string) ([]model.Course, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var out []model.Course
	for _, c := range m.sorted() {
		if c.Semester == semester && strings.Contains(c.Teacher, teacherName) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if m.failErr != nil {
		return m.failErr
	}
	course.ID = m.add(*course)
	return nil
}

func (m *mockCourseRepo) BatchCreate(ctx context.Context, courses []model.Course, _ int) error {
	for i := range courses {
		if err := m.Create(ctx, &courses[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCourseRepo) DeleteOwned(_ context.Context, id int64, semester, teacherName string) (int64, error) {
	c, ok := m.courses[id]
	if !ok || c.Semester != semester || !strings.Contains(c.Teacher, teacherName) {
		return 0, nil
	}
	delete(m.courses, id)
	return 1, nil
}

func (m *mockCourseRepo) Count(_ context.Context) (int64, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	return int64(len(m.courses)), nil
}

func (m *mockCourseRepo) DistinctSemesters(_ context.Context, limit int) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, c := range m.courses {
		if !seen[c.Semester] {
			seen[c.Semester] = true
			out = append(out, c.Semester)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCourseRepo) Samples(_ context.Context, limit int) ([]model.Course, error) {
	out := m.sorted()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockCourseRepo) ListMissingClassroom(_ context.Context) ([]model.Course, error) {
	var out []model.Course
	for _, c := range m.sorted() {
		if strings.TrimSpace(c.Classroom) == "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) UpdateClassroom(_ context.Context, id int64, classroom string) error {
	if c, ok := m.courses[id]; ok {
		c.Classroom = classroom
	}
	return nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers map[int64]*model.Teacher
	nextID   int64
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[int64]*model.Teacher), nextID: 1}
}

func (m *mockTeacherRepo) Create(_ context.Context, t *model.Teacher) error {
	if t.TeacherID == 0 {
		t.TeacherID = m.nextID
		m.nextID++
	}
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) GetByUserID(_ context.Context, userID string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.UserID != nil && *t.UserID == userID {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) FindByName(_ context.Context, name string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.NameCh == name {
			return t, nil
		}
	}
	for _, t := range m.teachers {
		if t.NameEn == name {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) FindUnboundByName(_ context.Context, nameCh string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.NameCh == nameCh && t.UserID == nil {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) GetOrCreateByName(ctx context.Context, nameCh string) (*model.Teacher, error) {
	for _, t := range m.teachers {
		if t.NameCh == nameCh {
			return t, nil
		}
	}
	t := &model.Teacher{NameCh: nameCh}
	return t, m.Create(ctx, t)
}

func (m *mockTeacherRepo) Update(_ context.Context, t *model.Teacher) error {
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	_, err := m.GetByUserID(ctx, userID)
	return err == nil, nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[int64]*model.Student
	nextID   int64
	failErr  error
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[int64]*model.Student), nextID: 1}
}

func (m *mockStudentRepo) Create(_ context.Context, st *model.Student) error {
	if st.ID == 0 {
		st.ID = m.nextID
		m.nextID++
	}
	m.students[st.ID] = st
	return nil
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, st := range m.students {
		if st.UserID != nil && *st.UserID == userID {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByStudentNo(_ context.Context, studentNo string) (*model.Student, error) {
	for _, st := range m.students {
		if st.StudentNo == studentNo {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, st *model.Student) error {
	m.students[st.ID] = st
	return nil
}

func (m *mockStudentRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	st, err := m.GetByUserID(ctx, userID)
	return err == nil && st.IsActive, nil
}

// ── Mock UserRepository ──
// 查询时模拟 Preload：从教师/学生 mock 中挂上资料

type mockUserRepo struct {
	users    map[string]*model.User // key: user_id
	teachers *mockTeacherRepo
	students *mockStudentRepo
}

func newMockUserRepo(teachers *mockTeacherRepo, students *mockStudentRepo) *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), teachers: teachers, students: students}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Username
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("duplicate username %s", user.Username)
		}
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) preload(u *model.User) *model.User {
	cp := *u
	cp.Teacher, cp.Student = nil, nil
	if t, err := m.teachers.GetByUserID(context.Background(), u.UserID); err == nil {
		cp.Teacher = t
	}
	if st, err := m.students.GetByUserID(context.Background(), u.UserID); err == nil {
		cp.Student = st
	}
	return &cp
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return m.preload(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return m.preload(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	cp := *user
	cp.Teacher, cp.Student = nil, nil
	m.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// ── 测试用聚合 ──

type testRepos struct {
	repo     *repository.Repository
	courses  *mockCourseRepo
	teachers *mockTeacherRepo
	students *mockStudentRepo
	users    *mockUserRepo
}

func newTestRepos() *testRepos {
	courses := newMockCourseRepo()
	teachers := newMockTeacherRepo()
	students := newMockStudentRepo()
	users := newMockUserRepo(teachers, students)
	return &testRepos{
		repo: &repository.Repository{
			User:    users,
			Teacher: teachers,
			Student: students,
			Course:  courses,
		},
		courses:  courses,
		teachers: teachers,
		students: students,
		users:    users,
	}
}

// addStudent 建立账号与有效学生资料，返回 Caller
func (r *testRepos) addStudent(userID, studentNo string) *Caller {
	uid := userID
	r.users.users[uid] = &model.User{UserID: uid, Username: uid, Role: model.RoleStudent, IsActive: true}
	r.students.Create(context.Background(), &model.Student{UserID: &uid, StudentNo: studentNo, IsActive: true})
	return &Caller{UserID: uid, Role: model.RoleStudent}
}

// addTeacher 建立账号与教师资料，返回 Caller
func (r *testRepos) addTeacher(userID, name string) *Caller {
	uid := userID
	r.users.users[uid] = &model.User{UserID: uid, Username: uid, Role: model.RoleTeacher, IsActive: true}
	r.teachers.Create(context.Background(), &model.Teacher{UserID: &uid, NameCh: name})
	return &Caller{UserID: uid, Role: model.RoleTeacher}
}

func testPersonalConfig() *config.PersonalConfig {
	return &config.PersonalConfig{
		Semester:      "1141",
		ClassGroup:    "A0",
		RequiredRules: config.DefaultRequiredRules(),
		SemesterStart: "2025-09-08",
		Weeks:         18,
		Timezone:      "Asia/Taipei",
	}
}

func testCatalogConfig() *config.CatalogConfig {
	return &config.CatalogConfig{
		ExcelDir:        ".",
		HeaderRow:       5,
		BatchSize:       2,
		FixedSemester:   "1141",
		DepartmentNames: config.DefaultDepartmentNames(),
		Buildings:       config.DefaultBuildings(),
	}
}

func newTestSession() *session.Session {
	return session.New("sess-1", "u-student", time.Now().Add(time.Hour))
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
