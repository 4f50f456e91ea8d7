package dto

// ── 课程目录 DTO ──

// CourseQueryRequest 目录查询条件
type CourseQueryRequest struct {
	Semester   string   `form:"semester"    binding:"max=10"`
	System     string   `form:"system"      binding:"max=30"`
	Grade      string   `form:"grade"       binding:"max=10"`
	Department string   `form:"department"  binding:"max=20"`
	Teacher    string   `form:"teacher"     binding:"max=50"`
	CourseName string   `form:"course_name" binding:"max=200"`
	CourseCode string   `form:"course_code" binding:"max=50"`
	ClassType  string   `form:"class_type"  binding:"max=20"`
	Days       []string `form:"day"         binding:"dive,weekday"`
	Periods    []string `form:"period"`
}

// OnlySemester 仅指定学期
func (r *CourseQueryRequest) OnlySemester() bool {
	return r.Semester != "" && !r.hasOtherConditions()
}

// Empty 未指定任何条件
func (r *CourseQueryRequest) Empty() bool {
	return r.Semester == "" && !r.hasOtherConditions()
}

func (r *CourseQueryRequest) hasOtherConditions() bool {
	return r.System != "" || r.Grade != "" || r.Department != "" || r.Teacher != "" ||
		r.CourseName != "" || r.CourseCode != "" || r.ClassType != "" ||
		len(r.Days) > 0 || len(r.Periods) > 0
}

// CreateCourseRequest 老师新增课程；学期与教师由服务端决定
type CreateCourseRequest struct {
	CourseName     string `json:"course_name"     binding:"required,max=200"`
	CourseCode     string `json:"course_code"     binding:"max=50"`
	DepartmentCode string `json:"department_code" binding:"max=20"`
	Grade          string `json:"grade"           binding:"max=10"`
	ClassGroup     string `json:"class_group"     binding:"max=20"`
	Division       string `json:"division"        binding:"max=20"`
	System         string `json:"system"          binding:"max=30"`
	WeekInfo       string `json:"week_info"       binding:"max=50"`
	Day            string `json:"day"             binding:"required,weekday"`
	Period         string `json:"period"          binding:"required,max=20,periods"`
	Classroom      string `json:"classroom"       binding:"max=100"`
	SummaryCh      string `json:"course_summary_ch"`
	SummaryEn      string `json:"course_summary_en"`
}

// TeacherCourseListRequest 老师课程列表
type TeacherCourseListRequest struct {
	Semester string `form:"semester" binding:"required,max=10"`
}

// TeacherInfoRequest 教师资讯查询
type TeacherInfoRequest struct {
	Name string `form:"name" binding:"required,max=100"`
}
