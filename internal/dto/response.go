package dto

// ── 认证模块响应 ──

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"` // 秒
	User        MeResponse `json:"user"`
}

// MeResponse 当前登录者
type MeResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	RoleName    string `json:"role_name"` // 老師 | 學生 | 使用者
	DisplayName string `json:"display_name"`
	IsTeacher   bool   `json:"is_teacher"`
	IsStudent   bool   `json:"is_student"`
}

// ── 课程模块响应 ──

// CourseResponse 课程（含显示用字段）
type CourseResponse struct {
	ID              int64  `json:"id"`
	Semester        string `json:"semester"`
	CourseName      string `json:"course_name"`
	CourseCode      string `json:"course_code"`
	Teacher         string `json:"teacher"`
	TeacherNameCh   string `json:"teacher_name_ch"`
	TeacherCategory string `json:"teacher_category"`
	TeacherExt      string `json:"teacher_ext"`
	DepartmentCode  string `json:"department_code"`
	DepartmentName  string `json:"department_name"`
	Grade           string `json:"grade"`
	ClassGroup      string `json:"class_group"`
	Division        string `json:"division"`
	System          string `json:"system"`
	Day             string `json:"day"`
	DayLabel        string `json:"day_label"`
	Period          string `json:"period"`
	Periods         []int  `json:"periods"`
	WeekInfo        string `json:"week_info"`
	Classroom       string `json:"classroom"`
	RoomURL         string `json:"room_url,omitempty"`
	TimeText        string `json:"time_text"`
	SummaryCh       string `json:"course_summary_ch"`
	SummaryEn       string `json:"course_summary_en"`
}

// TimetableCell 课表格子
type TimetableCell struct {
	Day     string           `json:"day"`
	Courses []CourseResponse `json:"courses"`
}

// TimetableRow 一个节次的一列
type TimetableRow struct {
	Period int             `json:"period"`
	Time   string          `json:"time"`
	Cells  []TimetableCell `json:"cells"`
}

// TimetableGrid 星期 × 节次 课表
type TimetableGrid struct {
	Title string         `json:"title"`
	Days  []DayHeader    `json:"days"`
	Rows  []TimetableRow `json:"rows"`
}

// DayHeader 表头
type DayHeader struct {
	Day   string `json:"day"`
	Label string `json:"label"`
}

// CourseQueryResponse 目录查询结果
// Mode: list（仅学期）| grid
type CourseQueryResponse struct {
	Mode      string           `json:"mode"`
	Total     int              `json:"total"`
	Courses   []CourseResponse `json:"courses"`
	Timetable *TimetableGrid   `json:"timetable,omitempty"`
}

// CourseOptionsResponse 查询选项
type CourseOptionsResponse struct {
	ClassTypes  []string    `json:"class_types"`
	Systems     []string    `json:"systems"`
	Days        []DayHeader `json:"days"`
	Periods     []int       `json:"periods"`
	TotalCount  int64       `json:"total_count"`
	Departments []DeptItem  `json:"departments"`
}

// DeptItem 系所代码与名称
type DeptItem struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TeacherInfoResponse 教师资讯；空值以 "-" 表示
type TeacherInfoResponse struct {
	NameCh   string `json:"name_ch"`
	Category string `json:"category"`
	Ext      string `json:"ext"`
}

// ── 诊断 ──

// StatsResponse 资料统计
type StatsResponse struct {
	CourseTotal      int64           `json:"course_total"`
	SemesterDistinct []string        `json:"semester_distinct"`
	Samples          []CourseSample  `json:"sample_3"`
	ExcelDir         string          `json:"excel_dir"`
	ExcelFiles       []string        `json:"excel_files"`
	Flags            map[string]bool `json:"flags"`
}

// CourseSample 统计样本
type CourseSample struct {
	ID         int64  `json:"id"`
	Semester   string `json:"semester"`
	CourseName string `json:"course_name"`
	Teacher    string `json:"teacher"`
	Day        string `json:"day"`
	Period     string `json:"period"`
}
