package dto

// ── 个人课表 DTO ──

// AddPersonalCourseRequest 加入个人课表；force=true 时冲堂仍加入
type AddPersonalCourseRequest struct {
	Force bool `json:"force" form:"force"`
}

// ConflictSlot 冲堂时段
type ConflictSlot struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
	Label  string `json:"label"`
}

// PersonalActionResponse 加入/移除的结果
// Kind: ok | conflict | required_protected | not_found | unauthorized
type PersonalActionResponse struct {
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Warning   bool           `json:"warning"`
	Conflicts []ConflictSlot `json:"conflicts"`
	CourseIDs []int64        `json:"my_course_ids"`
}

// PersonalScheduleResponse 个人课表
type PersonalScheduleResponse struct {
	CourseIDs []int64          `json:"my_course_ids"`
	Courses   []CourseResponse `json:"courses"`
	Timetable *TimetableGrid   `json:"timetable"`
	Notice    string           `json:"notice,omitempty"`
}
