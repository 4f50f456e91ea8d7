package model

// Course 课程表：对应 courses
//
// Day 为 "1".."7"，空字串表示未排课；Period 为自由文字（如 "2,3,4"、"8-10"）。
type Course struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"               json:"id"`
	Number          string `gorm:"type:varchar(10);not null;default:''"   json:"number"`
	Semester        string `gorm:"type:varchar(10);not null;index"        json:"semester"`
	Teacher         string `gorm:"type:varchar(50);not null;default:''"   json:"teacher"`
	CourseCode      string `gorm:"type:varchar(50);not null;default:''"   json:"course_code"`
	DepartmentCode  string `gorm:"type:varchar(20);not null;default:''"   json:"department_code"`
	CoreCode        string `gorm:"type:varchar(20);not null;default:''"   json:"core_code"`
	GroupCode       string `gorm:"type:varchar(20);not null;default:''"   json:"group_code"`
	Grade           string `gorm:"type:varchar(10);not null;default:''"   json:"grade"`
	ClassGroup      string `gorm:"type:varchar(20);not null;default:''"   json:"class_group"`
	CourseName      string `gorm:"type:varchar(200);not null"             json:"course_name"`
	Division        string `gorm:"type:varchar(20);not null;default:''"   json:"division"` // 課別名稱
	System          string `gorm:"type:varchar(30);not null;default:''"   json:"system"`   // 學制別
	TeachingGroup   string `gorm:"type:varchar(50);not null;default:''"   json:"teaching_group"`
	WeekInfo        string `gorm:"type:varchar(50);not null;default:''"   json:"week_info"`
	Day             string `gorm:"type:varchar(5);not null;default:''"    json:"day"`
	Period          string `gorm:"type:varchar(20);not null;default:''"   json:"period"`
	Classroom       string `gorm:"type:varchar(100);not null;default:''"  json:"classroom"`
	SummaryCh       string `gorm:"column:course_summary_ch;type:text;not null;default:''" json:"course_summary_ch"`
	SummaryEn       string `gorm:"column:course_summary_en;type:text;not null;default:''" json:"course_summary_en"`
	TeacherOldCode  string `gorm:"type:varchar(20);not null;default:''"   json:"teacher_old_code"`
	CourseOldCode   string `gorm:"type:varchar(20);not null;default:''"   json:"course_old_code"`
	ScheduleOldCode string `gorm:"type:varchar(20);not null;default:''"   json:"schedule_old_code"`
	ScheduleOldName string `gorm:"type:varchar(50);not null;default:''"   json:"schedule_old_name"`
	TeacherOldCode2 string `gorm:"type:varchar(20);not null;default:''"   json:"teacher_old_code2"`
	TeacherRefID    *int64 `gorm:"index"                                  json:"teacher_ref_id,omitempty"`
	BaseModel

	// 关联
	TeacherRef *Teacher `gorm:"foreignKey:TeacherRefID;references:TeacherID" json:"teacher_ref,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
