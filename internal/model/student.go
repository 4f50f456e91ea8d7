package model

// Student 学生资料表：对应 students
type Student struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"               json:"id"`
	UserID         *string `gorm:"type:uuid;uniqueIndex"                  json:"user_id,omitempty"`
	StudentNo      string  `gorm:"column:student_id;type:varchar(20);uniqueIndex;not null" json:"student_id"`
	Name           string  `gorm:"type:varchar(50);not null;default:''"   json:"name"`
	Email          string  `gorm:"type:varchar(254);not null;default:''"  json:"email"`
	DepartmentCode string  `gorm:"type:varchar(20);not null;default:''"   json:"department_code"`
	Grade          string  `gorm:"type:varchar(10);not null;default:''"   json:"grade"`
	ClassGroup     string  `gorm:"type:varchar(20);not null;default:''"   json:"class_group"`
	IsActive       bool    `gorm:"not null;default:true"                  json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
