package model

// 用户角色
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 登录账号表：对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null"         json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"` // teacher | student
	DisplayName  string `gorm:"type:varchar(100);not null;default:''"          json:"display_name"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel

	// 关联
	Teacher *Teacher `gorm:"foreignKey:UserID;references:UserID" json:"teacher,omitempty"`
	Student *Student `gorm:"foreignKey:UserID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
