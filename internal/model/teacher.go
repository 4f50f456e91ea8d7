package model

// Teacher 教师资料表：对应 teachers
//
// 类别与分机在导入时即按别名顺序写入确定字段，读取端不再探测别名。
type Teacher struct {
	TeacherID int64   `gorm:"primaryKey;autoIncrement"               json:"teacher_id"`
	UserID    *string `gorm:"type:uuid;uniqueIndex"                  json:"user_id,omitempty"`
	NameCh    string  `gorm:"type:varchar(50);not null;index"        json:"name_ch"`
	NameEn    string  `gorm:"type:varchar(100);not null;default:''"  json:"name_en"`
	Category  string  `gorm:"type:varchar(20);not null;default:''"   json:"category"` // 專任 | 兼任 | 其他
	Title     string  `gorm:"type:varchar(50);not null;default:''"   json:"title"`
	Extension string  `gorm:"type:varchar(20);not null;default:''"   json:"extension"`
	OfficeExt string  `gorm:"type:varchar(20);not null;default:''"   json:"office_ext"`
	Email     string  `gorm:"type:varchar(254);not null;default:''"  json:"email"`
	Office    string  `gorm:"type:varchar(100);not null;default:''"  json:"office"`
	Intro     string  `gorm:"type:text;not null;default:''"          json:"intro"`
	BaseModel
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }

// DisplayCategory 类别：Category 优先，其次职称
func (t *Teacher) DisplayCategory() string {
	if t == nil {
		return ""
	}
	return firstNonEmpty(t.Category, t.Title)
}

// DisplayExtension 分机：校内分机优先，其次办公室分机
func (t *Teacher) DisplayExtension() string {
	if t == nil {
		return ""
	}
	return firstNonEmpty(t.Extension, t.OfficeExt)
}
