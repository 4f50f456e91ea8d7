package service

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"course-catalog/config"
	"course-catalog/internal/dto"
	"course-catalog/internal/model"
)

// MaxPeriod 课表显示的最大节次
const MaxPeriod = 14

// periodTimes 节次 → 上课时间
var periodTimes = map[int]string{
	1:  "08:10~09:00",
	2:  "09:10~10:00",
	3:  "10:10~11:00",
	4:  "11:10~12:00",
	5:  "12:40~13:30",
	6:  "13:40~14:30",
	7:  "14:40~15:30",
	8:  "15:40~16:30",
	9:  "16:40~17:30",
	10: "17:40~18:30",
	11: "18:35~19:25",
	12: "19:30~20:20",
	13: "20:25~21:15",
	14: "21:20~22:10",
}

// PeriodTime 节次的上课时间，未知节次返回空字串
func PeriodTime(p int) string {
	return periodTimes[p]
}

// Weekdays 课表表头（星期一到星期日）
func Weekdays() []dto.DayHeader {
	out := make([]dto.DayHeader, 0, 7)
	for d := 1; d <= 7; d++ {
		day := fmt.Sprintf("%d", d)
		out = append(out, dto.DayHeader{Day: day, Label: DayLabel(day)})
	}
	return out
}

// CourseView 课程显示转换：系所名、教师资讯、教室连结、课表格
type CourseView struct {
	deptNames map[string]string
	buildings map[string]string
}

// NewCourseView 创建 CourseView
func NewCourseView(cfg *config.CatalogConfig) *CourseView {
	names := cfg.DepartmentNames
	if len(names) == 0 {
		names = config.DefaultDepartmentNames()
	}
	return &CourseView{deptNames: names, buildings: cfg.Buildings}
}

// DeptDisplay 系所名称；无对照时回退代码，再回退 "-"
func (v *CourseView) DeptDisplay(code string) string {
	code = strings.TrimSpace(code)
	if name := v.deptNames[code]; name != "" {
		return name
	}
	if code != "" {
		return code
	}
	return "-"
}

// Departments 系所列表（按代码排序）
func (v *CourseView) Departments() []dto.DeptItem {
	out := make([]dto.DeptItem, 0, len(v.deptNames))
	for code, name := range v.deptNames {
		out = append(out, dto.DeptItem{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// DeptCodesByKeywords 名称包含任一关键字的系所代码
func (v *CourseView) DeptCodesByKeywords(keywords ...string) []string {
	var codes []string
	for code, name := range v.deptNames {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(name, kw) {
				codes = append(codes, code)
				break
			}
		}
	}
	sort.Strings(codes)
	return codes
}

// RoomDisplay 教室，空值以 "-" 表示
func RoomDisplay(c *model.Course) string {
	if r := strings.TrimSpace(c.Classroom); r != "" {
		return r
	}
	return "-"
}

// RoomURL 依教室首字母推测大楼并生成地图连结，找不到返回空字串
func (v *CourseView) RoomURL(room string) string {
	room = strings.TrimSpace(room)
	if room == "" || room == "-" {
		return ""
	}
	building, ok := v.buildings[strings.ToUpper(room[:1])]
	if !ok || building == "" {
		return ""
	}
	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(building)
}

// Course 转换单门课程
func (v *CourseView) Course(c *model.Course) dto.CourseResponse {
	nameCh := c.Teacher
	category, ext := "", ""
	if c.TeacherRef != nil {
		if c.TeacherRef.NameCh != "" {
			nameCh = c.TeacherRef.NameCh
		}
		category = c.TeacherRef.DisplayCategory()
		ext = c.TeacherRef.DisplayExtension()
	}

	room := RoomDisplay(c)
	timeText := ""
	if c.Day != "" {
		timeText = fmt.Sprintf("星期%s 第%s節", DayLabel(c.Day), c.Period)
		if c.WeekInfo != "" {
			timeText += fmt.Sprintf("（%s）", c.WeekInfo)
		}
	}

	return dto.CourseResponse{
		ID:              c.ID,
		Semester:        c.Semester,
		CourseName:      c.CourseName,
		CourseCode:      c.CourseCode,
		Teacher:         c.Teacher,
		TeacherNameCh:   nameCh,
		TeacherCategory: category,
		TeacherExt:      ext,
		DepartmentCode:  c.DepartmentCode,
		DepartmentName:  v.DeptDisplay(c.DepartmentCode),
		Grade:           c.Grade,
		ClassGroup:      c.ClassGroup,
		Division:        c.Division,
		System:          c.System,
		Day:             c.Day,
		DayLabel:        DayLabel(c.Day),
		Period:          c.Period,
		Periods:         ParsePeriods(c.Period),
		WeekInfo:        c.WeekInfo,
		Classroom:       room,
		RoomURL:         v.RoomURL(room),
		TimeText:        timeText,
		SummaryCh:       c.SummaryCh,
		SummaryEn:       c.SummaryEn,
	}
}

// Courses 批量转换
func (v *CourseView) Courses(courses []model.Course) []dto.CourseResponse {
	out := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, v.Course(&courses[i]))
	}
	return out
}

// Timetable 组装 星期 × 节次 课表；未排课或无节次的课程不进入格子
func (v *CourseView) Timetable(title string, courses []model.Course) *dto.TimetableGrid {
	cells := make(map[Slot][]dto.CourseResponse)
	for i := range courses {
		c := &courses[i]
		if c.Day == "" || strings.TrimSpace(c.Period) == "" {
			continue
		}
		resp := v.Course(c)
		for s := range CourseSlots(c.Day, c.Period) {
			cells[s] = append(cells[s], resp)
		}
	}

	days := Weekdays()
	grid := &dto.TimetableGrid{Title: title, Days: days, Rows: make([]dto.TimetableRow, 0, MaxPeriod)}
	for p := 1; p <= MaxPeriod; p++ {
		row := dto.TimetableRow{Period: p, Time: PeriodTime(p), Cells: make([]dto.TimetableCell, 0, len(days))}
		for _, d := range days {
			list := cells[Slot{Day: d.Day, Period: p}]
			if list == nil {
				list = []dto.CourseResponse{}
			}
			row.Cells = append(row.Cells, dto.TimetableCell{Day: d.Day, Courses: list})
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}
