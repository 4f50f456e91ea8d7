package service

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"course-catalog/config"
	"course-catalog/internal/model"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("產生匯出檔案失敗")
	ErrExportBadCalendar  = errors.New("學期起始日設定錯誤")
)

// ExportService 个人课表导出接口
//
// 导出以 bytes.Buffer / 字串返回，由 Handler 层设置下载响应头
type ExportService interface {
	Excel(courses []model.Course) (*bytes.Buffer, string, error)
	ICS(courses []model.Course) (string, string, error)
}

type exportService struct {
	cfg    config.PersonalConfig
	view   *CourseView
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.PersonalConfig, view *CourseView, logger *zap.Logger) ExportService {
	return &exportService{cfg: *cfg, view: view, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// Excel：星期 × 节次 课表
// ═══════════════════════════════════════════════════════════
//
//   - A 栏：节次，B 栏：时间，C..I 栏：星期一 ~ 星期日
//   - 同格多门课以换行分隔（课程名 / 教室）

func (s *exportService) Excel(courses []model.Course) (*bytes.Buffer, string, error) {
	grid := s.view.Timetable("我的個人課表", courses)

	f := excelize.NewFile()
	defer f.Close()

	sheet := "個人課表"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 14)
	f.SetColWidth(sheet, colName(2), colName(2+len(grid.Days)-1), 22)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})

	// 标题
	last := colName(2 + len(grid.Days) - 1)
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s（%s 學期）", grid.Title, s.cfg.Semester))
	f.MergeCell(sheet, "A1", cell(last, 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	// 表头
	f.SetCellValue(sheet, cell("A", 2), "節次")
	f.SetCellValue(sheet, cell("B", 2), "時間")
	for i, d := range grid.Days {
		f.SetCellValue(sheet, cell(colName(2+i), 2), "星期"+d.Label)
	}
	f.SetCellStyle(sheet, "A2", cell(last, 2), headerStyle)

	row := 3
	for _, r := range grid.Rows {
		f.SetCellValue(sheet, cell("A", row), r.Period)
		f.SetCellValue(sheet, cell("B", row), r.Time)
		for i, c := range r.Cells {
			lines := make([]string, 0, len(c.Courses))
			for _, course := range c.Courses {
				line := course.CourseName
				if course.Classroom != "" && course.Classroom != "-" {
					line += " / " + course.Classroom
				}
				lines = append(lines, line)
			}
			if len(lines) > 0 {
				f.SetCellValue(sheet, cell(colName(2+i), row), strings.Join(lines, "\n"))
			}
		}
		row++
	}
	f.SetCellStyle(sheet, "C3", cell(last, row-1), cellStyle)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("個人課表_%s.xlsx", s.cfg.Semester), nil
}

// ═══════════════════════════════════════════════════════════
// ICS：每门课每段连续节次一个每周重复事件
// ═══════════════════════════════════════════════════════════

func (s *exportService) ICS(courses []model.Course) (string, string, error) {
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		s.logger.Warn("时区设定无效，改用 UTC", zap.String("timezone", s.cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}
	start, err := time.ParseInLocation("2006-01-02", s.cfg.SemesterStart, loc)
	if err != nil {
		return "", "", ErrExportBadCalendar
	}
	weeks := s.cfg.Weeks
	if weeks <= 0 {
		weeks = 18
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//course-catalog//personal schedule//ZH")
	cal.SetXWRCalName("我的個人課表 " + s.cfg.Semester)
	cal.SetXWRTimezone(loc.String())

	now := time.Now()
	for i := range courses {
		c := &courses[i]
		day, err := strconv.Atoi(c.Day)
		if err != nil || day < 1 || day > 7 {
			continue
		}
		for _, block := range periodBlocks(ParsePeriods(c.Period)) {
			from, to, ok := blockTimes(block)
			if !ok {
				continue
			}
			date := start.AddDate(0, 0, weekdayOffset(start, day))
			begin := atClock(date, from, loc)
			end := atClock(date, to, loc)

			event := cal.AddEvent(fmt.Sprintf("course-%d-%d-%d@course-catalog", c.ID, day, block[0]))
			event.SetCreatedTime(now)
			event.SetDtStampTime(now)
			event.SetStartAt(begin)
			event.SetEndAt(end)
			event.SetSummary(c.CourseName)
			if room := RoomDisplay(c); room != "-" {
				event.SetLocation(room)
			}
			event.SetDescription(fmt.Sprintf("%s｜%s｜第%s節", c.CourseCode, c.Teacher, c.Period))
			event.AddRrule(fmt.Sprintf("FREQ=WEEKLY;COUNT=%d", weeks))
		}
	}

	return cal.Serialize(), fmt.Sprintf("personal_%s.ics", s.cfg.Semester), nil
}

// weekdayOffset 从 start 起算到第一个星期 day（1=星期一 … 7=星期日）的天数
func weekdayOffset(start time.Time, day int) int {
	return (day%7 - int(start.Weekday()) + 7) % 7
}

// periodBlocks 将节次分成连续区段：[1 2 3 6 7] → [[1 2 3] [6 7]]
func periodBlocks(periods []int) [][]int {
	if len(periods) == 0 {
		return nil
	}
	sorted := append([]int(nil), periods...)
	sort.Ints(sorted)

	var blocks [][]int
	cur := []int{sorted[0]}
	for _, p := range sorted[1:] {
		if p == cur[len(cur)-1]+1 {
			cur = append(cur, p)
			continue
		}
		blocks = append(blocks, cur)
		cur = []int{p}
	}
	return append(blocks, cur)
}

// blockTimes 区段起讫时间（"08:10", "11:00"）
func blockTimes(block []int) (string, string, bool) {
	first, last := PeriodTime(block[0]), PeriodTime(block[len(block)-1])
	if first == "" || last == "" {
		return "", "", false
	}
	from, _, _ := strings.Cut(first, "~")
	_, to, _ := strings.Cut(last, "~")
	return from, to, true
}

// atClock 指定日期的 "HH:MM"
func atClock(date time.Time, clock string, loc *time.Location) time.Time {
	t, err := time.ParseInLocation("15:04", clock, loc)
	if err != nil {
		return date
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
