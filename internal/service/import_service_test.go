package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"course-catalog/internal/model"
)

var testHeader = []any{
	"編號", "學期", "主開課教師姓名", "科目代碼(新碼全碼)", "系所代碼", "年級", "上課班組",
	"科目中文名稱", "課別名稱", "學制別", "上課週次", "上課星期", "上課節次", "教室", "上課地點",
}

// buildWorkbook 前 4 列为标题，第 5 列为表头，之后为资料
func buildWorkbook(t *testing.T, header []any, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for i := 1; i <= 4; i++ {
		cell, _ := excelize.CoordinatesToCellName(1, i)
		f.SetCellValue(sheet, cell, "國立臺北護理健康大學 開課資料")
	}
	if err := f.SetSheetRow(sheet, "A5", &header); err != nil {
		t.Fatalf("写入表头失败: %v", err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, 6+i)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("写入资料失败: %v", err)
		}
	}
	return f
}

func workbookReader(t *testing.T, f *excelize.File) *bytes.Reader {
	t.Helper()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("输出 xlsx 失败: %v", err)
	}
	return bytes.NewReader(buf.Bytes())
}

func sampleRows() [][]any {
	return [][]any{
		{"1", "1141", "王小明", "2214001", "22140", "3", "四技資管A0", "系統分析", "必修", "四技", "1-18", "2", "2,3,4", "", "F301"},
		{"2", "1141", "林美華", "1114002", "11140", "1", "四技護理A1", "護理學導論", "必修", "四技", "", "1", "5-6", "S502", ""},
		{"3", "1141", "王小明", "2214003", "22140", "3", "四技資管A0", "資料庫", "選修", "四技", "", "4", "7", "nan", ""},
		{"4", "1141", "", "", "", "", "", "", "", "", "", "", "", "", ""},
	}
}

func TestParseCourses(t *testing.T) {
	f := buildWorkbook(t, testHeader, sampleRows())

	courses, err := parseCourses(workbookReader(t, f), 5)
	if err != nil {
		t.Fatalf("parseCourses 失败: %v", err)
	}
	if len(courses) != 3 {
		t.Fatalf("缺少课程名的列应略过，预期 3 门，实际 %d", len(courses))
	}

	first := courses[0]
	want := model.Course{
		Number: "1", Semester: "1141", Teacher: "王小明", CourseCode: "2214001", DepartmentCode: "22140",
		Grade: "3", ClassGroup: "四技資管A0", CourseName: "系統分析", Division: "必修", System: "四技",
		WeekInfo: "1-18", Day: "2", Period: "2,3,4", Classroom: "F301",
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("栏位对应不符 (-want +got):\n%s", diff)
	}
	// 教室取第一个有值的候选字段
	if courses[1].Classroom != "S502" {
		t.Errorf("教室栏位优先顺序错误: %q", courses[1].Classroom)
	}
	// "nan" 视为空
	if courses[2].Classroom != "" {
		t.Errorf("nan 应视为空: %q", courses[2].Classroom)
	}
}

func TestParseCourses_MissingNameColumn(t *testing.T) {
	f := buildWorkbook(t, []any{"學期", "上課星期"}, [][]any{{"1141", "1"}})

	if _, err := parseCourses(workbookReader(t, f), 5); !errors.Is(err, ErrImportNameColumn) {
		t.Errorf("预期 ErrImportNameColumn，实际 %v", err)
	}
}

func TestParseCourses_BadFile(t *testing.T) {
	if _, err := parseCourses(bytes.NewReader([]byte("not a workbook")), 5); !errors.Is(err, ErrImportBadFile) {
		t.Errorf("预期 ErrImportBadFile，实际 %v", err)
	}
}

func TestImportReader(t *testing.T) {
	repos := newTestRepos()
	svc := NewImportService(testCatalogConfig(), repos.repo, testLogger())

	n, err := svc.ImportReader(context.Background(), workbookReader(t, buildWorkbook(t, testHeader, sampleRows())), "courses.xlsx")
	if err != nil {
		t.Fatalf("导入失败: %v", err)
	}
	if n != 3 || len(repos.courses.courses) != 3 {
		t.Errorf("导入笔数不符: n=%d stored=%d", n, len(repos.courses.courses))
	}
	// 同名教师只建立一次
	if len(repos.teachers.teachers) != 2 {
		t.Errorf("教师应按姓名去重，实际 %d 位", len(repos.teachers.teachers))
	}
	for _, c := range repos.courses.courses {
		if c.TeacherRefID == nil {
			t.Errorf("课程 %s 未关联教师", c.CourseName)
		}
	}
}

func TestImportPaths_ContinuesOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.xlsx")
	if err := buildWorkbook(t, testHeader, sampleRows()).SaveAs(good); err != nil {
		t.Fatalf("保存 xlsx 失败: %v", err)
	}

	repos := newTestRepos()
	svc := NewImportService(testCatalogConfig(), repos.repo, testLogger())
	resp := svc.ImportPaths(context.Background(), []string{filepath.Join(dir, "missing.xlsx"), good})

	if resp.TotalFiles != 1 || resp.TotalRows != 3 {
		t.Errorf("汇总不符: %+v", resp)
	}
	if resp.Files[0].Error == "" || resp.Files[1].Count != 3 {
		t.Errorf("逐档结果不符: %+v", resp.Files)
	}
}

func TestAutoImport(t *testing.T) {
	dir := t.TempDir()
	if err := buildWorkbook(t, testHeader, sampleRows()).SaveAs(filepath.Join(dir, "a.xlsx")); err != nil {
		t.Fatalf("保存 xlsx 失败: %v", err)
	}
	cfg := testCatalogConfig()
	cfg.ExcelDir = dir
	cfg.AutoImport = true

	t.Run("课程表为空时导入", func(t *testing.T) {
		repos := newTestRepos()
		if err := NewImportService(cfg, repos.repo, testLogger()).AutoImport(context.Background()); err != nil {
			t.Fatalf("AutoImport 失败: %v", err)
		}
		if len(repos.courses.courses) != 3 {
			t.Errorf("应导入 3 门课程，实际 %d", len(repos.courses.courses))
		}
	})

	t.Run("已有资料时略过", func(t *testing.T) {
		repos := newTestRepos()
		repos.courses.add(model.Course{Semester: "1141", CourseName: "既有"})
		if err := NewImportService(cfg, repos.repo, testLogger()).AutoImport(context.Background()); err != nil {
			t.Fatalf("AutoImport 失败: %v", err)
		}
		if len(repos.courses.courses) != 1 {
			t.Errorf("已有数据不应再导入，实际 %d", len(repos.courses.courses))
		}
	})

	t.Run("未开启", func(t *testing.T) {
		off := *cfg
		off.AutoImport = false
		repos := newTestRepos()
		if err := NewImportService(&off, repos.repo, testLogger()).AutoImport(context.Background()); err != nil {
			t.Fatalf("AutoImport 失败: %v", err)
		}
		if len(repos.courses.courses) != 0 {
			t.Error("未开启时不应导入")
		}
	})
}

func TestImportDir_NoFiles(t *testing.T) {
	cfg := testCatalogConfig()
	cfg.ExcelDir = t.TempDir()
	svc := NewImportService(cfg, newTestRepos().repo, testLogger())

	if _, err := svc.ImportDir(context.Background()); !errors.Is(err, ErrImportNoFiles) {
		t.Errorf("预期 ErrImportNoFiles，实际 %v", err)
	}
}

func TestBackfillClassroom(t *testing.T) {
	dir := t.TempDir()
	if err := buildWorkbook(t, testHeader, sampleRows()).SaveAs(filepath.Join(dir, "a.xlsx")); err != nil {
		t.Fatalf("保存 xlsx 失败: %v", err)
	}
	cfg := testCatalogConfig()
	cfg.ExcelDir = dir

	repos := newTestRepos()
	repos.courses.add(model.Course{ID: 1, Semester: "1141", CourseCode: "2214001", CourseName: "系統分析"})
	repos.courses.add(model.Course{ID: 2, Semester: "1141", CourseCode: "1114002", CourseName: "護理學導論", Classroom: "B101"})
	repos.courses.add(model.Course{ID: 3, Semester: "1132", CourseCode: "2214001", CourseName: "系統分析"})

	resp, err := NewImportService(cfg, repos.repo, testLogger()).BackfillClassroom(context.Background())
	if err != nil {
		t.Fatalf("BackfillClassroom 失败: %v", err)
	}
	if resp.IndexedRows != 2 || resp.Updated != 1 {
		t.Errorf("回填结果不符: %+v", resp)
	}
	if repos.courses.courses[1].Classroom != "F301" {
		t.Errorf("教室未回填: %q", repos.courses.courses[1].Classroom)
	}
	if repos.courses.courses[2].Classroom != "B101" {
		t.Error("已有教室不应覆盖")
	}
	if repos.courses.courses[3].Classroom != "" {
		t.Error("学期不同不应回填")
	}
}
