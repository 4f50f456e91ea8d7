package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"course-catalog/internal/model"
)

func setupTestResolver() (RequiredCourseResolver, *testRepos) {
	repos := newTestRepos()
	return NewRequiredCourseResolver(testPersonalConfig(), repos.repo, testLogger()), repos
}

func TestResolve_PicksFirstBySortKey(t *testing.T) {
	resolver, repos := setupTestResolver()
	ctx := context.Background()

	repos.courses.add(model.Course{ID: 20, Semester: "1141", ClassGroup: "四技資管A0", CourseName: "系統分析與設計", Day: "3", Period: "2"})
	repos.courses.add(model.Course{ID: 21, Semester: "1141", ClassGroup: "四技資管A0", CourseName: "系統分析", Day: "1", Period: "5"})
	// 学期不符
	repos.courses.add(model.Course{ID: 22, Semester: "1132", ClassGroup: "A0", CourseName: "系統分析", Day: "1", Period: "1"})
	// 班组不符
	repos.courses.add(model.Course{ID: 23, Semester: "1141", ClassGroup: "B1", CourseName: "系統分析", Day: "1", Period: "1"})

	got, err := resolver.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	want := RequiredCourses{{Keyword: "系統分析", CourseID: 21}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("必修结果不符 (-want +got):\n%s", diff)
	}
}

func TestResolve_DepartmentConstraint(t *testing.T) {
	resolver, repos := setupTestResolver()
	ctx := context.Background()

	repos.courses.add(model.Course{ID: 30, Semester: "1141", ClassGroup: "A0", CourseName: "研究概論", DepartmentCode: "11140", Day: "1", Period: "1"})
	repos.courses.add(model.Course{ID: 31, Semester: "1141", ClassGroup: "A0", CourseName: "研究概論", DepartmentCode: "22140", Day: "4", Period: "3"})
	repos.courses.add(model.Course{ID: 32, Semester: "1141", ClassGroup: "A0", CourseName: "系統分析", Day: "2", Period: "1"})

	got, err := resolver.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve 失败: %v", err)
	}
	// 规则表顺序：系統分析 在前
	want := RequiredCourses{{Keyword: "系統分析", CourseID: 32}, {Keyword: "研究概論", CourseID: 31}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("必修结果不符 (-want +got):\n%s", diff)
	}
}

func TestResolve_NoMatchOmitted(t *testing.T) {
	resolver, _ := setupTestResolver()

	got, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("找不到课程不应报错: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("预期空结果，实际 %v", got)
	}
}

func TestResolve_CatalogFailurePropagates(t *testing.T) {
	resolver, repos := setupTestResolver()
	repos.courses.failErr = errMockDB

	if _, err := resolver.Resolve(context.Background()); !errors.Is(err, errMockDB) {
		t.Errorf("预期包装 errMockDB，实际 %v", err)
	}
}

func TestResolve_RecomputedEveryCall(t *testing.T) {
	resolver, repos := setupTestResolver()
	ctx := context.Background()

	repos.courses.add(model.Course{ID: 40, Semester: "1141", ClassGroup: "A0", CourseName: "系統分析", Day: "1", Period: "1"})
	ok, err := resolver.IsRequired(ctx, 40)
	if err != nil || !ok {
		t.Fatalf("40 应为必修: ok=%v err=%v", ok, err)
	}

	delete(repos.courses.courses, 40)
	ok, err = resolver.IsRequired(ctx, 40)
	if err != nil || ok {
		t.Errorf("课程删除后不应再为必修: ok=%v err=%v", ok, err)
	}
}

func TestRequiredCourses_RemovalMessage(t *testing.T) {
	rc := RequiredCourses{{Keyword: "系統分析", CourseID: 1}, {Keyword: "研究概論", CourseID: 2}}

	if got := rc.RemovalMessage(2); got != "研究概論 為必修安排，無法移除。" {
		t.Errorf("RemovalMessage(2) = %q", got)
	}
	if got := rc.RemovalMessage(99); got != "此課程 為必修安排，無法移除。" {
		t.Errorf("无对应时应使用通用称呼，实际 %q", got)
	}

	ambiguous := RequiredCourses{{Keyword: "甲", CourseID: 5}, {Keyword: "乙", CourseID: 5}}
	if got := ambiguous.RemovalMessage(5); got != "此課程 為必修安排，無法移除。" {
		t.Errorf("多条规则对应同一课程时应使用通用称呼，实际 %q", got)
	}
	if diff := cmp.Diff(CourseIDList{5}, ambiguous.IDs()); diff != "" {
		t.Errorf("IDs 应去重:\n%s", diff)
	}
}
