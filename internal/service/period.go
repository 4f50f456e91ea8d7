package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"course-catalog/internal/model"
)

// ── 节次解析 ──

// maxRangePeriod 区间端点上限，超过视为无法解析
const maxRangePeriod = 24

// ParsePeriods 将节次文字解析为节次编号
//
// 支持 "2,3,4"、"8-10"（方向不限）、全形顿号与空白；
// 无法解析的片段（含端点超过 maxRangePeriod 的区间）直接略过。
// 结果按首次出现顺序去重，区间按升序展开。
func ParsePeriods(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []int{}
	}
	raw = strings.ReplaceAll(raw, "、", ",")
	raw = strings.Join(strings.Fields(raw), "")

	out := make([]int, 0, 4)
	seen := make(map[int]struct{}, 4)
	add := func(p int) {
		if p <= 0 {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, part := range strings.Split(raw, ",") {
		if part == "" {
			continue
		}
		if strings.Contains(part, "-") {
			lo, hi, ok := parseRange(part)
			if !ok {
				continue
			}
			for p := lo; p <= hi; p++ {
				add(p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		add(p)
	}
	return out
}

// parseRange 解析 "a-b"，恰好两段且皆为整数，端点不超过 maxRangePeriod
func parseRange(part string) (lo, hi int, ok bool) {
	ends := strings.Split(part, "-")
	if len(ends) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(ends[0])
	if err != nil {
		return 0, 0, false
	}
	b, err := strconv.Atoi(ends[1])
	if err != nil {
		return 0, 0, false
	}
	if a > b {
		a, b = b, a
	}
	if b > maxRangePeriod {
		return 0, 0, false
	}
	return a, b, true
}

// ── 时段 ──

// Slot 一个 (星期, 节次) 时段
type Slot struct {
	Day    string `json:"day"`
	Period int    `json:"period"`
}

// Less 先比星期再比节次
func (s Slot) Less(o Slot) bool {
	if s.Day != o.Day {
		return s.Day < o.Day
	}
	return s.Period < o.Period
}

// Label 形如 "星期一 第2節"
func (s Slot) Label() string {
	return fmt.Sprintf("星期%s 第%d節", DayLabel(s.Day), s.Period)
}

// SlotSet 时段集合
type SlotSet map[Slot]struct{}

// Sorted 按 (星期, 节次) 排序输出
func (ss SlotSet) Sorted() []Slot {
	out := make([]Slot, 0, len(ss))
	for s := range ss {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

var dayLabels = map[string]string{
	"1": "一", "2": "二", "3": "三", "4": "四", "5": "五", "6": "六", "7": "日",
}

// DayLabel 星期代码转中文，未知代码原样返回
func DayLabel(day string) string {
	if l, ok := dayLabels[day]; ok {
		return l
	}
	return day
}

// CourseSlots 课程占用的时段；未排课（星期为空）不占任何时段
func CourseSlots(day, periodRaw string) SlotSet {
	day = strings.TrimSpace(day)
	set := make(SlotSet)
	if day == "" {
		return set
	}
	for _, p := range ParsePeriods(periodRaw) {
		set[Slot{Day: day, Period: p}] = struct{}{}
	}
	return set
}

// ── 冲堂检测 ──

// ConflictSlots 候选课程与已选课程的时段交集，按 (星期, 节次) 排序
func ConflictSlots(existing []model.Course, candidate model.Course) []Slot {
	want := CourseSlots(candidate.Day, candidate.Period)
	if len(want) == 0 {
		return []Slot{}
	}

	hit := make(SlotSet)
	for _, c := range existing {
		for s := range CourseSlots(c.Day, c.Period) {
			if _, ok := want[s]; ok {
				hit[s] = struct{}{}
			}
		}
	}
	return hit.Sorted()
}

// FormatConflicts 渲染为 "星期一 第2節、星期一 第3節"
func FormatConflicts(slots []Slot) string {
	sorted := append([]Slot(nil), slots...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	labels := make([]string, 0, len(sorted))
	for _, s := range sorted {
		labels = append(labels, s.Label())
	}
	return strings.Join(labels, "、")
}

// SlotLabels 逐个时段的文字描述
func SlotLabels(slots []Slot) []string {
	labels := make([]string, 0, len(slots))
	for _, s := range slots {
		labels = append(labels, s.Label())
	}
	return labels
}
