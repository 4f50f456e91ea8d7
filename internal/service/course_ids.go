package service

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CourseIDList 有序且不重复的课程 id 列表
type CourseIDList []int64

// Contains 是否包含 id
func (l CourseIDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Append 追加不存在的 id，返回新列表；原列表不变
func (l CourseIDList) Append(ids ...int64) CourseIDList {
	out := append(CourseIDList(nil), l...)
	for _, id := range ids {
		if !out.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Without 移除 id，返回新列表；原列表不变
func (l CourseIDList) Without(id int64) CourseIDList {
	out := make(CourseIDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Int64s 转为普通切片（写入会话、查询数据库）
func (l CourseIDList) Int64s() []int64 {
	if l == nil {
		return []int64{}
	}
	return append([]int64(nil), l...)
}

// DecodeCourseIDs 宽松解码会话中的课程列表
//
// 非列表 → 空；无法视为整数的元素丢弃；重复保留首次出现。
// 返回值为被丢弃元素的个数，供调用方记录日志。
func DecodeCourseIDs(raw any) (CourseIDList, int) {
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []int64:
		items = make([]any, len(v))
		for i, x := range v {
			items[i] = x
		}
	case []int:
		items = make([]any, len(v))
		for i, x := range v {
			items[i] = x
		}
	case CourseIDList:
		items = make([]any, len(v))
		for i, x := range v {
			items[i] = x
		}
	default:
		return CourseIDList{}, 0
	}

	out := make(CourseIDList, 0, len(items))
	dropped := 0
	for _, item := range items {
		id, ok := coerceID(item)
		if !ok {
			dropped++
			continue
		}
		if out.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out, dropped
}

// coerceID 数字、数字字符串、json.Number 视为整数；带小数部分的数值不接受
func coerceID(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		if n, ok := parseIntString(string(x)); ok {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return coerceID(f)
	case string:
		return parseIntString(x)
	default:
		return 0, false
	}
}

func parseIntString(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
