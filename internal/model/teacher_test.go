package model

import "testing"

func TestTeacher_DisplayFields(t *testing.T) {
	tests := []struct {
		name     string
		teacher  *Teacher
		category string
		ext      string
	}{
		{"nil", nil, "", ""},
		{"优先主字段", &Teacher{Category: "專任", Title: "副教授", Extension: "8101", OfficeExt: "9999"}, "專任", "8101"},
		{"回退别名", &Teacher{Title: "講師", OfficeExt: "3302"}, "講師", "3302"},
		{"全空", &Teacher{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.teacher.DisplayCategory(); got != tt.category {
				t.Errorf("DisplayCategory 期望 %q, 实际 %q", tt.category, got)
			}
			if got := tt.teacher.DisplayExtension(); got != tt.ext {
				t.Errorf("DisplayExtension 期望 %q, 实际 %q", tt.ext, got)
			}
		})
	}
}
