package course

import "testing"

func TestLetterGrade_Thresholds(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{100, "O"},
		{90, "O"},
		{89, "E"},
		{89.5, "E"},
		{80, "E"},
		{79, "A"},
		{70, "A"},
		{60, "B"},
		{50, "C"},
		{40, "D"},
		{39, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := LetterGrade(tt.total); got != tt.want {
			t.Errorf("LetterGrade(%v) 期望=%s，实际=%s", tt.total, tt.want, got)
		}
	}
}

func TestEquivalentScore_Rounds(t *testing.T) {
	if got := EquivalentScore(7, 8); got != 8 {
		t.Errorf("(7+8)/2 期望四舍五入为 8，实际=%d", got)
	}
	if got := EquivalentScore(6, 8); got != 7 {
		t.Errorf("期望 7，实际=%d", got)
	}
}

func TestComputeGrade(t *testing.T) {
	r := ComputeGrade(GradeComponents{
		Assignment1: 9, Assignment2: 10, // 9.5 → 10
		Quiz1: 8, Quiz2: 8, // 8
		Activity1: 5, Activity2: 6, // 5.5 → 6
		MidSemester: 18,
		EndSemester: 38,
	})

	if r.AssignmentEquivalent != 10 || r.QuizEquivalent != 8 || r.ActivityEquivalent != 6 {
		t.Errorf("等效分错误: %+v", r)
	}
	if r.InternalTotal != 24 {
		t.Errorf("期望平时总分=24，实际=%d", r.InternalTotal)
	}
	if r.FinalTotal != 80 {
		t.Errorf("期望总评=80，实际=%v", r.FinalTotal)
	}
	if r.Grade != "E" {
		t.Errorf("期望等级=E，实际=%s", r.Grade)
	}
}
