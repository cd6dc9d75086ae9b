package course

import "math"

// ── 成绩表折算 ──

// GradeComponents 单个学生的原始成绩分项
type GradeComponents struct {
	Assignment1 float64 `json:"assignment1"`
	Assignment2 float64 `json:"assignment2"`
	Quiz1       float64 `json:"quiz1"`
	Quiz2       float64 `json:"quiz2"`
	Activity1   float64 `json:"activity1"`
	Activity2   float64 `json:"activity2"`
	MidSemester float64 `json:"midSemester"`
	EndSemester float64 `json:"endSemester"`
}

// GradeResult 折算结果
type GradeResult struct {
	AssignmentEquivalent int     `json:"assignmentEquivalent"`
	QuizEquivalent       int     `json:"quizEquivalent"`
	ActivityEquivalent   int     `json:"activityEquivalent"`
	InternalTotal        int     `json:"internalTotal"`
	FinalTotal           float64 `json:"finalTotal"`
	Grade                string  `json:"grade"`
}

// gradeThresholds 等级阈值表，自上而下取第一个满足 total >= min 的等级
var gradeThresholds = []struct {
	min   float64
	grade string
}{
	{90, "O"},
	{80, "E"},
	{70, "A"},
	{60, "B"},
	{50, "C"},
	{40, "D"},
}

// EquivalentScore 成对分项取平均后取整
func EquivalentScore(a, b float64) int {
	return int(math.Round((a + b) / 2))
}

// LetterGrade 总分 → 等级
func LetterGrade(total float64) string {
	for _, t := range gradeThresholds {
		if total >= t.min {
			return t.grade
		}
	}
	return "F"
}

// ComputeGrade 计算等效分、平时总分、总评与等级
func ComputeGrade(c GradeComponents) GradeResult {
	r := GradeResult{
		AssignmentEquivalent: EquivalentScore(c.Assignment1, c.Assignment2),
		QuizEquivalent:       EquivalentScore(c.Quiz1, c.Quiz2),
		ActivityEquivalent:   EquivalentScore(c.Activity1, c.Activity2),
	}
	r.InternalTotal = r.AssignmentEquivalent + r.QuizEquivalent + r.ActivityEquivalent
	r.FinalTotal = float64(r.InternalTotal) + c.MidSemester + c.EndSemester
	r.Grade = LetterGrade(r.FinalTotal)
	return r
}
