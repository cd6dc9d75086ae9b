package service

import (
	"testing"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
)

func sampleGradeRequest() *dto.ComputeGradesRequest {
	return &dto.ComputeGradesRequest{
		Title: "MA2001_grades",
		Rows: []dto.GradeRow{
			{StudentID: "s1", Name: "Asha", GradeComponents: course.GradeComponents{
				Assignment1: 9, Assignment2: 10, Quiz1: 8, Quiz2: 8, Activity1: 5, Activity2: 6,
				MidSemester: 18, EndSemester: 38,
			}},
			{StudentID: "s2", Name: "Bikram", GradeComponents: course.GradeComponents{
				Assignment1: 2, Assignment2: 3, Quiz1: 1, Quiz2: 2,
				MidSemester: 5, EndSemester: 10,
			}},
		},
	}
}

func TestGradeService_Compute(t *testing.T) {
	resp := NewGradeService().Compute(sampleGradeRequest())

	if len(resp.Rows) != 2 {
		t.Fatalf("期望 2 行，实际=%d", len(resp.Rows))
	}
	if resp.Rows[0].StudentID != "s1" || resp.Rows[0].Result.Grade != "E" || resp.Rows[0].Result.FinalTotal != 80 {
		t.Errorf("第一行结果错误: %+v", resp.Rows[0])
	}
	// (2+3)/2=2.5→3, (1+2)/2=1.5→2, 0 → 平时 5，总评 20
	if resp.Rows[1].Result.InternalTotal != 5 || resp.Rows[1].Result.Grade != "F" {
		t.Errorf("第二行结果错误: %+v", resp.Rows[1].Result)
	}
}
