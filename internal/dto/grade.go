package dto

import "github.com/replyre/kiit-lms-final-sub000/internal/course"

// ── 成绩折算 DTO ──

// GradeRow 单个学生的原始成绩
type GradeRow struct {
	StudentID string `json:"student_id" binding:"required"`
	Name      string `json:"name"`
	course.GradeComponents
}

// ComputeGradesRequest 成绩折算 / 导出请求
type ComputeGradesRequest struct {
	Title string     `json:"title"` // 导出文件标题，可选
	Rows  []GradeRow `json:"rows"  binding:"required,min=1,dive"`
}

// GradeRowResult 折算后的成绩行
type GradeRowResult struct {
	GradeRow
	Result course.GradeResult `json:"result"`
}

// ComputeGradesResponse 成绩折算结果
type ComputeGradesResponse struct {
	Rows []GradeRowResult `json:"rows"`
}
