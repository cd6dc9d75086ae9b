package service

import (
	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
)

// GradeService 成绩折算业务接口（纯计算，不落库）
type GradeService interface {
	Compute(req *dto.ComputeGradesRequest) *dto.ComputeGradesResponse
}

type gradeService struct{}

// NewGradeService 创建 GradeService 实例
func NewGradeService() GradeService {
	return gradeService{}
}

// Compute 逐行折算，保持请求中的行顺序
func (gradeService) Compute(req *dto.ComputeGradesRequest) *dto.ComputeGradesResponse {
	rows := make([]dto.GradeRowResult, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, dto.GradeRowResult{
			GradeRow: row,
			Result:   course.ComputeGrade(row.GradeComponents),
		})
	}
	return &dto.ComputeGradesResponse{Rows: rows}
}
