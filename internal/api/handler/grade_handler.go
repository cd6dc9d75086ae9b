package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/service"
	"github.com/replyre/kiit-lms-final-sub000/pkg/response"
)

// GradeHandler 成绩折算 HTTP 处理器
type GradeHandler struct {
	gradeSvc  service.GradeService
	exportSvc service.ExportService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService, exportSvc service.ExportService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc, exportSvc: exportSvc}
}

// ComputeGrades 折算成绩
// POST /api/v1/grades/compute
func (h *GradeHandler) ComputeGrades(c *gin.Context) {
	var req dto.ComputeGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	response.OK(c, h.gradeSvc.Compute(&req))
}

// ExportGrades 导出成绩表
// POST /api/v1/grades/export
func (h *GradeHandler) ExportGrades(c *gin.Context) {
	var req dto.ComputeGradesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.exportSvc.GradeSheet(&req)
	if err != nil {
		handleExportError(c, err)
		return
	}

	response.File(c, response.ContentTypeXLSX, filename, buf.Bytes())
}
