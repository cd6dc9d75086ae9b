package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/replyre/kiit-lms-final-sub000/internal/service"
	"github.com/replyre/kiit-lms-final-sub000/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAttendance 导出考勤状态表
// GET /api/v1/courses/:id/export/attendance
func (h *ExportHandler) ExportAttendance(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.AttendanceSheet(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleExportError(c, err)
		return
	}

	response.File(c, response.ContentTypeXLSX, filename, buf.Bytes())
}

// ExportSchedule 导出课表
// GET /api/v1/courses/:id/export/schedule.ics
func (h *ExportHandler) ExportSchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	body, filename, err := h.exportSvc.ScheduleICS(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		handleExportError(c, err)
		return
	}

	response.File(c, response.ContentTypeICS, filename, body)
}

func handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoSchedule):
		response.BadRequest(c, 14001, "课程日程不完整，无法生成课表")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCourseError(c, err)
	}
}
