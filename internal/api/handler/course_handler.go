package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/service"
	"github.com/replyre/kiit-lms-final-sub000/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// ListCourses 课程列表（教师：本人开设；学生：名单中包含本人）
// GET /api/v1/courses?page=1&page_size=20
func (h *CourseHandler) ListCourses(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	list, total, err := h.courseSvc.List(c.Request.Context(), userID, role, &page)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OKPage(c, list, total, page.GetPage(), page.GetPageSize())
}

// CreateCourse 创建课程
// POST /api/v1/courses
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Create(c.Request.Context(), &req, userID)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.Created(c, course)
}

// GetCourse 获取课程详情（已保存文档 + 名单）
// GET /api/v1/courses/:id
func (h *CourseHandler) GetCourse(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	course, err := h.courseSvc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OK(c, course)
}

// ImportRoster 上传 Excel 替换课程名单
// POST /api/v1/courses/:id/roster (multipart, 字段 file)
func (h *CourseHandler) ImportRoster(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传名单文件")
		return
	}
	defer file.Close()

	result, err := h.courseSvc.ImportRoster(c.Request.Context(), c.Param("id"), userID, file)
	if err != nil {
		handleUploadError(c, err, 12006, handleCourseError)
		return
	}

	response.OK(c, result)
}

// MyAttendance 学生查看本人出勤率
// GET /api/v1/courses/:id/attendance/me
func (h *CourseHandler) MyAttendance(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.courseSvc.MyAttendance(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleCourseError(c, err)
		return
	}

	response.OK(c, result)
}

// handleCourseError 课程相关错误映射，草稿与导出处理器共用
func handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12001, "课程不存在")
	case errors.Is(err, service.ErrForbiddenCourse):
		response.Forbidden(c, 12002, "无权访问该课程")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 12003, "课程代码已存在")
	case errors.Is(err, service.ErrNotEnrolled):
		response.Forbidden(c, 12004, "未在该课程名单中")
	case errors.Is(err, service.ErrRosterNoData),
		errors.Is(err, service.ErrRosterBadHeader),
		errors.Is(err, service.ErrRosterTooManyRows):
		response.BadRequest(c, 12005, err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11003, "用户不存在")
	default:
		response.InternalError(c)
	}
}

// handleUploadError 上传文件无法解析时返回 400，其余交给 fallback
func handleUploadError(c *gin.Context, err error, code int, fallback func(*gin.Context, error)) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	if errors.Is(err, service.ErrUploadUnreadable) {
		response.ErrorWithDetails(c, http.StatusBadRequest, code, "文件解析失败", err.Error())
		return
	}
	fallback(c, err)
}
