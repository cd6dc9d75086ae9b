package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/service"
	"github.com/replyre/kiit-lms-final-sub000/pkg/response"
)

// DraftHandler 课程编辑草稿 HTTP 处理器
type DraftHandler struct {
	draftSvc service.DraftService
}

// NewDraftHandler 创建 DraftHandler
func NewDraftHandler(draftSvc service.DraftService) *DraftHandler {
	return &DraftHandler{draftSvc: draftSvc}
}

// OpenDraft 打开课程编辑（覆盖已有草稿）
// POST /api/v1/courses/:id/draft
func (h *DraftHandler) OpenDraft(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.Open(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.Created(c, draft)
}

// GetDraft 获取当前草稿
// GET /api/v1/courses/:id/draft
func (h *DraftHandler) GetDraft(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// ApplyActions 按顺序执行编辑动作
// POST /api/v1/courses/:id/draft/actions
func (h *DraftHandler) ApplyActions(c *gin.Context) {
	var req dto.ApplyActionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.Apply(c.Request.Context(), userID, c.Param("id"), req.Actions)
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// SaveDraft 保存草稿到课程
// POST /api/v1/courses/:id/draft/save
func (h *DraftHandler) SaveDraft(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	draft, err := h.draftSvc.Save(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, draft)
}

// DiscardDraft 丢弃草稿
// DELETE /api/v1/courses/:id/draft
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.draftSvc.Discard(c.Request.Context(), userID, c.Param("id")); err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, nil)
}

// SessionAttendance 查询单次会话考勤
// GET /api/v1/courses/:id/draft/attendance?date=2025-02-10&time=18:00
func (h *DraftHandler) SessionAttendance(c *gin.Context) {
	var q dto.SessionAttendanceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.draftSvc.SessionAttendance(c.Request.Context(), userID, c.Param("id"), &q)
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, result)
}

// Stats 考勤统计与热力图
// GET /api/v1/courses/:id/draft/stats?from=&to=
func (h *DraftHandler) Stats(c *gin.Context) {
	var q dto.StatsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.draftSvc.Stats(c.Request.Context(), userID, c.Param("id"), &q)
	if err != nil {
		handleDraftError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportSchedule 从 ICS 文件导入课程日程到草稿
// POST /api/v1/courses/:id/draft/schedule (multipart, 字段 file)
func (h *DraftHandler) ImportSchedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传 ICS 文件")
		return
	}
	defer file.Close()

	draft, err := h.draftSvc.ImportSchedule(c.Request.Context(), userID, c.Param("id"), file)
	if err != nil {
		handleUploadError(c, err, 13006, handleDraftError)
		return
	}

	response.OK(c, draft)
}

func handleDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, 13001, "草稿不存在或已过期，请重新打开课程")
	case errors.Is(err, service.ErrDraftStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 13002, "草稿存储暂不可用")
	case errors.Is(err, service.ErrSaveFailed):
		response.ErrorWithDetails(c, http.StatusBadGateway, 13003, "保存失败，草稿已保留，请稍后重试", err.Error())
	case errors.Is(err, course.ErrUnknownAction):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13004, "编辑动作无效", err.Error())
	case errors.Is(err, course.ErrInvalidSessionKey):
		response.ErrorWithDetails(c, http.StatusBadRequest, 13007, "考勤日期或时间格式无效", err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 13005, "统计日期区间无效")
	default:
		handleCourseError(c, err)
	}
}
