package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
	"github.com/replyre/kiit-lms-final-sub000/pkg/redis"
)

// ── 草稿模块业务错误 ──

var (
	ErrDraftNotFound         = errors.New("草稿不存在或已过期，请重新打开课程")
	ErrDraftStoreUnavailable = errors.New("草稿存储不可用")
	ErrSaveFailed            = errors.New("保存课程失败，草稿已保留")
	ErrInvalidDateRange      = errors.New("统计日期区间无效")
)

// maxHeatMapDays 热力图最大跨度
const maxHeatMapDays = 400

// Draft 编辑草稿：某位教师对某门课程的本地工作副本
type Draft struct {
	CourseID  string          `json:"course_id"`
	EditorID  string          `json:"editor_id"`
	Document  course.Document `json:"document"`
	Dirty     bool            `json:"dirty"`
	OpenedAt  time.Time       `json:"opened_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// DraftService 课程编辑草稿业务接口
//
// 编辑流程：Open 拉取课程 → Apply 逐个执行编辑动作 → Save 整体保存。
// 保存为后写者胜，不做版本校验；保存失败时草稿原样保留。
type DraftService interface {
	Open(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error)
	Get(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error)
	Apply(ctx context.Context, editorID, courseID string, actions []course.Action) (*dto.DraftResponse, error)
	Save(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error)
	Discard(ctx context.Context, editorID, courseID string) error
	SessionAttendance(ctx context.Context, editorID, courseID string, q *dto.SessionAttendanceQuery) (*dto.SessionAttendanceResponse, error)
	Stats(ctx context.Context, editorID, courseID string, q *dto.StatsQuery) (*dto.StatsResponse, error)
	ImportSchedule(ctx context.Context, editorID, courseID string, reader io.Reader) (*dto.DraftResponse, error)
}

type draftService struct {
	repo   *repository.Repository
	store  DraftStore
	ttl    time.Duration
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewDraftService 创建 DraftService 实例，store 可为 nil
func NewDraftService(cfg *config.Config, repo *repository.Repository, store DraftStore, logger *zap.Logger) DraftService {
	return &draftService{
		repo:   repo,
		store:  store,
		ttl:    cfg.Draft.TTL,
		loc:    loadLocation(cfg.Server.Timezone),
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Open / Get / Discard ──────────────────────

// Open 从数据库拉取课程并覆盖该教师已有的草稿
func (s *draftService) Open(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error) {
	if s.store == nil {
		return nil, ErrDraftStoreUnavailable
	}

	c, err := loadOwnedCourse(ctx, s.repo, courseID, editorID)
	if err != nil {
		return nil, err
	}
	doc, err := c.DecodeDocument()
	if err != nil {
		s.logger.Error("解析课程文档失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	draft := &Draft{
		CourseID:  courseID,
		EditorID:  editorID,
		Document:  doc,
		OpenedAt:  now,
		UpdatedAt: now,
	}
	if err := s.put(ctx, draft); err != nil {
		return nil, err
	}
	return toDraftResponse(draft), nil
}

func (s *draftService) Get(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}
	return toDraftResponse(draft), nil
}

func (s *draftService) Discard(ctx context.Context, editorID, courseID string) error {
	if s.store == nil {
		return ErrDraftStoreUnavailable
	}
	if err := s.store.DeleteDraft(ctx, editorID, courseID); err != nil {
		s.logger.Error("删除草稿失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Apply ──────────────────────

// Apply 按顺序执行编辑动作；任一动作非法时整批不生效
func (s *draftService) Apply(ctx context.Context, editorID, courseID string, actions []course.Action) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}

	st := course.NewStore(draft.Document)
	doc, err := st.Dispatch(actions...)
	if err != nil {
		return nil, err
	}

	draft.Document = doc
	draft.Dirty = true
	draft.UpdatedAt = s.now()
	if err := s.put(ctx, draft); err != nil {
		return nil, err
	}
	return toDraftResponse(draft), nil
}

// ImportSchedule 从 ICS 课表导入上课日/时间与起止日期，结果写入草稿
func (s *draftService) ImportSchedule(ctx context.Context, editorID, courseID string, reader io.Reader) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}

	imported, err := ParseScheduleICS(reader, s.loc)
	if err != nil {
		return nil, err
	}

	actions := imported.Actions(draft.Document)
	if len(actions) == 0 {
		return toDraftResponse(draft), nil
	}
	return s.Apply(ctx, editorID, courseID, actions)
}

// ────────────────────── Save ──────────────────────

// Save 整体保存草稿文档（后写者胜），随后以服务端回显覆盖草稿，学生名单保留本地副本
func (s *draftService) Save(ctx context.Context, editorID, courseID string) (*dto.DraftResponse, error) {
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}

	// 草稿期间课程可能已被删除或转交
	if _, err := loadOwnedCourse(ctx, s.repo, courseID, editorID); err != nil {
		return nil, err
	}

	var encoded model.Course
	if err := encoded.EncodeDocument(draft.Document); err != nil {
		return nil, err
	}
	if err := s.repo.Course.SaveDocument(ctx, courseID, encoded.Document); err != nil {
		s.logger.Error("保存课程文档失败",
			zap.String("course_id", courseID),
			zap.String("editor_id", editorID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	st := course.NewStore(draft.Document)
	saved := st.Current()
	if c, err := loadCourse(ctx, s.repo, courseID); err != nil {
		s.logger.Warn("读取保存回显失败，沿用本地文档", zap.String("course_id", courseID), zap.Error(err))
	} else if echo, err := c.DecodeDocument(); err != nil {
		s.logger.Warn("解析保存回显失败，沿用本地文档", zap.String("course_id", courseID), zap.Error(err))
	} else {
		saved = echo
	}

	draft.Document = st.AdoptSaved(saved)
	draft.Dirty = false
	draft.UpdatedAt = s.now()
	if err := s.put(ctx, draft); err != nil {
		// 课程已落库，草稿刷新失败不影响保存结果
		s.logger.Warn("保存后刷新草稿失败", zap.String("course_id", courseID), zap.Error(err))
	}

	s.logger.Info("课程已保存", zap.String("course_id", courseID), zap.String("editor_id", editorID))
	return toDraftResponse(draft), nil
}

// ────────────────────── 只读查询 ──────────────────────

func (s *draftService) SessionAttendance(ctx context.Context, editorID, courseID string, q *dto.SessionAttendanceQuery) (*dto.SessionAttendanceResponse, error) {
	key, err := course.NewSessionKey(q.Date, q.Time)
	if err != nil {
		return nil, err
	}
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionAttendanceResponse{
		Date:    key.Date,
		Time:    key.Time,
		State:   course.GetSessionState(draft.Document, key),
		Present: course.GetSessionAttendance(draft.Document, key),
	}, nil
}

// Stats 草稿文档的考勤统计；未指定区间时热力图覆盖首末会话所在日期
func (s *draftService) Stats(ctx context.Context, editorID, courseID string, q *dto.StatsQuery) (*dto.StatsResponse, error) {
	draft, err := s.load(ctx, editorID, courseID)
	if err != nil {
		return nil, err
	}
	doc := draft.Document
	perDate := course.DateAttendance(doc)

	resp := &dto.StatsResponse{
		ClassAverage: course.ClassAverageAttendance(doc),
		Sessions:     len(doc.Attendance.Sessions),
		Students:     course.StudentRates(doc),
		Dates:        perDate,
	}

	from, to, ok, err := heatMapRange(q, course.SortedDates(perDate))
	if err != nil {
		return nil, err
	}
	if ok {
		resp.HeatMap = course.HeatMap(doc, from, to)
	}
	return resp, nil
}

// heatMapRange 解析热力图区间；ok=false 表示无需生成热力图
func heatMapRange(q *dto.StatsQuery, dates []string) (from, to time.Time, ok bool, err error) {
	fromStr, toStr := q.From, q.To
	if fromStr == "" && len(dates) > 0 {
		fromStr = dates[0]
	}
	if toStr == "" && len(dates) > 0 {
		toStr = dates[len(dates)-1]
	}
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if from, err = time.Parse(course.DateLayout, fromStr); err != nil {
		return time.Time{}, time.Time{}, false, ErrInvalidDateRange
	}
	if to, err = time.Parse(course.DateLayout, toStr); err != nil {
		return time.Time{}, time.Time{}, false, ErrInvalidDateRange
	}
	if to.Before(from) || to.Sub(from) > maxHeatMapDays*24*time.Hour {
		return time.Time{}, time.Time{}, false, ErrInvalidDateRange
	}
	return from, to, true, nil
}

// ── 内部辅助方法 ──

func (s *draftService) load(ctx context.Context, editorID, courseID string) (*Draft, error) {
	if s.store == nil {
		return nil, ErrDraftStoreUnavailable
	}
	raw, err := s.store.LoadDraft(ctx, editorID, courseID)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		s.logger.Error("读取草稿失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	draft := &Draft{Document: course.NewDocument()}
	if err := json.Unmarshal(raw, draft); err != nil {
		// 草稿损坏时视同过期，由前端重新打开
		s.logger.Warn("草稿数据损坏", zap.String("course_id", courseID), zap.Error(err))
		return nil, ErrDraftNotFound
	}
	draft.Document = draft.Document.Clone()
	return draft, nil
}

func (s *draftService) put(ctx context.Context, draft *Draft) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("序列化草稿失败: %w", err)
	}
	if err := s.store.SaveDraft(ctx, draft.EditorID, draft.CourseID, raw, s.ttl); err != nil {
		s.logger.Error("写入草稿失败", zap.String("course_id", draft.CourseID), zap.Error(err))
		return err
	}
	return nil
}

func toDraftResponse(d *Draft) *dto.DraftResponse {
	return &dto.DraftResponse{
		CourseID:     d.CourseID,
		Document:     d.Document,
		TotalCredits: course.TotalCredits(d.Document),
		Dirty:        d.Dirty,
		OpenedAt:     d.OpenedAt.Format(time.RFC3339),
		UpdatedAt:    d.UpdatedAt.Format(time.RFC3339),
	}
}

// loadLocation 加载时区，无效时回退 UTC
func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
