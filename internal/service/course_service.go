package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound    = errors.New("课程不存在")
	ErrCourseCodeExists  = errors.New("课程代码已存在")
	ErrForbiddenCourse   = errors.New("无权访问该课程")
	ErrNotEnrolled       = errors.New("未在该课程名单中")
	ErrRosterNoData      = errors.New("名单文件无数据行（第一行为表头）")
	ErrRosterBadHeader   = errors.New("名单表头缺少必要列（学生ID/学号/姓名）")
	ErrRosterTooManyRows = fmt.Errorf("名单行数超过上限 %d 行", maxRosterRows)

	// ErrUploadUnreadable 上传文件无法按预期格式解析（名单 Excel、课表 ICS）
	ErrUploadUnreadable = errors.New("上传文件无法解析")
)

const maxRosterRows = 1000

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, ownerID string) (*dto.CourseResponse, error)
	List(ctx context.Context, userID, role string, page *dto.PaginationRequest) ([]dto.CourseResponse, int64, error)
	Get(ctx context.Context, courseID, callerID string) (*dto.CourseDetailResponse, error)
	ImportRoster(ctx context.Context, courseID, callerID string, reader io.Reader) (*dto.RosterImportResponse, error)
	MyAttendance(ctx context.Context, courseID, userID string) (*dto.MyAttendanceResponse, error)
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create / List / Get ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, ownerID string) (*dto.CourseResponse, error) {
	c := &model.Course{
		Code:    strings.TrimSpace(req.Code),
		Title:   strings.TrimSpace(req.Title),
		OwnerID: ownerID,
	}
	if err := c.EncodeDocument(course.NewDocument()); err != nil {
		return nil, err
	}

	if err := s.repo.Course.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCourseCodeExists
		}
		s.logger.Error("创建课程失败", zap.String("code", c.Code), zap.Error(err))
		return nil, err
	}

	resp := toCourseResponse(c)
	return &resp, nil
}

// List 教师返回自己开设的课程，学生返回名单中包含本人学号的课程
func (s *courseService) List(ctx context.Context, userID, role string, page *dto.PaginationRequest) ([]dto.CourseResponse, int64, error) {
	var (
		courses []model.Course
		total   int64
		err     error
	)
	if role == model.RoleTeacher {
		courses, total, err = s.repo.Course.ListByOwner(ctx, userID, page.GetOffset(), page.GetPageSize())
	} else {
		user, uerr := s.repo.User.GetByID(ctx, userID)
		if uerr != nil {
			if errors.Is(uerr, gorm.ErrRecordNotFound) {
				return nil, 0, ErrUserNotFound
			}
			return nil, 0, uerr
		}
		if user.RollNo == "" {
			return []dto.CourseResponse{}, 0, nil
		}
		courses, total, err = s.repo.Course.ListByRollNo(ctx, user.RollNo, page.GetOffset(), page.GetPageSize())
	}
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		list = append(list, toCourseResponse(&courses[i]))
	}
	return list, total, nil
}

func (s *courseService) Get(ctx context.Context, courseID, callerID string) (*dto.CourseDetailResponse, error) {
	c, err := loadOwnedCourse(ctx, s.repo, courseID, callerID)
	if err != nil {
		return nil, err
	}
	doc, err := c.DecodeDocument()
	if err != nil {
		s.logger.Error("解析课程文档失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return &dto.CourseDetailResponse{
		CourseResponse: toCourseResponse(c),
		Document:       doc,
		TotalCredits:   course.TotalCredits(doc),
	}, nil
}

// ────────────────────── ImportRoster ──────────────────────

// RosterRow 名单 Excel 解析后的单行数据
type RosterRow struct {
	Row       int
	StudentID string
	RollNo    string
	Name      string
	Program   string
}

// ImportRoster 解析上传的名单并整体替换课程名单
// 缺字段或学生 ID 重复的行被跳过并在结果中说明
func (s *courseService) ImportRoster(ctx context.Context, courseID, callerID string, reader io.Reader) (*dto.RosterImportResponse, error) {
	if _, err := loadOwnedCourse(ctx, s.repo, courseID, callerID); err != nil {
		return nil, err
	}

	rows, err := ParseRosterFile(reader)
	if err != nil {
		return nil, err
	}

	resp := &dto.RosterImportResponse{}
	seen := make(map[string]bool, len(rows))
	students := make([]model.CourseStudent, 0, len(rows))
	for _, row := range rows {
		if row.StudentID == "" || row.RollNo == "" || row.Name == "" {
			resp.Skipped = append(resp.Skipped, fmt.Sprintf("第 %d 行: 必填字段为空", row.Row))
			continue
		}
		if seen[row.StudentID] {
			resp.Skipped = append(resp.Skipped, fmt.Sprintf("第 %d 行: 学生ID重复 %s", row.Row, row.StudentID))
			continue
		}
		seen[row.StudentID] = true
		students = append(students, model.CourseStudent{
			StudentID: row.StudentID,
			RollNo:    row.RollNo,
			Name:      row.Name,
			Program:   row.Program,
		})
	}

	if err := s.repo.Course.ReplaceRoster(ctx, courseID, students); err != nil {
		s.logger.Error("替换课程名单失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	resp.Imported = len(students)
	s.logger.Info("课程名单已导入",
		zap.String("course_id", courseID),
		zap.Int("imported", resp.Imported),
		zap.Int("skipped", len(resp.Skipped)),
	)
	return resp, nil
}

// ParseRosterFile 解析名单 Excel：第一个工作表，首行为表头，列序不限
func ParseRosterFile(reader io.Reader) ([]RosterRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadUnreadable, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, ErrRosterNoData
	}

	colIndex := parseRosterHeader(excelRows[0])
	if colIndex["id"] < 0 || colIndex["roll_no"] < 0 || colIndex["name"] < 0 {
		return nil, ErrRosterBadHeader
	}

	cellAt := func(row []string, key string) string {
		if idx := colIndex[key]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []RosterRow
	for i := 1; i < len(excelRows); i++ {
		item := RosterRow{
			Row:       i + 1,
			StudentID: cellAt(excelRows[i], "id"),
			RollNo:    cellAt(excelRows[i], "roll_no"),
			Name:      cellAt(excelRows[i], "name"),
			Program:   cellAt(excelRows[i], "program"),
		}
		// 跳过全空行
		if item.StudentID == "" && item.RollNo == "" && item.Name == "" && item.Program == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrRosterNoData
	}
	if len(rows) > maxRosterRows {
		return nil, ErrRosterTooManyRows
	}
	return rows, nil
}

// parseRosterHeader 解析表头，返回列名 -> 列索引映射
func parseRosterHeader(header []string) map[string]int {
	idx := map[string]int{"id": -1, "roll_no": -1, "name": -1, "program": -1}
	for i, h := range header {
		switch strings.ToLower(strings.Join(strings.Fields(h), " ")) {
		case "id", "student id", "student_id", "学生id":
			idx["id"] = i
		case "roll no", "roll_no", "rollno", "roll number", "学号":
			idx["roll_no"] = i
		case "name", "student name", "姓名":
			idx["name"] = i
		case "program", "programme", "专业":
			idx["program"] = i
		}
	}
	return idx
}

// ────────────────────── MyAttendance ──────────────────────

// MyAttendance 学生查看本人在已保存文档中的出勤率，按学号匹配名单
func (s *courseService) MyAttendance(ctx context.Context, courseID, userID string) (*dto.MyAttendanceResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	c, err := loadCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}

	var studentID string
	for _, st := range c.Students {
		if user.RollNo != "" && st.RollNo == user.RollNo {
			studentID = st.StudentID
			break
		}
	}
	if studentID == "" {
		return nil, ErrNotEnrolled
	}

	doc, err := c.DecodeDocument()
	if err != nil {
		s.logger.Error("解析课程文档失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	rate := course.StudentRateFor(doc, studentID)
	return &dto.MyAttendanceResponse{
		CourseID:  courseID,
		StudentID: studentID,
		Attended:  rate.Attended,
		Total:     rate.Total,
		Rate:      rate.Rate,
	}, nil
}

// ── 内部辅助方法 ──

// loadCourse 查询课程（含名单），记录不存在转为 ErrCourseNotFound
func loadCourse(ctx context.Context, repo *repository.Repository, courseID string) (*model.Course, error) {
	c, err := repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// loadOwnedCourse 查询课程并校验调用者为课程教师
func loadOwnedCourse(ctx context.Context, repo *repository.Repository, courseID, callerID string) (*model.Course, error) {
	c, err := loadCourse(ctx, repo, courseID)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != callerID {
		return nil, ErrForbiddenCourse
	}
	return c, nil
}

// toCourseResponse 将 model.Course 转换为 dto.CourseResponse
func toCourseResponse(c *model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:           c.CourseID,
		Code:         c.Code,
		Title:        c.Title,
		OwnerID:      c.OwnerID,
		StudentCount: len(c.Students),
		UpdatedAt:    c.UpdatedAt.Format(time.RFC3339),
	}
}
