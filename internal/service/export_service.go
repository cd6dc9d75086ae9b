package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoSchedule   = errors.New("课程日程不完整，无法生成课表")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 导出均基于已保存的课程文档（不含未保存的草稿修改），
// 以字节返回，由 Handler 层设置下载响应头。
type ExportService interface {
	// AttendanceSheet 考勤状态表 (.xlsx)：学生 × 会话 + 每日出勤率
	AttendanceSheet(ctx context.Context, courseID, callerID string) (*bytes.Buffer, string, error)
	// GradeSheet 成绩折算表 (.xlsx)
	GradeSheet(req *dto.ComputeGradesRequest) (*bytes.Buffer, string, error)
	// ScheduleICS 课表 (.ics)，课程教师与名单内学生可导出
	ScheduleICS(ctx context.Context, courseID, userID, role string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		loc:    loadLocation(cfg.Server.Timezone),
		logger: logger,
		now:    time.Now,
	}
}

// 表头样式
var headerStyleDef = &excelize.Style{
	Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
	Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
}

// ═══════════════════════════════════════════════════════════
// AttendanceSheet
// ═══════════════════════════════════════════════════════════
//
// Sheet "Attendance"：
//   - 第 1 行：课程标题
//   - 第 2 行：Roll No | Name | Program | 各会话（日期 时间）| Attendance %
//   - 数据行：P = 出勤，A = 缺勤
//
// Sheet "Daily"：Date | Attendance %（按日期汇总）

func (s *exportService) AttendanceSheet(ctx context.Context, courseID, callerID string) (*bytes.Buffer, string, error) {
	c, err := loadOwnedCourse(ctx, s.repo, courseID, callerID)
	if err != nil {
		return nil, "", err
	}
	doc, err := c.DecodeDocument()
	if err != nil {
		s.logger.Error("解析课程文档失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}
	sheet := course.BuildStatusSheet(doc)

	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Attendance"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	headerStyle, _ := f.NewStyle(headerStyleDef)

	lastCol := colName(3 + len(sheet.Sessions))
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s Attendance", c.Code, c.Title))
	f.MergeCell(sheetName, "A1", lastCol+"1")

	header := []interface{}{"Roll No", "Name", "Program"}
	for _, k := range sheet.Sessions {
		header = append(header, k.Date+" "+k.Time)
	}
	header = append(header, "Attendance %")
	f.SetSheetRow(sheetName, "A2", &header)
	f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)
	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 24)
	f.SetColWidth(sheetName, "C", "C", 16)

	for i, row := range sheet.Rows {
		values := []interface{}{row.Student.RollNo, row.Student.Name, row.Student.Program}
		for _, present := range row.Presence {
			if present {
				values = append(values, "P")
			} else {
				values = append(values, "A")
			}
		}
		values = append(values, row.Rate)
		f.SetSheetRow(sheetName, cell("A", i+3), &values)
	}

	const daily = "Daily"
	f.NewSheet(daily)
	f.SetSheetRow(daily, "A1", &[]interface{}{"Date", "Attendance %"})
	f.SetCellStyle(daily, "A1", "B1", headerStyle)
	f.SetColWidth(daily, "A", "A", 14)
	perDate := course.DateAttendance(doc)
	for i, date := range course.SortedDates(perDate) {
		f.SetSheetRow(daily, cell("A", i+2), &[]interface{}{date, perDate[date]})
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("%s_attendance.xlsx", c.Code), nil
}

// ═══════════════════════════════════════════════════════════
// GradeSheet
// ═══════════════════════════════════════════════════════════

var gradeHeader = []interface{}{
	"Student ID", "Name",
	"Assignment 1", "Assignment 2", "Quiz 1", "Quiz 2", "Activity 1", "Activity 2",
	"Assignment Eq.", "Quiz Eq.", "Activity Eq.", "Internal",
	"Mid Semester", "End Semester", "Total", "Grade",
}

func (s *exportService) GradeSheet(req *dto.ComputeGradesRequest) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const name = "Grades"
	idx, _ := f.NewSheet(name)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	headerStyle, _ := f.NewStyle(headerStyleDef)

	f.SetSheetRow(name, "A1", &gradeHeader)
	f.SetCellStyle(name, "A1", colName(len(gradeHeader)-1)+"1", headerStyle)
	f.SetColWidth(name, "B", "B", 24)

	for i, row := range req.Rows {
		r := course.ComputeGrade(row.GradeComponents)
		c := row.GradeComponents
		values := []interface{}{
			row.StudentID, row.Name,
			c.Assignment1, c.Assignment2, c.Quiz1, c.Quiz2, c.Activity1, c.Activity2,
			r.AssignmentEquivalent, r.QuizEquivalent, r.ActivityEquivalent, r.InternalTotal,
			c.MidSemester, c.EndSemester, r.FinalTotal, r.Grade,
		}
		f.SetSheetRow(name, cell("A", i+2), &values)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	title := req.Title
	if title == "" {
		title = "grades"
	}
	return buf, title + ".xlsx", nil
}

// ═══════════════════════════════════════════════════════════
// ScheduleICS
// ═══════════════════════════════════════════════════════════

func (s *exportService) ScheduleICS(ctx context.Context, courseID, userID, role string) ([]byte, string, error) {
	c, err := s.loadForCalendar(ctx, courseID, userID, role)
	if err != nil {
		return nil, "", err
	}
	doc, err := c.DecodeDocument()
	if err != nil {
		s.logger.Error("解析课程文档失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, "", err
	}

	body, events := BuildScheduleICS(fmt.Sprintf("%s %s", c.Code, c.Title), doc.CourseSchedule, s.loc, s.now())
	if events == 0 {
		return nil, "", ErrExportNoSchedule
	}
	return []byte(body), fmt.Sprintf("%s_schedule.ics", c.Code), nil
}

// loadForCalendar 教师须为课程所有者，学生须在名单中
func (s *exportService) loadForCalendar(ctx context.Context, courseID, userID, role string) (*model.Course, error) {
	if role == model.RoleTeacher {
		return loadOwnedCourse(ctx, s.repo, courseID, userID)
	}

	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrForbiddenCourse
	}
	c, err := loadCourse(ctx, s.repo, courseID)
	if err != nil {
		return nil, err
	}
	for _, st := range c.Students {
		if user.RollNo != "" && st.RollNo == user.RollNo {
			return c, nil
		}
	}
	return nil, ErrForbiddenCourse
}

// ── 辅助函数 ──

// colName 0-based 列索引转 Excel 列名
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

// cell 组合单元格坐标
func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
