package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *mockUserRepo, *mockCourseRepo) {
	repo, userRepo, courseRepo := newMockRepository()
	return NewExportService(testConfig(), repo, zap.NewNop()), userRepo, courseRepo
}

func scheduledDoc() course.Document {
	doc := attendanceDoc()
	doc.CourseSchedule = sampleSchedule()
	return doc
}

// ── AttendanceSheet ──

func TestExportService_AttendanceSheet(t *testing.T) {
	svc, _, courseRepo := setupTestExportService()
	seedCourse(courseRepo, attendanceDoc())

	buf, filename, err := svc.AttendanceSheet(context.Background(), testCourseID, testTeacherID)
	if err != nil {
		t.Fatalf("AttendanceSheet 应成功: %v", err)
	}
	if filename != "MA2001_attendance.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可读取: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	if err != nil {
		t.Fatalf("读取 Attendance 工作表失败: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("期望 5 行（标题+表头+3 名学生），实际=%d", len(rows))
	}
	header := rows[1]
	if header[3] != "2025-02-10 18:00" || header[len(header)-1] != "Attendance %" {
		t.Errorf("表头错误: %v", header)
	}
	// Bikram：第一次出勤，第二次缺勤，出勤率 50
	if strings.Join(rows[3], ",") != "2105002,Bikram,B.Tech CSE,P,A,50" {
		t.Errorf("学生行错误: %v", rows[3])
	}

	daily, _ := f.GetRows("Daily")
	if len(daily) != 3 || daily[1][0] != "2025-02-10" || daily[1][1] != "67" {
		t.Errorf("Daily 工作表错误: %v", daily)
	}
}

func TestExportService_AttendanceSheet_Forbidden(t *testing.T) {
	svc, _, courseRepo := setupTestExportService()
	seedCourse(courseRepo, attendanceDoc())

	_, _, err := svc.AttendanceSheet(context.Background(), testCourseID, "other-teacher")
	if !errors.Is(err, ErrForbiddenCourse) {
		t.Errorf("期望 ErrForbiddenCourse，实际: %v", err)
	}
}

// ── GradeSheet ──

func TestExportService_GradeSheet(t *testing.T) {
	svc, _, _ := setupTestExportService()

	buf, filename, err := svc.GradeSheet(sampleGradeRequest())
	if err != nil {
		t.Fatalf("GradeSheet 应成功: %v", err)
	}
	if filename != "MA2001_grades.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("导出文件应可读取: %v", err)
	}
	defer f.Close()

	rows, _ := f.GetRows("Grades")
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际=%d", len(rows))
	}
	if len(rows[0]) != len(gradeHeader) {
		t.Errorf("表头列数错误: %d", len(rows[0]))
	}
	if last := rows[1][len(rows[1])-1]; last != "E" {
		t.Errorf("等级列错误: %s", last)
	}
}

// ── ScheduleICS ──

func TestExportService_ScheduleICS(t *testing.T) {
	svc, userRepo, courseRepo := setupTestExportService()
	seedCourse(courseRepo, scheduledDoc())
	userRepo.users["stu-1"] = &model.User{UserID: "stu-1", RollNo: "2105001", Role: model.RoleStudent}
	userRepo.users["stu-x"] = &model.User{UserID: "stu-x", RollNo: "9999999", Role: model.RoleStudent}
	ctx := context.Background()

	body, filename, err := svc.ScheduleICS(ctx, testCourseID, testTeacherID, model.RoleTeacher)
	if err != nil {
		t.Fatalf("教师导出应成功: %v", err)
	}
	if filename != "MA2001_schedule.ics" || !strings.Contains(string(body), "BEGIN:VCALENDAR") {
		t.Errorf("导出内容错误: %s", filename)
	}

	if _, _, err := svc.ScheduleICS(ctx, testCourseID, "stu-1", model.RoleStudent); err != nil {
		t.Errorf("名单内学生导出应成功: %v", err)
	}
	if _, _, err := svc.ScheduleICS(ctx, testCourseID, "stu-x", model.RoleStudent); !errors.Is(err, ErrForbiddenCourse) {
		t.Errorf("名单外学生期望 ErrForbiddenCourse，实际: %v", err)
	}
}

func TestExportService_ScheduleICS_NoSchedule(t *testing.T) {
	svc, _, courseRepo := setupTestExportService()
	seedCourse(courseRepo, attendanceDoc())

	_, _, err := svc.ScheduleICS(context.Background(), testCourseID, testTeacherID, model.RoleTeacher)
	if !errors.Is(err, ErrExportNoSchedule) {
		t.Errorf("期望 ErrExportNoSchedule，实际: %v", err)
	}
}
