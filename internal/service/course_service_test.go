package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
	"github.com/replyre/kiit-lms-final-sub000/internal/dto"
	"github.com/replyre/kiit-lms-final-sub000/internal/model"
)

// ── 测试辅助 ──

const (
	testTeacherID = "teacher-1"
	testCourseID  = "course-MA2001"
)

func setupTestCourseService() (CourseService, *mockUserRepo, *mockCourseRepo) {
	repo, userRepo, courseRepo := newMockRepository()
	return NewCourseService(repo, zap.NewNop()), userRepo, courseRepo
}

// seedCourse 写入一门带名单与考勤的课程
func seedCourse(courseRepo *mockCourseRepo, doc course.Document) *model.Course {
	c := &model.Course{CourseID: testCourseID, Code: "MA2001", Title: "Probability & Statistics", OwnerID: testTeacherID}
	_ = c.EncodeDocument(doc)
	for i, s := range doc.Students {
		c.Students = append(c.Students, model.CourseStudent{
			CourseID: testCourseID, StudentID: s.ID, RollNo: s.RollNo, Name: s.Name, Program: s.Program, Position: i,
		})
	}
	courseRepo.courses[c.CourseID] = c
	return c
}

// attendanceDoc 三名学生、两次会话：s1 全勤，s2 一次，s3 缺勤
func attendanceDoc() course.Document {
	doc := course.NewDocument()
	doc.Students = []course.Student{
		{ID: "s1", RollNo: "2105001", Name: "Asha", Program: "B.Tech CSE"},
		{ID: "s2", RollNo: "2105002", Name: "Bikram", Program: "B.Tech CSE"},
		{ID: "s3", RollNo: "2105003", Name: "Chitra", Program: "B.Tech IT"},
	}
	k1 := course.SessionKey{Date: "2025-02-10", Time: "18:00"}
	k2 := course.SessionKey{Date: "2025-02-12", Time: "18:00"}
	doc = course.MarkStudentPresent(doc, k1, "s1")
	doc = course.MarkStudentPresent(doc, k1, "s2")
	doc = course.MarkStudentPresent(doc, k2, "s1")
	return doc
}

func buildRosterXLSX(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		r := row
		cellName, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cellName, &r); err != nil {
			t.Fatalf("写入测试 Excel 失败: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("生成测试 Excel 失败: %v", err)
	}
	return buf
}

// ── Create / List / Get ──

func TestCourseService_CreateAndDuplicate(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()

	resp, err := svc.Create(context.Background(), &dto.CreateCourseRequest{Code: " MA2001 ", Title: "Probability"}, testTeacherID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Code != "MA2001" || resp.OwnerID != testTeacherID {
		t.Errorf("课程信息错误: %+v", resp)
	}

	doc, err := courseRepo.courses[resp.ID].DecodeDocument()
	if err != nil {
		t.Fatalf("新课程文档应可解析: %v", err)
	}
	if len(doc.WeeklyPlan) != 0 || len(doc.Attendance.Sessions) != 0 {
		t.Error("新课程应为空文档")
	}

	_, err = svc.Create(context.Background(), &dto.CreateCourseRequest{Code: "MA2001", Title: "Again"}, testTeacherID)
	if !errors.Is(err, ErrCourseCodeExists) {
		t.Errorf("期望 ErrCourseCodeExists，实际: %v", err)
	}
}

func TestCourseService_ListByRole(t *testing.T) {
	svc, userRepo, courseRepo := setupTestCourseService()
	seedCourse(courseRepo, attendanceDoc())
	userRepo.users["stu-1"] = &model.User{UserID: "stu-1", RollNo: "2105002", Role: model.RoleStudent}
	userRepo.users["stu-x"] = &model.User{UserID: "stu-x", RollNo: "9999999", Role: model.RoleStudent}

	page := &dto.PaginationRequest{}

	list, total, err := svc.List(context.Background(), testTeacherID, model.RoleTeacher, page)
	if err != nil || total != 1 || list[0].StudentCount != 3 {
		t.Errorf("教师课程列表错误: total=%d err=%v", total, err)
	}

	_, total, _ = svc.List(context.Background(), "stu-1", model.RoleStudent, page)
	if total != 1 {
		t.Errorf("名单内学生应看到 1 门课程，实际=%d", total)
	}

	_, total, _ = svc.List(context.Background(), "stu-x", model.RoleStudent, page)
	if total != 0 {
		t.Errorf("名单外学生不应看到课程，实际=%d", total)
	}
}

func TestCourseService_GetChecksOwner(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	doc := course.UpdateCreditPoints(attendanceDoc(), course.CreditLecture, 3)
	doc = course.UpdateCreditPoints(doc, course.CreditTutorial, 1)
	seedCourse(courseRepo, doc)

	detail, err := svc.Get(context.Background(), testCourseID, testTeacherID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if len(detail.Document.Students) != 3 {
		t.Errorf("文档应带名单，实际=%d", len(detail.Document.Students))
	}
	if detail.TotalCredits != 4 {
		t.Errorf("期望总学分=4，实际=%d", detail.TotalCredits)
	}

	if _, err := svc.Get(context.Background(), testCourseID, "other-teacher"); !errors.Is(err, ErrForbiddenCourse) {
		t.Errorf("期望 ErrForbiddenCourse，实际: %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", testTeacherID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── ImportRoster ──

func TestCourseService_ImportRoster(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	seedCourse(courseRepo, course.NewDocument())

	buf := buildRosterXLSX(t, [][]interface{}{
		{"Name", "Roll No", "Student ID", "Program"},
		{"Asha", "2105001", "s1", "B.Tech CSE"},
		{"", "", "", ""},
		{"Bikram", "2105002", "s2", "B.Tech CSE"},
		{"Asha Again", "2105009", "s1", "B.Tech CSE"},
		{"NoRoll", "", "s4", ""},
	})

	resp, err := svc.ImportRoster(context.Background(), testCourseID, testTeacherID, buf)
	if err != nil {
		t.Fatalf("ImportRoster 应成功: %v", err)
	}
	if resp.Imported != 2 {
		t.Errorf("期望导入 2 人，实际=%d", resp.Imported)
	}
	if len(resp.Skipped) != 2 {
		t.Errorf("期望跳过 2 行，实际=%v", resp.Skipped)
	}

	students := courseRepo.courses[testCourseID].Students
	if len(students) != 2 || students[0].StudentID != "s1" || students[1].Name != "Bikram" {
		t.Errorf("名单内容或顺序错误: %+v", students)
	}
}

func TestCourseService_ImportRoster_BadHeader(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	seedCourse(courseRepo, course.NewDocument())

	buf := buildRosterXLSX(t, [][]interface{}{
		{"Name", "Email"},
		{"Asha", "a@kiit.ac.in"},
	})
	if _, err := svc.ImportRoster(context.Background(), testCourseID, testTeacherID, buf); !errors.Is(err, ErrRosterBadHeader) {
		t.Errorf("期望 ErrRosterBadHeader，实际: %v", err)
	}
}

func TestCourseService_ImportRoster_Forbidden(t *testing.T) {
	svc, _, courseRepo := setupTestCourseService()
	seedCourse(courseRepo, course.NewDocument())

	buf := buildRosterXLSX(t, [][]interface{}{{"ID", "Roll No", "Name"}, {"s1", "1", "A"}})
	if _, err := svc.ImportRoster(context.Background(), testCourseID, "intruder", buf); !errors.Is(err, ErrForbiddenCourse) {
		t.Errorf("期望 ErrForbiddenCourse，实际: %v", err)
	}
}

// ── MyAttendance ──

func TestCourseService_MyAttendance(t *testing.T) {
	svc, userRepo, courseRepo := setupTestCourseService()
	seedCourse(courseRepo, attendanceDoc())
	userRepo.users["stu-2"] = &model.User{UserID: "stu-2", RollNo: "2105002", Role: model.RoleStudent}
	userRepo.users["stu-x"] = &model.User{UserID: "stu-x", RollNo: "9999999", Role: model.RoleStudent}

	resp, err := svc.MyAttendance(context.Background(), testCourseID, "stu-2")
	if err != nil {
		t.Fatalf("MyAttendance 应成功: %v", err)
	}
	if resp.StudentID != "s2" || resp.Attended != 1 || resp.Total != 2 || resp.Rate != 50 {
		t.Errorf("出勤统计错误: %+v", resp)
	}

	if _, err := svc.MyAttendance(context.Background(), testCourseID, "stu-x"); !errors.Is(err, ErrNotEnrolled) {
		t.Errorf("期望 ErrNotEnrolled，实际: %v", err)
	}
}
