package dto

import "github.com/replyre/kiit-lms-final-sub000/internal/course"

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	Code  string `json:"code"  binding:"required,max=32"`
	Title string `json:"title" binding:"required,max=200"`
}

// CourseResponse 课程列表项
type CourseResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Title        string `json:"title"`
	OwnerID      string `json:"owner_id"`
	StudentCount int    `json:"student_count"`
	UpdatedAt    string `json:"updated_at"`
}

// CourseDetailResponse 课程详情（含文档与名单）
type CourseDetailResponse struct {
	CourseResponse
	Document     course.Document `json:"document"`
	TotalCredits int             `json:"total_credits"`
}

// RosterImportResponse 名单导入结果
type RosterImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"` // 被跳过的行说明
}

// MyAttendanceResponse 学生本人出勤情况
type MyAttendanceResponse struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Attended  int    `json:"attended"`
	Total     int    `json:"total"`
	Rate      int    `json:"rate"`
}
