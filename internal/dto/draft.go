package dto

import "github.com/replyre/kiit-lms-final-sub000/internal/course"

// ── 编辑草稿 DTO ──

// ApplyActionsRequest 批量提交编辑动作，按顺序执行
type ApplyActionsRequest struct {
	Actions []course.Action `json:"actions" binding:"required,min=1"`
}

// DraftResponse 草稿状态
type DraftResponse struct {
	CourseID     string          `json:"course_id"`
	Document     course.Document `json:"document"`
	TotalCredits int             `json:"total_credits"` // 按学分构成实时计算，不落库
	Dirty        bool            `json:"dirty"`         // 打开或保存后是否有未保存的修改
	OpenedAt     string          `json:"opened_at"`
	UpdatedAt    string          `json:"updated_at"`
}

// SessionAttendanceQuery 查询单次会话考勤
type SessionAttendanceQuery struct {
	Date string `form:"date" binding:"required"`
	Time string `form:"time" binding:"required"`
}

// SessionAttendanceResponse 单次会话考勤
type SessionAttendanceResponse struct {
	Date    string              `json:"date"`
	Time    string              `json:"time"`
	State   course.SessionState `json:"state"`
	Present []string            `json:"present"`
}

// StatsQuery 统计区间（热力图范围），均为 YYYY-MM-DD
type StatsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// StatsResponse 考勤统计
type StatsResponse struct {
	ClassAverage int                  `json:"class_average"`
	Sessions     int                  `json:"sessions"`
	Students     []course.StudentRate `json:"students"`
	Dates        map[string]int       `json:"dates"`
	HeatMap      [][]course.HeatCell  `json:"heat_map,omitempty"`
}
