package course

import (
	"math"
	"sort"
	"time"
)

// ── 派生统计（只读视图） ──

// ClassAverageAttendance 全班平均出勤率，取整；无学生时为 0
func ClassAverageAttendance(doc Document) int {
	if len(doc.Students) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range doc.Students {
		sum += GetStudentAttendanceRate(doc, s.ID)
	}
	return int(math.Round(sum / float64(len(doc.Students))))
}

// StudentRate 学生出勤率（展示用，已取整）
type StudentRate struct {
	StudentID string `json:"studentId"`
	RollNo    string `json:"rollNo"`
	Name      string `json:"name"`
	Attended  int    `json:"attended"`
	Total     int    `json:"total"`
	Rate      int    `json:"rate"`
}

// StudentRates 按名单顺序返回每位学生的出勤率
func StudentRates(doc Document) []StudentRate {
	rates := make([]StudentRate, 0, len(doc.Students))
	for _, s := range doc.Students {
		rates = append(rates, studentRate(doc, s))
	}
	return rates
}

// StudentRateFor 返回单个学生的出勤率；学号不在名单中时只填出勤数据
func StudentRateFor(doc Document, studentID string) StudentRate {
	for _, s := range doc.Students {
		if s.ID == studentID {
			return studentRate(doc, s)
		}
	}
	return studentRate(doc, Student{ID: studentID})
}

func studentRate(doc Document, s Student) StudentRate {
	attended := 0
	for _, present := range doc.Attendance.Sessions {
		if contains(present, s.ID) {
			attended++
		}
	}
	return StudentRate{
		StudentID: s.ID,
		RollNo:    s.RollNo,
		Name:      s.Name,
		Attended:  attended,
		Total:     len(doc.Attendance.Sessions),
		Rate:      int(math.Round(GetStudentAttendanceRate(doc, s.ID))),
	}
}

// DateAttendance 按日历日期汇总的出勤百分比（热力图输入）
//
// 分母为 学生数 × 当日会话数，而非历史会话总数。
func DateAttendance(doc Document) map[string]int {
	type agg struct{ present, sessions int }
	byDate := make(map[string]*agg)
	for key, present := range doc.Attendance.Sessions {
		a, ok := byDate[key.Date]
		if !ok {
			a = &agg{}
			byDate[key.Date] = a
		}
		a.present += len(present)
		a.sessions++
	}

	out := make(map[string]int, len(byDate))
	students := len(doc.Students)
	for date, a := range byDate {
		if students == 0 {
			out[date] = 0
			continue
		}
		out[date] = int(math.Round(float64(a.present) / float64(students*a.sessions) * 100))
	}
	return out
}

// HeatBand 热力图色阶
type HeatBand string

const (
	BandNeutral HeatBand = "neutral"
	BandLow     HeatBand = "low"
	BandMedium  HeatBand = "medium"
	BandHigh    HeatBand = "high"
	BandFull    HeatBand = "full"
)

// BandFor 百分比 → 色阶：0 / 1-25 / 26-50 / 51-75 / 76-100
func BandFor(pct int) HeatBand {
	switch {
	case pct <= 0:
		return BandNeutral
	case pct <= 25:
		return BandLow
	case pct <= 50:
		return BandMedium
	case pct <= 75:
		return BandHigh
	default:
		return BandFull
	}
}

// HeatCell 热力图单元格
type HeatCell struct {
	Date       string   `json:"date"`
	Percentage int      `json:"percentage"`
	Band       HeatBand `json:"band"`
	HasSession bool     `json:"hasSession"`
}

// HeatMap 以周为行、周一至周日为列的热力图
func HeatMap(doc Document, from, to time.Time) [][]HeatCell {
	perDate := DateAttendance(doc)
	weeks := HeatMapWeeks(from, to)
	grid := make([][]HeatCell, 0, len(weeks))
	for _, week := range weeks {
		row := make([]HeatCell, 0, len(week))
		for _, day := range week {
			date := day.Format(DateLayout)
			pct, ok := perDate[date]
			row = append(row, HeatCell{
				Date:       date,
				Percentage: pct,
				Band:       BandFor(pct),
				HasSession: ok,
			})
		}
		grid = append(grid, row)
	}
	return grid
}

// StatusRow 考勤状态表的一行
type StatusRow struct {
	Student  Student `json:"student"`
	Presence []bool  `json:"presence"` // 与 StatusSheet.Sessions 一一对应
	Rate     int     `json:"rate"`
}

// StatusSheet 考勤状态表：学生 × 会话
type StatusSheet struct {
	Sessions []SessionKey `json:"sessions"`
	Rows     []StatusRow  `json:"rows"`
}

// BuildStatusSheet 生成考勤状态表，会话按时间排序，学生保持名单顺序
func BuildStatusSheet(doc Document) StatusSheet {
	keys := SortedSessionKeys(doc.Attendance.Sessions)
	rows := make([]StatusRow, 0, len(doc.Students))
	for _, s := range doc.Students {
		presence := make([]bool, len(keys))
		for i, k := range keys {
			presence[i] = contains(doc.Attendance.Sessions[k], s.ID)
		}
		rows = append(rows, StatusRow{
			Student:  s,
			Presence: presence,
			Rate:     int(math.Round(GetStudentAttendanceRate(doc, s.ID))),
		})
	}
	return StatusSheet{Sessions: keys, Rows: rows}
}

// SortedDates 返回有会话的日期（升序）
func SortedDates(perDate map[string]int) []string {
	dates := make([]string, 0, len(perDate))
	for d := range perDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
