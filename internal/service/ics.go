package service

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
)

// ── ICS 课表 ────────────────────────────────────────────────
//
// 导出：每个上课日/时间生成一个按周重复的事件（开课日至结课日），
// 期中、期末考试各生成一个全天事件。
// 导入：从教务系统导出的 ICS 中提取上课日/时间与起止日期，
// 转为课程文档的编辑动作。
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	icsClassDuration = time.Hour
	icsProductID     = "-//KIIT LMS//Course Schedule//EN"

	midSemesterSummary = "Mid-Semester Exam"
	endSemesterSummary = "End-Semester Exam"
)

// ParseWeekday 解析上课日名称（英文全称或三字母缩写，不区分大小写）
func ParseWeekday(day string) (time.Weekday, bool) {
	d := strings.ToLower(strings.TrimSpace(day))
	if len(d) < 3 {
		return 0, false
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if d == name || d == name[:3] {
			return wd, true
		}
	}
	return 0, false
}

// firstOnOrAfter 返回 start 当天或之后第一个星期 wd 的日期
func firstOnOrAfter(start time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset)
}

// ────────────────────── 导出 ──────────────────────

// BuildScheduleICS 根据课程日程生成 iCalendar 文本
// 无法解析的上课日/时间条目被跳过；缺少开课或结课日期时不生成重复事件
func BuildScheduleICS(title string, sched course.Schedule, loc *time.Location, now time.Time) (string, int) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(title)
	cal.SetXWRTimezone(loc.String())

	events := 0
	start, errStart := time.ParseInLocation(course.DateLayout, sched.ClassStartDate, loc)
	end, errEnd := time.ParseInLocation(course.DateLayout, sched.ClassEndDate, loc)
	if errStart == nil && errEnd == nil && !end.Before(start) {
		until := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, loc)
		for i, slot := range sched.ClassDaysAndTimes {
			wd, ok := ParseWeekday(slot.Day)
			if !ok {
				continue
			}
			clock, err := time.Parse(course.TimeLayout, slot.Time)
			if err != nil {
				continue
			}
			first := firstOnOrAfter(start, wd)
			if first.After(end) {
				continue
			}
			dtStart := time.Date(first.Year(), first.Month(), first.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)

			evt := cal.AddEvent(fmt.Sprintf("class-%d-%s@kiit-lms", i, dtStart.UTC().Format("20060102T150405Z")))
			evt.SetDtStampTime(now)
			evt.SetSummary(title)
			evt.SetStartAt(dtStart)
			evt.SetEndAt(dtStart.Add(icsClassDuration))
			evt.SetProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;UNTIL="+until.UTC().Format("20060102T150405Z"))
			events++
		}
	}

	for _, exam := range []struct {
		date, summary string
	}{
		{sched.MidSemesterExamDate, midSemesterSummary},
		{sched.EndSemesterExamDate, endSemesterSummary},
	} {
		day, err := time.ParseInLocation(course.DateLayout, exam.date, loc)
		if err != nil {
			continue
		}
		evt := cal.AddEvent(fmt.Sprintf("exam-%s-%s@kiit-lms", strings.ToLower(exam.summary[:3]), day.Format("20060102")))
		evt.SetDtStampTime(now)
		evt.SetSummary(title + " " + exam.summary)
		evt.SetAllDayStartAt(day)
		evt.SetAllDayEndAt(day.AddDate(0, 0, 1))
		events++
	}

	return cal.Serialize(), events
}

// ────────────────────── 导入 ──────────────────────

// ImportedSchedule 从 ICS 提取的课程日程
type ImportedSchedule struct {
	ClassStartDate      string
	ClassEndDate        string
	MidSemesterExamDate string
	EndSemesterExamDate string
	Slots               []course.ClassDayTime
}

// ParseScheduleICS 解析 ICS 课表
//
//   - 带时间的事件：DTSTART 确定上课日与时间，RRULE 的 UNTIL / COUNT 确定末次上课日期
//   - 全天事件：SUMMARY 含 Mid-Semester / End-Semester 时视为考试日期
//   - 同一上课日与时间只保留一次，按星期、时间排序
func ParseScheduleICS(reader io.Reader, loc *time.Location) (*ImportedSchedule, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: ICS 格式错误: %w", ErrUploadUnreadable, err)
	}

	out := &ImportedSchedule{}
	var first, last time.Time
	type slotKey struct {
		wd    time.Weekday
		clock string
	}
	seen := make(map[slotKey]bool)
	var keys []slotKey

	for _, evt := range cal.Events() {
		prop := evt.GetProperty(ics.ComponentPropertyDtStart)
		if prop == nil {
			continue
		}

		if isAllDay(prop) {
			day, err := time.ParseInLocation("20060102", prop.Value, loc)
			if err != nil {
				continue
			}
			summary := ""
			if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
				summary = strings.ToLower(p.Value)
			}
			switch {
			case strings.Contains(summary, "mid-semester") || strings.Contains(summary, "mid semester"):
				out.MidSemesterExamDate = day.Format(course.DateLayout)
			case strings.Contains(summary, "end-semester") || strings.Contains(summary, "end semester"):
				out.EndSemesterExamDate = day.Format(course.DateLayout)
			}
			continue
		}

		dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			continue
		}
		firsts := []time.Time{dtStart}
		lasts := []time.Time{dtStart}
		if rr := evt.GetProperty(ics.ComponentPropertyRrule); rr != nil {
			rule := parseRRule(rr.Value)
			if rule.freq != "WEEKLY" {
				continue
			}
			firsts = weeklyFirstOccurrences(dtStart, rule)
			lasts = make([]time.Time, len(firsts))
			for i, f := range firsts {
				switch {
				case !rule.until.IsZero():
					lasts[i] = lastWeeklyBefore(f, rule.until.In(loc), rule.interval)
				case rule.count > 0:
					// COUNT 按时间顺序在各上课日之间轮转计数
					n := rule.count - 1
					if i > n%len(firsts) {
						n -= len(firsts)
					}
					if n < 0 {
						// 次数用尽前未轮到该上课日
						continue
					}
					lasts[i] = f.AddDate(0, 0, 7*rule.interval*(n/len(firsts)))
				default:
					lasts[i] = f
				}
			}
		}

		for i, f := range firsts {
			if lasts[i].IsZero() {
				continue
			}
			if first.IsZero() || f.Before(first) {
				first = f
			}
			if lasts[i].After(last) {
				last = lasts[i]
			}
			k := slotKey{wd: f.Weekday(), clock: f.Format(course.TimeLayout)}
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}

	// 周一为一周第一天
	isoDay := func(wd time.Weekday) int { return (int(wd) + 6) % 7 }
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].wd != keys[j].wd {
			return isoDay(keys[i].wd) < isoDay(keys[j].wd)
		}
		return keys[i].clock < keys[j].clock
	})
	for _, k := range keys {
		out.Slots = append(out.Slots, course.ClassDayTime{Day: k.wd.String(), Time: k.clock})
	}
	if !first.IsZero() {
		out.ClassStartDate = first.Format(course.DateLayout)
		out.ClassEndDate = last.Format(course.DateLayout)
	}
	return out, nil
}

// Actions 将导入结果转为编辑动作；文档中已存在的上课日/时间不重复添加
func (s *ImportedSchedule) Actions(doc course.Document) []course.Action {
	var actions []course.Action
	for _, f := range []struct {
		field course.ScheduleField
		value string
	}{
		{course.FieldClassStartDate, s.ClassStartDate},
		{course.FieldClassEndDate, s.ClassEndDate},
		{course.FieldMidSemesterExamDate, s.MidSemesterExamDate},
		{course.FieldEndSemesterExamDate, s.EndSemesterExamDate},
	} {
		if f.value != "" {
			actions = append(actions, course.Action{Type: course.ActionUpdateCourseDate, Field: f.field, Date: f.value})
		}
	}

	existing := make(map[course.ClassDayTime]bool, len(doc.CourseSchedule.ClassDaysAndTimes))
	for _, slot := range doc.CourseSchedule.ClassDaysAndTimes {
		existing[slot] = true
	}
	for _, slot := range s.Slots {
		if existing[slot] {
			continue
		}
		actions = append(actions, course.Action{Type: course.ActionAddClassDayAndTime, Day: slot.Day, Time: slot.Time})
	}
	return actions
}

// lastWeeklyBefore 返回不晚于 until 的最后一次周重复时间
func lastWeeklyBefore(dtStart, until time.Time, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	if until.Before(dtStart) {
		return dtStart
	}
	weeks := int(until.Sub(dtStart).Hours() / 24 / 7)
	weeks -= weeks % interval
	return dtStart.AddDate(0, 0, 7*weeks)
}

// weeklyFirstOccurrences 返回 BYDAY 中每个上课日的首次上课时间（保留 DTSTART 的时刻），按时间排序
// 未指定 BYDAY 时即为 DTSTART 本身；早于 DTSTART 的星期落入下一个重复周
func weeklyFirstOccurrences(dtStart time.Time, rule rruleParams) []time.Time {
	if len(rule.byDay) == 0 {
		return []time.Time{dtStart}
	}
	isoDay := func(wd time.Weekday) int { return (int(wd) + 6) % 7 }
	monday := dtStart.AddDate(0, 0, -isoDay(dtStart.Weekday()))

	out := make([]time.Time, 0, len(rule.byDay))
	for _, wd := range rule.byDay {
		t := monday.AddDate(0, 0, isoDay(wd))
		if t.Before(dtStart) {
			t = t.AddDate(0, 0, 7*rule.interval)
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// rruleParams RRULE 解析结果
type rruleParams struct {
	freq     string
	interval int
	count    int
	until    time.Time
	byDay    []time.Weekday
}

var icsWeekdays = map[string]time.Weekday{
	"MO": time.Monday, "TU": time.Tuesday, "WE": time.Wednesday, "TH": time.Thursday,
	"FR": time.Friday, "SA": time.Saturday, "SU": time.Sunday,
}

// parseRRule 解析 RRULE 字符串（如 FREQ=WEEKLY;BYDAY=MO,WE;COUNT=16）
func parseRRule(value string) rruleParams {
	r := rruleParams{interval: 1}
	for _, part := range strings.Split(value, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(k) {
		case "FREQ":
			r.freq = strings.ToUpper(v)
		case "INTERVAL":
			fmt.Sscanf(v, "%d", &r.interval)
		case "COUNT":
			fmt.Sscanf(v, "%d", &r.count)
		case "UNTIL":
			t, err := time.Parse("20060102T150405Z", v)
			if err != nil {
				t, _ = time.Parse("20060102", v)
			}
			r.until = t
		case "BYDAY":
			seen := make(map[time.Weekday]bool)
			for _, d := range strings.Split(strings.ToUpper(v), ",") {
				// 周重复下忽略序数前缀（如 1MO、-1FR）
				d = strings.TrimLeft(strings.TrimSpace(d), "+-0123456789")
				if wd, ok := icsWeekdays[d]; ok && !seen[wd] {
					seen[wd] = true
					r.byDay = append(r.byDay, wd)
				}
			}
		}
	}
	if r.interval < 1 {
		r.interval = 1
	}
	return r
}

// isAllDay DTSTART 为纯日期（VALUE=DATE）
func isAllDay(prop *ics.IANAProperty) bool {
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "VALUE") && len(v) > 0 && strings.EqualFold(v[0], "DATE") {
			return true
		}
	}
	return len(prop.Value) == len("20060102")
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，结果转为 loc 时区
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("缺少属性 %s", propName)
	}
	val := prop.Value

	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			tzid = v[0]
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), nil
	}
	t, err := time.Parse("20060102T150405", val)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
	}
	src := loc
	if tzid != "" {
		if tzLoc, err := time.LoadLocation(tzid); err == nil {
			src = tzLoc
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, src).In(loc), nil
}
