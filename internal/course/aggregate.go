package course

import (
	"fmt"
	"regexp"
)

// ── 课程聚合结构编辑 ──
//
// 约定：
//   - 所有函数为纯函数，入参文档不被修改
//   - 越界的 index / weekNumber / moduleNumber 静默忽略，原样返回
//   - 周次、模块编号在任何增删、重排后恒为 position + 1

// UpdateAboutCourse 覆盖课程简介（允许空串）
func UpdateAboutCourse(doc Document, text string) Document {
	out := doc.Clone()
	out.AboutCourse = text
	return out
}

// UpdateCreditPoints 设置某类别学分，不做取值校验
func UpdateCreditPoints(doc Document, category CreditCategory, value int) Document {
	out := doc.Clone()
	out.CreditPoints[category] = value
	return out
}

// TotalCredits 学分合计，实时计算
func TotalCredits(doc Document) int {
	total := 0
	for _, v := range doc.CreditPoints {
		total += v
	}
	return total
}

// ────────────────────── 学习成果 ──────────────────────

// 以下三个原语不处理 "LO{n}:" 前缀，前缀一致性由调用方负责（见 RenumberLearningOutcomes）。

// AddLearningOutcome 追加学习成果
func AddLearningOutcome(doc Document, text string) Document {
	out := doc.Clone()
	out.LearningOutcomes = append(out.LearningOutcomes, text)
	return out
}

// UpdateLearningOutcome 替换指定位置的学习成果
func UpdateLearningOutcome(doc Document, index int, text string) Document {
	if index < 0 || index >= len(doc.LearningOutcomes) {
		return doc
	}
	out := doc.Clone()
	out.LearningOutcomes[index] = text
	return out
}

// RemoveLearningOutcome 删除指定位置的学习成果
func RemoveLearningOutcome(doc Document, index int) Document {
	if index < 0 || index >= len(doc.LearningOutcomes) {
		return doc
	}
	out := doc.Clone()
	out.LearningOutcomes = append(out.LearningOutcomes[:index], out.LearningOutcomes[index+1:]...)
	return out
}

var outcomePrefix = regexp.MustCompile(`^LO\d+:\s*`)

// OutcomeText 去掉 "LO{n}:" 前缀后的正文
func OutcomeText(label string) string {
	return outcomePrefix.ReplaceAllString(label, "")
}

// RenumberLearningOutcomes 按当前位置重写全部 "LO{n}: " 前缀
func RenumberLearningOutcomes(doc Document) Document {
	out := doc.Clone()
	for i, label := range out.LearningOutcomes {
		out.LearningOutcomes[i] = fmt.Sprintf("LO%d: %s", i+1, OutcomeText(label))
	}
	return out
}

// ────────────────────── 周计划 ──────────────────────

// AddWeek 追加空周
func AddWeek(doc Document) Document {
	out := doc.Clone()
	out.WeeklyPlan = append(out.WeeklyPlan, Week{WeekNumber: len(out.WeeklyPlan) + 1, Topics: []string{}})
	return out
}

// UpdateWeek 替换指定周次的主题列表
func UpdateWeek(doc Document, weekNumber int, topics []string) Document {
	i := weekIndex(doc.WeeklyPlan, weekNumber)
	if i < 0 {
		return doc
	}
	out := doc.Clone()
	out.WeeklyPlan[i].Topics = cloneStrings(topics)
	return out
}

// RemoveWeek 删除指定周次并重新编号
func RemoveWeek(doc Document, weekNumber int) Document {
	i := weekIndex(doc.WeeklyPlan, weekNumber)
	if i < 0 {
		return doc
	}
	out := doc.Clone()
	out.WeeklyPlan = append(out.WeeklyPlan[:i], out.WeeklyPlan[i+1:]...)
	renumberWeeks(out.WeeklyPlan)
	return out
}

// ReorderWeeks 取出 from 处元素插入到 to 处（splice 语义，非交换），再重新编号
func ReorderWeeks(doc Document, from, to int) Document {
	n := len(doc.WeeklyPlan)
	if from < 0 || from >= n || to < 0 || to >= n {
		return doc
	}
	out := doc.Clone()
	out.WeeklyPlan = move(out.WeeklyPlan, from, to)
	renumberWeeks(out.WeeklyPlan)
	return out
}

func weekIndex(weeks []Week, weekNumber int) int {
	for i, w := range weeks {
		if w.WeekNumber == weekNumber {
			return i
		}
	}
	return -1
}

func renumberWeeks(weeks []Week) {
	for i := range weeks {
		weeks[i].WeekNumber = i + 1
	}
}

// ────────────────────── 教学大纲 ──────────────────────

// AddModule 追加模块
func AddModule(doc Document, title string) Document {
	out := doc.Clone()
	out.Syllabus = append(out.Syllabus, Module{
		ModuleNumber: len(out.Syllabus) + 1,
		ModuleTitle:  title,
		Topics:       []string{},
	})
	return out
}

// UpdateModuleTitle 修改模块标题
func UpdateModuleTitle(doc Document, moduleNumber int, title string) Document {
	i := moduleIndex(doc.Syllabus, moduleNumber)
	if i < 0 {
		return doc
	}
	out := doc.Clone()
	out.Syllabus[i].ModuleTitle = title
	return out
}

// AddTopicToModule 向模块追加主题
func AddTopicToModule(doc Document, moduleNumber int, topic string) Document {
	i := moduleIndex(doc.Syllabus, moduleNumber)
	if i < 0 {
		return doc
	}
	out := doc.Clone()
	out.Syllabus[i].Topics = append(out.Syllabus[i].Topics, topic)
	return out
}

// UpdateTopic 修改模块内指定位置的主题
func UpdateTopic(doc Document, moduleNumber, topicIndex int, topic string) Document {
	i := moduleIndex(doc.Syllabus, moduleNumber)
	if i < 0 || topicIndex < 0 || topicIndex >= len(doc.Syllabus[i].Topics) {
		return doc
	}
	out := doc.Clone()
	out.Syllabus[i].Topics[topicIndex] = topic
	return out
}

// RemoveTopic 删除模块内指定位置的主题
func RemoveTopic(doc Document, moduleNumber, topicIndex int) Document {
	i := moduleIndex(doc.Syllabus, moduleNumber)
	if i < 0 || topicIndex < 0 || topicIndex >= len(doc.Syllabus[i].Topics) {
		return doc
	}
	out := doc.Clone()
	topics := out.Syllabus[i].Topics
	out.Syllabus[i].Topics = append(topics[:topicIndex], topics[topicIndex+1:]...)
	return out
}

// RemoveModule 删除模块并重新编号
func RemoveModule(doc Document, moduleNumber int) Document {
	i := moduleIndex(doc.Syllabus, moduleNumber)
	if i < 0 {
		return doc
	}
	out := doc.Clone()
	out.Syllabus = append(out.Syllabus[:i], out.Syllabus[i+1:]...)
	renumberModules(out.Syllabus)
	return out
}

// ReorderModules 同 ReorderWeeks
func ReorderModules(doc Document, from, to int) Document {
	n := len(doc.Syllabus)
	if from < 0 || from >= n || to < 0 || to >= n {
		return doc
	}
	out := doc.Clone()
	out.Syllabus = move(out.Syllabus, from, to)
	renumberModules(out.Syllabus)
	return out
}

func moduleIndex(modules []Module, moduleNumber int) int {
	for i, m := range modules {
		if m.ModuleNumber == moduleNumber {
			return i
		}
	}
	return -1
}

func renumberModules(modules []Module) {
	for i := range modules {
		modules[i].ModuleNumber = i + 1
	}
}

// move 调用方保证 from/to 在范围内
func move[T any](items []T, from, to int) []T {
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items, item) // 占位扩容
	copy(items[to+1:], items[to:len(items)-1])
	items[to] = item
	return items
}

// ────────────────────── 课程日程 ──────────────────────

// ScheduleField 可编辑的日期字段
type ScheduleField string

const (
	FieldClassStartDate      ScheduleField = "classStartDate"
	FieldClassEndDate        ScheduleField = "classEndDate"
	FieldMidSemesterExamDate ScheduleField = "midSemesterExamDate"
	FieldEndSemesterExamDate ScheduleField = "endSemesterExamDate"
)

// UpdateCourseDate 修改日程日期字段；未知字段为 no-op
func UpdateCourseDate(doc Document, field ScheduleField, value string) Document {
	out := doc.Clone()
	switch field {
	case FieldClassStartDate:
		out.CourseSchedule.ClassStartDate = value
	case FieldClassEndDate:
		out.CourseSchedule.ClassEndDate = value
	case FieldMidSemesterExamDate:
		out.CourseSchedule.MidSemesterExamDate = value
	case FieldEndSemesterExamDate:
		out.CourseSchedule.EndSemesterExamDate = value
	default:
		return doc
	}
	return out
}

// AddClassDayAndTime 追加上课时间，不检查重复或冲突
func AddClassDayAndTime(doc Document, day, clock string) Document {
	out := doc.Clone()
	out.CourseSchedule.ClassDaysAndTimes = append(out.CourseSchedule.ClassDaysAndTimes, ClassDayTime{Day: day, Time: clock})
	return out
}

// UpdateClassDayAndTime 修改指定位置的上课时间
func UpdateClassDayAndTime(doc Document, index int, day, clock string) Document {
	if index < 0 || index >= len(doc.CourseSchedule.ClassDaysAndTimes) {
		return doc
	}
	out := doc.Clone()
	out.CourseSchedule.ClassDaysAndTimes[index] = ClassDayTime{Day: day, Time: clock}
	return out
}

// RemoveClassDayAndTime 删除指定位置的上课时间
func RemoveClassDayAndTime(doc Document, index int) Document {
	if index < 0 || index >= len(doc.CourseSchedule.ClassDaysAndTimes) {
		return doc
	}
	out := doc.Clone()
	list := out.CourseSchedule.ClassDaysAndTimes
	out.CourseSchedule.ClassDaysAndTimes = append(list[:index], list[index+1:]...)
	return out
}
