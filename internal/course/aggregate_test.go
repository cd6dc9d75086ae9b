package course

import (
	"math/rand"
	"reflect"
	"testing"
)

// ── 测试辅助 ──

func assertWeeksNumbered(t *testing.T, doc Document) {
	t.Helper()
	for i, w := range doc.WeeklyPlan {
		if w.WeekNumber != i+1 {
			t.Fatalf("第 %d 项周次应为 %d，实际=%d", i, i+1, w.WeekNumber)
		}
	}
}

func assertModulesNumbered(t *testing.T, doc Document) {
	t.Helper()
	for i, m := range doc.Syllabus {
		if m.ModuleNumber != i+1 {
			t.Fatalf("第 %d 项模块编号应为 %d，实际=%d", i, i+1, m.ModuleNumber)
		}
	}
}

func weekTopics(doc Document) []string {
	out := make([]string, 0, len(doc.WeeklyPlan))
	for _, w := range doc.WeeklyPlan {
		if len(w.Topics) > 0 {
			out = append(out, w.Topics[0])
		}
	}
	return out
}

func docWithWeeks(topics ...string) Document {
	doc := NewDocument()
	for i, t := range topics {
		doc = AddWeek(doc)
		doc = UpdateWeek(doc, i+1, []string{t})
	}
	return doc
}

// ── 简介 / 学分 ──

func TestUpdateAboutCourse_AllowsEmpty(t *testing.T) {
	doc := UpdateAboutCourse(NewDocument(), "统计学导论")
	doc = UpdateAboutCourse(doc, "")
	if doc.AboutCourse != "" {
		t.Errorf("期望空简介，实际=%q", doc.AboutCourse)
	}
}

func TestCreditPoints_TotalRecomputed(t *testing.T) {
	doc := NewDocument()
	doc = UpdateCreditPoints(doc, CreditLecture, 3)
	doc = UpdateCreditPoints(doc, CreditTutorial, 1)
	doc = UpdateCreditPoints(doc, CreditPractical, 2)
	doc = UpdateCreditPoints(doc, CreditLecture, 4)
	if got := TotalCredits(doc); got != 7 {
		t.Errorf("期望总学分=7，实际=%d", got)
	}

	// 不做取值校验，负数照常累加
	doc = UpdateCreditPoints(doc, CreditProject, -2)
	if got := TotalCredits(doc); got != 5 {
		t.Errorf("期望总学分=5，实际=%d", got)
	}
}

func TestOperations_DoNotMutateInput(t *testing.T) {
	orig := docWithWeeks("a", "b", "c")
	orig = AddLearningOutcome(orig, "LO1: x")
	snapshot := orig.Clone()

	_ = RemoveWeek(orig, 2)
	_ = ReorderWeeks(orig, 0, 2)
	_ = UpdateWeek(orig, 1, []string{"z"})
	_ = UpdateLearningOutcome(orig, 0, "changed")
	_ = UpdateCreditPoints(orig, CreditLecture, 9)

	if !reflect.DeepEqual(orig, snapshot) {
		t.Error("操作不应修改入参文档")
	}
}

// ── 学习成果 ──

func TestLearningOutcomes_PrimitivesArePrefixNaive(t *testing.T) {
	doc := NewDocument()
	doc = AddLearningOutcome(doc, "LO1: 描述数据")
	doc = AddLearningOutcome(doc, "LO2: 建立模型")
	doc = AddLearningOutcome(doc, "LO3: 解释结果")

	doc = RemoveLearningOutcome(doc, 0)
	want := []string{"LO2: 建立模型", "LO3: 解释结果"}
	if !reflect.DeepEqual(doc.LearningOutcomes, want) {
		t.Errorf("删除后不应自动重编号，期望=%v，实际=%v", want, doc.LearningOutcomes)
	}

	doc = UpdateLearningOutcome(doc, 1, "LO3: 解释并汇报结果")
	if doc.LearningOutcomes[0] != "LO2: 建立模型" {
		t.Errorf("修改不应影响其他成果，实际=%q", doc.LearningOutcomes[0])
	}
}

func TestLearningOutcomes_OutOfRangeIgnored(t *testing.T) {
	doc := AddLearningOutcome(NewDocument(), "LO1: a")
	if got := UpdateLearningOutcome(doc, 5, "x"); !reflect.DeepEqual(got, doc) {
		t.Error("越界修改应为 no-op")
	}
	if got := RemoveLearningOutcome(doc, -1); !reflect.DeepEqual(got, doc) {
		t.Error("越界删除应为 no-op")
	}
}

func TestRenumberLearningOutcomes(t *testing.T) {
	doc := NewDocument()
	doc = AddLearningOutcome(doc, "LO2: 建立模型")
	doc = AddLearningOutcome(doc, "LO7:解释结果")
	doc = AddLearningOutcome(doc, "无前缀")

	doc = RenumberLearningOutcomes(doc)
	want := []string{"LO1: 建立模型", "LO2: 解释结果", "LO3: 无前缀"}
	if !reflect.DeepEqual(doc.LearningOutcomes, want) {
		t.Errorf("期望=%v，实际=%v", want, doc.LearningOutcomes)
	}
}

// ── 周计划 ──

func TestWeeks_AddUpdateRemove(t *testing.T) {
	doc := docWithWeeks("描述统计", "概率", "抽样", "假设检验")
	assertWeeksNumbered(t, doc)

	doc = RemoveWeek(doc, 2)
	assertWeeksNumbered(t, doc)
	want := []string{"描述统计", "抽样", "假设检验"}
	if got := weekTopics(doc); !reflect.DeepEqual(got, want) {
		t.Errorf("期望=%v，实际=%v", want, got)
	}

	if got := UpdateWeek(doc, 9, []string{"x"}); !reflect.DeepEqual(got, doc) {
		t.Error("不存在的周次修改应为 no-op")
	}
	if got := RemoveWeek(doc, 0); !reflect.DeepEqual(got, doc) {
		t.Error("不存在的周次删除应为 no-op")
	}
}

func TestReorderWeeks_SpliceSemantics(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"向后移动", 0, 2, []string{"b", "c", "a", "d"}},
		{"向前移动", 3, 0, []string{"d", "a", "b", "c"}},
		{"原地不动", 1, 1, []string{"a", "b", "c", "d"}},
		{"相邻后移", 1, 2, []string{"a", "c", "b", "d"}},
		{"越界忽略", 0, 4, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ReorderWeeks(docWithWeeks("a", "b", "c", "d"), tt.from, tt.to)
			assertWeeksNumbered(t, doc)
			if got := weekTopics(doc); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("期望=%v，实际=%v", tt.want, got)
			}
		})
	}
}

func TestWeeksAndModules_RandomOpsKeepNumbering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	doc := NewDocument()

	for i := 0; i < 500; i++ {
		nw, nm := len(doc.WeeklyPlan), len(doc.Syllabus)
		switch rng.Intn(6) {
		case 0:
			doc = AddWeek(doc)
		case 1:
			doc = RemoveWeek(doc, rng.Intn(nw+2))
		case 2:
			doc = ReorderWeeks(doc, rng.Intn(nw+1), rng.Intn(nw+1))
		case 3:
			doc = AddModule(doc, "模块")
		case 4:
			doc = RemoveModule(doc, rng.Intn(nm+2))
		case 5:
			doc = ReorderModules(doc, rng.Intn(nm+1), rng.Intn(nm+1))
		}
		assertWeeksNumbered(t, doc)
		assertModulesNumbered(t, doc)
	}
}

// ── 教学大纲 ──

func TestSyllabus_TopicEditing(t *testing.T) {
	doc := NewDocument()
	doc = AddModule(doc, "描述统计")
	doc = AddModule(doc, "推断统计")
	doc = AddTopicToModule(doc, 2, "置信区间")
	doc = AddTopicToModule(doc, 2, "t 检验")
	doc = UpdateTopic(doc, 2, 1, "双样本 t 检验")
	doc = UpdateModuleTitle(doc, 1, "数据整理")

	if doc.Syllabus[0].ModuleTitle != "数据整理" {
		t.Errorf("期望标题=数据整理，实际=%s", doc.Syllabus[0].ModuleTitle)
	}
	want := []string{"置信区间", "双样本 t 检验"}
	if !reflect.DeepEqual(doc.Syllabus[1].Topics, want) {
		t.Errorf("期望=%v，实际=%v", want, doc.Syllabus[1].Topics)
	}

	doc = RemoveTopic(doc, 2, 0)
	if len(doc.Syllabus[1].Topics) != 1 || doc.Syllabus[1].Topics[0] != "双样本 t 检验" {
		t.Errorf("删除主题后结果错误: %v", doc.Syllabus[1].Topics)
	}

	doc = RemoveModule(doc, 1)
	assertModulesNumbered(t, doc)
	if doc.Syllabus[0].ModuleTitle != "推断统计" {
		t.Errorf("期望剩余模块=推断统计，实际=%s", doc.Syllabus[0].ModuleTitle)
	}

	if got := AddTopicToModule(doc, 5, "x"); !reflect.DeepEqual(got, doc) {
		t.Error("不存在的模块应为 no-op")
	}
	if got := UpdateTopic(doc, 1, 3, "x"); !reflect.DeepEqual(got, doc) {
		t.Error("越界主题应为 no-op")
	}
}

// ── 课程日程 ──

func TestSchedule_Edits(t *testing.T) {
	doc := NewDocument()
	doc = UpdateCourseDate(doc, FieldClassStartDate, "2025-01-06")
	doc = UpdateCourseDate(doc, FieldEndSemesterExamDate, "2025-05-02")
	if doc.CourseSchedule.ClassStartDate != "2025-01-06" || doc.CourseSchedule.EndSemesterExamDate != "2025-05-02" {
		t.Errorf("日期字段未更新: %+v", doc.CourseSchedule)
	}
	if got := UpdateCourseDate(doc, "unknown", "x"); !reflect.DeepEqual(got, doc) {
		t.Error("未知字段应为 no-op")
	}

	// 允许重复
	doc = AddClassDayAndTime(doc, "Monday", "18:00")
	doc = AddClassDayAndTime(doc, "Monday", "18:00")
	doc = AddClassDayAndTime(doc, "Wednesday", "18:00")
	if n := len(doc.CourseSchedule.ClassDaysAndTimes); n != 3 {
		t.Fatalf("期望 3 条上课时间，实际=%d", n)
	}

	doc = UpdateClassDayAndTime(doc, 1, "Tuesday", "09:00")
	doc = RemoveClassDayAndTime(doc, 0)
	want := []ClassDayTime{{Day: "Tuesday", Time: "09:00"}, {Day: "Wednesday", Time: "18:00"}}
	if !reflect.DeepEqual(doc.CourseSchedule.ClassDaysAndTimes, want) {
		t.Errorf("期望=%v，实际=%v", want, doc.CourseSchedule.ClassDaysAndTimes)
	}
	if got := RemoveClassDayAndTime(doc, 7); !reflect.DeepEqual(got, doc) {
		t.Error("越界删除应为 no-op")
	}
}
