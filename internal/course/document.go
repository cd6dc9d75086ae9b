package course

// ── 课程聚合文档 ──

// CreditCategory 学分类别（开放集合，常见值见下方常量）
type CreditCategory string

const (
	CreditLecture   CreditCategory = "lecture"
	CreditTutorial  CreditCategory = "tutorial"
	CreditPractical CreditCategory = "practical"
	CreditProject   CreditCategory = "project"
)

// Week 周计划条目，WeekNumber 恒等于位置 + 1
type Week struct {
	WeekNumber int      `json:"weekNumber"`
	Topics     []string `json:"topics"`
}

// Module 教学大纲模块，ModuleNumber 恒等于位置 + 1
type Module struct {
	ModuleNumber int      `json:"moduleNumber"`
	ModuleTitle  string   `json:"moduleTitle"`
	Topics       []string `json:"topics"`
}

// ClassDayTime 上课日与时间
type ClassDayTime struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

// Schedule 课程日程
type Schedule struct {
	ClassStartDate      string         `json:"classStartDate"`
	ClassEndDate        string         `json:"classEndDate"`
	MidSemesterExamDate string         `json:"midSemesterExamDate"`
	EndSemesterExamDate string         `json:"endSemesterExamDate"`
	ClassDaysAndTimes   []ClassDayTime `json:"classDaysAndTimes"`
}

// Attendance 考勤台账：会话键 → 出勤学生 ID 列表（集合语义）
type Attendance struct {
	Sessions map[SessionKey][]string `json:"sessions"`
}

// Student 选课学生，对本包只读
type Student struct {
	ID      string `json:"id"`
	RollNo  string `json:"rollNo"`
	Name    string `json:"name"`
	Program string `json:"program"`
}

// Document 课程聚合根
//
// 所有操作均返回新文档，调用方应将旧引用视为过期。
type Document struct {
	AboutCourse      string                 `json:"aboutCourse"`
	CreditPoints     map[CreditCategory]int `json:"creditPoints"`
	LearningOutcomes []string               `json:"learningOutcomes"`
	WeeklyPlan       []Week                 `json:"weeklyPlan"`
	Syllabus         []Module               `json:"syllabus"`
	CourseSchedule   Schedule               `json:"courseSchedule"`
	Attendance       Attendance             `json:"attendance"`
	Students         []Student              `json:"students"`
}

// NewDocument 创建空文档（各集合均已初始化，序列化时输出 [] / {} 而非 null）
func NewDocument() Document {
	return Document{
		CreditPoints:     map[CreditCategory]int{},
		LearningOutcomes: []string{},
		WeeklyPlan:       []Week{},
		Syllabus:         []Module{},
		CourseSchedule:   Schedule{ClassDaysAndTimes: []ClassDayTime{}},
		Attendance:       Attendance{Sessions: map[SessionKey][]string{}},
		Students:         []Student{},
	}
}

// Clone 深拷贝文档
func (d Document) Clone() Document {
	out := d
	out.CreditPoints = make(map[CreditCategory]int, len(d.CreditPoints))
	for k, v := range d.CreditPoints {
		out.CreditPoints[k] = v
	}
	out.LearningOutcomes = cloneStrings(d.LearningOutcomes)
	out.WeeklyPlan = make([]Week, len(d.WeeklyPlan))
	for i, w := range d.WeeklyPlan {
		out.WeeklyPlan[i] = Week{WeekNumber: w.WeekNumber, Topics: cloneStrings(w.Topics)}
	}
	out.Syllabus = make([]Module, len(d.Syllabus))
	for i, m := range d.Syllabus {
		out.Syllabus[i] = Module{ModuleNumber: m.ModuleNumber, ModuleTitle: m.ModuleTitle, Topics: cloneStrings(m.Topics)}
	}
	out.CourseSchedule.ClassDaysAndTimes = append([]ClassDayTime{}, d.CourseSchedule.ClassDaysAndTimes...)
	out.Attendance.Sessions = cloneSessions(d.Attendance.Sessions)
	out.Students = append([]Student{}, d.Students...)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string{}, s...)
}

func cloneSessions(src map[SessionKey][]string) map[SessionKey][]string {
	out := make(map[SessionKey][]string, len(src))
	for k, v := range src {
		out[k] = cloneStrings(v)
	}
	return out
}

// MergeSaved 保存后的合并规则：采用服务端回显的文档，但学生名单保留本地副本。
// 名单由外部维护，服务端回显不作为名单来源。
func MergeSaved(saved, local Document) Document {
	out := saved.Clone()
	out.Students = append([]Student{}, local.Students...)
	return out
}
