package course

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownAction 未知的动作类型
var ErrUnknownAction = errors.New("未知的课程编辑动作")

// ActionType 动作类型
type ActionType string

const (
	ActionUpdateAboutCourse      ActionType = "update_about_course"
	ActionUpdateCreditPoints     ActionType = "update_credit_points"
	ActionAddLearningOutcome     ActionType = "add_learning_outcome"
	ActionUpdateLearningOutcome  ActionType = "update_learning_outcome"
	ActionRemoveLearningOutcome  ActionType = "remove_learning_outcome"
	ActionRenumberOutcomes       ActionType = "renumber_learning_outcomes"
	ActionAddWeek                ActionType = "add_week"
	ActionUpdateWeek             ActionType = "update_week"
	ActionRemoveWeek             ActionType = "remove_week"
	ActionReorderWeeks           ActionType = "reorder_weeks"
	ActionAddModule              ActionType = "add_module"
	ActionUpdateModuleTitle      ActionType = "update_module_title"
	ActionAddTopicToModule       ActionType = "add_topic_to_module"
	ActionUpdateTopic            ActionType = "update_topic"
	ActionRemoveTopic            ActionType = "remove_topic"
	ActionRemoveModule           ActionType = "remove_module"
	ActionReorderModules         ActionType = "reorder_modules"
	ActionUpdateCourseDate       ActionType = "update_course_date"
	ActionAddClassDayAndTime     ActionType = "add_class_day_and_time"
	ActionUpdateClassDayAndTime  ActionType = "update_class_day_and_time"
	ActionRemoveClassDayAndTime  ActionType = "remove_class_day_and_time"
	ActionCreateSession          ActionType = "create_attendance_session"
	ActionMarkPresent            ActionType = "mark_student_present"
	ActionMarkAbsent             ActionType = "mark_student_absent"
	ActionMarkAllPresent         ActionType = "mark_all_present"
	ActionClearSession           ActionType = "clear_session"
	ActionRemoveSession          ActionType = "remove_attendance_session"
)

// Action 编辑动作（JSON 可解码），各类型只使用与之相关的字段
type Action struct {
	Type ActionType `json:"type"`

	Text         string         `json:"text,omitempty"`
	Category     CreditCategory `json:"category,omitempty"`
	Value        int            `json:"value,omitempty"`
	Index        int            `json:"index,omitempty"`
	From         int            `json:"from,omitempty"`
	To           int            `json:"to,omitempty"`
	WeekNumber   int            `json:"weekNumber,omitempty"`
	ModuleNumber int            `json:"moduleNumber,omitempty"`
	Topics       []string       `json:"topics,omitempty"`
	Field        ScheduleField  `json:"field,omitempty"`
	Day          string         `json:"day,omitempty"`
	Date         string         `json:"date,omitempty"`
	Time         string         `json:"time,omitempty"`
	StudentID    string         `json:"studentId,omitempty"`
}

// Apply 纯状态转移：(state, action) → newState
func Apply(doc Document, a Action) (Document, error) {
	switch a.Type {
	case ActionUpdateAboutCourse:
		return UpdateAboutCourse(doc, a.Text), nil
	case ActionUpdateCreditPoints:
		return UpdateCreditPoints(doc, a.Category, a.Value), nil
	case ActionAddLearningOutcome:
		return AddLearningOutcome(doc, a.Text), nil
	case ActionUpdateLearningOutcome:
		return UpdateLearningOutcome(doc, a.Index, a.Text), nil
	case ActionRemoveLearningOutcome:
		return RemoveLearningOutcome(doc, a.Index), nil
	case ActionRenumberOutcomes:
		return RenumberLearningOutcomes(doc), nil
	case ActionAddWeek:
		return AddWeek(doc), nil
	case ActionUpdateWeek:
		return UpdateWeek(doc, a.WeekNumber, a.Topics), nil
	case ActionRemoveWeek:
		return RemoveWeek(doc, a.WeekNumber), nil
	case ActionReorderWeeks:
		return ReorderWeeks(doc, a.From, a.To), nil
	case ActionAddModule:
		return AddModule(doc, a.Text), nil
	case ActionUpdateModuleTitle:
		return UpdateModuleTitle(doc, a.ModuleNumber, a.Text), nil
	case ActionAddTopicToModule:
		return AddTopicToModule(doc, a.ModuleNumber, a.Text), nil
	case ActionUpdateTopic:
		return UpdateTopic(doc, a.ModuleNumber, a.Index, a.Text), nil
	case ActionRemoveTopic:
		return RemoveTopic(doc, a.ModuleNumber, a.Index), nil
	case ActionRemoveModule:
		return RemoveModule(doc, a.ModuleNumber), nil
	case ActionReorderModules:
		return ReorderModules(doc, a.From, a.To), nil
	case ActionUpdateCourseDate:
		return UpdateCourseDate(doc, a.Field, a.Date), nil
	case ActionAddClassDayAndTime:
		return AddClassDayAndTime(doc, a.Day, a.Time), nil
	case ActionUpdateClassDayAndTime:
		return UpdateClassDayAndTime(doc, a.Index, a.Day, a.Time), nil
	case ActionRemoveClassDayAndTime:
		return RemoveClassDayAndTime(doc, a.Index), nil
	}

	// 考勤动作需要合法的会话键
	key, err := NewSessionKey(a.Date, a.Time)
	switch a.Type {
	case ActionCreateSession, ActionMarkPresent, ActionMarkAbsent,
		ActionMarkAllPresent, ActionClearSession, ActionRemoveSession:
		if err != nil {
			return doc, err
		}
	default:
		return doc, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	switch a.Type {
	case ActionCreateSession:
		return CreateAttendanceSession(doc, key), nil
	case ActionMarkPresent:
		return MarkStudentPresent(doc, key, a.StudentID), nil
	case ActionMarkAbsent:
		return MarkStudentAbsent(doc, key, a.StudentID), nil
	case ActionMarkAllPresent:
		return MarkAllPresent(doc, key), nil
	case ActionClearSession:
		return ClearSession(doc, key), nil
	default:
		return RemoveAttendanceSession(doc, key), nil
	}
}

// ApplyAll 顺序应用一组动作，任一失败即返回原文档
func ApplyAll(doc Document, actions []Action) (Document, error) {
	cur := doc
	for i, a := range actions {
		next, err := Apply(cur, a)
		if err != nil {
			return doc, fmt.Errorf("第 %d 个动作: %w", i+1, err)
		}
		cur = next
	}
	return cur, nil
}

// Store 课程文档状态容器
//
// 通过构造函数注入，不依赖任何全局上下文。
type Store struct {
	mu  sync.RWMutex
	doc Document
}

// NewStore 以初始文档创建 Store
func NewStore(doc Document) *Store {
	return &Store{doc: doc.Clone()}
}

// Current 返回当前文档的副本
func (s *Store) Current() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Dispatch 应用动作并返回新文档；失败时状态不变
func (s *Store) Dispatch(actions ...Action) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := ApplyAll(s.doc, actions)
	if err != nil {
		return s.doc.Clone(), err
	}
	s.doc = next
	return next.Clone(), nil
}

// AdoptSaved 采用保存回显并按 MergeSaved 规则保留本地名单
func (s *Store) AdoptSaved(saved Document) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = MergeSaved(saved, s.doc)
	return s.doc.Clone()
}
