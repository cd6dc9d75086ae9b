package course

// ── 考勤台账 ──
//
// 单个会话的状态：不存在 → 已存在（空）/ 已存在（有出勤）。
// 只有 RemoveAttendanceSession 能回到"不存在"，出勤切换不会删除会话。

// SessionState 会话状态
type SessionState string

const (
	SessionNonexistent   SessionState = "nonexistent"
	SessionEmpty         SessionState = "empty"
	SessionWithPresences SessionState = "with_presences"
)

// CreateAttendanceSession 创建空会话；已存在则原样返回
func CreateAttendanceSession(doc Document, key SessionKey) Document {
	if _, ok := doc.Attendance.Sessions[key]; ok {
		return doc
	}
	out := doc.Clone()
	out.Attendance.Sessions[key] = []string{}
	return out
}

// MarkStudentPresent 标记出勤；会话不存在时一并创建，重复标记为 no-op
func MarkStudentPresent(doc Document, key SessionKey, studentID string) Document {
	present, ok := doc.Attendance.Sessions[key]
	if ok && contains(present, studentID) {
		return doc
	}
	out := doc.Clone()
	out.Attendance.Sessions[key] = append(out.Attendance.Sessions[key], studentID)
	return out
}

// MarkStudentAbsent 取消出勤；会话或学生不存在时为 no-op
func MarkStudentAbsent(doc Document, key SessionKey, studentID string) Document {
	present, ok := doc.Attendance.Sessions[key]
	if !ok || !contains(present, studentID) {
		return doc
	}
	out := doc.Clone()
	kept := make([]string, 0, len(present))
	for _, id := range present {
		if id != studentID {
			kept = append(kept, id)
		}
	}
	out.Attendance.Sessions[key] = kept
	return out
}

// MarkAllPresent 将名单中全部学生标记为出勤（考勤表"全选"）
func MarkAllPresent(doc Document, key SessionKey) Document {
	out := CreateAttendanceSession(doc, key)
	for _, s := range doc.Students {
		out = MarkStudentPresent(out, key, s.ID)
	}
	return out
}

// ClearSession 清空会话出勤，会话本身保留
func ClearSession(doc Document, key SessionKey) Document {
	present, ok := doc.Attendance.Sessions[key]
	if !ok || len(present) == 0 {
		return doc
	}
	out := doc.Clone()
	out.Attendance.Sessions[key] = []string{}
	return out
}

// GetSessionAttendance 返回会话出勤列表；会话不存在返回空列表，不会创建会话
func GetSessionAttendance(doc Document, key SessionKey) []string {
	return cloneStrings(doc.Attendance.Sessions[key])
}

// RemoveAttendanceSession 删除整个会话
func RemoveAttendanceSession(doc Document, key SessionKey) Document {
	if _, ok := doc.Attendance.Sessions[key]; !ok {
		return doc
	}
	out := doc.Clone()
	delete(out.Attendance.Sessions, key)
	return out
}

// GetSessionState 查询会话状态
func GetSessionState(doc Document, key SessionKey) SessionState {
	present, ok := doc.Attendance.Sessions[key]
	switch {
	case !ok:
		return SessionNonexistent
	case len(present) == 0:
		return SessionEmpty
	default:
		return SessionWithPresences
	}
}

// GetStudentAttendanceRate 学生出勤率（0-100），不取整；无会话时为 0
func GetStudentAttendanceRate(doc Document, studentID string) float64 {
	total := len(doc.Attendance.Sessions)
	if total == 0 {
		return 0
	}
	attended := 0
	for _, present := range doc.Attendance.Sessions {
		if contains(present, studentID) {
			attended++
		}
	}
	return float64(attended) / float64(total) * 100
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
