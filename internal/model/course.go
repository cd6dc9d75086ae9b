package model

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/replyre/kiit-lms-final-sub000/internal/course"
)

// Course 课程表，对应 courses
//
// Document 以 JSONB 保存课程聚合文档（不含学生名单，名单见 course_students）。
type Course struct {
	CourseID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Code     string         `gorm:"type:varchar(32);not null;uniqueIndex"          json:"code"`
	Title    string         `gorm:"type:varchar(200);not null"                     json:"title"`
	OwnerID  string         `gorm:"type:uuid;not null;index"                       json:"owner_id"`
	Document datatypes.JSON `gorm:"type:jsonb;not null"                            json:"document"`
	SoftDeleteModel

	// 关联
	Owner    *User           `gorm:"foreignKey:OwnerID;references:UserID"   json:"owner,omitempty"`
	Students []CourseStudent `gorm:"foreignKey:CourseID;references:CourseID" json:"students,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// DecodeDocument 解析 JSONB 文档并按名单顺序填充学生
func (c *Course) DecodeDocument() (course.Document, error) {
	doc := course.NewDocument()
	if len(c.Document) > 0 {
		if err := json.Unmarshal(c.Document, &doc); err != nil {
			return course.Document{}, fmt.Errorf("解析课程文档失败: %w", err)
		}
	}
	// 旧数据可能缺少部分字段，统一补齐空集合
	doc = doc.Clone()
	doc.Students = make([]course.Student, 0, len(c.Students))
	for _, s := range c.Students {
		doc.Students = append(doc.Students, s.ToStudent())
	}
	return doc, nil
}

// EncodeDocument 序列化文档写入 Document 字段，学生名单不落入 JSONB
func (c *Course) EncodeDocument(doc course.Document) error {
	stripped := doc.Clone()
	stripped.Students = []course.Student{}
	raw, err := json.Marshal(stripped)
	if err != nil {
		return fmt.Errorf("序列化课程文档失败: %w", err)
	}
	c.Document = datatypes.JSON(raw)
	return nil
}

// CourseStudent 选课名单表，对应 course_students
type CourseStudent struct {
	CourseID  string `gorm:"type:uuid;primaryKey"        json:"course_id"`
	StudentID string `gorm:"type:varchar(64);primaryKey" json:"student_id"`
	RollNo    string `gorm:"type:varchar(32);not null"   json:"roll_no"`
	Name      string `gorm:"type:varchar(100);not null"  json:"name"`
	Program   string `gorm:"type:varchar(100)"           json:"program"`
	Position  int    `gorm:"not null;default:0"          json:"position"` // 名单顺序
	BaseModel
}

// TableName 指定表名
func (CourseStudent) TableName() string { return "course_students" }

// ToStudent 转为文档中的学生
func (s CourseStudent) ToStudent() course.Student {
	return course.Student{ID: s.StudentID, RollNo: s.RollNo, Name: s.Name, Program: s.Program}
}
