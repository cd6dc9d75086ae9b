package model

// 用户角色
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 用户表，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	RollNo       string `gorm:"type:varchar(32)"                               json:"roll_no"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'student'"    json:"role"` // teacher | student
	SoftDeleteModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
