package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/replyre/kiit-lms-final-sub000/internal/model"
)

// CourseRepository 课程与选课名单数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id string) (*model.Course, error)
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]model.Course, int64, error)
	ListByRollNo(ctx context.Context, rollNo string, offset, limit int) ([]model.Course, int64, error)
	SaveDocument(ctx context.Context, courseID string, document datatypes.JSON) error
	ReplaceRoster(ctx context.Context, courseID string, students []model.CourseStudent) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

// GetByID 查询课程并按名单顺序预加载学生
func (r *courseRepo) GetByID(ctx context.Context, id string) (*model.Course, error) {
	var c model.Course
	err := r.db.WithContext(ctx).
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, student_id ASC")
		}).
		Where("course_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *courseRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]model.Course, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Course{}).Where("owner_id = ?", ownerID)
	return r.list(db, offset, limit)
}

// ListByRollNo 学生视角：名单中包含该学号的课程
func (r *courseRepo) ListByRollNo(ctx context.Context, rollNo string, offset, limit int) ([]model.Course, int64, error) {
	sub := r.db.Model(&model.CourseStudent{}).Select("course_id").Where("roll_no = ?", rollNo)
	db := r.db.WithContext(ctx).Model(&model.Course{}).Where("course_id IN (?)", sub)
	return r.list(db, offset, limit)
}

func (r *courseRepo) list(db *gorm.DB, offset, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 列表只需名单人数，不加载 JSONB 文档
	if err := db.Omit("document").
		Preload("Students").
		Offset(offset).Limit(limit).
		Order("updated_at DESC").
		Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

// SaveDocument 覆盖保存课程文档（后写者胜）
func (r *courseRepo) SaveDocument(ctx context.Context, courseID string, document datatypes.JSON) error {
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ?", courseID).
		Update("document", document)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceRoster 在事务内整体替换选课名单
func (r *courseRepo) ReplaceRoster(ctx context.Context, courseID string, students []model.CourseStudent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("course_id = ?", courseID).Delete(&model.CourseStudent{}).Error; err != nil {
			return err
		}
		if len(students) == 0 {
			return nil
		}
		for i := range students {
			students[i].CourseID = courseID
			students[i].Position = i
		}
		if err := tx.CreateInBatches(students, 200).Error; err != nil {
			return err
		}
		// 名单变化同样视为课程更新
		return tx.Model(&model.Course{}).
			Where("course_id = ?", courseID).
			Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	})
}
