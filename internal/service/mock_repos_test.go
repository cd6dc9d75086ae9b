package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/replyre/kiit-lms-final-sub000/internal/model"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
	"github.com/replyre/kiit-lms-final-sub000/pkg/redis"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses   map[string]*model.Course
	saveErr   error // 注入 SaveDocument 失败
	saveCalls int
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	for _, existing := range m.courses {
		if existing.Code == c.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.CourseID == "" {
		c.CourseID = "course-" + c.Code
	}
	c.UpdatedAt = time.Now()
	m.courses[c.CourseID] = c
	return nil
}

// GetByID 返回副本，模拟每次从数据库重新读取
func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	cp.Document = append(datatypes.JSON{}, c.Document...)
	cp.Students = append([]model.CourseStudent{}, c.Students...)
	return &cp, nil
}

func (m *mockCourseRepo) ListByOwner(_ context.Context, ownerID string, offset, limit int) ([]model.Course, int64, error) {
	return m.filter(func(c *model.Course) bool { return c.OwnerID == ownerID }, offset, limit)
}

func (m *mockCourseRepo) ListByRollNo(_ context.Context, rollNo string, offset, limit int) ([]model.Course, int64, error) {
	return m.filter(func(c *model.Course) bool {
		for _, s := range c.Students {
			if s.RollNo == rollNo {
				return true
			}
		}
		return false
	}, offset, limit)
}

func (m *mockCourseRepo) filter(match func(*model.Course) bool, offset, limit int) ([]model.Course, int64, error) {
	var all []model.Course
	for _, c := range m.courses {
		if match(c) {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockCourseRepo) SaveDocument(_ context.Context, courseID string, document datatypes.JSON) error {
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	c, ok := m.courses[courseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Document = append(datatypes.JSON{}, document...)
	return nil
}

func (m *mockCourseRepo) ReplaceRoster(_ context.Context, courseID string, students []model.CourseStudent) error {
	c, ok := m.courses[courseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for i := range students {
		students[i].CourseID = courseID
		students[i].Position = i
	}
	c.Students = append([]model.CourseStudent{}, students...)
	return nil
}

// ── Mock DraftStore ──

type mockDraftStore struct {
	drafts  map[string][]byte
	ttls    map[string]time.Duration
	saveErr error
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{
		drafts: make(map[string][]byte),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *mockDraftStore) SaveDraft(_ context.Context, editorID, courseID string, payload []byte, ttl time.Duration) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.drafts[editorID+":"+courseID] = append([]byte{}, payload...)
	m.ttls[editorID+":"+courseID] = ttl
	return nil
}

func (m *mockDraftStore) LoadDraft(_ context.Context, editorID, courseID string) ([]byte, error) {
	if b, ok := m.drafts[editorID+":"+courseID]; ok {
		return b, nil
	}
	return nil, redis.ErrNotFound
}

func (m *mockDraftStore) DeleteDraft(_ context.Context, editorID, courseID string) error {
	delete(m.drafts, editorID+":"+courseID)
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	tokens map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{tokens: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl > 0 {
		m.tokens[jti] = ttl
	}
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := m.tokens[jti]
	return ok, nil
}

// ── 测试辅助 ──

func newMockRepository() (*repository.Repository, *mockUserRepo, *mockCourseRepo) {
	userRepo := newMockUserRepo()
	courseRepo := newMockCourseRepo()
	return &repository.Repository{User: userRepo, Course: courseRepo}, userRepo, courseRepo
}
