package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/repository"
	"github.com/replyre/kiit-lms-final-sub000/pkg/jwt"
	"github.com/replyre/kiit-lms-final-sub000/pkg/redis"
)

// TokenBlacklist Token 黑名单（pkg/redis.Client 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// DraftStore 编辑草稿存储（pkg/redis.Client 实现）
// LoadDraft 在键不存在时返回 redis.ErrNotFound
type DraftStore interface {
	SaveDraft(ctx context.Context, editorID, courseID string, payload []byte, ttl time.Duration) error
	LoadDraft(ctx context.Context, editorID, courseID string) ([]byte, error)
	DeleteDraft(ctx context.Context, editorID, courseID string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth   AuthService
	Course CourseService
	Draft  DraftService
	Grade  GradeService
	Export ExportService
}

// NewService 创建 Service 聚合
// rdb 为 nil 时 Token 黑名单降级关闭，草稿接口返回 ErrDraftStoreUnavailable
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	var (
		blacklist TokenBlacklist
		drafts    DraftStore
	)
	if rdb != nil {
		blacklist = rdb
		drafts = rdb
	}

	return &Service{
		Auth:   NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Course: NewCourseService(repo, logger),
		Draft:  NewDraftService(cfg, repo, drafts, logger),
		Grade:  NewGradeService(),
		Export: NewExportService(cfg, repo, logger),
	}
}
