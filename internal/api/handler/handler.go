package handler

import (
	"github.com/replyre/kiit-lms-final-sub000/config"
	"github.com/replyre/kiit-lms-final-sub000/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	Course *CourseHandler
	Draft  *DraftHandler
	Grade  *GradeHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(cfg *config.Config, svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth, &cfg.Auth),
		Course: NewCourseHandler(svc.Course),
		Draft:  NewDraftHandler(svc.Draft),
		Grade:  NewGradeHandler(svc.Grade, svc.Export),
		Export: NewExportHandler(svc.Export),
	}
}
