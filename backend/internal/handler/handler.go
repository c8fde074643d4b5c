package handler

import (
	"context"

	"github.com/itchan-dev/threads/backend/internal/service"
	"github.com/itchan-dev/threads/shared/config"
)

// HealthChecker reports whether the store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	thread    service.ThreadService
	directory service.DirectoryService
	activity  service.UserActivityService
	health    HealthChecker
	cfg       *config.Config
}

func New(thread service.ThreadService, directory service.DirectoryService, activity service.UserActivityService, health HealthChecker, cfg *config.Config) *Handler {
	return &Handler{
		thread:    thread,
		directory: directory,
		activity:  activity,
		health:    health,
		cfg:       cfg,
	}
}
