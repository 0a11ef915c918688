package handler

import (
	"context"

	"github.com/wam-dev/threads/backend/internal/service"
)

// HealthChecker is implemented by every storage backend.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Renderer turns thread text into safe HTML.
type Renderer interface {
	Render(text string) string
}

type Handler struct {
	thread   service.ThreadService
	user     service.UserService
	health   HealthChecker
	renderer Renderer
}

func New(thread service.ThreadService, user service.UserService, health HealthChecker, renderer Renderer) *Handler {
	return &Handler{thread: thread, user: user, health: health, renderer: renderer}
}

func (h *Handler) render(text string) string {
	return h.renderer.Render(text)
}
