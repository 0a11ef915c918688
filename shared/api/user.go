package api

import "github.com/wam-dev/threads/shared/domain"

// Request DTOs

type UpdateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Name     string `json:"name" validate:"required,max=50"`
	Bio      string `json:"bio" validate:"max=1000"`
	Image    string `json:"image" validate:"omitempty,url"`
	Path     string `json:"path" validate:"required,startswith=/"`
}

// Response DTOs

type UserResponse struct {
	domain.User
}

type UserThreadsResponse struct {
	User    domain.User       `json:"user"`
	Threads []*ThreadResponse `json:"threads"`
}
