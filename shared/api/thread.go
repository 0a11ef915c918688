package api

import (
	"time"

	"github.com/wam-dev/threads/shared/domain"
)

// Request DTOs

type CreateThreadRequest struct {
	Text        string  `json:"text" validate:"required,max=10000"`
	CommunityId *string `json:"community_id,omitempty"`
	Path        string  `json:"path" validate:"required,startswith=/"`
}

type CreateReplyRequest struct {
	Text string `json:"text" validate:"required,max=10000"`
	Path string `json:"path" validate:"required,startswith=/"`
}

// Response DTOs

type CreatedResponse struct {
	Id string `json:"id"`
}

// ThreadResponse is a populated thread with its text rendered to safe HTML.
type ThreadResponse struct {
	Id          domain.ThreadId     `json:"id"`
	Text        string              `json:"text"`
	TextHTML    string              `json:"text_html"`
	Author      *domain.Author      `json:"author"`
	ParentId    *domain.ThreadId    `json:"parent_id"`
	CommunityId *domain.CommunityId `json:"community_id"`
	CreatedAt   time.Time           `json:"created_at"`
	Children    []*ThreadResponse   `json:"children"`
}

type ThreadListResponse struct {
	Threads []*ThreadResponse `json:"threads"`
	IsNext  bool              `json:"is_next"`
}

// NewThreadResponse converts a populated thread tree; render produces text_html.
func NewThreadResponse(t *domain.Thread, render func(string) string) *ThreadResponse {
	resp := &ThreadResponse{
		Id:          t.Id,
		Text:        t.Text,
		TextHTML:    render(t.Text),
		Author:      t.Author,
		ParentId:    t.ParentId,
		CommunityId: t.CommunityId,
		CreatedAt:   t.CreatedAt,
		Children:    make([]*ThreadResponse, 0, len(t.Children)),
	}
	for _, child := range t.Children {
		resp.Children = append(resp.Children, NewThreadResponse(child, render))
	}
	return resp
}

func NewThreadListResponse(threads []*domain.Thread, isNext bool, render func(string) string) ThreadListResponse {
	resp := ThreadListResponse{Threads: make([]*ThreadResponse, 0, len(threads)), IsNext: isNext}
	for _, t := range threads {
		resp.Threads = append(resp.Threads, NewThreadResponse(t, render))
	}
	return resp
}
