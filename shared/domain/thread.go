package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	Text        ThreadText
	AuthorId    UserId
	CommunityId *CommunityId // accepted but never persisted
	Path        string
}

type ReplyCreationData struct {
	ParentId ThreadId
	Text     ThreadText
	AuthorId UserId
	Path     string
}

type Thread struct {
	Id          ThreadId     `json:"id"`
	Text        ThreadText   `json:"text"`
	AuthorId    UserId       `json:"author_id"`
	ParentId    *ThreadId    `json:"parent_id"`
	ChildIds    []ThreadId   `json:"child_ids"`
	CommunityId *CommunityId `json:"community_id"`
	CreatedAt   time.Time    `json:"created_at"`

	// filled by population, nil on raw store reads
	Author   *Author   `json:"author,omitempty"`
	Children []*Thread `json:"children,omitempty"`
}

func (t *Thread) IsTopLevel() bool {
	return t.ParentId == nil
}

type ThreadPage struct {
	Threads []*Thread `json:"threads"`
	IsNext  bool      `json:"is_next"`
}

// Skip is the number of top-level threads preceding the given page.
func Skip(page, pageSize int) int {
	return (page - 1) * pageSize
}
