package domain

type (
	UserId     = string // internal id, assigned on first profile save
	IdentityId = string // id issued by the external identity provider
	Username   = string

	ThreadId    = string
	ThreadText  = string
	CommunityId = string
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
