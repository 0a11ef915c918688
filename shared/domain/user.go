package domain

import "strings"

type User struct {
	Id         UserId     `json:"id"`
	IdentityId IdentityId `json:"identity_id"`
	Username   Username   `json:"username"`
	Name       string     `json:"name"`
	Bio        string     `json:"bio"`
	Image      string     `json:"image"`
	Threads    []ThreadId `json:"threads"`
}

// Author is the projection of a user embedded into populated threads.
type Author struct {
	Id         UserId     `json:"id"`
	IdentityId IdentityId `json:"identity_id"`
	Name       string     `json:"name"`
	Image      string     `json:"image"`
}

func (u *User) Author() *Author {
	return &Author{Id: u.Id, IdentityId: u.IdentityId, Name: u.Name, Image: u.Image}
}

// to iterate thru layers: handler -> service -> storage
type UserProfile struct {
	IdentityId IdentityId
	Username   Username
	Name       string
	Bio        string
	Image      string
}

// Normalized returns the profile as it is persisted.
func (p UserProfile) Normalized() UserProfile {
	p.Username = strings.ToLower(p.Username)
	return p
}

type UserThreads struct {
	User    User      `json:"user"`
	Threads []*Thread `json:"threads"`
}
