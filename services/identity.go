package services

import "github.com/adilind/coffee-shop-api/models"

// Identity is the caller as established by the session middleware. The core
// trusts it and never re-authenticates.
type Identity struct {
	UserID     string
	Username   string
	Role       models.Role
	SourceAddr string
}

func (id Identity) Admin() bool {
	return id.Role == models.RoleAdmin
}
