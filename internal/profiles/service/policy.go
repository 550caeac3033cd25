package service

import "github.com/google/uuid"

// RoleAdmin may replace booking profiles.
const RoleAdmin = "admin"

// Actor is the caller of a profile operation. TenantID is set for
// tenant-scoped tokens.
type Actor struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Roles    []string
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessPolicy decides who may read and who may change profiles.
type AccessPolicy interface {
	CanRead(a Actor) bool
	CanWrite(a Actor) bool
}

// RolePolicy allows an operation when the actor holds any of the listed
// roles. An empty ReadRoles list lets every authenticated actor read.
type RolePolicy struct {
	ReadRoles  []string
	WriteRoles []string
}

// DefaultPolicy lets any authenticated user read and admins write.
func DefaultPolicy() RolePolicy {
	return RolePolicy{WriteRoles: []string{RoleAdmin}}
}

func (p RolePolicy) CanRead(a Actor) bool {
	if a.UserID == uuid.Nil {
		return false
	}
	return len(p.ReadRoles) == 0 || anyRole(a, p.ReadRoles)
}

func (p RolePolicy) CanWrite(a Actor) bool {
	return a.UserID != uuid.Nil && anyRole(a, p.WriteRoles)
}

func anyRole(a Actor, roles []string) bool {
	for _, role := range roles {
		if a.HasRole(role) {
			return true
		}
	}
	return false
}
