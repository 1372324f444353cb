package models

import (
	"strings"
	"time"
)

// Role is a staff role.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleInspector Role = "inspector"
)

// NormalizeRole validates and normalizes a role string.
func NormalizeRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleInspector:
		return RoleInspector, true
	default:
		return "", false
	}
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	UserID int64  `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Role   Role   `json:"role"`
}

// User is a staff account row.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	CreatedAt    time.Time
}

// Actor projects the user onto the identity carried by a session.
func (u *User) Actor() Actor {
	return Actor{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
