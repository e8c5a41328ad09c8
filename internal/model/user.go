package model

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes candidates from proctors in the auth context.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleProctor   Role = "proctor"
)

// User is a minimal account record. Account issuance and login belong to
// the platform's identity service; this engine stores users only so that
// attempts and proctor results can join to names.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
