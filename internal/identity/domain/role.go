package domain

import "time"

type Role struct {
	ID          string
	Name        string // unique
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission names an allowed (resource, action) pair. Users hold
// permissions only indirectly, through roles.
type Permission struct {
	ID          string
	Name        string // unique
	Resource    string
	Action      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
