package entity

import (
	"time"

	"github.com/lib/pq"
)

type MemberRole string

const (
	RoleAdmin   MemberRole = "admin"
	RoleCoAdmin MemberRole = "co-admin"
	RoleMember  MemberRole = "member"
)

// CanManage reports whether the role may mutate the community and its events.
func (r MemberRole) CanManage() bool {
	return r == RoleAdmin || r == RoleCoAdmin
}

type Community struct {
	ID            int64          `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	Description   string         `json:"description" db:"description"`
	Tags          pq.StringArray `json:"tags" db:"tags"`
	Active        bool           `json:"active" db:"active"`
	DeactivatedAt *time.Time     `json:"deactivated_at,omitempty" db:"deactivated_at"`
	DeactivatedBy *int64         `json:"deactivated_by,omitempty" db:"deactivated_by"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedBy     *int64         `json:"deleted_by,omitempty" db:"deleted_by"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

type Membership struct {
	ID          int64      `json:"id" db:"id"`
	CommunityID int64      `json:"community_id" db:"community_id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Role        MemberRole `json:"role" db:"role"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
