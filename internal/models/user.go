package models

import "time"

// Role is a Membership's role within an org.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleDispatcher Role = "DISPATCHER"
	RoleFinance    Role = "FINANCE"
	RoleViewer     Role = "VIEWER"
)

// User is an org-scoped principal. Email is unique per org, not globally.
type User struct {
	ID             string `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID          string `gorm:"type:char(16);not null;uniqueIndex:idx_user_org_email,priority:1" json:"org_id"`
	Email          string `gorm:"size:250;not null;uniqueIndex:idx_user_org_email,priority:2" json:"email"`
	PasswordHash   string `gorm:"size:250;not null" json:"-"`
	HashScheme     string `gorm:"size:30;not null;default:'bcrypt'" json:"-"`
	MustChange     bool   `gorm:"default:false" json:"must_change"`
	Deactivated    bool   `gorm:"default:false" json:"deactivated"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Membership binds a user to an org with a role. (user, org) is unique —
// trivially true here since User already carries a single OrgID, but the
// table is kept separate so a future multi-org user is a data migration,
// not a schema rewrite.
type Membership struct {
	ID     string `gorm:"type:char(16);primaryKey" json:"id"`
	OrgID  string `gorm:"type:char(16);not null;uniqueIndex:idx_membership_org_user,priority:1" json:"org_id"`
	UserID string `gorm:"type:char(16);not null;uniqueIndex:idx_membership_org_user,priority:2" json:"user_id"`
	Role   Role   `gorm:"size:20;not null" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Membership) TableName() string { return "memberships" }
