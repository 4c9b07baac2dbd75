// Package domain holds identity and tenancy models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the member's role inside an organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// User is a person able to sign in. Credential verification is done by
// the external identity provider; the local password hash exists only
// for the bootstrap owner account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	DisplayName  string       `gorm:"type:text;not null"`
	PasswordHash *string      `gorm:"type:text"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Org is the tenant boundary. Every financial row carries its id.
type Org struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Name      string       `gorm:"type:text;not null"`
	Currency  string       `gorm:"type:text;not null;default:'BRL'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Org) TableName() string { return "organizations" }

// OrgMember links a user to an org with a role.
type OrgMember struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_members_org_user,priority:1"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_org_members_org_user,priority:2"`
	Role      Role         `gorm:"type:text;not null;default:'MEMBER'"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (OrgMember) TableName() string { return "organization_members" }

// Session is a server-side session row behind the opaque cookie token.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Token     string       `gorm:"type:text;not null;uniqueIndex"`
	UserID    snowflake.ID `gorm:"not null;index"`
	OrgID     snowflake.ID `gorm:"not null;index"`
	Role      Role         `gorm:"type:text;not null"`
	ExpiresAt time.Time    `gorm:"not null;index"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// AuthContext is the identity resolved once at the request boundary and
// passed explicitly into every service call.
type AuthContext struct {
	UserID snowflake.ID
	OrgID  snowflake.ID
	Role   Role
}

// IsOwner reports whether the caller holds the OWNER role.
func (a AuthContext) IsOwner() bool { return a.Role == RoleOwner }
