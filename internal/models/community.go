package models

import "time"

// Community is a user-created group. Child rows (memberships, messages,
// likes, community questions) are owned by the community and removed with it.
type Community struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CreatorID   uint      `gorm:"not null;index" json:"creator_id"`
	Creator     *User     `gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE" json:"creator,omitempty"`
	IsPublic    bool      `gorm:"not null;default:true" json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MembershipRole defines a member's role within a community.
type MembershipRole string

const (
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// MembershipStatus is the pending/approved/declined join lifecycle.
type MembershipStatus string

const (
	StatusPending  MembershipStatus = "pending"
	StatusApproved MembershipStatus = "approved"
	StatusDeclined MembershipStatus = "declined"
)

// CommunityMembership is the single row per (community, user) pair tracking
// role and request status. Declined rows flip back to pending on re-request.
type CommunityMembership struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CommunityID  uint             `gorm:"not null;uniqueIndex:uk_membership_community_user" json:"community_id"`
	Community    *Community       `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	UserID       uint             `gorm:"not null;uniqueIndex:uk_membership_community_user" json:"user_id"`
	User         *User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Role         MembershipRole   `gorm:"size:10;not null;default:'member'" json:"role"`
	Status       MembershipStatus `gorm:"size:10;not null;default:'pending';index" json:"status"`
	RequestedAt  time.Time        `json:"requested_at"`
	ApprovedAt   *time.Time       `json:"approved_at"`
	ApprovedByID *uint            `json:"approved_by_id"`
	ApprovedBy   *User            `gorm:"foreignKey:ApprovedByID" json:"-"`
}

// CommunityQuestion links a question into a community, unique per pair.
type CommunityQuestion struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	QuestionID  uint       `gorm:"not null;uniqueIndex:uk_community_question" json:"question_id"`
	Question    *Question  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"question,omitempty"`
	CommunityID uint       `gorm:"not null;uniqueIndex:uk_community_question" json:"community_id"`
	Community   *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}
