package models

import "time"

// NotificationType is the closed enumeration of notification kinds.
type NotificationType string

const (
	NotificationAnswer           NotificationType = "answer"
	NotificationQuestionVote     NotificationType = "question_vote"
	NotificationAnswerVote       NotificationType = "answer_vote"
	NotificationAnswerAccepted   NotificationType = "answer_accepted"
	NotificationMention          NotificationType = "mention"
	NotificationFollow           NotificationType = "follow"
	NotificationBookmark         NotificationType = "bookmark"
	NotificationCommunityInvite  NotificationType = "community_invite"
	NotificationCommunityQuestn  NotificationType = "community_question"
	NotificationJoinRequest      NotificationType = "community_join_request"
	NotificationRequestApproved  NotificationType = "community_request_approved"
	NotificationRequestDeclined  NotificationType = "community_request_declined"
	NotificationCommunityPost    NotificationType = "community_post"
	NotificationAdminAssigned    NotificationType = "community_admin_assigned"
	NotificationSystem           NotificationType = "system"
)

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationAnswer, NotificationQuestionVote, NotificationAnswerVote,
		NotificationAnswerAccepted, NotificationMention, NotificationFollow,
		NotificationBookmark, NotificationCommunityInvite, NotificationCommunityQuestn,
		NotificationJoinRequest, NotificationRequestApproved, NotificationRequestDeclined,
		NotificationCommunityPost, NotificationAdminAssigned, NotificationSystem:
		return true
	}
	return false
}

// Notification is a per-recipient record created synchronously by the
// fan-out logic. Never created when sender equals recipient.
type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notif_recipient_created,priority:1;index:idx_notif_recipient_read,priority:1" json:"recipient_id"`
	Recipient   *User            `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID    *uint            `gorm:"index" json:"sender_id"`
	Sender      *User            `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"sender,omitempty"`
	Type        NotificationType `gorm:"size:30;not null" json:"type"`
	Title       string           `gorm:"size:200;not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	QuestionID  *uint            `json:"question_id"`
	Question    *Question        `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	AnswerID    *uint            `json:"answer_id"`
	Answer      *Answer          `gorm:"foreignKey:AnswerID;constraint:OnDelete:CASCADE" json:"-"`
	IsRead      bool             `gorm:"not null;default:false;index:idx_notif_recipient_read,priority:2" json:"is_read"`
	ActionURL   *string          `gorm:"size:500" json:"action_url"`
	CreatedAt   time.Time        `gorm:"index:idx_notif_recipient_created,priority:2,sort:desc" json:"created_at"`
}
