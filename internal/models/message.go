package models

import (
	"encoding/json"
	"time"
)

// MessageType classifies a community message.
type MessageType string

const (
	MessageRegular      MessageType = "message"
	MessageQuestion     MessageType = "question"
	MessageAnnouncement MessageType = "announcement"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	return t == MessageRegular || t == MessageQuestion || t == MessageAnnouncement
}

// CommunityMessage is a threaded message in a community. Replies reference a
// parent message; one level of nesting is used in practice.
type CommunityMessage struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Content         string            `gorm:"type:text;not null" json:"content"`
	Type            MessageType       `gorm:"size:20;not null;default:'message'" json:"message_type"`
	AuthorID        uint              `gorm:"not null;index" json:"author_id"`
	Author          *User             `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	CommunityID     uint              `gorm:"not null;index" json:"community_id"`
	Community       *Community        `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"-"`
	ParentMessageID *uint             `gorm:"index" json:"parent_message_id"`
	ParentMessage   *CommunityMessage `gorm:"foreignKey:ParentMessageID;constraint:OnDelete:CASCADE" json:"-"`
	IsPinned        bool              `gorm:"not null;default:false" json:"is_pinned"`
	QuestionTitle   *string           `gorm:"size:255" json:"question_title"`
	QuestionTags    string            `gorm:"type:text;default:'[]'" json:"-"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`

	Replies []CommunityMessage `gorm:"foreignKey:ParentMessageID" json:"replies,omitempty"`
}

// QuestionTagList decodes the stored question tags for question-type messages.
func (m *CommunityMessage) QuestionTagList() []string {
	if m.QuestionTags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(m.QuestionTags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetQuestionTagList encodes tags into the stored column.
func (m *CommunityMessage) SetQuestionTagList(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		m.QuestionTags = "[]"
		return
	}
	m.QuestionTags = string(b)
}

// CommunityMessageLike records a like, unique per (user, message).
type CommunityMessageLike struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;uniqueIndex:uk_like_user_message" json:"user_id"`
	User      *User             `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	MessageID uint              `gorm:"not null;uniqueIndex:uk_like_user_message" json:"message_id"`
	Message   *CommunityMessage `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time         `json:"created_at"`
}
