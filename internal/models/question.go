package models

import (
	"encoding/json"
	"time"
)

// Question is a user-submitted question. Tags are stored as a JSON-encoded
// string list so the column round-trips on both Postgres and SQLite.
type Question struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Tags        string    `gorm:"type:text;default:'[]'" json:"-"`
	Views       int       `gorm:"not null;default:0" json:"views"`
	Upvotes     int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes   int       `gorm:"not null;default:0" json:"downvotes"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Answers []Answer `gorm:"foreignKey:QuestionID" json:"answers,omitempty"`
}

// TagList decodes the stored tag list. A malformed or empty column yields nil.
func (q *Question) TagList() []string {
	if q.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(q.Tags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTagList encodes tags into the stored column. Nil becomes an empty list.
func (q *Question) SetTagList(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		q.Tags = "[]"
		return
	}
	q.Tags = string(b)
}

// Answer is a response to a question. At most one answer per question has
// IsAccepted set; the accept operation clears prior flags before setting a
// new one.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	Question   *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Upvotes    int       `gorm:"not null;default:0" json:"upvotes"`
	Downvotes  int       `gorm:"not null;default:0" json:"downvotes"`
	IsAccepted bool      `gorm:"not null;default:false" json:"is_accepted"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Bookmark marks a question saved by a user, at most once per pair.
type Bookmark struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:uk_bookmark_user_question" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionID uint      `gorm:"not null;uniqueIndex:uk_bookmark_user_question" json:"question_id"`
	Question   *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"question,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// VoteType is the request body discriminator for vote endpoints.
type VoteType string

const (
	VoteUpvote   VoteType = "upvote"
	VoteDownvote VoteType = "downvote"
)

// Valid reports whether the vote type is one of the two accepted values.
func (v VoteType) Valid() bool {
	return v == VoteUpvote || v == VoteDownvote
}
