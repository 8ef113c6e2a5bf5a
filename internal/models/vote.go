package models

import (
	"time"
)

// Vote types. A user holds at most one vote per feature; the composite
// unique index on (user_id, feature_id) is what enforces that at the store
// level, not application code.
const (
	VoteTypeUp   = "upvote"
	VoteTypeDown = "downvote"
)

type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_feature" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	FeatureID uint      `gorm:"not null;uniqueIndex:idx_user_feature" json:"-"`
	Feature   Feature   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	VoteType  string    `gorm:"size:10;not null" json:"vote_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidVoteType reports whether s is one of the two accepted vote types.
func ValidVoteType(s string) bool {
	return s == VoteTypeUp || s == VoteTypeDown
}
