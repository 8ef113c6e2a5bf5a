package models

import (
	"time"
)

// Feature status values. Deleted features keep their row and their votes;
// they just stop showing up in queries.
const (
	FeatureStatusActive  = "active"
	FeatureStatusDeleted = "deleted"
)

type Feature struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Fid         string    `gorm:"uniqueIndex;size:8;not null" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"author_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Status      string    `gorm:"size:10;default:'active';not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 非数据库字段，查询时从 Vote 表实时统计填充
	UpvoteCount     int     `gorm:"-" json:"upvote_count"`
	DownvoteCount   int     `gorm:"-" json:"downvote_count"`
	TotalScore      int     `gorm:"-" json:"total_score"`
	UserVote        *string `gorm:"-" json:"user_vote"`
	DescriptionHTML string  `gorm:"-" json:"description_html,omitempty"`
}
