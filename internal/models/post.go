// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"
)

// Post is a social media post collected from the upstream search API.
//
// PostID is the upstream-assigned natural key; the store enforces its
// uniqueness and insertion of a duplicate is a no-op. CreatedAt is the
// upstream timestamp and stays NULL when the upstream value is absent or
// unparsable. CollectedAt is assigned by the store at insertion time.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	PostID      string     `gorm:"size:50;uniqueIndex;not null" json:"post_id"`
	AuthorID    string     `gorm:"size:50;index:idx_posts_author_created,priority:1" json:"author_id,omitempty"`
	Text        string     `gorm:"type:text;not null" json:"text"`
	CreatedAt   *time.Time `gorm:"autoCreateTime:false;index:idx_posts_author_created,priority:2;index:idx_posts_created" json:"created_at"`
	CollectedAt time.Time  `gorm:"autoCreateTime;not null" json:"collected_at"`
	// RawPayload holds the serialized upstream record for forward
	// compatibility. It is never parsed back and never serialized out.
	RawPayload string `gorm:"type:text" json:"-"`
}

func (p *Post) String() string {
	return fmt.Sprintf("<Post(id=%d, post_id=%s, author_id=%s)>", p.ID, p.PostID, p.AuthorID)
}
