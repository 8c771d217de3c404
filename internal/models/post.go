package models

import "time"

// Post is an immutable piece of content authored by a user. The sequential
// id doubles as the insertion-order tie breaker when sorting by creation
// time.
type Post struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	Author  string    `json:"author" gorm:"type:varchar(14);index:idx_posts_author;not null"`
	Title   string    `json:"title" gorm:"type:varchar(99)"`
	Text    string    `json:"text" gorm:"type:text"`
	Created time.Time `json:"created" gorm:"autoCreateTime;index:idx_posts_created"`
}

// TableName overrides the default GORM table name.
func (Post) TableName() string { return "posts" }
