package models

import "time"

// Subscription is a directed follow edge: Source sees Target's posts in its
// feed. The composite unique index makes duplicate edges a storage-level
// conflict rather than a read-then-write check.
type Subscription struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Source    string    `json:"source" gorm:"type:varchar(14);index:idx_subscriptions_source;uniqueIndex:idx_subscriptions_pair;not null"`
	Target    string    `json:"target" gorm:"type:varchar(14);index:idx_subscriptions_target;uniqueIndex:idx_subscriptions_pair;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default GORM table name.
func (Subscription) TableName() string { return "subscriptions" }
