package models

import "time"

// User represents a registered account. The username is the primary key and
// is immutable after registration.
type User struct {
	Name         string     `json:"name" gorm:"primaryKey;type:varchar(14)"`
	Password     string     `json:"-" gorm:"type:varchar(255)"` // bcrypt digest, never serialized
	Country      string     `json:"country" gorm:"type:varchar(100);default:''"`
	City         string     `json:"city" gorm:"type:varchar(100);default:''"`
	Birthdate    *time.Time `json:"birthdate" gorm:"type:date"`
	Interests    string     `json:"-" gorm:"type:text;default:''"` // comma-joined tags, split on read
	Bio          string     `json:"bio" gorm:"type:text;default:''"`
	LastActivity *time.Time `json:"last_activity"`
}

// TableName overrides the default GORM table name.
func (User) TableName() string { return "users" }
