/**
 * @description
 * User database model.
 * Maps to the 'users' table in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 * - github.com/google/uuid
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account created through a magic link
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	LastLoginAt *time.Time `gorm:"column:last_login_at" json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName overrides the table name used by User to `users`
func (User) TableName() string {
	return "users"
}

// BeforeCreate ensures UUID is generated if not present
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
