package directory

import (
	"time"

	"github.com/google/uuid"
)

// User is a seller or collector in the read-only directory. The audit actor
// and task assignees resolve against it.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"not null" json:"name"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	Role         string    `gorm:"not null" json:"role"` // seller, collector, admin
	PasswordHash string    `gorm:"not null" json:"-"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
