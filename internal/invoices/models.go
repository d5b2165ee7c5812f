package invoices

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice statuses. The lifecycle engine never mutates invoices directly;
// they change through CascadeInvoiceStatus intents when a collections case
// resolves.
const (
	StatusPending       = "PENDING"
	StatusPaid          = "PAID"
	StatusUncollectible = "UNCOLLECTIBLE"
)

// Invoice is the billed document a collections case tracks. Its due date is
// the stable stored input for all aging computation; days overdue is never
// persisted.
type Invoice struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Folio     string         `gorm:"not null;uniqueIndex" json:"folio"`
	ClientID  uuid.UUID      `gorm:"type:uuid;not null" json:"client_id"`
	Amount    float64        `gorm:"not null" json:"amount"`
	Status    string         `gorm:"not null;default:'PENDING'" json:"status"`
	IssuedAt  time.Time      `gorm:"not null" json:"issued_at"`
	DueDate   time.Time      `gorm:"not null" json:"due_date"`
	PaidAt    *time.Time     `json:"paid_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
