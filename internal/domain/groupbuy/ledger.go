package groupbuy

import (
	"time"

	"github.com/google/uuid"
)

// PendingRefund is a claimable compensation balance per participant.
type PendingRefund struct {
	Participant string    `gorm:"primaryKey" json:"participant"`
	Amount      int64     `gorm:"column:amount;not null" json:"amount"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (PendingRefund) TableName() string { return "pending_refund" }

type DisclosureRequestState string

const (
	DisclosureRequestPending DisclosureRequestState = "pending"
	// DisclosureRequestRetired marks an entry closed by the timeout path.
	DisclosureRequestRetired DisclosureRequestState = "retired"
)

// DisclosureRequest indexes an outstanding oracle request id to its order.
type DisclosureRequest struct {
	RequestID string                 `gorm:"primaryKey" json:"request_id"`
	OrderID   uint64                 `gorm:"column:order_id;not null;uniqueIndex" json:"order_id"`
	State     DisclosureRequestState `gorm:"column:state;not null;index" json:"state"`
	Deadline  time.Time              `gorm:"column:deadline;not null;index" json:"deadline"`
	CreatedAt time.Time              `gorm:"not null" json:"created_at"`
	RetiredAt *time.Time             `gorm:"column:retired_at" json:"retired_at,omitempty"`
}

func (DisclosureRequest) TableName() string { return "disclosure_request" }

// Payout is a completed direct transfer to a recipient.
type Payout struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Recipient      string    `gorm:"column:recipient;not null;index" json:"recipient"`
	Amount         int64     `gorm:"column:amount;not null" json:"amount"`
	IdempotencyKey string    `gorm:"column:idempotency_key;not null;uniqueIndex" json:"idempotency_key"`
	CreatedAt      time.Time `gorm:"not null;index" json:"created_at"`
}

func (Payout) TableName() string { return "payout" }
