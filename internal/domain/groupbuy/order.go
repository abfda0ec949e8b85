package groupbuy

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderRefunded
}

// CanTransition encodes the order state machine.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	switch s {
	case OrderPending:
		return to == OrderProcessing || to == OrderCancelled
	case OrderProcessing:
		return to == OrderCompleted || to == OrderRefunded
	default:
		return false
	}
}

type DisclosureStatus string

const (
	DisclosureNone      DisclosureStatus = "none"
	DisclosureRequested DisclosureStatus = "requested"
	DisclosureCompleted DisclosureStatus = "completed"
	DisclosureFailed    DisclosureStatus = "failed"
)

// Order is one participant's confidential commitment to a campaign.
type Order struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	CampaignID  uint64 `gorm:"column:campaign_id;not null;index" json:"campaign_id"`
	Participant string `gorm:"column:participant;not null;index" json:"participant"`

	QuantityHandle string `gorm:"column:quantity_handle;not null" json:"quantity_handle"`
	AmountHandle   string `gorm:"column:amount_handle;not null" json:"amount_handle"`
	PaidAmount     int64  `gorm:"column:paid_amount;not null" json:"paid_amount"`

	PlacedAt time.Time   `gorm:"column:placed_at;not null" json:"placed_at"`
	Status   OrderStatus `gorm:"column:status;not null;index" json:"status"`

	Revealed         bool  `gorm:"column:revealed;not null" json:"revealed"`
	RevealedQuantity int64 `gorm:"column:revealed_quantity;not null" json:"revealed_quantity"`
	RevealedAmount   int64 `gorm:"column:revealed_amount;not null" json:"revealed_amount"`

	DisclosureStatus    DisclosureStatus `gorm:"column:disclosure_status;not null;index" json:"disclosure_status"`
	DisclosureRequestID *string          `gorm:"column:disclosure_request_id" json:"disclosure_request_id,omitempty"`
	DisclosureDeadline  time.Time        `gorm:"column:disclosure_deadline;not null;index" json:"disclosure_deadline"`

	// LiveKey holds "campaign:participant" while the order is not cancelled; the unique index
	// enforces one live order per pair. Cancellation clears it.
	LiveKey *string `gorm:"column:live_key;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }

func LiveOrderKey(campaignID uint64, participant string) string {
	return fmt.Sprintf("%d:%s", campaignID, participant)
}

// RefundableAmount is the disclosed amount when known, else what was paid.
func (o *Order) RefundableAmount() int64 {
	if o == nil {
		return 0
	}
	if o.Revealed && o.RevealedAmount > 0 {
		return o.RevealedAmount
	}
	return o.PaidAmount
}
