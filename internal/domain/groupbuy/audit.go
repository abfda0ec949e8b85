package groupbuy

import (
	"time"

	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditCampaignCreated     AuditAction = "campaign_created"
	AuditCampaignDeactivated AuditAction = "campaign_deactivated"
	AuditProcessingStarted   AuditAction = "processing_started"
	AuditOrderPlaced         AuditAction = "order_placed"
	AuditOrderCancelled      AuditAction = "order_cancelled"
	AuditOrderReclaimed      AuditAction = "order_reclaimed"
	AuditDisclosureRequested AuditAction = "disclosure_requested"
	AuditDisclosureCompleted AuditAction = "disclosure_completed"
	AuditDisclosureFailed    AuditAction = "disclosure_failed"
	AuditRefundProcessed     AuditAction = "refund_processed"
	AuditRefundDeferred      AuditAction = "refund_deferred"
	AuditRefundClaimed       AuditAction = "refund_claimed"
)

const (
	EntityCampaign = "campaign"
	EntityOrder    = "order"
	EntityRefund   = "refund"
)

// AuditEvent is an append-only record for external observers.
type AuditEvent struct {
	ID         uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Action     AuditAction    `gorm:"column:action;not null;index" json:"action"`
	Actor      string         `gorm:"column:actor;not null;index" json:"actor"`
	EntityType string         `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityID   string         `gorm:"column:entity_id;not null;index" json:"entity_id"`
	CampaignID *uint64        `gorm:"column:campaign_id;index" json:"campaign_id,omitempty"`
	Detail     string         `gorm:"column:detail" json:"detail"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AuditEvent) TableName() string { return "audit_event" }
