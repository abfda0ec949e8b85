// Package disclosurewatch runs one durable timer per outstanding disclosure request and applies
// the timeout once the order's disclosure deadline has passed.
package disclosurewatch

import (
	"fmt"
	"time"
)

const (
	WorkflowName   = "disclosure_deadline"
	ActivityExpire = "disclosure_deadline_expire"
)

type Input struct {
	OrderID   uint64    `json:"order_id"`
	RequestID string    `json:"request_id"`
	Deadline  time.Time `json:"deadline"`
}

type Result struct {
	OrderID uint64 `json:"order_id"`
	// Outcome is refunded, transferred or skipped.
	Outcome string `json:"outcome"`
	Refund  int64  `json:"refund,omitempty"`
}

const (
	OutcomeRefunded    = "refunded"
	OutcomeTransferred = "transferred"
	OutcomeSkipped     = "skipped"
)

// WorkflowID is one per order, so a duplicate Watch is a no-op.
func WorkflowID(orderID uint64) string {
	return fmt.Sprintf("disclosure-deadline-%d", orderID)
}
