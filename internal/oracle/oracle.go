// Package oracle is the boundary to the external confidential-computation responder that
// discloses confidential handles asynchronously.
package oracle

import (
	"context"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/confidential"
)

// Request asks the oracle to disclose Handles and call back with the same request id.
type Request struct {
	OrderID uint64
	// Handles are ordered: quantity first, then amount.
	Handles     []confidential.Handle
	Requester   string
	CallbackURL string
	Deadline    time.Time
}

// MaxHandles bounds the handle list carried by one request.
const MaxHandles = 8

type Oracle interface {
	// RequestDisclosure forwards the request and returns the oracle-assigned request id.
	// It must not block waiting for the disclosure itself.
	RequestDisclosure(ctx context.Context, req Request) (string, error)
}

// Callback is the oracle's answer for one request id.
type Callback struct {
	RequestID        string `json:"request_id"`
	RevealedQuantity int64  `json:"revealed_quantity"`
	RevealedAmount   int64  `json:"revealed_amount"`
	Proof            string `json:"proof"`
}

// Sink receives callbacks delivered in-process.
type Sink func(ctx context.Context, cb Callback) error
