// Package payout performs the outbound transfer effect for refunds.
package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Transfer struct {
	Recipient      string
	Amount         int64
	IdempotencyKey string
}

type Receipt struct {
	ID string
}

// Transferer moves funds to a recipient. Calling it twice with the same IdempotencyKey pays once.
type Transferer interface {
	Transfer(ctx context.Context, t Transfer) (Receipt, error)
}

var ErrInvalidTransfer = errors.New("payout: invalid transfer")

type ledgerTransferer struct {
	log  *logger.Logger
	repo repos.PayoutRepo
	now  func() time.Time
}

// NewLedgerTransferer records each transfer as a payout row.
func NewLedgerTransferer(repo repos.PayoutRepo, log *logger.Logger) Transferer {
	return &ledgerTransferer{
		log:  log.With("component", "LedgerTransferer"),
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (l *ledgerTransferer) Transfer(ctx context.Context, t Transfer) (Receipt, error) {
	key := strings.TrimSpace(t.IdempotencyKey)
	if key == "" || t.Amount <= 0 || types.IsNullIdentity(t.Recipient) {
		return Receipt{}, fmt.Errorf("%w: recipient=%q amount=%d", ErrInvalidTransfer, t.Recipient, t.Amount)
	}
	dbc := dbctx.Context{Ctx: ctx}
	if existing, err := l.repo.GetByIdempotencyKey(dbc, key); err != nil {
		return Receipt{}, err
	} else if existing != nil {
		return Receipt{ID: existing.ID.String()}, nil
	}

	row := &types.Payout{
		ID:             uuid.New(),
		Recipient:      t.Recipient,
		Amount:         t.Amount,
		IdempotencyKey: key,
		CreatedAt:      l.now(),
	}
	if err := l.repo.Create(dbc, row); err != nil {
		// Lost a race on the same key: the winner's row is the receipt.
		if existing, getErr := l.repo.GetByIdempotencyKey(dbc, key); getErr == nil && existing != nil {
			return Receipt{ID: existing.ID.String()}, nil
		}
		return Receipt{}, err
	}
	l.log.Info("payout recorded", "recipient", t.Recipient, "amount", t.Amount, "payout_id", row.ID.String())
	return Receipt{ID: row.ID.String()}, nil
}
