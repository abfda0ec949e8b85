package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/yungbote/groupbuy-settlement/internal/payout"
)

var ErrTransferRejected = errors.New("recipient rejected transfer")

// FlakyTransferer forwards to Next unless Fail is set.
type FlakyTransferer struct {
	Next payout.Transferer

	mu       sync.Mutex
	Fail     bool
	Attempts []payout.Transfer
}

func (f *FlakyTransferer) SetFail(v bool) {
	f.mu.Lock()
	f.Fail = v
	f.mu.Unlock()
}

func (f *FlakyTransferer) Transfer(ctx context.Context, t payout.Transfer) (payout.Receipt, error) {
	f.mu.Lock()
	f.Attempts = append(f.Attempts, t)
	fail := f.Fail
	f.mu.Unlock()
	if fail {
		return payout.Receipt{}, ErrTransferRejected
	}
	return f.Next.Transfer(ctx, t)
}
