package confidential

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Vault is an in-process Boundary and Revealer used for local runs and tests. Values do not
// survive a restart.
type Vault struct {
	mu     sync.RWMutex
	values map[Handle]int64
	grants map[Handle]map[string]struct{}
}

var (
	_ Boundary = (*Vault)(nil)
	_ Revealer = (*Vault)(nil)
)

func NewVault() *Vault {
	return &Vault{
		values: map[Handle]int64{},
		grants: map[Handle]map[string]struct{}{},
	}
}

func (v *Vault) Wrap(_ context.Context, value int64) (Handle, error) {
	h := Handle("ct_" + uuid.NewString())
	v.mu.Lock()
	v.values[h] = value
	v.mu.Unlock()
	return h, nil
}

func (v *Vault) Combine(ctx context.Context, a, b Handle) (Handle, error) {
	v.mu.RLock()
	av, aok := v.values[a]
	bv, bok := v.values[b]
	v.mu.RUnlock()
	if !aok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, a)
	}
	if !bok {
		return "", fmt.Errorf("%w: %s", ErrUnknownHandle, b)
	}
	if (bv > 0 && av > math.MaxInt64-bv) || (bv < 0 && av < math.MinInt64-bv) {
		return "", fmt.Errorf("confidential: combine overflow")
	}
	return v.Wrap(ctx, av+bv)
}

func (v *Vault) Authorize(_ context.Context, h Handle, identity string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.values[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	g := v.grants[h]
	if g == nil {
		g = map[string]struct{}{}
		v.grants[h] = g
	}
	g[identity] = struct{}{}
	return nil
}

func (v *Vault) Reveal(_ context.Context, h Handle) (int64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.values[h]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	return val, nil
}

// Authorized reports whether identity was granted access to h.
func (v *Vault) Authorized(h Handle, identity string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.grants[h][identity]
	return ok
}
