package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/groupbuy-settlement/internal/oracle"
)

// StubOracle records requests and hands out sequential request ids without calling back.
type StubOracle struct {
	mu       sync.Mutex
	Err      error
	Requests []oracle.Request
	IDs      []string
}

func (o *StubOracle) RequestDisclosure(_ context.Context, req oracle.Request) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return "", o.Err
	}
	id := fmt.Sprintf("req-%d", len(o.IDs)+1)
	o.Requests = append(o.Requests, req)
	o.IDs = append(o.IDs, id)
	return id, nil
}

func (o *StubOracle) Last() (oracle.Request, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.IDs) == 0 {
		return oracle.Request{}, ""
	}
	return o.Requests[len(o.Requests)-1], o.IDs[len(o.IDs)-1]
}
