package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type SimulatorConfig struct {
	Delay time.Duration
	// Redeliver is how many more times a rejected callback is retried, Delay apart.
	Redeliver int
	// Silent makes the simulator accept requests and never answer.
	Silent bool
}

// Simulator is an in-process Oracle that reveals handles from a confidential.Revealer and
// delivers a signed callback to its sink after Delay.
type Simulator struct {
	log    *logger.Logger
	cfg    SimulatorConfig
	reveal confidential.Revealer
	prover *Prover

	mu     sync.RWMutex
	sink   Sink
	closed bool
	wg     sync.WaitGroup
	stop   chan struct{}
}

var _ Oracle = (*Simulator)(nil)

func NewSimulator(cfg SimulatorConfig, reveal confidential.Revealer, prover *Prover, log *logger.Logger) *Simulator {
	return &Simulator{
		log:    log.With("client", "OracleSimulator"),
		cfg:    cfg,
		reveal: reveal,
		prover: prover,
		stop:   make(chan struct{}),
	}
}

// SetSink installs the callback receiver. Requests issued before a sink is set are dropped.
func (s *Simulator) SetSink(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

func (s *Simulator) RequestDisclosure(_ context.Context, req Request) (string, error) {
	if len(req.Handles) != 2 {
		return "", fmt.Errorf("simulator expects quantity and amount handles, got %d", len(req.Handles))
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return "", fmt.Errorf("oracle simulator closed")
	}

	id := uuid.NewString()
	if s.cfg.Silent {
		return id, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.stop:
			return
		case <-time.After(s.cfg.Delay):
		}
		s.deliver(id, req)
	}()
	return id, nil
}

func (s *Simulator) deliver(id string, req Request) {
	ctx := context.Background()
	qty, err := s.reveal.Reveal(ctx, req.Handles[0])
	if err != nil {
		s.log.Warn("reveal quantity failed", "request_id", id, "error", err)
		return
	}
	amt, err := s.reveal.Reveal(ctx, req.Handles[1])
	if err != nil {
		s.log.Warn("reveal amount failed", "request_id", id, "error", err)
		return
	}

	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	if sink == nil {
		s.log.Warn("no callback sink; dropping disclosure", "request_id", id)
		return
	}
	cb := Callback{
		RequestID:        id,
		RevealedQuantity: qty,
		RevealedAmount:   amt,
		Proof:            s.prover.Sign(id, qty, amt),
	}
	for attempt := 0; ; attempt++ {
		err := sink(ctx, cb)
		if err == nil {
			return
		}
		if attempt >= s.cfg.Redeliver {
			s.log.Warn("disclosure callback rejected", "request_id", id, "order_id", req.OrderID, "error", err)
			return
		}
		select {
		case <-s.stop:
			return
		case <-time.After(s.cfg.Delay):
		}
	}
}

// Close stops pending deliveries and waits for in-flight ones.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()
	s.wg.Wait()
}
