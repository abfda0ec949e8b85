package aggregates

// LockScope names a row family an aggregate may lock inside its write transaction.
type LockScope string

const (
	LockCampaign   LockScope = "campaign"
	LockOrder      LockScope = "order"
	LockDisclosure LockScope = "disclosure_request"
	LockRefund     LockScope = "pending_refund"
)

// lockRank is the global acquisition order. A transaction that holds a scope may only
// take scopes of a higher rank.
var lockRank = map[LockScope]int{
	LockCampaign:   1,
	LockOrder:      2,
	LockDisclosure: 3,
	LockRefund:     3,
}

// Effect is an outbound side effect an aggregate performs for a committed write.
type Effect string

const (
	EffectAudit    Effect = "audit"
	EffectTransfer Effect = "transfer"
	EffectOracle   Effect = "oracle_request"
)

// Contract describes what an aggregate locks and what it emits.
type Contract struct {
	Name    string
	Locks   []LockScope
	Effects []Effect
	Notes   string
}

// Aggregate is the common marker for all aggregate contracts.
type Aggregate interface {
	Contract() Contract
}

// LocksOrdered reports whether Locks follows the global acquisition order.
func (c Contract) LocksOrdered() bool {
	prev := 0
	for _, s := range c.Locks {
		r, ok := lockRank[s]
		if !ok || r < prev {
			return false
		}
		prev = r
	}
	return true
}

func (c Contract) Emits(e Effect) bool {
	for _, have := range c.Effects {
		if have == e {
			return true
		}
	}
	return false
}
