// Package aggregates defines domain-facing aggregate contracts for the settlement engine.
//
// These contracts avoid persistence/transport details and describe the semantic write
// boundaries where ledger invariants must hold atomically.
package aggregates
