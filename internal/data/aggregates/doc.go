// Package aggregates contains infrastructure implementations of the settlement aggregate contracts.
//
// Implementations compose table-level repos from internal/data/repos and own the transaction
// boundary of every mutating operation. Outbound effects (oracle requests aside) run only after
// the transaction that recorded them has committed.
package aggregates
