// Package groupbuy holds the persisted ledger entities of the group-purchase settlement engine
// together with their status vocabularies and numeric bounds.
package groupbuy
