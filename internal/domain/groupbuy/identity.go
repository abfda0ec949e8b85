package groupbuy

import "strings"

// NullIdentity is the designated identity that may never act or receive funds.
const NullIdentity = "0x0000000000000000000000000000000000000000"

// SystemIdentity is used by the deadline watchdog when it acts as administrator.
const SystemIdentity = "system:disclosure-watchdog"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	Identity string
	Role     Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func NormalizeIdentity(id string) string {
	return strings.TrimSpace(id)
}

func IsNullIdentity(id string) bool {
	id = NormalizeIdentity(id)
	return id == "" || strings.EqualFold(id, NullIdentity)
}

func SystemAdmin() Actor {
	return Actor{Identity: SystemIdentity, Role: RoleAdmin}
}
