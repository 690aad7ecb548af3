package engine

import (
	"sort"

	"github.com/naufalh/wabot/internal/domain"
)

// DenyReason classifies why Decide rejected a sender.
type DenyReason int

const (
	// DenyNone means the request was allowed.
	DenyNone DenyReason = iota
	// DenyNotPublic means the bot is in private mode and the sender is not
	// an owner. Callers drop these silently.
	DenyNotPublic
	// DenyAdminOnly means the group restricts commands to admins and the
	// sender is neither owner nor roster admin. Surfaced to the chat.
	DenyAdminOnly
)

// String returns a stable label for logging and metrics.
func (r DenyReason) String() string {
	switch r {
	case DenyNotPublic:
		return "not_public"
	case DenyAdminOnly:
		return "admin_only"
	default:
		return "none"
	}
}

// Decision is the outcome of an access check.
type Decision struct {
	Allow  bool
	Reason DenyReason
}

// Access computes permission decisions for inbound commands. Owner identity
// is an exact match against the configured digits-only phone numbers, never
// a display name. The type is immutable after construction and all methods
// are pure, so it is safe to share freely.
type Access struct {
	owners map[string]struct{}
}

// NewAccess builds an Access from the configured owner numbers. Entries are
// normalized to digits-only form so both "+62 812…" and JIDs match.
func NewAccess(ownerNumbers []string) *Access {
	owners := make(map[string]struct{}, len(ownerNumbers))
	for _, n := range ownerNumbers {
		if d := domain.SenderNumber(n); d != "" {
			owners[d] = struct{}{}
		}
	}
	return &Access{owners: owners}
}

// IsOwner reports whether the JID belongs to a configured owner.
func (a *Access) IsOwner(jid string) bool {
	_, ok := a.owners[domain.SenderNumber(jid)]
	return ok
}

// Owners returns the configured owner numbers in stable order.
func (a *Access) Owners() []string {
	out := make([]string, 0, len(a.owners))
	for n := range a.owners {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Decide evaluates the layered gate for a command, in order:
//
//  1. private mode and sender is not owner       -> deny (not public)
//  2. group with onlyAdminCmd and sender is
//     neither owner nor roster admin             -> deny (admin only)
//  3. otherwise                                  -> allow
//
// The roster may be stale; freshness is the metadata cache's concern, not
// this component's. Decide never mutates anything.
func (a *Access) Decide(senderJID, chatID string, isGroup bool, roster *domain.GroupMetadata, public bool, setting domain.GroupSetting) Decision {
	owner := a.IsOwner(senderJID)

	if !public && !owner {
		return Decision{Reason: DenyNotPublic}
	}
	if isGroup && setting.OnlyAdminCmd && !owner && !roster.IsAdmin(senderJID) {
		return Decision{Reason: DenyAdminOnly}
	}
	return Decision{Allow: true}
}
