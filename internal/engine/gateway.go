package engine

import (
	"context"

	"github.com/naufalh/wabot/internal/domain"
)

// Gateway is the engine's view of the chat transport collaborator. Handlers
// and the protection screener produce all their external effects through it;
// the session/encryption layer behind it is out of scope here.
//
// Every method takes a context because transport calls are network round
// trips. A nil quote means the outbound message does not reference an
// inbound one.
type Gateway interface {
	// SendText delivers a plain text reply, optionally quoting an event.
	SendText(ctx context.Context, chatID, text string, quote *domain.Event) error
	// SendMention delivers text that tags the given JIDs.
	SendMention(ctx context.Context, chatID, text string, mentions []string, quote *domain.Event) error
	// SendImageURL delivers an image fetched from a URL with a caption.
	SendImageURL(ctx context.Context, chatID, url, caption string, quote *domain.Event) error
	// SendContact delivers a contact card for a phone number.
	SendContact(ctx context.Context, chatID, displayName, number string, quote *domain.Event) error
	// SendReaction attaches an emoji reaction to a delivered message.
	SendReaction(ctx context.Context, chatID, messageID, emoji string) error

	// RemoveParticipants kicks members from a group. Privileged.
	RemoveParticipants(ctx context.Context, chatID string, jids []string) error
	// AddParticipants invites members into a group. Privileged.
	AddParticipants(ctx context.Context, chatID string, jids []string) error
	// PromoteParticipants grants group admin to members. Privileged.
	PromoteParticipants(ctx context.Context, chatID string, jids []string) error
	// DemoteParticipants revokes group admin from members. Privileged.
	DemoteParticipants(ctx context.Context, chatID string, jids []string) error

	// SetGroupAnnounce toggles announce-only (closed) mode for a group.
	SetGroupAnnounce(ctx context.Context, chatID string, announce bool) error
	// GroupInviteCode returns the current invite code for a group.
	GroupInviteCode(ctx context.Context, chatID string) (string, error)
	// RevokeGroupInvite rotates the invite code and returns the new one.
	RevokeGroupInvite(ctx context.Context, chatID string) (string, error)
	// SetGroupSubject renames a group.
	SetGroupSubject(ctx context.Context, chatID, subject string) error
	// SetGroupDescription updates a group's description.
	SetGroupDescription(ctx context.Context, chatID, description string) error

	// SetBlocked blocks or unblocks a direct-chat peer.
	SetBlocked(ctx context.Context, jid string, blocked bool) error
	// ProfilePictureURL resolves the avatar URL of a user.
	ProfilePictureURL(ctx context.Context, jid string) (string, error)
	// IsRegistered reports whether a number exists on the network.
	IsRegistered(ctx context.Context, jid string) (bool, error)
	// RejectCall declines an inbound call offer.
	RejectCall(ctx context.Context, callID, callerJID string) error
}

// RosterFetcher resolves the current roster of a group chat. It is the slow
// external lookup the MetadataCache fronts.
type RosterFetcher func(ctx context.Context, chatID string) (*domain.GroupMetadata, error)
