// Event normalization. The transport layer delivers loosely shaped payloads
// with deeply nested optional fields; Normalize flattens them into a tagged
// union so the engine only ever sees well-typed, already-validated events.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the normalized event union.
type EventKind int

const (
	// EventUnknown marks payloads the engine does not act on.
	EventUnknown EventKind = iota
	// EventPlainText is an ordinary text message (possibly a command).
	EventPlainText
	// EventDeletionNotice references a previously delivered message that the
	// sender has revoked.
	EventDeletionNotice
	// EventStatusUpdate is a broadcast/status post, never a command.
	EventStatusUpdate
	// EventCall is an inbound voice or video call offer.
	EventCall
)

// String returns a stable label for logging.
func (k EventKind) String() string {
	switch k {
	case EventPlainText:
		return "plain_text"
	case EventDeletionNotice:
		return "deletion_notice"
	case EventStatusUpdate:
		return "status_update"
	case EventCall:
		return "call"
	default:
		return "unknown"
	}
}

// statusBroadcastJID is the pseudo-chat WhatsApp uses for status posts.
const statusBroadcastJID = "status@broadcast"

// Event is a normalized inbound event. Exactly the fields implied by Kind
// are populated; the engine never reaches back into transport payloads.
type Event struct {
	Kind      EventKind
	ID        string // message id (synthesized when the transport omits it)
	ChatID    string // remote JID the event belongs to
	SenderJID string // full JID of the author
	Text      string // body for EventPlainText
	QuotedID  string // id of the quoted message, if any
	QuotedJID string // author of the quoted message, if any
	Mentioned []string
	TargetID  string // for EventDeletionNotice: the revoked message id
	Timestamp time.Time
}

// IsGroup reports whether the event happened in a group chat.
func (e *Event) IsGroup() bool { return IsGroupJID(e.ChatID) }

// SenderNumber returns the digits-only identity of the author.
func (e *Event) SenderNumber() string { return SenderNumber(e.SenderJID) }

// RawEvent is the loosely shaped payload handed over by the transport
// collaborator. Absent fields are zero values.
type RawEvent struct {
	ID             string    `json:"id,omitempty"`
	ChatID         string    `json:"chat_id"`
	ParticipantJID string    `json:"participant_jid,omitempty"` // set in group chats; empty in direct chats
	Text           string    `json:"text,omitempty"`
	QuotedID       string    `json:"quoted_id,omitempty"`
	QuotedJID      string    `json:"quoted_jid,omitempty"`
	Mentioned      []string  `json:"mentioned,omitempty"`
	RevokedID      string    `json:"revoked_id,omitempty"` // non-empty for deletion notices
	IsCall         bool      `json:"is_call,omitempty"`
	CallerJID      string    `json:"caller_jid,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Normalize converts a transport payload into the typed event union.
// It resolves the sender (participant in groups, chat peer otherwise),
// classifies the payload, and synthesizes a message id when missing so
// downstream caches always have a usable key.
func Normalize(raw RawEvent) Event {
	ev := Event{
		ID:        raw.ID,
		ChatID:    raw.ChatID,
		QuotedID:  raw.QuotedID,
		QuotedJID: raw.QuotedJID,
		Mentioned: raw.Mentioned,
		Timestamp: raw.Timestamp,
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	ev.SenderJID = raw.ParticipantJID
	if ev.SenderJID == "" {
		ev.SenderJID = raw.ChatID
	}

	switch {
	case raw.IsCall:
		ev.Kind = EventCall
		if raw.CallerJID != "" {
			ev.SenderJID = raw.CallerJID
		}
	case raw.RevokedID != "":
		ev.Kind = EventDeletionNotice
		ev.TargetID = raw.RevokedID
	case raw.ChatID == statusBroadcastJID:
		ev.Kind = EventStatusUpdate
		ev.Text = raw.Text
	case strings.TrimSpace(raw.Text) != "":
		ev.Kind = EventPlainText
		ev.Text = raw.Text
	default:
		ev.Kind = EventUnknown
	}
	return ev
}
