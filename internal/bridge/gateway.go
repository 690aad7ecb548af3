package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/engine"
)

// quoteRef is the subset of an event the peer needs to quote a message.
type quoteRef struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	SenderJID string `json:"sender_jid"`
}

func quoteOf(ev *domain.Event) *quoteRef {
	if ev == nil {
		return nil
	}
	return &quoteRef{MessageID: ev.ID, ChatID: ev.ChatID, SenderJID: ev.SenderJID}
}

// Gateway implements engine.Gateway over a bridge Conn. Sends are
// fire-and-forget; queries round-trip through call.
type Gateway struct {
	conn *Conn
}

// NewGateway wraps a Conn.
func NewGateway(conn *Conn) *Gateway {
	return &Gateway{conn: conn}
}

var _ engine.Gateway = (*Gateway)(nil)

func (g *Gateway) SendText(_ context.Context, chatID, text string, quote *domain.Event) error {
	return g.conn.notify("send_text", map[string]any{
		"chat_id": chatID,
		"text":    text,
		"quote":   quoteOf(quote),
	})
}

func (g *Gateway) SendMention(_ context.Context, chatID, text string, mentions []string, quote *domain.Event) error {
	return g.conn.notify("send_mention", map[string]any{
		"chat_id":  chatID,
		"text":     text,
		"mentions": mentions,
		"quote":    quoteOf(quote),
	})
}

func (g *Gateway) SendImageURL(_ context.Context, chatID, url, caption string, quote *domain.Event) error {
	return g.conn.notify("send_image_url", map[string]any{
		"chat_id": chatID,
		"url":     url,
		"caption": caption,
		"quote":   quoteOf(quote),
	})
}

func (g *Gateway) SendContact(_ context.Context, chatID, displayName, number string, quote *domain.Event) error {
	return g.conn.notify("send_contact", map[string]any{
		"chat_id": chatID,
		"name":    displayName,
		"number":  number,
		"quote":   quoteOf(quote),
	})
}

func (g *Gateway) SendReaction(_ context.Context, chatID, messageID, emoji string) error {
	return g.conn.notify("send_reaction", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"emoji":      emoji,
	})
}

func (g *Gateway) RemoveParticipants(_ context.Context, chatID string, jids []string) error {
	return g.conn.notify("remove_participants", map[string]any{"chat_id": chatID, "jids": jids})
}

func (g *Gateway) AddParticipants(_ context.Context, chatID string, jids []string) error {
	return g.conn.notify("add_participants", map[string]any{"chat_id": chatID, "jids": jids})
}

func (g *Gateway) PromoteParticipants(_ context.Context, chatID string, jids []string) error {
	return g.conn.notify("promote_participants", map[string]any{"chat_id": chatID, "jids": jids})
}

func (g *Gateway) DemoteParticipants(_ context.Context, chatID string, jids []string) error {
	return g.conn.notify("demote_participants", map[string]any{"chat_id": chatID, "jids": jids})
}

func (g *Gateway) SetGroupAnnounce(_ context.Context, chatID string, announce bool) error {
	return g.conn.notify("set_group_announce", map[string]any{"chat_id": chatID, "announce": announce})
}

func (g *Gateway) SetGroupSubject(_ context.Context, chatID, subject string) error {
	return g.conn.notify("set_group_subject", map[string]any{"chat_id": chatID, "subject": subject})
}

func (g *Gateway) SetGroupDescription(_ context.Context, chatID, description string) error {
	return g.conn.notify("set_group_description", map[string]any{"chat_id": chatID, "description": description})
}

func (g *Gateway) SetBlocked(_ context.Context, jid string, blocked bool) error {
	return g.conn.notify("set_blocked", map[string]any{"jid": jid, "blocked": blocked})
}

func (g *Gateway) RejectCall(_ context.Context, callID, callerJID string) error {
	return g.conn.notify("reject_call", map[string]any{"call_id": callID, "caller_jid": callerJID})
}

func (g *Gateway) GroupInviteCode(ctx context.Context, chatID string) (string, error) {
	raw, err := g.conn.call(ctx, "group_invite_code", map[string]any{"chat_id": chatID})
	if err != nil {
		return "", err
	}
	return decodeString(raw, "code")
}

func (g *Gateway) RevokeGroupInvite(ctx context.Context, chatID string) (string, error) {
	raw, err := g.conn.call(ctx, "revoke_group_invite", map[string]any{"chat_id": chatID})
	if err != nil {
		return "", err
	}
	return decodeString(raw, "code")
}

func (g *Gateway) ProfilePictureURL(ctx context.Context, jid string) (string, error) {
	raw, err := g.conn.call(ctx, "profile_picture_url", map[string]any{"jid": jid})
	if err != nil {
		return "", err
	}
	return decodeString(raw, "url")
}

func (g *Gateway) IsRegistered(ctx context.Context, jid string) (bool, error) {
	raw, err := g.conn.call(ctx, "is_registered", map[string]any{"jid": jid})
	if err != nil {
		return false, err
	}
	var out struct {
		Registered bool `json:"registered"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("bridge: undecodable is_registered result: %w", err)
	}
	return out.Registered, nil
}

// FetchGroupMetadata is the engine.RosterFetcher backing the metadata cache.
func (g *Gateway) FetchGroupMetadata(ctx context.Context, chatID string) (*domain.GroupMetadata, error) {
	raw, err := g.conn.call(ctx, "group_metadata", map[string]any{"chat_id": chatID})
	if err != nil {
		return nil, err
	}
	var md domain.GroupMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("bridge: undecodable group metadata: %w", err)
	}
	if md.ChatID == "" {
		md.ChatID = chatID
	}
	return &md, nil
}

// decodeString pulls a single named string field out of a result payload.
func decodeString(raw json.RawMessage, field string) (string, error) {
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", fmt.Errorf("bridge: undecodable result: %w", err)
	}
	return m[field], nil
}
