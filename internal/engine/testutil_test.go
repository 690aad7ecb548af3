package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/repo"
)

// fakeGateway records every outbound effect so tests can assert on them.
type fakeGateway struct {
	mu sync.Mutex

	texts     []sentText
	mentions  []sentMention
	images    []sentImage
	contacts  []sentContact
	reactions []sentReaction
	removed   []rosterChange
	added     []rosterChange
	promoted  []rosterChange
	demoted   []rosterChange
	announce  map[string]bool
	subjects  map[string]string
	descs     map[string]string
	blocked   map[string]bool
	rejected  []string

	inviteCode string
	registered map[string]bool
	avatarURL  string
}

type sentText struct {
	chatID string
	text   string
	quoted bool
}

type sentMention struct {
	chatID   string
	text     string
	mentions []string
}

type sentImage struct {
	chatID  string
	url     string
	caption string
}

type sentContact struct {
	chatID string
	name   string
	number string
}

type sentReaction struct {
	chatID    string
	messageID string
	emoji     string
}

type rosterChange struct {
	chatID string
	jids   []string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		announce:   make(map[string]bool),
		subjects:   make(map[string]string),
		descs:      make(map[string]string),
		blocked:    make(map[string]bool),
		registered: make(map[string]bool),
		inviteCode: "INVITE",
		avatarURL:  "https://cdn.example/avatar.jpg",
	}
}

func (g *fakeGateway) SendText(_ context.Context, chatID, text string, quote *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, sentText{chatID: chatID, text: text, quoted: quote != nil})
	return nil
}

func (g *fakeGateway) SendMention(_ context.Context, chatID, text string, mentions []string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mentions = append(g.mentions, sentMention{chatID: chatID, text: text, mentions: mentions})
	return nil
}

func (g *fakeGateway) SendImageURL(_ context.Context, chatID, url, caption string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images = append(g.images, sentImage{chatID: chatID, url: url, caption: caption})
	return nil
}

func (g *fakeGateway) SendContact(_ context.Context, chatID, displayName, number string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contacts = append(g.contacts, sentContact{chatID: chatID, name: displayName, number: number})
	return nil
}

func (g *fakeGateway) SendReaction(_ context.Context, chatID, messageID, emoji string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reactions = append(g.reactions, sentReaction{chatID: chatID, messageID: messageID, emoji: emoji})
	return nil
}

func (g *fakeGateway) RemoveParticipants(_ context.Context, chatID string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removed = append(g.removed, rosterChange{chatID: chatID, jids: jids})
	return nil
}

func (g *fakeGateway) AddParticipants(_ context.Context, chatID string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.added = append(g.added, rosterChange{chatID: chatID, jids: jids})
	return nil
}

func (g *fakeGateway) PromoteParticipants(_ context.Context, chatID string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promoted = append(g.promoted, rosterChange{chatID: chatID, jids: jids})
	return nil
}

func (g *fakeGateway) DemoteParticipants(_ context.Context, chatID string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.demoted = append(g.demoted, rosterChange{chatID: chatID, jids: jids})
	return nil
}

func (g *fakeGateway) SetGroupAnnounce(_ context.Context, chatID string, announce bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.announce[chatID] = announce
	return nil
}

func (g *fakeGateway) GroupInviteCode(_ context.Context, _ string) (string, error) {
	return g.inviteCode, nil
}

func (g *fakeGateway) RevokeGroupInvite(_ context.Context, _ string) (string, error) {
	return "NEW" + g.inviteCode, nil
}

func (g *fakeGateway) SetGroupSubject(_ context.Context, chatID, subject string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subjects[chatID] = subject
	return nil
}

func (g *fakeGateway) SetGroupDescription(_ context.Context, chatID, description string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.descs[chatID] = description
	return nil
}

func (g *fakeGateway) SetBlocked(_ context.Context, jid string, blocked bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[jid] = blocked
	return nil
}

func (g *fakeGateway) ProfilePictureURL(_ context.Context, _ string) (string, error) {
	return g.avatarURL, nil
}

func (g *fakeGateway) IsRegistered(_ context.Context, jid string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registered[jid], nil
}

func (g *fakeGateway) RejectCall(_ context.Context, callID, _ string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejected = append(g.rejected, callID)
	return nil
}

func (g *fakeGateway) lastText(t *testing.T) sentText {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		t.Fatalf("expected at least one text reply")
	}
	return g.texts[len(g.texts)-1]
}

var _ Gateway = (*fakeGateway)(nil)

// testLogger returns a silenced logger for tests.
func testLogger() zerolog.Logger { return zerolog.Nop() }

// engineTestDB opens a throwaway SQLite database with the schema applied.
func engineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// groupRoster builds a roster with one admin and regular members.
func groupRoster(chatID, adminJID string, members ...string) *domain.GroupMetadata {
	md := &domain.GroupMetadata{ChatID: chatID}
	md.Participants = append(md.Participants, domain.Participant{ID: adminJID, IsAdmin: true})
	for _, m := range members {
		md.Participants = append(md.Participants, domain.Participant{ID: m})
	}
	return md
}

// textEvent builds a plain-text event for dispatch tests.
func textEvent(chatID, senderJID, text string) domain.Event {
	return domain.Normalize(domain.RawEvent{
		ID:             "msg-1",
		ChatID:         chatID,
		ParticipantJID: senderJID,
		Text:           text,
	})
}
