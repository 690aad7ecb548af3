package commands

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/config"
	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/engine"
	"github.com/naufalh/wabot/internal/funapi"
)

const (
	ownerJID  = "628000000001@s.whatsapp.net"
	adminJID  = "628000000002@s.whatsapp.net"
	memberJID = "628000000003@s.whatsapp.net"
	groupJID  = "1203630000@g.us"
)

// recorderGateway captures outbound effects for assertions.
type recorderGateway struct {
	mu sync.Mutex

	texts    []string
	mentions []string
	images   []string
	contacts []string
	removed  [][]string
	added    [][]string
	promoted [][]string
	demoted  [][]string
	announce map[string]bool
	subjects map[string]string
	descs    map[string]string
	blocked  map[string]bool

	registered map[string]bool
	avatarURL  string
}

func newRecorderGateway() *recorderGateway {
	return &recorderGateway{
		announce:   make(map[string]bool),
		subjects:   make(map[string]string),
		descs:      make(map[string]string),
		blocked:    make(map[string]bool),
		registered: make(map[string]bool),
		avatarURL:  "https://cdn.example/avatar.jpg",
	}
}

func (g *recorderGateway) SendText(_ context.Context, _, text string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
	return nil
}

func (g *recorderGateway) SendMention(_ context.Context, _, text string, _ []string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mentions = append(g.mentions, text)
	return nil
}

func (g *recorderGateway) SendImageURL(_ context.Context, _, url, _ string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.images = append(g.images, url)
	return nil
}

func (g *recorderGateway) SendContact(_ context.Context, _, _, number string, _ *domain.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contacts = append(g.contacts, number)
	return nil
}

func (g *recorderGateway) SendReaction(context.Context, string, string, string) error { return nil }

func (g *recorderGateway) RemoveParticipants(_ context.Context, _ string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removed = append(g.removed, jids)
	return nil
}

func (g *recorderGateway) AddParticipants(_ context.Context, _ string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.added = append(g.added, jids)
	return nil
}

func (g *recorderGateway) PromoteParticipants(_ context.Context, _ string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.promoted = append(g.promoted, jids)
	return nil
}

func (g *recorderGateway) DemoteParticipants(_ context.Context, _ string, jids []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.demoted = append(g.demoted, jids)
	return nil
}

func (g *recorderGateway) SetGroupAnnounce(_ context.Context, chatID string, announce bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.announce[chatID] = announce
	return nil
}

func (g *recorderGateway) GroupInviteCode(context.Context, string) (string, error) {
	return "INVITE", nil
}

func (g *recorderGateway) RevokeGroupInvite(context.Context, string) (string, error) {
	return "FRESH", nil
}

func (g *recorderGateway) SetGroupSubject(_ context.Context, chatID, subject string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subjects[chatID] = subject
	return nil
}

func (g *recorderGateway) SetGroupDescription(_ context.Context, chatID, description string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.descs[chatID] = description
	return nil
}

func (g *recorderGateway) SetBlocked(_ context.Context, jid string, blocked bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocked[jid] = blocked
	return nil
}

func (g *recorderGateway) ProfilePictureURL(context.Context, string) (string, error) {
	return g.avatarURL, nil
}

func (g *recorderGateway) IsRegistered(_ context.Context, jid string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.registered[jid], nil
}

func (g *recorderGateway) RejectCall(context.Context, string, string) error { return nil }

func (g *recorderGateway) lastText(t *testing.T) string {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		t.Fatalf("expected at least one reply")
	}
	return g.texts[len(g.texts)-1]
}

var _ engine.Gateway = (*recorderGateway)(nil)

// harness bundles a fully registered router for handler tests.
type harness struct {
	router *engine.Router
	gw     *recorderGateway
	deps   Deps
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gw := newRecorderGateway()
	log := zerolog.Nop()
	access := engine.NewAccess([]string{"628000000001"})
	mode := engine.NewMode(true)
	toggles := engine.NewToggles(engine.ToggleDefaults{})
	quota := engine.NewQuotaStore(nil, 25, log)
	protection := engine.NewProtectionStore(nil, log)
	meta := engine.NewMetadataCache(engine.DefaultMetadataTTL, func(ctx context.Context, chatID string) (*domain.GroupMetadata, error) {
		return roster(chatID), nil
	})
	d := Deps{
		Access:     access,
		Mode:       mode,
		Toggles:    toggles,
		Quota:      quota,
		Protection: protection,
		Meta:       meta,
		API:        funapi.New("", funapi.Options{}, log),
		Identity:   config.IdentityConfig{BotName: "testbot", OwnerName: "Tester"},
		Prefix:     ".",
		Log:        log,
	}
	r := engine.NewRouter(".", access, mode, protection, quota, gw, log)
	RegisterAll(r, d)
	return &harness{router: r, gw: gw, deps: d}
}

func roster(chatID string) *domain.GroupMetadata {
	return &domain.GroupMetadata{
		ChatID: chatID,
		Participants: []domain.Participant{
			{ID: ownerJID},
			{ID: adminJID, IsAdmin: true},
			{ID: memberJID},
		},
	}
}

// dispatch runs one command line as senderJID and returns the router result.
func (h *harness) dispatch(t *testing.T, chatID, senderJID, text string, mentioned ...string) (bool, error) {
	t.Helper()
	ev := domain.Normalize(domain.RawEvent{
		ID:             "msg-1",
		ChatID:         chatID,
		ParticipantJID: senderJID,
		Text:           text,
		Mentioned:      mentioned,
	})
	var ros *domain.GroupMetadata
	if ev.IsGroup() {
		ros = roster(chatID)
	}
	return h.router.Dispatch(context.Background(), ev, ros)
}
