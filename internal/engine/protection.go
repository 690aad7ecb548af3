package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/metrics"
	"github.com/naufalh/wabot/internal/repo"
)

// ProtectionStore owns the per-group moderation settings: an authoritative
// in-memory map populated lazily on first access per chat, written through
// to the durable store on every mutation. With a nil DB handle it degrades
// to memory-only operation. Safe for concurrent use.
type ProtectionStore struct {
	db  *gorm.DB
	log zerolog.Logger

	mu    sync.Mutex
	cache map[string]domain.GroupSetting
}

// NewProtectionStore builds a store over db (nil for memory-only).
func NewProtectionStore(db *gorm.DB, log zerolog.Logger) *ProtectionStore {
	return &ProtectionStore{
		db:    db,
		log:   log.With().Str("component", "protection").Logger(),
		cache: make(map[string]domain.GroupSetting),
	}
}

// Get returns the setting for chatID, falling back to the durable store and
// finally to defaults. The result is cached for subsequent reads.
func (p *ProtectionStore) Get(ctx context.Context, chatID string) (domain.GroupSetting, error) {
	p.mu.Lock()
	if s, ok := p.cache[chatID]; ok {
		p.mu.Unlock()
		return s, nil
	}
	p.mu.Unlock()

	s := domain.DefaultGroupSetting(chatID)
	if p.db != nil {
		stored, err := repo.FindGroupSetting(ctx, p.db, chatID)
		switch {
		case err == nil:
			s = *stored
		case errors.Is(err, repo.ErrNotFound):
			// defaults apply
		default:
			return domain.GroupSetting{}, fmt.Errorf("load group setting: %w", err)
		}
	}

	p.mu.Lock()
	// Another loader may have raced us; keep whichever landed first so
	// callers converge on one view.
	if cached, ok := p.cache[chatID]; ok {
		s = cached
	} else {
		p.cache[chatID] = s
	}
	p.mu.Unlock()
	return s, nil
}

// Update applies a pure mutation to the current setting, persists the result
// as one record, and returns the new value. The cache is only updated after
// the durable write succeeds, so a failed write leaves prior state intact.
func (p *ProtectionStore) Update(ctx context.Context, chatID string, mutate func(*domain.GroupSetting)) (domain.GroupSetting, error) {
	s, err := p.Get(ctx, chatID)
	if err != nil {
		return domain.GroupSetting{}, err
	}
	mutate(&s)
	s.ChatID = chatID

	if p.db != nil {
		if err := repo.UpsertGroupSetting(ctx, p.db, s); err != nil {
			return domain.GroupSetting{}, fmt.Errorf("persist group setting: %w", err)
		}
	}

	p.mu.Lock()
	p.cache[chatID] = s
	p.mu.Unlock()

	p.log.Debug().Str("chat_id", chatID).
		Bool("antilink", s.Antilink).Bool("antibadword", s.Antibadword).
		Bool("antispam", s.Antispam).Bool("owner_protect", s.OwnerProtect).
		Bool("only_admin_cmd", s.OnlyAdminCmd).
		Msg("group setting updated")
	return s, nil
}

// SetAll enables or disables every protection toggle in one persisted write.
func (p *ProtectionStore) SetAll(ctx context.Context, chatID string, on bool) (domain.GroupSetting, error) {
	return p.Update(ctx, chatID, func(s *domain.GroupSetting) {
		s.Antilink = on
		s.Antibadword = on
		s.Antispam = on
		s.OwnerProtect = on
		s.OnlyAdminCmd = on
	})
}

// Len reports the number of cached settings. Used by the status endpoint.
func (p *ProtectionStore) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// linkRE matches HTTP(S) URLs and group invite links.
var linkRE = regexp.MustCompile(`(?i)(https?://|chat\.whatsapp\.com)`)

// defaultBadWords is the fixed denylist used when none is configured.
var defaultBadWords = []string{"anjing", "babi", "kontol", "tolol", "fuck"}

// Screener applies the group protection filters to inbound messages and
// performs the enforcement side effects (warn-and-mention, then removal)
// through the Gateway. Filters run in priority order and short-circuit on
// the first match: links, bad words, spam bursts.
type Screener struct {
	access *Access
	store  *ProtectionStore
	abuse  *AbuseDetector
	gw     Gateway
	log    zerolog.Logger

	badWords []string
}

// NewScreener wires a Screener. An empty badWords slice falls back to the
// built-in denylist.
func NewScreener(access *Access, store *ProtectionStore, abuse *AbuseDetector, gw Gateway, badWords []string, log zerolog.Logger) *Screener {
	if len(badWords) == 0 {
		badWords = defaultBadWords
	}
	folder := cases.Fold()
	folded := make([]string, len(badWords))
	for i, w := range badWords {
		folded[i] = folder.String(w)
	}
	return &Screener{
		access:   access,
		store:    store,
		abuse:    abuse,
		gw:       gw,
		log:      log.With().Str("component", "screener").Logger(),
		badWords: folded,
	}
}

// Screen checks one group message against the chat's protection setting and
// reports whether a filter fired. It is a no-op for direct chats, empty
// bodies, and privileged senders (owner or roster admin). Removal is
// privileged and may fail if the bot lacks group admin; the error is
// returned for logging but the detector state is left to decay on its own.
func (s *Screener) Screen(ctx context.Context, ev domain.Event, roster *domain.GroupMetadata) (bool, error) {
	if !ev.IsGroup() || ev.Text == "" {
		return false, nil
	}
	if s.access.IsOwner(ev.SenderJID) || roster.IsAdmin(ev.SenderJID) {
		return false, nil
	}

	setting, err := s.store.Get(ctx, ev.ChatID)
	if err != nil {
		return false, err
	}

	if setting.Antilink && linkRE.MatchString(ev.Text) {
		return true, s.enforce(ctx, ev, "link", "link is not allowed.")
	}

	if setting.Antibadword {
		// A Caser is stateful; make a fresh one per call.
		folded := cases.Fold().String(ev.Text)
		for _, w := range s.badWords {
			if w != "" && strings.Contains(folded, w) {
				return true, s.enforce(ctx, ev, "badword", "bad word detected.")
			}
		}
	}

	if setting.Antispam {
		if s.abuse.Record(ev.ChatID, ev.SenderJID) {
			metrics.AbuseTriggers.Inc()
			return true, s.enforce(ctx, ev, "spam", "spam detected.")
		}
	}
	return false, nil
}

// enforce warns the offender with a mention, then removes them.
func (s *Screener) enforce(ctx context.Context, ev domain.Event, filter, reason string) error {
	s.log.Info().
		Str("chat_id", ev.ChatID).
		Str("sender", ev.SenderNumber()).
		Str("filter", filter).
		Msg("protection filter fired")

	text := "@" + ev.SenderNumber() + " " + reason
	if err := s.gw.SendMention(ctx, ev.ChatID, text, []string{ev.SenderJID}, &ev); err != nil {
		return fmt.Errorf("warn %s: %w", filter, err)
	}
	if err := s.gw.RemoveParticipants(ctx, ev.ChatID, []string{ev.SenderJID}); err != nil {
		return fmt.Errorf("remove %s: %w", filter, err)
	}
	metrics.Removals.WithLabelValues(filter).Inc()
	return nil
}

