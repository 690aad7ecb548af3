package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/metrics"
)

// DefaultCommandPrefix marks command messages.
const DefaultCommandPrefix = "."

// quotaExempt lists the informational commands that never consume quota.
var quotaExempt = map[string]struct{}{
	"menu":     {},
	"help":     {},
	"ping":     {},
	"settings": {},
	"system":   {},
	"runtime":  {},
	"limit":    {},
	"creator":  {},
}

// Request is the immutable context a handler executes with. Handlers own
// all reply and side-effect production; the convenience reply helpers quote
// the triggering message the way users expect.
type Request struct {
	Event  domain.Event
	Sender string // full JID of the author
	ChatID string
	Args   []string
	Roster *domain.GroupMetadata // nil outside groups

	gw Gateway
}

// Gateway exposes the transport collaborator to the handler.
func (r *Request) Gateway() Gateway { return r.gw }

// Reply sends text to the originating chat, quoting the trigger message.
func (r *Request) Reply(ctx context.Context, text string) error {
	return r.gw.SendText(ctx, r.ChatID, text, &r.Event)
}

// ReplyMention sends text tagging the given JIDs, quoting the trigger.
func (r *Request) ReplyMention(ctx context.Context, text string, mentions []string) error {
	return r.gw.SendMention(ctx, r.ChatID, text, mentions, &r.Event)
}

// HandlerFunc is the uniform signature every command handler implements.
type HandlerFunc func(ctx context.Context, req *Request) error

// Router resolves command text to a handler and applies the access and
// quota gates before invoking it. Handlers register once at startup; the
// table is read-only afterwards, so Dispatch needs no locking of its own.
type Router struct {
	prefix     string
	access     *Access
	mode       *Mode
	protection *ProtectionStore
	quota      *QuotaStore
	gw         Gateway
	log        zerolog.Logger

	handlers map[string]HandlerFunc
}

// NewRouter builds a Router with an empty handler table.
func NewRouter(prefix string, access *Access, mode *Mode, protection *ProtectionStore, quota *QuotaStore, gw Gateway, log zerolog.Logger) *Router {
	if prefix == "" {
		prefix = DefaultCommandPrefix
	}
	return &Router{
		prefix:     prefix,
		access:     access,
		mode:       mode,
		protection: protection,
		quota:      quota,
		gw:         gw,
		log:        log.With().Str("component", "router").Logger(),
		handlers:   make(map[string]HandlerFunc),
	}
}

// Register binds a command word (case-folded) to a handler. Later
// registrations of the same word overwrite earlier ones.
func (r *Router) Register(name string, h HandlerFunc) {
	r.handlers[strings.ToLower(name)] = h
}

// Known reports whether a command word is registered.
func (r *Router) Known(name string) bool {
	_, ok := r.handlers[strings.ToLower(name)]
	return ok
}

// Prefix returns the configured command prefix.
func (r *Router) Prefix() string { return r.prefix }

// ParseCommand splits a message body into a case-folded command word and
// its whitespace-separated arguments. Bodies without the prefix yield an
// empty command.
func (r *Router) ParseCommand(body string) (string, []string) {
	body = strings.TrimSpace(body)
	if !strings.HasPrefix(body, r.prefix) {
		return "", nil
	}
	fields := strings.Fields(body[len(r.prefix):])
	if len(fields) == 0 {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}

// Dispatch routes one plain-text event. It reports whether a handler ran.
// A non-nil error is a user-visible failure the caller should reply with,
// except ErrPermissionDenied, which the private-mode gate produces and the
// caller must swallow so the bot's presence is never confirmed.
//
// Gate order:
//
//  1. not prefixed                      -> (false, nil), not a command
//  2. private mode, sender not owner    -> (false, ErrPermissionDenied)
//  3. group onlyAdminCmd, not owner or
//     roster admin                      -> (false, ErrAdminOnly), surfaced,
//     checked before the handler lookup
//  4. unknown command                   -> (false, nil), caller decides the
//     "unknown command" reply
//  5. quota (unless owner or exempt)    -> (false, *QuotaExhaustedError)
//  6. handler runs; its error is returned unmodified with handled=true
func (r *Router) Dispatch(ctx context.Context, ev domain.Event, roster *domain.GroupMetadata) (bool, error) {
	command, args := r.ParseCommand(ev.Text)
	if command == "" {
		return false, nil
	}

	isGroup := ev.IsGroup()
	setting := domain.DefaultGroupSetting(ev.ChatID)
	if isGroup {
		var err error
		setting, err = r.protection.Get(ctx, ev.ChatID)
		if err != nil {
			return false, err
		}
	}

	decision := r.access.Decide(ev.SenderJID, ev.ChatID, isGroup, roster, r.mode.Public(), setting)
	if !decision.Allow {
		metrics.Denials.WithLabelValues(decision.Reason.String()).Inc()
		switch decision.Reason {
		case DenyNotPublic:
			r.log.Debug().Str("sender", ev.SenderNumber()).Str("command", command).
				Msg("silently dropped in private mode")
			return false, ErrPermissionDenied
		case DenyAdminOnly:
			return false, ErrAdminOnly
		}
	}

	h, ok := r.handlers[command]
	if !ok {
		return false, nil
	}

	owner := r.access.IsOwner(ev.SenderJID)
	if _, exempt := quotaExempt[command]; !exempt && !owner {
		if _, err := r.quota.Charge(ctx, ev.SenderNumber()); err != nil {
			return false, err
		}
	}

	metrics.Dispatches.WithLabelValues(command).Inc()
	r.log.Info().
		Str("command", command).
		Str("chat_id", ev.ChatID).
		Str("sender", ev.SenderNumber()).
		Bool("group", isGroup).
		Msg("dispatching command")

	req := &Request{
		Event:  ev,
		Sender: ev.SenderJID,
		ChatID: ev.ChatID,
		Args:   args,
		Roster: roster,
		gw:     r.gw,
	}
	if err := h(ctx, req); err != nil {
		metrics.HandlerErrors.WithLabelValues(command).Inc()
		return true, err
	}
	return true, nil
}
