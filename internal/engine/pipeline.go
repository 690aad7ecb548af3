package engine

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/metrics"
)

// reactEmojis is the pool auto-react draws from for group chatter.
var reactEmojis = []string{"👍", "😂", "🔥", "❤️", "😮", "👏", "🎉", "💯"}

// Pipeline is the engine's inbound entrypoint. It normalizes transport
// payloads, feeds the recall cache, routes commands, screens non-command
// group traffic, and handles deletion notices and calls. One Pipeline
// serves the whole process; events are delivered one at a time but handler
// I/O interleaves, so everything it touches is concurrency-safe.
type Pipeline struct {
	router   *Router
	screener *Screener
	recall   *RecallCache
	meta     *MetadataCache
	toggles  *Toggles
	access   *Access
	gw       Gateway
	log      zerolog.Logger
}

// NewPipeline wires the engine front door.
func NewPipeline(router *Router, screener *Screener, recall *RecallCache, meta *MetadataCache, toggles *Toggles, access *Access, gw Gateway, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		router:   router,
		screener: screener,
		recall:   recall,
		meta:     meta,
		toggles:  toggles,
		access:   access,
		gw:       gw,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// HandleRaw normalizes and processes one transport payload. Errors are
// resolved into chat replies or logs here; nothing propagates to the event
// loop, which must keep draining the stream no matter what.
func (p *Pipeline) HandleRaw(ctx context.Context, raw domain.RawEvent) {
	ev := domain.Normalize(raw)
	metrics.Events.WithLabelValues(ev.Kind.String()).Inc()

	switch ev.Kind {
	case domain.EventPlainText:
		p.handleText(ctx, ev)
	case domain.EventDeletionNotice:
		p.handleDeletion(ctx, ev)
	case domain.EventCall:
		p.handleCall(ctx, ev)
	case domain.EventStatusUpdate:
		// Status archiving happens in the transport layer; the engine only
		// counts these.
	default:
	}
}

// handleText remembers the message, screens it against the group's
// protection filters, then dispatches it as a command if it is one.
// Screening runs on every message, prefixed or not, so a "." in front of a
// link does not slip past antilink.
func (p *Pipeline) handleText(ctx context.Context, ev domain.Event) {
	p.recall.Remember(ev.ChatID, ev.ID, ev)

	var roster *domain.GroupMetadata
	if ev.IsGroup() {
		var err error
		roster, err = p.meta.Get(ctx, ev.ChatID)
		if err != nil {
			p.log.Error().Err(err).Str("chat_id", ev.ChatID).Msg("roster fetch failed")
			// Continue with a nil roster: the admin checks will deny, which
			// is the safe direction.
		}
	}

	removed, err := p.screener.Screen(ctx, ev, roster)
	if err != nil {
		p.log.Error().Err(err).Str("chat_id", ev.ChatID).Msg("protection screening failed")
	}
	if removed {
		return
	}

	command, _ := p.router.ParseCommand(ev.Text)
	if command == "" {
		if ev.IsGroup() && p.toggles.AutoReactGroup() {
			emoji := reactEmojis[rand.Intn(len(reactEmojis))]
			if err := p.gw.SendReaction(ctx, ev.ChatID, ev.ID, emoji); err != nil {
				p.log.Warn().Err(err).Str("chat_id", ev.ChatID).Msg("auto-react failed")
			}
		}
		return
	}

	handled, err := p.router.Dispatch(ctx, ev, roster)
	switch {
	case errors.Is(err, ErrPermissionDenied):
		// Private mode: say nothing, confirm nothing.
	case err != nil:
		if replyErr := p.gw.SendText(ctx, ev.ChatID, "Error: "+err.Error(), &ev); replyErr != nil {
			p.log.Error().Err(replyErr).Str("chat_id", ev.ChatID).Msg("error reply failed")
		}
	case !handled:
		if replyErr := p.gw.SendText(ctx, ev.ChatID, "Unknown command: "+p.router.Prefix()+command, &ev); replyErr != nil {
			p.log.Error().Err(replyErr).Str("chat_id", ev.ChatID).Msg("unknown-command reply failed")
		}
	}
}

// handleDeletion resurfaces revoked content when anti-delete is on. Status
// deletions are reported to the bot owner instead: status payloads are
// archived by the transport layer, so the notice does not depend on the
// recall cache.
func (p *Pipeline) handleDeletion(ctx context.Context, ev domain.Event) {
	if ev.ChatID == "status@broadcast" {
		if !p.toggles.AntiStatusDelete() {
			return
		}
		owners := p.access.Owners()
		if len(owners) == 0 {
			return
		}
		text := "Anti status delete: " + ev.SenderNumber() + " deleted a status update."
		if err := p.gw.SendText(ctx, domain.UserJID(owners[0]), text, nil); err != nil {
			p.log.Error().Err(err).Str("poster", ev.SenderNumber()).Msg("status-delete notice failed")
		}
		return
	}

	if !p.toggles.AntiDelete() {
		return
	}

	original, ok := p.recall.Recall(ev.ChatID, ev.TargetID)
	if !ok || strings.TrimSpace(original.Text) == "" {
		return
	}

	text := "Anti delete: @" + original.SenderNumber() + " removed this:\n" + original.Text
	if err := p.gw.SendMention(ctx, ev.ChatID, text, []string{original.SenderJID}, nil); err != nil {
		p.log.Error().Err(err).Str("chat_id", ev.ChatID).Msg("anti-delete resurface failed")
	}
}

// handleCall rejects (and optionally blocks) callers when anti-call is on.
func (p *Pipeline) handleCall(ctx context.Context, ev domain.Event) {
	if !p.toggles.AntiCall() {
		return
	}
	if err := p.gw.RejectCall(ctx, ev.ID, ev.SenderJID); err != nil {
		p.log.Error().Err(err).Str("caller", ev.SenderNumber()).Msg("call reject failed")
		return
	}
	if p.toggles.CallBlock() {
		if err := p.gw.SetBlocked(ctx, ev.SenderJID, true); err != nil {
			p.log.Error().Err(err).Str("caller", ev.SenderNumber()).Msg("caller block failed")
		}
	}
}
