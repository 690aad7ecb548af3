package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/naufalh/wabot/internal/engine"
)

// protectedTarget reports whether OwnerProtect shields the target from a
// destructive roster action in this chat.
func protectedTarget(ctx context.Context, d Deps, req *engine.Request, jid string) (bool, error) {
	if !d.Access.IsOwner(jid) {
		return false, nil
	}
	s, err := d.Protection.Get(ctx, req.ChatID)
	if err != nil {
		return false, err
	}
	return s.OwnerProtect, nil
}

func registerGroup(r *engine.Router, d Deps) {
	r.Register("tagall", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		if req.Roster == nil {
			return engine.NewUsageError("group roster unavailable, try again")
		}
		var b strings.Builder
		if msg := strings.Join(req.Args, " "); msg != "" {
			b.WriteString(msg + "\n")
		}
		jids := make([]string, 0, len(req.Roster.Participants))
		for _, p := range req.Roster.Participants {
			jids = append(jids, p.ID)
			fmt.Fprintf(&b, "@%s\n", strings.SplitN(p.ID, "@", 2)[0])
		}
		return req.ReplyMention(ctx, strings.TrimRight(b.String(), "\n"), jids)
	})

	r.Register("hidetag", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		if req.Roster == nil {
			return engine.NewUsageError("group roster unavailable, try again")
		}
		msg := strings.Join(req.Args, " ")
		if msg == "" {
			msg = "."
		}
		jids := make([]string, 0, len(req.Roster.Participants))
		for _, p := range req.Roster.Participants {
			jids = append(jids, p.ID)
		}
		return req.ReplyMention(ctx, msg, jids)
	})

	r.Register("group", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		if len(req.Args) != 1 {
			return engine.NewUsageError("group open|close")
		}
		switch strings.ToLower(req.Args[0]) {
		case "open":
			if err := req.Gateway().SetGroupAnnounce(ctx, req.ChatID, false); err != nil {
				return err
			}
			return req.Reply(ctx, "group opened, everyone can send messages")
		case "close":
			if err := req.Gateway().SetGroupAnnounce(ctx, req.ChatID, true); err != nil {
				return err
			}
			return req.Reply(ctx, "group closed, only admins can send messages")
		default:
			return engine.NewUsageError("group open|close")
		}
	})

	r.Register("kick", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("kick <number> or mention someone")
		}
		shielded, err := protectedTarget(ctx, d, req, jid)
		if err != nil {
			return err
		}
		if shielded {
			return req.Reply(ctx, "that user is protected")
		}
		if err := req.Gateway().RemoveParticipants(ctx, req.ChatID, []string{jid}); err != nil {
			return err
		}
		return req.Reply(ctx, "done")
	})

	r.Register("add", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("add <number>")
		}
		if err := req.Gateway().AddParticipants(ctx, req.ChatID, []string{jid}); err != nil {
			return err
		}
		return req.Reply(ctx, "done")
	})

	r.Register("promote", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("promote <number> or mention someone")
		}
		if err := req.Gateway().PromoteParticipants(ctx, req.ChatID, []string{jid}); err != nil {
			return err
		}
		return req.Reply(ctx, "promoted")
	})

	r.Register("demote", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("demote <number> or mention someone")
		}
		shielded, err := protectedTarget(ctx, d, req, jid)
		if err != nil {
			return err
		}
		if shielded {
			return req.Reply(ctx, "that user is protected")
		}
		if err := req.Gateway().DemoteParticipants(ctx, req.ChatID, []string{jid}); err != nil {
			return err
		}
		return req.Reply(ctx, "demoted")
	})

	r.Register("linkgroup", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		code, err := req.Gateway().GroupInviteCode(ctx, req.ChatID)
		if err != nil {
			return err
		}
		return req.Reply(ctx, "https://chat.whatsapp.com/"+code)
	})

	r.Register("revoke", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		code, err := req.Gateway().RevokeGroupInvite(ctx, req.ChatID)
		if err != nil {
			return err
		}
		return req.Reply(ctx, "invite revoked, new link: https://chat.whatsapp.com/"+code)
	})

	r.Register("setsubject", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		subject := strings.Join(req.Args, " ")
		if subject == "" {
			return engine.NewUsageError("setsubject <new group name>")
		}
		if err := req.Gateway().SetGroupSubject(ctx, req.ChatID, subject); err != nil {
			return err
		}
		d.Meta.Invalidate(req.ChatID)
		return req.Reply(ctx, "group name updated")
	})

	r.Register("setdesc", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroupAdmin(d, req); err != nil {
			return err
		}
		desc := strings.Join(req.Args, " ")
		if desc == "" {
			return engine.NewUsageError("setdesc <new description>")
		}
		if err := req.Gateway().SetGroupDescription(ctx, req.ChatID, desc); err != nil {
			return err
		}
		return req.Reply(ctx, "group description updated")
	})
}
