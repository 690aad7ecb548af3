package commands

import (
	"context"

	"github.com/naufalh/wabot/internal/engine"
)

func registerOwner(r *engine.Router, d Deps) {
	r.Register("public", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		d.Mode.SetPublic(true)
		return req.Reply(ctx, "bot is now public")
	})

	r.Register("self", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		d.Mode.SetPublic(false)
		return req.Reply(ctx, "bot is now owner-only")
	})

	toggle := func(name, usage string, set func(bool), get func() bool) {
		r.Register(name, func(ctx context.Context, req *engine.Request) error {
			if err := requireOwner(d, req); err != nil {
				return err
			}
			v, err := parseOnOff(req.Args, usage)
			if err != nil {
				return err
			}
			set(v)
			return req.Reply(ctx, name+" is now "+onOff(get()))
		})
	}
	toggle("anticall", "anticall on|off", d.Toggles.SetAntiCall, d.Toggles.AntiCall)
	toggle("callblock", "callblock on|off", d.Toggles.SetCallBlock, d.Toggles.CallBlock)
	toggle("autoreact", "autoreact on|off", d.Toggles.SetAutoReactGroup, d.Toggles.AutoReactGroup)
	toggle("savestatus", "savestatus on|off", d.Toggles.SetSaveStatus, d.Toggles.SaveStatus)
	toggle("antidelete", "antidelete on|off", d.Toggles.SetAntiDelete, d.Toggles.AntiDelete)
	toggle("antistatusdel", "antistatusdel on|off", d.Toggles.SetAntiStatusDelete, d.Toggles.AntiStatusDelete)

	r.Register("block", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("block <number> or mention someone")
		}
		if err := req.Gateway().SetBlocked(ctx, jid, true); err != nil {
			return err
		}
		return req.Reply(ctx, "blocked")
	})

	r.Register("unblock", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("unblock <number> or mention someone")
		}
		if err := req.Gateway().SetBlocked(ctx, jid, false); err != nil {
			return err
		}
		return req.Reply(ctx, "unblocked")
	})

	r.Register("getpp", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("getpp <number> or mention someone")
		}
		url, err := req.Gateway().ProfilePictureURL(ctx, jid)
		if err != nil {
			return err
		}
		if url == "" {
			return req.Reply(ctx, "no profile picture or it is private")
		}
		return req.Gateway().SendImageURL(ctx, req.ChatID, url, "", &req.Event)
	})
}
