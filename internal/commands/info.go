package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/naufalh/wabot/internal/engine"
	"github.com/naufalh/wabot/internal/sysutil"
)

// menuSections drives the menu text. Kept static; a test cross-checks it
// against the registered handler table so the two cannot drift apart.
var menuSections = []struct {
	title    string
	commands []string
}{
	{"Info", []string{"menu", "help", "ping", "settings", "system", "runtime", "limit", "premium", "protect", "creator"}},
	{"Fun", []string{"joke", "meme", "truth", "dare", "rate", "coinflip", "slot", "emoji", "emojimix", "math", "guess", "quiz", "answer"}},
	{"Lookup", []string{"igstalk", "ttstalk", "ghstalk", "npmstalk", "mlstalk", "ffstalk", "wastalk", "getpp"}},
	{"Group", []string{"tagall", "hidetag", "group", "kick", "add", "promote", "demote", "linkgroup", "revoke", "setsubject", "setdesc"}},
	{"Protection", []string{"antilink", "antibadword", "antispam", "ownerprotect", "onlyadmincmd", "groupprotect"}},
	{"Owner", []string{"public", "self", "anticall", "callblock", "autoreact", "savestatus", "antidelete", "antistatusdel", "block", "unblock", "addlimit", "setlimit", "resetlimit", "addprem", "premset", "delprem", "listprem"}},
}

func registerInfo(r *engine.Router, d Deps) {
	menu := func(ctx context.Context, req *engine.Request) error {
		var b strings.Builder
		fmt.Fprintf(&b, "%s command list\n", d.Identity.BotName)
		for _, sec := range menuSections {
			fmt.Fprintf(&b, "\n%s:\n", sec.title)
			for _, c := range sec.commands {
				fmt.Fprintf(&b, "  %s%s\n", d.Prefix, c)
			}
		}
		return req.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	}
	r.Register("menu", menu)
	r.Register("help", menu)

	r.Register("ping", func(ctx context.Context, req *engine.Request) error {
		elapsed := time.Since(req.Event.Timestamp).Truncate(time.Millisecond)
		if elapsed < 0 {
			elapsed = 0
		}
		return req.Reply(ctx, fmt.Sprintf("pong! %s", elapsed))
	})

	r.Register("creator", func(ctx context.Context, req *engine.Request) error {
		owners := d.Access.Owners()
		if len(owners) == 0 {
			return req.Reply(ctx, "no owner configured")
		}
		name := d.Identity.OwnerName
		if name == "" {
			name = "Owner"
		}
		return req.Gateway().SendContact(ctx, req.ChatID, name, owners[0], &req.Event)
	})

	r.Register("limit", func(ctx context.Context, req *engine.Request) error {
		st, err := d.Quota.State(ctx, req.Event.SenderNumber())
		if err != nil {
			return err
		}
		if st.Premium {
			if st.PremiumExpireAt != nil {
				return req.Reply(ctx, "premium user, no limit (expires "+st.PremiumExpireAt.Format("2006-01-02")+")")
			}
			return req.Reply(ctx, "premium user, no limit")
		}
		return req.Reply(ctx, fmt.Sprintf("remaining uses: %d (resets on %s)", st.Remaining, st.ResetAt.Format("2006-01-02")))
	})

	r.Register("premium", func(ctx context.Context, req *engine.Request) error {
		st, err := d.Quota.State(ctx, req.Event.SenderNumber())
		if err != nil {
			return err
		}
		if !st.Premium {
			return req.Reply(ctx, "you are not a premium user")
		}
		if st.PremiumExpireAt != nil {
			return req.Reply(ctx, "premium until "+st.PremiumExpireAt.Format("2006-01-02"))
		}
		return req.Reply(ctx, "premium, no expiry")
	})

	r.Register("settings", func(ctx context.Context, req *engine.Request) error {
		var b strings.Builder
		fmt.Fprintf(&b, "mode: ")
		if d.Mode.Public() {
			b.WriteString("public\n")
		} else {
			b.WriteString("self\n")
		}
		t := d.Toggles.Snapshot()
		fmt.Fprintf(&b, "anticall: %s\n", onOff(t.AntiCall))
		fmt.Fprintf(&b, "callblock: %s\n", onOff(t.CallBlock))
		fmt.Fprintf(&b, "autoreact: %s\n", onOff(t.AutoReactGroup))
		fmt.Fprintf(&b, "savestatus: %s\n", onOff(t.SaveStatus))
		fmt.Fprintf(&b, "antidelete: %s\n", onOff(t.AntiDelete))
		fmt.Fprintf(&b, "antistatusdel: %s", onOff(t.AntiStatusDelete))
		return req.Reply(ctx, b.String())
	})

	r.Register("protect", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroup(req); err != nil {
			return err
		}
		s, err := d.Protection.Get(ctx, req.ChatID)
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "protection for this group\n")
		fmt.Fprintf(&b, "antilink: %s\n", onOff(s.Antilink))
		fmt.Fprintf(&b, "antibadword: %s\n", onOff(s.Antibadword))
		fmt.Fprintf(&b, "antispam: %s\n", onOff(s.Antispam))
		fmt.Fprintf(&b, "ownerprotect: %s\n", onOff(s.OwnerProtect))
		fmt.Fprintf(&b, "onlyadmincmd: %s", onOff(s.OnlyAdminCmd))
		return req.Reply(ctx, b.String())
	})

	r.Register("system", func(ctx context.Context, req *engine.Request) error {
		stats := sysutil.CollectRuntimeStats()
		return req.Reply(ctx, d.Identity.BotName+" system\n"+stats.String())
	})

	r.Register("runtime", func(ctx context.Context, req *engine.Request) error {
		return req.Reply(ctx, "uptime: "+sysutil.FormatUptime(sysutil.Uptime()))
	})
}
