package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/naufalh/wabot/internal/engine"
	"github.com/naufalh/wabot/internal/funapi"
)

func registerFun(r *engine.Router, d Deps) {
	textCmd := func(name string, fetch func(context.Context) (string, error)) {
		r.Register(name, func(ctx context.Context, req *engine.Request) error {
			line, err := fetch(ctx)
			if err != nil {
				return err
			}
			return req.Reply(ctx, line)
		})
	}
	textCmd("joke", d.API.Joke)
	textCmd("quote", d.API.Quote)
	textCmd("fact", d.API.Fact)
	textCmd("truth", d.API.Truth)
	textCmd("dare", d.API.Dare)

	r.Register("meme", func(ctx context.Context, req *engine.Request) error {
		url, err := d.API.Meme(ctx)
		if err != nil {
			return err
		}
		return req.Gateway().SendImageURL(ctx, req.ChatID, url, "", &req.Event)
	})

	stalkCmd := func(name, usage string, fetch func(context.Context, string) (*funapi.StalkResult, error)) {
		r.Register(name, func(ctx context.Context, req *engine.Request) error {
			if len(req.Args) != 1 {
				return engine.NewUsageError("%s", usage)
			}
			res, err := fetch(ctx, req.Args[0])
			if err != nil {
				return err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "username: %s\n", res.Username)
			if res.FullName != "" {
				fmt.Fprintf(&b, "name: %s\n", res.FullName)
			}
			if res.Bio != "" {
				fmt.Fprintf(&b, "bio: %s\n", res.Bio)
			}
			fmt.Fprintf(&b, "posts: %d\nfollowers: %d", res.Posts, res.Follower)
			if res.Avatar != "" {
				return req.Gateway().SendImageURL(ctx, req.ChatID, res.Avatar, b.String(), &req.Event)
			}
			return req.Reply(ctx, b.String())
		})
	}
	stalkCmd("igstalk", "igstalk <username>", d.API.StalkInstagram)
	stalkCmd("ttstalk", "ttstalk <username>", d.API.StalkTikTok)
	stalkCmd("ghstalk", "ghstalk <username>", d.API.StalkGitHub)

	r.Register("npmstalk", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 1 {
			return engine.NewUsageError("npmstalk <package>")
		}
		pkg, err := d.API.StalkNPM(ctx, req.Args[0])
		if err != nil {
			return err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "package: %s\nversion: %s", pkg.Name, pkg.Version)
		if pkg.Description != "" {
			fmt.Fprintf(&b, "\n%s", pkg.Description)
		}
		if pkg.Homepage != "" {
			fmt.Fprintf(&b, "\n%s", pkg.Homepage)
		}
		return req.Reply(ctx, b.String())
	})

	r.Register("mlstalk", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 2 {
			return engine.NewUsageError("mlstalk <id> <zone>")
		}
		nick, err := d.API.GameNickname(ctx, "ml", req.Args[0], req.Args[1])
		if err != nil {
			return err
		}
		return req.Reply(ctx, "nickname: "+nick)
	})

	r.Register("ffstalk", func(ctx context.Context, req *engine.Request) error {
		if len(req.Args) != 1 {
			return engine.NewUsageError("ffstalk <id>")
		}
		nick, err := d.API.GameNickname(ctx, "ff", req.Args[0], "")
		if err != nil {
			return err
		}
		return req.Reply(ctx, "nickname: "+nick)
	})

	r.Register("wastalk", func(ctx context.Context, req *engine.Request) error {
		jid, ok := targetJID(req)
		if !ok {
			return engine.NewUsageError("wastalk <number>")
		}
		registered, err := req.Gateway().IsRegistered(ctx, jid)
		if err != nil {
			return err
		}
		if !registered {
			return req.Reply(ctx, "that number is not on WhatsApp")
		}
		url, err := req.Gateway().ProfilePictureURL(ctx, jid)
		if err != nil || url == "" {
			return req.Reply(ctx, "registered, profile picture unavailable")
		}
		return req.Gateway().SendImageURL(ctx, req.ChatID, url, "registered", &req.Event)
	})
}
