package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/engine"
)

// quotaTarget resolves the user a quota admin command operates on: mention
// first, then a phone number argument. The remaining args follow the target.
func quotaTarget(req *engine.Request) (userID string, rest []string, ok bool) {
	if len(req.Event.Mentioned) > 0 {
		// The mention text also shows up as an argument; drop it.
		rest = make([]string, 0, len(req.Args))
		for _, a := range req.Args {
			if !strings.HasPrefix(a, "@") {
				rest = append(rest, a)
			}
		}
		return domain.SenderNumber(req.Event.Mentioned[0]), rest, true
	}
	if len(req.Args) > 0 {
		if n := domain.SenderNumber(req.Args[0]); n != "" {
			return n, req.Args[1:], true
		}
	}
	return "", nil, false
}

func registerQuotaAdmin(r *engine.Router, d Deps) {
	r.Register("addlimit", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, rest, ok := quotaTarget(req)
		if !ok || len(rest) != 1 {
			return engine.NewUsageError("addlimit <number> <amount>")
		}
		delta, err := strconv.Atoi(rest[0])
		if err != nil {
			return engine.NewUsageError("addlimit <number> <amount>")
		}
		st, err := d.Quota.Grant(ctx, user, delta)
		if err != nil {
			return err
		}
		return req.Reply(ctx, fmt.Sprintf("%s now has %d uses", user, st.Remaining))
	})

	r.Register("setlimit", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, rest, ok := quotaTarget(req)
		if !ok || len(rest) != 1 {
			return engine.NewUsageError("setlimit <number> <amount>")
		}
		value, err := strconv.Atoi(rest[0])
		if err != nil {
			return engine.NewUsageError("setlimit <number> <amount>")
		}
		st, err := d.Quota.SetLimit(ctx, user, value)
		if err != nil {
			return err
		}
		return req.Reply(ctx, fmt.Sprintf("%s now has %d uses", user, st.Remaining))
	})

	r.Register("resetlimit", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, _, ok := quotaTarget(req)
		if !ok {
			return engine.NewUsageError("resetlimit <number>")
		}
		st, err := d.Quota.Reset(ctx, user)
		if err != nil {
			return err
		}
		return req.Reply(ctx, fmt.Sprintf("%s reset to %d uses", user, st.Remaining))
	})

	r.Register("addprem", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, rest, ok := quotaTarget(req)
		if !ok || len(rest) != 1 {
			return engine.NewUsageError("addprem <number> <days>")
		}
		days, err := strconv.Atoi(rest[0])
		if err != nil || days < 1 {
			return engine.NewUsageError("addprem <number> <days>")
		}
		expires := time.Now().AddDate(0, 0, days)
		if _, err := d.Quota.SetPremium(ctx, user, true, &expires); err != nil {
			return err
		}
		return req.Reply(ctx, fmt.Sprintf("%s is premium until %s", user, expires.Format("2006-01-02")))
	})

	r.Register("premset", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, _, ok := quotaTarget(req)
		if !ok {
			return engine.NewUsageError("premset <number>")
		}
		if _, err := d.Quota.SetPremium(ctx, user, true, nil); err != nil {
			return err
		}
		return req.Reply(ctx, user+" is premium with no expiry")
	})

	r.Register("delprem", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		user, _, ok := quotaTarget(req)
		if !ok {
			return engine.NewUsageError("delprem <number>")
		}
		if _, err := d.Quota.SetPremium(ctx, user, false, nil); err != nil {
			return err
		}
		return req.Reply(ctx, user+" is no longer premium")
	})

	r.Register("listprem", func(ctx context.Context, req *engine.Request) error {
		if err := requireOwner(d, req); err != nil {
			return err
		}
		users := d.Quota.PremiumUsers()
		if len(users) == 0 {
			return req.Reply(ctx, "no premium users")
		}
		var b strings.Builder
		b.WriteString("premium users:\n")
		for _, u := range users {
			if u.PremiumExpireAt != nil {
				fmt.Fprintf(&b, "  %s (until %s)\n", u.UserID, u.PremiumExpireAt.Format("2006-01-02"))
			} else {
				fmt.Fprintf(&b, "  %s\n", u.UserID)
			}
		}
		return req.Reply(ctx, strings.TrimRight(b.String(), "\n"))
	})
}
