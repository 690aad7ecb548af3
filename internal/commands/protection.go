package commands

import (
	"context"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/engine"
)

func registerProtection(r *engine.Router, d Deps) {
	// Filter toggles a roster admin may flip for their own group.
	adminToggle := func(name string, set func(*domain.GroupSetting, bool)) {
		r.Register(name, func(ctx context.Context, req *engine.Request) error {
			if err := requireGroupAdmin(d, req); err != nil {
				return err
			}
			v, err := parseOnOff(req.Args, name+" on|off")
			if err != nil {
				return err
			}
			if _, err := d.Protection.Update(ctx, req.ChatID, func(s *domain.GroupSetting) { set(s, v) }); err != nil {
				return err
			}
			return req.Reply(ctx, name+" is now "+onOff(v))
		})
	}
	adminToggle("antilink", func(s *domain.GroupSetting, v bool) { s.Antilink = v })
	adminToggle("antibadword", func(s *domain.GroupSetting, v bool) { s.Antibadword = v })
	adminToggle("antispam", func(s *domain.GroupSetting, v bool) { s.Antispam = v })

	// Governance toggles stay with the owner.
	ownerToggle := func(name string, set func(*domain.GroupSetting, bool)) {
		r.Register(name, func(ctx context.Context, req *engine.Request) error {
			if err := requireGroup(req); err != nil {
				return err
			}
			if err := requireOwner(d, req); err != nil {
				return err
			}
			v, err := parseOnOff(req.Args, name+" on|off")
			if err != nil {
				return err
			}
			if _, err := d.Protection.Update(ctx, req.ChatID, func(s *domain.GroupSetting) { set(s, v) }); err != nil {
				return err
			}
			return req.Reply(ctx, name+" is now "+onOff(v))
		})
	}
	ownerToggle("ownerprotect", func(s *domain.GroupSetting, v bool) { s.OwnerProtect = v })
	ownerToggle("onlyadmincmd", func(s *domain.GroupSetting, v bool) { s.OnlyAdminCmd = v })

	r.Register("groupprotect", func(ctx context.Context, req *engine.Request) error {
		if err := requireGroup(req); err != nil {
			return err
		}
		if err := requireOwner(d, req); err != nil {
			return err
		}
		v, err := parseOnOff(req.Args, "groupprotect on|off")
		if err != nil {
			return err
		}
		if _, err := d.Protection.SetAll(ctx, req.ChatID, v); err != nil {
			return err
		}
		return req.Reply(ctx, "all protection toggles are now "+onOff(v))
	})
}
