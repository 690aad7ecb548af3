// Package commands contains the chat command handlers. Each handler is thin
// glue over the engine stores and the Gateway: argument parsing, a
// permission check where the command is privileged, one or two engine calls,
// and a reply. Registration happens once at startup via RegisterAll.
package commands

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/naufalh/wabot/internal/config"
	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/engine"
	"github.com/naufalh/wabot/internal/funapi"
)

// Deps carries everything the handlers need. All fields must be non-nil
// except API, which may be an unconfigured client.
type Deps struct {
	Access     *engine.Access
	Mode       *engine.Mode
	Toggles    *engine.Toggles
	Quota      *engine.QuotaStore
	Protection *engine.ProtectionStore
	Meta       *engine.MetadataCache
	API        *funapi.Client
	Identity   config.IdentityConfig
	Prefix     string
	Log        zerolog.Logger
}

// RegisterAll binds every command to the router table.
func RegisterAll(r *engine.Router, d Deps) {
	registerInfo(r, d)
	registerOwner(r, d)
	registerQuotaAdmin(r, d)
	registerGroup(r, d)
	registerProtection(r, d)
	registerFun(r, d)
	registerToys(r, d)
}

// requireOwner gates a handler on the configured owner list.
func requireOwner(d Deps, req *engine.Request) error {
	if !d.Access.IsOwner(req.Sender) {
		return engine.ErrOwnerOnly
	}
	return nil
}

// requireGroup gates a handler on group context.
func requireGroup(req *engine.Request) error {
	if !req.Event.IsGroup() {
		return engine.ErrGroupOnly
	}
	return nil
}

// requireGroupAdmin gates a handler on group context plus owner or roster
// admin standing.
func requireGroupAdmin(d Deps, req *engine.Request) error {
	if err := requireGroup(req); err != nil {
		return err
	}
	if d.Access.IsOwner(req.Sender) || req.Roster.IsAdmin(req.Sender) {
		return nil
	}
	return engine.ErrAdminOnly
}

// parseOnOff interprets an on/off style argument.
func parseOnOff(args []string, usage string) (bool, error) {
	if len(args) != 1 {
		return false, engine.NewUsageError("%s", usage)
	}
	switch strings.ToLower(args[0]) {
	case "on", "enable", "true", "1":
		return true, nil
	case "off", "disable", "false", "0":
		return false, nil
	default:
		return false, engine.NewUsageError("%s", usage)
	}
}

// onOff renders a toggle for replies.
func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// targetJID resolves the command target: an explicit mention wins, otherwise
// the first argument is treated as a phone number.
func targetJID(req *engine.Request) (string, bool) {
	if len(req.Event.Mentioned) > 0 {
		return req.Event.Mentioned[0], true
	}
	if len(req.Args) > 0 {
		if n := domain.SenderNumber(req.Args[0]); n != "" {
			return domain.UserJID(n), true
		}
	}
	return "", false
}
