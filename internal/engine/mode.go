package engine

import "sync"

// Mode holds the bot's global public/private switch. In private mode only
// configured owners can use commands; everyone else is silently ignored.
// Safe for concurrent use.
type Mode struct {
	mu     sync.RWMutex
	public bool
}

// NewMode returns a Mode starting in the given visibility.
func NewMode(public bool) *Mode {
	return &Mode{public: public}
}

// Public reports whether the bot currently serves non-owners.
func (m *Mode) Public() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.public
}

// SetPublic flips the visibility switch.
func (m *Mode) SetPublic(public bool) {
	m.mu.Lock()
	m.public = public
	m.mu.Unlock()
}

// Toggles bundles the operator-tunable runtime switches that are not part
// of any per-group record. They start from configured defaults and owner
// commands mutate them at runtime. Safe for concurrent use.
type Toggles struct {
	mu sync.RWMutex

	antiCall         bool
	callBlock        bool
	autoReactGroup   bool
	saveStatus       bool
	antiDelete       bool
	antiStatusDelete bool
}

// ToggleDefaults seeds a Toggles value.
type ToggleDefaults struct {
	AntiCall         bool
	CallBlock        bool
	AutoReactGroup   bool
	SaveStatus       bool
	AntiDelete       bool
	AntiStatusDelete bool
}

// NewToggles returns a Toggles initialized from defaults.
func NewToggles(d ToggleDefaults) *Toggles {
	return &Toggles{
		antiCall:         d.AntiCall,
		callBlock:        d.CallBlock,
		autoReactGroup:   d.AutoReactGroup,
		saveStatus:       d.SaveStatus,
		antiDelete:       d.AntiDelete,
		antiStatusDelete: d.AntiStatusDelete,
	}
}

// Snapshot returns a consistent copy of all switches.
func (t *Toggles) Snapshot() ToggleDefaults {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ToggleDefaults{
		AntiCall:         t.antiCall,
		CallBlock:        t.callBlock,
		AutoReactGroup:   t.autoReactGroup,
		SaveStatus:       t.saveStatus,
		AntiDelete:       t.antiDelete,
		AntiStatusDelete: t.antiStatusDelete,
	}
}

// AntiCall reports whether inbound calls are rejected.
func (t *Toggles) AntiCall() bool { t.mu.RLock(); defer t.mu.RUnlock(); return t.antiCall }

// CallBlock reports whether rejected callers are also blocked.
func (t *Toggles) CallBlock() bool { t.mu.RLock(); defer t.mu.RUnlock(); return t.callBlock }

// AutoReactGroup reports whether group messages get automatic reactions.
func (t *Toggles) AutoReactGroup() bool { t.mu.RLock(); defer t.mu.RUnlock(); return t.autoReactGroup }

// SaveStatus reports whether observed status posts are archived.
func (t *Toggles) SaveStatus() bool { t.mu.RLock(); defer t.mu.RUnlock(); return t.saveStatus }

// AntiDelete reports whether revoked messages are re-surfaced.
func (t *Toggles) AntiDelete() bool { t.mu.RLock(); defer t.mu.RUnlock(); return t.antiDelete }

// AntiStatusDelete reports whether revoked status posts are re-surfaced.
func (t *Toggles) AntiStatusDelete() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.antiStatusDelete
}

// SetAntiCall sets call rejection.
func (t *Toggles) SetAntiCall(v bool) { t.mu.Lock(); t.antiCall = v; t.mu.Unlock() }

// SetCallBlock sets blocking of rejected callers.
func (t *Toggles) SetCallBlock(v bool) { t.mu.Lock(); t.callBlock = v; t.mu.Unlock() }

// SetAutoReactGroup sets automatic group reactions.
func (t *Toggles) SetAutoReactGroup(v bool) { t.mu.Lock(); t.autoReactGroup = v; t.mu.Unlock() }

// SetSaveStatus sets status archiving.
func (t *Toggles) SetSaveStatus(v bool) { t.mu.Lock(); t.saveStatus = v; t.mu.Unlock() }

// SetAntiDelete sets revoked-message recovery.
func (t *Toggles) SetAntiDelete(v bool) { t.mu.Lock(); t.antiDelete = v; t.mu.Unlock() }

// SetAntiStatusDelete sets revoked-status recovery.
func (t *Toggles) SetAntiStatusDelete(v bool) { t.mu.Lock(); t.antiStatusDelete = v; t.mu.Unlock() }
