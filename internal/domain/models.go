// Package domain defines the persistence models for per-group protection
// settings and per-user command limits, plus the in-memory shapes the engine
// consumes (group rosters and normalized inbound events). The persistence
// types are mapped with GORM and form the durable layer of the bot.
package domain

import (
	"strings"
	"time"
)

// GroupSetting represents the moderation policy of a single group chat.
// Exactly one row exists per chat; when no row exists the engine applies
// DefaultGroupSetting. All five toggles are independently switchable.
//
// Fields:
//   - ChatID: the group JID, primary key.
//   - Antilink: remove non-admin senders posting HTTP(S) or invite links.
//   - Antibadword: remove non-admin senders using denylisted words.
//   - Antispam: remove non-admin senders who trip the burst detector.
//   - OwnerProtect: refuse kick/demote against a configured owner.
//   - OnlyAdminCmd: restrict command dispatch in this group to admins.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type GroupSetting struct {
	ChatID       string    `json:"chat_id"       gorm:"type:varchar(64);primaryKey"`
	Antilink     bool      `json:"antilink"      gorm:"not null;default:false"`
	Antibadword  bool      `json:"antibadword"   gorm:"not null;default:false"`
	Antispam     bool      `json:"antispam"      gorm:"not null;default:false"`
	OwnerProtect bool      `json:"owner_protect" gorm:"not null;default:true"`
	OnlyAdminCmd bool      `json:"only_admin_cmd" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for GroupSetting.
func (GroupSetting) TableName() string { return "group_settings" }

// DefaultGroupSetting returns the policy applied to chats without a stored
// record. Owner protection is the only toggle that defaults to on.
func DefaultGroupSetting(chatID string) GroupSetting {
	return GroupSetting{
		ChatID:       chatID,
		OwnerProtect: true,
	}
}

// UserLimit represents the metering state of a single user identity.
// Remaining counts down from the configured daily default and resets at
// local midnight; premium users bypass metering until PremiumExpireAt.
//
// Fields:
//   - UserID: digits-only phone identity, primary key.
//   - Remaining: command invocations left before the next reset (>= 0).
//   - ResetAt: instant at which Remaining snaps back to the default.
//   - Premium: metering bypass flag.
//   - PremiumExpireAt: end of the premium grant; nil means no expiry.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type UserLimit struct {
	UserID          string     `json:"user_id"          gorm:"type:varchar(32);primaryKey"`
	Remaining       int        `json:"remaining"        gorm:"not null;default:0"`
	ResetAt         time.Time  `json:"reset_at"         gorm:"not null"`
	Premium         bool       `json:"premium"          gorm:"not null;default:false"`
	PremiumExpireAt *time.Time `json:"premium_expire_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for UserLimit.
func (UserLimit) TableName() string { return "user_limits" }

// NextReset returns the next local midnight after now, the boundary at which
// every user's remaining quota is restored.
func NextReset(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// Participant is one member of a group roster.
type Participant struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"is_admin"`
}

// GroupMetadata is a point-in-time snapshot of a group's roster. Snapshots
// are replaced wholesale on refresh, never mutated in place.
type GroupMetadata struct {
	ChatID       string        `json:"chat_id"`
	Subject      string        `json:"subject,omitempty"`
	Participants []Participant `json:"participants"`
}

// IsAdmin reports whether jid appears in the roster with the admin flag set.
func (g *GroupMetadata) IsAdmin(jid string) bool {
	if g == nil {
		return false
	}
	for _, p := range g.Participants {
		if p.ID == jid && p.IsAdmin {
			return true
		}
	}
	return false
}

// IsGroupJID reports whether a chat identifier addresses a group chat.
func IsGroupJID(jid string) bool { return strings.HasSuffix(jid, "@g.us") }

// SenderNumber strips a JID down to its digits-only phone identity.
// Owner checks and quota keys always use this form, never display names.
func SenderNumber(jid string) string {
	var b strings.Builder
	for _, r := range jid {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UserJID expands a digits-only number back into a direct-chat JID.
func UserJID(number string) string { return number + "@s.whatsapp.net" }
