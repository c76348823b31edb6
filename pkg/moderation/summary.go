package moderation

import (
	"context"
	"sort"
	"time"
)

// MuteEntry is one active mute
type MuteEntry struct {
	UserID    string     `json:"userId"`
	Until     *time.Time `json:"until,omitempty"`
	Permanent bool       `json:"permanent"`
}

// WarnEntry totals the warnings of one member
type WarnEntry struct {
	UserID string    `json:"userId"`
	Count  int       `json:"count"`
	Last   time.Time `json:"last"`
}

// Summary is the moderation state of a guild as exposed over MQTT and HTTP
type Summary struct {
	GuildID       string      `json:"guildId"`
	Configured    bool        `json:"configured"`
	Language      string      `json:"language,omitempty"`
	MuteRole      string      `json:"muteRole,omitempty"`
	StaffRoles    []string    `json:"staffRoles"`
	LogsEnabled   bool        `json:"logsEnabled"`
	Mutes         []MuteEntry `json:"mutes"`
	Warned        []WarnEntry `json:"warned"`
	TotalWarnings int         `json:"totalWarnings"`
}

// ActiveMutes lists the persisted mutes of a guild, soonest expiry first and
// permanent mutes last
func (s *Service) ActiveMutes(ctx context.Context, guildID string) ([]MuteEntry, error) {
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil || cfg == nil {
		return []MuteEntry{}, err
	}
	mutes := []MuteEntry{}
	for _, rec := range cfg.Users.Sorted() {
		if !rec.Muted {
			continue
		}
		mutes = append(mutes, MuteEntry{UserID: rec.UserID, Until: rec.MutedUntil, Permanent: rec.MutedUntil == nil})
	}
	sort.SliceStable(mutes, func(i, j int) bool {
		a, b := mutes[i].Until, mutes[j].Until
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return a.Before(*b)
	})
	return mutes, nil
}

// Summary reports the moderation state of a guild. A guild without a
// document yields an empty, unconfigured summary.
func (s *Service) Summary(ctx context.Context, guildID string) (*Summary, error) {
	sum := &Summary{GuildID: guildID, StaffRoles: []string{}, Mutes: []MuteEntry{}, Warned: []WarnEntry{}}
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return sum, nil
	}

	sum.Configured = true
	sum.Language = cfg.Language
	sum.MuteRole = cfg.MuteRole
	sum.LogsEnabled = cfg.Logs.Enabled
	if cfg.StaffRoles != nil {
		sum.StaffRoles = append(sum.StaffRoles, cfg.StaffRoles...)
	}
	if sum.Mutes, err = s.ActiveMutes(ctx, guildID); err != nil {
		return nil, err
	}

	warned, err := s.WarnList(ctx, guildID)
	if err != nil {
		return nil, err
	}
	for _, rec := range warned {
		sum.Warned = append(sum.Warned, WarnEntry{
			UserID: rec.UserID,
			Count:  len(rec.Warnings),
			Last:   rec.Warnings[len(rec.Warnings)-1].Date,
		})
		sum.TotalWarnings += len(rec.Warnings)
	}
	return sum, nil
}
