package models

import (
	"strings"
	"time"
)

// GuildConfig es el documento de configuración de un servidor (colección "guilds")
type GuildConfig struct {
	GuildID    string            `bson:"guildId" json:"guildId"`
	Language   string            `bson:"language" json:"language"`
	MuteRole   string            `bson:"muteRole,omitempty" json:"muteRole,omitempty"`
	Logs       LogSettings       `bson:"logs" json:"logs"`
	Welcome    WelcomeSettings   `bson:"welcome" json:"welcome"`
	Users      UserRecords       `bson:"users" json:"users"`
	AntiRaid   *AntiRaidSettings `bson:"antiRaid,omitempty" json:"antiRaid,omitempty"`
	StaffRoles []string          `bson:"staffRoles,omitempty" json:"staffRoles,omitempty"`
	CreatedAt  time.Time         `bson:"createdAt" json:"createdAt"`
}

// AntiRaidSettings agrupa la política automática de sanciones
type AntiRaidSettings struct {
	WarnConfig *WarnConfig `bson:"warnConfig,omitempty" json:"warnConfig,omitempty"`
}

// WarnConfig controla el timeout automático tras N advertencias
type WarnConfig struct {
	TimeoutAfter           int `bson:"timeoutAfter" json:"timeoutAfter"`
	TimeoutDurationMinutes int `bson:"timeoutDurationMinutes" json:"timeoutDurationMinutes"`
}

// WelcomeSettings configura el mensaje de bienvenida
type WelcomeSettings struct {
	Enabled   *bool  `bson:"enabled,omitempty" json:"enabled,omitempty"`
	ChannelID string `bson:"channelId,omitempty" json:"channelId,omitempty"`
}

// IsEnabled reports whether welcomes are on. Absent means enabled.
func (w WelcomeSettings) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// NewGuildConfig returns the default document for a guild
func NewGuildConfig(guildID, language string) *GuildConfig {
	return &GuildConfig{
		GuildID:  guildID,
		Language: language,
		Logs: LogSettings{
			Types: AllLogTypes(true),
		},
		Users:     UserRecords{},
		CreatedAt: time.Now(),
	}
}

// Normalize fills the fields a legacy or partial document may lack
func (g *GuildConfig) Normalize(defaultLanguage string) {
	if g.Users == nil {
		g.Users = UserRecords{}
	}
	g.Language = NormalizeLanguage(g.Language, defaultLanguage)
}

// WarnPolicy returns the configured warn timeout policy, or the given defaults
func (g *GuildConfig) WarnPolicy(defaultAfter, defaultMinutes int) WarnConfig {
	if g.AntiRaid != nil && g.AntiRaid.WarnConfig != nil {
		wc := *g.AntiRaid.WarnConfig
		if wc.TimeoutAfter <= 0 {
			wc.TimeoutAfter = defaultAfter
		}
		if wc.TimeoutDurationMinutes <= 0 {
			wc.TimeoutDurationMinutes = defaultMinutes
		}
		return wc
	}
	return WarnConfig{TimeoutAfter: defaultAfter, TimeoutDurationMinutes: defaultMinutes}
}

// IsStaffRole reports whether roleID is one of the configured staff roles
func (g *GuildConfig) IsStaffRole(roleID string) bool {
	for _, r := range g.StaffRoles {
		if r == roleID {
			return true
		}
	}
	return false
}

// AddStaffRole adds roleID and reports whether it was new
func (g *GuildConfig) AddStaffRole(roleID string) bool {
	if g.IsStaffRole(roleID) {
		return false
	}
	g.StaffRoles = append(g.StaffRoles, roleID)
	return true
}

// RemoveStaffRole removes roleID and reports whether it was present
func (g *GuildConfig) RemoveStaffRole(roleID string) bool {
	for i, r := range g.StaffRoles {
		if r == roleID {
			g.StaffRoles = append(g.StaffRoles[:i], g.StaffRoles[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached documents are never mutated in place
func (g *GuildConfig) Clone() *GuildConfig {
	if g == nil {
		return nil
	}
	c := *g
	c.Logs = g.Logs.clone()
	if g.Welcome.Enabled != nil {
		v := *g.Welcome.Enabled
		c.Welcome.Enabled = &v
	}
	if g.AntiRaid != nil {
		ar := AntiRaidSettings{}
		if g.AntiRaid.WarnConfig != nil {
			wc := *g.AntiRaid.WarnConfig
			ar.WarnConfig = &wc
		}
		c.AntiRaid = &ar
	}
	if g.StaffRoles != nil {
		c.StaffRoles = append([]string(nil), g.StaffRoles...)
	}
	c.Users = make(UserRecords, len(g.Users))
	for id, u := range g.Users {
		c.Users[id] = u.clone()
	}
	return &c
}

// NormalizeLanguage returns lang when supported, otherwise fallback
func NormalizeLanguage(lang, fallback string) string {
	switch strings.ToLower(lang) {
	case "fr", "en", "es":
		return strings.ToLower(lang)
	}
	return fallback
}
