// Package moderation keeps role membership, channel permission overwrites
// and the persisted guild document in step for mutes, warnings and channel
// locks, and expires timed mutes.
package moderation

import (
	"context"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
	"go.mongodb.org/mongo-driver/bson"
)

// GuildDirectory is the live view of a guild plus the mutations the
// moderation core performs on it. Every mutation carries an audit-log reason.
type GuildDirectory interface {
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	Channels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)
	// Members returns the cached members of a guild; it may be partial.
	Members(ctx context.Context, guildID string) ([]*discordgo.Member, error)
	BotUserID() string

	EditOverwrite(ctx context.Context, channelID string, ow *discordgo.PermissionOverwrite, reason string) error
	SetThreadLocked(ctx context.Context, channelID string, locked bool, reason string) error

	CreateRole(ctx context.Context, guildID string, params *discordgo.RoleParams, reason string) (*discordgo.Role, error)
	EditRole(ctx context.Context, guildID, roleID string, params *discordgo.RoleParams, reason string) (*discordgo.Role, error)
	AddRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error

	// Timeout sets the native timeout; nil clears it.
	Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	DisconnectVoice(ctx context.Context, guildID, userID, reason string) error

	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID string, deleteDays int, reason string) error
	Unban(ctx context.Context, guildID, userID, reason string) error
}

// ConfigStore persists one GuildConfig per guild
type ConfigStore interface {
	FindGuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error)
	GetOrCreate(ctx context.Context, guildID string) (*models.GuildConfig, error)
	UpsertUserRecord(ctx context.Context, guildID, userID string, patch models.UserPatch) error
	SetMuteRole(ctx context.Context, guildID, roleID string) error
	ListGuildConfigs(ctx context.Context, filter bson.M) ([]*models.GuildConfig, error)
}

// SessionDirectory implements GuildDirectory on a discordgo session.
// Channels and members are read over REST so a read after a mutation sees it.
type SessionDirectory struct {
	session *discordgo.Session
}

// NewSessionDirectory wraps s
func NewSessionDirectory(s *discordgo.Session) *SessionDirectory {
	return &SessionDirectory{session: s}
}

func opts(ctx context.Context, reason string) []discordgo.RequestOption {
	o := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		o = append(o, discordgo.WithAuditLogReason(reason))
	}
	return o
}

func (d *SessionDirectory) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if g, err := d.session.State.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g, nil
	}
	g, err := d.session.Guild(guildID, discordgo.WithContext(ctx))
	return g, platformError("guild", err)
}

func (d *SessionDirectory) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	ch, err := d.session.Channel(channelID, discordgo.WithContext(ctx))
	return ch, platformError("channel", err)
}

func (d *SessionDirectory) Channels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	chs, err := d.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	return chs, platformError("channels", err)
}

func (d *SessionDirectory) Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error) {
	m, err := d.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, platformError("member", err)
	}
	if m.GuildID == "" {
		m.GuildID = guildID
	}
	return m, nil
}

func (d *SessionDirectory) Members(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	g, err := d.session.State.Guild(guildID)
	if err != nil {
		return nil, err
	}
	d.session.State.RLock()
	defer d.session.State.RUnlock()
	return append([]*discordgo.Member(nil), g.Members...), nil
}

func (d *SessionDirectory) BotUserID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

func (d *SessionDirectory) EditOverwrite(ctx context.Context, channelID string, ow *discordgo.PermissionOverwrite, reason string) error {
	err := d.session.ChannelPermissionSet(channelID, ow.ID, ow.Type, ow.Allow, ow.Deny, opts(ctx, reason)...)
	return platformError("overwrite", err)
}

func (d *SessionDirectory) SetThreadLocked(ctx context.Context, channelID string, locked bool, reason string) error {
	_, err := d.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Locked: &locked}, opts(ctx, reason)...)
	return platformError("thread", err)
}

func (d *SessionDirectory) CreateRole(ctx context.Context, guildID string, params *discordgo.RoleParams, reason string) (*discordgo.Role, error) {
	r, err := d.session.GuildRoleCreate(guildID, params, opts(ctx, reason)...)
	return r, platformError("create role", err)
}

func (d *SessionDirectory) EditRole(ctx context.Context, guildID, roleID string, params *discordgo.RoleParams, reason string) (*discordgo.Role, error) {
	r, err := d.session.GuildRoleEdit(guildID, roleID, params, opts(ctx, reason)...)
	return r, platformError("edit role", err)
}

func (d *SessionDirectory) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return platformError("add role", d.session.GuildMemberRoleAdd(guildID, userID, roleID, opts(ctx, reason)...))
}

func (d *SessionDirectory) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return platformError("remove role", d.session.GuildMemberRoleRemove(guildID, userID, roleID, opts(ctx, reason)...))
}

func (d *SessionDirectory) Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	return platformError("timeout", d.session.GuildMemberTimeout(guildID, userID, until, opts(ctx, reason)...))
}

func (d *SessionDirectory) DisconnectVoice(ctx context.Context, guildID, userID, reason string) error {
	return platformError("disconnect", d.session.GuildMemberMove(guildID, userID, nil, opts(ctx, reason)...))
}

func (d *SessionDirectory) Kick(ctx context.Context, guildID, userID, reason string) error {
	return platformError("kick", d.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx)))
}

func (d *SessionDirectory) Ban(ctx context.Context, guildID, userID string, deleteDays int, reason string) error {
	return platformError("ban", d.session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays, discordgo.WithContext(ctx)))
}

func (d *SessionDirectory) Unban(ctx context.Context, guildID, userID, reason string) error {
	return platformError("unban", d.session.GuildBanDelete(guildID, userID, opts(ctx, reason)...))
}
