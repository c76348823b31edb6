package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// MuteRoleColor is the grey given to a created mute role
const MuteRoleColor = 0x808080

// SetupResult describes the configured mute role
type SetupResult struct {
	RoleID  string
	Created bool
}

// SetupMute finds or creates the mute role, strips its permissions, denies
// it on every channel and stores it on the guild document
func (s *Service) SetupMute(ctx context.Context, guildID, moderatorID, reason string) (*SetupResult, error) {
	cfg, err := s.store.GetOrCreate(ctx, guildID)
	if err != nil {
		return nil, err
	}
	guild, err := s.dir.Guild(ctx, guildID)
	if err != nil {
		return nil, err
	}

	var none int64
	res := &SetupResult{}
	role := s.findMuteRole(guild, cfg.MuteRole)
	if role == nil {
		color := MuteRoleColor
		hoist, mentionable := false, false
		role, err = s.dir.CreateRole(ctx, guildID, &discordgo.RoleParams{
			Name:        s.opts.MuteRoleName,
			Color:       &color,
			Hoist:       &hoist,
			Permissions: &none,
			Mentionable: &mentionable,
		}, reason)
		if err != nil {
			return nil, err
		}
		res.Created = true
		logger.Info(fmt.Sprintf("Rol mute creado en %s: %s", guildID, role.ID), "SetupMute")
	} else if role.Permissions != 0 {
		if _, err := s.dir.EditRole(ctx, guildID, role.ID, &discordgo.RoleParams{Permissions: &none}, reason); err != nil {
			logger.Warn(fmt.Sprintf("No se pudieron reiniciar los permisos del rol %s: %v", role.ID, err), "SetupMute")
		}
	}
	res.RoleID = role.ID

	if err := s.reconciler.ApplyMuteRoleAcrossGuild(ctx, guildID, role.ID, reason); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo recorrer los canales de %s: %v", guildID, err), "SetupMute")
	}

	if err := s.store.SetMuteRole(ctx, guildID, role.ID); err != nil {
		return nil, fmt.Errorf("save mute role: %w", err)
	}

	s.sink.Publish(ctx, Event{Kind: EventSetupMute, GuildID: guildID, ModeratorID: moderatorID, Reason: reason, At: s.now()})
	return res, nil
}

func (s *Service) findMuteRole(guild *discordgo.Guild, configured string) *discordgo.Role {
	if configured != "" {
		if r := roleByID(guild, configured); r != nil {
			return r
		}
	}
	for _, r := range guild.Roles {
		if strings.EqualFold(r.Name, s.opts.MuteRoleName) {
			return r
		}
	}
	return nil
}

// ApplyMuteRoleToNewChannel denies the configured mute role on a freshly
// created channel
func (s *Service) ApplyMuteRoleToNewChannel(ctx context.Context, ch *discordgo.Channel) error {
	cfg, err := s.store.FindGuildConfig(ctx, ch.GuildID)
	if err != nil || cfg == nil || cfg.MuteRole == "" {
		return err
	}
	return s.reconciler.ApplyMuteRoleToChannel(ctx, ch, cfg.MuteRole, "Mute role auto-setup")
}

// LockRequest is the input of Lock and Unlock
type LockRequest struct {
	GuildID     string
	ChannelID   string
	ModeratorID string
	Reason      string
}

// Lock locks a channel and publishes the event
func (s *Service) Lock(ctx context.Context, req LockRequest) (*LockResult, error) {
	res, err := s.reconciler.Lock(ctx, req.ChannelID, req.Reason)
	if err != nil {
		return nil, err
	}
	s.sink.Publish(ctx, Event{Kind: EventLock, GuildID: req.GuildID, ChannelID: req.ChannelID, ModeratorID: req.ModeratorID, Reason: req.Reason, Count: len(res.Swept), At: s.now()})
	return res, nil
}

// Unlock unlocks a channel and publishes the event
func (s *Service) Unlock(ctx context.Context, req LockRequest) (*LockResult, error) {
	res, err := s.reconciler.Unlock(ctx, req.ChannelID, req.Reason)
	if err != nil {
		return nil, err
	}
	s.sink.Publish(ctx, Event{Kind: EventUnlock, GuildID: req.GuildID, ChannelID: req.ChannelID, ModeratorID: req.ModeratorID, Reason: req.Reason, At: s.now()})
	return res, nil
}

// RestoreMuteOnRejoin re-applies the mute role to a member who rejoins while
// persisted as permanently muted. It reports whether the role was applied.
func (s *Service) RestoreMuteOnRejoin(ctx context.Context, guildID, userID string) (bool, error) {
	cfg, err := s.store.FindGuildConfig(ctx, guildID)
	if err != nil || cfg == nil || cfg.MuteRole == "" {
		return false, err
	}
	rec := cfg.Users.Get(userID)
	if rec == nil || !rec.Permanent() {
		return false, nil
	}
	if err := s.dir.AddRole(ctx, guildID, userID, cfg.MuteRole, "Mute evasion"); err != nil {
		return false, err
	}
	s.sink.Publish(ctx, Event{Kind: EventMuteEvasion, GuildID: guildID, UserID: userID, At: s.now()})
	return true, nil
}
