package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/internal/welcome"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerMemberEvents() {
	h.client.EventHandler.OnGuildMemberAdd(h.onGuildMemberAdd)
	h.client.EventHandler.OnGuildMemberRemove(h.onGuildMemberRemove)
	h.client.EventHandler.OnGuildMemberUpdate(h.onGuildMemberUpdate)
	h.client.EventHandler.OnGuildBanAdd(h.onGuildBanAdd)
	h.client.EventHandler.OnGuildBanRemove(h.onGuildBanRemove)
}

func (h *handlers) memberCount(s *discordgo.Session, guildID string) int {
	if g, err := s.State.Guild(guildID); err == nil {
		return g.MemberCount
	}
	return 0
}

// onGuildMemberAdd restores evaded mutes, logs the join and greets the member
func (h *handlers) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil {
		return
	}
	logger.Debug(fmt.Sprintf("👋 Nuevo miembro: %s en servidor %s", m.User.Username, m.GuildID), "Member")

	if h.deps.Moderation != nil && !m.User.Bot {
		restored, err := h.deps.Moderation.RestoreMuteOnRejoin(h.ctx(), m.GuildID, m.User.ID)
		if err != nil {
			logger.Warn(fmt.Sprintf("No se pudo restaurar el mute de %s: %v", m.User.ID, err), "Member")
		} else if restored {
			logger.Info(fmt.Sprintf("🕵️ Mute restaurado a %s en %s", m.User.ID, m.GuildID), "Member")
		}
	}

	count := h.memberCount(s, m.GuildID)
	h.log(m.GuildID, models.LogServer, func(lang string) *discordgo.MessageEmbed {
		return memberEmbed(lang, "logs.member_join", m.User, auditlog.ColorSuccess, count)
	})

	if !m.User.Bot {
		h.greet(s, m.GuildID, m.User.ID)
	}
}

// greet posts the welcome message when the guild has it enabled
func (h *handlers) greet(s *discordgo.Session, guildID, userID string) {
	if h.deps.Greeter == nil {
		return
	}

	configured := ""
	if h.deps.Store != nil {
		cfg, err := h.deps.Store.FindGuildConfig(h.ctx(), guildID)
		if err != nil {
			logger.Debug(fmt.Sprintf("Bienvenida sin configuración para %s: %v", guildID, err), "Welcome")
		}
		if cfg != nil {
			if !cfg.Welcome.IsEnabled() {
				return
			}
			configured = cfg.Welcome.ChannelID
		}
	}

	guild, err := s.State.Guild(guildID)
	if err != nil {
		if guild, err = s.Guild(guildID, discordgo.WithContext(h.ctx())); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo obtener el servidor %s: %v", guildID, err), "Welcome")
			return
		}
	}
	channels := guild.Channels
	if len(channels) == 0 {
		if channels, err = s.GuildChannels(guildID, discordgo.WithContext(h.ctx())); err != nil {
			logger.Warn(fmt.Sprintf("No se pudieron obtener los canales de %s: %v", guildID, err), "Welcome")
			return
		}
	}

	channelID := welcome.TargetChannel(guild, channels, configured, func(ch *discordgo.Channel) bool {
		return canSend(s, ch.ID)
	})
	if channelID == "" {
		logger.Debug("Sin canal de bienvenida en "+guildID, "Welcome")
		return
	}
	if _, err := h.deps.Greeter.Greet(h.ctx(), guild, channelID, userID, h.client.Language(guildID)); err != nil {
		logger.Warn(fmt.Sprintf("Error enviando bienvenida en %s: %v", guildID, err), "Welcome")
	}
}

func canSend(s *discordgo.Session, channelID string) bool {
	if s.State == nil || s.State.User == nil {
		return false
	}
	perms, err := s.State.UserChannelPermissions(s.State.User.ID, channelID)
	if err != nil {
		return false
	}
	const need = discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
	return perms&discordgo.PermissionAdministrator != 0 || perms&need == need
}

// onGuildMemberRemove logs the departure
func (h *handlers) onGuildMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil || h.isSelf(s, m.User.ID) {
		return
	}
	count := h.memberCount(s, m.GuildID)
	h.log(m.GuildID, models.LogServer, func(lang string) *discordgo.MessageEmbed {
		return memberEmbed(lang, "logs.member_leave", m.User, auditlog.ColorDanger, count)
	})
}

// onGuildMemberUpdate logs role changes when the previous member is cached
func (h *handlers) onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.BeforeUpdate == nil || m.Member == nil {
		return
	}
	h.log(m.GuildID, models.LogRoles, func(lang string) *discordgo.MessageEmbed {
		return memberRolesEmbed(lang, m.User, m.BeforeUpdate.Roles, m.Roles)
	})
}

func (h *handlers) onGuildBanAdd(s *discordgo.Session, b *discordgo.GuildBanAdd) {
	h.log(b.GuildID, models.LogServer, func(lang string) *discordgo.MessageEmbed {
		return memberEmbed(lang, "logs.ban_add", b.User, auditlog.ColorDanger, 0)
	})
}

func (h *handlers) onGuildBanRemove(s *discordgo.Session, b *discordgo.GuildBanRemove) {
	h.log(b.GuildID, models.LogServer, func(lang string) *discordgo.MessageEmbed {
		return memberEmbed(lang, "logs.ban_remove", b.User, auditlog.ColorSuccess, 0)
	})
}
