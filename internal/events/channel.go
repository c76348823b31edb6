package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerChannelEvents() {
	h.client.EventHandler.OnChannelCreate(h.onChannelCreate)
	h.client.EventHandler.OnChannelDelete(h.onChannelDelete)
	h.client.EventHandler.OnChannelUpdate(h.onChannelUpdate)
	h.client.EventHandler.OnGuildRoleCreate(h.onRoleCreate)
	h.client.EventHandler.OnGuildRoleDelete(h.onRoleDelete)
	h.client.EventHandler.OnGuildRoleUpdate(h.onRoleUpdate)
}

// onChannelCreate applies the mute role to the new channel and logs it
func (h *handlers) onChannelCreate(s *discordgo.Session, c *discordgo.ChannelCreate) {
	if c.GuildID == "" {
		return
	}
	if h.deps.Moderation != nil {
		if err := h.deps.Moderation.ApplyMuteRoleToNewChannel(h.ctx(), c.Channel); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo aplicar el rol de mute en %s: %v", c.ID, err), "Channel")
		}
	}
	h.log(c.GuildID, models.LogChannels, func(lang string) *discordgo.MessageEmbed {
		return channelEmbed(lang, "logs.channel_create", c.Channel, auditlog.ColorSuccess)
	})
}

func (h *handlers) onChannelDelete(s *discordgo.Session, c *discordgo.ChannelDelete) {
	h.log(c.GuildID, models.LogChannels, func(lang string) *discordgo.MessageEmbed {
		return channelEmbed(lang, "logs.channel_delete", c.Channel, auditlog.ColorDanger)
	})
}

func (h *handlers) onChannelUpdate(s *discordgo.Session, c *discordgo.ChannelUpdate) {
	h.log(c.GuildID, models.LogChannels, func(lang string) *discordgo.MessageEmbed {
		return channelUpdateEmbed(lang, c.BeforeUpdate, c.Channel)
	})
}

func (h *handlers) onRoleCreate(s *discordgo.Session, r *discordgo.GuildRoleCreate) {
	h.log(r.GuildID, models.LogRoles, func(lang string) *discordgo.MessageEmbed {
		return roleEmbed(lang, "logs.role_create", r.Role, auditlog.ColorSuccess)
	})
}

func (h *handlers) onRoleDelete(s *discordgo.Session, r *discordgo.GuildRoleDelete) {
	h.log(r.GuildID, models.LogRoles, func(lang string) *discordgo.MessageEmbed {
		return roleDeleteEmbed(lang, r.RoleID)
	})
}

func (h *handlers) onRoleUpdate(s *discordgo.Session, r *discordgo.GuildRoleUpdate) {
	h.log(r.GuildID, models.LogRoles, func(lang string) *discordgo.MessageEmbed {
		return roleEmbed(lang, "logs.role_update", r.Role, auditlog.ColorWarning)
	})
}
