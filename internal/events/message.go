package events

import (
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerMessageEvents() {
	h.client.EventHandler.OnMessageUpdate(h.onMessageUpdate)
	h.client.EventHandler.OnMessageDelete(h.onMessageDelete)
	h.client.EventHandler.OnMessageDeleteBulk(h.onMessageDeleteBulk)
}

func fromBot(m *discordgo.Message) bool {
	return m != nil && m.Author != nil && m.Author.Bot
}

// onMessageUpdate logs edits of cached messages
func (h *handlers) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.GuildID == "" || fromBot(m.Message) || fromBot(m.BeforeUpdate) {
		return
	}
	h.log(m.GuildID, models.LogMessage, func(lang string) *discordgo.MessageEmbed {
		return messageEditEmbed(lang, m.BeforeUpdate, m.Message)
	})
}

// onMessageDelete logs deletions; the content is known only for cached
// messages
func (h *handlers) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if m.GuildID == "" || fromBot(m.BeforeDelete) {
		return
	}
	h.log(m.GuildID, models.LogMessage, func(lang string) *discordgo.MessageEmbed {
		return messageDeleteEmbed(lang, m.BeforeDelete, m.ChannelID)
	})
}

func (h *handlers) onMessageDeleteBulk(s *discordgo.Session, m *discordgo.MessageDeleteBulk) {
	h.log(m.GuildID, models.LogMessage, func(lang string) *discordgo.MessageEmbed {
		return bulkDeleteEmbed(lang, m.ChannelID, len(m.Messages))
	})
}
