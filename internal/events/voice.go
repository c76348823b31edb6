package events

import (
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerVoiceEvents() {
	h.client.EventHandler.OnVoiceStateUpdate(h.onVoiceStateUpdate)
}

// onVoiceStateUpdate logs joins, leaves and moves. Mute and deafen toggles
// are ignored.
func (h *handlers) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	kind := voiceTransition(before, v.ChannelID)
	if kind == "" || h.isSelf(s, v.UserID) {
		return
	}
	h.log(v.GuildID, models.LogVoice, func(lang string) *discordgo.MessageEmbed {
		return voiceEmbed(lang, kind, v.UserID, before, v.ChannelID)
	})
}
