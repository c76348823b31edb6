package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerReactionEvents() {
	h.client.EventHandler.OnMessageReactionAdd(h.onReactionAdd)
}

// onReactionAdd updates tracked welcome messages
func (h *handlers) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if h.deps.Greeter == nil || r.MessageReaction == nil {
		return
	}
	isBot := h.isSelf(s, r.UserID) || (r.Member != nil && r.Member.User != nil && r.Member.User.Bot)
	if _, err := h.deps.Greeter.HandleReaction(h.ctx(), r.MessageReaction, isBot); err != nil {
		logger.Warn(fmt.Sprintf("Error actualizando bienvenida %s: %v", r.MessageID, err), "Welcome")
	}
}
