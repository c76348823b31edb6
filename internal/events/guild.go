package events

import (
	"fmt"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func (h *handlers) registerGuildEvents() {
	h.client.EventHandler.OnGuildCreate(h.onGuildCreate)
	h.client.EventHandler.OnGuildDelete(h.onGuildDelete)
	h.client.EventHandler.OnGuildUpdate(h.onGuildUpdate)
}

// onGuildCreate fires for every guild on connect; only fresh joins are
// handled
func (h *handlers) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.JoinedAt.Before(time.Now().Add(-10 * time.Second)) {
		return
	}
	logger.Info(fmt.Sprintf("➕ Bot agregado a servidor: %s (ID: %s)", g.Name, g.ID), "Guild")
	logger.Debug(fmt.Sprintf("   Miembros: %d | Canales: %d", g.MemberCount, len(g.Channels)), "Guild")

	if h.deps.Store == nil {
		return
	}
	if _, err := h.deps.Store.GetOrCreate(h.ctx(), g.ID); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo crear la configuración de %s: %v", g.ID, err), "Guild")
	}
}

// onGuildDelete is called when the bot is removed from a server
func (h *handlers) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		logger.Warn(fmt.Sprintf("⚠️ Servidor no disponible: %s", g.ID), "Guild")
		return
	}
	logger.Info(fmt.Sprintf("➖ Bot removido del servidor ID: %s", g.ID), "Guild")
	if h.deps.Store != nil {
		h.deps.Store.Evict(g.ID)
	}
}

func (h *handlers) onGuildUpdate(s *discordgo.Session, g *discordgo.GuildUpdate) {
	h.log(g.ID, models.LogServer, func(lang string) *discordgo.MessageEmbed {
		return guildUpdateEmbed(lang, g.Guild)
	})
}
