// Package events wires the gateway events: audit logs, the mute role on new
// channels, mute evasion on rejoin and the welcome message.
package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/auditlog"
	"github.com/PancyStudios/PancyModGo/internal/welcome"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// Deps are the services the event handlers use
type Deps struct {
	Moderation *moderation.Service
	Store      *database.GuildStore
	Audit      *auditlog.Poster
	Greeter    *welcome.Greeter
}

type handlers struct {
	client *discord.ExtendedClient
	deps   *Deps
}

// RegisterAll registers all events with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps *Deps) {
	logger.System("📋 Registrando eventos del bot...", "Events")
	h := &handlers{client: client, deps: deps}

	// Ready and connection state
	h.registerReadyEvents()

	// Guild events (join/leave/update)
	h.registerGuildEvents()

	// Member events (join/leave/roles/bans)
	h.registerMemberEvents()

	// Message events (edit/delete/bulk delete)
	h.registerMessageEvents()

	// Channel and role events
	h.registerChannelEvents()

	// Voice events (join/leave/move)
	h.registerVoiceEvents()

	// Welcome reactions
	h.registerReactionEvents()

	logger.Success(fmt.Sprintf("✅ %d eventos registrados correctamente", client.EventHandler.Count()), "Events")
}

func (h *handlers) ctx() context.Context {
	return h.client.Context()
}

// log posts an audit embed; build returning nil skips the post
func (h *handlers) log(guildID string, t models.LogType, build func(lang string) *discordgo.MessageEmbed) {
	if h.deps.Audit == nil || guildID == "" {
		return
	}
	_ = h.deps.Audit.LogEmbed(h.ctx(), guildID, t, build)
}

func (h *handlers) isSelf(s *discordgo.Session, userID string) bool {
	return s.State != nil && s.State.User != nil && s.State.User.ID == userID
}
