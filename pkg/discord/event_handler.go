// Package discord provides the event handler for managing Discord events.
package discord

import (
	"fmt"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// EventHandler manages event registration
type EventHandler struct {
	client *ExtendedClient
	events []string
	mu     sync.RWMutex
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(client *ExtendedClient) *EventHandler {
	return &EventHandler{
		client: client,
		events: make([]string, 0),
	}
}

// RegisterEvent adds an event handler to the Discord session
func (eh *EventHandler) RegisterEvent(name string, handler interface{}) {
	eh.client.Session.AddHandler(handler)
	eh.mu.Lock()
	eh.events = append(eh.events, name)
	eh.mu.Unlock()
	logger.Debug(fmt.Sprintf("Evento '%s' registrado", name), "EventHandler")
}

// Count returns the number of registered handlers
func (eh *EventHandler) Count() int {
	eh.mu.RLock()
	defer eh.mu.RUnlock()
	return len(eh.events)
}

// guard recovers panics raised by an event handler
func guard[T any](fn func(s *discordgo.Session, e T)) func(s *discordgo.Session, e T) {
	return func(s *discordgo.Session, e T) {
		defer errors.RecoverMiddleware()()
		fn(s, e)
	}
}

// OnReady registers a ready event handler
func (eh *EventHandler) OnReady(handler func(s *discordgo.Session, r *discordgo.Ready)) {
	eh.RegisterEvent("Ready", guard(handler))
}

// OnGuildCreate registers a guild create event handler
func (eh *EventHandler) OnGuildCreate(handler func(s *discordgo.Session, g *discordgo.GuildCreate)) {
	eh.RegisterEvent("GuildCreate", guard(handler))
}

// OnGuildDelete registers a guild delete event handler
func (eh *EventHandler) OnGuildDelete(handler func(s *discordgo.Session, g *discordgo.GuildDelete)) {
	eh.RegisterEvent("GuildDelete", guard(handler))
}

// OnGuildUpdate registers a guild update event handler
func (eh *EventHandler) OnGuildUpdate(handler func(s *discordgo.Session, g *discordgo.GuildUpdate)) {
	eh.RegisterEvent("GuildUpdate", guard(handler))
}

// OnMessageCreate registers a message create event handler
func (eh *EventHandler) OnMessageCreate(handler func(s *discordgo.Session, m *discordgo.MessageCreate)) {
	eh.RegisterEvent("MessageCreate", guard(handler))
}

// OnMessageUpdate registers a message update event handler
func (eh *EventHandler) OnMessageUpdate(handler func(s *discordgo.Session, m *discordgo.MessageUpdate)) {
	eh.RegisterEvent("MessageUpdate", guard(handler))
}

// OnMessageDelete registers a message delete event handler
func (eh *EventHandler) OnMessageDelete(handler func(s *discordgo.Session, m *discordgo.MessageDelete)) {
	eh.RegisterEvent("MessageDelete", guard(handler))
}

// OnMessageDeleteBulk registers a bulk message delete event handler
func (eh *EventHandler) OnMessageDeleteBulk(handler func(s *discordgo.Session, m *discordgo.MessageDeleteBulk)) {
	eh.RegisterEvent("MessageDeleteBulk", guard(handler))
}

// OnMessageReactionAdd registers a reaction add event handler
func (eh *EventHandler) OnMessageReactionAdd(handler func(s *discordgo.Session, r *discordgo.MessageReactionAdd)) {
	eh.RegisterEvent("MessageReactionAdd", guard(handler))
}

// OnChannelCreate registers a channel create event handler
func (eh *EventHandler) OnChannelCreate(handler func(s *discordgo.Session, c *discordgo.ChannelCreate)) {
	eh.RegisterEvent("ChannelCreate", guard(handler))
}

// OnChannelDelete registers a channel delete event handler
func (eh *EventHandler) OnChannelDelete(handler func(s *discordgo.Session, c *discordgo.ChannelDelete)) {
	eh.RegisterEvent("ChannelDelete", guard(handler))
}

// OnChannelUpdate registers a channel update event handler
func (eh *EventHandler) OnChannelUpdate(handler func(s *discordgo.Session, c *discordgo.ChannelUpdate)) {
	eh.RegisterEvent("ChannelUpdate", guard(handler))
}

// OnGuildRoleCreate registers a role create event handler
func (eh *EventHandler) OnGuildRoleCreate(handler func(s *discordgo.Session, r *discordgo.GuildRoleCreate)) {
	eh.RegisterEvent("GuildRoleCreate", guard(handler))
}

// OnGuildRoleDelete registers a role delete event handler
func (eh *EventHandler) OnGuildRoleDelete(handler func(s *discordgo.Session, r *discordgo.GuildRoleDelete)) {
	eh.RegisterEvent("GuildRoleDelete", guard(handler))
}

// OnGuildRoleUpdate registers a role update event handler
func (eh *EventHandler) OnGuildRoleUpdate(handler func(s *discordgo.Session, r *discordgo.GuildRoleUpdate)) {
	eh.RegisterEvent("GuildRoleUpdate", guard(handler))
}

// OnGuildMemberAdd registers a guild member add event handler
func (eh *EventHandler) OnGuildMemberAdd(handler func(s *discordgo.Session, m *discordgo.GuildMemberAdd)) {
	eh.RegisterEvent("GuildMemberAdd", guard(handler))
}

// OnGuildMemberRemove registers a guild member remove event handler
func (eh *EventHandler) OnGuildMemberRemove(handler func(s *discordgo.Session, m *discordgo.GuildMemberRemove)) {
	eh.RegisterEvent("GuildMemberRemove", guard(handler))
}

// OnGuildMemberUpdate registers a guild member update event handler
func (eh *EventHandler) OnGuildMemberUpdate(handler func(s *discordgo.Session, m *discordgo.GuildMemberUpdate)) {
	eh.RegisterEvent("GuildMemberUpdate", guard(handler))
}

// OnGuildBanAdd registers a ban add event handler
func (eh *EventHandler) OnGuildBanAdd(handler func(s *discordgo.Session, b *discordgo.GuildBanAdd)) {
	eh.RegisterEvent("GuildBanAdd", guard(handler))
}

// OnGuildBanRemove registers a ban remove event handler
func (eh *EventHandler) OnGuildBanRemove(handler func(s *discordgo.Session, b *discordgo.GuildBanRemove)) {
	eh.RegisterEvent("GuildBanRemove", guard(handler))
}

// OnVoiceStateUpdate registers a voice state update event handler
func (eh *EventHandler) OnVoiceStateUpdate(handler func(s *discordgo.Session, v *discordgo.VoiceStateUpdate)) {
	eh.RegisterEvent("VoiceStateUpdate", guard(handler))
}
