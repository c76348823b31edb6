// Package discord provides the Discord bot client and related structures.
// It wraps discordgo with additional functionality for command and event handling.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// discordgo.Logger is a function, not an interface
func init() {
	discordgo.Logger = func(msgL int, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			logger.Error(msg, "DiscordGo")
		case discordgo.LogWarning:
			logger.Warn(msg, "DiscordGo")
		default:
			logger.Debug(msg, "DiscordGo")
		}
	}
}

// LanguageResolver returns the language of a guild
type LanguageResolver func(guildID string) string

// ExtendedClient wraps discordgo.Session with additional functionality
type ExtendedClient struct {
	Session        *discordgo.Session
	Commands       *CommandCollection
	CommandHandler *CommandHandler
	EventHandler   *EventHandler
	StartTime      time.Time
	ctx            context.Context
	cancel         context.CancelFunc
	language       LanguageResolver
	mu             sync.RWMutex
	isReady        bool
}

// CommandCollection holds registered commands
type CommandCollection struct {
	commands map[string]*Command
	mu       sync.RWMutex
}

// NewCommandCollection creates a new CommandCollection
func NewCommandCollection() *CommandCollection {
	return &CommandCollection{
		commands: make(map[string]*Command),
	}
}

// Set adds or updates a command
func (cc *CommandCollection) Set(name string, cmd *Command) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.commands[name] = cmd
}

// Get retrieves a command by name
func (cc *CommandCollection) Get(name string) (*Command, bool) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	cmd, ok := cc.commands[name]
	return cmd, ok
}

// Size returns the number of commands
func (cc *CommandCollection) Size() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.commands)
}

// All returns all commands
func (cc *CommandCollection) All() map[string]*Command {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	result := make(map[string]*Command)
	for k, v := range cc.commands {
		result[k] = v
	}
	return result
}

var (
	client *ExtendedClient
	once   sync.Once
)

// Init initializes the global Discord client
func Init(token string) (*ExtendedClient, error) {
	var err error
	once.Do(func() {
		client, err = NewClient(token)
	})
	return client, err
}

// Get returns the global Discord client
func Get() *ExtendedClient {
	return client
}

// NewClient creates a new ExtendedClient
func NewClient(token string) (*ExtendedClient, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentGuildModeration |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	session.ShardCount = 1
	session.SyncEvents = false
	session.StateEnabled = true
	session.State.MaxMessageCount = 200
	session.LogLevel = discordgo.LogWarning

	ctx, cancel := context.WithCancel(context.Background())
	c := &ExtendedClient{
		Session:  session,
		Commands: NewCommandCollection(),
		ctx:      ctx,
		cancel:   cancel,
		isReady:  false,
	}

	c.CommandHandler = NewCommandHandler(c)
	c.EventHandler = NewEventHandler(c)

	return c, nil
}

// SetLanguageResolver sets how guild languages are looked up for replies
func (c *ExtendedClient) SetLanguageResolver(fn LanguageResolver) {
	c.mu.Lock()
	c.language = fn
	c.mu.Unlock()
}

// Language returns the language of guildID, or the default language when
// no resolver is set
func (c *ExtendedClient) Language(guildID string) string {
	c.mu.RLock()
	fn := c.language
	c.mu.RUnlock()
	if fn == nil || guildID == "" {
		return config.Get().DefaultLanguage
	}
	return fn(guildID)
}

// Context is cancelled when the client stops
func (c *ExtendedClient) Context() context.Context {
	return c.ctx
}

// Start opens the gateway connection. Commands are pushed to Discord once
// the session is ready.
func (c *ExtendedClient) Start() error {
	c.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		c.mu.Lock()
		c.isReady = true
		c.mu.Unlock()

		logger.Success("Bot conectado como: "+r.User.Username, "Client")

		if err := c.CommandHandler.RegisterCommands(); err != nil {
			logger.Error("Error registrando comandos: "+err.Error(), "Client")
		}
	})

	c.Session.AddHandler(c.handleInteraction)

	c.StartTime = time.Now()

	return c.Session.Open()
}

// commandName builds the collection key of an interaction, joining
// subcommand groups and subcommands with dots
func commandName(data discordgo.ApplicationCommandInteractionData) string {
	name := data.Name
	if len(data.Options) == 0 {
		return name
	}

	opt := data.Options[0]
	switch opt.Type {
	case discordgo.ApplicationCommandOptionSubCommandGroup:
		if len(opt.Options) > 0 {
			name = data.Name + "." + opt.Name + "." + opt.Options[0].Name
		}
	case discordgo.ApplicationCommandOptionSubCommand:
		name = data.Name + "." + opt.Name
	}
	return name
}

// authorize returns the i18n key of the reason the command is refused, or
// an empty string when it may run
func authorize(i *discordgo.InteractionCreate, cmd *Command, dbReady bool) string {
	if cmd.GuildOnly && i.GuildID == "" {
		return "errors.guild_only"
	}
	if cmd.UserPermissions != 0 {
		if i.Member == nil || cmd.MissingPermissions(i.Member.Permissions) != 0 {
			return "errors.no_permission"
		}
	}
	if cmd.BotPermissions != 0 && i.GuildID != "" && cmd.MissingBotPermissions(i.AppPermissions) != 0 {
		return "errors.bot_permission"
	}
	if cmd.RequiresDB && !dbReady {
		return "errors.database"
	}
	return ""
}

func databaseReady() bool {
	db := database.Get()
	return db != nil && db.Connected()
}

// handleInteraction handles incoming Discord interactions
func (c *ExtendedClient) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer errors.RecoverMiddleware()()

	if i.Type != discordgo.InteractionApplicationCommand && i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}

	data := i.ApplicationCommandData()
	name := commandName(data)

	cmd, ok := c.Commands.Get(name)
	if !ok {
		logger.Warn("Comando no encontrado: "+name, "Client")
		return
	}

	ctx := &CommandContext{
		Session:     s,
		Interaction: i,
		Client:      c,
		ctx:         c.ctx,
	}

	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		if cmd.AutoComplete != nil {
			cmd.AutoComplete(ctx)
		}
		return
	}

	if reason := authorize(i, cmd, databaseReady()); reason != "" {
		logger.Debug(fmt.Sprintf("Comando %s rechazado: %s", name, reason), "Client")
		if err := ctx.ReplyEphemeral("❌ " + i18n.T(ctx.Lang(), reason, nil)); err != nil {
			logger.Error("Error respondiendo interacción: "+err.Error(), "Client")
		}
		return
	}

	if err := cmd.Run(ctx); err != nil {
		logger.Error("Error ejecutando comando "+name+": "+err.Error(), "Client")
	}
}

// Stop stops the bot and closes the session
func (c *ExtendedClient) Stop() error {
	c.mu.Lock()
	c.isReady = false
	c.mu.Unlock()

	c.cancel()
	if c.Session != nil {
		return c.Session.Close()
	}
	return nil
}

// IsReady returns true if the bot is ready
func (c *ExtendedClient) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isReady
}

// GuildCount returns the number of guilds the bot is in
func (c *ExtendedClient) GuildCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	return len(c.Session.State.Guilds)
}

// MemberCount sums the member counts of every cached guild
func (c *ExtendedClient) MemberCount() int {
	if c.Session == nil || c.Session.State == nil {
		return 0
	}
	c.Session.State.RLock()
	defer c.Session.State.RUnlock()
	total := 0
	for _, g := range c.Session.State.Guilds {
		total += g.MemberCount
	}
	return total
}

// GetConfig returns the bot configuration
func (c *ExtendedClient) GetConfig() *config.Config {
	return config.Get()
}

// User returns the bot user once the session is ready
func (c *ExtendedClient) User() *discordgo.User {
	if c.Session == nil || c.Session.State == nil {
		return nil
	}
	return c.Session.State.User
}
