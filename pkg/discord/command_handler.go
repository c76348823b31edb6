// Package discord provides the command handler for loading and registering commands.
package discord

import (
	"fmt"
	"sort"
	"sync"

	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandHandler manages command loading and registration
type CommandHandler struct {
	client        *ExtendedClient
	slashCommands []*discordgo.ApplicationCommand
	mu            sync.RWMutex
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(client *ExtendedClient) *CommandHandler {
	return &CommandHandler{
		client:        client,
		slashCommands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// RegisterCommand adds a top level command to the handler
func (ch *CommandHandler) RegisterCommand(cmd *Command) {
	ch.client.Commands.Set(cmd.Name, cmd)
	ch.AddGlobalCommand(cmd.ToApplicationCommand())
	logger.Debug("Comando registrado: "+cmd.Name, "CommandHandler")
}

// BuildCommandGroup creates a command group with subcommands. The group
// inherits the union of its subcommands' user permissions so Discord hides
// it from members that could run none of them.
func (ch *CommandHandler) BuildCommandGroup(name, description string, subcommands ...*Command) *discordgo.ApplicationCommand {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(subcommands))
	var perms int64
	guildOnly := false

	for _, cmd := range subcommands {
		fullName := name + "." + cmd.Name
		ch.client.Commands.Set(fullName, cmd)

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
		perms |= cmd.UserPermissions
		guildOnly = guildOnly || cmd.GuildOnly
	}

	appCmd := &discordgo.ApplicationCommand{
		Name:        name,
		Description: description,
		Options:     options,
	}
	if perms != 0 {
		appCmd.DefaultMemberPermissions = &perms
	}
	if guildOnly {
		dm := false
		appCmd.DMPermission = &dm
	}
	return appCmd
}

// AddGlobalCommand adds a command to the global command list
func (ch *CommandHandler) AddGlobalCommand(cmd *discordgo.ApplicationCommand) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.slashCommands = append(ch.slashCommands, cmd)
}

// ApplicationCommands returns the commands that will be pushed to Discord,
// sorted by name
func (ch *CommandHandler) ApplicationCommands() []*discordgo.ApplicationCommand {
	ch.mu.RLock()
	out := make([]*discordgo.ApplicationCommand, len(ch.slashCommands))
	copy(out, ch.slashCommands)
	ch.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// targetGuild returns where commands are registered: the dev guild outside
// production, global otherwise
func targetGuild(cfg *config.Config) string {
	if cfg.IsProd() {
		return ""
	}
	return cfg.DevGuildID
}

// RegisterCommands pushes every command to Discord
func (ch *CommandHandler) RegisterCommands() error {
	guildID := targetGuild(config.Get())
	if guildID == "" {
		logger.Info("🔄 Registrando comandos globales...", "CommandHandler")
	} else {
		logger.Info("🔄 Registrando comandos en el servidor de desarrollo "+guildID+"...", "CommandHandler")
	}

	cmds, err := ch.SyncCommands(guildID)
	if err != nil {
		return err
	}

	logger.Success(fmt.Sprintf("✅ %d comandos registrados.", len(cmds)), "CommandHandler")
	return nil
}

// SyncCommands replaces the commands registered in guildID (global when
// empty) with the current ones. Stale commands are removed by Discord.
func (ch *CommandHandler) SyncCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommandBulkOverwrite(ch.appID(), guildID, ch.ApplicationCommands())
}

// ListGuildCommands returns the commands registered in guildID, or the
// global ones when guildID is empty
func (ch *CommandHandler) ListGuildCommands(guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.client.Session.ApplicationCommands(ch.appID(), guildID)
}

// UnregisterGuildCommands removes all commands registered in guildID
// (global when empty)
func (ch *CommandHandler) UnregisterGuildCommands(guildID string) error {
	_, err := ch.client.Session.ApplicationCommandBulkOverwrite(ch.appID(), guildID, []*discordgo.ApplicationCommand{})
	if err != nil {
		return err
	}
	logger.Success("Comandos eliminados.", "CommandHandler")
	return nil
}

func (ch *CommandHandler) appID() string {
	return ch.client.Session.State.User.ID
}
