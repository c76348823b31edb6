package config

import (
	"errors"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

func logTypeChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(models.LogTypeList))
	for i, t := range models.LogTypeList {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: string(t), Value: string(t)}
	}
	return choices
}

func textChannelOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "channel",
		Description:  description,
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
	}
}

func settingsCommand(name, description string, run discord.CommandRunFunc) *discord.Command {
	return discord.NewCommand(name, description, "config", run).
		WithUserPermissions(discordgo.PermissionManageGuild).
		RequiresDatabase()
}

func (h *handlers) createLogsDisableCommand() *discord.Command {
	return settingsCommand("disable", "Desactiva todos los logs", h.logsDisableHandler)
}

func (h *handlers) logsDisableHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		cfg.Logs.Enabled = false
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "setlogs disable", err)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setlogs.title", ctx.T("commands.setlogs.disabled", nil)))
}

func (h *handlers) createLogsConfigCommand() *discord.Command {
	return settingsCommand("config", "Activa o desactiva un tipo de log", h.logsConfigHandler).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "type",
			Description: "Tipo de log",
			Required:    true,
			Choices:     logTypeChoices(),
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "enabled",
			Description: "Activar o desactivar",
			Required:    true,
		},
	)
}

func (h *handlers) logsConfigHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	t, ok := models.ParseLogType(ctx.GetStringOption("type"))
	if !ok {
		return cmdutil.FailKey(ctx, "commands.setlogs.invalid_types", i18n.Vars{"types": ctx.GetStringOption("type")})
	}
	enabled := ctx.GetBoolOption("enabled")

	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		cfg.Logs.Types.Set(t, enabled)
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "setlogs config", err)
	}

	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setlogs.title", ctx.T("commands.setlogs.config", i18n.Vars{
		"type":  ctx.T("commands.setlogs.types."+string(t), nil),
		"state": stateLabel(ctx, enabled),
	})))
}

func (h *handlers) createLogsSetChannelCommand() *discord.Command {
	return settingsCommand("setchannel", "Envía unos tipos de log a un canal", h.logsSetChannelHandler).WithOptions(
		textChannelOption("Canal de logs"),
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "types",
			Description: "Tipos separados por comas (voice, message, channels, roles, server)",
			Required:    true,
		},
	).WithBotPermissions(discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks | discordgo.PermissionAttachFiles)
}

func (h *handlers) logsSetChannelHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	channel := ctx.GetChannelOption("channel")
	if channel == nil {
		return cmdutil.FailKey(ctx, "errors.generic", nil)
	}
	types, err := models.ParseLogTypes(ctx.GetStringOption("types"))
	if err != nil {
		return cmdutil.FailKey(ctx, "commands.setlogs.invalid_types", i18n.Vars{"types": invalidTokens(err)})
	}

	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		cfg.Logs.RouteTypes(channel.ID, types)
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "setlogs setchannel", err)
	}

	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setlogs.title", ctx.T("commands.setlogs.channel_configured", i18n.Vars{
		"channel": "<#" + channel.ID + ">",
		"types":   typeNames(ctx, types),
	})))
}

func (h *handlers) createLogsRemoveChannelCommand() *discord.Command {
	return settingsCommand("removechannel", "Deja de enviar logs a un canal", h.logsRemoveChannelHandler).WithOptions(
		textChannelOption("Canal de logs"),
	)
}

func (h *handlers) logsRemoveChannelHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	channel := ctx.GetChannelOption("channel")
	if channel == nil {
		return cmdutil.FailKey(ctx, "errors.generic", nil)
	}

	removed := false
	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		removed = cfg.Logs.RemoveChannel(channel.ID)
		return removed
	}); err != nil {
		return cmdutil.Fail(ctx, "setlogs removechannel", err)
	}

	vars := i18n.Vars{"channel": "<#" + channel.ID + ">"}
	if !removed {
		return cmdutil.FailKey(ctx, "commands.setlogs.channel_not_configured", vars)
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setlogs.title", ctx.T("commands.setlogs.channel_removed", vars)))
}

func (h *handlers) createLogsStatusCommand() *discord.Command {
	return settingsCommand("status", "Muestra la configuración de logs", h.logsStatusHandler)
}

func (h *handlers) logsStatusHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	cfg, err := h.deps.Store.GetOrCreate(ctx.Context(), ctx.GuildID())
	if err != nil {
		return cmdutil.Fail(ctx, "setlogs status", err)
	}
	return ctx.EditReplyEmbed(logsStatusEmbed(ctx, cfg.Logs))
}

func logsStatusEmbed(ctx *discord.CommandContext, logs models.LogSettings) *discordgo.MessageEmbed {
	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.setlogs.title", nil), cmdutil.ColorInfo)
	none := ctx.T("common.none", nil)

	cmdutil.Field(embed, ctx.T("commands.setlogs.status_global", nil), stateLabel(ctx, logs.Enabled))
	active := none
	if enabled := logs.Types.Enabled(); len(enabled) > 0 {
		active = typeNames(ctx, enabled)
	}
	cmdutil.Field(embed, ctx.T("commands.setlogs.status_types", nil), active)
	main := none
	if logs.ChannelID != "" {
		main = "<#" + logs.ChannelID + ">"
	}
	cmdutil.Field(embed, ctx.T("commands.setlogs.status_main", nil), main)

	lines := make([]string, 0, len(logs.Channels))
	for _, ch := range logs.Channels {
		types := ch.Types.Enabled()
		if len(types) == 0 {
			continue
		}
		lines = append(lines, "<#"+ch.ChannelID+">: "+typeNames(ctx, types))
	}
	channels := ctx.T("commands.setlogs.status_no_channels", nil)
	if len(lines) > 0 {
		channels = cmdutil.Truncate(strings.Join(lines, "\n"), 1024)
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:  ctx.T("commands.setlogs.status_channels", nil),
		Value: channels,
	})
	return embed
}

func stateLabel(ctx *discord.CommandContext, enabled bool) string {
	if enabled {
		return ctx.T("common.enabled", nil)
	}
	return ctx.T("common.disabled", nil)
}

func typeNames(ctx *discord.CommandContext, types []models.LogType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = ctx.T("commands.setlogs.types."+string(t), nil)
	}
	return strings.Join(names, ", ")
}

// invalidTokens renders the tokens ParseLogTypes rejected
func invalidTokens(err error) string {
	var e *models.InvalidLogTypesError
	if errors.As(err, &e) && len(e.Tokens) > 0 {
		return strings.Join(e.Tokens, ", ")
	}
	return "-"
}
