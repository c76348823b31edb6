package config

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/bwmarrin/discordgo"
)

// Bounds of /warnconfig
const (
	maxWarnThreshold = 20
	maxTimeoutMins   = 40320
)

var languageNames = map[string]string{
	"fr": "Français",
	"en": "English",
	"es": "Español",
}

func (h *handlers) createSetWelcomeCommand() *discord.Command {
	return settingsCommand("setwelcome", "Configura el mensaje de bienvenida", h.setWelcomeHandler).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "enabled",
			Description: "Activar o desactivar la bienvenida",
			Required:    true,
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Canal de bienvenida",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews},
		},
	)
}

func (h *handlers) setWelcomeHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	enabled := ctx.GetBoolOption("enabled")
	channel := ctx.GetChannelOption("channel")

	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		cfg.Welcome.Enabled = &enabled
		if channel != nil {
			cfg.Welcome.ChannelID = channel.ID
		}
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "setwelcome", err)
	}

	desc := ctx.T("commands.setwelcome.disabled", nil)
	if enabled {
		desc = ctx.T("commands.setwelcome.enabled", nil)
		if channel != nil {
			desc += "\n" + ctx.T("commands.setwelcome.channel", i18n.Vars{"channel": "<#" + channel.ID + ">"})
		}
	}
	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.setwelcome.title", desc))
}

func (h *handlers) createSetLangCommand() *discord.Command {
	return settingsCommand("setlang", "Cambia el idioma del bot en el servidor", h.setLangHandler).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "language",
			Description: "Idioma",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: languageNames["fr"], Value: "fr"},
				{Name: languageNames["en"], Value: "en"},
				{Name: languageNames["es"], Value: "es"},
			},
		},
	)
}

func (h *handlers) setLangHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	lang := models.NormalizeLanguage(ctx.GetStringOption("language"), "")
	if lang == "" {
		return cmdutil.FailKey(ctx, "errors.generic", nil)
	}

	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		cfg.Language = lang
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "setlang", err)
	}

	embed := cmdutil.NewEmbed(ctx, i18n.T(lang, "commands.setlang.title", nil), cmdutil.ColorSuccess)
	embed.Description = i18n.T(lang, "commands.setlang.success", i18n.Vars{"language": languageNames[lang]})
	return ctx.EditReplyEmbed(embed)
}

func (h *handlers) createWarnConfigCommand() *discord.Command {
	return settingsCommand("warnconfig", "Configura el timeout automático por advertencias", h.warnConfigHandler).WithOptions(
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "after",
			Description: "Advertencias antes del timeout",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
			MaxValue:    maxWarnThreshold,
		},
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "minutes",
			Description: "Duración del timeout en minutos",
			Required:    true,
			MinValue:    func() *float64 { v := 1.0; return &v }(),
			MaxValue:    maxTimeoutMins,
		},
	)
}

// warnPolicy clamps the /warnconfig options to their bounds
func warnPolicy(after, minutes int64) models.WarnConfig {
	clamp := func(v, hi int64) int {
		if v < 1 {
			return 1
		}
		if v > hi {
			return int(hi)
		}
		return int(v)
	}
	return models.WarnConfig{
		TimeoutAfter:           clamp(after, maxWarnThreshold),
		TimeoutDurationMinutes: clamp(minutes, maxTimeoutMins),
	}
}

func (h *handlers) warnConfigHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}
	policy := warnPolicy(ctx.GetIntOption("after"), ctx.GetIntOption("minutes"))

	if _, err := h.update(ctx, func(cfg *models.GuildConfig) bool {
		if cfg.AntiRaid == nil {
			cfg.AntiRaid = &models.AntiRaidSettings{}
		}
		cfg.AntiRaid.WarnConfig = &policy
		return true
	}); err != nil {
		return cmdutil.Fail(ctx, "warnconfig", err)
	}

	return ctx.EditReplyEmbed(cmdutil.Success(ctx, "commands.warnconfig.title", ctx.T("commands.warnconfig.success", i18n.Vars{
		"after":   policy.TimeoutAfter,
		"minutes": policy.TimeoutDurationMinutes,
	})))
}
