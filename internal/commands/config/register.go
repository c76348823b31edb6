// Package config provides the guild settings commands: log routing,
// welcome messages, language and the warning policy.
package config

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

type handlers struct {
	deps *cmdutil.Deps
}

// RegisterConfigCommands registers /setlogs, /setwelcome, /setlang and /warnconfig
func RegisterConfigCommands(client *discord.ExtendedClient, deps *cmdutil.Deps) {
	h := &handlers{deps: deps}

	client.CommandHandler.AddGlobalCommand(client.CommandHandler.BuildCommandGroup(
		"setlogs",
		"Configura los canales de logs",
		h.createLogsDisableCommand(),
		h.createLogsConfigCommand(),
		h.createLogsSetChannelCommand(),
		h.createLogsRemoveChannelCommand(),
		h.createLogsStatusCommand(),
	))

	for _, cmd := range []*discord.Command{
		h.createSetWelcomeCommand(),
		h.createSetLangCommand(),
		h.createWarnConfigCommand(),
	} {
		client.CommandHandler.RegisterCommand(cmd)
	}
}

// update loads the guild document, applies fn and saves it. fn returning
// false skips the save.
func (h *handlers) update(ctx *discord.CommandContext, fn func(cfg *models.GuildConfig) bool) (*models.GuildConfig, error) {
	cfg, err := h.deps.Store.GetOrCreate(ctx.Context(), ctx.GuildID())
	if err != nil {
		return nil, err
	}
	if !fn(cfg) {
		return cfg, nil
	}
	if err := h.deps.Store.Save(ctx.Context(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
