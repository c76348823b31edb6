// Package commands wires every slash command category into the client.
// Commands live in subdirectories by category (mod, config, utils).
package commands

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/internal/commands/config"
	"github.com/PancyStudios/PancyModGo/internal/commands/mod"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
)

// RegisterAll registers all commands with the Discord client
func RegisterAll(client *discord.ExtendedClient, deps *cmdutil.Deps) {
	// Moderation (/mute, /warn, /lock, /voice ..., /staffroles ...)
	mod.RegisterModCommands(client, deps)

	// Guild settings (/setlogs ..., /setwelcome, /setlang, /warnconfig)
	config.RegisterConfigCommands(client, deps)

	// Public commands
	utils.RegisterUtilsCommands(client, deps)

	logger.Info(fmt.Sprintf("Comandos cargados: %d", client.Commands.Size()), "Commands")
}
