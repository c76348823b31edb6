// Package utils provides the public commands: latency, help, bot status and
// statistics, and server and member information.
package utils

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

type handlers struct {
	deps *cmdutil.Deps
}

// RegisterUtilsCommands registers the public commands
func RegisterUtilsCommands(client *discord.ExtendedClient, deps *cmdutil.Deps) {
	h := &handlers{deps: deps}
	for _, cmd := range []*discord.Command{
		createPingCommand(),
		createHelpCommand(),
		h.createStatusCommand(),
		createStatsCommand(),
		createServerInfoCommand(),
		h.createUserInfoCommand(),
	} {
		client.CommandHandler.RegisterCommand(cmd)
	}
}
