package utils

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/i18n"
)

// createPingCommand creates the /ping command
func createPingCommand() *discord.Command {
	return discord.NewCommand(
		"ping",
		"Comprueba la latencia del bot",
		"public",
		pingHandler,
	)
}

// pingHandler handles the /ping command
func pingHandler(ctx *discord.CommandContext) error {
	latency := ctx.Session.HeartbeatLatency().Milliseconds()
	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.ping.title", nil), cmdutil.ColorInfo)
	embed.Description = ctx.T("commands.ping.details", i18n.Vars{"latency": latency})
	return ctx.ReplyEmbed(embed)
}
