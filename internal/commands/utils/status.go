package utils

import (
	"strconv"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
)

// createStatusCommand creates the /status command
func (h *handlers) createStatusCommand() *discord.Command {
	return discord.NewCommand(
		"status",
		"Muestra el estado del bot",
		"public",
		h.statusHandler,
	)
}

// statusHandler handles the /status command
func (h *handlers) statusHandler(ctx *discord.CommandContext) error {
	if err := ctx.DeferEphemeral(); err != nil {
		return err
	}

	dbStatus, pending := ctx.T("commands.status.offline", nil), 0
	if db := database.Get(); db != nil {
		if _, ok := db.GetStatus(); ok {
			dbStatus = ctx.T("commands.status.online", nil)
		}
		pending = db.PendingWrites()
	}

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.status.title", nil), cmdutil.ColorInfo)
	cmdutil.Field(embed, ctx.T("commands.status.bot", nil), ctx.T("commands.status.online", nil))
	cmdutil.Field(embed, ctx.T("commands.status.database", nil), dbStatus)
	cmdutil.Field(embed, ctx.T("commands.status.guilds", nil), strconv.Itoa(ctx.Client.GuildCount()))
	if h.deps != nil && h.deps.Scheduler != nil {
		cmdutil.Field(embed, ctx.T("commands.status.scheduler", nil), strconv.Itoa(h.deps.Scheduler.Pending()))
	}
	cmdutil.Field(embed, ctx.T("commands.status.pending_writes", nil), strconv.Itoa(pending))
	if h.deps != nil && h.deps.Store != nil {
		cmdutil.Field(embed, ctx.T("commands.status.cached_guilds", nil), strconv.Itoa(h.deps.Store.CacheSize()))
	}
	return ctx.EditReplyEmbed(embed)
}
