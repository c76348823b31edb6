package utils

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/bwmarrin/discordgo"
)

// createStatsCommand creates the /stats command
func createStatsCommand() *discord.Command {
	return discord.NewCommand(
		"stats",
		"Muestra estadísticas del bot",
		"public",
		statsHandler,
	)
}

// statsHandler handles the /stats command
func statsHandler(ctx *discord.CommandContext) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.stats.title", nil), cmdutil.ColorInfo)
	cmdutil.Field(embed, ctx.T("commands.stats.version", nil), config.Version)
	cmdutil.Field(embed, ctx.T("commands.stats.go_version", nil), strings.TrimPrefix(runtime.Version(), "go"))
	cmdutil.Field(embed, ctx.T("commands.stats.discordgo", nil), discordgo.VERSION)
	cmdutil.Field(embed, ctx.T("commands.stats.memory", nil), fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024))
	cmdutil.Field(embed, ctx.T("commands.stats.goroutines", nil), fmt.Sprintf("%d / %d CPUs", runtime.NumGoroutine(), runtime.NumCPU()))
	cmdutil.Field(embed, ctx.T("commands.stats.uptime", nil), moderation.FormatDuration(time.Since(ctx.Client.StartTime)))
	cmdutil.Field(embed, ctx.T("commands.stats.guilds", nil), strconv.Itoa(ctx.Client.GuildCount()))
	cmdutil.Field(embed, ctx.T("commands.stats.members", nil), strconv.Itoa(ctx.Client.MemberCount()))
	return ctx.ReplyEmbed(embed)
}
