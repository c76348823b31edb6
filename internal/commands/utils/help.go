package utils

import (
	"sort"
	"strings"

	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

// helpCategories is the display order of command categories
var helpCategories = []string{"moderation", "config", "public"}

// createHelpCommand creates the /help command
func createHelpCommand() *discord.Command {
	return discord.NewCommand(
		"help",
		"Muestra la lista de comandos",
		"public",
		helpHandler,
	)
}

// helpLines groups commands by category as "`/name` - description" lines,
// sorted by name. Subcommand keys such as "voice.ban" render as "/voice ban".
func helpLines(commands map[string]*discord.Command) map[string][]string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string][]string)
	for _, name := range names {
		cmd := commands[name]
		line := "`/" + strings.ReplaceAll(name, ".", " ") + "` - " + cmd.Description
		out[cmd.Category] = append(out[cmd.Category], line)
	}
	return out
}

// helpHandler handles the /help command
func helpHandler(ctx *discord.CommandContext) error {
	embed := cmdutil.NewEmbed(ctx, ctx.T("commands.help.title", nil), cmdutil.ColorInfo)
	lines := helpLines(ctx.Client.Commands.All())
	for _, category := range helpCategories {
		if len(lines[category]) == 0 {
			continue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  ctx.T("commands.help."+category, nil),
			Value: cmdutil.Truncate(strings.Join(lines[category], "\n"), 1024),
		})
	}
	return ctx.ReplyEphemeralEmbed(embed)
}
