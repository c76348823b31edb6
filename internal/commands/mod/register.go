// Package mod provides the moderation commands. Each command lives in the
// file of its family; handlers share the injected services.
package mod

import (
	"github.com/PancyStudios/PancyModGo/internal/commands/cmdutil"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/bwmarrin/discordgo"
)

type handlers struct {
	deps *cmdutil.Deps
}

// RegisterModCommands registers the moderation commands and the /voice and
// /staffroles groups
func RegisterModCommands(client *discord.ExtendedClient, deps *cmdutil.Deps) {
	h := &handlers{deps: deps}

	for _, cmd := range []*discord.Command{
		h.createMuteCommand(),
		h.createUnmuteCommand(),
		h.createWarnCommand(),
		h.createUnwarnCommand(),
		h.createWarnListCommand(),
		h.createWarningsCommand(),
		h.createKickCommand(),
		h.createBanCommand(),
		h.createUnbanCommand(),
		h.createClearCommand(),
		h.createLockCommand(),
		h.createUnlockCommand(),
		h.createSetupMuteCommand(),
	} {
		client.CommandHandler.RegisterCommand(cmd)
	}

	client.CommandHandler.AddGlobalCommand(client.CommandHandler.BuildCommandGroup(
		"voice",
		"Moderación de canales de voz",
		h.createVoiceKickCommand(),
		h.createVoiceBanCommand(),
		h.createVoiceUnbanCommand(),
	))

	client.CommandHandler.AddGlobalCommand(client.CommandHandler.BuildCommandGroup(
		"staffroles",
		"Gestiona los roles de staff",
		h.createStaffRolesAddCommand(),
		h.createStaffRolesRemoveCommand(),
		h.createStaffRolesListCommand(),
	))
}

// target reads the "user" option and rejects the moderator themself. It
// answers the deferred reply on rejection and returns nil.
func target(ctx *discord.CommandContext) *discordgo.User {
	user := ctx.GetUserOption("user")
	if user == nil {
		_ = cmdutil.FailKey(ctx, "errors.member_not_found", nil)
		return nil
	}
	if me := ctx.User(); me != nil && me.ID == user.ID {
		_ = cmdutil.FailKey(ctx, "errors.self_target", nil)
		return nil
	}
	return user
}

func moderatorID(ctx *discord.CommandContext) string {
	if u := ctx.User(); u != nil {
		return u.ID
	}
	return ""
}
